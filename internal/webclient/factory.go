package webclient

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/2002Bishwajeet/ogbanana/internal/logging"
)

// BackendConstructor constructs a WebClient given the config and logger.
type BackendConstructor func(cfg Config, logger logging.Logger) (WebClient, error)

// BrowserConstructor constructs a Browser given the config and logger.
type BrowserConstructor func(cfg BrowserConfig, logger logging.Logger) (Browser, error)

var (
	mu       sync.RWMutex
	registry = map[string]BackendConstructor{}
	browsers = map[string]BrowserConstructor{}
)

// RegisterBackend registers a named backend constructor. Name is lower-cased
// internally. Calling RegisterBackend with the same name overwrites the previous
// constructor.
func RegisterBackend(name string, ctor BackendConstructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(name)] = ctor
}

// RegisterBrowser registers a named browser constructor.
func RegisterBrowser(name string, ctor BrowserConstructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	browsers[strings.ToLower(name)] = ctor
}

// NewWebClient constructs the configured WebClient backend. It returns an error
// if the named backend has not been registered.
func NewWebClient(cfg Config, logger logging.Logger) (WebClient, error) {
	backend := strings.ToLower(strings.TrimSpace(string(cfg.Client)))
	if backend == "" {
		backend = string(ClientNetHTTP)
	}

	mu.RLock()
	ctor, ok := registry[backend]
	mu.RUnlock()
	if !ok || ctor == nil {
		return nil, fmt.Errorf("webclient backend %q not registered: available backends=%v", backend, ListBackends())
	}

	wc, err := ctor(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to construct webclient backend %q: %w", backend, err)
	}
	if wc == nil {
		return nil, errors.New("webclient constructor returned nil")
	}
	return wc, nil
}

// NewBrowser constructs the configured Browser backend.
func NewBrowser(cfg BrowserConfig, logger logging.Logger) (Browser, error) {
	backend := strings.ToLower(strings.TrimSpace(string(cfg.Backend)))
	if backend == "" {
		backend = string(BrowserChromedp)
	}

	mu.RLock()
	ctor, ok := browsers[backend]
	mu.RUnlock()
	if !ok || ctor == nil {
		return nil, fmt.Errorf("browser backend %q not registered: available backends=%v", backend, ListBrowsers())
	}

	b, err := ctor(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to construct browser backend %q: %w", backend, err)
	}
	if b == nil {
		return nil, errors.New("browser constructor returned nil")
	}
	return b, nil
}

// ListBackends returns the sorted list of registered backend names.
func ListBackends() []string {
	mu.RLock()
	defer mu.RUnlock()
	return sortedKeys(registry)
}

// ListBrowsers returns the sorted list of registered browser names.
func ListBrowsers() []string {
	mu.RLock()
	defer mu.RUnlock()
	return sortedKeys(browsers)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
