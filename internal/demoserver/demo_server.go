// Package demoserver serves a small bakery site used to exercise the scraper
// locally: server-rendered pages, a JavaScript-only app shell, a body with no
// visible text and a redirect.
package demoserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"sort"
)

// DemoServer is a simple HTTP server hosting the demo pages.
type DemoServer struct {
	cfg      Config
	pages    map[string]PageDefinition
	rendered map[string][]byte
}

// NewDemoServer creates a new demo server instance. Page templates are
// executed once up front.
func NewDemoServer(cfg Config) (*DemoServer, error) {
	if cfg.SiteName == "" {
		cfg.SiteName = DefaultConfig().SiteName
	}
	s := &DemoServer{
		cfg:      cfg,
		pages:    make(map[string]PageDefinition),
		rendered: make(map[string][]byte),
	}
	for _, p := range GetAllPages() {
		s.pages[p.Path] = p
		if p.RedirectTo != "" {
			continue
		}
		tmpl, err := template.New(p.Path).Parse(p.HTML)
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", p.Path, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return nil, fmt.Errorf("render page %s: %w", p.Path, err)
		}
		s.rendered[p.Path] = buf.Bytes()
	}
	return s, nil
}

// Handler returns the site's routes.
func (s *DemoServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.pageHandler)
	mux.HandleFunc("/static/app.js", s.staticHandler("application/javascript", appJS))
	mux.HandleFunc("/static/site.css", s.staticHandler("text/css", siteCSS))
	mux.HandleFunc("/demo/pages", s.pagesHandler)
	return mux
}

// Start starts the demo server.
func (s *DemoServer) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	fmt.Printf("Demo server starting on http://localhost%s\n", addr)
	fmt.Printf("Page index at http://localhost%s/demo/pages\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *DemoServer) pageHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := s.pages[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if page.RedirectTo != "" {
		http.Redirect(w, r, page.RedirectTo, http.StatusMovedPermanently)
		return
	}

	contentType := page.ContentType
	if contentType == "" {
		contentType = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.rendered[page.Path])
}

func (s *DemoServer) staticHandler(contentType, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}
}

// pagesHandler lists the demo pages.
func (s *DemoServer) pagesHandler(w http.ResponseWriter, r *http.Request) {
	type PageInfo struct {
		Path        string `json:"path"`
		Description string `json:"description"`
	}

	pages := make([]PageInfo, 0, len(s.pages))
	for path, p := range s.pages {
		pages = append(pages, PageInfo{Path: path, Description: p.Description})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Path < pages[j].Path })

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(pages)
}
