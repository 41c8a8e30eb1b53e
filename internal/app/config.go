package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/2002Bishwajeet/ogbanana/internal/credits"
	"github.com/2002Bishwajeet/ogbanana/internal/llm"
	"github.com/2002Bishwajeet/ogbanana/internal/store"
	"github.com/2002Bishwajeet/ogbanana/internal/webclient"
)

// EnvPrefix prefixes every environment override, e.g. OGBANANA_HTTP_ADDR.
const EnvPrefix = "OGBANANA"

// Config aggregates the per-package configuration.
type Config struct {
	HTTP        HTTPConfig              `mapstructure:"http"`
	Log         LogConfig               `mapstructure:"log"`
	WebClient   webclient.Config        `mapstructure:"webclient"`
	Browser     webclient.BrowserConfig `mapstructure:"browser"`
	GenAI       llm.Config              `mapstructure:"genai"`
	Persistence store.Config            `mapstructure:"persistence"`
	Credits     credits.Config          `mapstructure:"credits"`
	Executions  ExecutionsConfig        `mapstructure:"executions"`
}

type HTTPConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	// MaxBodyBytes caps request bodies on every route.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ExecutionsConfig tunes the in-process execution service.
type ExecutionsConfig struct {
	// Timeout bounds a single function run.
	Timeout time.Duration `mapstructure:"timeout"`
	// Retention is how long finished executions stay readable.
	Retention   time.Duration `mapstructure:"retention"`
	EventBuffer int           `mapstructure:"event_buffer"`
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			MaxBodyBytes:      1 << 20,
		},
		Log:         LogConfig{Level: "info"},
		WebClient:   webclient.DefaultConfig(),
		Browser:     webclient.DefaultBrowserConfig(),
		GenAI:       llm.DefaultConfig(),
		Persistence: store.DefaultConfig(),
		Credits:     credits.DefaultConfig(),
		Executions: ExecutionsConfig{
			Timeout:     5 * time.Minute,
			Retention:   time.Hour,
			EventBuffer: 16,
		},
	}
}

// envAliases are the unprefixed variable names the deployment environment
// already uses. The first one present wins.
var envAliases = map[string][]string{
	"genai.api_key":           {"GEMINI_API_KEY", "GOOGLE_API_KEY", "GENAI_API_KEY"},
	"genai.text_model":        {"GEMINI_TEXT_MODEL"},
	"genai.image_model":       {"GEMINI_IMAGE_MODEL"},
	"persistence.database_id": {"OG_DATA_DATABASE_ID"},
	"persistence.table_id":    {"OGP_COLLECTION_ID"},
}

// LoadConfig reads defaults, then the optional config file at path (or
// ./ogbanana.{yaml,toml,json} when path is empty), then the environment.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ogbanana")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	for key, names := range envAliases {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, prefixed}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.read_header_timeout", d.HTTP.ReadHeaderTimeout)
	v.SetDefault("http.shutdown_timeout", d.HTTP.ShutdownTimeout)
	v.SetDefault("http.max_body_bytes", d.HTTP.MaxBodyBytes)

	v.SetDefault("log.level", d.Log.Level)

	v.SetDefault("webclient.client", string(d.WebClient.Client))
	v.SetDefault("webclient.timeout", d.WebClient.Timeout)
	v.SetDefault("webclient.max_body_bytes", d.WebClient.MaxBodyBytes)
	v.SetDefault("webclient.user_agent", d.WebClient.UserAgent)

	v.SetDefault("browser.backend", string(d.Browser.Backend))
	v.SetDefault("browser.headless", d.Browser.Headless)
	v.SetDefault("browser.no_sandbox", d.Browser.NoSandbox)
	v.SetDefault("browser.exec_path", d.Browser.ExecPath)
	v.SetDefault("browser.navigation_timeout", d.Browser.NavigationTimeout)
	v.SetDefault("browser.idle_after", d.Browser.IdleAfter)
	v.SetDefault("browser.viewport_width", d.Browser.ViewportWidth)
	v.SetDefault("browser.viewport_height", d.Browser.ViewportHeight)
	v.SetDefault("browser.screenshot_quality", d.Browser.ScreenshotQuality)
	v.SetDefault("browser.user_agent", d.Browser.UserAgent)

	v.SetDefault("genai.api_key", d.GenAI.APIKey)
	v.SetDefault("genai.text_model", d.GenAI.TextModel)
	v.SetDefault("genai.image_model", d.GenAI.ImageModel)
	v.SetDefault("genai.language", d.GenAI.Language)
	v.SetDefault("genai.page_format", string(d.GenAI.PageFormat))

	v.SetDefault("persistence.driver", d.Persistence.Driver)
	v.SetDefault("persistence.dsn", d.Persistence.DSN)
	v.SetDefault("persistence.data_dir", d.Persistence.DataDir)
	v.SetDefault("persistence.database_id", d.Persistence.DatabaseID)
	v.SetDefault("persistence.table_id", d.Persistence.TableID)

	v.SetDefault("credits.backend", string(d.Credits.Backend))
	v.SetDefault("credits.redis_url", d.Credits.RedisURL)
	v.SetDefault("credits.reset_interval", d.Credits.ResetInterval)
	v.SetDefault("credits.admin_token", d.Credits.AdminToken)

	v.SetDefault("executions.timeout", d.Executions.Timeout)
	v.SetDefault("executions.retention", d.Executions.Retention)
	v.SetDefault("executions.event_buffer", d.Executions.EventBuffer)
}
