package server

import (
	"time"

	"github.com/2002Bishwajeet/ogbanana/internal/app"
	"github.com/2002Bishwajeet/ogbanana/internal/logging"
)

type Config struct {
	ListenAddr        string
	ReadHeaderTimeout time.Duration
	// MaxBodyBytes caps request bodies; zero means no cap.
	MaxBodyBytes int64
	// AdminToken is the bearer token for /jobs/reset-credits. Empty leaves
	// the route unregistered.
	AdminToken string
	Executions app.ExecutionsConfig
	Logger     logging.Logger
}

// ConfigFromApp derives the server settings from the application config.
func ConfigFromApp(cfg *app.Config, logger logging.Logger) Config {
	return Config{
		ListenAddr:        cfg.HTTP.Addr,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		MaxBodyBytes:      cfg.HTTP.MaxBodyBytes,
		AdminToken:        cfg.Credits.AdminToken,
		Executions:        cfg.Executions,
		Logger:            logger,
	}
}
