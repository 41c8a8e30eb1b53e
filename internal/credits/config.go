package credits

import "time"

// Backend names the Ledger implementation.
type Backend string

const (
	BackendSQL   Backend = "sql"
	BackendRedis Backend = "redis"
)

type Config struct {
	Backend  Backend `mapstructure:"backend"`
	RedisURL string  `mapstructure:"redis_url"`
	// ResetInterval runs the reset job periodically; zero disables it.
	ResetInterval time.Duration `mapstructure:"reset_interval"`
	// AdminToken guards the reset endpoint. Empty disables the endpoint.
	AdminToken string `mapstructure:"admin_token"`
}

func DefaultConfig() Config {
	return Config{
		Backend:  BackendSQL,
		RedisURL: "redis://localhost:6379/0",
	}
}
