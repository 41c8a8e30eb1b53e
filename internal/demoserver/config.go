package demoserver

// Config holds configuration for the demo server.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int

	// SiteName is rendered into the static pages' titles and og:site_name.
	SiteName string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:     9999,
		SiteName: "Banana Bakery",
	}
}
