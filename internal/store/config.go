package store

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects the SQL backend and the table persisted rows go to.
type Config struct {
	Driver string `mapstructure:"driver"`
	// DSN is the connection string. For sqlite it may be left empty and the
	// file <DataDir>/<DatabaseID>.db is used.
	DSN     string `mapstructure:"dsn"`
	DataDir string `mapstructure:"data_dir"`

	// DatabaseID and TableID name where generation rows are written. Either
	// one empty disables row persistence.
	DatabaseID string `mapstructure:"database_id"`
	TableID    string `mapstructure:"table_id"`
}

func DefaultConfig() Config {
	return Config{
		Driver:     DriverSQLite,
		DataDir:    ".ogbanana",
		DatabaseID: "og-data",
		TableID:    "ogp",
	}
}

// PersistenceEnabled reports whether generation rows should be written.
func (c Config) PersistenceEnabled() bool {
	return c.DatabaseID != "" && c.TableID != ""
}
