// Package store persists user preferences and generation rows in SQL
// (sqlite by default, postgres optionally).
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/2002Bishwajeet/ogbanana/internal/logging"
)

//go:embed schema_sqlite.sql schema_postgres.sql
var schemaFS embed.FS

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]{0,62}$`)

// ErrUnknownDriver is returned by Open for drivers other than sqlite and postgres.
var ErrUnknownDriver = errors.New("store: unknown driver")

// DB wraps *sql.DB with the driver-specific bits the stores need.
type DB struct {
	db        *sql.DB
	driver    string
	rowsTable string
	logger    logging.Logger
}

// Open connects to the configured backend, applies pragmas (sqlite) and the
// embedded schema.
func Open(ctx context.Context, cfg Config, logger logging.Logger) (*DB, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	table := cfg.TableID
	if table == "" {
		table = DefaultConfig().TableID
	}
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("store: invalid table id %q", table)
	}

	dsn := cfg.DSN
	switch cfg.Driver {
	case DriverSQLite:
		if dsn == "" {
			name := cfg.DatabaseID
			if name == "" {
				name = "ogbanana"
			}
			dir := cfg.DataDir
			if dir == "" {
				dir = DefaultConfig().DataDir
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("ensure data dir %s: %w", dir, err)
			}
			dsn = filepath.Join(dir, name+".db")
		}
	case DriverPostgres:
		if dsn == "" {
			return nil, errors.New("store: postgres requires a dsn")
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}

	sqlDB, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.Driver == DriverSQLite {
		// sqlite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	}

	d := &DB{
		db:        sqlDB,
		driver:    cfg.Driver,
		rowsTable: table,
		logger:    logger.With(logging.Field{Key: "component", Value: "store"}),
	}
	if err := d.applySchema(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	d.logger.Info("store opened",
		logging.Field{Key: "driver", Value: cfg.Driver},
		logging.Field{Key: "rows_table", Value: table})
	return d, nil
}

func (d *DB) applySchema(ctx context.Context) error {
	if d.driver == DriverSQLite {
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
			"PRAGMA foreign_keys=ON",
			"PRAGMA busy_timeout=5000",
		}
		for _, pragma := range pragmas {
			if _, err := d.db.ExecContext(ctx, pragma); err != nil {
				return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
			}
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema_" + d.driver + ".sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	schema := strings.NewReplacer(
		"{{rows_table}}", d.quotedRows(),
		"{{rows_index}}", quoteIdent("idx_"+strings.ReplaceAll(d.rowsTable, "-", "_")+"_user"),
	).Replace(string(schemaSQL))

	// Multi-statement Exec: no bind parameters allowed here.
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// SQL returns the underlying handle.
func (d *DB) SQL() *sql.DB { return d.db }

// Driver returns the backend name.
func (d *DB) Driver() string { return d.driver }

func (d *DB) Close() error { return d.db.Close() }

func (d *DB) quotedRows() string { return quoteIdent(d.rowsTable) }

// rebind rewrites '?' placeholders to $n for postgres.
func (d *DB) rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
