package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// migrationFS embeds all SQL migration files into the compiled binary.
//
//go:embed migrations/*.sql
var migrationFS embed.FS

// DB wraps a sql.DB connection to the SQLite cache database.
type DB struct {
	conn *sql.DB
}

// Digest is a cached model-written summary of one release's change-log.
type Digest struct {
	ReleaseKey string
	Model      string
	Summary    string
	CreatedAt  string
}

// Open creates a new DB connection and runs all pending migrations.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	d := &DB{conn: conn}
	if err := d.migrate(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying *sql.DB for use by other packages if needed.
func (d *DB) Conn() *sql.DB {
	return d.conn
}

func (d *DB) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, d.conn, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// --- Change-log Methods ---

// GetChangeLog returns the cached change-log text for a release key.
func (d *DB) GetChangeLog(key string) (string, bool, error) {
	var body string
	err := d.conn.QueryRow(`SELECT body FROM changelogs WHERE release_key = ?`, key).Scan(&body)
	if err == sql.ErrNoRows {
		return "", false, nil
	} else if err != nil {
		return "", false, fmt.Errorf("get changelog %s: %w", key, err)
	}
	return body, true, nil
}

// PutChangeLog stores or replaces the change-log text for a release key.
func (d *DB) PutChangeLog(key, text string) error {
	_, err := d.conn.Exec(
		`INSERT INTO changelogs (release_key, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(release_key) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		key, text, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("put changelog %s: %w", key, err)
	}
	return nil
}

// CountChangeLogs returns the number of cached change-logs.
func (d *DB) CountChangeLogs() (int, error) {
	var n int
	if err := d.conn.QueryRow(`SELECT COUNT(*) FROM changelogs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count changelogs: %w", err)
	}
	return n, nil
}

// --- Digest Methods ---

// GetDigest retrieves a digest by release key and model. Returns nil when
// none is cached.
func (d *DB) GetDigest(key, model string) (*Digest, error) {
	g := &Digest{}
	err := d.conn.QueryRow(
		`SELECT release_key, model, summary, created_at FROM digests WHERE release_key = ? AND model = ?`,
		key, model,
	).Scan(&g.ReleaseKey, &g.Model, &g.Summary, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("get digest %s: %w", key, err)
	}
	return g, nil
}

// PutDigest stores or replaces a digest.
func (d *DB) PutDigest(g *Digest) error {
	if g.CreatedAt == "" {
		g.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := d.conn.Exec(
		`INSERT INTO digests (release_key, model, summary, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(release_key, model) DO UPDATE SET summary = excluded.summary, created_at = excluded.created_at`,
		g.ReleaseKey, g.Model, g.Summary, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("put digest %s: %w", g.ReleaseKey, err)
	}
	return nil
}
