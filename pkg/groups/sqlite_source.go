package groups

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/nodefold/nodefold/pkg/nodeset"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteSource resolves groups from a SQLite inventory database. The
// schema is managed with embedded migrations: a groups table holding
// one (name, nodes) row per node specification, so a group's members
// are the nodes values of its rows. The database is opened and
// migrated lazily on first use.
type SQLiteSource struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteSource creates a sqlite source backed by the database file
// at path. ":memory:" is accepted for tests.
func NewSQLiteSource(path string) *SQLiteSource {
	return &SQLiteSource{path: path}
}

// open returns the database handle, creating and migrating it on the
// first call.
func (s *SQLiteSource) open(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory database: %w", err)
	}

	// A single connection keeps in-memory databases coherent and is
	// plenty for resolver traffic.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping inventory database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.db = db
	return db, nil
}

// runMigrations applies the embedded schema migrations.
func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database handle if it was opened.
func (s *SQLiteSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Add records nodes as a member specification of group. Adding the
// same specification twice is a no-op.
func (s *SQLiteSource) Add(ctx context.Context, group, nodes string) error {
	if group == "" || nodes == "" {
		return fmt.Errorf("group and nodes are required")
	}
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		"INSERT OR IGNORE INTO groups (name, nodes) VALUES (?, ?)", group, nodes)
	if err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

// Remove deletes every member row of group.
func (s *SQLiteSource) Remove(ctx context.Context, group string) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, "DELETE FROM groups WHERE name = ?", group)
	if err != nil {
		return fmt.Errorf("failed to remove group: %w", err)
	}
	return nil
}

// Groups implements nodeset.GroupSource.
func (s *SQLiteSource) Groups(ctx context.Context) ([]string, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT DISTINCT name FROM groups ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan group name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return names, nil
}

// Members implements nodeset.GroupSource.
func (s *SQLiteSource) Members(ctx context.Context, group string) ([]string, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		"SELECT nodes FROM groups WHERE name = ? ORDER BY nodes", group)
	if err != nil {
		return nil, fmt.Errorf("failed to query group members: %w", err)
	}
	defer rows.Close()

	var specs []string
	for rows.Next() {
		var nodes string
		if err := rows.Scan(&nodes); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		specs = append(specs, nodes)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query group members: %w", err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%q: %w", group, nodeset.ErrUnknownGroup)
	}
	return specs, nil
}
