package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"aquaculture-platform/pkg/logging"
)

//go:embed migrations/*/*.sql
var migrationFiles embed.FS

// Migration directions
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

type migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

// loadMigrations reads the embedded scripts for a driver, ordered by version.
// Files are named NNN_description.{up,down}.sql.
func loadMigrations(driver string) ([]migration, error) {
	dir := path.Join("migrations", driver)
	entries, err := fs.ReadDir(migrationFiles, dir)
	if err != nil {
		return nil, fmt.Errorf("no migrations for driver %q: %w", driver, err)
	}

	byVersion := make(map[int]*migration)
	for _, entry := range entries {
		name := entry.Name()

		var direction string
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			direction = DirectionUp
		case strings.HasSuffix(name, ".down.sql"):
			direction = DirectionDown
		default:
			continue
		}

		prefix, rest, ok := strings.Cut(name, "_")
		if !ok {
			return nil, fmt.Errorf("malformed migration file name %q", name)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("malformed migration version in %q: %w", name, err)
		}

		content, err := fs.ReadFile(migrationFiles, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read migration %q: %w", name, err)
		}

		m, exists := byVersion[version]
		if !exists {
			m = &migration{
				Version:     version,
				Description: strings.TrimSuffix(strings.TrimSuffix(rest, ".up.sql"), ".down.sql"),
			}
			byVersion[version] = m
		}
		if direction == DirectionUp {
			m.Up = string(content)
		} else {
			m.Down = string(content)
		}
	}

	migrations := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// Migrate applies pending up scripts, or rolls back applied ones for
// DirectionDown. Applied versions are tracked in schema_migrations.
func (d *DB) Migrate(ctx context.Context, direction string) error {
	if direction != DirectionUp && direction != DirectionDown {
		return fmt.Errorf("unknown migration direction %q", direction)
	}

	migrations, err := loadMigrations(d.driver)
	if err != nil {
		return err
	}

	if err := d.ensureMigrationsTable(ctx); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	applied, err := d.appliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("get applied migrations: %w", err)
	}

	if direction == DirectionDown {
		for i := len(migrations) - 1; i >= 0; i-- {
			m := migrations[i]
			if !applied[m.Version] {
				continue
			}
			if err := d.runMigration(ctx, m, m.Down,
				"DELETE FROM schema_migrations WHERE version = ?", m.Version); err != nil {
				return err
			}
		}
		return nil
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := d.runMigration(ctx, m, m.Up,
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Description, time.Now().UTC()); err != nil {
			return err
		}
	}

	return nil
}

func (d *DB) runMigration(ctx context.Context, m migration, script, record string, args ...interface{}) error {
	d.logger.Info(ctx, "[DB_MIGRATE] Applying migration", logging.Fields{
		"version":     m.Version,
		"description": m.Description,
		"driver":      d.driver,
	})

	tx, err := d.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx for migration %d: %w", m.Version, err)
	}

	if _, err := tx.ExecContext(ctx, script); err != nil {
		tx.Rollback()
		return fmt.Errorf("execute migration %d: %w", m.Version, err)
	}

	if _, err := tx.ExecContext(ctx, d.Rebind(record), args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("record migration %d: %w", m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.Version, err)
	}

	return nil
}

func (d *DB) ensureMigrationsTable(ctx context.Context) error {
	_, err := d.ExecContext(ctx, "create_migrations_table", `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  TIMESTAMP NOT NULL
		)`)
	return err
}

func (d *DB) appliedMigrations(ctx context.Context) (map[int]bool, error) {
	var versions []int
	if err := d.SelectContext(ctx, "applied_migrations", &versions, "SELECT version FROM schema_migrations"); err != nil {
		return nil, err
	}

	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

// MigrationVersion returns the highest applied version, or 0
func (d *DB) MigrationVersion(ctx context.Context) (int, error) {
	var version int
	err := d.GetContext(ctx, "migration_version", &version,
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err != nil {
		return 0, err
	}
	return version, nil
}
