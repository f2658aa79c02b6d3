package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	stdfs "io/fs"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (or creates) the SQLite database at path and applies pending migrations.
// Migrations are the embedded files under internal/db/migrations named
//
//	0001_name.up.sql / 0001_name.down.sql
//
// A script starting with "-- NO_TX" runs outside a transaction.
func Open(path string) (*sql.DB, error) {
	d, err := OpenRaw(path)
	if err != nil {
		return nil, err
	}
	if _, err := Migrate(context.Background(), d); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// OpenRaw opens the database and sets connection pragmas without migrating.
func OpenRaw(path string) (*sql.DB, error) {
	if path == "" {
		path = "tasks.db"
	}
	// Pragmas are per connection; the DSN options apply them to every pooled connection.
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	d, err := sql.Open("sqlite3", path+sep+"_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if err := d.Ping(); err != nil {
		_ = d.Close()
		return nil, err
	}
	// WAL is unavailable for in-memory databases.
	_, _ = d.Exec(`PRAGMA journal_mode=WAL`)
	for _, pragma := range []string{`PRAGMA busy_timeout=5000`, `PRAGMA foreign_keys=ON`} {
		if _, err := d.Exec(pragma); err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return d, nil
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

type migration struct {
	version  int
	name     string
	upFile   string
	downFile string
}

var migFileRe = regexp.MustCompile(`^([0-9]{4})_(.+)\.(up|down)\.sql$`)

func loadMigrations() (map[int]migration, error) {
	entries := map[int]migration{}
	list, err := stdfs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return entries, nil
	}
	for _, de := range list {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		m := migFileRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		var ver int
		if _, err := fmt.Sscanf(m[1], "%04d", &ver); err != nil {
			continue
		}
		item := entries[ver]
		item.version = ver
		item.name = m[2]
		if m[3] == "up" {
			item.upFile = "migrations/" + name
		} else {
			item.downFile = "migrations/" + name
		}
		entries[ver] = item
	}
	return entries, nil
}

func ensureMigrationsTable(ctx context.Context, d *sql.DB) error {
	_, err := d.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
        version INTEGER PRIMARY KEY,
        applied_at TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
    )`)
	return err
}

// AppliedVersions returns the migration versions recorded in schema_migrations, ascending.
func AppliedVersions(ctx context.Context, d *sql.DB) ([]int, error) {
	if err := ensureMigrationsTable(ctx, d); err != nil {
		return nil, err
	}
	rows, err := d.QueryContext(ctx, `SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Migrate applies every migration not yet recorded and returns the versions it applied.
func Migrate(ctx context.Context, d *sql.DB) ([]int, error) {
	if d == nil {
		return nil, errors.New("nil db")
	}
	migs, err := loadMigrations()
	if err != nil {
		return nil, err
	}
	done, err := AppliedVersions(ctx, d)
	if err != nil {
		return nil, err
	}
	applied := make(map[int]bool, len(done))
	for _, v := range done {
		applied[v] = true
	}
	versions := make([]int, 0, len(migs))
	for v := range migs {
		versions = append(versions, v)
	}
	sort.Ints(versions)

	var ran []int
	for _, v := range versions {
		if applied[v] {
			continue
		}
		m := migs[v]
		if strings.TrimSpace(m.upFile) == "" {
			return ran, fmt.Errorf("missing up migration for version %04d", v)
		}
		if err := runScript(ctx, d, m.upFile, `INSERT INTO schema_migrations(version) VALUES(?)`, v); err != nil {
			return ran, fmt.Errorf("migration %04d_%s failed: %w", v, m.name, err)
		}
		slog.Debug("applied migration", "version", v, "name", m.name)
		ran = append(ran, v)
	}
	return ran, nil
}

// RollbackLast reverts the most recently applied migration and returns its version,
// or 0 when nothing has been applied.
func RollbackLast(ctx context.Context, d *sql.DB) (int, error) {
	if d == nil {
		return 0, errors.New("nil db")
	}
	if err := ensureMigrationsTable(ctx, d); err != nil {
		return 0, err
	}
	var version int
	err := d.QueryRowContext(ctx, `SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	migs, err := loadMigrations()
	if err != nil {
		return 0, err
	}
	m, ok := migs[version]
	if !ok || m.downFile == "" {
		return 0, fmt.Errorf("no down migration found for version %d", version)
	}
	if err := runScript(ctx, d, m.downFile, `DELETE FROM schema_migrations WHERE version = ?`, version); err != nil {
		return 0, err
	}
	return version, nil
}

// runScript executes an embedded script followed by the bookkeeping statement,
// inside a transaction unless the script opts out with "-- NO_TX".
func runScript(ctx context.Context, d *sql.DB, file, bookkeeping string, version int) error {
	sqlText, err := migrationsFS.ReadFile(file)
	if err != nil {
		return err
	}
	text := string(sqlText)
	if strings.HasPrefix(strings.TrimSpace(text), "-- NO_TX") {
		if _, err := d.ExecContext(ctx, text); err != nil {
			return err
		}
		_, err := d.ExecContext(ctx, bookkeeping, version)
		return err
	}
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, text); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, version); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
