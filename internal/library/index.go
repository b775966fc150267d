package library

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/lewtec/partitura/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Index is the persistent score catalog. Paths are stored in portable
// (forward-slash) form so the database travels with the library.
type Index struct {
	db *sql.DB
}

// OpenIndex opens (creating if needed) the catalog database at path and
// brings its schema up to date.
func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("while opening index %s: %w", path, err)
	}
	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("while migrating index %s: %w", path, err)
	}
	return &Index{db: db}, nil
}

func applyMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("while loading migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("while preparing migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("while preparing migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close releases the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Put upserts one score's catalog row.
func (ix *Index) Put(ctx context.Context, s *Score, modified time.Time) error {
	_, err := ix.db.ExecContext(ctx, `
insert into scores (path, filename, composer, title, tags, modified_at)
values (?, ?, ?, ?, ?, ?)
on conflict(path) do update set
    filename=excluded.filename, composer=excluded.composer,
    title=excluded.title, tags=excluded.tags, modified_at=excluded.modified_at
`, storage.PortablePath(s.Path), s.Filename, s.Composer, s.Title,
		strings.Join(s.TagList(), " "), modified.Unix())
	if err != nil {
		return fmt.Errorf("while indexing %s: %w", s.Path, err)
	}
	return nil
}

// All returns every cataloged score.
func (ix *Index) All(ctx context.Context) ([]*Score, error) {
	rows, err := ix.db.QueryContext(ctx, `
select path, filename, composer, title, tags from scores
`)
	if err != nil {
		return nil, fmt.Errorf("while listing index: %w", err)
	}
	defer rows.Close()

	var scores []*Score
	for rows.Next() {
		var path, filename, composer, title, tags string
		if err := rows.Scan(&path, &filename, &composer, &title, &tags); err != nil {
			return nil, fmt.Errorf("while reading index row: %w", err)
		}
		s := &Score{
			Path:     storage.NormalizePath(path),
			Filename: filename,
			Composer: composer,
			Title:    title,
			Tags:     make(map[string]struct{}),
		}
		for _, t := range strings.Split(tags, " ") {
			if t != "" {
				s.Tags[t] = struct{}{}
			}
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

// Count returns the number of cataloged scores.
func (ix *Index) Count(ctx context.Context) (int64, error) {
	var n int64
	err := ix.db.QueryRowContext(ctx, `select count(*) from scores`).Scan(&n)
	return n, err
}

// Delete removes one score's row.
func (ix *Index) Delete(ctx context.Context, path string) error {
	_, err := ix.db.ExecContext(ctx, `delete from scores where path = ?`, storage.PortablePath(path))
	return err
}

// Refresh rescans root and reconciles the catalog with what is on disk:
// new and changed scores are upserted, vanished ones are removed. The
// fresh scan result is returned so callers show it immediately.
func (ix *Index) Refresh(ctx context.Context, root string) ([]*Score, error) {
	scores, err := Scan(root)
	if err != nil {
		return nil, fmt.Errorf("while scanning %s: %w", root, err)
	}

	seen := make(map[string]bool, len(scores))
	for _, s := range scores {
		seen[storage.PortablePath(s.Path)] = true
		modified := time.Now()
		if info, err := os.Stat(s.Path); err == nil {
			modified = info.ModTime()
		}
		if err := ix.Put(ctx, s, modified); err != nil {
			return nil, err
		}
	}

	cataloged, err := ix.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range cataloged {
		if !seen[storage.PortablePath(s.Path)] {
			if err := ix.Delete(ctx, s.Path); err != nil {
				log.Printf("library: while pruning %s: %v", s.Path, err)
			}
		}
	}
	return scores, nil
}
