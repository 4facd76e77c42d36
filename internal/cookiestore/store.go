// Package cookiestore keeps snapshots of engine cookies in SQLite so they can
// be listed, exported and restored into another profile.
package cookiestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver" // SQLite driver (pure Go)
	_ "github.com/ncruces/go-sqlite3/embed"  // Embed SQLite WASM binary

	"github.com/bnema/wew/internal/logging"
	"github.com/bnema/wew/pkg/wew"
)

// ErrSnapshotNotFound is returned for unknown snapshot IDs.
var ErrSnapshotNotFound = errors.New("cookiestore: snapshot not found")

// Entry is a cookie together with the URL it is restored for.
type Entry struct {
	URL    string
	Cookie wew.Cookie
}

// Snapshot describes a stored set of cookies.
type Snapshot struct {
	ID        int64
	Label     string
	CreatedAt time.Time
	Count     int
}

// Store is a SQLite-backed snapshot store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	const dbDirPerm = 0o750
	log := logging.FromContext(ctx)

	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), dbDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Debug().Str("path", path).Msg("cookie store opened")
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save stores entries as a new snapshot.
func (s *Store) Save(ctx context.Context, label string, entries []Entry) (Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created := s.now().UTC().Truncate(time.Second)
	res, err := tx.ExecContext(ctx, "INSERT INTO snapshots (label, created_at) VALUES (?, ?)", label, created.Unix())
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Snapshot{}, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cookies (snapshot_id, url, name, value, domain, path, secure, http_only, expires, same_site, priority)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		c := e.Cookie
		if _, err := stmt.ExecContext(ctx,
			id, e.URL, c.Name, c.Value,
			nullString(c.Domain), nullString(c.Path),
			c.Secure, c.HTTPOnly, nullInt(c.Expires),
			int64(c.SameSite), int64(c.Priority),
		); err != nil {
			return Snapshot{}, fmt.Errorf("failed to insert cookie %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return Snapshot{ID: id, Label: label, CreatedAt: created, Count: len(entries)}, nil
}

// Snapshots lists snapshots, newest first.
func (s *Store) Snapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.label, s.created_at, COUNT(c.id)
		FROM snapshots s LEFT JOIN cookies c ON c.snapshot_id = s.id
		GROUP BY s.id
		ORDER BY s.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			snap    Snapshot
			created int64
		)
		if err := rows.Scan(&snap.ID, &snap.Label, &created, &snap.Count); err != nil {
			return nil, err
		}
		snap.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Latest returns the most recent snapshot ID.
func (s *Store) Latest(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM snapshots ORDER BY id DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSnapshotNotFound
	}
	return id, err
}

// Entries returns the cookies of a snapshot in insertion order.
func (s *Store) Entries(ctx context.Context, id int64) ([]Entry, error) {
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT url, name, value, domain, path, secure, http_only, expires, same_site, priority
		FROM cookies WHERE snapshot_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                  Entry
			domain, path       sql.NullString
			expires            sql.NullInt64
			sameSite, priority int64
		)
		if err := rows.Scan(&e.URL, &e.Cookie.Name, &e.Cookie.Value, &domain, &path,
			&e.Cookie.Secure, &e.Cookie.HTTPOnly, &expires, &sameSite, &priority); err != nil {
			return nil, err
		}
		if domain.Valid {
			e.Cookie.Domain = &domain.String
		}
		if path.Valid {
			e.Cookie.Path = &path.String
		}
		if expires.Valid {
			e.Cookie.Expires = &expires.Int64
		}
		e.Cookie.SameSite = wew.SameSite(sameSite)
		e.Cookie.Priority = wew.Priority(priority)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes a snapshot and its cookies.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}

func (s *Store) exists(ctx context.Context, id int64) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM snapshots WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSnapshotNotFound
	}
	return err
}

// CookieURL returns the URL a cookie can be restored for: its domain and
// path, over https when the cookie is secure. fallback is used for cookies
// without a domain.
func CookieURL(c wew.Cookie, fallback string) string {
	if c.Domain == nil || *c.Domain == "" {
		return fallback
	}
	u := url.URL{Scheme: "http", Host: strings.TrimPrefix(*c.Domain, "."), Path: "/"}
	if c.Secure {
		u.Scheme = "https"
	}
	if c.Path != nil && *c.Path != "" {
		u.Path = *c.Path
	}
	return u.String()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
