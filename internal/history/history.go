// Package history keeps a catalog of completed downloads in a local SQLite
// database.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one completed download.
type Record struct {
	ID        int64
	Author    string
	PostID    string
	PostURL   string
	MediaURL  string
	Kind      string // "video" or "gif"
	Width     int
	Height    int
	FilePath  string
	FileSize  int64
	CreatedAt time.Time
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS downloads (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    author     TEXT NOT NULL DEFAULT '',
    post_id    TEXT NOT NULL DEFAULT '',
    post_url   TEXT NOT NULL DEFAULT '',
    media_url  TEXT NOT NULL DEFAULT '',
    kind       TEXT NOT NULL DEFAULT 'video',
    width      INTEGER NOT NULL DEFAULT 0,
    height     INTEGER NOT NULL DEFAULT 0,
    file_path  TEXT NOT NULL UNIQUE,
    file_size  INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_downloads_author ON downloads(author);
CREATE INDEX IF NOT EXISTS idx_downloads_post_id ON downloads(post_id);
CREATE INDEX IF NOT EXISTS idx_downloads_created_at ON downloads(created_at);
`

// DB wraps an SQLite connection for the download catalog.
type DB struct {
	db *sql.DB
	mu sync.Mutex
}

// DefaultPath returns the per-user catalog location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config dir: %w", err)
	}
	return filepath.Join(base, "xgrab", "history.db"), nil
}

// Open opens or creates the catalog at the given path, creating parent
// directories as needed.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog at %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	if _, err := sqlDB.Exec(createTableSQL); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: sqlDB}, nil
}

// Close closes the catalog connection.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Add records a completed download. A row already holding the same file path
// is replaced: re-downloading over a file supersedes the old entry.
func (d *DB) Add(rec Record) (int64, error) {
	if d == nil || d.db == nil {
		return 0, fmt.Errorf("catalog not initialized")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.db.Exec(`
		INSERT INTO downloads (
			author, post_id, post_url, media_url, kind,
			width, height, file_path, file_size
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			author=excluded.author, post_id=excluded.post_id,
			post_url=excluded.post_url, media_url=excluded.media_url,
			kind=excluded.kind, width=excluded.width, height=excluded.height,
			file_size=excluded.file_size,
			created_at=datetime('now')
	`,
		rec.Author, rec.PostID, rec.PostURL, rec.MediaURL, rec.Kind,
		rec.Width, rec.Height, rec.FilePath, rec.FileSize,
	)
	if err != nil {
		return 0, fmt.Errorf("recording download: %w", err)
	}

	// LastInsertId is unreliable for ON CONFLICT DO UPDATE; query the row.
	var id int64
	if err := d.db.QueryRow("SELECT id FROM downloads WHERE file_path = ?", rec.FilePath).Scan(&id); err != nil {
		return 0, fmt.Errorf("querying recorded download id: %w", err)
	}
	return id, nil
}

// Recent returns the newest records, most recent first.
func (d *DB) Recent(limit int) ([]Record, error) {
	if d == nil || d.db == nil {
		return nil, fmt.Errorf("catalog not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.db.Query(`
		SELECT id, author, post_id, post_url, media_url, kind,
			width, height, file_path, file_size, created_at
		FROM downloads
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying downloads: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.Author, &r.PostID, &r.PostURL, &r.MediaURL, &r.Kind,
			&r.Width, &r.Height, &r.FilePath, &r.FileSize, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning download row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the total number of catalog rows.
func (d *DB) Count() (int, error) {
	if d == nil || d.db == nil {
		return 0, fmt.Errorf("catalog not initialized")
	}

	var count int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM downloads").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting downloads: %w", err)
	}
	return count, nil
}
