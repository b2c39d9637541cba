// Package cache is the synchronizer's Filesystem Cache: a local
// memoization layer over directory listings and remote last-edited
// timestamps, so repeated push/pull runs avoid re-walking unchanged
// directories and re-fetching pages whose remote copy hasn't moved.
//
// It is grounded on the teacher's internal/state package (db.go),
// keeping go-sqlite3 as the storage driver but trimmed to the two
// tables a cache needs — no sync_state/links/history bookkeeping,
// which the Index Store and Merge Engine now own instead.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Cache wraps a SQLite-backed store for directory listing and remote
// timestamp memoization.
type Cache struct {
	conn *sql.DB
}

// DirEntry is one memoized filesystem entry.
type DirEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	c := &Cache{conn: conn}
	if err := c.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache: init schema: %w", err)
	}
	return c, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.conn.Close()
}

func (c *Cache) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS dir_listing (
		path TEXT PRIMARY KEY,
		mtime_ns INTEGER NOT NULL,
		entries TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS remote_snapshot (
		page_id TEXT PRIMARY KEY,
		last_edited_time TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	);
	`
	_, err := c.conn.Exec(schema)
	return err
}

// DirListing returns the memoized entries for path if the cached
// mtime still matches mtimeNS, along with whether the cache hit.
func (c *Cache) DirListing(path string, mtimeNS int64) ([]DirEntry, bool, error) {
	var cachedMtime int64
	var entriesJSON string

	err := c.conn.QueryRow(
		`SELECT mtime_ns, entries FROM dir_listing WHERE path = ?`, path,
	).Scan(&cachedMtime, &entriesJSON)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: query dir listing %s: %w", path, err)
	}
	if cachedMtime != mtimeNS {
		return nil, false, nil
	}

	var entries []DirEntry
	if err := json.Unmarshal([]byte(entriesJSON), &entries); err != nil {
		return nil, false, fmt.Errorf("cache: decode dir listing %s: %w", path, err)
	}
	return entries, true, nil
}

// PutDirListing memoizes a directory's entries under its mtime.
func (c *Cache) PutDirListing(path string, mtimeNS int64, entries []DirEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("cache: encode dir listing %s: %w", path, err)
	}
	_, err = c.conn.Exec(`
		INSERT INTO dir_listing (path, mtime_ns, entries) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET mtime_ns = excluded.mtime_ns, entries = excluded.entries
	`, path, mtimeNS, string(data))
	return err
}

// InvalidateDirListing drops a memoized directory listing, forcing a
// fresh walk next time it's requested.
func (c *Cache) InvalidateDirListing(path string) error {
	_, err := c.conn.Exec(`DELETE FROM dir_listing WHERE path = ?`, path)
	return err
}

// RemoteSnapshot returns the last known last_edited_time for pageID,
// and whether the snapshot is still fresh relative to maxAge.
func (c *Cache) RemoteSnapshot(pageID string, maxAge time.Duration) (lastEditedTime string, fresh bool, err error) {
	var fetchedAtUnix int64
	err = c.conn.QueryRow(
		`SELECT last_edited_time, fetched_at FROM remote_snapshot WHERE page_id = ?`, pageID,
	).Scan(&lastEditedTime, &fetchedAtUnix)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache: query remote snapshot %s: %w", pageID, err)
	}

	fetchedAt := time.Unix(fetchedAtUnix, 0)
	fresh = time.Since(fetchedAt) <= maxAge
	return lastEditedTime, fresh, nil
}

// PutRemoteSnapshot records pageID's last_edited_time as observed now.
func (c *Cache) PutRemoteSnapshot(pageID, lastEditedTime string, now time.Time) error {
	_, err := c.conn.Exec(`
		INSERT INTO remote_snapshot (page_id, last_edited_time, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(page_id) DO UPDATE SET last_edited_time = excluded.last_edited_time, fetched_at = excluded.fetched_at
	`, pageID, lastEditedTime, now.Unix())
	return err
}
