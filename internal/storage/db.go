package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"hymnidx/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS tables (
  name TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  year INTEGER NOT NULL DEFAULT 0,
  source TEXT NOT NULL DEFAULT '',
  entries INTEGER NOT NULL DEFAULT 0,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  tableName TEXT NOT NULL,
  position INTEGER NOT NULL,
  key TEXT NOT NULL,
  value INTEGER NOT NULL,
  UNIQUE(tableName, key),
  FOREIGN KEY(tableName) REFERENCES tables(name)
);
CREATE INDEX IF NOT EXISTS idx_entries_position ON entries(tableName, position);

CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  tableName TEXT NOT NULL,
  statsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS videos (
  playlistId TEXT NOT NULL,
  videoId TEXT NOT NULL,
  position INTEGER NOT NULL,
  title TEXT NOT NULL,
  url TEXT NOT NULL,
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY(playlistId, videoId)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// ReplaceTable stores a parsed table, dropping whatever entries a previous
// run left under the same name.
func (d *DB) ReplaceTable(info internal.TableInfo, entries []internal.Entry) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
INSERT INTO tables (name, kind, year, source, entries, updatedAt)
VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(name) DO UPDATE SET
  kind=excluded.kind,
  year=excluded.year,
  source=excluded.source,
  entries=excluded.entries,
  updatedAt=CURRENT_TIMESTAMP
`, info.Name, string(info.Kind), info.Year, info.Source, len(entries)); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM entries WHERE tableName = ?`, info.Name); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO entries (tableName, position, key, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.Exec(info.Name, i, e.Key, e.Value); err != nil {
			return fmt.Errorf("insert entry %q: %w", e.Key, err)
		}
	}

	return tx.Commit()
}

func (d *DB) GetTable(name string) (*internal.TableInfo, error) {
	var info internal.TableInfo
	var kind string
	err := d.conn.QueryRow(`
SELECT name, kind, year, source, entries, updatedAt FROM tables WHERE name = ?
`, name).Scan(&info.Name, &kind, &info.Year, &info.Source, &info.Entries, &info.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	info.Kind = internal.TableKind(kind)
	return &info, nil
}

func (d *DB) MustTable(name string) (internal.TableInfo, error) {
	info, err := d.GetTable(name)
	if err != nil {
		return internal.TableInfo{}, err
	}
	if info == nil {
		return internal.TableInfo{}, fmt.Errorf("table %q: %w", name, internal.ErrNotFound)
	}
	return *info, nil
}

func (d *DB) ListTables() ([]internal.TableInfo, error) {
	rows, err := d.conn.Query(`SELECT name, kind, year, source, entries, updatedAt FROM tables ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.TableInfo
	for rows.Next() {
		var info internal.TableInfo
		var kind string
		if err := rows.Scan(&info.Name, &kind, &info.Year, &info.Source, &info.Entries, &info.UpdatedAt); err != nil {
			return nil, err
		}
		info.Kind = internal.TableKind(kind)
		out = append(out, info)
	}
	return out, rows.Err()
}

// LoadEntries returns a table's entries in document order.
func (d *DB) LoadEntries(name string) ([]internal.Entry, error) {
	rows, err := d.conn.Query(`SELECT key, value FROM entries WHERE tableName = ? ORDER BY position ASC`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Entry
	for rows.Next() {
		var e internal.Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (d *DB) InsertRun(run internal.RunRow) error {
	statsJSON, _ := json.Marshal(run.Stats)
	_, err := d.conn.Exec(`INSERT INTO runs (id, tableName, statsJson) VALUES (?, ?, ?)`, run.ID, run.TableName, string(statsJSON))
	return err
}

// ListRuns returns the most recent runs for a table, newest first.
func (d *DB) ListRuns(tableName string, limit int) ([]internal.RunRow, error) {
	rows, err := d.conn.Query(`
SELECT id, tableName, statsJson, createdAt FROM runs
WHERE tableName = ? ORDER BY id DESC LIMIT ?
`, tableName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		var run internal.RunRow
		var statsJSON string
		if err := rows.Scan(&run.ID, &run.TableName, &statsJSON, &run.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(statsJSON), &run.Stats)
		out = append(out, run)
	}
	return out, rows.Err()
}

func (d *DB) UpsertVideos(videos []internal.Video) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO videos (playlistId, videoId, position, title, url, lastSeenAt)
VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(playlistId, videoId) DO UPDATE SET
  position=excluded.position,
  title=excluded.title,
  url=excluded.url,
  lastSeenAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range videos {
		if _, err := stmt.Exec(v.PlaylistID, v.VideoID, v.Position, v.Title, v.URL); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListVideos(playlistID string) ([]internal.Video, error) {
	rows, err := d.conn.Query(`
SELECT playlistId, videoId, position, title, url FROM videos
WHERE playlistId = ? ORDER BY position ASC
`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Video
	for rows.Next() {
		var v internal.Video
		if err := rows.Scan(&v.PlaylistID, &v.VideoID, &v.Position, &v.Title, &v.URL); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
