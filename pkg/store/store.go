// Package store persists per-profile records between runs.
//
// Records are keyed by handle and carry the raw profile data snapshot as
// opaque JSON; a version key gates a full wipe when the record format
// changes, and a retention sweep on open removes records past their ceiling.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/davestewart/bskyinfo/internal/utils"
	_ "modernc.org/sqlite"
)

// Record is the persisted shape of one profile.
type Record struct {
	Created int64  // epoch ms of first persistence, immutable once set
	Updated int64  // epoch ms of most recent successful fetch
	Visible bool   // local UI toggle state
	Data    []byte // profile data snapshot as JSON, nil until first fetch
}

type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the cache at path, wipes it when the stored
// version does not match, and sweeps records whose created timestamp is
// older than retentionDays.
func Open(path, version string, retentionDays int) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS profiles (
  handle  TEXT PRIMARY KEY,
  created INTEGER NOT NULL,
  updated INTEGER NOT NULL,
  visible INTEGER NOT NULL CHECK (visible IN (0,1)),
  data    TEXT
);
CREATE TABLE IF NOT EXISTS meta (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
	`); err != nil {
		return nil, err
	}
	d := &DB{sql: db}
	if err := d.init(version, retentionDays); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// init applies the version gate and the retention sweep.
func (d *DB) init(version string, retentionDays int) error {
	var stored string
	err := d.sql.QueryRow(`SELECT value FROM meta WHERE key = 'version'`).Scan(&stored)
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	// clear the cache if the record format has changed
	if stored != version {
		if _, err := d.sql.Exec(`DELETE FROM profiles`); err != nil {
			return err
		}
		if _, err := d.sql.Exec(`INSERT INTO meta(key, value) VALUES('version', ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, version); err != nil {
			return err
		}
		return nil
	}

	// remove profiles past the retention ceiling
	if retentionDays > 0 {
		cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour).UnixMilli()
		res, err := d.sql.Exec(`DELETE FROM profiles WHERE created < ?`, cutoff)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			utils.Log.Infof("Removed %d old profiles from the cache", n)
		}
	}
	return nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Get returns the record for a handle, or nil when none is stored.
func (d *DB) Get(ctx context.Context, handle string) (*Record, error) {
	var (
		r       Record
		visible int
		data    sql.NullString
	)
	err := d.sql.QueryRowContext(ctx,
		`SELECT created, updated, visible, data FROM profiles WHERE handle = ?`, handle).
		Scan(&r.Created, &r.Updated, &visible, &data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.Visible = visible == 1
	if data.Valid {
		r.Data = []byte(data.String)
	}
	return &r, nil
}

// Put writes a record for a handle, replacing any previous one.
func (d *DB) Put(ctx context.Context, handle string, r *Record) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO profiles(handle, created, updated, visible, data) VALUES(?,?,?,?,?)
		ON CONFLICT(handle) DO UPDATE SET
			created = excluded.created,
			updated = excluded.updated,
			visible = excluded.visible,
			data    = excluded.data`,
		handle, r.Created, r.Updated, boolToInt(r.Visible), nullIfEmpty(r.Data))
	return err
}

// Remove deletes the record for a handle.
func (d *DB) Remove(ctx context.Context, handle string) error {
	_, err := d.sql.ExecContext(ctx, `DELETE FROM profiles WHERE handle = ?`, handle)
	return err
}

// Clear deletes every profile record but keeps the version key.
func (d *DB) Clear(ctx context.Context) error {
	_, err := d.sql.ExecContext(ctx, `DELETE FROM profiles`)
	return err
}

// Handles returns every cached handle in alphabetical order.
func (d *DB) Handles(ctx context.Context) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT handle FROM profiles ORDER BY handle`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Stats summarizes the cache contents.
type Stats struct {
	Profiles int
	Fetched  int // records holding a data snapshot
	Oldest   int64
	Newest   int64
}

func (d *DB) GetStats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := d.sql.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(data),
			COALESCE(MIN(created), 0),
			COALESCE(MAX(updated), 0)
		FROM profiles`).
		Scan(&s.Profiles, &s.Fetched, &s.Oldest, &s.Newest)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
