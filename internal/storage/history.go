/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "vecdraw/internal/log"
	"vecdraw/internal/vector"
	"vecdraw/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// HistoryDirName holds per-scene-directory autosave data.
	HistoryDirName  = ".vecdraw"
	HistoryFileName = "history.sqlite"

	// schemaVersion tracks the local SQLite schema; bump it with a migration.
	schemaVersion = 2

	tsLayout = "2006-01-02T15:04:05.000000000Z"
)

// ErrSnapshotNotFound is returned by Load for an unknown snapshot id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// HistoryPath returns the history database path under root.
func HistoryPath(root string) string {
	return filepath.Join(root, HistoryDirName, HistoryFileName)
}

// History is the autosave database: whole-scene snapshots plus a full-text
// index over the text and comment shapes they contain.
type History struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// Entry describes one stored snapshot.
type Entry struct {
	ID         string
	Label      string
	At         time.Time
	ShapeCount int
}

// Match is a text or comment shape found by Search.
type Match struct {
	SnapshotID string
	At         time.Time
	ShapeID    int64
	Kind       vector.Kind
	Snippet    string
}

// OpenHistory ensures <root>/.vecdraw/history.sqlite exists, enables WAL
// and brings the schema up to date.
func OpenHistory(root string) (*History, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "history_open").With(slog.String("root", root))
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("history root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, HistoryDirName), 0o755); err != nil {
		l.Error("create history dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create %s dir: %w", HistoryDirName, err)
	}

	path := HistoryPath(root)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureHistorySchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure history schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("history ready", slog.String("path", path))
	return &History{db: db, path: path, log: applog.WithComponent("storage")}, nil
}

func (h *History) Path() string { return h.path }

func (h *History) Close() error { return h.db.Close() }

func ensureVersion(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS version (
		id          INTEGER PRIMARY KEY CHECK(id=1),
		schema      INTEGER NOT NULL,
		app         TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);`); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// keep the stored schema for runMigrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureHistorySchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			seq         INTEGER PRIMARY KEY,
			id          TEXT    NOT NULL UNIQUE,
			label       TEXT    NOT NULL DEFAULT '',
			ts          TEXT    NOT NULL,
			shape_count INTEGER NOT NULL,
			scene_blob  BLOB    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_label ON snapshots(label);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_text USING fts5(
			content,
			snapshot_id UNINDEXED,
			shape_id UNINDEXED,
			kind UNINDEXED,
			tokenize = 'unicode61'
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure history schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema steps up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		var stmts []string
		switch next {
		case 2:
			// label lookups
			stmts = []string{`CREATE INDEX IF NOT EXISTS idx_snapshots_label ON snapshots(label);`}
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO snapshots(id, label, ts, shape_count, scene_blob) VALUES (?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const insertTextSQL = `INSERT INTO fts_text(content, snapshot_id, shape_id, kind) VALUES (?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT id, label, ts, shape_count FROM snapshots ORDER BY seq DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const selectSnapshotSQL = `SELECT id, label, ts, shape_count, scene_blob FROM snapshots WHERE id = ?`

// language=SQL
// dialect=SQLite
const selectLatestSnapshotSQL = `SELECT id, label, ts, shape_count, scene_blob FROM snapshots ORDER BY seq DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const pruneSnapshotsSQL = `DELETE FROM snapshots WHERE seq NOT IN (
	SELECT seq FROM snapshots ORDER BY seq DESC LIMIT ?
)`

// language=SQL
// dialect=SQLite
const pruneTextSQL = `DELETE FROM fts_text WHERE snapshot_id NOT IN (SELECT id FROM snapshots)`

// language=SQL
// dialect=SQLite
const searchTextSQL = `SELECT fts_text.snapshot_id, s.ts, fts_text.shape_id, fts_text.kind,
	snippet(fts_text, 0, '[', ']', '…', 10)
FROM fts_text JOIN snapshots s ON s.id = fts_text.snapshot_id
WHERE fts_text MATCH ?
ORDER BY s.seq DESC, fts_text.shape_id
LIMIT ?`

// Save stores shapes as a new snapshot and indexes their text.
func (h *History) Save(ctx context.Context, label string, shapes []vector.Shape) (Entry, error) {
	blob, err := vector.MarshalScene(shapes)
	if err != nil {
		return Entry{}, fmt.Errorf("encode snapshot: %w", err)
	}
	e := Entry{ID: uuid.NewString(), Label: label, At: time.Now().UTC(), ShapeCount: len(shapes)}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("begin snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertSnapshotSQL, e.ID, e.Label, e.At.Format(tsLayout), e.ShapeCount, blob); err != nil {
		_ = tx.Rollback()
		return Entry{}, fmt.Errorf("insert snapshot: %w", err)
	}
	for _, t := range textShapes(shapes) {
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, insertTextSQL, t.Content, e.ID, t.ID, string(t.Kind())); err != nil {
			_ = tx.Rollback()
			return Entry{}, fmt.Errorf("index snapshot text: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Entry{}, fmt.Errorf("commit snapshot: %w", err)
	}
	h.log.Debug("snapshot saved", slog.String("id", e.ID), slog.Int("shapes", e.ShapeCount))
	return e, nil
}

func textShapes(shapes []vector.Shape) []*vector.Text {
	var out []*vector.Text
	for _, s := range shapes {
		vector.Walk(s, func(n vector.Shape) bool {
			if t, ok := n.(*vector.Text); ok {
				out = append(out, t)
			}
			return true
		})
	}
	return out
}

// List returns up to limit snapshots, newest first.
func (h *History) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx, listSnapshotsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			ts string
		)
		if err := rows.Scan(&e.ID, &e.Label, &ts, &e.ShapeCount); err != nil {
			return nil, err
		}
		e.At, _ = time.Parse(tsLayout, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Load decodes the snapshot with the given id.
func (h *History) Load(ctx context.Context, id string) ([]vector.Shape, Entry, error) {
	return h.load(h.db.QueryRowContext(ctx, selectSnapshotSQL, id))
}

// Latest decodes the newest snapshot. It returns a nil scene and a zero
// Entry when the history is empty.
func (h *History) Latest(ctx context.Context) ([]vector.Shape, Entry, error) {
	shapes, e, err := h.load(h.db.QueryRowContext(ctx, selectLatestSnapshotSQL))
	if errors.Is(err, ErrSnapshotNotFound) {
		return nil, Entry{}, nil
	}
	return shapes, e, err
}

func (h *History) load(row *sql.Row) ([]vector.Shape, Entry, error) {
	var (
		e    Entry
		ts   string
		blob []byte
	)
	err := row.Scan(&e.ID, &e.Label, &ts, &e.ShapeCount, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Entry{}, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, Entry{}, fmt.Errorf("read snapshot: %w", err)
	}
	e.At, _ = time.Parse(tsLayout, ts)
	shapes, err := vector.UnmarshalScene(blob)
	if err != nil {
		return nil, e, fmt.Errorf("decode snapshot %s: %w", e.ID, err)
	}
	return shapes, e, nil
}

// Prune keeps the newest keep snapshots and drops the rest together with
// their text index rows.
func (h *History) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin prune: %w", err)
	}
	res, err := tx.ExecContext(ctx, pruneSnapshotsSQL, keep)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	if _, err := tx.ExecContext(ctx, pruneTextSQL); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prune text index: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return res.RowsAffected()
}

// Search finds text and comment shapes across all snapshots. query uses
// SQLite FTS5 syntax; snippets mark hits with [ ].
func (h *History) Search(ctx context.Context, query string, limit int) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := h.db.QueryContext(ctx, searchTextSQL, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Match
	for rows.Next() {
		var (
			m    Match
			ts   string
			kind string
		)
		if err := rows.Scan(&m.SnapshotID, &ts, &m.ShapeID, &kind, &m.Snippet); err != nil {
			return nil, err
		}
		m.At, _ = time.Parse(tsLayout, ts)
		m.Kind = vector.Kind(kind)
		out = append(out, m)
	}
	return out, rows.Err()
}
