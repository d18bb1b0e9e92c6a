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
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	applog "vecdraw/internal/log"
	"vecdraw/internal/vector"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrRemoteSceneNotFound is returned by Pull for an unknown name.
var ErrRemoteSceneNotFound = errors.New("remote scene not found")

// Remote is a shared scene repository in Postgres. Scenes are stored whole,
// keyed by name, with a version bumped on every push.
type Remote struct {
	db  *sql.DB
	log *slog.Logger
}

// RemoteScene describes a stored scene.
type RemoteScene struct {
	StableID  string
	Name      string
	Shapes    int
	Version   int64
	UpdatedAt time.Time
}

// OpenRemote connects through the pgx stdlib driver and applies pending migrations.
func OpenRemote(ctx context.Context, dsn string) (*Remote, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("remote dsn is required")
	}
	l := applog.WithComponent("storage")
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(ctx, db, l); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Remote{db: db, log: l}, nil
}

func (r *Remote) Close() error { return r.db.Close() }

// language=SQL
// dialect=PostgreSQL
const pushSceneSQL = `INSERT INTO scenes (stable_id, name, body, shapes, version, updated_at)
VALUES ($1, $2, $3::jsonb, $4, 1, now())
ON CONFLICT (name) DO UPDATE
SET body = EXCLUDED.body, shapes = EXCLUDED.shapes, version = scenes.version + 1, updated_at = now()
RETURNING stable_id::text, name, shapes, version, updated_at`

// Push stores shapes under name, replacing any previous body.
func (r *Remote) Push(ctx context.Context, name string, shapes []vector.Shape) (RemoteScene, error) {
	if strings.TrimSpace(name) == "" {
		return RemoteScene{}, errors.New("scene name is required")
	}
	body, err := vector.MarshalScene(shapes)
	if err != nil {
		return RemoteScene{}, fmt.Errorf("encode scene: %w", err)
	}
	var rs RemoteScene
	err = r.db.QueryRowContext(ctx, pushSceneSQL, uuid.NewString(), name, string(body), len(shapes)).
		Scan(&rs.StableID, &rs.Name, &rs.Shapes, &rs.Version, &rs.UpdatedAt)
	if err != nil {
		return RemoteScene{}, fmt.Errorf("push %q: %w", name, err)
	}
	r.log.Info("scene pushed", slog.String("name", name), slog.Int64("version", rs.Version))
	return rs, nil
}

// Pull fetches and decodes the scene stored under name.
func (r *Remote) Pull(ctx context.Context, name string) ([]vector.Shape, RemoteScene, error) {
	var (
		rs   RemoteScene
		body []byte
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT stable_id::text, name, shapes, version, updated_at, body::text FROM scenes WHERE name = $1`, name).
		Scan(&rs.StableID, &rs.Name, &rs.Shapes, &rs.Version, &rs.UpdatedAt, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, RemoteScene{}, fmt.Errorf("%w: %q", ErrRemoteSceneNotFound, name)
	}
	if err != nil {
		return nil, RemoteScene{}, fmt.Errorf("pull %q: %w", name, err)
	}
	shapes, err := vector.UnmarshalScene(body)
	if err != nil {
		return nil, rs, fmt.Errorf("decode %q: %w", name, err)
	}
	return shapes, rs, nil
}

// List returns stored scenes, most recently updated first.
func (r *Remote) List(ctx context.Context) ([]RemoteScene, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT stable_id::text, name, shapes, version, updated_at FROM scenes ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []RemoteScene
	for rows.Next() {
		var rs RemoteScene
		if err := rows.Scan(&rs.StableID, &rs.Name, &rs.Shapes, &rs.Version, &rs.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// Delete removes the scene stored under name; a missing scene is not an error.
func (r *Remote) Delete(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM scenes WHERE name = $1`, name); err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	return nil
}

func applyMigrations(ctx context.Context, db *sql.DB, l *slog.Logger) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	// dialect=PostgreSQL
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, fname := range files {
		v, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[v] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		l.Info("applying migration", slog.String("file", fname))
		if _, err := db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, v, fname); err != nil {
			return fmt.Errorf("record %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	parts := strings.SplitN(base, "_", 2)
	if len(parts) < 2 {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
