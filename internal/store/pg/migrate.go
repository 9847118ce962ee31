package pg

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Las migraciones se embeben en el binario.
// Formato de archivo: {version}_{name}.sql (ej: 0001_init.sql)

// migrationFilePattern patrón para nombres de archivo de migración.
var migrationFilePattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

type migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrate aplica las migraciones pendientes del FS embebido y retorna
// las versiones aplicadas.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrationsFS embed.FS) ([]int, error) {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS _migrations (
			version    INT PRIMARY KEY,
			name       VARCHAR(255) NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		return nil, fmt.Errorf("pg: migrations table: %w", err)
	}

	applied := map[int]bool{}
	rows, err := pool.Query(ctx, `SELECT version FROM _migrations`)
	if err != nil {
		return nil, fmt.Errorf("pg: applied versions: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return nil, err
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	migrations, err := parseMigrations(migrationsFS)
	if err != nil {
		return nil, err
	}

	var done []int
	for _, mig := range migrations {
		if applied[mig.Version] {
			continue
		}
		if _, err := pool.Exec(ctx, mig.SQL); err != nil {
			return done, fmt.Errorf("pg: migration %04d_%s: %w", mig.Version, mig.Name, err)
		}
		if _, err := pool.Exec(ctx,
			`INSERT INTO _migrations (version, name) VALUES ($1, $2)`,
			mig.Version, mig.Name); err != nil {
			return done, fmt.Errorf("pg: record migration %d: %w", mig.Version, err)
		}
		done = append(done, mig.Version)
	}
	return done, nil
}

func parseMigrations(migrationsFS embed.FS) ([]migration, error) {
	var out []migration
	err := fs.WalkDir(migrationsFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		matches := migrationFilePattern.FindStringSubmatch(filepath.Base(path))
		if matches == nil {
			return nil
		}
		version, _ := strconv.Atoi(matches[1])
		content, err := migrationsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		out = append(out, migration{Version: version, Name: matches[2], SQL: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
