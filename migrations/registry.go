package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	verify "github.com/goliatone/go-verify"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const treeRoot = "data/sql/migrations"

// Source is the migration tree of one dialect. Postgres files sit at the
// tree root, sqlite files in its sqlite/ directory.
type Source struct {
	Dialect string
	Path    string
	FS      fs.FS
}

// RegisterFunc hands a migration tree to a migrator.
type RegisterFunc func(ctx context.Context, source Source) error

// Sources resolves the journal schema for every dialect from root, or from
// the embedded tree when root is nil.
func Sources(root fs.FS) ([]Source, error) {
	if root == nil {
		root = verify.GetMigrationsFS()
	}
	base, err := fs.Sub(root, treeRoot)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s: %w", treeRoot, err)
	}
	sqliteFS, err := fs.Sub(base, DialectSQLite)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite tree: %w", err)
	}

	sources := []Source{
		{Dialect: DialectPostgres, Path: treeRoot, FS: base},
		{Dialect: DialectSQLite, Path: treeRoot + "/" + DialectSQLite, FS: sqliteFS},
	}
	for _, source := range sources {
		matches, err := fs.Glob(source.FS, "*.up.sql")
		if err != nil {
			return nil, fmt.Errorf("migrations: glob %s: %w", source.Path, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("migrations: %s tree %q has no *.up.sql files", source.Dialect, source.Path)
		}
	}
	return sources, nil
}

// Register passes the embedded tree for dialect to registerFn and returns
// the source it registered.
func Register(ctx context.Context, dialect string, registerFn RegisterFunc) (Source, error) {
	if registerFn == nil {
		return Source{}, fmt.Errorf("migrations: register function is required")
	}
	want := strings.ToLower(strings.TrimSpace(dialect))
	sources, err := Sources(nil)
	if err != nil {
		return Source{}, err
	}
	for _, source := range sources {
		if source.Dialect != want {
			continue
		}
		if err := registerFn(ctx, source); err != nil {
			return source, fmt.Errorf("migrations: register %s (%s): %w", source.Dialect, source.Path, err)
		}
		return source, nil
	}
	return Source{}, fmt.Errorf("migrations: unsupported dialect %q", dialect)
}
