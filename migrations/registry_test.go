package migrations

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	verify "github.com/goliatone/go-verify"
	_ "github.com/mattn/go-sqlite3"
)

func TestSources_ReturnsPostgresAndSQLite(t *testing.T) {
	sources, err := Sources(nil)
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}

	paths := map[string]string{}
	for _, source := range sources {
		matches, globErr := fs.Glob(source.FS, "*.up.sql")
		if globErr != nil {
			t.Fatalf("glob %s: %v", source.Dialect, globErr)
		}
		if len(matches) == 0 {
			t.Fatalf("expected %s migration files, got none", source.Dialect)
		}
		paths[source.Dialect] = source.Path
	}
	if paths[DialectPostgres] != "data/sql/migrations" {
		t.Fatalf("unexpected postgres path %q", paths[DialectPostgres])
	}
	if paths[DialectSQLite] != "data/sql/migrations/sqlite" {
		t.Fatalf("unexpected sqlite path %q", paths[DialectSQLite])
	}
}

func TestSources_RejectsTreeWithoutMigrations(t *testing.T) {
	empty := fstest.MapFS{
		"data/sql/migrations/README.md":        &fstest.MapFile{Data: []byte("none")},
		"data/sql/migrations/sqlite/README.md": &fstest.MapFile{Data: []byte("none")},
	}
	if _, err := Sources(empty); err == nil {
		t.Fatalf("expected error for tree without up migrations")
	}
}

func TestRegister_PassesOnlyRequestedDialect(t *testing.T) {
	var calls []string
	source, err := Register(context.Background(), " SQLite ", func(_ context.Context, source Source) error {
		calls = append(calls, source.Dialect)
		return nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(calls) != 1 || calls[0] != DialectSQLite {
		t.Fatalf("expected one sqlite registration, got %v", calls)
	}
	if source.Path != "data/sql/migrations/sqlite" {
		t.Fatalf("unexpected registered path %q", source.Path)
	}
}

func TestRegister_RejectsMissingFuncAndUnknownDialect(t *testing.T) {
	if _, err := Register(context.Background(), DialectSQLite, nil); err == nil {
		t.Fatalf("expected missing register function error")
	}
	noop := func(context.Context, Source) error { return nil }
	if _, err := Register(context.Background(), "oracle", noop); err == nil {
		t.Fatalf("expected unsupported dialect error")
	}
}

func TestRegister_WrapsRegisterFailure(t *testing.T) {
	failure := errors.New("migrator closed")
	_, err := Register(context.Background(), DialectPostgres, func(context.Context, Source) error { return failure })
	if !errors.Is(err, failure) {
		t.Fatalf("expected wrapped failure, got %v", err)
	}
}

func TestActivityJournalMigrationPair_ExistsForBothDialects(t *testing.T) {
	root := verify.GetMigrationsFS()
	paths := []string{
		"data/sql/migrations/00001_verify_activity_journal.up.sql",
		"data/sql/migrations/00001_verify_activity_journal.down.sql",
		"data/sql/migrations/sqlite/00001_verify_activity_journal.up.sql",
		"data/sql/migrations/sqlite/00001_verify_activity_journal.down.sql",
	}
	for _, migrationPath := range paths {
		content, err := fs.ReadFile(root, migrationPath)
		if err != nil {
			t.Fatalf("read migration %s: %v", migrationPath, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			t.Fatalf("expected migration %s to have SQL content", migrationPath)
		}
	}
}

func TestSQLiteActivityJournalMigration_ApplyAndRollback(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite3", "file:migrations-activity-journal?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	sqliteMigrations, err := fs.Sub(verify.GetMigrationsFS(), "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}

	if err := execSQLMigration(ctx, db, sqliteMigrations, "00001_verify_activity_journal.up.sql"); err != nil {
		t.Fatalf("apply journal migration up: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO verification_activity_entries (id, event, occurred_at) VALUES (?, ?, ?)`,
		"entry-1", "start_verification", "2026-03-01T12:00:00Z",
	); err != nil {
		t.Fatalf("insert journal row: %v", err)
	}

	var metadata string
	var resultCode int
	if err := db.QueryRowContext(ctx,
		`SELECT metadata, result_code FROM verification_activity_entries WHERE id = ?`,
		"entry-1",
	).Scan(&metadata, &resultCode); err != nil {
		t.Fatalf("read journal row: %v", err)
	}
	if metadata != "{}" || resultCode != 0 {
		t.Fatalf("expected column defaults, got metadata=%q result_code=%d", metadata, resultCode)
	}

	if err := execSQLMigration(ctx, db, sqliteMigrations, "00001_verify_activity_journal.down.sql"); err != nil {
		t.Fatalf("apply journal migration down: %v", err)
	}
	var count int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		"verification_activity_entries",
	).Scan(&count); err != nil {
		t.Fatalf("query sqlite master: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected journal table dropped, got %d", count)
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
