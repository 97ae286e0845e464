package sqlstore

import (
	"context"
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	verifymigrations "github.com/goliatone/go-verify/migrations"
)

// MigrateJournal registers the embedded journal schema for driver on client
// and applies it.
func MigrateJournal(ctx context.Context, client *persistence.Client, driver string) error {
	if client == nil {
		return fmt.Errorf("sqlstore: persistence client is required")
	}
	dialect, err := migrationDialect(driver)
	if err != nil {
		return err
	}
	if _, err := verifymigrations.Register(ctx, dialect, func(_ context.Context, source verifymigrations.Source) error {
		client.RegisterSQLMigrations(source.FS)
		return nil
	}); err != nil {
		return err
	}
	if err := client.Migrate(ctx); err != nil {
		return fmt.Errorf("sqlstore: migrate journal: %w", err)
	}
	return nil
}

// OpenJournal opens cfg, applies the journal schema and builds the stores.
func OpenJournal(ctx context.Context, cfg PersistenceConfig) (*RepositoryFactory, *persistence.Client, error) {
	client, err := OpenPersistenceClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := MigrateJournal(ctx, client, cfg.GetDriver()); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	factory, err := NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return factory, client, nil
}

func migrationDialect(driver string) (string, error) {
	switch normalizeDriver(driver) {
	case DriverSQLite:
		return verifymigrations.DialectSQLite, nil
	case DriverPostgres:
		return verifymigrations.DialectPostgres, nil
	default:
		return "", fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}
