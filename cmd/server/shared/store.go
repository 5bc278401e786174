package shared

import (
	"context"
	"fmt"
	"log"

	"github.com/UkralStul/graphql-social-feed/internal/config"
	"github.com/UkralStul/graphql-social-feed/internal/storage"
	"github.com/UkralStul/graphql-social-feed/internal/storage/gormstore"
	"github.com/UkralStul/graphql-social-feed/internal/storage/inmemory"
)

// OpenStore открывает хранилище, выбранное в конфигурации. Реляционная схема
// мигрируется при открытии. Возвращённую функцию нужно вызвать при остановке.
func OpenStore(ctx context.Context, cfg *config.Config) (storage.Storage, func() error, error) {
	log.Printf("Starting server with %s storage", cfg.Storage)

	var (
		store *gormstore.Store
		err   error
	)
	opts := gormstore.Options{LogSQL: cfg.LogSQL}
	switch cfg.Storage {
	case config.StorageInMemory:
		return inmemory.New(), func() error { return nil }, nil
	case config.StoragePostgres:
		store, err = gormstore.New(cfg.DatabaseURL, opts)
	case config.StorageSQLite:
		store, err = gormstore.NewSQLite(cfg.DatabaseURL, opts)
	default:
		return nil, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s storage: %w", cfg.Storage, err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", cfg.Storage, err)
	}
	return store, store.Close, nil
}

// CloseStore вызывает функцию закрытия из OpenStore и логирует ошибку.
func CloseStore(closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Printf("close storage: %v", err)
	}
}
