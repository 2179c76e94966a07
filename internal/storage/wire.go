package storage

import (
	"context"
	"log/slog"

	"github.com/google/wire"

	"nebulachat/config"
	"nebulachat/internal/cache"
	"nebulachat/internal/database"
)

// ProvideStore is a Wire provider function that opens the configured store
func ProvideStore(cfg *config.Config) (Store, func(), error) {
	if cfg.StoreDriver != config.StoreDriverPostgres {
		slog.Info("using in-memory store")
		return NewMemoryStorage(), func() {}, nil
	}

	db, err := database.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	store := NewPostgresStorage(db)
	cleanup := func() {
		if err := store.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
		}
	}
	return store, cleanup, nil
}

// ProvideTypingStore is a Wire provider function that selects where typing rows live
func ProvideTypingStore(cfg *config.Config, store Store) (TypingStore, func(), error) {
	if cfg.PresenceDriver != config.PresenceDriverRedis {
		return store, func() {}, nil
	}

	client, err := cache.NewRedisClient(context.Background(), cfg.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			slog.Error("Error closing redis connection", "error", err)
		}
	}
	return NewRedisTypingStorage(client, "nebula:"), cleanup, nil
}

var Set = wire.NewSet(ProvideStore, ProvideTypingStore)
