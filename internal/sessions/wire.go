package sessions

import (
	"github.com/google/wire"

	"nebulachat/config"
	"nebulachat/infrastructure"
	"nebulachat/internal/storage"
)

// ProvideManager is a Wire provider function that creates a Manager
func ProvideManager(cfg *config.Config, clock infrastructure.Clock, store storage.Store) *Manager {
	return NewManager(cfg.JWTSecret, cfg.TokenTTL, clock, store)
}

var Set = wire.NewSet(ProvideManager)
