package auth

import (
	"github.com/google/wire"

	"nebulachat/config"
	"nebulachat/infrastructure"
	"nebulachat/internal/sessions"
	"nebulachat/internal/storage"
)

func ProvideUseCase(cfg *config.Config, store storage.Store, manager *sessions.Manager, clock infrastructure.Clock) *UseCase {
	return NewUseCase(store, manager, clock, cfg.PasswordMinEntropy, DefaultBcryptCost)
}

func ProvideJSONHandler(useCase *UseCase) *JSONHandler {
	return NewJSONAuthHandler(useCase)
}

var Set = wire.NewSet(ProvideUseCase, ProvideJSONHandler)
