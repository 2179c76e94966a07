package chat

import (
	"github.com/google/wire"

	"nebulachat/config"
	"nebulachat/infrastructure"
	"nebulachat/internal/realtime"
	"nebulachat/internal/room"
	"nebulachat/internal/storage"
)

func ProvideService(cfg *config.Config, store storage.Store, rooms *room.Service, broker realtime.Broker, clock infrastructure.Clock) *Service {
	policy := AttachmentPolicy{MaxImageBytes: cfg.MaxImageBytes, MaxFileBytes: cfg.MaxFileBytes}
	return NewService(store, rooms, broker, clock, policy)
}

func ProvideJSONHandler(service *Service) *JSONHandler {
	return NewJSONHandler(service)
}

var Set = wire.NewSet(ProvideService, ProvideJSONHandler)
