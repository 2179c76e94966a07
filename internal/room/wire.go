package room

import (
	"github.com/google/wire"

	"nebulachat/infrastructure"
	"nebulachat/internal/realtime"
	"nebulachat/internal/storage"
)

func ProvideService(store storage.Store, typing storage.TypingStore, codes infrastructure.CodeGenerator, clock infrastructure.Clock, broker realtime.Broker) *Service {
	return NewService(store, typing, codes, clock, broker)
}

func ProvideJSONHandler(service *Service) *JSONHandler {
	return NewJSONHandler(service)
}

var Set = wire.NewSet(ProvideService, ProvideJSONHandler)
