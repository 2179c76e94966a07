package presence

import (
	"github.com/google/wire"

	"nebulachat/infrastructure"
	"nebulachat/internal/chat"
	"nebulachat/internal/realtime"
	"nebulachat/internal/storage"
)

func ProvideService(typing storage.TypingStore, broker realtime.Broker, clock infrastructure.Clock) *Service {
	return NewService(typing, broker, clock)
}

func ProvideJanitor(service *Service) *Janitor {
	return NewJanitor(service, RetentionWindow)
}

func ProvideJSONHandler(service *Service, chatService *chat.Service) *JSONHandler {
	return NewJSONHandler(service, chatService)
}

var Set = wire.NewSet(ProvideService, ProvideJanitor, ProvideJSONHandler)
