package stream

import (
	"github.com/google/wire"

	"nebulachat/internal/chat"
	"nebulachat/internal/presence"
	"nebulachat/internal/room"
)

func ProvideGateway(rooms *room.Service, chatService *chat.Service, presenceService *presence.Service) *Gateway {
	return NewGateway(rooms, chatService, presenceService)
}

var Set = wire.NewSet(ProvideGateway)
