//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"nebulachat/config"
	"nebulachat/infrastructure"
	"nebulachat/internal/auth"
	"nebulachat/internal/chat"
	"nebulachat/internal/presence"
	"nebulachat/internal/realtime"
	"nebulachat/internal/room"
	"nebulachat/internal/sessions"
	"nebulachat/internal/storage"
	"nebulachat/internal/stream"
	"nebulachat/internal/user"
)

var AppSet = wire.NewSet(
	storage.Set,
	realtime.Set,
	sessions.Set,
	auth.Set,
	user.Set,
	room.Set,
	chat.Set,
	presence.Set,
	stream.Set,
	infrastructure.SystemClock,
	infrastructure.NewCodeGenerator,
	wire.Struct(new(App), "*"),
)

func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(AppSet)
	return nil, nil, nil
}
