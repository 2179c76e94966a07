package user

import (
	"github.com/google/wire"

	"nebulachat/internal/storage"
)

func ProvideJsonHandler(userUseCase *AccountUseCase) *JSONHandler {
	return NewJSONHandler(userUseCase)
}

func ProvideAccountUseCase(store storage.Store) *AccountUseCase {
	return NewUserAccountUseCase(store)
}

var Set = wire.NewSet(ProvideAccountUseCase, ProvideJsonHandler)
