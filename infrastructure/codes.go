package infrastructure

import (
	"fmt"

	nanoid "github.com/jaevor/go-nanoid"
)

const (
	RoomIDAlphabet     = "0123456789"
	RoomIDLength       = 5
	RoomSecretAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"
	RoomSecretLength   = 7
)

// CodeGenerator produces the public room id and access secret.
type CodeGenerator interface {
	RoomID() string
	RoomSecret() string
}

type nanoidGenerator struct {
	roomID     func() string
	roomSecret func() string
}

func NewCodeGenerator() (CodeGenerator, error) {
	roomID, err := nanoid.CustomASCII(RoomIDAlphabet, RoomIDLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create room id generator: %w", err)
	}
	roomSecret, err := nanoid.CustomASCII(RoomSecretAlphabet, RoomSecretLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create room secret generator: %w", err)
	}
	return &nanoidGenerator{roomID: roomID, roomSecret: roomSecret}, nil
}

func (g *nanoidGenerator) RoomID() string     { return g.roomID() }
func (g *nanoidGenerator) RoomSecret() string { return g.roomSecret() }
