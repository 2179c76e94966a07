package infrastructure

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("you do not have permission")
	ErrRoomFull       = errors.New("room is full")
	ErrConflict       = errors.New("conflict")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternalServer = errors.New("internal server error")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingToken       = errors.New("missing access token")
	ErrInvalidToken       = errors.New("invalid access token")
	ErrTokenExpired       = errors.New("access token has expired")
)

// ErrJoinFailed hides whether a room exists when its secret is wrong.
var ErrJoinFailed = errors.New("failed to join room")
