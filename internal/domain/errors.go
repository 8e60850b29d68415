package domain

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrOwnerSessionActive = errors.New("owner already has an active session")
	ErrNotSessionOwner    = errors.New("session does not belong to caller")
	ErrInvalidGameMode    = errors.New("invalid game mode")
	ErrInvalidGameState   = errors.New("invalid game state")

	ErrUserNotFound = errors.New("user not found")
)
