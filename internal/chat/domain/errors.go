package domain

import "errors"

var (
	// ErrInvalidInput missing or malformed caller input
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreUnavailable message store failed or timed out
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidIdentity join with an empty user id
	ErrInvalidIdentity = errors.New("invalid identity")
	// ErrAlreadyBound session already carries a different identity, the first bind is kept
	ErrAlreadyBound = errors.New("session already bound")
	// ErrSessionNotFound unknown or closed session
	ErrSessionNotFound = errors.New("session not found")
	// ErrSlowConsumer session send buffer full, event dropped
	ErrSlowConsumer = errors.New("slow consumer")
)
