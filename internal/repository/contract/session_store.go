package contract

import (
	"context"
	"errors"

	"bant-agent-be/pkg/bant"
)

// ErrSessionNotFound is returned by every backend for an unknown or
// expired session id.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps live interview sessions. Backends differ only in
// durability: memory (single process), redis (TTL survives restarts),
// postgres (fully durable).
type SessionStore interface {
	Save(ctx context.Context, session *bant.Session) error
	Get(ctx context.Context, sessionID string) (*bant.Session, error)
	Delete(ctx context.Context, sessionID string) error
}
