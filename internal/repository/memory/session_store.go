package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"bant-agent-be/internal/repository/contract"
	"bant-agent-be/pkg/bant"
)

type SessionStore struct {
	cache *cache.Cache
}

// NewSessionStore creates an in-process store. Sessions idle longer
// than ttl are evicted; expired items are purged every 10 minutes.
func NewSessionStore(ttl time.Duration) *SessionStore {
	c := cache.New(ttl, 10*time.Minute)
	return &SessionStore{
		cache: c,
	}
}

func (r *SessionStore) Save(_ context.Context, session *bant.Session) error {
	r.cache.Set(session.SessionID, session, cache.DefaultExpiration)
	return nil
}

func (r *SessionStore) Get(_ context.Context, sessionID string) (*bant.Session, error) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*bant.Session), nil
	}
	return nil, contract.ErrSessionNotFound
}

func (r *SessionStore) Delete(_ context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}
