package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"bant-agent-be/internal/repository/contract"
	"bant-agent-be/pkg/bant"
)

const keyPrefix = "bant:session:"

type SessionStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewSessionStore keeps sessions in redis with a sliding TTL: every
// Save resets the expiry, so an active interview never times out.
func NewSessionStore(client *goredis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: client,
		ttl:    ttl,
	}
}

func (r *SessionStore) Save(ctx context.Context, session *bant.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, keyPrefix+session.SessionID, data, r.ttl).Err()
}

func (r *SessionStore) Get(ctx context.Context, sessionID string) (*bant.Session, error) {
	data, err := r.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, contract.ErrSessionNotFound
		}
		return nil, err
	}
	var session bant.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, keyPrefix+sessionID).Err()
}
