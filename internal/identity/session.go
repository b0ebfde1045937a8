package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aegis-iam/aegis/internal/shared"
)

const sessionKeyPrefix = "aegis:session:"

type sessionPayload struct {
	UserID   uuid.UUID `json:"user_id"`
	IssuedAt time.Time `json:"issued_at"`
}

// SessionStore keeps bearer session ids in Redis. The login system (outside
// this service) writes sessions here after verifying credentials; this service
// only ever looks them up and revokes them.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Issue creates a new session for a user and returns the opaque token.
func (s *SessionStore) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(sessionPayload{UserID: userID, IssuedAt: time.Now().UTC()})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("identity: store session: %w", err)
	}
	return token, nil
}

// Lookup resolves a bearer token to the owning user id. Unknown or expired
// tokens surface ErrUnauthenticated.
func (s *SessionStore) Lookup(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, shared.ErrUnauthenticated
	}
	raw, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, shared.ErrUnauthenticated
		}
		return uuid.Nil, err
	}
	var payload sessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return uuid.Nil, err
	}
	return payload.UserID, nil
}

// Revoke deletes a session. Absent tokens are a no-op.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
