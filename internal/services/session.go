package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// SessionDuration is the fixed lifetime of a login session.
	SessionDuration = 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionsKeyPrefix is the Redis key prefix for the set of a user's live sessions
	UserSessionsKeyPrefix = "user_sessions:"
)

// SessionStore issues and revokes login sessions. Sessions are never renewed:
// a session is created on login and disappears on logout or after ttl.
type SessionStore struct {
	kv  *KVStore
	ttl time.Duration
	now func() time.Time
}

func NewSessionStore(kv *KVStore, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = SessionDuration
	}
	return &SessionStore{kv: kv, ttl: ttl, now: time.Now}
}

// newSessionToken embeds the user id and creation time, followed by a random
// suffix so two logins in the same millisecond never collide.
func (s *SessionStore) newSessionToken(userID string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s_%d_%s", userID, s.now().UnixMilli(), random)
}

// Create stores a new session for userID and returns its token.
func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	token := s.newSessionToken(userID)

	if err := s.kv.Set(ctx, SessionKeyPrefix+token, userID, s.ttl); err != nil {
		return "", err
	}
	// the per-user index only serves bulk revocation; losing it is not fatal
	_ = s.kv.SetAdd(ctx, UserSessionsKeyPrefix+userID, token, s.ttl)

	return token, nil
}

// Validate returns the owner of token when the session is live.
func (s *SessionStore) Validate(ctx context.Context, token string) (string, LookupStatus) {
	if token == "" {
		return "", Miss
	}
	res := s.kv.Get(ctx, SessionKeyPrefix+token)
	return res.Value, res.Status
}

// Invalidate removes a session. Unknown tokens are not an error.
func (s *SessionStore) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if owner, status := s.Validate(ctx, token); status == Hit {
		_ = s.kv.SetRemove(ctx, UserSessionsKeyPrefix+owner, token)
	}
	return s.kv.Delete(ctx, SessionKeyPrefix+token)
}

// InvalidateUser removes every session of userID (used after a password reset).
func (s *SessionStore) InvalidateUser(ctx context.Context, userID string) error {
	setKey := UserSessionsKeyPrefix + userID
	tokens, err := s.kv.SetMembers(ctx, setKey)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, SessionKeyPrefix+t)
	}
	keys = append(keys, setKey)
	return s.kv.Delete(ctx, keys...)
}
