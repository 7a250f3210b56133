package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// ResetKeyPrefix is the Redis key prefix for outstanding reset tokens
	ResetKeyPrefix = "reset:"
	// DefaultResetTokenTTL bounds how long a reset token can be redeemed.
	DefaultResetTokenTTL = 15 * time.Minute
)

var (
	ErrInvalidResetToken = errors.New("invalid reset token")
	ErrResetTokenUsed    = errors.New("reset token already used or expired")
)

// ResetTokens issues single-use password reset tokens. The token itself is a
// signed JWT; redemption also requires its jti to still be present in Redis.
type ResetTokens struct {
	secret []byte
	ttl    time.Duration
	kv     *KVStore
	now    func() time.Time
}

func NewResetTokens(secret string, ttl time.Duration, kv *KVStore) *ResetTokens {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &ResetTokens{secret: []byte(secret), ttl: ttl, kv: kv, now: time.Now}
}

// TTL returns the lifetime of newly issued tokens.
func (r *ResetTokens) TTL() time.Duration {
	return r.ttl
}

// Issue creates a reset token for userID.
func (r *ResetTokens) Issue(ctx context.Context, userID string) (string, error) {
	now := r.now()
	jti := uuid.NewString()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign reset token: %w", err)
	}

	fields := map[string]string{
		"userId":   userID,
		"issuedAt": strconv.FormatInt(now.Unix(), 10),
	}
	if err := r.kv.HashSet(ctx, ResetKeyPrefix+jti, fields, r.ttl); err != nil {
		return "", err
	}
	return signed, nil
}

// Consume validates token and marks it used. It returns the owning user id.
func (r *ResetTokens) Consume(ctx context.Context, token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil || !parsed.Valid || claims.ID == "" || claims.Subject == "" {
		return "", ErrInvalidResetToken
	}

	res := r.kv.HashTake(ctx, ResetKeyPrefix+claims.ID)
	switch res.Status {
	case Unavailable:
		return "", res.Err
	case Miss:
		return "", ErrResetTokenUsed
	}
	if res.Fields["userId"] != claims.Subject {
		return "", ErrInvalidResetToken
	}
	return claims.Subject, nil
}
