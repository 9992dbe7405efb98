package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"vcontest/internal/common/security"
	"vcontest/internal/domain/model"
)

// cachedSessionRepository is a read-through Redis cache in front of the identity store.
// Redis failures degrade to the underlying store.
type cachedSessionRepository struct {
	next   SessionRepository
	client *redis.Client
	ttl    time.Duration
}

// NewCachedSessionRepository wraps next with a Redis cache whose entries live at most ttl
// and never outlive the session they describe.
func NewCachedSessionRepository(next SessionRepository, client *redis.Client, ttl time.Duration) SessionRepository {
	return &cachedSessionRepository{next: next, client: client, ttl: ttl}
}

func sessionCacheKey(token string) string {
	return fmt.Sprintf("session:%x", security.HashToken(token))
}

func (r *cachedSessionRepository) Create(ctx context.Context, s *model.Session) error {
	return r.next.Create(ctx, s)
}

func (r *cachedSessionRepository) Find(ctx context.Context, token string, now time.Time) (*model.Session, error) {
	key := sessionCacheKey(token)

	val, err := r.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if s, ok := decodeCachedSession(token, val); ok && s.ExpiresAt.After(now) {
			return s, nil
		}
	case errors.Is(err, redis.Nil):
	case ctx.Err() != nil:
		return nil, ctx.Err()
	}

	s, err := r.next.Find(ctx, token, now)
	if err != nil {
		return nil, err
	}

	ttl := r.ttl
	if remaining := s.ExpiresAt.Sub(now); remaining < ttl {
		ttl = remaining
	}
	if ttl > 0 {
		// Best effort; a failed write only costs a store lookup next time.
		r.client.Set(ctx, key, encodeCachedSession(s), ttl)
	}
	return s, nil
}

func encodeCachedSession(s *model.Session) string {
	return strconv.FormatInt(s.ExpiresAt.Unix(), 10) + "|" + s.InternalUserID
}

func decodeCachedSession(token, val string) (*model.Session, bool) {
	exp, userID, ok := strings.Cut(val, "|")
	if !ok || userID == "" {
		return nil, false
	}
	sec, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return nil, false
	}
	return &model.Session{Token: token, InternalUserID: userID, ExpiresAt: time.Unix(sec, 0)}, true
}
