package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"parley/internal/domain/negotiation"
	"parley/pkg/logger"
)

// Compile-time check
var _ negotiation.SessionRepository = (*CachedSessionRepository)(nil)

// CachedSessionRepository decorates a session repository with a
// read-through Redis cache. Sessions are immutable after creation
// except for timestamps, so a short TTL is enough to keep the cache
// honest. Cache failures fall through to the backing store.
type CachedSessionRepository struct {
	inner  negotiation.SessionRepository
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewCachedSessionRepository creates a caching wrapper around a session repository
func NewCachedSessionRepository(inner negotiation.SessionRepository, client *redis.Client, ttl time.Duration) *CachedSessionRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedSessionRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		log:    logger.Get().With("component", "session_cache"),
	}
}

// Create creates a session and primes the cache
func (r *CachedSessionRepository) Create(ctx context.Context, sess *negotiation.Session) error {
	if err := r.inner.Create(ctx, sess); err != nil {
		return err
	}
	r.store(ctx, sess)
	return nil
}

// GetByID retrieves a session, preferring the cache
func (r *CachedSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*negotiation.Session, error) {
	key := r.getKey(id)

	data, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var sess negotiation.Session
		if jsonErr := json.Unmarshal(data, &sess); jsonErr == nil {
			return &sess, nil
		}
		// corrupt entry, drop it and fall through
		r.client.Del(ctx, key)
	} else if err != redis.Nil {
		r.log.Warn("Session cache read failed", "session_id", id, "error", err)
	}

	sess, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, sess)
	return sess, nil
}

// List always hits the backing store
func (r *CachedSessionRepository) List(ctx context.Context) ([]*negotiation.Session, error) {
	return r.inner.List(ctx)
}

func (r *CachedSessionRepository) store(ctx context.Context, sess *negotiation.Session) {
	data, err := json.Marshal(sess)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, r.getKey(sess.ID), data, r.ttl).Err(); err != nil {
		r.log.Warn("Session cache write failed", "session_id", sess.ID, "error", err)
	}
}

func (r *CachedSessionRepository) getKey(id uuid.UUID) string {
	return fmt.Sprintf("session:%s", id)
}
