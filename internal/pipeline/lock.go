package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultLockTTL = 10 * time.Minute
	lockKeyPrefix  = "pipeline-lock||"
)

var ErrRunInProgress = errors.New("a pipeline run is already in progress for this user")

var _ Locker = (*RedisLocker)(nil)
var _ Locker = (*MemLocker)(nil)
var _ Locker = NopLocker{}

// Locker serializes pipeline runs of the same user.
type Locker interface {
	// Lock fails with ErrRunInProgress when the user's lock is already held.
	Lock(ctx context.Context, userID string) (unlock func(ctx context.Context) error, err error)
}

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	redisClient *redis.Client
	ttl         time.Duration
	// injectable for tests
	TokenFunc func() string
}

func NewRedisLocker(redisClient *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{
		redisClient: redisClient,
		ttl:         ttl,
		TokenFunc:   uuid.NewString,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, userID string) (func(context.Context) error, error) {
	key := lockKeyPrefix + userID
	token := l.TokenFunc()

	acquired, err := l.redisClient.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !acquired {
		return nil, ErrRunInProgress
	}

	unlock := func(ctx context.Context) error {
		deleted, err := releaseScript.Run(ctx, l.redisClient, []string{key}, token).Int64()
		if err != nil {
			return fmt.Errorf("release run lock: %w", err)
		}
		if deleted == 0 {
			log.Warnf("run lock of user [%s] expired before release", userID)
		}
		return nil
	}
	return unlock, nil
}

// MemLocker is an in-process Locker.
type MemLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewMemLocker() *MemLocker {
	return &MemLocker{
		held: make(map[string]bool),
	}
}

func (l *MemLocker) Lock(_ context.Context, userID string) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[userID] {
		return nil, ErrRunInProgress
	}
	l.held[userID] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, userID)
		return nil
	}, nil
}

type NopLocker struct{}

func (NopLocker) Lock(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
