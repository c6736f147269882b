// Package auth resolves the credentials presented on a request: user session tokens
// kept in redis and the operator secret.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/2beens/dailymetrics/internal/clock"
	"github.com/2beens/dailymetrics/internal/telemetry/tracing"
	"github.com/2beens/dailymetrics/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL       = 7 * 24 * time.Hour
	sessionKeyPrefix = "wellness-session||"
	tokensSetKey     = "wellness-sessions"

	fieldUserID    = "user_id"
	fieldCreatedAt = "created_at"

	tokenBytes = 32
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

type SessionStore struct {
	redisClient *redis.Client
	ttl         time.Duration
	clock       clock.Clock
	// injectable for tests and local tooling
	RandStringFunc func(n int) (string, error)
}

func NewSessionStore(redisClient *redis.Client, ttl time.Duration, clk clock.Clock) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SessionStore{
		redisClient:    redisClient,
		ttl:            ttl,
		clock:          clk,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

// Resolve returns the user behind a session token.
func (s *SessionStore) Resolve(ctx context.Context, token string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "auth.session.resolve")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if token == "" {
		return "", ErrSessionNotFound
	}

	fields, err := s.redisClient.HGetAll(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return "", fmt.Errorf("get session: %w", err)
	}

	userID := fields[fieldUserID]
	if userID == "" {
		return "", ErrSessionNotFound
	}

	createdAtUnix, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: bad created_at [%s]", ErrSessionNotFound, fields[fieldCreatedAt])
	}
	if s.expired(createdAtUnix) {
		return "", ErrSessionExpired
	}

	return userID, nil
}

// Create opens a session for userID and returns its token.
func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("create session: empty user id")
	}

	token, err := s.RandStringFunc(tokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	sessionKey := sessionKeyPrefix + token
	createdAt := s.clock.Now().Unix()
	if err := s.redisClient.HSet(ctx, sessionKey, fieldUserID, userID, fieldCreatedAt, createdAt).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	if err := s.redisClient.Expire(ctx, sessionKey, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("set session expiry: %w", err)
	}
	if err := s.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return "", fmt.Errorf("register session: %w", err)
	}

	return token, nil
}

// Revoke deletes a session. It reports whether the session existed.
func (s *SessionStore) Revoke(ctx context.Context, token string) (bool, error) {
	deleted, err := s.redisClient.Del(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	if err := s.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
		return false, fmt.Errorf("unregister session: %w", err)
	}
	return deleted > 0, nil
}

// ScanAndClean drops registered sessions that are past their TTL or no longer stored,
// and returns how many were removed.
func (s *SessionStore) ScanAndClean(ctx context.Context) (int, error) {
	tokens, err := s.redisClient.SMembers(ctx, tokensSetKey).Result()
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}
	if len(tokens) == 0 {
		log.Debugln("auth: scan and clean, no sessions")
		return 0, nil
	}

	var toRemove []string
	for _, token := range tokens {
		createdAtStr, err := s.redisClient.HGet(ctx, sessionKeyPrefix+token, fieldCreatedAt).Result()
		if errors.Is(err, redis.Nil) {
			toRemove = append(toRemove, token)
			continue
		}
		if err != nil {
			log.Errorf("auth: scan and clean, get session: %s", err)
			continue
		}
		createdAtUnix, err := strconv.ParseInt(createdAtStr, 10, 64)
		if err != nil || s.expired(createdAtUnix) {
			toRemove = append(toRemove, token)
		}
	}

	removed := 0
	for _, token := range toRemove {
		if _, err := s.Revoke(ctx, token); err != nil {
			log.Errorf("auth: scan and clean, revoke: %s", err)
			continue
		}
		removed++
	}
	log.Infof("auth: scan and clean removed %d of %d sessions", removed, len(tokens))

	return removed, nil
}

func (s *SessionStore) expired(createdAtUnix int64) bool {
	return s.clock.Now().Sub(time.Unix(createdAtUnix, 0)) > s.ttl
}
