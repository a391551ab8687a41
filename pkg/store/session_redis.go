package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"omifemcuts/internal/util"
)

// RedisSessionStore keeps opaque session tokens in Redis with TTL.
// Each user also has a set of live tokens so all of them can be dropped at once.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore builds a Redis-backed session store.
func NewRedisSessionStore(addr, password string, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

// NewSession writes a token -> userID mapping with TTL.
func (s *RedisSessionStore) NewSession(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id required")
	}
	token := util.NewToken(32)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(token), userID, s.ttl)
	pipe.SAdd(ctx, userSessionsKey(userID), token)
	pipe.Expire(ctx, userSessionsKey(userID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return token, nil
}

// GetUserIDByToken resolves token to user ID.
func (s *RedisSessionStore) GetUserIDByToken(token string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	val, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// DeleteSession removes a token mapping.
func (s *RedisSessionStore) DeleteSession(token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	userID, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(token))
	pipe.SRem(ctx, userSessionsKey(userID), token)
	_, err = pipe.Exec(ctx)
	return err
}

// RevokeUserSessions drops every live token of the user. Opaque tokens carry
// no issue time, so since is ignored.
func (s *RedisSessionStore) RevokeUserSessions(userID string, _ time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	tokens, err := s.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, sessionKey(token))
	}
	keys = append(keys, userSessionsKey(userID))
	return s.client.Del(ctx, keys...).Err()
}

func sessionKey(token string) string {
	return "omifemcuts:session:" + token
}

func userSessionsKey(userID string) string {
	return "omifemcuts:user-sessions:" + userID
}
