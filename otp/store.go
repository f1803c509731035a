package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps email-verification codes in redis with a TTL, so verification
// works across multiple API instances instead of a per-process map.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func key(scope, email string) string {
	return "otp:" + scope + ":" + email
}

// Issue generates a 6-digit code for the email and stores it for the TTL,
// replacing any previous code.
func (s *Store) Issue(ctx context.Context, scope, email string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())
	if err := s.rdb.Set(ctx, key(scope, email), code, s.ttl).Err(); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks the code and consumes it on success. An expired or unknown
// code verifies false without error.
func (s *Store) Verify(ctx context.Context, scope, email, code string) (bool, error) {
	stored, err := s.rdb.Get(ctx, key(scope, email)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if stored != code {
		return false, nil
	}
	if err := s.rdb.Del(ctx, key(scope, email)).Err(); err != nil {
		return false, err
	}
	return true, nil
}
