package token

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/storage/redis/v3"
	"golang.org/x/oauth2"
)

// DefaultKey is the storage key for the shared token.
const DefaultKey = "lazada-bot:access-token"

// Store shares the access token between replicas.
type Store interface {
	Load(ctx context.Context) (*oauth2.Token, error)
	Save(ctx context.Context, tok *oauth2.Token) error
}

// KV is the subset of a fiber storage driver the store needs.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
}

// KVStore keeps the token as JSON under a single key.
type KVStore struct {
	kv  KV
	key string
}

// NewKVStore wraps kv. An empty key means DefaultKey.
func NewKVStore(kv KV, key string) *KVStore {
	if key == "" {
		key = DefaultKey
	}
	return &KVStore{kv: kv, key: key}
}

// NewRedisStore connects to Redis at url.
func NewRedisStore(url string) *KVStore {
	return NewKVStore(redis.New(redis.Config{URL: url}), DefaultKey)
}

// Load returns the shared token, or nil if none is stored.
func (s *KVStore) Load(_ context.Context) (*oauth2.Token, error) {
	raw, err := s.kv.Get(s.key)
	if err != nil {
		return nil, fmt.Errorf("token: load %s: %w", s.key, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("token: decode %s: %w", s.key, err)
	}
	return &tok, nil
}

// Save stores tok. It expires with the token when an expiry is known.
func (s *KVStore) Save(_ context.Context, tok *oauth2.Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	var exp time.Duration
	if !tok.Expiry.IsZero() {
		exp = time.Until(tok.Expiry)
		if exp <= 0 {
			return nil
		}
	}
	if err := s.kv.Set(s.key, raw, exp); err != nil {
		return fmt.Errorf("token: save %s: %w", s.key, err)
	}
	return nil
}
