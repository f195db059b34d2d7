package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"solum-sync-service/internal/model"
)

const tokenKey = "sync-store:tokens"

// TokenStore persists the AIMS token pair across restarts. Only the token
// fields themselves are stored; runtime sync state never is.
type TokenStore struct {
	kv KV
}

func NewTokenStore(kv KV) *TokenStore {
	return &TokenStore{kv: kv}
}

func (s *TokenStore) Save(ctx context.Context, tokens model.Tokens) error {
	b, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}
	return s.kv.Set(ctx, tokenKey, string(b), 0)
}

// Load returns (nil, nil) when no token pair is stored.
func (s *TokenStore) Load(ctx context.Context) (*model.Tokens, error) {
	val, err := s.kv.Get(ctx, tokenKey)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, nil
		}
		return nil, err
	}

	var tokens model.Tokens
	if err := json.Unmarshal([]byte(val), &tokens); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored tokens: %w", err)
	}
	return &tokens, nil
}

func (s *TokenStore) Clear(ctx context.Context) error {
	return s.kv.Del(ctx, tokenKey)
}
