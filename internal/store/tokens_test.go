package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solum-sync-service/internal/model"
)

// fakeKV is an in-memory KV for unit tests.
type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (f *fakeKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeKV) Del(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func TestTokenStore_RoundTrip(t *testing.T) {
	ts := NewTokenStore(newFakeKV())
	ctx := context.Background()

	// Nothing stored yet.
	tokens, err := ts.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, tokens)

	in := model.Tokens{
		AccessToken:  "acc",
		RefreshToken: "ref",
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
	}
	require.NoError(t, ts.Save(ctx, in))

	tokens, err = ts.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, tokens)
	assert.Equal(t, in.AccessToken, tokens.AccessToken)
	assert.Equal(t, in.RefreshToken, tokens.RefreshToken)
	assert.True(t, in.ExpiresAt.Equal(tokens.ExpiresAt))

	require.NoError(t, ts.Clear(ctx))
	tokens, err = ts.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, tokens)
}

func TestTokens_ExpiresWithin(t *testing.T) {
	near := model.Tokens{ExpiresAt: time.Now().Add(time.Minute)}
	assert.True(t, near.ExpiresWithin(5*time.Minute))

	far := model.Tokens{ExpiresAt: time.Now().Add(time.Hour)}
	assert.False(t, far.ExpiresWithin(5*time.Minute))
}
