package credstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeStore is an in-memory Store recording lookups.
type fakeStore struct {
	calls   int
	lastKey string
	value   string
	err     error
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.calls++
	f.lastKey = key
	return f.value, f.err
}

func TestTokenSourceToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("store hit wins over the static token", func(t *testing.T) {
		store := &fakeStore{value: "store-token"}
		ts := NewTokenSource(store, "figpull:api-token", "static-token", logger)

		assert.Equal(t, "store-token", ts.Token(ctx))
		assert.Equal(t, 1, store.calls)
		assert.Equal(t, "figpull:api-token", store.lastKey)
	})

	t.Run("store failure degrades to the static token", func(t *testing.T) {
		store := &fakeStore{err: errors.New("connection refused")}
		ts := NewTokenSource(store, "figpull:api-token", "static-token", logger)

		assert.Equal(t, "static-token", ts.Token(ctx))
	})

	t.Run("disconnected store degrades to the static token", func(t *testing.T) {
		store := &fakeStore{err: ErrNotConnected}
		ts := NewTokenSource(store, "figpull:api-token", "static-token", logger)

		assert.Equal(t, "static-token", ts.Token(ctx))
	})

	t.Run("empty store value degrades to the static token", func(t *testing.T) {
		store := &fakeStore{value: ""}
		ts := NewTokenSource(store, "figpull:api-token", "static-token", logger)

		assert.Equal(t, "static-token", ts.Token(ctx))
	})

	t.Run("nil store uses the static token without lookups", func(t *testing.T) {
		ts := NewTokenSource(nil, "figpull:api-token", "static-token", logger)

		assert.Equal(t, "static-token", ts.Token(ctx))
	})

	t.Run("empty key skips the store", func(t *testing.T) {
		store := &fakeStore{value: "store-token"}
		ts := NewTokenSource(store, "", "static-token", logger)

		assert.Equal(t, "static-token", ts.Token(ctx))
		assert.Equal(t, 0, store.calls)
	})
}
