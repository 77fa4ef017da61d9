package internal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/pkg/session"
)

func requestWithCookie(c *http.Cookie) *internal.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if c != nil {
		r.AddCookie(c)
	}
	return internal.NewRequest(r)
}

func TestSessionManager_Start(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore()
	sm := internal.NewSessionManager(store,
		internal.WithSessionCookieName("sid"),
		internal.WithSessionMaxAge(time.Hour),
		internal.WithSessionSecure(true),
	)

	t.Run("creates a session without a cookie", func(t *testing.T) {
		t.Parallel()

		req := requestWithCookie(nil)
		sess, err := sm.Start(ctx, req)
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Same(t, sess, req.Session())
		assert.NotEmpty(t, sess.ID)
		assert.NotEmpty(t, sess.Token)
		assert.False(t, sess.IsDirty())
		assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, time.Minute)
	})

	t.Run("loads a known session", func(t *testing.T) {
		t.Parallel()

		first, err := sm.Start(ctx, requestWithCookie(nil))
		require.NoError(t, err)
		require.NoError(t, first.Put("user", "ada"))
		require.NoError(t, sm.Save(ctx, first))

		req := requestWithCookie(&http.Cookie{Name: "sid", Value: first.Token})
		sess, err := sm.Start(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, first.ID, sess.ID)
		v, ok := sess.Get("user")
		require.True(t, ok)
		assert.Equal(t, "ada", v)
	})

	t.Run("replaces an unknown token", func(t *testing.T) {
		t.Parallel()

		sess, err := sm.Start(ctx, requestWithCookie(&http.Cookie{Name: "sid", Value: "stale"}))
		require.NoError(t, err)
		assert.NotEqual(t, "stale", sess.Token)
	})
}

func TestSessionManager_RegenerateAndDestroy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore()
	sm := internal.NewSessionManager(store)

	req := requestWithCookie(nil)
	sess, err := sm.Start(ctx, req)
	require.NoError(t, err)
	oldToken := sess.Token

	require.NoError(t, sm.Regenerate(ctx, req))
	assert.NotEqual(t, oldToken, sess.Token)

	_, err = store.Get(ctx, oldToken)
	require.ErrorIs(t, err, session.ErrNotFound)
	loaded, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)

	require.NoError(t, sm.Destroy(ctx, req))
	assert.Nil(t, req.Session())
	assert.Equal(t, 0, store.Len())

	require.Error(t, sm.Regenerate(ctx, req), "no session to regenerate")
}

func TestSessionManager_SaveUntouched(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore()
	sm := internal.NewSessionManager(store)

	sess, err := sm.Start(ctx, requestWithCookie(nil))
	require.NoError(t, err)

	later := time.Now().Add(time.Minute)
	sess.LastActiveAt = later
	require.NoError(t, sm.Save(ctx, sess))

	loaded, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.WithinDuration(t, later, loaded.LastActiveAt, time.Second)
}
