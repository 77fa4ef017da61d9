package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dmitrymomot/anvil/pkg/cache"
)

// CacheStore persists sessions in any byte cache, such as cache.Redis or cache.File.
// Entries expire together with the session.
//
// Keys: "token:{token}" holds the session, "id:{id}" holds the current token.
type CacheStore struct {
	cache cache.Cache[[]byte]
}

// NewCacheStore creates a store on top of c.
//
// Example:
//
//	store := session.NewCacheStore(cache.NewRedis[[]byte](client, nil, cache.WithPrefix("session")))
func NewCacheStore(c cache.Cache[[]byte]) *CacheStore {
	return &CacheStore{cache: c}
}

func (c *CacheStore) Create(ctx context.Context, s *Session) error {
	return c.save(ctx, s)
}

func (c *CacheStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	raw, err := c.cache.Get(ctx, tokenKey(token))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s.IsExpired() {
		_ = c.Delete(ctx, s.ID)
		return nil, ErrExpired
	}
	return &s, nil
}

// Update rewrites the session and drops the previous token entry if it was rotated.
func (c *CacheStore) Update(ctx context.Context, s *Session) error {
	previous, err := c.cache.Get(ctx, idKey(s.ID))
	switch {
	case errors.Is(err, cache.ErrNotFound):
		return ErrNotFound
	case err != nil:
		return err
	}
	if old := string(previous); old != s.Token {
		if err := c.cache.Delete(ctx, tokenKey(old)); err != nil {
			return err
		}
	}
	return c.save(ctx, s)
}

func (c *CacheStore) Delete(ctx context.Context, id string) error {
	token, err := c.cache.Get(ctx, idKey(id))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil
		}
		return err
	}
	return errors.Join(
		c.cache.Delete(ctx, tokenKey(string(token))),
		c.cache.Delete(ctx, idKey(id)),
	)
}

func (c *CacheStore) Touch(ctx context.Context, id string, lastActiveAt time.Time) error {
	token, err := c.cache.Get(ctx, idKey(id))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s, err := c.Get(ctx, string(token))
	if err != nil {
		return err
	}
	s.LastActiveAt = lastActiveAt
	return c.save(ctx, s)
}

func (c *CacheStore) save(ctx context.Context, s *Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := c.cache.Set(ctx, tokenKey(s.Token), data, ttl); err != nil {
		return err
	}
	return c.cache.Set(ctx, idKey(s.ID), []byte(s.Token), ttl)
}

func tokenKey(token string) string { return "token:" + token }
func idKey(id string) string { return "id:" + id }

var _ Store = (*CacheStore)(nil)
