package internal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/anvil/pkg/session"
)

const (
	defaultSessionCookieName = "anvil_session"
	defaultSessionMaxAge     = 86400 * 30 // 30 days
)

// SessionManager loads, creates and persists sessions and manages the cookie.
type SessionManager struct {
	store      session.Store
	logger     *slog.Logger
	cookieName string
	domain     string
	path       string
	maxAge     int
	sameSite   http.SameSite
	secure     bool
	httpOnly   bool
}

// SessionOption configures the SessionManager.
type SessionOption func(*SessionManager)

// NewSessionManager creates a manager over store.
func NewSessionManager(store session.Store, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		store:      store,
		logger:     slog.New(slog.DiscardHandler),
		cookieName: defaultSessionCookieName,
		maxAge:     defaultSessionMaxAge,
		path:       "/",
		httpOnly:   true,
		sameSite:   http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// WithSessionCookieName sets the session cookie name.
func WithSessionCookieName(name string) SessionOption {
	return func(sm *SessionManager) {
		if name != "" {
			sm.cookieName = name
		}
	}
}

// WithSessionMaxAge sets the session lifetime.
func WithSessionMaxAge(d time.Duration) SessionOption {
	return func(sm *SessionManager) {
		if d > 0 {
			sm.maxAge = int(d.Seconds())
		}
	}
}

// WithSessionDomain sets the session cookie domain.
func WithSessionDomain(domain string) SessionOption {
	return func(sm *SessionManager) {
		sm.domain = domain
	}
}

// WithSessionPath sets the session cookie path.
func WithSessionPath(path string) SessionOption {
	return func(sm *SessionManager) {
		if path != "" {
			sm.path = path
		}
	}
}

// WithSessionSecure sets the session cookie Secure flag.
func WithSessionSecure(secure bool) SessionOption {
	return func(sm *SessionManager) {
		sm.secure = secure
	}
}

// WithSessionSameSite sets the session cookie SameSite attribute.
func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return func(sm *SessionManager) {
		sm.sameSite = sameSite
	}
}

// SetLogger sets the logger for session events.
func (sm *SessionManager) SetLogger(l *slog.Logger) {
	if l != nil {
		sm.logger = l
	}
}

// Start loads the session named by the request cookie, or creates one.
// Missing, expired and unknown sessions are replaced silently.
func (sm *SessionManager) Start(ctx context.Context, req *Request) (*session.Session, error) {
	if c, err := req.HTTP().Cookie(sm.cookieName); err == nil && c.Value != "" {
		sess, err := sm.store.Get(ctx, c.Value)
		switch {
		case err == nil:
			sess.LastActiveAt = time.Now()
			req.SetSession(sess)
			return sess, nil
		case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired), errors.Is(err, session.ErrInvalidToken):
			sm.logger.DebugContext(ctx, "session replaced", slog.Any("reason", err))
		default:
			return nil, err
		}
	}

	sess, err := sm.create(ctx)
	if err != nil {
		return nil, err
	}
	req.SetSession(sess)
	req.QueueCookie(sm.cookie(sess.Token, sm.maxAge))
	return sess, nil
}

// Save persists the session if it changed, otherwise records activity.
func (sm *SessionManager) Save(ctx context.Context, sess *session.Session) error {
	if !sess.IsDirty() {
		return sm.store.Touch(ctx, sess.ID, sess.LastActiveAt)
	}
	if err := sm.store.Update(ctx, sess); err != nil {
		return err
	}
	sess.ClearDirty()
	return nil
}

// Regenerate rotates the session token and queues the new cookie.
// Call it after login to prevent session fixation.
func (sm *SessionManager) Regenerate(ctx context.Context, req *Request) error {
	sess := req.Session()
	if sess == nil {
		return fmt.Errorf("session: not started")
	}
	oldToken := sess.Token
	token, err := generateToken()
	if err != nil {
		return err
	}
	sess.Token = token
	sess.MarkDirty()
	if err := sm.store.Update(ctx, sess); err != nil {
		sess.Token = oldToken
		return err
	}
	req.QueueCookie(sm.cookie(token, sm.maxAge))
	return nil
}

// Destroy deletes the session and expires the cookie.
func (sm *SessionManager) Destroy(ctx context.Context, req *Request) error {
	sess := req.Session()
	if sess == nil {
		return nil
	}
	if err := sm.store.Delete(ctx, sess.ID); err != nil {
		return err
	}
	req.SetSession(nil)
	req.QueueCookie(sm.cookie("", -1))
	return nil
}

// Store returns the underlying store.
func (sm *SessionManager) Store() session.Store {
	return sm.store
}

func (sm *SessionManager) create(ctx context.Context) (*session.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	sess := session.New(uuid.NewString(), token, time.Now().Add(time.Duration(sm.maxAge)*time.Second))
	if err := sm.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	sess.ClearNew()
	sess.ClearDirty()
	return sess, nil
}

func (sm *SessionManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sm.cookieName,
		Value:    value,
		Path:     sm.path,
		Domain:   sm.domain,
		MaxAge:   maxAge,
		Secure:   sm.secure,
		HttpOnly: sm.httpOnly,
		SameSite: sm.sameSite,
	}
}

// generateToken creates a cryptographically secure random token.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// StartSession is the pipe that starts the session before the route pipes run.
type StartSession struct {
	Sessions *SessionManager `inject:""`
}

func (p *StartSession) Handle(req *Request, next Next[*Request]) (any, error) {
	if _, err := p.Sessions.Start(req.Context(), req); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return next(req)
}
