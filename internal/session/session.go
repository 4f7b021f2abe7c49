// Package session tracks who is logged in to the dashboard.
//
// The browser holds only a signed cookie naming a session id. The user and the
// API bearer token obtained at login live in a Store on the server.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"medease/m/domain"
	"medease/m/internal/client"
)

const CookieName = "medease_session"

// Authenticator is the part of the API client the manager needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (client.AuthResponse, error)
	Register(ctx context.Context, req client.RegisterRequest) (client.AuthResponse, error)
}

// Session is the per-request view of the current user. The zero value is an
// unauthenticated session.
type Session struct {
	id    string
	user  *domain.User
	token string
}

// User returns nil when nobody is logged in.
func (s *Session) User() *domain.User {
	if s == nil {
		return nil
	}
	return s.user
}

// Token is the API bearer token, empty when unauthenticated.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.token
}

func (s *Session) Authenticated() bool {
	return s.User() != nil
}

type Manager struct {
	store  Store
	auth   Authenticator
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

type Options struct {
	Secret string
	TTL    time.Duration
	// Secure marks the cookie HTTPS-only.
	Secure bool
}

func NewManager(store Store, auth Authenticator, opts Options) *Manager {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		store:  store,
		auth:   auth,
		secret: []byte(opts.Secret),
		ttl:    ttl,
		secure: opts.Secure,
		now:    time.Now,
	}
}

type cookieClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func (m *Manager) signCookie(id string, expires time.Time) (string, error) {
	claims := cookieClaims{
		SessionID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(m.now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) parseCookie(value string) (string, error) {
	token, err := jwt.ParseWithClaims(value, &cookieClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return "", ErrNoSession
	}
	claims, ok := token.Claims.(*cookieClaims)
	if !ok || claims.SessionID == "" {
		return "", ErrNoSession
	}
	return claims.SessionID, nil
}

// Resolve reads the session cookie from r. Any problem resolving it yields an
// unauthenticated session.
func (m *Manager) Resolve(r *http.Request) *Session {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return &Session{}
	}
	id, err := m.parseCookie(c.Value)
	if err != nil {
		return &Session{}
	}
	rec, err := m.store.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			logrus.WithError(err).Warn("unable to load session")
		}
		return &Session{}
	}
	user := rec.User
	return &Session{id: rec.ID, user: &user, token: rec.Token}
}

// Login authenticates against the API and starts a session on success.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, email, password string) (*Session, error) {
	resp, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return m.start(ctx, w, resp)
}

// Register creates the account and, because the API answers with a token,
// logs the new user in.
func (m *Manager) Register(ctx context.Context, w http.ResponseWriter, req client.RegisterRequest) (*Session, error) {
	resp, err := m.auth.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return m.start(ctx, w, resp)
}

func (m *Manager) start(ctx context.Context, w http.ResponseWriter, resp client.AuthResponse) (*Session, error) {
	if resp.Token == "" {
		return nil, errors.New("session: api returned no token")
	}
	expires := m.now().Add(m.ttl)
	rec := Record{ID: uuid.NewString(), User: resp.User, Token: resp.Token, ExpiresAt: expires}
	if err := m.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	value, err := m.signCookie(rec.ID, expires)
	if err != nil {
		return nil, fmt.Errorf("sign session cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	user := rec.User
	return &Session{id: rec.ID, user: &user, token: rec.Token}, nil
}

// Logout deletes the stored session and expires the cookie. The cookie is
// cleared even if the store delete fails.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var err error
	if c, cerr := r.Cookie(CookieName); cerr == nil && c.Value != "" {
		if id, perr := m.parseCookie(c.Value); perr == nil {
			err = m.store.Delete(ctx, id)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	if sess, ok := r.Context().Value(ctxSession).(*Session); ok {
		*sess = Session{}
	}
	return err
}

type ctxKey string

const ctxSession ctxKey = "session"

// Provide resolves the session once per request and makes it available to
// FromContext.
func (m *Manager) Provide(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ctxSession, m.Resolve(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the request's session. It panics when the request did
// not pass through Provide.
func FromContext(ctx context.Context) *Session {
	sess, ok := ctx.Value(ctxSession).(*Session)
	if !ok {
		panic("session: FromContext called outside Manager.Provide")
	}
	return sess
}

// WithSession attaches sess to ctx the same way Provide does.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxSession, sess)
}
