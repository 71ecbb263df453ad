// Package auth holds the persisted sign-in session. The client does not
// verify token signatures (that is the server's job); it only inspects the
// expiry claim so a long-dead token is not rehydrated as a live session.
package auth

import (
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/resourcemart/storefront/internal/logging"
)

// StorageKey is the durable key-value entry holding the session snapshot.
const StorageKey = "auth-storage"

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

type Session struct {
	User            *User  `json:"user"`
	Token           string `json:"token"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

type Persister interface {
	Load(key string, dst any) (bool, error)
	Save(key string, v any) error
}

type Store struct {
	persist Persister
	log     *slog.Logger

	mu      sync.Mutex
	session Session
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore rehydrates the persisted session synchronously. An expired
// token rehydrates as signed-out.
func NewStore(persist Persister, opts ...Option) *Store {
	s := &Store{persist: persist, log: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	if s.persist == nil {
		return s
	}
	var sess Session
	ok, err := s.persist.Load(StorageKey, &sess)
	if err != nil {
		s.log.Warn("auth_rehydrate_failed", "error", err)
		return s
	}
	if !ok {
		return s
	}
	if sess.IsAuthenticated && tokenExpired(sess.Token) {
		s.log.Info("auth_token_expired", "user", usernameOf(sess.User))
		sess = Session{}
		s.save(sess)
	}
	s.session = sess
	return s
}

func (s *Store) SignIn(user User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{User: &user, Token: token, IsAuthenticated: true}
	s.save(s.session)
}

func (s *Store) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
	s.save(s.session)
}

func (s *Store) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Token
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.IsAuthenticated
}

func (s *Store) save(sess Session) {
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(StorageKey, sess); err != nil {
		s.log.Warn("auth_persist_failed", "error", err)
	}
}

// tokenExpired inspects the exp claim without verifying the signature.
// An unparseable token counts as expired.
func tokenExpired(token string) bool {
	if token == "" {
		return true
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		// No expiry claim: treat the token as still usable.
		return false
	}
	return exp.Before(time.Now())
}

func usernameOf(u *User) string {
	if u == nil {
		return ""
	}
	return u.Username
}
