package service

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// UserSessionService manages operator sessions in signed cookies.
type UserSessionService struct {
	store         cookie.Store
	cookieOptions sessions.Options
}

const (
	sessionCookieName = "nvr_sid"

	// Keys used to store and retrieve values in the session.
	sessionKeyUserID    = "uid"
	sessionKeyLastTouch = "last_touch"

	sessionMaxAge = 4 * time.Hour
)

// NewUserSessionService creates a UserSessionService signing cookies with key.
// The secure flag marks cookies Secure (HTTPS only).
func NewUserSessionService(key []byte, secure bool) (*UserSessionService, error) {
	if len(key) < 16 {
		return nil, errors.New("session key must be at least 16 bytes")
	}
	store := cookie.NewStore(key)

	cookieOptions := sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionMaxAge / time.Second),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	store.Options(cookieOptions)

	return &UserSessionService{store: store, cookieOptions: cookieOptions}, nil
}

// Middleware attaches session handling.
func (s *UserSessionService) Middleware() gin.HandlerFunc {
	return sessions.Sessions(sessionCookieName, s.store)
}

// SetUserSession stores the given user ID in the session and persists it.
func (s *UserSessionService) SetUserSession(session sessions.Session, uid string) error {
	session.Set(sessionKeyUserID, uid)
	session.Set(sessionKeyLastTouch, time.Now().Unix())

	if err := session.Save(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// ClearUserSession clears all session data and expires the cookie.
func (s *UserSessionService) ClearUserSession(session sessions.Session) error {
	session.Clear()

	opts := s.cookieOptions
	opts.MaxAge = -1
	session.Options(opts)

	if err := session.Save(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// GetUserID returns the user ID from the given session.
// It reports false if no valid user ID is present.
func (s *UserSessionService) GetUserID(session sessions.Session) (string, bool) {
	uid, ok := session.Get(sessionKeyUserID).(string)
	if !ok || uid == "" {
		return "", false
	}
	return uid, true
}

// Touch refreshes the session's last-activity stamp at most once per
// interval so that active operators keep their cookie alive.
func (s *UserSessionService) Touch(session sessions.Session, interval time.Duration) {
	now := time.Now().Unix()
	last, _ := session.Get(sessionKeyLastTouch).(int64)
	if last == 0 || now-last > int64(interval/time.Second) {
		session.Set(sessionKeyLastTouch, now)
		_ = session.Save()
	}
}
