package service

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/edirooss/nvr-server/internal/principal"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// sessionTouchInterval is how often an active session's stamp is refreshed.
const sessionTouchInterval = 15 * time.Minute

type AuthServiceOptions struct {
	Username     string
	PasswordHash string // bcrypt
	APIKeyHash   string // bcrypt
	CookieKey    string
	SecureCookie bool
}

// AuthService handles authentication logic for the single configured
// operator and for API key holders.
type AuthService struct {
	log          *zap.Logger
	UserSession  *UserSessionService
	username     string
	passwordHash []byte
	apiKeyHash   []byte
}

// NewAuthService creates a new AuthService.
func NewAuthService(log *zap.Logger, opts AuthServiceOptions) (*AuthService, error) {
	log = log.Named("auth")
	usersesssvc, err := NewUserSessionService([]byte(opts.CookieKey), opts.SecureCookie)
	if err != nil {
		return nil, fmt.Errorf("new user session service: %w", err)
	}

	return &AuthService{
		log:          log,
		UserSession:  usersesssvc,
		username:     opts.Username,
		passwordHash: []byte(opts.PasswordHash),
		apiKeyHash:   []byte(opts.APIKeyHash),
	}, nil
}

// AuthenticateWithPassword authenticates using username and password.
// On success, it sets and returns the Principal.
func (s *AuthService) AuthenticateWithPassword(c *gin.Context, username, password string) (*principal.Principal, bool) {
	// Both checks always run so a wrong username costs as much as a wrong password.
	pwOK := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	if !pwOK || !userOK {
		s.log.Info("login rejected", zap.String("username", username), zap.String("client_ip", c.ClientIP()))
		return nil, false
	}

	p := &principal.Principal{
		ID:             s.username,
		PrincipalType:  principal.Operator,
		CredentialType: principal.Login,
	}
	principal.Set(c, p)
	return p, true
}

// AuthenticateWithSession reads session from context and authenticates user ID.
func (s *AuthService) AuthenticateWithSession(c *gin.Context) (*principal.Principal, bool) {
	session := sessions.Default(c)
	uid, ok := s.UserSession.GetUserID(session)
	if !ok || uid != s.username {
		return nil, false
	}
	s.UserSession.Touch(session, sessionTouchInterval)

	p := &principal.Principal{
		ID:             uid,
		PrincipalType:  principal.Operator,
		CredentialType: principal.Session,
	}
	principal.Set(c, p)
	return p, true
}

// AuthenticateWithAPIKey checks key against the configured bcrypt hash.
func (s *AuthService) AuthenticateWithAPIKey(c *gin.Context, key string) (*principal.Principal, bool) {
	if key == "" || bcrypt.CompareHashAndPassword(s.apiKeyHash, []byte(key)) != nil {
		return nil, false
	}

	p := &principal.Principal{
		ID:             "apikey",
		PrincipalType:  principal.Integration,
		CredentialType: principal.APIKey,
	}
	principal.Set(c, p)
	return p, true
}

// WhoAmI returns the authenticated Principal from the Gin context.
// Returns nil if no principal is set.
func (s *AuthService) WhoAmI(c *gin.Context) *principal.Principal {
	return principal.Get(c)
}
