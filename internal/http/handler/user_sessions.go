package handler

import (
	"net/http"

	"github.com/edirooss/nvr-server/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserSessionsHandler struct {
	log *zap.Logger
	svc *service.AuthService
}

func NewUserSessionsHandler(log *zap.Logger, authsvc *service.AuthService) *UserSessionsHandler {
	return &UserSessionsHandler{log.Named("usr_sessions"), authsvc}
}

// Login authenticates the operator and creates a new session.
// Responds 204 on success and 401 on bad credentials.
func (h *UserSessionsHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := bind(c.Request, &req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	p, ok := h.svc.AuthenticateWithPassword(c, req.Username, req.Password)
	if !ok {
		c.Status(http.StatusUnauthorized)
		return
	}

	s := sessions.Default(c)
	if err := h.svc.UserSession.SetUserSession(s, p.ID); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// Logout clears the current session.
func (h *UserSessionsHandler) Logout(c *gin.Context) {
	s := sessions.Default(c)
	if err := h.svc.UserSession.ClearUserSession(s); err != nil {
		c.Error(err)
	}
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated principal.
func (h *UserSessionsHandler) Me(c *gin.Context) {
	p := h.svc.WhoAmI(c)
	if p == nil {
		c.Status(http.StatusUnauthorized)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":              p.ID,
		"principal_type":  p.PrincipalType.String(),
		"credential_type": p.CredentialType.String(),
	})
}
