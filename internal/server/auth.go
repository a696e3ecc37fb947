package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/tillpoint/internal/audit/domain"
	authdomain "github.com/smallbiznis/tillpoint/internal/auth/domain"
	overridedomain "github.com/smallbiznis/tillpoint/internal/override/domain"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      authdomain.User `json:"user"`
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	session, user, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		ActorID:    user.ID,
		ActorName:  user.Username,
		Action:     "auth.login",
		EntityType: "user",
		EntityID:   user.ID.String(),
	})

	c.JSON(http.StatusOK, loginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      user,
	})
}

func (s *Server) Logout(c *gin.Context) {
	token := bearerToken(c)
	if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}

	if user, ok := currentUser(c); ok {
		s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
			ActorID:    user.ID,
			ActorName:  user.Username,
			Action:     "auth.logout",
			EntityType: "user",
			EntityID:   user.ID.String(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	err := s.authsvc.ChangePassword(c.Request.Context(), authdomain.ChangePasswordRequest{
		UserID:          user.ID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		ActorID:    user.ID,
		ActorName:  user.Username,
		Action:     "auth.change_password",
		EntityType: "user",
		EntityID:   user.ID.String(),
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type verifyPINRequest struct {
	PIN    string `json:"pin"`
	Action string `json:"action"`
}

type verifyPINResponse struct {
	Token     string    `json:"token"`
	Action    string    `json:"action"`
	Approver  string    `json:"approver"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerifyPIN exchanges a supervisor PIN for a short-lived, single-use override
// token scoped to one action.
func (s *Server) VerifyPIN(c *gin.Context) {
	var req verifyPINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.PIN) == "" {
		AbortWithError(c, newValidationError("pin", "invalid_pin", "pin is required"))
		return
	}

	token, err := s.overrideSvc.Issue(c.Request.Context(), overridedomain.IssueRequest{
		PIN:    req.PIN,
		Action: overridedomain.Action(strings.TrimSpace(req.Action)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, verifyPINResponse{
		Token:     token.Token,
		Action:    string(token.Action),
		Approver:  token.IssuedName,
		ExpiresAt: token.ExpiresAt,
	})
}
