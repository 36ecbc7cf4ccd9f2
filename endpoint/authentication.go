package endpoint

import (
	"errors"
	"fmt"
	"time"

	"github.com/ariebrainware/measurement-gateway/middleware"
	"github.com/ariebrainware/measurement-gateway/service"
	"github.com/ariebrainware/measurement-gateway/util"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	Users    service.UserService
	TokenTTL time.Duration
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"mario.rossi@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

type LoginResponse struct {
	Token     string    `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	UserID    uint      `json:"user_id" example:"1"`
	RoleID    uint32    `json:"role_id" example:"3"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login godoc
// @Summary      User login
// @Description  Authenticate user with email and password and obtain a bearer token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} util.APIResponse{data=LoginResponse} "Login successful"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      401 {object} util.APIResponse "Invalid email or password"
// @Failure      429 {object} util.APIResponse "Too many requests"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	ci := clientOf(c)
	user, err := h.Users.FindByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, util.ErrNotFound) {
		util.LogLoginFailure(req.Email, ci.IP, ci.Agent, "user not found")
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Invalid email or password", Err: fmt.Errorf("invalid credentials")})
		return
	}
	if err != nil {
		util.LogLoginFailure(req.Email, ci.IP, ci.Agent, "database error")
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: fmt.Errorf("failed to load user")})
		return
	}

	if !util.VerifyPassword(req.Password, user.Password) {
		util.LogLoginFailure(req.Email, ci.IP, ci.Agent, "invalid password")
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Invalid email or password", Err: fmt.Errorf("invalid credentials")})
		return
	}

	ttl := h.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	token, err := util.IssueToken(user.Email, user.RoleID, ttl)
	if err != nil {
		util.LogLoginFailure(req.Email, ci.IP, ci.Agent, "token generation failed")
		util.CallServerError(c, util.APIErrorParams{Msg: "Could not generate token", Err: err})
		return
	}

	// earlier failed attempts of this client no longer count
	if err := middleware.ResetRateLimit(c.Request.Context(), ci.IP, c.Request.URL.Path); err != nil {
		util.LogSecurityEvent(util.SecurityEvent{
			EventType: util.EventSuspiciousActivity,
			Email:     user.Email,
			IP:        ci.IP,
			Message:   fmt.Sprintf("Failed to reset login rate limit: %v", err),
		})
	}

	util.LogLoginSuccess(user.ID, user.Email, ci.IP, ci.Agent)
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Login successful",
		Data: LoginResponse{
			Token:     token,
			UserID:    user.ID,
			RoleID:    user.RoleID,
			ExpiresAt: time.Now().Add(ttl).UTC(),
		},
	})
}
