package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mangosense/api/internal/middleware"
	"mangosense/api/internal/models"
	"mangosense/api/internal/security"
	"mangosense/api/internal/service"
)

type userPayload struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserPayload(user models.User) userPayload {
	return userPayload{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Address:   user.Address,
		Phone:     user.Phone,
		Role:      string(user.Role),
		Status:    string(user.Status),
		CreatedAt: user.CreatedAt,
	}
}

func authPayload(result service.AuthResult) gin.H {
	return gin.H{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"device_id":     result.DeviceID,
		"user":          toUserPayload(result.User),
	}
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		Phone:     req.Phone,
	})
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			respondError(c, http.StatusBadRequest, "Validation failed", validationErr.Messages...)
			return
		}
		if errors.Is(err, service.ErrEmailTaken) {
			respondError(c, http.StatusConflict, "An account with this email already exists")
			return
		}
		h.log.Error().Err(err).Msg("register failed")
		respondError(c, http.StatusInternalServerError, "Registration failed")
		return
	}

	respond(c, http.StatusCreated, "Account created successfully", authPayload(result))
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		DeviceID:   req.DeviceID,
		DeviceName: req.DeviceName,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, service.ErrUserSuspended):
			respondError(c, http.StatusForbidden, "Account is suspended")
		default:
			h.log.Error().Err(err).Msg("login failed")
			respondError(c, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	respond(c, http.StatusOK, "Logged in successfully", authPayload(result))
}

type refreshRequest struct {
	UserID       string `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
	DeviceID     string `json:"device_id"`
}

func (h HandlerSet) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), service.RefreshInput{
		UserID:       req.UserID,
		RefreshToken: req.RefreshToken,
		DeviceID:     req.DeviceID,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserSuspended) {
			respondError(c, http.StatusForbidden, "Account is suspended")
			return
		}
		respondError(c, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	respond(c, http.StatusOK, "Token refreshed", authPayload(result))
}

func (h HandlerSet) Logout(c *gin.Context) {
	claimsVal, _ := c.Get(middleware.ContextKeyClaims)
	claims, ok := claimsVal.(security.AccessClaims)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.UserID, claims.DeviceID); err != nil {
		h.log.Error().Err(err).Msg("logout failed")
		respondError(c, http.StatusInternalServerError, "Logout failed")
		return
	}

	respond(c, http.StatusOK, "Logged out successfully", nil)
}

func (h HandlerSet) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	respond(c, http.StatusOK, "Profile retrieved", toUserPayload(user))
}
