package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simplebim/license-server/internal/api/http/dto"
	"github.com/simplebim/license-server/internal/auth"
)

type AuthHandler struct {
	authService *auth.Service
}

func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username or password"})
			return
		}
		slog.Error("Login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *AuthHandler) RequestReset(c *gin.Context) {
	var req dto.RequestResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expiresIn, err := h.authService.RequestReset(c.Request.Context(), req.Email, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrPasswordMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match"})
		case errors.Is(err, auth.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters"})
		case errors.Is(err, auth.ErrEmailNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Email not found"})
		default:
			// The OTP row is already committed when delivery fails, so this
			// is an upstream problem, not a bad request.
			slog.Error("Password reset request failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send OTP email"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.RequestResetResponse{
		Message:          "OTP sent to email",
		ExpiresInMinutes: expiresIn,
	})
}

func (h *AuthHandler) VerifyReset(c *gin.Context) {
	var req dto.VerifyResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.authService.VerifyReset(c.Request.Context(), req.Email, req.OTPCode)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidOTP), errors.Is(err, auth.ErrOTPExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired OTP"})
		case errors.Is(err, auth.ErrEmailNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Email not found"})
		default:
			slog.Error("Password reset verification failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
