package api

import (
	"net/http"

	"github.com/FRI2020/talk-trace/internal/auth"
	"github.com/FRI2020/talk-trace/internal/config"
	"github.com/FRI2020/talk-trace/internal/models"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	cfg        *config.Config
	jwtManager *auth.JWTManager
}

func NewAuthHandler(cfg *config.Config, jwtManager *auth.JWTManager) *AuthHandler {
	return &AuthHandler{cfg: cfg, jwtManager: jwtManager}
}

// Login exchanges operator credentials for a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	if h.jwtManager == nil {
		c.JSON(http.StatusOK, gin.H{"token": ""})
		return
	}

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing username or password"})
		return
	}

	if req.Username != h.cfg.Operator.Username ||
		!auth.CheckPassword(h.cfg.Operator.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.jwtManager.Generate(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
