package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/api/middleware"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/creds"
)

// AuthHandler manages per-session upstream credentials.
type AuthHandler struct {
	store creds.Store
}

func NewAuthHandler(store creds.Store) *AuthHandler {
	return &AuthHandler{store: store}
}

type moySkladAuthRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *AuthHandler) SetMoySklad(c *gin.Context) {
	var req moySkladAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	token := strings.TrimSpace(req.Token)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	session := middleware.SessionID(c)
	if err := h.store.SetMoySklad(c.Request.Context(), session, creds.MoySkladCreds{Token: token}); err != nil {
		log.Error().Err(err).Msg("failed to store moysklad token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "token saved", "sessionId": session})
}

func (h *AuthHandler) GetMoySklad(c *gin.Context) {
	_, err := h.store.GetMoySklad(c.Request.Context(), middleware.SessionID(c))
	if err != nil && !errors.Is(err, creds.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasToken": err == nil})
}

func (h *AuthHandler) DeleteMoySklad(c *gin.Context) {
	if err := h.store.DeleteMoySklad(c.Request.Context(), middleware.SessionID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "token removed"})
}

type smartUpAuthRequest struct {
	Login     string `json:"login" binding:"required"`
	Password  string `json:"password" binding:"required"`
	ServerURL string `json:"serverUrl"`
	APIPath   string `json:"apiPath"`
}

func (h *AuthHandler) SetSmartUp(c *gin.Context) {
	var req smartUpAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "login and password are required"})
		return
	}

	session := middleware.SessionID(c)
	err := h.store.SetSmartUp(c.Request.Context(), session, creds.SmartUpCreds{
		Login:     strings.TrimSpace(req.Login),
		Password:  req.Password,
		ServerURL: strings.TrimSpace(req.ServerURL),
		APIPath:   strings.TrimSpace(req.APIPath),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to store smartup credentials")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "credentials saved", "sessionId": session})
}

func (h *AuthHandler) GetSmartUp(c *gin.Context) {
	stored, err := h.store.GetSmartUp(c.Request.Context(), middleware.SessionID(c))
	if errors.Is(err, creds.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"hasCredentials": false})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hasCredentials": true,
		"serverUrl":      stored.ServerURL,
		"apiPath":        stored.APIPath,
	})
}

func (h *AuthHandler) DeleteSmartUp(c *gin.Context) {
	if err := h.store.DeleteSmartUp(c.Request.Context(), middleware.SessionID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "credentials removed"})
}
