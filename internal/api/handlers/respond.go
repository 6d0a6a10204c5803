package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/api/middleware"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/creds"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/httpx"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/service"
)

// moySkladToken resolves the session's token or ends the request with 401.
// No upstream call happens without a credential.
func moySkladToken(c *gin.Context, store creds.Store) (string, bool) {
	stored, err := store.GetMoySklad(c.Request.Context(), middleware.SessionID(c))
	if errors.Is(err, creds.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "MoySklad token not set, authorize first"})
		return "", false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read credentials"})
		return "", false
	}
	return stored.Token, true
}

func smartUpCreds(c *gin.Context, store creds.Store) (creds.SmartUpCreds, bool) {
	stored, err := store.GetSmartUp(c.Request.Context(), middleware.SessionID(c))
	if errors.Is(err, creds.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "SmartUp credentials not set, authorize first"})
		return creds.SmartUpCreds{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read credentials"})
		return creds.SmartUpCreds{}, false
	}
	return stored, true
}

// upstreamError maps collector failures onto response codes: validation
// errors are the client's fault, upstream statuses pass through, rate-limit
// budget exhaustion surfaces as 429.
func upstreamError(c *gin.Context, err error) {
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")

	switch {
	case errors.Is(err, service.ErrNegativeRate),
		errors.Is(err, service.ErrNegativeThreshold),
		errors.Is(err, service.ErrNoSheets):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, httpx.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "upstream rate limit not lifted in time"})
	default:
		var se *httpx.StatusError
		if errors.As(err, &se) {
			c.JSON(se.StatusCode, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
