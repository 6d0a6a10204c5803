package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SessionHeader carries the opaque session id credentials are keyed
	// by. The cookie is a fallback for browser clients that do not
	// forward custom headers.
	SessionHeader = "X-Session-ID"
	SessionCookie = "toolbox_session"

	sessionKey = "session_id"

	cookieMaxAge = 7 * 24 * 60 * 60
)

// Session resolves the request's session id, minting one when the client
// has none yet. The id is echoed in the response header and cookie so
// either transport keeps working.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if id == "" {
			if cookie, err := c.Cookie(SessionCookie); err == nil {
				id = cookie
			}
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(sessionKey, id)
		c.Header(SessionHeader, id)
		c.SetCookie(SessionCookie, id, cookieMaxAge, "/", "", false, true)

		c.Next()
	}
}

// SessionID returns the session id resolved by the Session middleware.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
