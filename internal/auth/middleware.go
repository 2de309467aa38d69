package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendanceweb/internal/session"
)

// CookieName is the cookie holding the signed session token.
const CookieName = "teacherAuth"

const sessionKey = "session"

// Restorer loads a persisted session by id.
type Restorer interface {
	Restore(ctx context.Context, id string) (session.Session, bool)
}

// LoadSession resolves the session cookie, if any, and stores the restored
// session in the request context. It never rejects a request.
func LoadSession(r Restorer, signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(CookieName)
		if err == nil && tokenStr != "" {
			if id, err := Parse(tokenStr, signingKey, issuer); err == nil {
				if s, ok := r.Restore(c.Request.Context(), id); ok {
					c.Set(sessionKey, s)
				}
			}
		}
		c.Next()
	}
}

// RequireSession redirects unauthenticated requests to loginPath.
func RequireSession(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Current(c); !ok {
			c.Redirect(http.StatusSeeOther, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Current returns the session restored for this request.
func Current(c *gin.Context) (session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return session.Session{}, false
	}
	s, ok := v.(session.Session)
	return s, ok
}
