package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"mintylist/backend/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookie = "mintylist_session"
	sessionKey    = "session"
)

type SessionOpener interface {
	Open(ctx context.Context, token string) (*session.Session, string, error)
}

// SessionMiddleware attaches the browser session named by the cookie, starting
// a new one when the cookie is missing or invalid, and refreshes the cookie.
func SessionMiddleware(opener SessionOpener, ttl time.Duration, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(SessionCookie)
		s, signed, err := opener.Open(c.Request.Context(), token)
		if err != nil {
			slog.Error("opening session", "error", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, signed, int(ttl.Seconds()), "/", "", secure, true)
		c.Set(sessionKey, s)
		c.Next()
	}
}

// CurrentSession returns the session attached by SessionMiddleware.
func CurrentSession(c *gin.Context) *session.Session {
	raw, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	s, _ := raw.(*session.Session)
	return s
}

// RequireSignedIn sends visitors without a signed-in session to the sign-in
// view, and catches the session's notes view up with its sign-in state.
func RequireSignedIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := CurrentSession(c)
		if s == nil || s.Auth.CurrentUser() == nil {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		if err := s.Align(c.Request.Context()); err != nil {
			slog.Warn("aligning notes view", "session", s.ID, "error", err)
		}
		c.Next()
	}
}
