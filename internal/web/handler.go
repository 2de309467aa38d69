// Package web is the teacher console: login, dashboard, manual attendance
// and student status screens rendered on the server.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attendanceweb/internal/attendance"
	"attendanceweb/internal/auth"
	"attendanceweb/internal/session"
	"attendanceweb/internal/status"
)

// Issuer is the issuer claim of session cookies minted by the console.
const Issuer = "attendance-console"

const cookieMaxAge = 365 * 24 * 60 * 60

// Backend is the remote attendance API as used by the screens.
type Backend interface {
	attendance.API
	status.API
}

// Sessions creates, restores and destroys teacher sessions.
type Sessions interface {
	session.Authenticator
	auth.Restorer
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Options configure a Handler. Sessions and Backend are required.
type Options struct {
	Sessions     Sessions
	Backend      Backend
	SigningKey   string
	CookieSecure bool
	// CalendarMode selects how absent dates are placed on the status calendar.
	CalendarMode status.MatchMode
	Checks       map[string]HealthCheck
	Now          func() time.Time
	Log          *zap.Logger
}

type Handler struct {
	sessions Sessions
	backend  Backend
	key      string
	secure   bool
	calMode  status.MatchMode
	checks   map[string]HealthCheck
	now      func() time.Time
	log      *zap.Logger
}

func New(opts Options) (*Handler, error) {
	if opts.Sessions == nil || opts.Backend == nil {
		return nil, errors.New("web: sessions and backend are required")
	}
	if opts.SigningKey == "" {
		return nil, errors.New("web: signing key is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Handler{
		sessions: opts.Sessions,
		backend:  opts.Backend,
		key:      opts.SigningKey,
		secure:   opts.CookieSecure,
		calMode:  opts.CalendarMode,
		checks:   opts.Checks,
		now:      opts.Now,
		log:      opts.Log,
	}, nil
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	code := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.checks {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			code = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(code, body)
}

// ---------- Helpers ----------

// page renders a full screen. Teacher is filled from the session when present.
func (h *Handler) page(c *gin.Context, code int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if s, ok := auth.Current(c); ok {
		data["Teacher"] = s.Teacher.DisplayName()
	}
	c.HTML(code, name, data)
}

func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, cookieMaxAge, "/", "", h.secure, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.secure, true)
}
