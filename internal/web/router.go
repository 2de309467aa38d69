package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"attendanceweb/internal/auth"
	"attendanceweb/internal/httpmiddleware"
)

// RouterConfig holds the engine-level settings.
type RouterConfig struct {
	// LoginPerMinute bounds login attempts per client IP. Zero disables the limit.
	LoginPerMinute int
	// Release enables production-only headers.
	Release bool
	Log     *zap.Logger
}

// NewRouter builds the gin engine serving the console.
func NewRouter(h *Handler, cfg RouterConfig) (*gin.Engine, error) {
	tmpl, err := loadPages()
	if err != nil {
		return nil, err
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(cfg.Log, "/healthz", "/metrics"))
	r.Use(httpmiddleware.SecurityHeaders(cfg.Release))
	r.HTMLRender = tmpl

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.Healthz)
	r.StaticFS("/static", staticFiles())

	limiter := httpmiddleware.NewTokenBucket(cfg.LoginPerMinute, cfg.LoginPerMinute)

	app := r.Group("/", auth.LoadSession(h.sessions, h.key, Issuer))
	app.GET("/", func(c *gin.Context) { c.Redirect(http.StatusSeeOther, "/login") })
	app.GET("/login", h.LoginForm)
	app.POST("/login", limiter.Limit(h.LoginThrottled), h.Login)
	app.POST("/logout", h.Logout)

	gated := app.Group("/", auth.RequireSession("/login"))
	gated.GET("/dashboard", h.Dashboard)
	gated.GET("/manual-attendance", h.ManualAttendance)
	gated.POST("/manual-attendance", h.SaveAttendance)
	gated.GET("/student-status", h.StudentStatus)

	return r, nil
}
