package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attendanceweb/internal/auth"
	"attendanceweb/internal/session"
)

const (
	msgMissingCredentials = "Please enter your Teacher ID and password."
	msgTooManyAttempts    = "Too many login attempts. Please wait a minute and try again."
)

type loginRequest struct {
	TeacherID string `form:"teacher_id" binding:"required"`
	Password  string `form:"password" binding:"required"`
}

// ---------- Login ----------

func (h *Handler) LoginForm(c *gin.Context) {
	if _, ok := auth.Current(c); ok {
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return
	}
	h.page(c, http.StatusOK, "login", nil)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil || strings.TrimSpace(req.TeacherID) == "" {
		h.page(c, http.StatusBadRequest, "login", gin.H{"Error": msgMissingCredentials, "TeacherID": req.TeacherID})
		return
	}

	s, err := h.sessions.Login(c.Request.Context(), strings.TrimSpace(req.TeacherID), req.Password)
	if err != nil {
		var authErr *session.AuthError
		msg := session.FallbackLoginMessage
		code := http.StatusInternalServerError
		if errors.As(err, &authErr) {
			msg = authErr.Message
			code = http.StatusUnauthorized
		} else {
			h.log.Error("login failed", zap.Error(err))
		}
		h.page(c, code, "login", gin.H{"Error": msg, "TeacherID": req.TeacherID})
		return
	}

	token, err := auth.Issue(s.ID, Issuer, h.key)
	if err != nil {
		h.log.Error("issue session cookie", zap.Error(err))
		_ = h.sessions.Logout(c.Request.Context(), s.ID)
		h.page(c, http.StatusInternalServerError, "login", gin.H{"Error": session.FallbackLoginMessage, "TeacherID": req.TeacherID})
		return
	}
	h.setSessionCookie(c, token)
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

// LoginThrottled answers a rate-limited login attempt.
func (h *Handler) LoginThrottled(c *gin.Context) {
	h.page(c, http.StatusTooManyRequests, "login", gin.H{"Error": msgTooManyAttempts, "TeacherID": c.PostForm("teacher_id")})
}

// ---------- Logout ----------

func (h *Handler) Logout(c *gin.Context) {
	if s, ok := auth.Current(c); ok {
		if err := h.sessions.Logout(c.Request.Context(), s.ID); err != nil {
			h.log.Warn("logout failed", zap.String("session_id", s.ID), zap.Error(err))
		}
	}
	h.clearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/login")
}

// ---------- Dashboard ----------

func (h *Handler) Dashboard(c *gin.Context) {
	h.page(c, http.StatusOK, "dashboard", nil)
}
