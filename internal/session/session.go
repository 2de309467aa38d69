// Package session keeps the logged-in teacher's identity between requests.
//
// A session is trusted on read: once a blob is stored under its id, any
// request presenting that id is authenticated until Logout deletes it.
// Credentials are never re-checked against the backend.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"attendanceweb/internal/backend"
)

// FallbackLoginMessage is shown when the backend gives no usable reason.
const FallbackLoginMessage = "Login failed. Please try again."

const keyPrefix = "teacherAuth:"

// ErrNoSession is returned by stores when no blob exists for a key.
var ErrNoSession = errors.New("session: not found")

// TeacherSession is the persisted identity of a logged-in teacher.
type TeacherSession struct {
	TeacherID string `json:"teacher_id"`
	Name      string `json:"name"`
	Token     string `json:"token,omitempty"`
}

// DisplayName is the name shown in page headers.
func (t TeacherSession) DisplayName() string {
	if t.Name == "" {
		return "Teacher"
	}
	return t.Name
}

// Session is a TeacherSession bound to its storage id.
type Session struct {
	ID      string
	Teacher TeacherSession
}

// Store is a key-value store for serialized sessions.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// LoginAPI is the part of the backend client used for credential checks.
type LoginAPI interface {
	Login(ctx context.Context, teacherID, password string) (*backend.LoginResult, error)
}

// Authenticator is the narrow interface screens use to request session transitions.
type Authenticator interface {
	Login(ctx context.Context, teacherID, password string) (Session, error)
	Logout(ctx context.Context, id string) error
}

// AuthError is a failed login. Message is safe to show to the user.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("login rejected: %s: %v", e.Message, e.Err)
	}
	return "login rejected: " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// Manager creates, restores and destroys sessions.
type Manager struct {
	api   LoginAPI
	store Store
	log   *zap.Logger
	newID func() string
}

var _ Authenticator = (*Manager)(nil)

// NewManager wires a manager to the backend and a session store.
func NewManager(api LoginAPI, store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{api: api, store: store, log: logger, newID: uuid.NewString}
}

// Login checks credentials with the backend and persists the returned identity.
func (m *Manager) Login(ctx context.Context, teacherID, password string) (Session, error) {
	res, err := m.api.Login(ctx, teacherID, password)
	if err != nil {
		msg := FallbackLoginMessage
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Detail != "" {
			msg = apiErr.Detail
		}
		return Session{}, &AuthError{Message: msg, Err: err}
	}
	if !res.Success {
		return Session{}, &AuthError{Message: FallbackLoginMessage}
	}

	teacher := TeacherSession{TeacherID: res.TeacherID, Name: res.Name, Token: res.Token}
	if teacher.TeacherID == "" {
		teacher.TeacherID = teacherID
	}
	blob, err := json.Marshal(teacher)
	if err != nil {
		return Session{}, fmt.Errorf("encode session: %w", err)
	}

	s := Session{ID: m.newID(), Teacher: teacher}
	if err := m.store.Set(ctx, keyPrefix+s.ID, blob); err != nil {
		return Session{}, fmt.Errorf("persist session: %w", err)
	}
	m.log.Info("teacher logged in", zap.String("teacher_id", teacher.TeacherID))
	return s, nil
}

// Restore loads a persisted session. Missing or malformed blobs yield false.
func (m *Manager) Restore(ctx context.Context, id string) (Session, bool) {
	if id == "" {
		return Session{}, false
	}
	blob, err := m.store.Get(ctx, keyPrefix+id)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			m.log.Warn("session store read failed", zap.Error(err))
		}
		return Session{}, false
	}

	var teacher TeacherSession
	if bytes.Equal(bytes.TrimSpace(blob), []byte("null")) || json.Unmarshal(blob, &teacher) != nil {
		m.log.Warn("discarding malformed session", zap.String("session_id", id))
		_ = m.store.Delete(ctx, keyPrefix+id)
		return Session{}, false
	}
	return Session{ID: id, Teacher: teacher}, true
}

// Logout removes the persisted session. Unknown ids are not an error.
func (m *Manager) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.store.Delete(ctx, keyPrefix+id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
