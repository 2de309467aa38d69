package session

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"attendanceweb/internal/backend"
)

type fakeLoginAPI struct {
	res *backend.LoginResult
	err error
}

func (f fakeLoginAPI) Login(context.Context, string, string) (*backend.LoginResult, error) {
	return f.res, f.err
}

func newTestManager(api LoginAPI) (*Manager, *Memory) {
	store := NewMemory()
	m := NewManager(api, store, nil)
	m.newID = func() string { return "sid-1" }
	return m, store
}

func TestRestoreWithoutSession(t *testing.T) {
	m, _ := newTestManager(fakeLoginAPI{})

	_, ok := m.Restore(context.Background(), "")
	assert.False(t, ok)
	_, ok = m.Restore(context.Background(), "unknown")
	assert.False(t, ok)
}

func TestLoginRestoreRoundTrip(t *testing.T) {
	m, _ := newTestManager(fakeLoginAPI{res: &backend.LoginResult{
		Success: true, TeacherID: "Ramandeep@singh", Name: "Ramandeep Singh", Token: "tok",
	}})

	s, err := m.Login(context.Background(), "Ramandeep@singh", "456123")
	assert.NoError(t, err)
	assert.Equal(t, "sid-1", s.ID)

	restored, ok := m.Restore(context.Background(), s.ID)
	assert.True(t, ok)
	assert.Equal(t, s, restored)
	assert.Equal(t, TeacherSession{TeacherID: "Ramandeep@singh", Name: "Ramandeep Singh", Token: "tok"}, restored.Teacher)
}

func TestLoginFallsBackToSubmittedID(t *testing.T) {
	m, _ := newTestManager(fakeLoginAPI{res: &backend.LoginResult{Success: true, Name: "A Teacher"}})

	s, err := m.Login(context.Background(), "abcd@", "1234")
	assert.NoError(t, err)
	assert.Equal(t, "abcd@", s.Teacher.TeacherID)
}

func TestLogoutThenRestore(t *testing.T) {
	m, _ := newTestManager(fakeLoginAPI{res: &backend.LoginResult{Success: true, TeacherID: "t1", Name: "T"}})
	s, err := m.Login(context.Background(), "t1", "pw")
	assert.NoError(t, err)

	assert.NoError(t, m.Logout(context.Background(), s.ID))
	_, ok := m.Restore(context.Background(), s.ID)
	assert.False(t, ok)

	// idempotent
	assert.NoError(t, m.Logout(context.Background(), s.ID))
	assert.NoError(t, m.Logout(context.Background(), ""))
}

func TestRestoreMalformed(t *testing.T) {
	m, store := newTestManager(fakeLoginAPI{})
	ctx := context.Background()

	for _, blob := range []string{"{not json", "null"} {
		assert.NoError(t, store.Set(ctx, keyPrefix+"bad", []byte(blob)))
		_, ok := m.Restore(ctx, "bad")
		assert.False(t, ok, blob)
		_, err := store.Get(ctx, keyPrefix+"bad")
		assert.ErrorIs(t, err, ErrNoSession)
	}
}

func TestLoginFailureMessages(t *testing.T) {
	tests := []struct {
		name    string
		api     fakeLoginAPI
		wantMsg string
	}{
		{
			name:    "server detail",
			api:     fakeLoginAPI{err: &backend.APIError{Endpoint: "login", Status: http.StatusUnauthorized, Detail: "Invalid credentials"}},
			wantMsg: "Invalid credentials",
		},
		{
			name:    "no detail",
			api:     fakeLoginAPI{err: &backend.APIError{Endpoint: "login", Status: http.StatusBadGateway}},
			wantMsg: FallbackLoginMessage,
		},
		{
			name:    "transport",
			api:     fakeLoginAPI{err: errors.New("connection refused")},
			wantMsg: FallbackLoginMessage,
		},
		{
			name:    "unsuccessful body",
			api:     fakeLoginAPI{res: &backend.LoginResult{Success: false}},
			wantMsg: FallbackLoginMessage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, store := newTestManager(tt.api)
			_, err := m.Login(context.Background(), "t1", "pw")

			var authErr *AuthError
			if assert.True(t, errors.As(err, &authErr)) {
				assert.Equal(t, tt.wantMsg, authErr.Message)
			}
			assert.Empty(t, store.data)
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Teacher", TeacherSession{}.DisplayName())
	assert.Equal(t, "Priya", TeacherSession{Name: "Priya"}.DisplayName())
}
