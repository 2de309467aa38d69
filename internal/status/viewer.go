// Package status looks up a single student's attendance and lays out the
// month calendar shown beside their statistics.
package status

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"attendanceweb/internal/backend"
)

// Banner texts.
const (
	MsgNotFound   = "Student not found. Please check the Student ID."
	MsgFetchError = "Failed to fetch student data. Please try again."
)

// DemoStudentIDs are offered as one-click searches on the status screen.
var DemoStudentIDs = []string{"STU001", "STU002", "STU003", "STU004", "STU005"}

var (
	ErrBlankID = errors.New("status: student id is required")
	ErrStale   = errors.New("status: superseded by a newer search")
)

// State of the viewer.
type State int

const (
	Idle State = iota
	Searching
	Found
	NotFound
	OtherError
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Searching:
		return "searching"
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case OtherError:
		return "other_error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// API is the part of the backend the viewer needs.
type API interface {
	StudentStatus(ctx context.Context, studentID string) (*backend.StudentStatusReport, error)
}

// View is a snapshot of the viewer for rendering. Report is set only when State is Found.
type View struct {
	State     State
	StudentID string
	Report    *backend.StudentStatusReport
	Error     string
}

// Viewer runs student lookups. Only the most recent search may update its state.
type Viewer struct {
	api API
	log *zap.Logger

	mu    sync.Mutex
	state State
	id    string
	rep   *backend.StudentStatusReport
	err   string
	gen   uint64
}

// NewViewer creates an idle viewer.
func NewViewer(api API, logger *zap.Logger) *Viewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Viewer{api: api, log: logger}
}

// Search fetches a fresh report for id. A blank id is rejected without a
// backend call and leaves the current state alone.
func (v *Viewer) Search(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrBlankID
	}

	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.state = Searching
	v.id = id
	v.rep = nil
	v.err = ""
	v.mu.Unlock()

	rep, err := v.api.StudentStatus(ctx, id)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		return ErrStale
	}
	switch {
	case err == nil:
		v.state = Found
		v.rep = rep
		return nil
	case errors.Is(err, backend.ErrNotFound):
		v.state = NotFound
		v.err = MsgNotFound
	default:
		v.state = OtherError
		v.err = MsgFetchError
		v.log.Warn("student lookup failed", zap.String("student_id", id), zap.Error(err))
	}
	return fmt.Errorf("lookup %s: %w", id, err)
}

// View returns a copy of the current state.
func (v *Viewer) View() View {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := View{State: v.state, StudentID: v.id, Error: v.err}
	if v.rep != nil {
		rep := *v.rep
		rep.AbsentDates = append([]string(nil), v.rep.AbsentDates...)
		out.Report = &rep
	}
	return out
}
