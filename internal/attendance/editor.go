package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"attendanceweb/internal/backend"
)

// ReloadDelay is how long the save confirmation stays up before the roster is re-fetched.
const ReloadDelay = 2 * time.Second

// Banner texts.
const (
	MsgSaved      = "Attendance saved successfully!"
	MsgLoadFailed = "Failed to load attendance data"
	MsgSaveFailed = "Failed to save attendance. Please try again."
)

var (
	ErrInvalidDate    = errors.New("attendance: invalid date")
	ErrFutureDate     = errors.New("attendance: date is in the future")
	ErrUnknownStudent = errors.New("attendance: student not in roster")
	ErrNotLoaded      = errors.New("attendance: no roster loaded")
	ErrBusy           = errors.New("attendance: save already in progress")
	// ErrStale is returned when a response arrived after a newer request superseded it.
	ErrStale = errors.New("attendance: superseded by a newer request")
)

// State of the editor for the selected date.
type State int

const (
	Idle State = iota
	Loading
	Loaded
	LoadError
	Saving
	SaveOk
	SaveError
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case LoadError:
		return "load_error"
	case Saving:
		return "saving"
	case SaveOk:
		return "save_ok"
	case SaveError:
		return "save_error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// hasRoster reports whether rows may be edited and submitted in this state.
func (s State) hasRoster() bool {
	return s == Loaded || s == SaveOk || s == SaveError
}

// API is the part of the backend the editor needs.
type API interface {
	AttendanceForDate(ctx context.Context, date string) ([]backend.StudentAttendanceRow, error)
	SubmitAttendance(ctx context.Context, records []backend.AttendanceRecord) (*backend.Ack, error)
}

// Options tune an Editor. The zero value is usable.
type Options struct {
	// Now is the clock used to bound selectable dates.
	Now func() time.Time
	// AfterFunc schedules the reload that follows a successful save.
	// Nil leaves the reload to the caller (the web screen uses a page refresh).
	AfterFunc func(d time.Duration, f func())
	Log       *zap.Logger
}

// View is a snapshot of the editor for rendering.
type View struct {
	State   State
	Date    string
	Rows    []backend.StudentAttendanceRow
	Message string
	Error   string
}

// Loading reports whether the roster fetch is in flight.
func (v View) Loading() bool { return v.State == Loading }

// Saving reports whether a submit is in flight.
func (v View) Saving() bool { return v.State == Saving }

// Editor holds the roster of one date and the operator's unsaved marks.
// It is safe for concurrent use; only the latest load may update the roster.
type Editor struct {
	api  API
	opts Options

	mu      sync.Mutex
	state   State
	date    string
	rows    []backend.StudentAttendanceRow
	message string
	errMsg  string
	gen     uint64
}

// NewEditor creates an idle editor.
func NewEditor(api API, opts Options) *Editor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Editor{api: api, opts: opts}
}

// Today is the default date selection, formatted for the wire.
func (e *Editor) Today() string {
	return e.opts.Now().Format(backend.DateLayout)
}

// ValidateDate checks the date is well formed and not after today.
func (e *Editor) ValidateDate(date string) error {
	d, err := time.Parse(backend.DateLayout, date)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if d.Format(backend.DateLayout) > e.Today() {
		return ErrFutureDate
	}
	return nil
}

// Select loads the roster for date, replacing the current one. Unsaved marks are discarded.
func (e *Editor) Select(ctx context.Context, date string) error {
	if err := e.ValidateDate(date); err != nil {
		return err
	}
	return e.load(ctx, date)
}

func (e *Editor) load(ctx context.Context, date string) error {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.state = Loading
	e.date = date
	e.rows = nil
	e.message = ""
	e.errMsg = ""
	e.mu.Unlock()

	rows, err := e.api.AttendanceForDate(ctx, date)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return ErrStale
	}
	if err != nil {
		e.state = LoadError
		e.errMsg = MsgLoadFailed
		e.opts.Log.Warn("roster load failed", zap.String("date", date), zap.Error(err))
		return fmt.Errorf("load roster for %s: %w", date, err)
	}
	e.rows = append([]backend.StudentAttendanceRow(nil), rows...)
	e.state = Loaded
	return nil
}

// Seed installs a roster that was already fetched (for example one carried
// in a submitted form) without calling the backend.
func (e *Editor) Seed(date string, rows []backend.StudentAttendanceRow) error {
	if err := e.ValidateDate(date); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.state = Loaded
	e.date = date
	e.rows = append([]backend.StudentAttendanceRow(nil), rows...)
	e.message = ""
	e.errMsg = ""
	return nil
}

// Toggle marks one student present or absent. Other rows are untouched.
func (e *Editor) Toggle(studentID string, present bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.hasRoster() {
		return ErrNotLoaded
	}
	for i := range e.rows {
		if e.rows[i].StudentID == studentID {
			e.rows[i].DailyAttendance = present
			e.state = Loaded
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownStudent, studentID)
}

// Records builds one submission record per roster row.
func (e *Editor) Records() []backend.AttendanceRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recordsLocked()
}

func (e *Editor) recordsLocked() []backend.AttendanceRecord {
	out := make([]backend.AttendanceRecord, 0, len(e.rows))
	for _, r := range e.rows {
		status := backend.StatusAbsent
		if r.DailyAttendance {
			status = backend.StatusPresent
		}
		out = append(out, backend.AttendanceRecord{StudentID: r.StudentID, Date: e.date, Status: status})
	}
	return out
}

// Submit sends the whole roster as one batch. On failure the marks are kept
// so the same submission can be retried.
func (e *Editor) Submit(ctx context.Context) error {
	e.mu.Lock()
	if e.state == Saving {
		e.mu.Unlock()
		return ErrBusy
	}
	if !e.state.hasRoster() {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	records := e.recordsLocked()
	gen := e.gen
	date := e.date
	e.state = Saving
	e.message = ""
	e.errMsg = ""
	e.mu.Unlock()

	_, err := e.api.SubmitAttendance(ctx, records)

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		e.state = SaveError
		e.errMsg = MsgSaveFailed
		e.mu.Unlock()
		e.opts.Log.Warn("attendance save failed", zap.String("date", date), zap.Int("records", len(records)), zap.Error(err))
		return fmt.Errorf("save attendance for %s: %w", date, err)
	}
	e.state = SaveOk
	e.message = MsgSaved
	e.mu.Unlock()

	e.opts.Log.Info("attendance saved", zap.String("date", date), zap.Int("records", len(records)))
	if e.opts.AfterFunc != nil {
		e.opts.AfterFunc(ReloadDelay, func() {
			if err := e.reloadAfterSave(context.Background(), gen); err != nil && !errors.Is(err, ErrStale) {
				e.opts.Log.Warn("reload after save failed", zap.Error(err))
			}
		})
	}
	return nil
}

// Refresh re-fetches the current date to pick up recomputed percentages and clears the save banner.
func (e *Editor) Refresh(ctx context.Context) error {
	e.mu.Lock()
	date := e.date
	e.mu.Unlock()
	if date == "" {
		return ErrNotLoaded
	}
	return e.load(ctx, date)
}

// reloadAfterSave refreshes only if nothing newer happened since the save.
func (e *Editor) reloadAfterSave(ctx context.Context, gen uint64) error {
	e.mu.Lock()
	current := e.gen
	e.mu.Unlock()
	if current != gen {
		return ErrStale
	}
	return e.Refresh(ctx)
}

// View returns a copy of the current state.
func (e *Editor) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return View{
		State:   e.state,
		Date:    e.date,
		Rows:    append([]backend.StudentAttendanceRow(nil), e.rows...),
		Message: e.message,
		Error:   e.errMsg,
	}
}
