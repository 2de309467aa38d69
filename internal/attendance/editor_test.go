package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"attendanceweb/internal/backend"
)

type fakeAPI struct {
	mu        sync.Mutex
	rosters   map[string][]backend.StudentAttendanceRow
	loadErr   error
	submitErr error
	loads     []string
	submitted [][]backend.AttendanceRecord
	// block, when set for a date, holds the roster response until closed.
	block map[string]chan struct{}
}

func (f *fakeAPI) AttendanceForDate(ctx context.Context, date string) ([]backend.StudentAttendanceRow, error) {
	f.mu.Lock()
	f.loads = append(f.loads, date)
	ch := f.block[date]
	f.mu.Unlock()
	if ch != nil {
		<-ch
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append([]backend.StudentAttendanceRow(nil), f.rosters[date]...), nil
}

func (f *fakeAPI) SubmitAttendance(ctx context.Context, records []backend.AttendanceRecord) (*backend.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, records)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &backend.Ack{Success: true}, nil
}

func (f *fakeAPI) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loads)
}

var fixedNow = func() time.Time { return time.Date(2024, time.January, 20, 10, 0, 0, 0, time.UTC) }

func roster() []backend.StudentAttendanceRow {
	return []backend.StudentAttendanceRow{
		{StudentID: "STU001", Name: "Karandeep Singh", ImagePath: "/karandeep.jpeg", DailyAttendance: false, MonthlyPercentage: 90, OverallPercentage: 86.7},
		{StudentID: "STU002", Name: "Priya Kaur", ImagePath: "/images/student2.jpg", DailyAttendance: true, MonthlyPercentage: 75, OverallPercentage: 74.9},
		{StudentID: "STU003", Name: "Rajesh Kumar", ImagePath: "/images/student3.jpg", DailyAttendance: false, MonthlyPercentage: 60, OverallPercentage: 61},
	}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{rosters: map[string][]backend.StudentAttendanceRow{
		"2024-01-10": roster(),
		"2024-01-11": roster()[:1],
	}}
}

func TestSelectLoadsRoster(t *testing.T) {
	api := newFakeAPI()
	e := NewEditor(api, Options{Now: fixedNow})
	assert.Equal(t, Idle, e.View().State)

	assert.NoError(t, e.Select(context.Background(), "2024-01-10"))
	v := e.View()
	assert.Equal(t, Loaded, v.State)
	assert.Equal(t, "2024-01-10", v.Date)
	assert.Len(t, v.Rows, 3)
}

func TestSelectRejectsBadDates(t *testing.T) {
	api := newFakeAPI()
	e := NewEditor(api, Options{Now: fixedNow})

	assert.ErrorIs(t, e.Select(context.Background(), "2024-01-21"), ErrFutureDate)
	assert.ErrorIs(t, e.Select(context.Background(), "10/01/2024"), ErrInvalidDate)
	assert.NoError(t, e.Select(context.Background(), "2024-01-20"))
	assert.Equal(t, []string{"2024-01-20"}, api.loads)
}

func TestSelectLoadError(t *testing.T) {
	api := newFakeAPI()
	api.loadErr = errors.New("boom")
	e := NewEditor(api, Options{Now: fixedNow})

	assert.Error(t, e.Select(context.Background(), "2024-01-10"))
	v := e.View()
	assert.Equal(t, LoadError, v.State)
	assert.Equal(t, MsgLoadFailed, v.Error)
	assert.ErrorIs(t, e.Submit(context.Background()), ErrNotLoaded)
}

func TestToggleMutatesOnlyThatRow(t *testing.T) {
	e := NewEditor(newFakeAPI(), Options{Now: fixedNow})
	assert.NoError(t, e.Select(context.Background(), "2024-01-10"))
	before := e.View().Rows

	assert.NoError(t, e.Toggle("STU001", true))

	after := e.View().Rows
	assert.True(t, after[0].DailyAttendance)
	after[0].DailyAttendance = before[0].DailyAttendance
	assert.Equal(t, before, after)

	assert.ErrorIs(t, e.Toggle("STU999", true), ErrUnknownStudent)
}

func TestSelectDiscardsUnsavedToggles(t *testing.T) {
	e := NewEditor(newFakeAPI(), Options{Now: fixedNow})
	assert.NoError(t, e.Select(context.Background(), "2024-01-10"))
	assert.NoError(t, e.Toggle("STU001", true))

	assert.NoError(t, e.Select(context.Background(), "2024-01-11"))
	assert.NoError(t, e.Select(context.Background(), "2024-01-10"))
	assert.False(t, e.View().Rows[0].DailyAttendance)
}

func TestRecordsOnePerRow(t *testing.T) {
	e := NewEditor(newFakeAPI(), Options{Now: fixedNow})
	assert.NoError(t, e.Select(context.Background(), "2024-01-10"))
	assert.NoError(t, e.Toggle("STU001", true))
	assert.NoError(t, e.Toggle("STU002", false))

	assert.Equal(t, []backend.AttendanceRecord{
		{StudentID: "STU001", Date: "2024-01-10", Status: "present"},
		{StudentID: "STU002", Date: "2024-01-10", Status: "absent"},
		{StudentID: "STU003", Date: "2024-01-10", Status: "absent"},
	}, e.Records())
}

func TestSubmitSuccessThenReload(t *testing.T) {
	api := &fakeAPI{rosters: map[string][]backend.StudentAttendanceRow{
		"2024-01-10": {{StudentID: "STU001", Name: "Karandeep Singh", MonthlyPercentage: 80}},
	}}
	var (
		delay    time.Duration
		reloadFn func()
	)
	e := NewEditor(api, Options{Now: fixedNow, AfterFunc: func(d time.Duration, f func()) {
		delay, reloadFn = d, f
	}})
	assert.NoError(t, e.Select(context.Background(), "2024-01-10"))
	assert.NoError(t, e.Toggle("STU001", true))

	assert.NoError(t, e.Submit(context.Background()))
	assert.Equal(t, [][]backend.AttendanceRecord{{{StudentID: "STU001", Date: "2024-01-10", Status: "present"}}}, api.submitted)
	v := e.View()
	assert.Equal(t, SaveOk, v.State)
	assert.Equal(t, MsgSaved, v.Message)
	assert.Equal(t, ReloadDelay, delay)
	assert.Equal(t, 1, api.loadCount())

	// backend recomputed the percentage
	api.mu.Lock()
	api.rosters["2024-01-10"] = []backend.StudentAttendanceRow{{StudentID: "STU001", Name: "Karandeep Singh", DailyAttendance: true, MonthlyPercentage: 81.2}}
	api.mu.Unlock()

	if assert.NotNil(t, reloadFn) {
		reloadFn()
	}
	v = e.View()
	assert.Equal(t, 2, api.loadCount())
	assert.Equal(t, Loaded, v.State)
	assert.Empty(t, v.Message)
	assert.Equal(t, 81.2, v.Rows[0].MonthlyPercentage)
}

func TestReloadAfterSaveSkippedWhenDateChanged(t *testing.T) {
	api := newFakeAPI()
	var reloadFn func()
	e := NewEditor(api, Options{Now: fixedNow, AfterFunc: func(_ time.Duration, f func()) { reloadFn = f }})
	assert.NoError(t, e.Select(context.Background(), "2024-01-10"))
	assert.NoError(t, e.Submit(context.Background()))
	assert.NoError(t, e.Select(context.Background(), "2024-01-11"))

	reloadFn()
	assert.Equal(t, []string{"2024-01-10", "2024-01-11"}, api.loads)
	assert.Equal(t, "2024-01-11", e.View().Date)
}

func TestSubmitFailureKeepsEdits(t *testing.T) {
	api := newFakeAPI()
	api.submitErr = errors.New("500")
	e := NewEditor(api, Options{Now: fixedNow})
	assert.NoError(t, e.Select(context.Background(), "2024-01-10"))
	assert.NoError(t, e.Toggle("STU003", true))

	assert.Error(t, e.Submit(context.Background()))
	v := e.View()
	assert.Equal(t, SaveError, v.State)
	assert.Equal(t, MsgSaveFailed, v.Error)
	assert.True(t, v.Rows[2].DailyAttendance)

	// retry sends the same batch
	api.submitErr = nil
	assert.NoError(t, e.Submit(context.Background()))
	assert.Equal(t, api.submitted[0], api.submitted[1])
}

func TestSeed(t *testing.T) {
	api := newFakeAPI()
	e := NewEditor(api, Options{Now: fixedNow})

	assert.NoError(t, e.Seed("2024-01-10", roster()))
	assert.Equal(t, Loaded, e.View().State)
	assert.Empty(t, api.loads)
	assert.ErrorIs(t, e.Seed("2030-01-01", roster()), ErrFutureDate)
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	api := newFakeAPI()
	release := make(chan struct{})
	api.block = map[string]chan struct{}{"2024-01-10": release}
	e := NewEditor(api, Options{Now: fixedNow})

	done := make(chan error, 1)
	go func() { done <- e.Select(context.Background(), "2024-01-10") }()

	// wait until the first request is in flight
	assert.Eventually(t, func() bool { return api.loadCount() == 1 }, time.Second, time.Millisecond)

	assert.NoError(t, e.Select(context.Background(), "2024-01-11"))
	close(release)
	assert.ErrorIs(t, <-done, ErrStale)

	v := e.View()
	assert.Equal(t, "2024-01-11", v.Date)
	assert.Len(t, v.Rows, 1)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "save_ok", SaveOk.String())
	assert.Equal(t, "state(42)", State(42).String())
}
