package backend

import "time"

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// Attendance statuses accepted by the backend.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// LoginResult is the body of a successful POST /login.
type LoginResult struct {
	Success   bool   `json:"success"`
	TeacherID string `json:"teacher_id"`
	Name      string `json:"name"`
	Token     string `json:"token,omitempty"`
}

// StudentAttendanceRow is one roster entry for a selected date.
type StudentAttendanceRow struct {
	StudentID         string  `json:"student_id"`
	Name              string  `json:"name"`
	ImagePath         string  `json:"image_path"`
	ClassName         string  `json:"class_name,omitempty"`
	DailyAttendance   bool    `json:"daily_attendance"`
	MonthlyPercentage float64 `json:"monthly_percentage"`
	OverallPercentage float64 `json:"overall_percentage"`
}

// AttendanceRecord is a single submission unit.
type AttendanceRecord struct {
	StudentID string `json:"student_id"`
	Date      string `json:"date"`
	Status    string `json:"status"`
}

// Ack is the acknowledgement returned by batch and external writes.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// MonthlyStats aggregates present/absent counts as computed by the backend.
type MonthlyStats struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Total   int `json:"total"`
}

// StudentStatusReport is the result of a single student lookup.
type StudentStatusReport struct {
	StudentID         string       `json:"student_id"`
	Name              string       `json:"name"`
	ImagePath         string       `json:"image_path"`
	OverallPercentage float64      `json:"overall_percentage"`
	MonthlyStats      MonthlyStats `json:"monthly_stats"`
	AbsentDates       []string     `json:"absent_dates"`
}

// Consistent reports whether present + absent adds up to total.
// The backend owns this invariant; the console only checks it.
func (r StudentStatusReport) Consistent() bool {
	return r.MonthlyStats.Present+r.MonthlyStats.Absent == r.MonthlyStats.Total
}

// ParseDate parses a wire date. Timestamps are accepted and truncated to their date part.
func ParseDate(s string) (time.Time, error) {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	return time.Parse(DateLayout, s)
}
