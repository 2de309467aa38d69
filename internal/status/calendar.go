package status

import (
	"strconv"
	"time"

	"attendanceweb/internal/backend"
)

// MatchMode selects how absent dates are matched against calendar days.
type MatchMode int

const (
	// MatchFullDate marks a day absent only when year, month and day all match.
	MatchFullDate MatchMode = iota
	// MatchDayOfMonth marks a day absent when any absent date shares its day
	// number, whatever the month. Kept for compatibility with older consoles.
	MatchDayOfMonth
)

// Weekdays are the calendar column headers, Sunday first.
var Weekdays = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Day is one cell of the calendar grid. A zero Day is a blank filler cell.
type Day struct {
	Day     int
	Absent  bool
	Present bool
	Today   bool
}

// Blank reports whether the cell precedes day 1.
func (d Day) Blank() bool { return d.Day == 0 }

// Calendar is the month grid shown under a student's statistics.
type Calendar struct {
	Title string
	Cells []Day
}

// Weeks splits the cells into rows of seven for rendering.
func (c Calendar) Weeks() [][]Day {
	var weeks [][]Day
	for i := 0; i < len(c.Cells); i += 7 {
		end := i + 7
		if end > len(c.Cells) {
			end = len(c.Cells)
		}
		weeks = append(weeks, c.Cells[i:end])
	}
	return weeks
}

// BuildCalendar lays out the month containing now. Days up to and including
// today that are not absent count as present; later days stay unmarked.
func BuildCalendar(report backend.StudentStatusReport, now time.Time, mode MatchMode) Calendar {
	year, month, today := now.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
	days := first.AddDate(0, 1, -1).Day()

	absent := absentSet(report.AbsentDates, mode)

	cal := Calendar{Title: first.Format("January 2006")}
	cal.Cells = make([]Day, int(first.Weekday()), int(first.Weekday())+days)
	for d := 1; d <= days; d++ {
		var key string
		if mode == MatchDayOfMonth {
			key = dayKey(d)
		} else {
			key = time.Date(year, month, d, 0, 0, 0, 0, time.UTC).Format(backend.DateLayout)
		}
		cell := Day{Day: d, Today: d == today}
		if absent[key] {
			cell.Absent = true
		} else if d <= today {
			cell.Present = true
		}
		cal.Cells = append(cal.Cells, cell)
	}
	return cal
}

func absentSet(dates []string, mode MatchMode) map[string]bool {
	set := make(map[string]bool, len(dates))
	for _, s := range dates {
		d, err := backend.ParseDate(s)
		if err != nil {
			continue
		}
		if mode == MatchDayOfMonth {
			set[dayKey(d.Day())] = true
		} else {
			set[d.Format(backend.DateLayout)] = true
		}
	}
	return set
}

func dayKey(d int) string { return strconv.Itoa(d) }
