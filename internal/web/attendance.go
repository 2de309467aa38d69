package web

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"attendanceweb/internal/attendance"
	"attendanceweb/internal/backend"
)

var errRosterForm = errors.New("roster form fields do not line up")

// ---------- Manual attendance ----------

func (h *Handler) editor() *attendance.Editor {
	return attendance.NewEditor(h.backend, attendance.Options{Now: h.now, Log: h.log})
}

// ManualAttendance shows the roster for ?date=, defaulting to today.
// Malformed or future dates fall back to today.
func (h *Handler) ManualAttendance(c *gin.Context) {
	ed := h.editor()
	date := c.Query("date")
	if ed.ValidateDate(date) != nil {
		date = ed.Today()
	}

	code := http.StatusOK
	if err := ed.Select(c.Request.Context(), date); err != nil {
		code = http.StatusBadGateway
	}
	h.attendancePage(c, code, ed, "")
}

// SaveAttendance submits the roster carried in the form. The form repeats the
// row data in hidden fields so the page can be re-rendered without a backend
// round trip when the save fails.
func (h *Handler) SaveAttendance(c *gin.Context) {
	ed := h.editor()
	date := c.PostForm("date")
	rows, err := rosterFromForm(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	if err := ed.Seed(date, rows); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	present := make(map[string]bool)
	for _, id := range c.PostFormArray("present") {
		present[id] = true
	}
	for _, r := range rows {
		if err := ed.Toggle(r.StudentID, present[r.StudentID]); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := ed.Submit(c.Request.Context()); err != nil {
		h.attendancePage(c, http.StatusBadGateway, ed, "")
		return
	}
	// the roster is re-fetched after the confirmation has been on screen
	refresh := fmt.Sprintf(`content="%d;url=/manual-attendance?date=%s"`,
		int(attendance.ReloadDelay.Seconds()), url.QueryEscape(date))
	h.attendancePage(c, http.StatusOK, ed, template.HTMLAttr(refresh))
}

func (h *Handler) attendancePage(c *gin.Context, code int, ed *attendance.Editor, refresh template.HTMLAttr) {
	v := ed.View()
	data := gin.H{
		"View":    v,
		"MaxDate": ed.Today(),
		"Bands":   []attendance.Band{attendance.BandExcellent, attendance.BandGood, attendance.BandNeedsAttention},
	}
	if refresh != "" {
		data["Refresh"] = refresh
	}
	h.page(c, code, "manual_attendance", data)
}

func rosterFromForm(c *gin.Context) ([]backend.StudentAttendanceRow, error) {
	ids := c.PostFormArray("student_id")
	names := c.PostFormArray("name")
	images := c.PostFormArray("image_path")
	classes := c.PostFormArray("class_name")
	monthly := c.PostFormArray("monthly")
	overall := c.PostFormArray("overall")
	n := len(ids)
	if len(names) != n || len(images) != n || len(classes) != n || len(monthly) != n || len(overall) != n {
		return nil, errRosterForm
	}

	rows := make([]backend.StudentAttendanceRow, 0, n)
	for i := range ids {
		m, err := strconv.ParseFloat(monthly[i], 64)
		if err != nil {
			return nil, fmt.Errorf("monthly percentage for %s: %w", ids[i], err)
		}
		o, err := strconv.ParseFloat(overall[i], 64)
		if err != nil {
			return nil, fmt.Errorf("overall percentage for %s: %w", ids[i], err)
		}
		rows = append(rows, backend.StudentAttendanceRow{
			StudentID:         ids[i],
			Name:              names[i],
			ImagePath:         images[i],
			ClassName:         classes[i],
			MonthlyPercentage: m,
			OverallPercentage: o,
		})
	}
	return rows, nil
}
