package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendanceweb/internal/status"
)

// ---------- Student status ----------

// StudentStatus searches when ?student_id= is present. A blank id shows the
// empty search form without calling the backend.
func (h *Handler) StudentStatus(c *gin.Context) {
	v := status.NewViewer(h.backend, h.log)
	id, searched := c.GetQuery("student_id")

	code := http.StatusOK
	if searched {
		if err := v.Search(c.Request.Context(), id); err != nil && !errors.Is(err, status.ErrBlankID) {
			code = http.StatusBadGateway
			if v.View().State == status.NotFound {
				code = http.StatusNotFound
			}
		}
	}

	view := v.View()
	data := gin.H{
		"View":     view,
		"Query":    id,
		"DemoIDs":  status.DemoStudentIDs,
		"Weekdays": status.Weekdays,
	}
	if view.Report != nil {
		data["Calendar"] = status.BuildCalendar(*view.Report, h.now(), h.calMode)
	}
	h.page(c, code, "student_status", data)
}
