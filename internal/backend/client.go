package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is matched by errors for 404 responses.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response from the attendance backend.
type APIError struct {
	Endpoint string
	Status   int
	Detail   string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend %s: status %d: %s", e.Endpoint, e.Status, e.Detail)
	}
	return fmt.Sprintf("backend %s: status %d", e.Endpoint, e.Status)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client calls the attendance backend. It never retries.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Log     *zap.Logger
}

// New creates a client for the API mounted under baseURL + "/api".
// A zero timeout leaves requests bounded only by their context.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL: baseURL + "/api",
		HTTP:    &http.Client{Timeout: timeout},
		Log:     logger,
	}
}

// Login checks teacher credentials.
func (c *Client) Login(ctx context.Context, teacherID, password string) (*LoginResult, error) {
	payload := map[string]string{"teacher_id": teacherID, "password": password}
	var out LoginResult
	if err := c.do(ctx, "login", http.MethodPost, "/login", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AttendanceForDate returns the full roster for a calendar date.
func (c *Client) AttendanceForDate(ctx context.Context, date string) ([]StudentAttendanceRow, error) {
	var out []StudentAttendanceRow
	if err := c.do(ctx, "attendance_get", http.MethodGet, "/attendance/"+url.PathEscape(date), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitAttendance writes a batch of records. Any non-2xx is a failure of the whole batch.
func (c *Client) SubmitAttendance(ctx context.Context, records []AttendanceRecord) (*Ack, error) {
	if records == nil {
		records = []AttendanceRecord{}
	}
	payload := struct {
		Records []AttendanceRecord `json:"attendance_records"`
	}{records}
	var out Ack
	if err := c.do(ctx, "attendance_submit", http.MethodPost, "/attendance", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StudentStatus looks up one student. A missing student yields an error matching ErrNotFound.
func (c *Client) StudentStatus(ctx context.Context, studentID string) (*StudentStatusReport, error) {
	var out StudentStatusReport
	if err := c.do(ctx, "student_status", http.MethodGet, "/student-status/"+url.PathEscape(studentID), nil, &out); err != nil {
		return nil, err
	}
	if out.AbsentDates == nil {
		out.AbsentDates = []string{}
	}
	if !out.Consistent() {
		c.Log.Warn("inconsistent monthly stats",
			zap.String("student_id", out.StudentID),
			zap.Int("present", out.MonthlyStats.Present),
			zap.Int("absent", out.MonthlyStats.Absent),
			zap.Int("total", out.MonthlyStats.Total))
	}
	return &out, nil
}

// MarkExternal records today's attendance for a student the way the face
// recognition system does (query parameters, no body).
func (c *Client) MarkExternal(ctx context.Context, studentID, status string) (*Ack, error) {
	if studentID == "" {
		return nil, fmt.Errorf("student id required")
	}
	if status == "" {
		status = StatusPresent
	}
	q := url.Values{}
	q.Set("student_id", studentID)
	q.Set("status", status)
	var out Ack
	if err := c.do(ctx, "external_mark", http.MethodPost, "/external/mark-attendance?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, payload, out any) (err error) {
	start := time.Now()
	defer func() { observe(endpoint, start, err) }()

	var body io.Reader
	if payload != nil {
		b, merr := json.Marshal(payload)
		if merr != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, merr)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Log.Warn("backend request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return fmt.Errorf("backend %s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{Endpoint: endpoint, Status: resp.StatusCode, Detail: detail(bodyBytes)}
		c.Log.Warn("backend error response",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", apiErr.Detail))
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// detail extracts a human readable "detail" string from an error body.
// Structured details (validation lists) are ignored.
func detail(body []byte) string {
	var out struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &out); err != nil || len(out.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(out.Detail, &s); err != nil {
		return ""
	}
	return s
}
