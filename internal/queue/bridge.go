package queue

import (
	"context"

	"go.uber.org/zap"

	"attendanceweb/internal/backend"
)

// Marker records an externally detected attendance.
type Marker interface {
	MarkExternal(ctx context.Context, studentID, status string) (*backend.Ack, error)
}

// Forward drains q into m until ctx is done or the queue closes. A failed
// mark is logged and the loop moves on. It returns how many marks succeeded.
func Forward(ctx context.Context, q Queue, m Marker, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}
	in, err := q.Consume(ctx)
	if err != nil {
		return 0, err
	}
	marked := 0
	for r := range in {
		ack, err := m.MarkExternal(ctx, r.StudentID, r.Status)
		if err != nil {
			log.Warn("mark attendance failed", zap.String("student_id", r.StudentID), zap.Error(err))
			continue
		}
		marked++
		log.Info("attendance marked", zap.String("student_id", r.StudentID), zap.String("message", ack.Message))
	}
	return marked, nil
}
