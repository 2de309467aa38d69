package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"attendanceweb/internal/backend"
)

func TestEncodeDecode(t *testing.T) {
	raw, err := encode(Recognition{StudentID: "STU003", Status: "present"})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"student_id":"STU003","status":"present"}`, raw)

	r, err := decode(`{"student_id":"STU004"}`)
	assert.NoError(t, err)
	assert.Equal(t, Recognition{StudentID: "STU004"}, r)

	_, err = decode(`checkin|STU004`)
	assert.Error(t, err)
	_, err = decode(`{"status":"present"}`)
	assert.Error(t, err)
	_, err = encode(Recognition{})
	assert.Error(t, err)
}

func TestInMemoryStopsOnCancel(t *testing.T) {
	q := NewInMemory(4)
	ctx, cancel := context.WithCancel(context.Background())
	out, err := q.Consume(ctx)
	assert.NoError(t, err)

	assert.NoError(t, q.Publish(ctx, Recognition{StudentID: "STU001"}))
	assert.Equal(t, "STU001", (<-out).StudentID)

	cancel()
	_, open := <-out
	assert.False(t, open)
}

type fakeMarker struct {
	mu     sync.Mutex
	marked []string
}

func (f *fakeMarker) MarkExternal(_ context.Context, id, status string) (*backend.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == "STU404" {
		return nil, &backend.APIError{Endpoint: "external_mark", Status: 404}
	}
	f.marked = append(f.marked, id+":"+status)
	return &backend.Ack{Success: true, Message: "Attendance marked for " + id}, nil
}

func (f *fakeMarker) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.marked...)
}

func TestForward(t *testing.T) {
	q := NewInMemory(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for _, r := range []Recognition{{StudentID: "STU001"}, {StudentID: "STU404"}, {StudentID: "STU002", Status: "absent"}} {
		assert.NoError(t, q.Publish(ctx, r))
	}

	m := &fakeMarker{}
	done := make(chan int, 1)
	go func() {
		n, err := Forward(ctx, q, m, nil)
		assert.NoError(t, err)
		done <- n
	}()

	assert.Eventually(t, func() bool { return len(m.seen()) == 2 }, time.Second, time.Millisecond)
	cancel()
	assert.Equal(t, 2, <-done)
	assert.Equal(t, []string{"STU001:", "STU002:absent"}, m.seen())
}

type brokenQueue struct{}

func (brokenQueue) Publish(context.Context, Recognition) error { return nil }
func (brokenQueue) Consume(context.Context) (<-chan Recognition, error) {
	return nil, errors.New("no connection")
}

func TestForwardConsumeError(t *testing.T) {
	_, err := Forward(context.Background(), brokenQueue{}, &fakeMarker{}, nil)
	assert.Error(t, err)
}
