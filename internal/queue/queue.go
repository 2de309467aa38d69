package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Recognition is one face-recognition hit published by a camera system.
type Recognition struct {
	StudentID string `json:"student_id"`
	// Status defaults to present when empty.
	Status string `json:"status,omitempty"`
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, r Recognition) error
	Consume(ctx context.Context) (<-chan Recognition, error)
}

// InMemory is a minimal channel-backed queue for dev/testing.
type InMemory struct {
	ch chan Recognition
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Recognition, size)}
}

// Publish enqueues a recognition, blocking while the buffer is full.
func (q *InMemory) Publish(ctx context.Context, r Recognition) error {
	select {
	case q.ch <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel that is closed when ctx is done.
func (q *InMemory) Consume(ctx context.Context) (<-chan Recognition, error) {
	out := make(chan Recognition)
	go func() {
		defer close(out)
		for {
			select {
			case r := <-q.ch:
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue is a Redis list used with LPUSH/BRPOP. Entries are JSON encoded
// so any producer can publish with a plain LPUSH.
type RedisQueue struct {
	client *redis.Client
	key    string
	log    *zap.Logger
}

// NewRedisQueue builds a queue on the given list key.
func NewRedisQueue(client *redis.Client, key string, logger *zap.Logger) *RedisQueue {
	if key == "" {
		key = "attendance:recognitions"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisQueue{client: client, key: key, log: logger}
}

// Publish enqueues a recognition.
func (q *RedisQueue) Publish(ctx context.Context, r Recognition) error {
	raw, err := encode(r)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, raw).Err()
}

// Consume streams recognitions using BRPOP. Malformed entries are logged and dropped.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Recognition, error) {
	out := make(chan Recognition)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if !errors.Is(err, redis.Nil) {
					q.log.Warn("queue pop failed", zap.String("key", q.key), zap.Error(err))
					time.Sleep(time.Second)
				}
				continue
			}
			if len(res) != 2 {
				continue
			}
			r, err := decode(res[1])
			if err != nil {
				q.log.Warn("dropping malformed recognition", zap.String("raw", res[1]), zap.Error(err))
				continue
			}
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func encode(r Recognition) (string, error) {
	if r.StudentID == "" {
		return "", errors.New("recognition without student id")
	}
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode recognition: %w", err)
	}
	return string(b), nil
}

func decode(s string) (Recognition, error) {
	var r Recognition
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return Recognition{}, fmt.Errorf("decode recognition: %w", err)
	}
	if r.StudentID == "" {
		return Recognition{}, errors.New("recognition without student id")
	}
	return r, nil
}
