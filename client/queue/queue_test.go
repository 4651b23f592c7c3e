package queue

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"sitecrew.com.au/sitecrew/client"
)

func newTestQueue(t *testing.T) *Queue {
	q, err := Open(filepath.Join(t.TempDir(), "queue.db"))
	assert.NoError(t, err)
	return q
}

func TestEnqueueSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queue.db")

	q, err := Open(path)
	assert.NoError(t, err)

	_, err = q.Enqueue(OpClockIn, "", map[string]any{"clientEventId": "evt-1", "jobId": 10})
	assert.NoError(t, err)

	reopened, err := Open(path)
	assert.NoError(t, err)
	pending, err := reopened.Pending()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestDrainProcessesInOrder(t *testing.T) {
	q := newTestQueue(t)
	for i := 1; i <= 3; i++ {
		_, err := q.Enqueue(OpClockIn, "", map[string]any{"clientEventId": fmt.Sprintf("evt-%d", i)})
		assert.NoError(t, err)
	}

	var seen []string
	stats, err := q.Drain(context.Background(), SenderFunc(func(ctx context.Context, item *Item) error {
		seen = append(seen, item.Payload)
		return nil
	}))
	assert.NoError(t, err)
	assert.Equal(t, 3, stats.Sent)
	assert.Len(t, seen, 3)
	assert.Contains(t, seen[0], "evt-1")
	assert.Contains(t, seen[2], "evt-3")

	pending, err := q.Pending()
	assert.NoError(t, err)
	assert.Equal(t, int64(0), pending)
}

func TestDrainStopsOnTransientFailure(t *testing.T) {
	q := newTestQueue(t)
	for i := 1; i <= 3; i++ {
		_, err := q.Enqueue(OpClockIn, "", map[string]any{"clientEventId": fmt.Sprintf("evt-%d", i)})
		assert.NoError(t, err)
	}

	calls := 0
	stats, err := q.Drain(context.Background(), SenderFunc(func(ctx context.Context, item *Item) error {
		calls++
		if calls == 2 {
			return &client.ApiError{Status: http.StatusServiceUnavailable, Message: "server unreachable"}
		}
		return nil
	}))
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, calls)

	// Item 2 and 3 are still pending: the drain stopped instead of
	// submitting item 3 out of order.
	pending, err := q.Pending()
	assert.NoError(t, err)
	assert.Equal(t, int64(2), pending)

	// Next drain resumes from item 2.
	var resumed []string
	stats, err = q.Drain(context.Background(), SenderFunc(func(ctx context.Context, item *Item) error {
		resumed = append(resumed, item.Payload)
		return nil
	}))
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.Sent)
	assert.Contains(t, resumed[0], "evt-2")
}

func TestDrainParksPermanentRejection(t *testing.T) {
	q := newTestQueue(t)
	bad, err := q.Enqueue(OpClockIn, "", map[string]any{"clientEventId": "evt-bad"})
	assert.NoError(t, err)
	_, err = q.Enqueue(OpClockIn, "", map[string]any{"clientEventId": "evt-good"})
	assert.NoError(t, err)

	stats, err := q.Drain(context.Background(), SenderFunc(func(ctx context.Context, item *Item) error {
		if item.ID == bad.ID {
			return &client.ApiError{Status: http.StatusBadRequest, Code: "invalid-argument", Message: "jobId is required"}
		}
		return nil
	}))
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 1, stats.Parked)

	dead, err := q.Dead()
	assert.NoError(t, err)
	assert.Len(t, dead, 1)
	assert.Contains(t, dead[0].LastError, "jobId is required")

	pending, err := q.Pending()
	assert.NoError(t, err)
	assert.Equal(t, int64(0), pending)
}

func TestDrainParksAfterMaxAttempts(t *testing.T) {
	q := newTestQueue(t)
	_, err := q.Enqueue(OpClockOut, "", map[string]any{"clientEventId": "evt-stuck"})
	assert.NoError(t, err)

	fail := SenderFunc(func(ctx context.Context, item *Item) error {
		return &client.ApiError{Status: http.StatusBadGateway, Message: "upstream down"}
	})
	for i := 0; i < MaxAttempts; i++ {
		_, err := q.Drain(context.Background(), fail)
		assert.NoError(t, err)
	}

	dead, err := q.Dead()
	assert.NoError(t, err)
	assert.Len(t, dead, 1)
	assert.Equal(t, MaxAttempts, dead[0].RetryCount)
}

func TestDrainSkipsInflightItems(t *testing.T) {
	q := newTestQueue(t)
	item, err := q.Enqueue(OpClockIn, "", map[string]any{"clientEventId": "evt-1"})
	assert.NoError(t, err)

	// Simulate a concurrent drain holding the item.
	assert.True(t, q.claim(item.ID))

	stats, err := q.Drain(context.Background(), SenderFunc(func(ctx context.Context, item *Item) error {
		t.Fatal("in-flight item must not be re-sent")
		return nil
	}))
	assert.NoError(t, err)
	assert.Equal(t, 0, stats.Sent)

	q.release(item.ID)
	stats, err = q.Drain(context.Background(), SenderFunc(func(ctx context.Context, item *Item) error {
		return nil
	}))
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
}
