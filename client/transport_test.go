package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestTransport(url string) (*Transport, *[]time.Duration) {
	t := NewTransport(url, "test-token")
	var delays []time.Duration
	t.Sleep = func(d time.Duration) {
		delays = append(delays, d)
	}
	return t, &delays
}

func TestPostRetriesTransientFailure(t *testing.T) {
	attempts := 0
	var correlationIDs []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		correlationIDs = append(correlationIDs, r.Header.Get("X-Correlation-Id"))
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data":{"entryId":"abc"}}`))
	}))
	defer server.Close()

	transport, delays := newTestTransport(server.URL)
	resp, err := transport.Post(context.Background(), "/clock-in", map[string]string{"x": "y"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Len(t, *delays, 2)

	// Every attempt of one logical request shares a correlation id, and
	// the caller gets it back.
	assert.Equal(t, correlationIDs[0], correlationIDs[1])
	assert.Equal(t, correlationIDs[0], correlationIDs[2])
	assert.Equal(t, correlationIDs[0], resp.CorrelationID)
}

func TestPostDoesNotRetryClientError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"invalid-argument","message":"jobId is required"}`))
	}))
	defer server.Close()

	transport, delays := newTestTransport(server.URL)
	_, err := transport.Post(context.Background(), "/clock-in", nil, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, *delays)

	apiErr, ok := err.(*ApiError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid-argument", apiErr.Code)
	assert.Equal(t, "jobId is required", apiErr.Message)
	assert.False(t, apiErr.Retryable())
}

func TestPostGivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	transport, _ := newTestTransport(server.URL)
	_, err := transport.Post(context.Background(), "/clock-in", nil, nil)
	assert.Error(t, err)
	assert.Equal(t, maxRetries+1, attempts)
}

func TestRetryableClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"bad request", http.StatusBadRequest, false},
		{"unauthorized", http.StatusUnauthorized, false},
		{"precondition failed", http.StatusPreconditionFailed, false},
		{"too many requests", http.StatusTooManyRequests, true},
		{"internal error", http.StatusInternalServerError, true},
		{"not implemented", http.StatusNotImplemented, false},
		{"bad gateway", http.StatusBadGateway, true},
		{"unavailable", http.StatusServiceUnavailable, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := &ApiError{Status: test.status}
			assert.Equal(t, test.retryable, err.Retryable())
		})
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	for i := 0; i < 20; i++ {
		first := backoffDelay(0)
		assert.GreaterOrEqual(t, first, 900*time.Millisecond)
		assert.LessOrEqual(t, first, 1100*time.Millisecond)

		second := backoffDelay(1)
		assert.GreaterOrEqual(t, second, 1800*time.Millisecond)
		assert.LessOrEqual(t, second, 2200*time.Millisecond)

		capped := backoffDelay(10)
		assert.LessOrEqual(t, capped, 11*time.Second)
	}
}

func TestAuthAndContentHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Correlation-Id"))
		w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	transport, _ := newTestTransport(server.URL)
	_, err := transport.Post(context.Background(), "/anything", nil, nil)
	assert.NoError(t, err)
}

func TestCorrelationIDEmbeddedInPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, r.Header.Get("X-Correlation-Id"), payload["correlationId"])
		assert.Equal(t, "evt-1", payload["clientEventId"])
		w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	transport, _ := newTestTransport(server.URL)
	_, err := transport.Post(context.Background(), "/clock-in",
		map[string]string{"clientEventId": "evt-1"}, nil)
	assert.NoError(t, err)
}
