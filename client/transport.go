package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTimeout = 30 * time.Second
	maxRetries     = 3
	baseBackoff    = 1 * time.Second
	maxBackoff     = 10 * time.Second
)

type Response struct {
	Data          []byte
	CorrelationID string
}

// ApiError is a server rejection. Transient statuses are retried by the
// transport before this surfaces; a non-retryable ApiError means the
// request itself is bad and replaying it will not help.
type ApiError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ApiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Retryable reports whether the status is transient. 501 is permanent
// even though it is a 5xx: the server will never learn the method.
func (e *ApiError) Retryable() bool {
	if e.Status == http.StatusTooManyRequests {
		return true
	}
	return e.Status >= 500 && e.Status != http.StatusNotImplemented
}

// Transport handles low-level HTTP, authentication and retry. Every
// request carries a fresh X-Correlation-Id so a retried attempt can be
// tied back to its siblings in the server logs.
type Transport struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
	// Sleep is injectable so retry schedules are testable.
	Sleep func(time.Duration)
}

func NewTransport(baseURL, token string) *Transport {
	return &Transport{
		BaseURL:    baseURL,
		AuthToken:  token,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		Sleep:      time.Sleep,
	}
}

func (t *Transport) buildURL(path string, query map[string]string) string {
	u, _ := url.Parse(t.BaseURL + path)
	q := u.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// backoffDelay is 1s doubling per attempt, capped at 10s, with 10%
// jitter so a fleet of clients recovering together does not stampede.
func backoffDelay(attempt int) time.Duration {
	delay := baseBackoff << attempt
	if delay > maxBackoff {
		delay = maxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(delay / 5)))
	return delay - delay/10 + jitter
}

// Post sends a POST request with a JSON body, retrying transient
// failures up to maxRetries times.
func (t *Transport) Post(ctx context.Context, path string, data any, query map[string]string) (*Response, error) {
	return t.send(ctx, http.MethodPost, path, data, query)
}

// Put sends a PUT request with the same retry policy as Post.
func (t *Transport) Put(ctx context.Context, path string, data any) (*Response, error) {
	return t.send(ctx, http.MethodPut, path, data, nil)
}

func (t *Transport) send(ctx context.Context, method, path string, data any, query map[string]string) (*Response, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	correlationID := uuid.NewString()
	fullURL := t.buildURL(path, query)

	// Object payloads also carry the correlation id inline, so a stored
	// operation can be tied to its request even without the header.
	var asMap map[string]any
	if json.Unmarshal(body, &asMap) == nil && asMap != nil {
		asMap["correlationId"] = correlationID
		if embedded, err := json.Marshal(asMap); err == nil {
			body = embedded
		}
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, err := t.doOnce(ctx, method, fullURL, body, correlationID)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		apiErr, ok := err.(*ApiError)
		if ok && !apiErr.Retryable() {
			return nil, err
		}
		if attempt >= maxRetries {
			return nil, fmt.Errorf("%s %s failed after %d attempts: %w", method, path, attempt+1, lastErr)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		t.Sleep(backoffDelay(attempt))
	}
}

func (t *Transport) doOnce(ctx context.Context, method, fullURL string, body []byte, correlationID string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, fullURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-Id", correlationID)
	if t.AuthToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", t.AuthToken))
	}

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		// Network failure or timeout counts as transient.
		return nil, &ApiError{Status: http.StatusServiceUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	resdata, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ApiError{Status: http.StatusServiceUnavailable, Message: err.Error()}
	}

	if resp.StatusCode >= 300 {
		apiErr := &ApiError{Status: resp.StatusCode, Message: string(resdata)}
		var parsed ApiError
		if json.Unmarshal(resdata, &parsed) == nil && parsed.Message != "" {
			apiErr.Code = parsed.Code
			apiErr.Message = parsed.Message
		}
		return nil, apiErr
	}

	return &Response{Data: resdata, CorrelationID: correlationID}, nil
}

// Get sends a GET request without retry.
func (t *Transport) Get(ctx context.Context, path string, query map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.buildURL(path, query), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("X-Correlation-Id", uuid.NewString())
	if t.AuthToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", t.AuthToken))
	}

	return t.HTTPClient.Do(req)
}
