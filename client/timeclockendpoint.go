package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type GeoDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type ClockInDTO struct {
	JobID         int32     `json:"jobId"`
	ClockInAt     time.Time `json:"clockInAt"`
	Geo           *GeoDTO   `json:"geo,omitempty"`
	ClientEventID string    `json:"clientEventId"`
	DeviceID      string    `json:"deviceId,omitempty"`
	Origin        string    `json:"origin,omitempty"`
}

type ClockOutDTO struct {
	JobID         int32     `json:"jobId"`
	ClockOutAt    time.Time `json:"clockOutAt"`
	Geo           *GeoDTO   `json:"geo,omitempty"`
	ClientEventID string    `json:"clientEventId"`
	DeviceID      string    `json:"deviceId,omitempty"`
}

type EditEntryDTO struct {
	EditReason string     `json:"editReason"`
	ClockInAt  *time.Time `json:"clockInAt,omitempty"`
	ClockOutAt *time.Time `json:"clockOutAt,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	Force      bool       `json:"force,omitempty"`
}

type EntryResult struct {
	EntryID   string `json:"entryId"`
	Duplicate bool   `json:"duplicate"`
}

type EditResult struct {
	Ok                 bool `json:"ok"`
	HasOverlap         bool `json:"hasOverlap"`
	RequiresReapproval bool `json:"requiresReapproval"`
}

type ProbeResult struct {
	ProbeID int64 `json:"probeId"`
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type TimeClockEndpoint struct {
	transport *Transport
}

func (e *TimeClockEndpoint) ClockIn(ctx context.Context, dto *ClockInDTO) (*EntryResult, error) {
	resp, err := e.transport.Post(ctx, "/api/sitecrew/v1.0/time-entries/clock-in", dto, nil)
	if err != nil {
		return nil, err
	}
	return decode[EntryResult](resp)
}

func (e *TimeClockEndpoint) ClockOut(ctx context.Context, dto *ClockOutDTO) (*EntryResult, error) {
	resp, err := e.transport.Post(ctx, "/api/sitecrew/v1.0/time-entries/clock-out", dto, nil)
	if err != nil {
		return nil, err
	}
	return decode[EntryResult](resp)
}

func (e *TimeClockEndpoint) Edit(ctx context.Context, entryID string, dto *EditEntryDTO) (*EditResult, error) {
	resp, err := e.transport.Put(ctx, fmt.Sprintf("/api/sitecrew/v1.0/time-entries/%s", entryID), dto)
	if err != nil {
		return nil, err
	}
	return decode[EditResult](resp)
}

// Probe reports the device's outbound queue depth after a drain.
func (e *TimeClockEndpoint) Probe(ctx context.Context, queueDepth int32) (*ProbeResult, error) {
	resp, err := e.transport.Post(ctx, "/api/sitecrew/v1.0/sync/probe",
		map[string]any{"queueDepth": queueDepth}, nil)
	if err != nil {
		return nil, err
	}
	return decode[ProbeResult](resp)
}

func decode[T any](resp *Response) (*T, error) {
	var env envelope
	if err := json.Unmarshal(resp.Data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	var result T
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response data: %w", err)
	}
	return &result, nil
}
