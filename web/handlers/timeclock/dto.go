package timeclock

import "time"

type GeoDTO struct {
	Lat float64 `json:"lat" binding:"min=-90,max=90"`
	Lng float64 `json:"lng" binding:"min=-180,max=180"`
}

type ClockInDTO struct {
	JobID         int32     `json:"jobId" binding:"required"`
	ClockInAt     time.Time `json:"clockInAt" binding:"required"`
	Geo           *GeoDTO   `json:"geo"`
	ClientEventID string    `json:"clientEventId" binding:"required,max=64"`
	DeviceID      string    `json:"deviceId" binding:"max=64"`
	Origin        string    `json:"origin" binding:"omitempty,oneof=online offline"`
}

type ClockOutDTO struct {
	JobID         int32     `json:"jobId" binding:"required"`
	ClockOutAt    time.Time `json:"clockOutAt" binding:"required"`
	Geo           *GeoDTO   `json:"geo"`
	ClientEventID string    `json:"clientEventId" binding:"required,max=64"`
	DeviceID      string    `json:"deviceId" binding:"max=64"`
}

type EditEntryDTO struct {
	EditReason string     `json:"editReason" binding:"required,min=3,max=500"`
	ClockInAt  *time.Time `json:"clockInAt"`
	ClockOutAt *time.Time `json:"clockOutAt"`
	Notes      *string    `json:"notes"`
	Force      bool       `json:"force"`
}

type ProbeDTO struct {
	QueueDepth int32 `json:"queueDepth" binding:"min=0"`
}

type CleanupDTO struct {
	// DryRun defaults to true; a destructive run must ask for it.
	DryRun      *bool    `json:"dryRun"`
	Collections []string `json:"collections"`
}
