package model

import "time"

// Health represents the health status of the console itself
type Health struct {
	Status    string            `json:"status"`
	Uptime    int64             `json:"uptime"`
	StartTime time.Time         `json:"start_time"`
	Checks    map[string]string `json:"checks"`
	Version   string            `json:"version"`
}

// HealthStatus represents possible health statuses
type HealthStatus string

const (
	// HealthStatusOK means every monitored upstream is online
	HealthStatusOK HealthStatus = "ok"

	// HealthStatusDegraded means the console runs but at least one upstream is offline
	HealthStatusDegraded HealthStatus = "degraded"
)
