package core

import "time"

// Record is a cloud accounting record produced by an extractor.
// The run orchestrator passes records through to messengers untouched.
type Record struct {
	UUID      string     `json:"uuid"`
	SiteName  string     `json:"site_name"`
	Name      string     `json:"name,omitempty"`
	UserID    string     `json:"user_id,omitempty"`
	GroupID   string     `json:"group_id,omitempty"`
	FQAN      string     `json:"fqan,omitempty"`
	Status    string     `json:"status,omitempty"`
	CloudType string     `json:"cloud_type,omitempty"`
	ImageID   string     `json:"image_id,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	WallDuration int64 `json:"wall_duration"` // seconds
	CPUDuration  int64 `json:"cpu_duration"`  // seconds
	CPUCount     int   `json:"cpu_count"`
	Memory       int64 `json:"memory"` // MB
	Disk         int64 `json:"disk"`   // GB

	BenchmarkType  string  `json:"benchmark_type,omitempty"`
	BenchmarkValue float64 `json:"benchmark_value,omitempty"`
}
