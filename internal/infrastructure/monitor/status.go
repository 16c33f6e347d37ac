package monitor

import "time"

// Status is the last observed health of the storage backend.
type Status struct {
	Driver    string    `json:"driver"`
	Storage   bool      `json:"storage"`
	Keys      int       `json:"keys,omitempty"`
	Error     string    `json:"error,omitempty"`
	LastCheck time.Time `json:"lastCheck"`
}
