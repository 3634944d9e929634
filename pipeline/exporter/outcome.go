package exporter

import "time"

// Status is the final state of one table export
type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// Outcome is the result of exporting one table. It is also the JSON
// document a worker process prints on stdout.
type Outcome struct {
	Table    string        `json:"table"`
	Status   Status        `json:"status"`
	Rows     int64         `json:"rows"`
	Target   string        `json:"target,omitempty"`
	Error    string        `json:"error,omitempty"`
	Code     string        `json:"code,omitempty"`
	Duration time.Duration `json:"duration"`
}

func (o Outcome) OK() bool {
	return o.Status == StatusOK
}
