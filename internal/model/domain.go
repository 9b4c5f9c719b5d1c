package model

import (
	"time"

	"github.com/google/uuid"
)

// CallRecord is one upstream call as seen by the client, after retries.
// Params never contain the service key.
type CallRecord struct {
	ID         uuid.UUID         `json:"id"`
	Endpoint   string            `json:"endpoint"`
	Method     string            `json:"method"`
	URL        string            `json:"url"`
	Params     map[string]string `json:"params,omitempty"`
	StatusCode int               `json:"status_code,omitempty"`
	Attempts   int               `json:"attempts"`
	DurationMs int64             `json:"duration_ms"`
	Cached     bool              `json:"cached"`
	Error      string            `json:"error,omitempty"`
	CalledAt   time.Time         `json:"called_at"`
}

// Succeeded reports whether the call produced a response.
func (r *CallRecord) Succeeded() bool {
	return r.Error == ""
}
