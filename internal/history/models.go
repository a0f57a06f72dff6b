package history

import (
	"fmt"
	"strings"
	"time"
)

// Status records how an optimization run ended.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

var allStatuses = []Status{
	StatusCompleted,
	StatusFailed,
	StatusSkipped,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus maps a user-supplied status string onto a known Status.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := statusSet[status]; !ok {
		return "", fmt.Errorf("unknown status %q", value)
	}
	return status, nil
}

// Record is one optimization run persisted in SQLite.
type Record struct {
	ID           int64
	SessionID    string
	SourcePath   string
	OutputPath   string
	Status       Status
	BytesIn      int64
	BytesOut     int64
	Grayscale    bool
	DurationMS   int64
	ErrorMessage string
	CreatedAt    time.Time
}

// SavedPercent reports the size reduction achieved by the run. Runs with no
// recorded input size report zero.
func (r *Record) SavedPercent() float64 {
	if r == nil || r.BytesIn <= 0 {
		return 0
	}
	return 100 * (1 - float64(r.BytesOut)/float64(r.BytesIn))
}
