package transcript

import (
	"context"
	"sync"

	"github.com/zhouzirui/trait-interview/backend/internal/model/interview"
)

// MemoryRecorder keeps records in process. Useful for tests and console rehearsals.
type MemoryRecorder struct {
	mu      sync.RWMutex
	entries map[string][]interview.Record
	// Err, when set, is returned from every Append after the record is dropped.
	Err error
}

// NewMemoryRecorder returns an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{entries: make(map[string][]interview.Record)}
}

// NewTarget uses the session id as target.
func (r *MemoryRecorder) NewTarget(sessionID, _ string) string {
	return sessionID
}

// Append stores rec unless Err is set.
func (r *MemoryRecorder) Append(_ context.Context, target string, rec interview.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.entries[target] = append(r.entries[target], rec)
	return nil
}

// Entries returns a copy of the records for target.
func (r *MemoryRecorder) Entries(target string) []interview.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]interview.Record(nil), r.entries[target]...)
}
