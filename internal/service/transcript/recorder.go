// Package transcript persists the append-only audit trail of every interview turn.
package transcript

import (
	"context"
	"errors"

	"github.com/zhouzirui/trait-interview/backend/internal/model/interview"
)

// Recorder appends transcript records to a per-session target in call order.
type Recorder interface {
	// NewTarget allocates the transcript target for a freshly created session.
	NewTarget(sessionID, candidate string) string
	Append(ctx context.Context, target string, rec interview.Record) error
}

// Multi fans each append out to every recorder. The first recorder owns target naming.
type Multi []Recorder

// NewTarget delegates to the first recorder.
func (m Multi) NewTarget(sessionID, candidate string) string {
	if len(m) == 0 {
		return sessionID
	}
	return m[0].NewTarget(sessionID, candidate)
}

// Append writes to all recorders and joins their failures.
func (m Multi) Append(ctx context.Context, target string, rec interview.Record) error {
	var errs []error
	for _, r := range m {
		if err := r.Append(ctx, target, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
