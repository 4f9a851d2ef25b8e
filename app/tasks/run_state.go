package tasks

import (
	"log/slog"
	"time"
)

// RunState is the mutable state shared by every feed of one run.
type RunState struct {
	ID        string
	StartedAt time.Time
	Logger    *slog.Logger

	attempted bool
}

func NewRunState(id string) *RunState {
	return &RunState{
		ID:        id,
		StartedAt: time.Now().UTC(),
		Logger:    slog.Default().With("run_id", id),
	}
}

// Attempted reports whether any message send has been tried in this run.
func (s *RunState) Attempted() bool {
	return s.attempted
}

func (s *RunState) MarkAttempted() {
	s.attempted = true
}
