package pipeline

import (
	"context"
	"sync"
)

// Supervisor runs at most one live session at a time. Starting a session
// cancels the one in flight, which then returns ErrSuperseded without
// emitting further events or writing to the cache.
type Supervisor struct {
	orch *Orchestrator

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewSupervisor wraps an orchestrator.
func NewSupervisor(orch *Orchestrator) *Supervisor {
	return &Supervisor{orch: orch}
}

// Run starts a session for req, superseding any session still running.
func (s *Supervisor) Run(ctx context.Context, req Request, onProgress ProgressFunc) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.generation == gen {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	guarded := func(e Event) {
		if onProgress != nil && s.current(gen) {
			onProgress(e)
		}
	}

	res, err := s.orch.Run(ctx, req, guarded)
	if !s.current(gen) {
		sessionsTotal.WithLabelValues("superseded").Inc()
		return nil, ErrSuperseded
	}
	return res, err
}

// Cancel stops the running session, if any.
func (s *Supervisor) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
}

func (s *Supervisor) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen
}
