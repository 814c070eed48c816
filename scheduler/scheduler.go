package scheduler

import (
	"context"
	"time"

	"github.com/sundayekpa25-ai/projectsandtasks/logging"
)

// OverdueCompleter is the sweep the scheduler drives, implemented by the
// project service.
type OverdueCompleter interface {
	CompleteOverdueProjects(ctx context.Context) (int, error)
}

// Scheduler runs the project auto-completion sweep on a single cancellable
// interval. The sweep's own status guard makes overlapping or repeated runs
// harmless, so no further coordination is needed here.
type Scheduler struct {
	completer OverdueCompleter
	interval  time.Duration
	cancel    context.CancelFunc
	done      chan struct{}
}

func New(completer OverdueCompleter, interval time.Duration) *Scheduler {
	return &Scheduler{
		completer: completer,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

// Start sweeps once immediately and then on every tick until Stop is called
// or the parent context ends.
func (s *Scheduler) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel

	go func() {
		defer close(s.done)

		s.sweep(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	logging.Logger.Infof("Event ID: SCHEDULER_STARTED, Description: Project auto-completion scheduler started with interval %s", s.interval)
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	completed, err := s.completer.CompleteOverdueProjects(ctx)
	if err != nil {
		logging.Logger.Errorf("Event ID: SCHEDULER_SWEEP_FAILED, Description: Auto-completion sweep failed: %v", err)
		return
	}
	if completed > 0 {
		logging.Logger.Infof("Event ID: SCHEDULER_SWEEP_DONE, Description: Auto-completed %d overdue projects", completed)
	}
}
