package wizard

import (
	"context"
	"sync"
	"time"

	"membership-signup/internal/common/errors"
	"membership-signup/internal/common/logger"
	"membership-signup/internal/common/metrics"

	"github.com/google/uuid"
)

// Registry holds the in-memory runs and evicts idle ones.
type Registry struct {
	deps Dependencies
	ttl  time.Duration
	log  logger.Logger

	mu   sync.RWMutex
	runs map[string]*Controller
}

func NewRegistry(deps Dependencies, ttl time.Duration) *Registry {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	return &Registry{
		deps: deps,
		ttl:  ttl,
		log:  deps.Logger,
		runs: make(map[string]*Controller),
	}
}

// Start creates a new run.
func (r *Registry) Start() *Controller {
	id := uuid.NewString()
	c := NewController(id, r.deps)

	r.mu.Lock()
	r.runs[id] = c
	n := len(r.runs)
	r.mu.Unlock()

	metrics.SignupRunsStarted.Inc()
	metrics.SignupRunsActive.Set(float64(n))
	r.log.Info("Signup run started", map[string]interface{}{"runId": id})
	return c
}

func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.RLock()
	c, ok := r.runs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NewRunNotFoundError(id)
	}
	return c, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runs)
}

// Sweep removes runs idle for longer than the TTL. Runs with an outstanding
// provider or store call are kept.
func (r *Registry) Sweep() int {
	cutoff := r.deps.Now().Add(-r.ttl)

	r.mu.Lock()
	var removed int
	for id, c := range r.runs {
		if c.LastActivity().Before(cutoff) && !c.Busy() {
			delete(r.runs, id)
			removed++
		}
	}
	n := len(r.runs)
	r.mu.Unlock()

	metrics.SignupRunsActive.Set(float64(n))
	if removed > 0 {
		r.log.Debug("Evicted idle signup runs", map[string]interface{}{
			"removed": removed,
			"active":  n,
		})
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
