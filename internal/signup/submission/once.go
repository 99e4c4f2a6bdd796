package submission

import (
	"context"
	"sync"

	"membership-signup/internal/common/errors"
	"membership-signup/internal/common/logger"
	"membership-signup/internal/common/metrics"
	"membership-signup/internal/models"
	"membership-signup/internal/signup/asyncop"
)

type Persister interface {
	Persist(ctx context.Context, req Request) (*models.Membership, error)
}

// Outcome is the per-run submission state shown to the applicant.
type Outcome struct {
	State     string `json:"state"`
	Submitted bool   `json:"submitted"`
	ID        string `json:"id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Once guards the single store write of one wizard run. Calls that arrive
// while a write is in flight, or after one has finished, are dropped.
type Once struct {
	persister Persister
	logger    logger.Logger
	op        asyncop.Op

	mu     sync.Mutex
	stored *models.Membership
	err    error
}

func NewOnce(p Persister, log logger.Logger) *Once {
	return &Once{persister: p, logger: log}
}

// Submit persists req unless this run already attempted it. dropped is true
// when the call was ignored as a duplicate.
func (o *Once) Submit(ctx context.Context, req Request) (stored *models.Membership, dropped bool, err error) {
	tok, ok := o.begin()
	if !ok {
		metrics.Submissions.WithLabelValues("duplicate").Inc()
		o.logger.Warn("Duplicate submission dropped", map[string]interface{}{
			"paymentIntentId": req.PaymentIntentID,
			"state":           o.op.State().String(),
		})
		return nil, true, nil
	}

	stored, err = o.persister.Persist(ctx, req)

	o.mu.Lock()
	o.stored, o.err = stored, err
	o.mu.Unlock()
	if err != nil {
		tok.Fail()
		return nil, false, err
	}
	tok.Succeed()
	return stored, false, nil
}

// a failed write is final for the run
func (o *Once) begin() (asyncop.Token, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return asyncop.Token{}, false
	}
	return o.op.Begin()
}

func (o *Once) Outcome() Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := Outcome{State: o.op.State().String()}
	if o.stored != nil {
		out.Submitted = true
		out.ID = o.stored.ID
	}
	if o.err != nil {
		out.Error = errors.AsStandard(o.err).Message
	}
	return out
}

// InFlight reports whether a write is running.
func (o *Once) InFlight() bool {
	return o.op.State() == asyncop.InFlight
}
