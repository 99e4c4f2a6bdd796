// Package wizard drives one membership application through its steps,
// gating each advance on the current step's fields and creating the payment
// intent on the way into the payment step.
package wizard

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"membership-signup/internal/common/errors"
	"membership-signup/internal/common/logger"
	"membership-signup/internal/common/metrics"
	"membership-signup/internal/signup/asyncop"
	"membership-signup/internal/signup/dateinput"
	"membership-signup/internal/signup/form"
	"membership-signup/internal/signup/payment"
	"membership-signup/internal/signup/submission"
)

type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// IntentCreator is satisfied by payment.Initiator.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amountDollars float64, metadata map[string]string, idempotencyKey string) (*payment.Intent, error)
	UpdateIntent(ctx context.Context, intentID string, amountDollars float64, metadata map[string]string) (*payment.Intent, error)
}

// Dependencies are shared by every run.
type Dependencies struct {
	Intents        IntentCreator
	Provider       payment.Provider
	Persister      submission.Persister
	Flow           payment.FlowConfig
	PublishableKey string
	Logger         logger.Logger
	Now            func() time.Time
}

// PaymentView is the payment part of a snapshot.
type PaymentView struct {
	PublishableKey  string             `json:"publishableKey,omitempty"`
	ClientSecret    string             `json:"clientSecret,omitempty"`
	PaymentIntentID string             `json:"paymentIntentId,omitempty"`
	AmountCents     int64              `json:"amountCents,omitempty"`
	IntentState     string             `json:"intentState"`
	Ready           bool               `json:"ready"`
	Flow            *payment.FlowState `json:"flow,omitempty"`
}

// Snapshot is an immutable copy of a run's state.
type Snapshot struct {
	RunID        string             `json:"runId"`
	Step         int                `json:"step"`
	StepTitle    string             `json:"stepTitle"`
	TotalSteps   int                `json:"totalSteps"`
	Direction    Direction          `json:"direction"`
	PriceCents   int64              `json:"priceCents"`
	Price        float64            `json:"price"`
	Record       form.Record        `json:"record"`
	PhoneDisplay string             `json:"phoneDisplay"`
	Levels       []form.LevelOption `json:"levels"`
	BirthDate    dateinput.Segments `json:"birthDate"`
	Errors       map[string]string  `json:"errors"`
	Frozen       bool               `json:"frozen"`
	Payment      PaymentView        `json:"payment"`
	Submission   submission.Outcome `json:"submission"`
	Error        string             `json:"error,omitempty"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// Observer is notified after every state change.
type Observer func(Snapshot)

type session struct {
	intent *payment.Intent
	flow   *payment.Flow
}

// Controller is one wizard run. All methods are safe for concurrent use;
// provider and store calls run outside the lock.
type Controller struct {
	id   string
	deps Dependencies

	mu        sync.Mutex
	record    form.Record
	step      int
	direction Direction
	price     int64
	errs      map[form.Field]string
	date      *dateinput.Widget
	intentOp  asyncop.Op
	session   *session
	once      *submission.Once
	frozen    bool
	lastError string
	gen       int
	touched   time.Time

	observers []observerEntry
	nextObsID int
}

type observerEntry struct {
	id int
	fn Observer
}

func NewController(id string, deps Dependencies) *Controller {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	c := &Controller{
		id:        id,
		deps:      deps,
		step:      StepPersonal,
		direction: Forward,
		errs:      map[form.Field]string{},
	}
	c.date = dateinput.New(c.onDateChange)
	c.once = submission.NewOnce(deps.Persister, deps.Logger)
	c.touched = deps.Now()
	return c
}

func (c *Controller) ID() string { return c.id }

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (c *Controller) Subscribe(fn Observer) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextObsID++
	id := c.nextObsID
	c.observers = append(c.observers, observerEntry{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, o := range c.observers {
			if o.id == id {
				c.observers = append(c.observers[:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// LastActivity is the time of the last state change.
func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touched
}

// Busy reports whether any external call of this run is outstanding.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busyLocked()
}

func (c *Controller) busyLocked() bool {
	if c.intentOp.State() == asyncop.InFlight || c.once.InFlight() {
		return true
	}
	if c.session != nil && c.session.flow.State().Processing {
		return true
	}
	// paid but the delayed store write has not finished yet
	return c.frozen && !c.once.Outcome().Submitted && c.once.Outcome().State == asyncop.Idle.String()
}

// SetField assigns one field.
func (c *Controller) SetField(field form.Field, value interface{}) error {
	return c.update(func() error {
		if c.frozen {
			return errors.NewRecordFrozenError()
		}
		return c.setFieldLocked(field, value)
	})
}

// SetFields assigns several fields. A membership status in the same batch is
// applied before the level so the level survives.
func (c *Controller) SetFields(values map[string]interface{}) error {
	return c.update(func() error {
		if c.frozen {
			return errors.NewRecordFrozenError()
		}
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			si, sj := names[i] == string(form.FieldMembershipStatus), names[j] == string(form.FieldMembershipStatus)
			if si != sj {
				return si
			}
			return names[i] < names[j]
		})

		bad := map[string]string{}
		for _, name := range names {
			if err := c.setFieldLocked(form.Field(name), values[name]); err != nil {
				for f, msg := range fieldMessages(err) {
					bad[f] = msg
				}
			}
		}
		if len(bad) > 0 {
			return errors.NewValidationError(bad)
		}
		return nil
	})
}

func (c *Controller) setFieldLocked(field form.Field, value interface{}) error {
	if owner := StepOf(field); owner != 0 && owner != c.step {
		return errors.NewValidationError(map[string]string{
			string(field): fmt.Sprintf("Can only be changed on step %d", owner),
		})
	}
	if err := c.record.Set(field, value); err != nil {
		return err
	}
	switch field {
	case form.FieldMembershipStatus:
		c.record.MembershipLevel = ""
		delete(c.errs, form.FieldMembershipLevel)
	case form.FieldBirthDate:
		c.date.SetValue(c.record.BirthDate)
	case form.FieldReferralSource:
		if _, shown := c.errs[form.FieldReferrerName]; shown {
			c.revalidateLocked(form.FieldReferrerName)
		}
	}
	c.price = form.PriceCents(c.record.MembershipLevel)
	c.revalidateLocked(field)
	return nil
}

// InputDate applies new text to one birth date segment.
func (c *Controller) InputDate(seg dateinput.Segment, text string) error {
	return c.update(func() error {
		if err := c.dateEditableLocked(); err != nil {
			return err
		}
		c.date.Input(seg, text)
		return nil
	})
}

// BackspaceDate handles the backspace key on one birth date segment.
func (c *Controller) BackspaceDate(seg dateinput.Segment) error {
	return c.update(func() error {
		if err := c.dateEditableLocked(); err != nil {
			return err
		}
		c.date.Backspace(seg)
		return nil
	})
}

func (c *Controller) dateEditableLocked() error {
	if c.frozen {
		return errors.NewRecordFrozenError()
	}
	if c.step != StepPersonal {
		return errors.NewValidationError(map[string]string{
			string(form.FieldBirthDate): fmt.Sprintf("Can only be changed on step %d", StepPersonal),
		})
	}
	return nil
}

func (c *Controller) onDateChange(d *time.Time) {
	c.record.BirthDate = d
	c.revalidateLocked(form.FieldBirthDate)
}

func (c *Controller) revalidateLocked(field form.Field) {
	res := form.ValidateAt(c.record, c.deps.Now(), field)
	if msg, bad := res.Errors[field]; bad {
		c.errs[field] = msg
		return
	}
	delete(c.errs, field)
}

// Next validates the current step and advances. Leaving the terms step with
// a price first waits for the payment intent. A run has at most one intent:
// after a level change the existing intent is repriced and keeps its client
// secret.
func (c *Controller) Next(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	from := c.step
	fields := StepAt(from).Fields

	res := form.ValidateAt(c.record, c.deps.Now(), fields...)
	for _, f := range fields {
		delete(c.errs, f)
	}
	if !res.Valid {
		for f, msg := range res.Errors {
			c.errs[f] = msg
			metrics.ValidationFailures.WithLabelValues(string(f)).Inc()
		}
		return c.commit(errors.NewValidationError(res.Messages()))
	}

	if from == StepTerms && c.price > 0 && !c.sessionCoversPriceLocked() {
		if c.intentOp.State() == asyncop.Done {
			c.intentOp.Reset()
		}
		tok, ok := c.intentOp.Begin()
		if !ok {
			return c.commit(errors.NewOperationInFlightError("payment intent"))
		}
		price := c.price
		meta := c.intentMetadataLocked()
		var existing *payment.Intent
		if c.session != nil {
			existing = c.session.intent
		}
		c.lastError = ""
		c.commit(nil)

		var (
			intent *payment.Intent
			err    error
		)
		if existing == nil {
			intent, err = c.deps.Intents.CreateIntent(context.WithoutCancel(ctx),
				form.DollarsFromCents(price), meta, fmt.Sprintf("signup-%s-%d", c.id, price))
		} else {
			intent, err = c.deps.Intents.UpdateIntent(context.WithoutCancel(ctx),
				existing.ID, form.DollarsFromCents(price), meta)
		}

		c.mu.Lock()
		if err != nil {
			tok.Fail()
			c.lastError = errors.AsStandard(err).Message
			c.deps.Logger.Warn("Payment intent not created, staying on terms step", map[string]interface{}{
				"runId": c.id,
				"error": err,
			})
			return c.commit(err)
		}
		tok.Succeed()
		c.attachSessionLocked(intent)
		if c.step != StepTerms {
			return c.commit(nil)
		}
	}

	if from < LastStep {
		c.step = from + 1
		c.direction = Forward
		c.lastError = ""
		metrics.StepTransitions.WithLabelValues(strconv.Itoa(from), string(Forward)).Inc()
	}
	return c.commit(nil)
}

// Back moves one step back without validation. An in-flight intent request
// is left running.
func (c *Controller) Back() Snapshot {
	c.mu.Lock()
	from := c.step
	c.step = clamp(from - 1)
	c.direction = Backward
	if c.step != from {
		metrics.StepTransitions.WithLabelValues(strconv.Itoa(from), string(Backward)).Inc()
	}
	snap, _ := c.commit(nil)
	return snap
}

func (c *Controller) sessionCoversPriceLocked() bool {
	return c.session != nil && c.session.intent.AmountCents == c.price
}

func (c *Controller) attachSessionLocked(intent *payment.Intent) {
	if intent.AmountCents == 0 {
		intent.AmountCents = c.price
	}
	if c.session != nil && intent.ClientSecret == "" {
		intent.ClientSecret = c.session.intent.ClientSecret
	}
	gen := c.gen
	flow := payment.NewFlow(c.deps.Provider, intent.ClientSecret, c.deps.Flow, func(id string) {
		c.completeSubmission(gen, id)
	}, c.deps.Logger.WithFields(map[string]interface{}{"runId": c.id}))
	c.session = &session{intent: intent, flow: flow}
}

func (c *Controller) intentMetadataLocked() map[string]string {
	return map[string]string{
		"runId":            c.id,
		"email":            c.record.Email,
		"name":             c.record.FirstName + " " + c.record.LastName,
		"membershipStatus": c.record.MembershipStatus,
		"membershipLevel":  c.record.MembershipLevel,
	}
}

// ConfirmPayment submits the payment form on the payment step.
func (c *Controller) ConfirmPayment(ctx context.Context, paymentMethod string) (*payment.Result, error) {
	flow, err := c.mountedFlow(true)
	if err != nil {
		return nil, err
	}
	res, err := flow.Submit(context.WithoutCancel(ctx), paymentMethod)
	return c.applyPaymentResult(flow, res, err)
}

// ResumePayment resolves a payment after the provider redirected back.
func (c *Controller) ResumePayment(ctx context.Context, clientSecret string) (*payment.Result, error) {
	flow, err := c.mountedFlow(false)
	if err != nil {
		return nil, err
	}
	res, err := flow.Resume(context.WithoutCancel(ctx), clientSecret)
	return c.applyPaymentResult(flow, res, err)
}

func (c *Controller) mountedFlow(requirePaymentStep bool) (*payment.Flow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || (requirePaymentStep && c.step != StepPayment) {
		return nil, errors.NewPaymentNotReadyError()
	}
	return c.session.flow, nil
}

func (c *Controller) applyPaymentResult(flow *payment.Flow, res *payment.Result, err error) (*payment.Result, error) {
	c.mu.Lock()
	if c.session == nil || c.session.flow != flow {
		c.mu.Unlock()
		return res, err
	}
	if err != nil {
		c.lastError = errors.AsStandard(err).Message
		c.commit(nil)
		return nil, err
	}
	c.lastError = ""
	if res.Outcome == payment.OutcomeSucceeded {
		c.frozen = true
		// the store write may already have failed
		c.lastError = c.once.Outcome().Error
	}
	c.commit(nil)
	return res, nil
}

// completeSubmission is the delayed payment success callback.
func (c *Controller) completeSubmission(gen int, paymentIntentID string) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.deps.Logger.Error("Payment success arrived for a reset run", map[string]interface{}{
			"runId":           c.id,
			"paymentIntentId": paymentIntentID,
		})
		return
	}
	c.frozen = true
	req := submission.Request{Record: c.record, PriceCents: c.price, PaymentIntentID: paymentIntentID}
	once := c.once
	c.commit(nil)

	_, dropped, err := once.Submit(context.Background(), req)
	if dropped {
		return
	}

	c.mu.Lock()
	if err != nil {
		c.lastError = errors.AsStandard(err).Message
	}
	c.commit(nil)
}

// Reset starts a fresh application ("submit another application"). It is
// refused while any external call of the run is outstanding.
func (c *Controller) Reset() error {
	return c.update(func() error {
		if c.busyLocked() {
			return errors.NewOperationInFlightError("reset")
		}
		c.gen++
		c.record = form.Record{}
		c.step = StepPersonal
		c.direction = Forward
		c.price = 0
		c.date.SetValue(nil)
		c.errs = map[form.Field]string{}
		c.intentOp.Reset()
		c.session = nil
		c.once = submission.NewOnce(c.deps.Persister, c.deps.Logger)
		c.frozen = false
		c.lastError = ""
		return nil
	})
}

// update runs fn under the lock and notifies observers afterwards.
func (c *Controller) update(fn func() error) error {
	c.mu.Lock()
	err := fn()
	_, _ = c.commit(nil)
	return err
}

// commit must be called with c.mu held; it releases the lock, notifies
// observers and returns the new snapshot together with err.
func (c *Controller) commit(err error) (Snapshot, error) {
	c.touched = c.deps.Now()
	snap := c.snapshotLocked()
	obs := make([]Observer, len(c.observers))
	for i, o := range c.observers {
		obs[i] = o.fn
	}
	c.mu.Unlock()
	for _, fn := range obs {
		fn(snap)
	}
	return snap, err
}

func (c *Controller) snapshotLocked() Snapshot {
	errs := make(map[string]string, len(c.errs))
	for f, msg := range c.errs {
		errs[string(f)] = msg
	}
	pv := PaymentView{
		PublishableKey: c.deps.PublishableKey,
		IntentState:    c.intentOp.State().String(),
	}
	if c.session != nil {
		st := c.session.flow.State()
		pv.ClientSecret = c.session.intent.ClientSecret
		pv.PaymentIntentID = c.session.intent.ID
		pv.AmountCents = c.session.intent.AmountCents
		pv.Ready = c.step == StepPayment
		pv.Flow = &st
	}
	step := StepAt(c.step)
	return Snapshot{
		RunID:        c.id,
		Step:         step.Number,
		StepTitle:    step.Title,
		TotalSteps:   LastStep,
		Direction:    c.direction,
		PriceCents:   c.price,
		Price:        form.DollarsFromCents(c.price),
		Record:       c.record,
		PhoneDisplay: form.FormatPhone(c.record.Phone),
		Levels:       form.LevelsFor(c.record.MembershipStatus),
		BirthDate:    c.date.Segments(),
		Errors:       errs,
		Frozen:       c.frozen,
		Payment:      pv,
		Submission:   c.once.Outcome(),
		Error:        c.lastError,
		UpdatedAt:    c.touched,
	}
}

func fieldMessages(err error) map[string]string {
	if std := errors.AsStandard(err); std != nil {
		if fields, ok := std.Metadata["fields"].(map[string]string); ok {
			return fields
		}
	}
	return map[string]string{"_": err.Error()}
}
