package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"membership-signup/internal/common/errors"
	"membership-signup/internal/common/logger"
	"membership-signup/internal/common/metrics"
	"membership-signup/internal/signup/asyncop"
)

type Outcome string

const (
	OutcomeDeclined      Outcome = "declined"
	OutcomeSucceeded     Outcome = "succeeded"
	OutcomeIndeterminate Outcome = "indeterminate"
	OutcomeRedirect      Outcome = "redirect"
)

const (
	msgUnexpected      = "An unexpected error occurred."
	msgProcessingApp   = "Payment successful! Processing your application..."
	msgResumeSucceeded = "Payment succeeded!"
	msgResumeProcess   = "Your payment is processing."
	msgResumeRetry     = "Your payment was not successful, please try again."
	msgResumeUnknown   = "Something went wrong."
)

// Result is what the applicant is shown after a confirmation attempt.
type Result struct {
	Outcome         Outcome `json:"outcome"`
	Message         string  `json:"message"`
	Status          string  `json:"status,omitempty"`
	PaymentIntentID string  `json:"paymentIntentId,omitempty"`
	RedirectURL     string  `json:"redirectUrl,omitempty"`
	SupportHint     string  `json:"supportHint,omitempty"`
	Retryable       bool    `json:"retryable"`
}

// FlowConfig tunes the confirmation flow.
type FlowConfig struct {
	ReturnURL      string
	SuccessDelay   time.Duration
	SupportContact string
	// AfterFunc schedules the delayed success callback. Defaults to
	// time.AfterFunc.
	AfterFunc func(d time.Duration, fn func())
}

// FlowState is the externally visible flow state.
type FlowState struct {
	Processing bool    `json:"processing"`
	Closed     bool    `json:"closed"`
	Message    string  `json:"message,omitempty"`
	Last       *Result `json:"last,omitempty"`
}

// Flow confirms one client secret. It allows unlimited retries after a
// decline, runs at most one confirmation at a time and closes after a
// success or an indeterminate status.
type Flow struct {
	provider     Provider
	clientSecret string
	cfg          FlowConfig
	onSuccess    func(paymentIntentID string)
	logger       logger.Logger

	op asyncop.Op

	mu     sync.Mutex
	closed bool
	last   *Result
}

func NewFlow(provider Provider, clientSecret string, cfg FlowConfig, onSuccess func(string), log logger.Logger) *Flow {
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	}
	return &Flow{
		provider:     provider,
		clientSecret: clientSecret,
		cfg:          cfg,
		onSuccess:    onSuccess,
		logger:       log,
	}
}

func (f *Flow) ClientSecret() string { return f.clientSecret }

func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := FlowState{
		Processing: f.op.State() == asyncop.InFlight,
		Closed:     f.closed,
		Last:       f.last,
	}
	if f.last != nil {
		st.Message = f.last.Message
	}
	return st
}

// Submit confirms the held client secret with paymentMethod. A call made
// while another confirmation is in flight does nothing and reports
// OPERATION_IN_FLIGHT.
func (f *Flow) Submit(ctx context.Context, paymentMethod string) (*Result, error) {
	tok, err := f.begin()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	st, err := f.provider.Confirm(ctx, ConfirmRequest{
		ClientSecret:  f.clientSecret,
		PaymentMethod: paymentMethod,
		ReturnURL:     f.cfg.ReturnURL,
	})
	metrics.PaymentIntentDuration.WithLabelValues("confirm").Observe(time.Since(start).Seconds())

	if err != nil {
		return f.finish(tok, declined(err)), nil
	}

	var res *Result
	switch {
	case st.Status == StatusSucceeded:
		res = &Result{Outcome: OutcomeSucceeded, Message: msgProcessingApp}
	case st.RedirectURL != "":
		res = &Result{Outcome: OutcomeRedirect, RedirectURL: st.RedirectURL}
	case st.Status == StatusRequiresPaymentMethod:
		res = &Result{Outcome: OutcomeDeclined, Message: msgResumeRetry, Retryable: true}
	default:
		res = f.indeterminate(st.Status, fmt.Sprintf("Payment status: %s.", st.Status))
	}
	res.Status = st.Status
	res.PaymentIntentID = st.IntentID
	return f.finish(tok, res), nil
}

// Resume resolves an intent out of band after the provider redirected back
// with clientSecret, and applies the same outcome classes as Submit.
func (f *Flow) Resume(ctx context.Context, clientSecret string) (*Result, error) {
	if clientSecret != f.clientSecret {
		return nil, errors.NewValidationError(map[string]string{
			"payment_intent_client_secret": "does not belong to this application",
		})
	}
	tok, err := f.begin()
	if err != nil {
		return nil, err
	}

	st, err := f.provider.Retrieve(ctx, clientSecret)
	if err != nil {
		tok.Release()
		return nil, errors.NewProviderError("retrieve intent", err)
	}

	var res *Result
	switch st.Status {
	case StatusSucceeded:
		res = &Result{Outcome: OutcomeSucceeded, Message: msgResumeSucceeded}
	case StatusProcessing:
		res = f.indeterminate(st.Status, msgResumeProcess)
	case StatusRequiresPaymentMethod:
		res = &Result{Outcome: OutcomeDeclined, Message: msgResumeRetry, Retryable: true}
	default:
		res = f.indeterminate(st.Status, msgResumeUnknown)
	}
	res.Status = st.Status
	res.PaymentIntentID = st.IntentID
	return f.finish(tok, res), nil
}

func (f *Flow) begin() (asyncop.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		status := ""
		if f.last != nil {
			status = f.last.Status
		}
		return asyncop.Token{}, errors.NewPaymentClosedError(status)
	}
	tok, ok := f.op.Begin()
	if !ok {
		return asyncop.Token{}, errors.NewOperationInFlightError("payment confirmation")
	}
	return tok, nil
}

func (f *Flow) finish(tok asyncop.Token, res *Result) *Result {
	f.mu.Lock()
	f.last = res
	switch res.Outcome {
	case OutcomeSucceeded:
		f.closed = true
		tok.Succeed()
	case OutcomeIndeterminate:
		f.closed = true
		tok.Fail()
	case OutcomeDeclined:
		tok.Fail()
	default:
		tok.Release()
	}
	f.mu.Unlock()

	metrics.PaymentConfirmations.WithLabelValues(string(res.Outcome)).Inc()
	f.logger.Info("Payment confirmation resolved", map[string]interface{}{
		"outcome":         res.Outcome,
		"status":          res.Status,
		"paymentIntentId": res.PaymentIntentID,
	})

	if res.Outcome == OutcomeSucceeded && f.onSuccess != nil {
		id := res.PaymentIntentID
		f.cfg.AfterFunc(f.cfg.SuccessDelay, func() { f.onSuccess(id) })
	}
	return res
}

func (f *Flow) indeterminate(status, msg string) *Result {
	return &Result{
		Outcome:     OutcomeIndeterminate,
		Message:     msg,
		SupportHint: fmt.Sprintf("Please contact %s and mention payment status %q.", f.supportContact(), status),
	}
}

func (f *Flow) supportContact() string {
	if f.cfg.SupportContact == "" {
		return "support"
	}
	return f.cfg.SupportContact
}

func declined(err error) *Result {
	if d, ok := err.(*Decline); ok && (d.Kind == DeclineCard || d.Kind == DeclineValidation) {
		msg := d.Message
		if msg == "" {
			msg = "An error occurred"
		}
		return &Result{Outcome: OutcomeDeclined, Message: msg, Retryable: true}
	}
	return &Result{Outcome: OutcomeDeclined, Message: msgUnexpected, Retryable: true}
}
