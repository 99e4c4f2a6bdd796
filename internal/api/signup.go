package api

import (
	"net/http"

	"membership-signup/internal/common/errors"
	"membership-signup/internal/signup/dateinput"
	"membership-signup/internal/signup/payment"
	"membership-signup/internal/signup/wizard"

	"github.com/go-chi/chi/v5"
)

type paymentResponse struct {
	Result *payment.Result  `json:"result"`
	Run    wizard.Snapshot `json:"run"`
}

type intentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

func (s *Server) run(w http.ResponseWriter, r *http.Request) (*wizard.Controller, bool) {
	c, err := s.deps.Runs.Get(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, s.logger, err, nil)
		return nil, false
	}
	return c, true
}

func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	c := s.deps.Runs.Start()
	writeJSON(w, http.StatusCreated, c.Snapshot())
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	c, ok := s.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) setFields(w http.ResponseWriter, r *http.Request) {
	c, ok := s.run(w, r)
	if !ok {
		return
	}
	var values map[string]interface{}
	if err := decode(w, r, fieldsSchema, &values); err != nil {
		writeError(w, s.logger, err, c.Snapshot())
		return
	}
	s.reply(w, c, c.SetFields(values))
}

func (s *Server) birthDate(w http.ResponseWriter, r *http.Request) {
	c, ok := s.run(w, r)
	if !ok {
		return
	}
	var req birthDateRequest
	if err := decode(w, r, birthDateSchema, &req); err != nil {
		writeError(w, s.logger, err, c.Snapshot())
		return
	}
	seg, err := dateinput.ParseSegment(req.Segment)
	if err != nil {
		writeError(w, s.logger, errors.NewValidationError(map[string]string{"segment": err.Error()}), c.Snapshot())
		return
	}

	if req.Input != nil {
		err = c.InputDate(seg, *req.Input)
	} else {
		err = c.BackspaceDate(seg)
	}
	s.reply(w, c, err)
}

func (s *Server) next(w http.ResponseWriter, r *http.Request) {
	c, ok := s.run(w, r)
	if !ok {
		return
	}
	snap, err := c.Next(r.Context())
	if err != nil {
		writeError(w, s.logger, err, snap)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) back(w http.ResponseWriter, r *http.Request) {
	c, ok := s.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.Back())
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	c, ok := s.run(w, r)
	if !ok {
		return
	}
	s.reply(w, c, c.Reset())
}

func (s *Server) confirmPayment(w http.ResponseWriter, r *http.Request) {
	c, ok := s.run(w, r)
	if !ok {
		return
	}
	var req confirmRequest
	if err := decode(w, r, confirmSchema, &req); err != nil {
		writeError(w, s.logger, err, c.Snapshot())
		return
	}
	res, err := c.ConfirmPayment(r.Context(), req.PaymentMethod)
	s.replyPayment(w, c, res, err)
}

// paymentReturn handles the provider redirect back to the application.
func (s *Server) paymentReturn(w http.ResponseWriter, r *http.Request) {
	c, ok := s.run(w, r)
	if !ok {
		return
	}
	secret := r.URL.Query().Get("payment_intent_client_secret")
	if secret == "" {
		writeError(w, s.logger, errors.NewValidationError(map[string]string{
			"payment_intent_client_secret": "query parameter is required",
		}), c.Snapshot())
		return
	}
	res, err := c.ResumePayment(r.Context(), secret)
	s.replyPayment(w, c, res, err)
}

// createPaymentIntent is the stand-alone intent endpoint: dollars in, client
// secret out.
func (s *Server) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req paymentIntentRequest
	if err := decode(w, r, paymentIntentSchema, &req); err != nil {
		writeError(w, s.logger, err, nil)
		return
	}
	intent, err := s.deps.Intents.CreateIntent(r.Context(), req.Amount, req.Metadata, "")
	if err != nil {
		writeError(w, s.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, intentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	})
}

func (s *Server) reply(w http.ResponseWriter, c *wizard.Controller, err error) {
	if err != nil {
		writeError(w, s.logger, err, c.Snapshot())
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) replyPayment(w http.ResponseWriter, c *wizard.Controller, res *payment.Result, err error) {
	if err != nil {
		writeError(w, s.logger, err, c.Snapshot())
		return
	}
	writeJSON(w, http.StatusOK, paymentResponse{Result: res, Run: c.Snapshot()})
}
