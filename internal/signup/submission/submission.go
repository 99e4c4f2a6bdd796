// Package submission writes a paid application to the membership store.
package submission

import (
	"context"
	"time"

	"membership-signup/internal/common/errors"
	"membership-signup/internal/common/logger"
	"membership-signup/internal/common/metrics"
	"membership-signup/internal/models"
	"membership-signup/internal/signup/form"
)

type Store interface {
	InsertMembership(ctx context.Context, m *models.Membership) (*models.Membership, error)
}

// Indexer adds a stored row to the admin search index.
type Indexer interface {
	IndexMembership(ctx context.Context, m *models.Membership) error
}

// ProcessStarter kicks off post-signup onboarding.
type ProcessStarter interface {
	StartOnboarding(ctx context.Context, m *models.Membership) (int64, error)
}

// Alerter tells support about a captured payment that was not stored.
type Alerter interface {
	PersistenceFailed(ctx context.Context, alert models.PersistenceAlert) error
}

type Request struct {
	Record          form.Record
	PriceCents      int64
	PaymentIntentID string
}

// Dependencies groups collaborators. Only Store is required.
type Dependencies struct {
	Store   Store
	Indexer Indexer
	Starter ProcessStarter
	Alerter Alerter
	Logger  logger.Logger
}

// Service persists submissions. It holds no per-run state.
type Service struct {
	deps Dependencies
}

func NewService(deps Dependencies) *Service {
	return &Service{deps: deps}
}

// Persist writes one row. A store failure becomes a persistence error that
// carries the payment id; it is reported to support and never retried.
// Indexing and onboarding are best effort.
func (s *Service) Persist(ctx context.Context, req Request) (*models.Membership, error) {
	row := models.NewMembership(req.Record, req.PriceCents, req.PaymentIntentID)

	stored, err := s.deps.Store.InsertMembership(ctx, row)
	if err != nil {
		metrics.Submissions.WithLabelValues("failed").Inc()
		s.deps.Logger.Error("Submission store write failed after payment", map[string]interface{}{
			"paymentIntentId": req.PaymentIntentID,
			"email":           row.Email,
			"error":           err,
		})
		s.alert(ctx, row, err)
		return nil, errors.NewPersistenceError(req.PaymentIntentID, err)
	}

	metrics.Submissions.WithLabelValues("stored").Inc()
	s.deps.Logger.Info("Submission stored", map[string]interface{}{
		"membershipId":    stored.ID,
		"paymentIntentId": stored.PaymentIntentID,
		"membershipLevel": stored.MembershipLevel,
	})

	if s.deps.Indexer != nil {
		if err := s.deps.Indexer.IndexMembership(ctx, stored); err != nil {
			s.deps.Logger.Warn("Failed to index submission", map[string]interface{}{
				"membershipId": stored.ID,
				"error":        err,
			})
		}
	}
	if s.deps.Starter != nil {
		key, err := s.deps.Starter.StartOnboarding(ctx, stored)
		if err != nil {
			s.deps.Logger.Warn("Failed to start onboarding process", map[string]interface{}{
				"membershipId": stored.ID,
				"error":        err,
			})
		} else if key != 0 {
			s.deps.Logger.Info("Onboarding process started", map[string]interface{}{
				"membershipId":       stored.ID,
				"processInstanceKey": key,
			})
		}
	}
	return stored, nil
}

func (s *Service) alert(ctx context.Context, row *models.Membership, cause error) {
	if s.deps.Alerter == nil {
		return
	}
	err := s.deps.Alerter.PersistenceFailed(ctx, models.PersistenceAlert{
		PaymentIntentID: row.PaymentIntentID,
		Email:           row.Email,
		Name:            row.FullName(),
		MembershipLevel: row.MembershipLevel,
		TotalPrice:      row.TotalPrice,
		Error:           cause.Error(),
		OccurredAt:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.deps.Logger.Error("Failed to publish persistence alert", map[string]interface{}{
			"paymentIntentId": row.PaymentIntentID,
			"error":           err,
		})
	}
}
