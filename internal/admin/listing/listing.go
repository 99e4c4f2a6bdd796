// Package listing serves the admin submissions table.
package listing

import (
	"context"
	"strings"

	"membership-signup/internal/common/logger"
	"membership-signup/internal/models"
)

// Searcher resolves a search term to matching membership ids.
type Searcher interface {
	Search(ctx context.Context, term string) ([]string, error)
}

// Result is one page of the admin table: Matched of Total submissions.
type Result struct {
	Submissions []*models.Membership `json:"submissions"`
	Query       string               `json:"query,omitempty"`
	Total       int                  `json:"total"`
	Matched     int                  `json:"matched"`
}

type Service struct {
	repo   models.MembershipRepository
	search Searcher
	logger logger.Logger
}

// NewService builds the listing. search may be nil, in which case terms are
// matched in memory.
func NewService(repo models.MembershipRepository, search Searcher, log logger.Logger) *Service {
	return &Service{repo: repo, search: search, logger: log}
}

// All returns every submission, newest first.
func (s *Service) All(ctx context.Context) ([]*models.Membership, error) {
	return s.repo.ListMemberships(ctx)
}

// List returns the submissions matching query, newest first.
func (s *Service) List(ctx context.Context, query string) (*Result, error) {
	all, err := s.repo.ListMemberships(ctx)
	if err != nil {
		return nil, err
	}
	term := strings.TrimSpace(query)
	res := &Result{Query: term, Total: len(all)}

	switch {
	case term == "":
		res.Submissions = all
	case s.search != nil:
		ids, err := s.search.Search(ctx, term)
		if err != nil {
			s.logger.Warn("search index unavailable, filtering in memory", map[string]interface{}{
				"error": err,
			})
			res.Submissions = Filter(all, term)
			break
		}
		res.Submissions = keep(all, ids)
	default:
		res.Submissions = Filter(all, term)
	}
	res.Matched = len(res.Submissions)
	return res, nil
}

// Filter keeps rows whose first name, last name or email contains term
// ignoring case, or whose phone contains term verbatim.
func Filter(rows []*models.Membership, term string) []*models.Membership {
	lower := strings.ToLower(term)
	out := []*models.Membership{}
	for _, m := range rows {
		if strings.Contains(strings.ToLower(m.FirstName), lower) ||
			strings.Contains(strings.ToLower(m.LastName), lower) ||
			strings.Contains(strings.ToLower(m.Email), lower) ||
			strings.Contains(m.Phone, term) {
			out = append(out, m)
		}
	}
	return out
}

// keep preserves the order of rows.
func keep(rows []*models.Membership, ids []string) []*models.Membership {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	out := []*models.Membership{}
	for _, m := range rows {
		if _, ok := set[m.ID]; ok {
			out = append(out, m)
		}
	}
	return out
}
