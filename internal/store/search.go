package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"membership-signup/internal/common/errors"
	"membership-signup/internal/common/logger"
	"membership-signup/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const maxSearchHits = 10000

var indexMapping = map[string]interface{}{
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"id":         map[string]interface{}{"type": "keyword"},
			"created_at": map[string]interface{}{"type": "date"},
			"first_name": map[string]interface{}{"type": "keyword"},
			"last_name":  map[string]interface{}{"type": "keyword"},
			"email":      map[string]interface{}{"type": "keyword"},
			"phone":      map[string]interface{}{"type": "keyword"},
		},
	},
}

// SearchIndex mirrors memberships into Elasticsearch for the admin search box.
type SearchIndex struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewSearchIndex(client *elasticsearch.Client, index string, log logger.Logger) *SearchIndex {
	return &SearchIndex{client: client, index: index, logger: log}
}

// EnsureIndex creates the index with its mapping when missing.
func (s *SearchIndex) EnsureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return errors.NewSearchQueryFailedError(s.index, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	body, _ := json.Marshal(indexMapping)
	res, err = s.client.Indices.Create(s.index,
		s.client.Indices.Create.WithBody(bytes.NewReader(body)),
		s.client.Indices.Create.WithContext(ctx))
	if err != nil {
		return errors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()
	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return errors.NewSearchQueryFailedError(s.index, fmt.Errorf("create index: %s", res.Status()))
	}
	return nil
}

// IndexMembership writes m under its id.
func (s *SearchIndex) IndexMembership(ctx context.Context, m *models.Membership) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal membership: %w", err)
	}
	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: m.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return errors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.NewSearchQueryFailedError(s.index, fmt.Errorf("index document: %s", res.Status()))
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns the ids of memberships whose first name, last name or email
// contains term ignoring case, or whose phone contains term, newest first.
func (s *SearchIndex) Search(ctx context.Context, term string) ([]string, error) {
	pattern := "*" + escapeWildcard(term) + "*"
	should := []interface{}{}
	for _, f := range []string{"first_name", "last_name", "email"} {
		should = append(should, map[string]interface{}{
			"wildcard": map[string]interface{}{
				f: map[string]interface{}{"value": pattern, "case_insensitive": true},
			},
		})
	}
	should = append(should, map[string]interface{}{
		"wildcard": map[string]interface{}{"phone": map[string]interface{}{"value": pattern}},
	})

	query := map[string]interface{}{
		"_source": false,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"should": should, "minimum_should_match": 1},
		},
		"sort": []interface{}{map[string]interface{}{"created_at": "desc"}},
	}
	body, _ := json.Marshal(query)
	size := maxSearchHits

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return nil, errors.NewIndexNotFoundError(s.index)
	}
	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(s.index, fmt.Errorf("search: %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError(s.index, err)
	}
	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	s.logger.Debug("membership search", map[string]interface{}{"term": term, "hits": len(ids)})
	return ids, nil
}

func escapeWildcard(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)
	return r.Replace(s)
}
