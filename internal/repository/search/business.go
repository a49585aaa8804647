// Package search serves candidate retrieval from an Elasticsearch index of
// business profiles.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/models"
)

const (
	source = "elasticsearch"

	DefaultIndex    = "businesses"
	DefaultPageSize = 500
)

// BusinessRepository queries documents shaped like models.Candidate. Keyword
// fields are expected to use a lowercase normalizer.
type BusinessRepository struct {
	client   *elasticsearch.Client
	index    string
	pageSize int
}

type Option func(*BusinessRepository)

func WithPageSize(n int) Option {
	return func(r *BusinessRepository) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

func NewBusinessRepository(client *elasticsearch.Client, index string, opts ...Option) *BusinessRepository {
	if index == "" {
		index = DefaultIndex
	}
	r := &BusinessRepository{client: client, index: index, pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Candidate `json:"_source"`
			Sort   []interface{}    `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

// FindEligible pages through every matching document with search_after,
// sorted by id so the order is stable across calls.
func (r *BusinessRepository) FindEligible(ctx context.Context, f models.EligibilityFilters) ([]models.Candidate, error) {
	var (
		out   []models.Candidate
		after []interface{}
	)
	for {
		body, err := json.Marshal(eligibleQuery(f, r.pageSize, after))
		if err != nil {
			return nil, apperrors.NewRepositoryUnavailableError(source, err)
		}

		req := esapi.SearchRequest{
			Index: []string{r.index},
			Body:  bytes.NewReader(body),
		}
		var page searchResponse
		if err := r.do(ctx, req, &page); err != nil {
			return nil, err
		}

		for _, h := range page.Hits.Hits {
			out = append(out, h.Source)
		}
		if len(page.Hits.Hits) < r.pageSize {
			return out, nil
		}
		after = page.Hits.Hits[len(page.Hits.Hits)-1].Sort
	}
}

func eligibleQuery(f models.EligibilityFilters, size int, after []interface{}) map[string]interface{} {
	filters := []interface{}{}
	term := func(field string, v interface{}) {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{field: v},
		})
	}

	if f.Status != "" {
		term("status", f.Status)
	}
	if f.Verified {
		term("verified", true)
	}
	if f.Industry != "" {
		term("industry", f.Industry)
	}
	if f.Province != "" {
		term("geography.province", f.Province)
	}
	if f.DesignatedSupplierRequired {
		term("designatedSupplier", true)
	}

	q := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": filters},
		},
		"sort": []interface{}{
			map[string]interface{}{"id": "asc"},
		},
	}
	if len(after) > 0 {
		q["search_after"] = after
	}
	return q
}

func (r *BusinessRepository) GetByID(ctx context.Context, id string) (*models.Candidate, error) {
	res, err := esapi.GetRequest{Index: r.index, DocumentID: id}.Do(ctx, r.client)
	if err != nil {
		return nil, apperrors.NewRepositoryUnavailableError(source, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewCandidateNotFoundError(id)
	}
	if res.IsError() {
		return nil, apperrors.NewRepositoryUnavailableError(source, fmt.Errorf("get %s: %s", id, res.Status()))
	}

	var doc struct {
		Found  bool             `json:"found"`
		Source models.Candidate `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, apperrors.NewRepositoryUnavailableError(source, err)
	}
	if !doc.Found {
		return nil, apperrors.NewCandidateNotFoundError(id)
	}
	return &doc.Source, nil
}

func (r *BusinessRepository) do(ctx context.Context, req esapi.SearchRequest, into interface{}) error {
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return apperrors.NewRepositoryUnavailableError(source, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewRepositoryUnavailableError(source, fmt.Errorf("search %s: %s", r.index, res.Status()))
	}
	if err := json.NewDecoder(res.Body).Decode(into); err != nil {
		return apperrors.NewRepositoryUnavailableError(source, err)
	}
	return nil
}
