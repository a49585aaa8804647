// Package memory provides in-process repositories for tests and the offline
// CLI. Production wiring never falls back to them.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/models"
)

// BusinessRepository keeps candidates in insertion order.
type BusinessRepository struct {
	mu         sync.RWMutex
	candidates []models.Candidate
	err        error
}

func NewBusinessRepository(candidates ...models.Candidate) *BusinessRepository {
	return &BusinessRepository{candidates: append([]models.Candidate(nil), candidates...)}
}

// Put inserts or replaces a candidate. Replacements keep their position.
func (r *BusinessRepository) Put(c models.Candidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.candidates {
		if r.candidates[i].ID == c.ID {
			r.candidates[i] = c
			return
		}
	}
	r.candidates = append(r.candidates, c)
}

// FailWith makes every call return err until cleared with nil.
func (r *BusinessRepository) FailWith(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *BusinessRepository) FindEligible(_ context.Context, f models.EligibilityFilters) ([]models.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.err != nil {
		return nil, apperrors.NewRepositoryUnavailableError("memory", r.err)
	}

	out := make([]models.Candidate, 0, len(r.candidates))
	for _, c := range r.candidates {
		if f.Status != "" && !strings.EqualFold(c.Status, f.Status) {
			continue
		}
		if f.Verified && !c.Verified {
			continue
		}
		if f.Industry != "" && !strings.EqualFold(c.Industry, f.Industry) {
			continue
		}
		if f.Province != "" && !strings.EqualFold(c.Geography.Province, f.Province) {
			continue
		}
		if f.DesignatedSupplierRequired && !c.DesignatedSupplier {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *BusinessRepository) GetByID(_ context.Context, id string) (*models.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.err != nil {
		return nil, apperrors.NewRepositoryUnavailableError("memory", r.err)
	}
	for _, c := range r.candidates {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, apperrors.NewCandidateNotFoundError(id)
}

// OpportunityRepository keeps opportunities in insertion order.
type OpportunityRepository struct {
	mu            sync.RWMutex
	opportunities []models.Opportunity
	err           error
}

func NewOpportunityRepository(opps ...models.Opportunity) *OpportunityRepository {
	return &OpportunityRepository{opportunities: append([]models.Opportunity(nil), opps...)}
}

func (r *OpportunityRepository) Put(o models.Opportunity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.opportunities {
		if r.opportunities[i].ID == o.ID {
			r.opportunities[i] = o
			return
		}
	}
	r.opportunities = append(r.opportunities, o)
}

func (r *OpportunityRepository) FailWith(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *OpportunityRepository) GetByID(_ context.Context, id string) (*models.Opportunity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.err != nil {
		return nil, apperrors.NewRepositoryUnavailableError("memory", r.err)
	}
	for _, o := range r.opportunities {
		if o.ID == id {
			cp := o
			return &cp, nil
		}
	}
	return nil, apperrors.NewOpportunityNotFoundError(id)
}

// ListOpen returns opportunities whose closing date is after asOf. A zero
// closing date counts as open.
func (r *OpportunityRepository) ListOpen(_ context.Context, asOf time.Time) ([]models.Opportunity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.err != nil {
		return nil, apperrors.NewRepositoryUnavailableError("memory", r.err)
	}
	out := make([]models.Opportunity, 0, len(r.opportunities))
	for _, o := range r.opportunities {
		if o.ClosingDate.IsZero() || o.ClosingDate.After(asOf) {
			out = append(out, o)
		}
	}
	return out, nil
}

// CollaborationHistory answers PastCollaborationLookup from a fixed table.
type CollaborationHistory struct {
	mu     sync.RWMutex
	scores map[[2]string]float64
	err    error
}

func NewCollaborationHistory() *CollaborationHistory {
	return &CollaborationHistory{scores: make(map[[2]string]float64)}
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// Record stores the best score seen for the pair, in either order.
func (h *CollaborationHistory) Record(a, b string, score float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	k := pairKey(a, b)
	if score > h.scores[k] {
		h.scores[k] = score
	}
}

func (h *CollaborationHistory) FailWith(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

func (h *CollaborationHistory) Get(_ context.Context, a, b string) (float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.err != nil {
		return 0, h.err
	}
	return h.scores[pairKey(a, b)], nil
}

// FacilitationStore records offered partnerships.
type FacilitationStore struct {
	mu      sync.Mutex
	records []models.FacilitationRecord
	err     error
}

func NewFacilitationStore() *FacilitationStore {
	return &FacilitationStore{}
}

func (s *FacilitationStore) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *FacilitationStore) Save(_ context.Context, rec models.FacilitationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return apperrors.NewRepositoryUnavailableError("memory", s.err)
	}
	s.records = append(s.records, rec)
	return nil
}

// Records returns a copy of everything saved so far.
func (s *FacilitationStore) Records() []models.FacilitationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.FacilitationRecord(nil), s.records...)
}
