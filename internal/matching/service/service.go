// Package service is the entry point used by job workers and the CLI. It
// ties matching, partnership synthesis, guidance and notification together.
package service

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/common/observability"
	"rfq-workers/internal/models"
	"rfq-workers/internal/notify"
)

// Matcher is satisfied by engine.Engine.
type Matcher interface {
	Evaluate(ctx context.Context, opp *models.Opportunity) (*models.MatchResult, bool, error)
	MatchCandidateToOpportunities(ctx context.Context, candidateID string, opts models.MatchOptions) ([]models.Match, error)
	ScorePair(ctx context.Context, candidateID, opportunityID string) (*models.Match, *models.Opportunity, error)
}

// OpportunityLoader is satisfied by every OpportunityRepository.
type OpportunityLoader interface {
	GetByID(ctx context.Context, id string) (*models.Opportunity, error)
}

// PartnershipFinder is satisfied by partnership.Synthesizer.
type PartnershipFinder interface {
	IdentifyOpportunities(ctx context.Context, opp *models.Opportunity, matches []models.Match) []models.Partnership
}

// Facilitator is satisfied by partnership.Facilitator.
type Facilitator interface {
	Facilitate(ctx context.Context, opp *models.Opportunity, p *models.Partnership) (*models.Introduction, *models.FacilitationRecord, error)
}

// GuidanceGenerator is satisfied by guidance.Generator.
type GuidanceGenerator interface {
	Guidance(opp *models.Opportunity, m *models.Match) models.RecommendationBundle
}

type Options struct {
	// NotifyMinScore is the lowest overall score that triggers a candidate
	// notification.
	NotifyMinScore float64
	AutoFacilitate bool
}

// OpportunityOutcome is the result of processing one opportunity.
type OpportunityOutcome struct {
	OpportunityID string                      `json:"opportunityId"`
	Matches       []models.Match              `json:"matches"`
	Partnerships  []models.Partnership        `json:"partnerships"`
	Facilitations []models.FacilitationRecord `json:"facilitations,omitempty"`
	Skipped       int                         `json:"skipped"`
	ComputedAt    time.Time                   `json:"computedAt"`
}

type Service struct {
	matcher       Matcher
	opportunities OpportunityLoader
	partnerships  PartnershipFinder
	facilitator   Facilitator
	guidance      GuidanceGenerator
	notifier      notify.Notifier
	opts          Options
	logger        logger.Logger

	inflight sync.WaitGroup
}

func New(
	matcher Matcher,
	opportunities OpportunityLoader,
	partnerships PartnershipFinder,
	facilitator Facilitator,
	guidance GuidanceGenerator,
	notifier notify.Notifier,
	opts Options,
	log logger.Logger,
) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		matcher:       matcher,
		opportunities: opportunities,
		partnerships:  partnerships,
		facilitator:   facilitator,
		guidance:      guidance,
		notifier:      notifier,
		opts:          opts,
		logger:        log.WithFields(map[string]interface{}{"component": "matching-service"}),
	}
}

// ProcessOpportunity matches the opportunity, proposes partnerships for
// matches that need help and notifies strong candidates in the background.
// Notifications go out only when this call computed the matches, not when
// they came from cache.
func (s *Service) ProcessOpportunity(ctx context.Context, opp *models.Opportunity) (outcome *OpportunityOutcome, err error) {
	ctx, span := observability.StartSpan(ctx, "service.process_opportunity", attribute.String("opportunityId", opp.ID))
	defer func() { observability.EndSpan(span, err) }()

	result, hit, err := s.matcher.Evaluate(ctx, opp)
	if err != nil {
		return nil, err
	}

	// the cached result is shared between callers
	matches := append([]models.Match(nil), result.Matches...)
	partnerships := s.partnerships.IdentifyOpportunities(ctx, opp, matches)
	if partnerships == nil {
		partnerships = []models.Partnership{}
	}

	outcome = &OpportunityOutcome{
		OpportunityID: opp.ID,
		Matches:       matches,
		Partnerships:  partnerships,
		Skipped:       result.Skipped,
		ComputedAt:    result.ComputedAt,
	}

	// a cached result was already announced by the pass that computed it
	if !hit {
		s.notifyMatches(ctx, opp, matches)
	}

	if s.opts.AutoFacilitate && s.facilitator != nil {
		for i := range partnerships {
			_, rec, err := s.facilitator.Facilitate(ctx, opp, &partnerships[i])
			if err != nil {
				s.logger.Warn("auto facilitation failed", map[string]interface{}{
					"partnershipId": partnerships[i].ID,
					"error":         err,
				})
				continue
			}
			outcome.Facilitations = append(outcome.Facilitations, *rec)
		}
	}

	s.logger.Info("opportunity processed", map[string]interface{}{
		"opportunityId": opp.ID,
		"matches":       len(matches),
		"partnerships":  len(partnerships),
		"skipped":       result.Skipped,
	})
	return outcome, nil
}

// notifyMatches sends summaries without blocking the caller. Failures are
// logged; the notifier records its own metrics.
func (s *Service) notifyMatches(ctx context.Context, opp *models.Opportunity, matches []models.Match) {
	// notifications outlive the job that triggered them
	bg := context.WithoutCancel(ctx)
	for _, m := range matches {
		if m.Score.Overall < s.opts.NotifyMinScore {
			continue
		}
		summary := notify.SummaryFromMatch(opp, m)
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			if err := s.notifier.Notify(bg, summary.CandidateID, summary); err != nil {
				s.logger.Warn("match notification failed", map[string]interface{}{
					"candidateId":   summary.CandidateID,
					"opportunityId": summary.OpportunityID,
					"error":         err,
				})
			}
		}()
	}
}

// MatchCandidate lists the best open opportunities for one candidate.
func (s *Service) MatchCandidate(ctx context.Context, candidateID string, opts models.MatchOptions) (matches []models.Match, err error) {
	ctx, span := observability.StartSpan(ctx, "service.match_candidate", attribute.String("candidateId", candidateID))
	defer func() { observability.EndSpan(span, err) }()

	return s.matcher.MatchCandidateToOpportunities(ctx, candidateID, opts)
}

// GetBidGuidance scores the pair fresh and renders the advice bundle.
func (s *Service) GetBidGuidance(ctx context.Context, candidateID, opportunityID string) (bundle *models.RecommendationBundle, err error) {
	ctx, span := observability.StartSpan(ctx, "service.bid_guidance",
		attribute.String("candidateId", candidateID),
		attribute.String("opportunityId", opportunityID),
	)
	defer func() { observability.EndSpan(span, err) }()

	m, opp, err := s.matcher.ScorePair(ctx, candidateID, opportunityID)
	if err != nil {
		return nil, err
	}
	b := s.guidance.Guidance(opp, m)
	return &b, nil
}

// FacilitatePartnership re-derives the partnerships for an opportunity and
// introduces the parties of the one with the given ID.
func (s *Service) FacilitatePartnership(ctx context.Context, opportunityID, partnershipID string) (intro *models.Introduction, rec *models.FacilitationRecord, err error) {
	ctx, span := observability.StartSpan(ctx, "service.facilitate_partnership",
		attribute.String("opportunityId", opportunityID),
		attribute.String("partnershipId", partnershipID),
	)
	defer func() { observability.EndSpan(span, err) }()

	opp, err := s.opportunities.GetByID(ctx, opportunityID)
	if err != nil {
		return nil, nil, err
	}
	result, _, err := s.matcher.Evaluate(ctx, opp)
	if err != nil {
		return nil, nil, err
	}

	matches := append([]models.Match(nil), result.Matches...)
	for _, p := range s.partnerships.IdentifyOpportunities(ctx, opp, matches) {
		if p.ID == partnershipID {
			return s.facilitator.Facilitate(ctx, opp, &p)
		}
	}
	return nil, nil, apperrors.NewPartnershipNotFoundError(partnershipID)
}

// Wait blocks until background notifications have finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}
