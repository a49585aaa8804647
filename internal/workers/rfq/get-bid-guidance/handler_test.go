package getbidguidance

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfq-workers/internal/common/camunda"
	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/matching/guidance"
	"rfq-workers/internal/models"
)

type fakeAdvisor struct {
	bundle *models.RecommendationBundle
	err    error
}

func (f *fakeAdvisor) GetBidGuidance(_ context.Context, candidateID, opportunityID string) (*models.RecommendationBundle, error) {
	if f.err != nil {
		return nil, f.err
	}
	b := *f.bundle
	b.CandidateID, b.OpportunityID = candidateID, opportunityID
	return &b, nil
}

func band(recommended string) models.PricingBand {
	b := guidance.Pricing(decimal.NewFromInt(250000), 0)
	b.Recommended = recommended
	return b
}

func TestHandler_Execute_Success(t *testing.T) {
	adv := &fakeAdvisor{bundle: &models.RecommendationBundle{
		Score:          models.ScoreBreakdown{Overall: 87.5, WinProbability: 0.83},
		PricingBand:    band(guidance.StrategyPremium),
		ProposalThemes: []string{"Deep technical fit"},
		TimelinePlan:   models.TimelinePlan{DaysAvailable: 30},
	}}
	h := NewHandler(&Config{Timeout: time.Second}, adv, nil, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{CandidateID: "biz-1", OpportunityID: "opp-1"})
	require.NoError(t, err)

	assert.Equal(t, "biz-1", out.Guidance.CandidateID)
	assert.Equal(t, "opp-1", out.Guidance.OpportunityID)
	assert.Equal(t, "270000.00", out.RecommendedPrice)
	assert.Equal(t, []string{"Deep technical fit"}, out.Guidance.ProposalThemes)
}

func TestRecommendedPrice(t *testing.T) {
	tests := []struct {
		strategy string
		want     string
	}{
		{guidance.StrategyAggressive, "205000.00"},
		{guidance.StrategyCompetitive, "230000.00"},
		{guidance.StrategyOptimal, "235000.00"},
		{guidance.StrategyPremium, "270000.00"},
	}
	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			assert.Equal(t, tt.want, recommendedPrice(band(tt.strategy)))
		})
	}
}

func TestHandler_Execute_PropagatesErrors(t *testing.T) {
	h := NewHandler(nil, &fakeAdvisor{err: apperrors.NewOpportunityNotFoundError("opp-x")}, nil, logger.NewTestLogger(t))
	_, err := h.Execute(context.Background(), &Input{CandidateID: "biz-1", OpportunityID: "opp-x"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeOpportunityNotFound))
	assert.Equal(t, 10*time.Second, h.config.Timeout)
}

func TestInputSchema(t *testing.T) {
	var in Input
	require.NoError(t, camunda.DecodeVariables(`{"candidateId":"biz-1","opportunityId":"opp-1"}`, inputSchema, &in))
	assert.Equal(t, Input{CandidateID: "biz-1", OpportunityID: "opp-1"}, in)

	err := camunda.DecodeVariables(`{"candidateId":"biz-1"}`, inputSchema, &in)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidJobInput))
}
