package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_IsMatchesOnCode(t *testing.T) {
	err := fmt.Errorf("load candidates: %w", NewRepositoryUnavailableError("postgres", stderrors.New("dial tcp")))

	assert.True(t, stderrors.Is(err, ErrRepositoryUnavailable))
	assert.False(t, stderrors.Is(err, ErrCandidateNotFound))
	assert.True(t, HasCode(err, ErrCodeRepositoryUnavailable))
	assert.False(t, HasCode(stderrors.New("plain"), ErrCodeRepositoryUnavailable))
}

func TestStandardError_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewNotificationSendFailedError("sns", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "NOTIFICATION_SEND_FAILED")
	assert.Contains(t, err.Error(), "channel: sns")
}

func TestNormalize(t *testing.T) {
	std := NewCandidateNotFoundError("biz-1")
	assert.Same(t, std, Normalize(fmt.Errorf("wrapped: %w", std)))

	n := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, n.Code)
	assert.False(t, n.Retryable)
	assert.Equal(t, "boom", n.Details)
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"repository retried", NewRepositoryUnavailableError("es", nil), "REPOSITORY_UNAVAILABLE", 3},
		{"invalid opportunity thrown", NewInvalidOpportunityError("o", "bad"), "INVALID_OPPORTUNITY", 0},
		{"weight defect is internal", NewWeightVectorInvariantError("base", 0.9), "INTERNAL_ERROR", 0},
		{"partnership not found", NewPartnershipNotFoundError("p"), "PARTNERSHIP_NOT_FOUND", 0},
		{"facilitation retried", NewFacilitationFailedError("p", stderrors.New("x")), "FACILITATION_FAILED", 3},
		{"unmapped code passes through", NewWorkflowEngineError("complete-job", stderrors.New("x")), "WORKFLOW_ENGINE_UNAVAILABLE", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, b.Code)
			assert.Equal(t, tt.wantRetries, b.Retries)

			vars := b.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
			assert.Equal(t, tt.wantCode, vars["errorCode"])
		})
	}
}

func TestConvertToBPMNError_NonRetryableOverridesCode(t *testing.T) {
	err := NewRepositoryUnavailableError("postgres", nil)
	err.Retryable = false
	assert.Equal(t, 0, ConvertToBPMNError(err).Retries)
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeRepositoryUnavailable:  "DATA_SOURCE",
		ErrCodeCandidateNotFound:      "LOOKUP",
		ErrCodeNotificationSendFailed: "NOTIFICATION",
		ErrCodeInvalidJobInput:        "VALIDATION",
		ErrCodeWeightVectorInvariant:  "DEFECT",
		ErrCodeWorkflowEngine:         "EXTERNAL_SERVICE",
		ErrCodeInternal:               "OTHER",
	}
	for code, want := range tests {
		assert.Equal(t, want, GetErrorCategory(code), string(code))
	}
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeRepositoryUnavailable))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidJobInput))
}

func TestNewInvalidOpportunityError_Metadata(t *testing.T) {
	err := NewInvalidOpportunityError("opp-9", "estimatedValue must be positive")
	require.NotNil(t, err.Metadata)
	assert.Equal(t, "opp-9", err.Metadata["opportunityId"])
	assert.False(t, err.Timestamp.IsZero())
}
