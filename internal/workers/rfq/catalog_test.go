package rfq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfq-workers/internal/common/validation"
)

func TestCatalog_IsValid(t *testing.T) {
	reg := Catalog()
	require.NoError(t, reg.Validate())
	require.Len(t, reg.Activities, 4)

	for _, a := range reg.Activities {
		assert.Equal(t, a.ID, a.TaskType)
		assert.Contains(t, a.ErrorCodes, "INVALID_JOB_INPUT", a.ID)
		assert.NotEmpty(t, a.Timeout)

		_, err := validation.Compile(a.InputSchema)
		assert.NoError(t, err, a.ID)
	}
}

func TestCatalog_ErrorCodes(t *testing.T) {
	byID := map[string][]string{}
	for _, a := range Catalog().Activities {
		byID[a.ID] = a.ErrorCodes
	}

	assert.Equal(t, []string{
		"FACILITATION_FAILED",
		"INTERNAL_ERROR",
		"INVALID_JOB_INPUT",
		"OPPORTUNITY_NOT_FOUND",
		"PARTNERSHIP_NOT_FOUND",
		"REPOSITORY_UNAVAILABLE",
	}, byID["facilitate-partnership"])
	assert.Contains(t, byID["process-opportunity"], "INVALID_OPPORTUNITY")
	assert.NotContains(t, byID["get-bid-guidance"], "PARTNERSHIP_NOT_FOUND")
}
