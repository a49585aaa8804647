package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() JSONSchema {
	return JSONSchema{
		Type:     "object",
		Required: []string{"opportunityId"},
		Properties: map[string]Property{
			"opportunityId": {Type: "string", MinLength: Int(1)},
			"limit":         {Type: "integer", Minimum: Float(1), Maximum: Float(100)},
			"strategy":      {Type: "string", Enum: []string{"premium", "aggressive"}},
			"candidate": {
				Type:     "object",
				Required: []string{"id"},
				Properties: map[string]Property{
					"id": {Type: "string"},
				},
			},
		},
	}
}

func TestSchema_ValidateJSON(t *testing.T) {
	s := MustCompile(testSchema())

	tests := []struct {
		name      string
		doc       string
		valid     bool
		badFields []string
	}{
		{"minimal", `{"opportunityId":"opp-1"}`, true, nil},
		{"extra process variables allowed", `{"opportunityId":"opp-1","traceId":"x"}`, true, nil},
		{"missing required", `{"limit":5}`, false, []string{"opportunityId"}},
		{"empty id", `{"opportunityId":""}`, false, []string{"opportunityId"}},
		{"limit out of range", `{"opportunityId":"o","limit":500}`, false, []string{"limit"}},
		{"limit wrong type", `{"opportunityId":"o","limit":"ten"}`, false, []string{"limit"}},
		{"enum", `{"opportunityId":"o","strategy":"cheap"}`, false, []string{"strategy"}},
		{"nested required", `{"opportunityId":"o","candidate":{}}`, false, []string{"candidate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.ValidateJSON(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid)
			for _, f := range tt.badFields {
				assert.True(t, res.HasErrors(f), "expected error on %s, got %v", f, res.Errors)
			}
			if !tt.valid {
				assert.NotEmpty(t, res.Summary())
			}
		})
	}
}

func TestSchema_ValidateJSON_Malformed(t *testing.T) {
	_, err := MustCompile(testSchema()).ValidateJSON(`{"opportunityId":`)
	assert.Error(t, err)
}

func TestSchema_RequiredMessageNamesProperty(t *testing.T) {
	res, err := ValidateInput(map[string]interface{}{}, testSchema())
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.True(t, strings.Contains(res.Summary(), "opportunityId"))
	assert.Equal(t, "REQUIRED", res.Errors[0].Code)
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(JSONSchema{Type: "object", Properties: map[string]Property{
		"x": {Type: "not-a-type"},
	}})
	assert.Error(t, err)
}

func TestGetSchemaFromJSON(t *testing.T) {
	s, err := GetSchemaFromJSON(`{"type":"object","required":["a"],"properties":{"a":{"type":"string"}}}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, s.Required)
	assert.Equal(t, "string", s.Properties["a"].Type)
}
