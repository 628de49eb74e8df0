package fallback

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/triage/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_AlwaysWellFormed(t *testing.T) {
	disasters := []core.DisasterType{
		core.DisasterWildfire,
		core.DisasterFlood,
		core.DisasterEarthquake,
		core.DisasterCyclone,
		core.DisasterHeatwave,
		core.DisasterLandslide,
		core.DisasterOther,
	}

	for _, disaster := range disasters {
		t.Run(disaster.String(), func(t *testing.T) {
			plan := Generate(core.Query{
				Text:     "incident reported",
				Disaster: disaster,
				Location: "Test City",
				Severity: core.SeverityModerate,
			}, errors.New("provider down"))

			require.NoError(t, core.ValidatePlan(plan))
			assert.NotEmpty(t, plan.ImmediateActions)
			assert.NotEmpty(t, plan.Resources.Personnel)
			assert.NotEmpty(t, plan.FallbackReason)
			assert.LessOrEqual(t, plan.Confidence, MaxConfidence)
			assert.Greater(t, plan.Confidence, 0.0)
			assert.False(t, plan.GeneratedAt.IsZero())
		})
	}
}

func TestGenerate_RiskDerivation(t *testing.T) {
	tests := []struct {
		name     string
		disaster core.DisasterType
		severity core.Severity
		want     core.RiskLevel
	}{
		{"critical severity forces critical risk", core.DisasterHeatwave, core.SeverityCritical, core.RiskCritical},
		{"severe severity forces critical risk", core.DisasterEarthquake, core.SeveritySevere, core.RiskCritical},
		{"low severity steps baseline down", core.DisasterEarthquake, core.SeverityLow, core.RiskModerate},
		{"moderate severity keeps baseline", core.DisasterFlood, core.SeverityModerate, core.RiskHigh},
		{"high severity keeps baseline", core.DisasterWildfire, core.SeverityHigh, core.RiskHigh},
		{"unknown type uses all-hazard baseline", core.DisasterOther, core.SeverityModerate, core.RiskModerate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Generate(core.Query{
				Text:     "incident reported",
				Disaster: tt.disaster,
				Location: "Test City",
				Severity: tt.severity,
			}, nil)

			assert.Equal(t, tt.want, plan.Assessment.RiskLevel)
		})
	}
}

func TestGenerate_AllHazardConfidenceLower(t *testing.T) {
	typed := Generate(core.Query{
		Text: "flooding", Disaster: core.DisasterFlood, Location: "Mumbai", Severity: core.SeverityHigh,
	}, nil)
	generic := Generate(core.Query{
		Text: "Emergency", Disaster: core.DisasterOther, Location: "Unknown", Severity: core.SeverityHigh,
	}, nil)

	assert.Greater(t, typed.Confidence, generic.Confidence)
	assert.LessOrEqual(t, typed.Confidence, MaxConfidence)
}

func TestGenerate_LocationInSummary(t *testing.T) {
	plan := Generate(core.Query{
		Text:     "major earthquake has hit the city center",
		Disaster: core.DisasterEarthquake,
		Location: "San Francisco",
		Severity: core.SeverityHigh,
	}, nil)

	assert.Contains(t, plan.Assessment.Summary, "San Francisco")
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		err  error
		want FailureClass
	}{
		{context.DeadlineExceeded, FailureTimeout},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), FailureTimeout},
		{errors.New("request timeout after 15s"), FailureTimeout},
		{errors.New("429 too many requests"), FailureRateLimit},
		{errors.New("quota exceeded for model"), FailureRateLimit},
		{errors.New("connection refused"), FailureNetwork},
		{errors.New("dial tcp: no such host"), FailureNetwork},
		{errors.New("failed to parse completion"), FailureValidation},
		{errors.New("invalid plan: missing actions"), FailureValidation},
		{errors.New("something unexpected"), FailureSystem},
		{nil, FailureSystem},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyFailure(tt.err), "error: %v", tt.err)
	}
}
