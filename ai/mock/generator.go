package mock

import (
	"context"
	"fmt"

	"github.com/poiesic/triage/ai"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// CompleteFunc is called by Complete if set.
	// If nil, uses default canned-plan behavior.
	CompleteFunc func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error)

	callCount int
}

// NewMockGenerator creates a mock generator with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockGenerator().
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Complete returns a minimal well-formed plan document.
// Default behavior yields JSON that parses as a valid action plan so
// orchestration tests exercise the success path without an LLM.
func (m *MockGenerator) Complete(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	m.callCount++

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, opts)
	}

	return fmt.Sprintf(`{
  "situation_assessment": {
    "summary": "generated assessment",
    "risk_level": "HIGH",
    "impact_estimate": "localized impact",
    "time_sensitivity": "hours"
  },
  "immediate_actions": ["establish incident command", "assess affected area", "alert emergency services"],
  "resource_requirements": {
    "personnel": ["incident commander", "field responders"],
    "equipment": ["radios"],
    "facilities": ["staging area"]
  },
  "timeline": {
    "immediate": ["activate response"],
    "short_term": ["coordinate shelters"],
    "medium_term": ["begin recovery assessment"]
  },
  "coordination": {
    "lead_agency": "emergency management",
    "supporting_agencies": ["fire department"],
    "communication_plan": "hourly situation reports"
  },
  "confidence_score": %0.2f
}`, 0.9), nil
}

// CallCount returns the number of times Complete was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.CompleteFunc = nil
}
