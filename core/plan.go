// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// SituationAssessment summarizes the event a plan responds to.
type SituationAssessment struct {
	Summary         string    `json:"summary"`
	RiskLevel       RiskLevel `json:"risk_level"`
	ImpactEstimate  string    `json:"impact_estimate"`
	TimeSensitivity string    `json:"time_sensitivity"`
}

// ResourceRequirements lists what a response needs to execute.
type ResourceRequirements struct {
	Personnel  []string `json:"personnel"`
	Equipment  []string `json:"equipment"`
	Facilities []string `json:"facilities"`
}

// Empty reports whether no resources are listed in any category.
func (r *ResourceRequirements) Empty() bool {
	return len(r.Personnel) == 0 && len(r.Equipment) == 0 && len(r.Facilities) == 0
}

// ResponseTimeline phases the response into immediate, short-term and
// medium-term action groups.
type ResponseTimeline struct {
	Immediate  []string `json:"immediate"`   // 0-2 hours
	ShortTerm  []string `json:"short_term"`  // 2-24 hours
	MediumTerm []string `json:"medium_term"` // 1-7 days
}

// CoordinationPlan names the agencies involved and how they communicate.
type CoordinationPlan struct {
	LeadAgency         string   `json:"lead_agency"`
	SupportingAgencies []string `json:"supporting_agencies"`
	CommunicationPlan  string   `json:"communication_plan"`
}

// ActionPlan is the structured output of the pipeline.
// A plan is produced once per request, is immutable after creation,
// and may be cloned into a cache entry.
type ActionPlan struct {
	Assessment       SituationAssessment  `json:"situation_assessment"`
	ImmediateActions []string             `json:"immediate_actions"`
	Resources        ResourceRequirements `json:"resource_requirements"`
	Timeline         ResponseTimeline     `json:"timeline"`
	Coordination     CoordinationPlan     `json:"coordination"`
	Confidence       float64              `json:"confidence_score"`
	FallbackReason   string               `json:"fallback_reason,omitempty"`
	GeneratedAt      time.Time            `json:"generated_at"`
}

// Clone returns a deep copy of the plan.
func (p *ActionPlan) Clone() *ActionPlan {
	clone := *p
	clone.ImmediateActions = append([]string(nil), p.ImmediateActions...)
	clone.Resources = ResourceRequirements{
		Personnel:  append([]string(nil), p.Resources.Personnel...),
		Equipment:  append([]string(nil), p.Resources.Equipment...),
		Facilities: append([]string(nil), p.Resources.Facilities...),
	}
	clone.Timeline = ResponseTimeline{
		Immediate:  append([]string(nil), p.Timeline.Immediate...),
		ShortTerm:  append([]string(nil), p.Timeline.ShortTerm...),
		MediumTerm: append([]string(nil), p.Timeline.MediumTerm...),
	}
	clone.Coordination.SupportingAgencies = append([]string(nil), p.Coordination.SupportingAgencies...)
	return &clone
}

// MarshalJSON serializes the risk level as its uppercase label.
func (r RiskLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts the uppercase label or, for tolerance with model
// output, any case variant. Unknown labels fall back to MODERATE.
func (r *RiskLevel) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return fmt.Errorf("%w: risk level: %w", ErrInvalidPlan, err)
	}
	parsed, _ := ParseRiskLevel(label)
	*r = parsed
	return nil
}
