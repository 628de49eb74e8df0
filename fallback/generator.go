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

package fallback

import (
	"fmt"
	"time"

	"github.com/poiesic/triage/core"
)

// MaxConfidence caps fallback plan confidence so a template plan never
// reports higher confidence than a successful generation.
const MaxConfidence = 0.85

const (
	templateConfidence  = 0.75
	allHazardConfidence = 0.60
)

// Generate builds a deterministic template plan for the query. Pure
// function, no I/O, never fails: every query gets a usable plan even
// when every upstream dependency is down.
//
// cause is the error that routed the request here; it is classified and
// surfaced through the plan's fallback reason.
func Generate(query core.Query, cause error) *core.ActionPlan {
	template, typed := templateFor(query.Disaster)

	risk := deriveRisk(template.baselineRisk, query.Severity)

	confidence := allHazardConfidence
	if typed {
		confidence = templateConfidence
	}
	if confidence > MaxConfidence {
		confidence = MaxConfidence
	}

	location := query.Location
	if location == "" {
		location = "the affected area"
	}

	return &core.ActionPlan{
		Assessment: core.SituationAssessment{
			Summary:         fmt.Sprintf("%s Location: %s.", template.summary, location),
			RiskLevel:       risk,
			ImpactEstimate:  template.impact,
			TimeSensitivity: template.sensitivity,
		},
		ImmediateActions: append([]string(nil), template.actions...),
		Resources: core.ResourceRequirements{
			Personnel:  append([]string(nil), template.resources.Personnel...),
			Equipment:  append([]string(nil), template.resources.Equipment...),
			Facilities: append([]string(nil), template.resources.Facilities...),
		},
		Timeline: core.ResponseTimeline{
			Immediate:  append([]string(nil), template.timeline.Immediate...),
			ShortTerm:  append([]string(nil), template.timeline.ShortTerm...),
			MediumTerm: append([]string(nil), template.timeline.MediumTerm...),
		},
		Coordination: core.CoordinationPlan{
			LeadAgency:         template.coordination.LeadAgency,
			SupportingAgencies: append([]string(nil), template.coordination.SupportingAgencies...),
			CommunicationPlan:  template.coordination.CommunicationPlan,
		},
		Confidence:     confidence,
		FallbackReason: ClassifyFailure(cause).Reason(),
		GeneratedAt:    time.Now().UTC(),
	}
}

// deriveRisk adjusts the template's baseline risk by reported severity.
// Severe or critical events always assess as CRITICAL; low-severity
// events step the baseline down once.
func deriveRisk(baseline core.RiskLevel, severity core.Severity) core.RiskLevel {
	switch {
	case severity >= core.SeveritySevere:
		return core.RiskCritical
	case severity == core.SeverityLow:
		return baseline.DeEscalate()
	default:
		return baseline
	}
}
