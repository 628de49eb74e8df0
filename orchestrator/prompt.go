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


package orchestrator

import (
	"fmt"
	"strings"

	"github.com/poiesic/triage/core"
)

const planSchema = `{
  "type": "object",
  "properties": {
    "situation_assessment": {
      "type": "object",
      "properties": {
        "summary": {"type": "string"},
        "risk_level": {"type": "string", "enum": ["LOW", "MODERATE", "HIGH", "CRITICAL"]},
        "impact_estimate": {"type": "string"},
        "time_sensitivity": {"type": "string"}
      },
      "required": ["summary", "risk_level", "impact_estimate", "time_sensitivity"]
    },
    "immediate_actions": {"type": "array", "items": {"type": "string"}, "minItems": 3},
    "resource_requirements": {
      "type": "object",
      "properties": {
        "personnel": {"type": "array", "items": {"type": "string"}},
        "equipment": {"type": "array", "items": {"type": "string"}},
        "facilities": {"type": "array", "items": {"type": "string"}}
      },
      "required": ["personnel", "equipment"]
    },
    "timeline": {
      "type": "object",
      "properties": {
        "immediate": {"type": "array", "items": {"type": "string"}},
        "short_term": {"type": "array", "items": {"type": "string"}},
        "medium_term": {"type": "array", "items": {"type": "string"}}
      },
      "required": ["immediate", "short_term"]
    },
    "coordination": {
      "type": "object",
      "properties": {
        "lead_agency": {"type": "string"},
        "supporting_agencies": {"type": "array", "items": {"type": "string"}},
        "communication_plan": {"type": "string"}
      },
      "required": ["lead_agency"]
    },
    "confidence_score": {"type": "number", "minimum": 0, "maximum": 1}
  },
  "required": ["situation_assessment", "immediate_actions", "resource_requirements", "timeline", "coordination"]
}`

const promptTemplate = `You are an emergency response planner. Produce an actionable response plan for the situation below.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Immediate actions must be concrete, ordered by urgency, and executable by first responders.
- Ground the plan in the reference material when it is relevant; ignore references that do not apply.
- risk_level must reflect the reported severity and the situation described.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Situation:
- Description: %s
- Disaster type: %s
- Location: %s
- Reported severity: %s

%s`

// buildPrompt renders the generation prompt from the query and the
// retrieved reference context.
func buildPrompt(query core.Query, results []*core.RetrievalResult) string {
	return fmt.Sprintf(promptTemplate,
		planSchema,
		query.Text,
		query.Disaster.String(),
		query.Location,
		query.Severity.String(),
		renderContext(results))
}

// renderContext formats retrieval results as a numbered reference block.
// An empty result set renders an explicit no-references line so the
// model does not invent citations.
func renderContext(results []*core.RetrievalResult) string {
	if len(results) == 0 {
		return "Reference material: none available. Plan from general emergency management practice."
	}

	var b strings.Builder
	b.WriteString("Reference material (most relevant first):\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. [%s] %s: %s\n", i+1, r.Kind.String(), r.Title, r.Excerpt)
	}
	return b.String()
}
