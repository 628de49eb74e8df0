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
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/poiesic/triage/core"
)

// parsePlan extracts an ActionPlan from raw generation output. The text
// is stripped of markdown fences and run through a light JSON repair
// before unmarshaling; anything still unusable is ErrMalformedCompletion
// so the caller routes to fallback instead of failing the request.
func parsePlan(text string) (*core.ActionPlan, error) {
	cleaned := stripFences(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrMalformedCompletion)
	}
	cleaned = repairJSON(cleaned)

	var plan core.ActionPlan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCompletion, err)
	}

	if err := checkRequiredSections(&plan); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCompletion, err)
	}

	return &plan, nil
}

// checkRequiredSections verifies the sections generation must supply.
// Sparse resources are tolerated here; enrichment backfills them.
func checkRequiredSections(plan *core.ActionPlan) error {
	if plan.Assessment.Summary == "" {
		return fmt.Errorf("missing situation assessment")
	}
	if len(plan.ImmediateActions) == 0 {
		return core.ErrNoImmediateActions
	}
	if len(plan.Timeline.Immediate) == 0 && len(plan.Timeline.ShortTerm) == 0 {
		return fmt.Errorf("missing timeline")
	}
	if plan.Coordination.LeadAgency == "" {
		return fmt.Errorf("missing coordination plan")
	}
	return nil
}

// stripFences removes surrounding markdown code fences from a completion.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// repairJSON fixes the missing-opening-quote key corruption some models
// produce, e.g. `{ risk_level": "HIGH" }` becomes `{ "risk_level": "HIGH" }`.
// Anything it cannot recognize is passed through untouched.
func repairJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	runes := []rune(s)
	for i := 0; i < len(runes); {
		ch := runes[i]
		b.WriteRune(ch)
		i++
		if ch != '{' && ch != ',' {
			continue
		}

		// Whitespace between the delimiter and a possible key
		for i < len(runes) && unicode.IsSpace(runes[i]) {
			b.WriteRune(runes[i])
			i++
		}
		if i >= len(runes) || runes[i] == '"' || !isKeyRune(runes[i]) {
			continue
		}

		// Bare identifier: only a key if it ends with `":`
		start := i
		for i < len(runes) && isKeyRune(runes[i]) {
			i++
		}
		if i+1 < len(runes) && runes[i] == '"' && runes[i+1] == ':' {
			b.WriteRune('"')
		}
		b.WriteString(string(runes[start:i]))
	}

	return b.String()
}

func isKeyRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
