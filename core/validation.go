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
	"fmt"
	"strings"
	"time"
)

// MaxQueryTextLength caps sanitized query text. Longer input is truncated,
// not rejected.
const MaxQueryTextLength = 2000

// ValidateQuery validates a Query according to domain rules.
//
// Validation rules:
//   - Text must not be empty after trimming
//   - Location must not be empty after trimming
//
// NOT validated:
//   - Disaster (unknown tags are parsed to DisasterOther upstream)
//   - Severity (missing or out-of-range values are normalized to
//     SeverityModerate upstream, matching the disaster-tag treatment)
//   - Metadata (free-form)
func ValidateQuery(q *Query) error {
	if q == nil {
		return fmt.Errorf("%w: query is nil", ErrInvalidQuery)
	}

	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrEmptyQueryText)
	}

	if strings.TrimSpace(q.Location) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrMissingLocation)
	}

	return nil
}

// ValidateSeverity validates that a Severity has a valid value.
func ValidateSeverity(s Severity) error {
	if s < SeverityLow || s > SeverityCritical {
		return fmt.Errorf("%w: value %d", ErrInvalidSeverity, s)
	}
	return nil
}

// ValidatePlan checks that an ActionPlan is well-formed.
//
// A plan is well-formed only if it has a non-empty immediate-actions list
// and a populated resource-requirements object. Callers must repair or
// reject plans that fail this check.
func ValidatePlan(p *ActionPlan) error {
	if p == nil {
		return fmt.Errorf("%w: plan is nil", ErrInvalidPlan)
	}

	if len(p.ImmediateActions) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPlan, ErrNoImmediateActions)
	}

	if p.Resources.Empty() {
		return fmt.Errorf("%w: %w", ErrInvalidPlan, ErrEmptyResources)
	}

	return nil
}

// ValidateRecord validates a ReferenceRecord according to domain rules.
//
// Validation rules:
//   - Contents must not be empty
//   - Kind must be valid (incident or protocol)
//   - Timestamp must not be in the future
//
// NOT validated (populated by processors):
//   - Vector (can be empty until embedding processor runs)
//   - ID (0 is valid until assigned)
func ValidateRecord(record *ReferenceRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.Contents == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyContents)
	}

	if err := ValidateSourceKind(record.Kind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	if !IsValidTimestamp(record.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateSourceKind validates that a SourceKind has a valid value.
func ValidateSourceKind(kind SourceKind) error {
	if kind != SourceIncident && kind != SourceProtocol {
		return fmt.Errorf("%w: value %d", ErrInvalidSourceKind, kind)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}

// SanitizeText trims leading and trailing whitespace, collapses internal
// whitespace runs, and caps the result at MaxQueryTextLength.
func SanitizeText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > MaxQueryTextLength {
		text = text[:MaxQueryTextLength]
	}
	return text
}
