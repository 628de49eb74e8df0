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

import "errors"

// Domain validation errors
var (
	// ErrInvalidQuery indicates a Query failed validation.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEmptyQueryText indicates the query Text field is empty.
	ErrEmptyQueryText = errors.New("query text cannot be empty")

	// ErrMissingLocation indicates the query Location field is empty.
	ErrMissingLocation = errors.New("query location cannot be empty")

	// ErrInvalidSeverity indicates an invalid Severity value.
	ErrInvalidSeverity = errors.New("invalid severity")

	// ErrInvalidPlan indicates an ActionPlan failed validation.
	ErrInvalidPlan = errors.New("invalid action plan")

	// ErrNoImmediateActions indicates a plan has no immediate actions.
	ErrNoImmediateActions = errors.New("plan must list at least one immediate action")

	// ErrEmptyResources indicates a plan has an unpopulated resource-requirements object.
	ErrEmptyResources = errors.New("plan must list resource requirements")

	// ErrInvalidRecord indicates a ReferenceRecord failed validation.
	ErrInvalidRecord = errors.New("invalid reference record")

	// ErrEmptyContents indicates the record Contents field is empty.
	ErrEmptyContents = errors.New("contents cannot be empty")

	// ErrInvalidSourceKind indicates an invalid SourceKind value.
	ErrInvalidSourceKind = errors.New("invalid source kind")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrTruncatedEnvelope indicates serialized cache envelope bytes are too short.
	ErrTruncatedEnvelope = errors.New("truncated cache envelope")
)
