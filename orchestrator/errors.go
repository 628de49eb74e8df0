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

import "errors"

var (
	// ErrEngineRequired is returned when a retrieval engine is not provided.
	ErrEngineRequired = errors.New("retrieval engine required")

	// ErrCacheRequired is returned when a plan cache is not provided.
	ErrCacheRequired = errors.New("plan cache required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrMalformedCompletion is returned internally when generation output
	// does not parse into a usable plan. It routes to fallback, never to
	// the caller.
	ErrMalformedCompletion = errors.New("malformed generation output")

	// ErrInsufficientSpecificity routes degenerate queries to an
	// escalation plan without attempting generation.
	ErrInsufficientSpecificity = errors.New("invalid query: insufficient specificity for generation")
)
