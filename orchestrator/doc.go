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


// Package orchestrator sequences a plan request through its state
// machine: validate, cache lookup, retrieve, generate, validate output,
// enrich, cache write.
//
// Each network dependency (generation provider, retrieval store, cache)
// is guarded by its own circuit breaker and timeout. Failures never
// surface to the caller: retrieval failures degrade to an empty prompt
// context, generation failures route to the template fallback, and cache
// failures degrade to miss or skipped write. The only error a caller can
// receive is input validation on a malformed query.
package orchestrator
