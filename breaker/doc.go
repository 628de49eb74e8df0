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


// Package breaker implements a per-dependency circuit breaker.
//
// A Breaker passes calls through while CLOSED, trips OPEN after a run of
// consecutive failures, and probes recovery with a single HALF_OPEN trial
// call once the recovery timeout elapses. Callers rejected while OPEN
// receive ErrOpen and are expected to fall back rather than retry.
package breaker
