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


package breaker

import "errors"

var (
	// ErrOpen is returned when the breaker rejects a call without
	// attempting the guarded dependency.
	ErrOpen = errors.New("circuit breaker open")

	// ErrTrialInFlight is returned when a half-open breaker already has
	// its single trial call in flight.
	ErrTrialInFlight = errors.New("circuit breaker trial in flight")

	// ErrNameRequired is returned when a breaker is created without a
	// dependency name.
	ErrNameRequired = errors.New("breaker name required")
)
