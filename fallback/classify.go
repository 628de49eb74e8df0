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
	"context"
	"errors"
	"strings"
)

// FailureClass categorizes why generation could not produce a plan.
type FailureClass string

const (
	FailureTimeout    FailureClass = "timeout"
	FailureRateLimit  FailureClass = "rate_limit"
	FailureNetwork    FailureClass = "network"
	FailureValidation FailureClass = "validation"
	FailureSystem     FailureClass = "system"
)

// ClassifyFailure maps an error from the generation path to a failure
// class. Unrecognized errors class as system.
func ClassifyFailure(err error) FailureClass {
	if err == nil {
		return FailureSystem
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return FailureTimeout
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") || strings.Contains(msg, "quota"):
		return FailureRateLimit
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network") ||
		strings.Contains(msg, "refused") || strings.Contains(msg, "unreachable") ||
		strings.Contains(msg, "no such host"):
		return FailureNetwork
	case strings.Contains(msg, "parse") || strings.Contains(msg, "invalid") ||
		strings.Contains(msg, "malformed") || strings.Contains(msg, "unmarshal"):
		return FailureValidation
	default:
		return FailureSystem
	}
}

// Reason renders a human-readable fallback reason for the class.
func (f FailureClass) Reason() string {
	switch f {
	case FailureTimeout:
		return "generation timed out; serving template response plan"
	case FailureRateLimit:
		return "generation provider rate limited; serving template response plan"
	case FailureNetwork:
		return "generation provider unreachable; serving template response plan"
	case FailureValidation:
		return "generated plan failed validation; serving template response plan"
	default:
		return "generation unavailable; serving template response plan"
	}
}
