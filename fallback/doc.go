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


// Package fallback produces deterministic template action plans when
// generation is unavailable or the input is too degenerate to act on.
//
// Generation failures are classified (timeout, rate limit, network,
// validation, system) and the class is surfaced through the plan's
// fallback reason. Plans come from static per-disaster templates with
// an all-hazard template for unrecognized types, and their confidence
// is capped below what a successful generation can report.
package fallback
