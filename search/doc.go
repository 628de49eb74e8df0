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


// Package search provides hybrid retrieval over reference records.
//
// The Engine type runs two sub-searches concurrently:
//   - Semantic search using vector embeddings
//   - Keyword relevance with stop-word filtering
//
// The two ranked lists are normalized by rank decay and merged with
// tunable weights into a single result list. A failure in either
// sub-search degrades the call to the surviving source.
package search
