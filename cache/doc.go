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


// Package cache implements the two-tier action plan cache.
//
// The in-process tier (ristretto) answers repeat lookups on one instance
// with a short TTL; the shared tier holds serialized plans for multiple
// hours and is consulted on local misses. A similarity-aware lookup over
// entries with the same disaster type and location absorbs paraphrased
// repeat queries that hash to different exact keys.
//
// All cache failures degrade: reads become misses, writes are logged.
// The cache never fails a request.
package cache
