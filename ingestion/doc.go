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


// Package ingestion loads incident reports and response protocols into
// the reference store.
//
// Document writes are synchronous; embedding happens asynchronously on
// a worker pool with retry, so keyword search sees new documents at
// once and vector search picks them up as embeddings complete. Records
// whose embedding failed stay discoverable through ProcessPending.
package ingestion
