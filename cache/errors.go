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


package cache

import "errors"

var (
	// ErrStoreRequired is returned when a shared cache store is not provided.
	ErrStoreRequired = errors.New("cache store required")

	// ErrLocalCacheInit is returned when the in-process tier cannot be built.
	ErrLocalCacheInit = errors.New("local cache init failed")
)
