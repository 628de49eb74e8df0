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


package core

import (
	"encoding/hex"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// CacheKeySize is the digest length of a CacheKey in bytes.
const CacheKeySize = 16

// CacheKey is a deterministic digest identifying a logical query.
// Identical logical queries always hash to the same key: the digest is
// computed over a canonical field ordering, not over any serialized form
// that could vary.
type CacheKey [CacheKeySize]byte

// String returns the hex encoding of the key.
func (k CacheKey) String() string {
	return hex.EncodeToString(k[:])
}

// Bytes returns the key as a byte slice.
func (k CacheKey) Bytes() []byte {
	return k[:]
}

// KeyForQuery computes the CacheKey for a query.
// The digest covers normalized text, disaster type, location and severity
// in a fixed order. Metadata is excluded: it does not change the logical
// identity of a query.
func KeyForQuery(q Query) CacheKey {
	h, _ := blake2b.New(CacheKeySize, nil)
	h.Write([]byte(NormalizeText(q.Text)))
	h.Write([]byte{0})
	h.Write([]byte(q.Disaster.String()))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(q.Location))))
	h.Write([]byte{0})
	h.Write([]byte(q.Severity.String()))

	var key CacheKey
	copy(key[:], h.Sum(nil))
	return key
}

// NormalizeText lowercases text and collapses runs of whitespace to a
// single space. Used for cache key derivation and fuzzy comparison so
// that trivial formatting differences do not defeat cache hits.
func NormalizeText(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}
