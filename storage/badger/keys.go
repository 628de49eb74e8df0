package badger

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/poiesic/triage/core"
)

// Key prefixes for different data types
const (
	recordPrefix    = "refrec"
	recordWordIndex = "refrecw"
	planPrefix      = "plan"
	planCtxIndex    = "planctx"
)

// makeRecordKey generates a key for a reference record by ID.
func makeRecordKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", recordPrefix, id))
}

// makeWordKey generates a composite key for the keyword index.
// Format: prefix:hex(token):id
// The token segment is hex-encoded because tokens can carry an internal
// ':' ("10:30" survives edge trimming), which would otherwise let a
// short token's prefix scan match a longer token's keys.
func makeWordKey(token string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", recordWordIndex, hex.EncodeToString([]byte(token)), id))
}

// makeWordPrefix generates a partial key for keyword lookups.
// Format: prefix:hex(token):
func makeWordPrefix(token string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", recordWordIndex, hex.EncodeToString([]byte(token))))
}

// makePlanKey generates a key for a cached plan envelope.
func makePlanKey(key core.CacheKey) []byte {
	return []byte(planPrefix + ":" + key.String())
}

// makePlanCtxKey generates a composite key for the plan context index.
// Format: prefix:disaster:location:cachekey
// The location is normalized so lookups are case-insensitive.
func makePlanCtxKey(disaster core.DisasterType, location string, key core.CacheKey) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:%s",
		planCtxIndex, disaster.String(), normalizeLocation(location), key.String()))
}

// makePlanCtxPrefix generates a partial key for plan context scans.
// Format: prefix:disaster:location:
func makePlanCtxPrefix(disaster core.DisasterType, location string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:",
		planCtxIndex, disaster.String(), normalizeLocation(location)))
}

// planKeyFromCtxKey recovers the cache key from a plan context index key.
func planKeyFromCtxKey(indexKey []byte) (core.CacheKey, bool) {
	var key core.CacheKey

	s := string(indexKey)
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return key, false
	}

	raw, err := hex.DecodeString(s[i+1:])
	if err != nil || len(raw) != core.CacheKeySize {
		return key, false
	}
	copy(key[:], raw)
	return key, true
}

func normalizeLocation(location string) string {
	return strings.ToLower(strings.Join(strings.Fields(location), " "))
}
