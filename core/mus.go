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
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the types that go through BadgerDB. Written by hand
// rather than generated: the stored shapes are small and stable, and the
// cache envelope carries an opaque payload that a generated struct mapping
// would not model.

// IDMUS serializes IDs.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

// zeroTimeMark encodes time.Time{} so zero timestamps round-trip.
const zeroTimeMark = math.MinInt64

func marshalTime(ts time.Time, bs []byte) int {
	v := int64(zeroTimeMark)
	if !ts.IsZero() {
		v = ts.UnixMicro()
	}
	return varint.Int64.Marshal(v, bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	if v == zeroTimeMark {
		return time.Time{}, n, nil
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func sizeTime(ts time.Time) int {
	v := int64(zeroTimeMark)
	if !ts.IsZero() {
		v = ts.UnixMicro()
	}
	return varint.Int64.Size(v)
}

func marshalVector(vec []float32, bs []byte) int {
	n := varint.Int.Marshal(len(vec), bs)
	for _, f := range vec {
		n += varint.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) ([]float32, int, error) {
	count, n, err := varint.Int.Unmarshal(bs)
	if err != nil || count == 0 {
		return nil, n, err
	}
	vec := make([]float32, count)
	for i := 0; i < count; i++ {
		f, c, err := varint.Float32.Unmarshal(bs[n:])
		n += c
		if err != nil {
			return nil, n, err
		}
		vec[i] = f
	}
	return vec, n, nil
}

func sizeVector(vec []float32) int {
	size := varint.Int.Size(len(vec))
	for _, f := range vec {
		size += varint.Float32.Size(f)
	}
	return size
}

func marshalStringMap(m map[string]string, bs []byte) int {
	n := varint.Int.Marshal(len(m), bs)
	for k, v := range m {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(v, bs[n:])
	}
	return n
}

func unmarshalStringMap(bs []byte) (map[string]string, int, error) {
	count, n, err := varint.Int.Unmarshal(bs)
	if err != nil || count == 0 {
		return nil, n, err
	}
	m := make(map[string]string, count)
	for i := 0; i < count; i++ {
		k, c, err := ord.String.Unmarshal(bs[n:])
		n += c
		if err != nil {
			return nil, n, err
		}
		v, c, err := ord.String.Unmarshal(bs[n:])
		n += c
		if err != nil {
			return nil, n, err
		}
		m[k] = v
	}
	return m, n, nil
}

func sizeStringMap(m map[string]string) int {
	size := varint.Int.Size(len(m))
	for k, v := range m {
		size += ord.String.Size(k)
		size += ord.String.Size(v)
	}
	return size
}

// ReferenceRecordMUS serializes ReferenceRecords.
var ReferenceRecordMUS = referenceRecordMUS{}

type referenceRecordMUS struct{}

func (referenceRecordMUS) Marshal(record ReferenceRecord, bs []byte) int {
	n := IDMUS.Marshal(record.Id, bs)
	n += varint.Int.Marshal(int(record.Kind), bs[n:])
	n += ord.String.Marshal(record.Title, bs[n:])
	n += ord.String.Marshal(record.Contents, bs[n:])
	n += varint.Int.Marshal(int(record.Disaster), bs[n:])
	n += varint.Int.Marshal(int(record.Severity), bs[n:])
	n += ord.String.Marshal(record.Location, bs[n:])
	n += marshalTime(record.Timestamp, bs[n:])
	n += marshalTime(record.InsertedAt, bs[n:])
	n += marshalTime(record.UpdatedAt, bs[n:])
	n += marshalVector(record.Vector, bs[n:])
	n += marshalStringMap(record.Metadata, bs[n:])
	return n
}

func (referenceRecordMUS) Unmarshal(bs []byte) (ReferenceRecord, int, error) {
	var record ReferenceRecord
	id, n, err := IDMUS.Unmarshal(bs)
	if err != nil {
		return record, n, err
	}
	record.Id = id

	kind, c, err := varint.Int.Unmarshal(bs[n:])
	n += c
	if err != nil {
		return record, n, err
	}
	record.Kind = SourceKind(kind)

	if record.Title, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return record, n + c, err
	}
	n += c
	if record.Contents, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return record, n + c, err
	}
	n += c

	disaster, c, err := varint.Int.Unmarshal(bs[n:])
	n += c
	if err != nil {
		return record, n, err
	}
	record.Disaster = DisasterType(disaster)

	severity, c, err := varint.Int.Unmarshal(bs[n:])
	n += c
	if err != nil {
		return record, n, err
	}
	record.Severity = Severity(severity)

	if record.Location, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return record, n + c, err
	}
	n += c
	if record.Timestamp, c, err = unmarshalTime(bs[n:]); err != nil {
		return record, n + c, err
	}
	n += c
	if record.InsertedAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return record, n + c, err
	}
	n += c
	if record.UpdatedAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return record, n + c, err
	}
	n += c
	if record.Vector, c, err = unmarshalVector(bs[n:]); err != nil {
		return record, n + c, err
	}
	n += c
	if record.Metadata, c, err = unmarshalStringMap(bs[n:]); err != nil {
		return record, n + c, err
	}
	n += c

	return record, n, nil
}

func (referenceRecordMUS) Size(record ReferenceRecord) int {
	size := IDMUS.Size(record.Id)
	size += varint.Int.Size(int(record.Kind))
	size += ord.String.Size(record.Title)
	size += ord.String.Size(record.Contents)
	size += varint.Int.Size(int(record.Disaster))
	size += varint.Int.Size(int(record.Severity))
	size += ord.String.Size(record.Location)
	size += sizeTime(record.Timestamp)
	size += sizeTime(record.InsertedAt)
	size += sizeTime(record.UpdatedAt)
	size += sizeVector(record.Vector)
	size += sizeStringMap(record.Metadata)
	return size
}

// CacheEnvelope wraps a serialized plan payload for the shared cache tier.
// The payload is opaque to storage: it is the plan's canonical JSON.
type CacheEnvelope struct {
	Key        CacheKey
	Text       string // Normalized query text, kept for near-duplicate lookup
	Disaster   DisasterType
	Location   string
	Payload    []byte
	InsertedAt time.Time
	TTL        time.Duration
}

// Expired reports whether the envelope's TTL has elapsed relative to now.
func (e *CacheEnvelope) Expired(now time.Time) bool {
	return e.TTL > 0 && now.After(e.InsertedAt.Add(e.TTL))
}

// CacheEnvelopeMUS serializes CacheEnvelopes.
var CacheEnvelopeMUS = cacheEnvelopeMUS{}

type cacheEnvelopeMUS struct{}

func (cacheEnvelopeMUS) Marshal(e CacheEnvelope, bs []byte) int {
	n := copy(bs, e.Key[:])
	n += ord.String.Marshal(e.Text, bs[n:])
	n += varint.Int.Marshal(int(e.Disaster), bs[n:])
	n += ord.String.Marshal(e.Location, bs[n:])
	n += varint.Int.Marshal(len(e.Payload), bs[n:])
	n += copy(bs[n:], e.Payload)
	n += marshalTime(e.InsertedAt, bs[n:])
	n += varint.Int64.Marshal(int64(e.TTL), bs[n:])
	return n
}

func (cacheEnvelopeMUS) Unmarshal(bs []byte) (CacheEnvelope, int, error) {
	var e CacheEnvelope
	if len(bs) < CacheKeySize {
		return e, 0, ErrTruncatedEnvelope
	}
	n := copy(e.Key[:], bs[:CacheKeySize])

	var c int
	var err error
	if e.Text, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + c, err
	}
	n += c

	disaster, c, err := varint.Int.Unmarshal(bs[n:])
	n += c
	if err != nil {
		return e, n, err
	}
	e.Disaster = DisasterType(disaster)

	if e.Location, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + c, err
	}
	n += c

	payloadLen, c, err := varint.Int.Unmarshal(bs[n:])
	n += c
	if err != nil {
		return e, n, err
	}
	if payloadLen < 0 || n+payloadLen > len(bs) {
		return e, n, ErrTruncatedEnvelope
	}
	e.Payload = make([]byte, payloadLen)
	n += copy(e.Payload, bs[n:n+payloadLen])

	if e.InsertedAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return e, n + c, err
	}
	n += c

	ttl, c, err := varint.Int64.Unmarshal(bs[n:])
	n += c
	if err != nil {
		return e, n, err
	}
	e.TTL = time.Duration(ttl)

	return e, n, nil
}

func (cacheEnvelopeMUS) Size(e CacheEnvelope) int {
	size := CacheKeySize
	size += ord.String.Size(e.Text)
	size += varint.Int.Size(int(e.Disaster))
	size += ord.String.Size(e.Location)
	size += varint.Int.Size(len(e.Payload))
	size += len(e.Payload)
	size += sizeTime(e.InsertedAt)
	size += varint.Int64.Size(int64(e.TTL))
	return size
}
