package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DisasterType categorizes the kind of disaster event described by a query
// or reference record.
type DisasterType int

const (
	// DisasterOther is the catch-all for unrecognized disaster tags.
	DisasterOther DisasterType = iota
	DisasterWildfire
	DisasterFlood
	DisasterEarthquake
	DisasterCyclone
	DisasterHeatwave
	DisasterLandslide
)

var disasterNames = map[DisasterType]string{
	DisasterOther:      "other",
	DisasterWildfire:   "wildfire",
	DisasterFlood:      "flood",
	DisasterEarthquake: "earthquake",
	DisasterCyclone:    "cyclone",
	DisasterHeatwave:   "heatwave",
	DisasterLandslide:  "landslide",
}

// String returns the lowercase tag for the disaster type.
func (d DisasterType) String() string {
	if name, ok := disasterNames[d]; ok {
		return name
	}
	return "other"
}

// ParseDisasterType maps a free-form tag to a DisasterType.
// Unknown tags map to DisasterOther with ok=false so callers can log them.
func ParseDisasterType(tag string) (DisasterType, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for dt, name := range disasterNames {
		if name == tag {
			return dt, true
		}
	}
	return DisasterOther, false
}

// Severity expresses the reported severity of an event.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityModerate
	SeverityHigh
	SeveritySevere
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityLow:      "low",
	SeverityModerate: "moderate",
	SeverityHigh:     "high",
	SeveritySevere:   "severe",
	SeverityCritical: "critical",
}

// String returns the lowercase tag for the severity.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "moderate"
}

// ParseSeverity maps a free-form tag to a Severity.
// Unknown tags map to SeverityModerate with ok=false.
func ParseSeverity(tag string) (Severity, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for s, name := range severityNames {
		if name == tag {
			return s, true
		}
	}
	return SeverityModerate, false
}

// RiskLevel is the assessed risk in a plan's situation assessment.
// It is serialized as an uppercase label in plan JSON.
type RiskLevel int

const (
	RiskLow RiskLevel = iota + 1
	RiskModerate
	RiskHigh
	RiskCritical
)

var riskNames = map[RiskLevel]string{
	RiskLow:      "LOW",
	RiskModerate: "MODERATE",
	RiskHigh:     "HIGH",
	RiskCritical: "CRITICAL",
}

// String returns the uppercase label for the risk level.
func (r RiskLevel) String() string {
	if name, ok := riskNames[r]; ok {
		return name
	}
	return "MODERATE"
}

// ParseRiskLevel maps a label to a RiskLevel.
// Unknown labels map to RiskModerate with ok=false.
func ParseRiskLevel(label string) (RiskLevel, bool) {
	label = strings.ToUpper(strings.TrimSpace(label))
	for r, name := range riskNames {
		if name == label {
			return r, true
		}
	}
	return RiskModerate, false
}

// Escalate raises the risk level by one step, capped at RiskCritical.
func (r RiskLevel) Escalate() RiskLevel {
	if r >= RiskCritical {
		return RiskCritical
	}
	return r + 1
}

// DeEscalate lowers the risk level by one step, floored at RiskLow.
func (r RiskLevel) DeEscalate() RiskLevel {
	if r <= RiskLow {
		return RiskLow
	}
	return r - 1
}

// Query describes a single incoming disaster event.
// A Query is immutable once submitted; a new one is constructed per request.
type Query struct {
	Text     string
	Disaster DisasterType
	Location string
	Severity Severity
	Metadata map[string]string // Optional structured metadata (e.g., "source", "reporter")
}

// SourceKind identifies which corpus a reference record belongs to.
type SourceKind int

const (
	// SourceIncident is a historical incident report.
	SourceIncident SourceKind = iota + 1
	// SourceProtocol is a reference response protocol.
	SourceProtocol
)

// String returns the lowercase tag for the source kind.
func (k SourceKind) String() string {
	switch k {
	case SourceIncident:
		return "incident"
	case SourceProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// ReferenceRecord is a stored incident report or response protocol.
// It may be enriched with an embedding vector during ingestion processing.
type ReferenceRecord struct {
	Id         ID
	Kind       SourceKind
	Title      string
	Contents   string
	Disaster   DisasterType
	Severity   Severity
	Location   string
	Timestamp  time.Time // When the incident occurred or the protocol was issued
	InsertedAt time.Time // When the record was inserted into the database
	UpdatedAt  time.Time // When the record was last updated
	Vector     []float32 // Embedding vector for semantic search (populated by processors)
	Metadata   map[string]string
}

// RetrievalResult is one ranked hit from the hybrid retrieval engine.
// Results are produced per query and discarded after the orchestration
// call that generated them.
type RetrievalResult struct {
	Id           ID
	Kind         SourceKind
	Title        string
	Excerpt      string
	VectorScore  float32 // Raw similarity from the vector sub-search
	KeywordScore float32 // Raw relevance from the keyword sub-search
	Combined     float32 // Normalized combined score
	Timestamp    time.Time
	Final        bool // Set on the synthetic escalation result for degenerate queries
}

// SearchResult pairs a full reference record with a relevance score.
type SearchResult struct {
	Record *ReferenceRecord
	Score  float32
}
