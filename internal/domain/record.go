package domain

import (
	"encoding/json"
	"time"
)

// Record is one row of a record sheet. Row is the 1-based sheet row the
// record was read from (0 when unknown); it is not part of the payload.
type Record struct {
	Row    int
	Values map[string]string
}

// NewRecord builds a record from field values.
func NewRecord(values map[Field]string) Record {
	r := Record{Values: make(map[string]string, len(values))}
	for f, v := range values {
		r.Values[string(f)] = v
	}
	return r
}

// Get returns the value stored under field, or "".
func (r Record) Get(f Field) string {
	return r.Values[string(f)]
}

// MarshalJSON emits only the field values.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.Values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.Values)
}

// UnmarshalJSON reads a flat object of field values.
func (r *Record) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &r.Values)
}

// SearchMode decides how keywords combine.
type SearchMode string

const (
	ModeAny SearchMode = "any"
	ModeAll SearchMode = "all"
)

// DateRange is an inclusive [Start, End] window over Field.
type DateRange struct {
	Field Field
	Start time.Time
	End   time.Time
}

// SortSpec orders a match result.
type SortSpec struct {
	Field      Field
	Descending bool
}

// MatchCriteria is the filter applied by the record matcher.
type MatchCriteria struct {
	Equality map[Field]string `json:"equality,omitempty"`

	// DigitNormalized fields in Equality compare by their digit projection.
	DigitNormalized map[Field]bool `json:"digit_normalized,omitempty"`

	// Normalized fields in Equality compare ignoring spacing and case.
	Normalized map[Field]bool `json:"normalized,omitempty"`

	Keywords      []string   `json:"keywords,omitempty"`
	Mode          SearchMode `json:"mode,omitempty"`
	KeywordFields []Field    `json:"keyword_fields,omitempty"`

	MemberName string     `json:"member_name,omitempty"`
	DateRange  *DateRange `json:"-"`

	Sort   SortSpec `json:"-"`
	Limit  int      `json:"limit,omitempty"`
	Offset int      `json:"offset,omitempty"`
}

// NewCriteria returns criteria with initialized maps and ModeAny.
func NewCriteria() *MatchCriteria {
	return &MatchCriteria{
		Equality:        make(map[Field]string),
		DigitNormalized: make(map[Field]bool),
		Normalized:      make(map[Field]bool),
		Mode:            ModeAny,
	}
}

// MatchResult is a filtered, sorted and paginated snapshot.
type MatchResult struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
	HasMore bool     `json:"has_more"`
}
