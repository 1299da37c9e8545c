package baggage

import "time"

// RecordType distinguishes check-in scans from retrieval scans.
type RecordType string

const (
	RecordTag      RecordType = "tag"
	RecordRetrieve RecordType = "retrieve"
)

// Record is one scan event. Records belong exclusively to a session partition
// and are never mutated after creation.
type Record struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	Code      string     `json:"code"`
	Type      RecordType `json:"type"`
	Matched   bool       `json:"matched"`
	Client    string     `json:"client,omitempty"`
	CreatedAt int64      `json:"created_at"` // unix milliseconds
}

// Time returns the record timestamp as a time.Time.
func (r Record) Time() time.Time {
	return time.UnixMilli(r.CreatedAt)
}

// Summary holds the report counters for a set of records.
type Summary struct {
	Tags      int `json:"tags"`
	Retrieves int `json:"retrieves"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
}

// Tally computes report counters over records.
func Tally(recs []Record) Summary {
	var s Summary
	for _, r := range recs {
		switch r.Type {
		case RecordTag:
			s.Tags++
		case RecordRetrieve:
			s.Retrieves++
			if r.Matched {
				s.Matched++
			} else {
				s.Unmatched++
			}
		}
	}
	return s
}
