package models

import (
	"github.com/samber/lo"
	"time"
)

// SeenRecord is the durable dedup entry for one fingerprint.
type SeenRecord struct {
	Fingerprint string
	FirstSeen   time.Time
	LastSeen    time.Time
	SourceIDs   []SourceID
}

// Day truncates t to a UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func NewSeenRecord(fingerprint string, sourceIDs []SourceID, today time.Time) SeenRecord {
	day := Day(today)
	return SeenRecord{
		Fingerprint: fingerprint,
		FirstSeen:   day,
		LastSeen:    day,
		SourceIDs:   lo.Uniq(sourceIDs),
	}
}

// Touch returns the record updated for an encounter on today.
func (r SeenRecord) Touch(sourceIDs []SourceID, today time.Time) SeenRecord {
	day := Day(today)
	if day.After(r.LastSeen) {
		r.LastSeen = day
	}
	r.SourceIDs = MergeSourceIDs(r.SourceIDs, sourceIDs)
	return r
}
