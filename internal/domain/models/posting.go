package models

import (
	"fmt"
	"github.com/samber/lo"
	"strings"
	"time"
)

type Category string

const (
	VisaSponsorAbroad Category = "visa-sponsor-abroad"
	IndiaRemote       Category = "india-remote"
	RemoteWorldwide   Category = "remote-worldwide"
)

func AllCategories() []Category {
	return []Category{VisaSponsorAbroad, IndiaRemote, RemoteWorldwide}
}

func ToCategory(s string) (Category, error) {
	switch Category(s) {
	case VisaSponsorAbroad, IndiaRemote, RemoteWorldwide:
		return Category(s), nil
	default:
		return "", fmt.Errorf("invalid category: %q", s)
	}
}

// RawPosting is a source specific record. Field names differ between sources,
// so accessors accept several candidate keys.
type RawPosting struct {
	Fields map[string]any
}

func NewRawPosting(fields map[string]any) RawPosting {
	return RawPosting{Fields: fields}
}

// String returns the first non-empty string value found under keys.
func (r RawPosting) String(keys ...string) string {
	for _, key := range keys {
		value, ok := r.Fields[key]
		if !ok || value == nil {
			continue
		}
		var str string
		switch v := value.(type) {
		case string:
			str = v
		case fmt.Stringer:
			str = v.String()
		case float64:
			str = fmt.Sprintf("%.0f", v)
		case int, int64:
			str = fmt.Sprintf("%d", v)
		default:
			continue
		}
		if strings.TrimSpace(str) != "" {
			return str
		}
	}
	return ""
}

var postedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time parses the first value under keys that matches a known layout.
func (r RawPosting) Time(keys ...string) *time.Time {
	for _, key := range keys {
		switch v := r.Fields[key].(type) {
		case time.Time:
			if !v.IsZero() {
				return &v
			}
		case string:
			for _, layout := range postedAtLayouts {
				if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
					return &t
				}
			}
		}
	}
	return nil
}

type SourceID struct {
	Source string `json:"source"`
	ID     string `json:"id"`
}

func (s SourceID) String() string {
	return s.Source + ":" + s.ID
}

// MergeSourceIDs returns the union of both lists, keeping first-seen order.
func MergeSourceIDs(a, b []SourceID) []SourceID {
	return lo.Uniq(append(append([]SourceID{}, a...), b...))
}

type CanonicalPosting struct {
	SourceIDs     []SourceID `json:"source_ids"`
	Fingerprint   string     `json:"fingerprint"`
	Title         string     `json:"title"`
	Company       string     `json:"company"`
	Location      string     `json:"location"`
	Category      Category   `json:"category"`
	LowConfidence bool       `json:"low_confidence,omitempty"`
	URL           string     `json:"url"`
	PostedAt      *time.Time `json:"posted_at,omitempty"`
	Description   string     `json:"description,omitempty"`
}

// Absorb folds a duplicate of the same posting from another source into p.
// Display fields of p win; empty optional fields are filled from other.
func (p *CanonicalPosting) Absorb(other CanonicalPosting) {
	p.SourceIDs = MergeSourceIDs(p.SourceIDs, other.SourceIDs)
	if p.PostedAt == nil {
		p.PostedAt = other.PostedAt
	}
	if len(p.Description) < len(other.Description) {
		p.Description = other.Description
	}
	if p.LowConfidence && !other.LowConfidence {
		p.Category = other.Category
		p.LowConfidence = false
	}
}
