package remotive

import (
	"encoding/json"
	"fmt"
	"time"
)

type Job struct {
	ID                        int        `json:"id"`
	URL                       string     `json:"url"`
	Title                     string     `json:"title"`
	CompanyName               string     `json:"company_name"`
	Category                  string     `json:"category"`
	JobType                   string     `json:"job_type"`
	PublicationDate           CustomTime `json:"publication_date"`
	CandidateRequiredLocation string     `json:"candidate_required_location"`
	Salary                    string     `json:"salary"`
	Description               string     `json:"description"`
}

type CustomTime struct {
	time.Time
}

var publicationLayouts = []string{"2006-01-02T15:04:05", time.RFC3339}

func (dt *CustomTime) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	if str == "" {
		return nil
	}

	for _, layout := range publicationLayouts {
		if t, err := time.Parse(layout, str); err == nil {
			dt.Time = t
			return nil
		}
	}
	return fmt.Errorf("parsing time %s: unknown layout", str)
}
