package normalizer

import (
	"fmt"
	"github.com/maxaizer/job-digest/internal/domain/models"
	"strings"
	"unicode/utf8"
)

type MalformedPostingError struct {
	Source string
	Field  string
}

func (e *MalformedPostingError) Error() string {
	return fmt.Sprintf("malformed posting from %s: missing %s", e.Source, e.Field)
}

// field spellings used by the known feeds
var (
	idKeys          = []string{"id", "job_id", "external_id"}
	titleKeys       = []string{"title", "position", "name"}
	companyKeys     = []string{"company", "company_name", "employer"}
	locationKeys    = []string{"location", "candidate_required_location", "area"}
	urlKeys         = []string{"url", "link", "apply_url"}
	descriptionKeys = []string{"description", "summary", "snippet"}
	postedAtKeys    = []string{"posted_at", "publication_date", "posted", "date"}
	categoryKeys    = []string{"category"}
)

// category hints some feeds already attach to their postings
var categoryHints = map[string]models.Category{
	"sponsorship_worldwide": models.VisaSponsorAbroad,
	"visa-sponsor-abroad":   models.VisaSponsorAbroad,
	"india_remote":          models.IndiaRemote,
	"india-remote":          models.IndiaRemote,
	"remote_worldwide":      models.RemoteWorldwide,
	"remote-worldwide":      models.RemoteWorldwide,
}

type Normalizer struct {
	classifier        *Classifier
	descriptionMaxLen int
}

// New creates a normalizer. descriptionMaxLen <= 0 keeps descriptions intact.
func New(classifier *Classifier, descriptionMaxLen int) *Normalizer {
	return &Normalizer{classifier: classifier, descriptionMaxLen: descriptionMaxLen}
}

func (n *Normalizer) Normalize(raw models.RawPosting, source string) (models.CanonicalPosting, error) {

	title := collapse(raw.String(titleKeys...))
	if title == "" {
		return models.CanonicalPosting{}, &MalformedPostingError{Source: source, Field: "title"}
	}

	company := collapse(raw.String(companyKeys...))
	if company == "" {
		return models.CanonicalPosting{}, &MalformedPostingError{Source: source, Field: "company"}
	}

	url := strings.TrimSpace(raw.String(urlKeys...))
	if url == "" {
		return models.CanonicalPosting{}, &MalformedPostingError{Source: source, Field: "url"}
	}

	id := strings.TrimSpace(raw.String(idKeys...))
	if id == "" {
		id = url
	}

	location := collapse(raw.String(locationKeys...))
	category, lowConfidence := n.classifier.Classify(location, title)
	if lowConfidence {
		if hint, ok := categoryHints[strings.ToLower(raw.String(categoryKeys...))]; ok {
			category, lowConfidence = hint, false
		}
	}

	return models.CanonicalPosting{
		SourceIDs:     []models.SourceID{{Source: source, ID: id}},
		Fingerprint:   Fingerprint(title, company, location),
		Title:         title,
		Company:       company,
		Location:      location,
		Category:      category,
		LowConfidence: lowConfidence,
		URL:           url,
		PostedAt:      raw.Time(postedAtKeys...),
		Description:   truncate(strings.TrimSpace(raw.String(descriptionKeys...)), n.descriptionMaxLen),
	}, nil
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}
