package normalizer

import (
	"fmt"
	"github.com/maxaizer/job-digest/internal/domain/models"
	"strings"
)

// Classifier assigns a category using a keyword table. A rule matches when
// every keyword of the rule occurs in the text as whole tokens. Categories are
// tried in priority order, the first matching one wins.
type Classifier struct {
	rules    map[models.Category][][]string
	priority []models.Category
	fallback models.Category
}

func NewClassifier(table map[models.Category][][]string, priority []models.Category) (*Classifier, error) {
	if len(priority) == 0 {
		priority = models.AllCategories()
	}

	rules := make(map[models.Category][][]string, len(table))
	for _, category := range models.AllCategories() {
		for _, rule := range table[category] {
			var keywords []string
			for _, keyword := range rule {
				if normalized := strings.Join(tokens(keyword), " "); normalized != "" {
					keywords = append(keywords, normalized)
				}
			}
			if len(keywords) > 0 {
				rules[category] = append(rules[category], keywords)
			}
		}
		if len(rules[category]) == 0 {
			return nil, fmt.Errorf("category %s has no keywords", category)
		}
	}

	return &Classifier{rules: rules, priority: priority, fallback: models.RemoteWorldwide}, nil
}

// Classify returns the category for the location and title. lowConfidence is
// set when nothing matched and the fallback category was used.
func (c *Classifier) Classify(location, title string) (category models.Category, lowConfidence bool) {
	text := " " + strings.Join(tokens(location+" "+title), " ") + " "

	for _, candidate := range c.priority {
		for _, rule := range c.rules[candidate] {
			if matchesAll(text, rule) {
				return candidate, false
			}
		}
	}
	return c.fallback, true
}

func matchesAll(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if !strings.Contains(text, " "+keyword+" ") {
			return false
		}
	}
	return true
}
