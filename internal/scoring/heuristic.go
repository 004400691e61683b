package scoring

import (
	"fmt"
	"github.com/maxaizer/job-digest/internal/domain/models"
	"github.com/samber/lo"
	"strings"
	"unicode"
)

const heuristicCap = 85

var DefaultDomainKeywords = []string{
	"qa automation", "test automation", "sdet", "quality assurance",
	"selenium", "playwright", "cypress", "appium", "software tester",
	"automation engineer", "quality engineer", "test engineer", "qa engineer",
	"qa analyst", "automation tester", "software testing",
}

// DefaultSuggestedSkills are reported as gaps when the profile lacks them.
var DefaultSuggestedSkills = []string{"Cypress", "Playwright", "K6"}

var (
	seniorWords = []string{"senior", "lead", "principal"}
	juniorWords = []string{"junior", "associate"}
)

// Heuristic scores a posting from its title alone. It is used for postings
// whose description is too short to be worth an external call.
type Heuristic struct {
	domainKeywords  []string
	suggestedSkills []string
}

func NewHeuristic(domainKeywords, suggestedSkills []string) *Heuristic {
	if len(domainKeywords) == 0 {
		domainKeywords = DefaultDomainKeywords
	}
	if suggestedSkills == nil {
		suggestedSkills = DefaultSuggestedSkills
	}
	return &Heuristic{domainKeywords: domainKeywords, suggestedSkills: suggestedSkills}
}

func (h *Heuristic) Score(posting models.CanonicalPosting, profile models.CandidateProfile) (int, []string, []string) {
	title := padded(posting.Title)
	score := 0
	var reasons []string

	keywords := append(lo.Map(profile.TargetRoles, func(role string, _ int) string {
		return strings.ToLower(role)
	}), h.domainKeywords...)
	if lo.SomeBy(keywords, func(keyword string) bool { return containsWord(title, keyword) }) {
		score += 50
		reasons = append(reasons, "Job title matches your target roles")
	}

	switch {
	case profile.ExperienceYears >= 4 && containsAny(title, seniorWords):
		score += 20
		reasons = append(reasons, "Seniority level matches your experience")
	case profile.ExperienceYears <= 3 && containsAny(title, juniorWords):
		score += 20
		reasons = append(reasons, "Junior level matches your experience")
	case !containsAny(title, seniorWords) && !containsAny(title, juniorWords):
		score += 15
		reasons = append(reasons, "Mid-level position matches your profile")
	}

	if skill, ok := lo.Find(profile.Skills, func(skill string) bool {
		return containsWord(title, strings.ToLower(skill))
	}); ok {
		score += 10
		reasons = append(reasons, fmt.Sprintf("%s mentioned in job title", skill))
	}

	if len(reasons) == 0 {
		reasons = []string{"Title-based match"}
	}

	gaps := lo.Filter(h.suggestedSkills, func(skill string, _ int) bool { return !profile.HasSkill(skill) })
	if len(gaps) > 3 {
		gaps = gaps[:3]
	}

	return min(score, heuristicCap), reasons, gaps
}

// padded lower-cases s, splits it into words and pads the result with spaces
// so that whole words can be matched with strings.Contains.
func padded(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	return " " + strings.Join(words, " ") + " "
}

func containsWord(paddedText, phrase string) bool {
	phrase = padded(phrase)
	return phrase != "  " && strings.Contains(paddedText, phrase)
}

func containsAny(paddedText string, words []string) bool {
	return lo.SomeBy(words, func(word string) bool { return containsWord(paddedText, word) })
}
