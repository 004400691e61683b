package scoring

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"github.com/maxaizer/job-digest/internal/domain/models"
	"strings"
)

// Generator is a text completion client such as clients/gemini or clients/genai.
type Generator interface {
	GenerateResponse(ctx context.Context, prompt string) (string, error)
	IsTransient(err error) bool
}

//go:embed prompt.md
var promptTemplate string

// GeminiCapability asks a generative model for a JSON verdict.
type GeminiCapability struct {
	generator Generator
}

func NewGeminiCapability(generator Generator) *GeminiCapability {
	return &GeminiCapability{generator: generator}
}

func (c *GeminiCapability) Score(ctx context.Context, posting models.CanonicalPosting,
	profile models.CandidateProfile) (Result, error) {

	prompt, err := buildPrompt(posting, profile)
	if err != nil {
		return Result{}, Permanent(err)
	}

	raw, err := c.generator.GenerateResponse(ctx, prompt)
	if err != nil {
		if c.generator.IsTransient(err) {
			return Result{}, Transient(err)
		}
		return Result{}, err
	}

	result, err := parseResponse(raw)
	if err != nil {
		return Result{}, Permanent(err)
	}
	return result, nil
}

func buildPrompt(posting models.CanonicalPosting, profile models.CandidateProfile) (string, error) {
	profileJSON, err := json.MarshalIndent(profile.Summary(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile summary: %w", err)
	}

	return strings.NewReplacer(
		"{{PROFILE_JSON}}", string(profileJSON),
		"{{TITLE}}", posting.Title,
		"{{COMPANY}}", posting.Company,
		"{{LOCATION}}", orNA(posting.Location),
		"{{DESCRIPTION}}", orNA(posting.Description),
	).Replace(promptTemplate), nil
}

func parseResponse(raw string) (Result, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return Result{}, fmt.Errorf("parse scoring response: %w", err)
	}

	score, ok := data["match_score"]
	if !ok {
		score = data["score"]
	}

	reasons := coerceStrings(data["match_reasons"])
	if len(reasons) == 0 {
		reasons = coerceStrings(data["reasons"])
	}

	gaps := coerceStrings(data["missing_skills"])
	if len(gaps) == 0 {
		gaps = coerceStrings(data["skill_gaps"])
	}

	return Result{Score: score, Reasons: reasons, SkillGaps: gaps}, nil
}

// extractJSON strips markdown fences and any prose around the first JSON object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.TrimSpace(strings.Trim(raw, "`"))

	start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}")
	if start != -1 && end > start {
		raw = raw[start : end+1]
	}
	return raw
}

func coerceStrings(v any) []string {
	switch val := v.(type) {
	case []any:
		var out []string
		for _, item := range val {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
	}
	return nil
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
