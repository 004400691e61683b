package scoring

import (
	"github.com/maxaizer/job-digest/internal/domain/models"
	"github.com/maxaizer/job-digest/internal/logger"
	"github.com/maxaizer/job-digest/internal/metrics"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"math"
	"strconv"
	"strings"
)

// normalizeScore turns the raw provider score into an integer in [0,100].
// ok is false when the value had to be clamped or coerced.
func normalizeScore(raw any) (score int, ok bool) {
	var value float64
	switch v := raw.(type) {
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case float64:
		value = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "%"), 64)
		if err != nil {
			return 0, false
		}
		value = parsed
	default:
		return 0, false
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}

	rounded := int(math.Round(value))
	switch {
	case rounded < 0:
		return 0, false
	case rounded > 100:
		return 100, false
	default:
		_, isNumber := raw.(string)
		return rounded, !isNumber && value == math.Trunc(value)
	}
}

func validate(posting models.CanonicalPosting, result Result) models.ScoredPosting {
	score, ok := normalizeScore(result.Score)
	if !ok {
		metrics.ScoreAnomaliesCounter.Inc()
		log.WithFields(log.Fields{
			"fingerprint": posting.Fingerprint,
			"raw_score":   result.Score,
			"score":       score,
		}).WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).Warn("scoring response had to be coerced")
	}

	return models.NewScored(posting, score, models.StatusScored, cleanList(result.Reasons), cleanList(result.SkillGaps))
}

func cleanList(values []string) []string {
	cleaned := lo.FilterMap(values, func(value string, _ int) (string, bool) {
		value = strings.TrimSpace(value)
		return value, value != ""
	})
	return lo.Uniq(cleaned)
}
