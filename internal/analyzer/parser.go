package analyzer

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/xaenox/cartcheck-bot/internal/models"
)

type wireItem struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Verdict     string `json:"verdict"`
	Reason      string `json:"reason"`
	Alternative string `json:"alternative"`
}

type wireReport struct {
	Items   []wireItem `json:"items"`
	Score   *int       `json:"score"`
	Summary string     `json:"summary"`
}

// parseReport extracts the JSON object from a raw provider reply and
// converts it into a CartReport. Models tend to wrap the object in
// prose or code fences, so everything outside the outermost braces is
// ignored.
func parseReport(raw string) (*models.CartReport, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var wire wireReport
	if err := json.Unmarshal([]byte(raw[start:end+1]), &wire); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(wire.Items) == 0 {
		return nil, fmt.Errorf("response contains no items")
	}

	report := &models.CartReport{
		Items:   make([]models.CartItem, 0, len(wire.Items)),
		Summary: strings.TrimSpace(wire.Summary),
	}
	for _, item := range wire.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		report.Items = append(report.Items, models.CartItem{
			Name:        name,
			Category:    strings.ToLower(strings.TrimSpace(item.Category)),
			Verdict:     normalizeVerdict(item.Verdict),
			Reason:      strings.TrimSpace(item.Reason),
			Alternative: strings.TrimSpace(item.Alternative),
		})
	}
	if len(report.Items) == 0 {
		return nil, fmt.Errorf("response contains no usable items")
	}

	if wire.Score != nil && *wire.Score >= 0 && *wire.Score <= 10 {
		report.Score = *wire.Score
	} else {
		report.Score = fallbackScore(report.Items)
	}

	return report, nil
}

// normalizeVerdict maps provider wording onto the verdict enum. Unknown
// values land on caution rather than failing the whole report.
func normalizeVerdict(raw string) models.Verdict {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "good", "great":
		return models.VerdictGood
	case "avoid", "reconsider", "bad":
		return models.VerdictAvoid
	default:
		return models.VerdictCaution
	}
}

// fallbackScore computes the cart score when the provider omits one:
// round(10 * good / (good + avoid)), counting only good and avoid
// verdicts. A cart with neither lands on a neutral 5.
func fallbackScore(items []models.CartItem) int {
	good, avoid := 0, 0
	for _, item := range items {
		switch item.Verdict {
		case models.VerdictGood:
			good++
		case models.VerdictAvoid:
			avoid++
		}
	}

	if good+avoid == 0 {
		return 5
	}
	return int(math.Round(10 * float64(good) / float64(good+avoid)))
}
