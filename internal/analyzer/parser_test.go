package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaenox/cartcheck-bot/internal/models"
)

func TestParseReport_WellFormed(t *testing.T) {
	raw := `{
		"items": [
			{"name": "Spinach", "category": "produce", "verdict": "good"},
			{"name": "Cola", "category": "beverage", "verdict": "avoid",
			 "reason": "High sugar", "alternative": "Sparkling water with lemon"}
		],
		"score": 6,
		"summary": "A solid start!"
	}`

	report, err := parseReport(raw)
	require.NoError(t, err)
	require.Len(t, report.Items, 2)
	require.Equal(t, 6, report.Score)
	require.Equal(t, "A solid start!", report.Summary)
	require.Equal(t, models.VerdictGood, report.Items[0].Verdict)
	require.Equal(t, models.VerdictAvoid, report.Items[1].Verdict)
	require.Equal(t, "Sparkling water with lemon", report.Items[1].Alternative)
}

func TestParseReport_IgnoresSurroundingProse(t *testing.T) {
	raw := "Sure! Here is the analysis:\n```json\n" +
		`{"items":[{"name":"Apples","verdict":"good"}],"score":9,"summary":"Nice"}` +
		"\n```\nLet me know if you need anything else."

	report, err := parseReport(raw)
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	require.Equal(t, 9, report.Score)
}

func TestParseReport_MissingScoreFallsBack(t *testing.T) {
	raw := `{"items":[
		{"name":"Oats","verdict":"good"},
		{"name":"Chips","verdict":"avoid"},
		{"name":"Bananas","verdict":"good"}
	],"summary":"ok"}`

	report, err := parseReport(raw)
	require.NoError(t, err)
	// round(10 * 2 / 3) = 7
	require.Equal(t, 7, report.Score)
}

func TestParseReport_OutOfRangeScoreFallsBack(t *testing.T) {
	raw := `{"items":[{"name":"Oats","verdict":"good"}],"score":42,"summary":""}`

	report, err := parseReport(raw)
	require.NoError(t, err)
	require.Equal(t, 10, report.Score)
}

func TestParseReport_VerdictSynonyms(t *testing.T) {
	raw := `{"items":[
		{"name":"a","verdict":"GOOD"},
		{"name":"b","verdict":"okay"},
		{"name":"c","verdict":"reconsider"},
		{"name":"d","verdict":"something-new"}
	],"score":5}`

	report, err := parseReport(raw)
	require.NoError(t, err)
	require.Equal(t, models.VerdictGood, report.Items[0].Verdict)
	require.Equal(t, models.VerdictCaution, report.Items[1].Verdict)
	require.Equal(t, models.VerdictAvoid, report.Items[2].Verdict)
	require.Equal(t, models.VerdictCaution, report.Items[3].Verdict)
}

func TestParseReport_Malformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"I could not see any items in the image.",
		"{not json}",
		`{"items":[]}`,
		`{"items":[{"name":"   "}]}`,
	} {
		_, err := parseReport(raw)
		require.Error(t, err, "raw %q", raw)
	}
}

func TestFallbackScore(t *testing.T) {
	good := models.CartItem{Verdict: models.VerdictGood}
	avoid := models.CartItem{Verdict: models.VerdictAvoid}
	caution := models.CartItem{Verdict: models.VerdictCaution}

	tests := []struct {
		name  string
		items []models.CartItem
		want  int
	}{
		{"all good", []models.CartItem{good, good}, 10},
		{"all avoid", []models.CartItem{avoid, avoid}, 0},
		{"good avoid good", []models.CartItem{good, avoid, good}, 7},
		{"caution only is neutral", []models.CartItem{caution, caution}, 5},
		{"empty is neutral", nil, 5},
		{"caution does not count", []models.CartItem{good, caution, avoid}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, fallbackScore(tt.items))
			// Deterministic for repeated identical inputs.
			require.Equal(t, tt.want, fallbackScore(tt.items))
		})
	}
}
