package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaenox/cartcheck-bot/internal/models"
)

func sampleReport() *models.CartReport {
	return &models.CartReport{
		Items: []models.CartItem{
			{Name: "Kaju Katli", Category: "snack", Verdict: models.VerdictAvoid,
				Reason: "Contains nuts and sugar", Alternative: "Fresh mango"},
			{Name: "Spinach", Category: "produce", Verdict: models.VerdictGood},
			{Name: "Paneer", Category: "dairy", Verdict: models.VerdictCaution,
				Alternative: "Tofu"},
			{Name: "Brown Rice", Category: "grain", Verdict: models.VerdictGood},
		},
		Score:   6,
		Summary: "You're doing great - a couple of easy swaps!",
	}
}

func TestFormatReport_Deterministic(t *testing.T) {
	report := sampleReport()
	require.Equal(t, FormatReport(report), FormatReport(report))
}

func TestFormatReport_GroupsPreserveDetectionOrder(t *testing.T) {
	text := FormatReport(sampleReport())

	// Good items come as one group, flagged items as another, each in
	// detection order.
	spinach := strings.Index(text, "Spinach")
	rice := strings.Index(text, "Brown Rice")
	kaju := strings.Index(text, "Kaju Katli")
	paneer := strings.Index(text, "Paneer")
	require.True(t, spinach >= 0 && rice >= 0 && kaju >= 0 && paneer >= 0)
	require.Less(t, spinach, rice)
	require.Less(t, kaju, paneer)

	goodHeader := strings.Index(text, "GREAT CHOICES")
	flaggedHeader := strings.Index(text, "NEEDS ATTENTION")
	require.Less(t, goodHeader, spinach)
	require.Less(t, flaggedHeader, kaju)
	require.Greater(t, flaggedHeader, rice)
}

func TestFormatReport_AlternativesAndReasons(t *testing.T) {
	text := FormatReport(sampleReport())
	require.Contains(t, text, "→ Try: Fresh mango")
	require.Contains(t, text, "→ Try: Tofu")
	require.Contains(t, text, "_Contains nuts and sugar_")
}

func TestFormatReport_ScoreBar(t *testing.T) {
	text := FormatReport(sampleReport())
	require.Contains(t, text, "(6/10)")
	require.Contains(t, text, strings.Repeat("⭐", 6)+strings.Repeat("☆", 4))
}

func TestFormatReport_NoFlaggedItems(t *testing.T) {
	report := &models.CartReport{
		Items: []models.CartItem{
			{Name: "Lentils", Verdict: models.VerdictGood},
		},
		Score:   10,
		Summary: "Perfect cart!",
	}

	text := FormatReport(report)
	require.Contains(t, text, "GREAT CHOICES")
	require.NotContains(t, text, "NEEDS ATTENTION")
	require.Contains(t, text, "💚 Perfect cart!")
}

func TestScoreBar_Clamps(t *testing.T) {
	require.Equal(t, strings.Repeat("☆", 10), scoreBar(-3))
	require.Equal(t, strings.Repeat("⭐", 10), scoreBar(99))
}
