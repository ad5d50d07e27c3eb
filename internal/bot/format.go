package bot

import (
	"fmt"
	"strings"

	"github.com/xaenox/cartcheck-bot/internal/models"
)

const (
	analyzingText = "🔍 Analyzing your cart... This takes about 10 seconds."

	photoHintText = "📸 Send me a photo of your grocery cart and I'll check it for you!\n\nOr type 'help' for more options."

	finishSetupText = "Almost there! Let's finish setting up your profile first, then I can check your cart.\n\nSay \"hi\" to continue."

	resetText = "✅ Your profile has been reset. Say \"hi\" to set up again."

	unsupportedText = "Please send me a text message or a photo of your grocery cart! 📸"

	unreadableCartText = "🤔 I had trouble reading that cart. Could you try taking another photo with better lighting? Make sure the items are clearly visible!"

	providerDownText = "😅 Something went wrong analyzing your cart. Please try again in a moment!"

	turnErrorText = "⚠️ Sorry, something went wrong on my side. Please try again."

	helpText = `*Cart Check Help*

📸 *Check your cart:* Send a photo of your grocery cart

💬 *Commands:*
• "reset" - Start fresh
• "stats" - Your stats
• "profile" - View your profile
• "help" - This message`
)

var (
	goalRetryText = "Please reply with numbers (e.g., \"1, 2\") to select your health goals:\n\n" + menuLines(models.GoalMenu)

	restrictionRetryText = "Please reply with numbers (e.g., \"1, 3\") to select your restrictions, or \"none\":\n\n" + menuLines(models.RestrictionMenu)
)

func menuLines(menu models.Menu) string {
	var sb strings.Builder
	for i, opt := range menu {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%d️⃣ %s", opt.Index, opt.Label)
	}
	return sb.String()
}

func welcomeText(name string) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(`👋 *Welcome to Cart Check, %s!*

I help you make healthier grocery choices by checking your cart before checkout.

Let's set up your profile (takes 30 seconds):

*What are your health goals?*
Reply with the numbers (e.g., "1, 2"):

%s`, name, menuLines(models.GoalMenu))
}

func restrictionPromptText(goals []string) string {
	selected := "No specific goal - general wellness it is!"
	if len(goals) > 0 {
		selected = "You selected: " + strings.Join(models.GoalMenu.Labels(goals), ", ")
	}
	return fmt.Sprintf(`Great! %s

*Now, any foods you need to avoid?*
Reply with numbers (e.g., "1, 2, 3"):

%s

Or reply "none" if no restrictions.`, selected, menuLines(models.RestrictionMenu))
}

func readyText(profile *models.UserProfile) string {
	return fmt.Sprintf(`✅ *You're all set!*

*Your Profile:*
🎯 Goals: %s
🚫 Avoid: %s

━━━━━━━━━━━━━━━━━

*How to use Cart Check:*
📸 Take a photo of your grocery cart
📤 Send it to me
📋 Get instant health feedback + swap suggestions

🛒 Happy healthy shopping! 💚`, goalSummary(profile), restrictionSummary(profile))
}

func profileText(profile *models.UserProfile) string {
	return fmt.Sprintf(`👤 *Your Profile*

🎯 Goals: %s
🚫 Avoid: %s

Type "reset" to update your profile.`, goalSummary(profile), restrictionSummary(profile))
}

func statsText(profile *models.UserProfile) string {
	return fmt.Sprintf(`📊 *Your Cart Check Stats*

🛒 Carts checked: %d
🔄 Items flagged: %d
📅 Member since: %s

Keep making healthy choices! 💚`,
		profile.CartsAnalyzed,
		profile.ItemsFlagged,
		profile.CreatedAt.Format("2006-01-02"))
}

func goalSummary(profile *models.UserProfile) string {
	if len(profile.Goals) == 0 {
		return "General wellness"
	}
	return strings.Join(models.GoalMenu.Labels(profile.Goals), ", ")
}

func restrictionSummary(profile *models.UserProfile) string {
	if len(profile.Restrictions) == 0 {
		return "None"
	}
	return strings.Join(models.RestrictionMenu.Labels(profile.Restrictions), ", ")
}

// stagePrompt is what a greeting re-shows mid-dialog: the prompt for
// the step the user is on, with collected answers untouched.
func stagePrompt(stage models.Stage) string {
	switch stage {
	case models.StageAwaitingGoals:
		return goalRetryText
	case models.StageAwaitingRestrictions:
		return restrictionRetryText
	default:
		return photoHintText
	}
}

// FormatReport renders a cart report for WhatsApp. Output is a pure
// function of the report: good items first, then flagged items, both
// groups in detection order.
func FormatReport(report *models.CartReport) string {
	var lines []string
	lines = append(lines,
		"🛒 *Your Cart Health Report*",
		"━━━━━━━━━━━━━━━━━",
		fmt.Sprintf("Health Score: %s (%d/10)", scoreBar(report.Score), report.Score),
		"")

	var good, flagged []models.CartItem
	for _, item := range report.Items {
		if item.Verdict == models.VerdictGood {
			good = append(good, item)
		} else {
			flagged = append(flagged, item)
		}
	}

	if len(good) > 0 {
		lines = append(lines, "✅ *GREAT CHOICES:*")
		for _, item := range good {
			lines = append(lines, fmt.Sprintf("  • %s", item.Name))
		}
		lines = append(lines, "")
	}

	if len(flagged) > 0 {
		lines = append(lines, "🔄 *NEEDS ATTENTION:*")
		for _, item := range flagged {
			lines = append(lines, fmt.Sprintf("  • *%s*", item.Name))
			if item.Reason != "" {
				lines = append(lines, fmt.Sprintf("    _%s_", item.Reason))
			}
			if item.Alternative != "" {
				lines = append(lines, fmt.Sprintf("    → Try: %s", item.Alternative))
			}
		}
		lines = append(lines, "")
	}

	if report.Summary != "" {
		lines = append(lines, "💚 "+report.Summary, "")
	}
	lines = append(lines, "_Send another photo anytime!_")

	return strings.Join(lines, "\n")
}

func scoreBar(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return strings.Repeat("⭐", score) + strings.Repeat("☆", 10-score)
}
