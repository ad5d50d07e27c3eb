package analyzer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/xaenox/cartcheck-bot/internal/models"
	"go.uber.org/zap"
)

const visionPrompt = `You are a friendly health-conscious grocery shopping assistant called "Cart Check".

Analyze this shopping cart image and identify the food items visible.

USER'S HEALTH PROFILE:
- Health Goals: %s
- Dietary Restrictions: %s

For each item, give a verdict:
- "good" - supports their health goals
- "caution" - neutral, fine in moderation
- "avoid" - conflicts with their goals or restrictions

For caution/avoid items, suggest a specific healthier alternative when you know one.

Respond with exactly one JSON object in this structure:
{
    "items": [
        {
            "name": "item name",
            "category": "coarse food category, e.g. produce, snack, beverage",
            "verdict": "good" or "caution" or "avoid",
            "reason": "brief reason (only for caution/avoid items)",
            "alternative": "suggested swap (only for caution/avoid items)"
        }
    ],
    "score": 7,
    "summary": "a brief, friendly encouraging takeaway"
}

The score is an integer 1-10 for overall cart healthiness for this user.
Items must appear in the order you detect them in the image.
Be warm, supportive, and non-judgmental.`

// VisionAnalyzer sends cart photos to an OpenAI vision model and parses
// the structured reply.
type VisionAnalyzer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

func NewVisionAnalyzer(apiKey, model string, maxTokens int, temperature float64, timeout time.Duration, logger *zap.Logger) *VisionAnalyzer {
	return &VisionAnalyzer{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
		logger:      logger,
	}
}

func (a *VisionAnalyzer) Analyze(ctx context.Context, image []byte, goals, restrictions []string) (*models.CartReport, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := buildPrompt(goals, restrictions)
	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := a.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: a.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role: openai.ChatMessageRoleUser,
					MultiContent: []openai.ChatMessagePart{
						{
							Type: openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{
								URL:    imageURL,
								Detail: openai.ImageURLDetailAuto,
							},
						},
						{
							Type: openai.ChatMessagePartTypeText,
							Text: prompt,
						},
					},
				},
			},
			MaxTokens:   a.maxTokens,
			Temperature: float32(a.temperature),
		},
	)
	if err != nil {
		a.logger.Error("Vision request failed", zap.Error(err))
		return nil, &AnalysisError{Kind: ProviderUnavailable, Err: err}
	}

	if len(resp.Choices) == 0 {
		return nil, &AnalysisError{Kind: MalformedResponse, Err: fmt.Errorf("response has no choices")}
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	report, err := parseReport(raw)
	if err != nil {
		a.logger.Error("Failed to parse vision response",
			zap.Error(err),
			zap.String("response", raw))
		return nil, &AnalysisError{Kind: MalformedResponse, Err: err}
	}

	return report, nil
}

func buildPrompt(goals, restrictions []string) string {
	goalsStr := "general health"
	if len(goals) > 0 {
		goalsStr = strings.Join(models.GoalMenu.Labels(goals), ", ")
	}
	restrictionsStr := "none specified"
	if len(restrictions) > 0 {
		restrictionsStr = strings.Join(models.RestrictionMenu.Labels(restrictions), ", ")
	}
	return fmt.Sprintf(visionPrompt, goalsStr, restrictionsStr)
}

var _ Analyzer = (*VisionAnalyzer)(nil)
