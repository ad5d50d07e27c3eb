package whatsapp

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xaenox/cartcheck-bot/internal/bot"
	"go.uber.org/zap"
)

// MediaDownloader resolves a provider media ID to raw bytes. Client
// implements it against the Cloud API.
type MediaDownloader interface {
	DownloadMedia(ctx context.Context, mediaID string) ([]byte, error)
}

// Webhook receives Cloud API deliveries, normalizes them into bot
// events, and answers Meta's verification handshake.
type Webhook struct {
	bot         *bot.Bot
	media       MediaDownloader
	verifyToken string
	logger      *zap.Logger
}

func NewWebhook(b *bot.Bot, media MediaDownloader, verifyToken string, logger *zap.Logger) *Webhook {
	return &Webhook{
		bot:         b,
		media:       media,
		verifyToken: verifyToken,
		logger:      logger,
	}
}

// Register mounts the webhook routes on the router.
func (w *Webhook) Register(router *gin.Engine) {
	router.GET("/", w.handleHealth)
	router.GET("/webhook", w.handleVerify)
	router.POST("/webhook", w.handleDelivery)
}

func (w *Webhook) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "Cart Check Bot"})
}

// handleVerify answers the subscription handshake: echo hub.challenge
// when the verify token matches.
func (w *Webhook) handleVerify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == w.verifyToken {
		w.logger.Info("Webhook verified")
		c.String(http.StatusOK, challenge)
		return
	}

	w.logger.Warn("Webhook verification failed", zap.String("mode", mode))
	c.String(http.StatusForbidden, "verification failed")
}

func (w *Webhook) handleDelivery(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		w.logger.Warn("Unparseable webhook payload", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	for _, ev := range w.normalize(c.Request.Context(), payload) {
		w.bot.HandleEvent(c.Request.Context(), ev)
	}

	// Always 200: the provider retries non-2xx deliveries, and a failed
	// turn is already reported to the user as a reply.
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// normalize flattens a delivery into bot events. Status-only deliveries
// produce none.
func (w *Webhook) normalize(ctx context.Context, payload webhookPayload) []bot.Event {
	var events []bot.Event
	for _, e := range payload.Entry {
		for _, ch := range e.Changes {
			names := make(map[string]string, len(ch.Value.Contacts))
			for _, ct := range ch.Value.Contacts {
				names[ct.WaID] = ct.Profile.Name
			}

			for _, msg := range ch.Value.Messages {
				ev := bot.Event{
					UserID: msg.From,
					Name:   names[msg.From],
				}

				switch {
				case msg.Type == "text" && msg.Text != nil:
					ev.Kind = bot.KindText
					ev.Text = msg.Text.Body

				case msg.Type == "image" && msg.Image != nil:
					image, err := w.media.DownloadMedia(ctx, msg.Image.ID)
					if err != nil {
						w.logger.Error("Failed to download media",
							zap.Error(err),
							zap.String("media_id", msg.Image.ID),
							zap.String("user_id", msg.From))
						ev.Kind = bot.KindUnsupported
						break
					}
					ev.Kind = bot.KindImage
					ev.Image = image

				default:
					ev.Kind = bot.KindUnsupported
				}

				events = append(events, ev)
			}
		}
	}
	return events
}
