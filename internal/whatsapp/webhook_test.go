package whatsapp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/cartcheck-bot/internal/bot"
	"github.com/xaenox/cartcheck-bot/internal/models"
	"github.com/xaenox/cartcheck-bot/internal/storage"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []string
}

func (s *fakeSender) SendText(ctx context.Context, to, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, text)
	return nil
}

func (s *fakeSender) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return ""
	}
	return s.messages[len(s.messages)-1]
}

type fakeDownloader struct {
	data   []byte
	err    error
	lastID string
}

func (d *fakeDownloader) DownloadMedia(ctx context.Context, mediaID string) ([]byte, error) {
	d.lastID = mediaID
	return d.data, d.err
}

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(ctx context.Context, image []byte, goals, restrictions []string) (*models.CartReport, error) {
	return &models.CartReport{
		Items:   []models.CartItem{{Name: "Apples", Verdict: models.VerdictGood}},
		Score:   9,
		Summary: "Nice",
	}, nil
}

func newTestWebhook(downloader MediaDownloader) (*gin.Engine, *fakeSender, *storage.MemoryStorage) {
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStorage()
	sender := &fakeSender{}
	b := bot.New(store, stubAnalyzer{}, sender, zap.NewNop())

	router := gin.New()
	NewWebhook(b, downloader, "secret-token", zap.NewNop()).Register(router)
	return router, sender, store
}

func deliveryBody(messageJSON string) string {
	return fmt.Sprintf(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "entry-1",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"contacts": [{"profile": {"name": "Priya"}, "wa_id": "15551234567"}],
					"messages": [%s]
				}
			}]
		}]
	}`, messageJSON)
}

func TestWebhookVerify(t *testing.T) {
	router, _, _ := newTestWebhook(&fakeDownloader{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=secret-token&hub.challenge=4242", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "4242", w.Body.String())
}

func TestWebhookVerify_WrongToken(t *testing.T) {
	router, _, _ := newTestWebhook(&fakeDownloader{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=4242", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestWebhookDelivery_TextMessage(t *testing.T) {
	router, sender, store := newTestWebhook(&fakeDownloader{})

	body := deliveryBody(`{
		"from": "15551234567",
		"id": "wamid.1",
		"type": "text",
		"text": {"body": "hi"}
	}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, sender.last(), "Welcome to Cart Check, Priya")

	profile, err := store.GetOrCreate(context.Background(), "15551234567", "")
	require.NoError(t, err)
	require.Equal(t, models.StageAwaitingGoals, profile.Stage)
}

func TestWebhookDelivery_ImageMessage(t *testing.T) {
	downloader := &fakeDownloader{data: []byte("jpeg-bytes")}
	router, sender, _ := newTestWebhook(downloader)

	body := deliveryBody(`{
		"from": "15551234567",
		"id": "wamid.2",
		"type": "image",
		"image": {"id": "media-7", "mime_type": "image/jpeg"}
	}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "media-7", downloader.lastID)
	// New user sent a photo before onboarding.
	require.Contains(t, sender.last(), "finish setting up")
}

func TestWebhookDelivery_UnsupportedType(t *testing.T) {
	router, sender, _ := newTestWebhook(&fakeDownloader{})

	body := deliveryBody(`{
		"from": "15551234567",
		"id": "wamid.3",
		"type": "audio"
	}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, sender.last(), "text message or a photo")
}

func TestWebhookDelivery_StatusOnlyPayload(t *testing.T) {
	router, sender, _ := newTestWebhook(&fakeDownloader{})

	body := `{
		"object": "whatsapp_business_account",
		"entry": [{"id": "entry-1", "changes": [{"field": "messages", "value": {"messaging_product": "whatsapp"}}]}]
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, sender.last())
}
