package bot

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/xaenox/cartcheck-bot/internal/analyzer"
	"github.com/xaenox/cartcheck-bot/internal/models"
	"github.com/xaenox/cartcheck-bot/internal/storage"
	"go.uber.org/zap"
)

// MessageKind is the normalized type of an inbound message.
type MessageKind string

const (
	KindText        MessageKind = "text"
	KindImage       MessageKind = "image"
	KindUnsupported MessageKind = "unsupported"
)

// Event is a normalized inbound message. The webhook adapter builds it
// from the raw provider payload; the bot never sees that payload.
type Event struct {
	UserID string
	Name   string
	Kind   MessageKind
	Text   string
	Image  []byte
}

// Sender delivers outbound replies. The messaging provider client
// implements it.
type Sender interface {
	SendText(ctx context.Context, to, text string) error
}

// Bot runs the conversation state machine: one HandleEvent call per
// inbound message, replies go out through the Sender. Turns for the
// same user are serialized via the store's per-user lock; analyses get
// their own per-user lock so a slow vision call never blocks quick
// commands but a second photo still waits its turn.
type Bot struct {
	storage  storage.Storage
	analyzer analyzer.Analyzer
	sender   Sender
	logger   *zap.Logger

	analysisMu    sync.Mutex
	analysisLocks map[string]*sync.Mutex
}

func New(storage storage.Storage, analyzer analyzer.Analyzer, sender Sender, logger *zap.Logger) *Bot {
	return &Bot{
		storage:       storage,
		analyzer:      analyzer,
		sender:        sender,
		logger:        logger,
		analysisLocks: make(map[string]*sync.Mutex),
	}
}

// analysisLock serializes cart analyses per user. Lock ordering is
// always analysis lock first, then the store's turn lock.
func (b *Bot) analysisLock(userID string) func() {
	b.analysisMu.Lock()
	m, exists := b.analysisLocks[userID]
	if !exists {
		m = &sync.Mutex{}
		b.analysisLocks[userID] = m
	}
	b.analysisMu.Unlock()

	m.Lock()
	return m.Unlock
}

// HandleEvent processes one inbound message. Errors never escape a
// turn; the user always gets some reply.
func (b *Bot) HandleEvent(ctx context.Context, ev Event) {
	logger := b.logger.With(
		zap.String("turn_id", uuid.New().String()),
		zap.String("user_id", ev.UserID))

	switch ev.Kind {
	case KindText:
		b.handleText(ctx, logger, ev)
	case KindImage:
		b.handleImage(ctx, logger, ev)
	default:
		b.send(ctx, logger, ev.UserID, unsupportedText)
	}
}

func (b *Bot) handleText(ctx context.Context, logger *zap.Logger, ev Event) {
	unlock := b.storage.Lock(ev.UserID)
	defer unlock()

	profile, err := b.storage.GetOrCreate(ctx, ev.UserID, ev.Name)
	if err != nil {
		logger.Error("Failed to load profile", zap.Error(err))
		b.send(ctx, logger, ev.UserID, turnErrorText)
		return
	}

	text := strings.TrimSpace(ev.Text)
	lower := strings.ToLower(text)

	// reset works from any stage.
	if lower == "reset" || lower == "restart" || lower == "start over" {
		profile.Reset()
		if err := b.update(ctx, logger, profile); err != nil {
			b.send(ctx, logger, ev.UserID, turnErrorText)
			return
		}
		b.send(ctx, logger, ev.UserID, resetText)
		return
	}

	// A greeting re-shows the current step without discarding answers.
	// On a fresh profile it is just the first message.
	if (lower == "hi" || lower == "hello") && profile.Stage != models.StageNew {
		b.send(ctx, logger, ev.UserID, stagePrompt(profile.Stage))
		return
	}

	switch profile.Stage {
	case models.StageNew:
		profile.Stage = models.StageAwaitingGoals
		if err := b.update(ctx, logger, profile); err != nil {
			b.send(ctx, logger, ev.UserID, turnErrorText)
			return
		}
		b.send(ctx, logger, ev.UserID, welcomeText(profile.Name))

	case models.StageAwaitingGoals:
		tags, answered := models.GoalMenu.Parse(text)
		if !answered {
			b.send(ctx, logger, ev.UserID, goalRetryText)
			return
		}
		profile.Goals = tags
		profile.Stage = models.StageAwaitingRestrictions
		if err := b.update(ctx, logger, profile); err != nil {
			b.send(ctx, logger, ev.UserID, turnErrorText)
			return
		}
		b.send(ctx, logger, ev.UserID, restrictionPromptText(tags))

	case models.StageAwaitingRestrictions:
		tags, answered := models.RestrictionMenu.Parse(text)
		if !answered {
			b.send(ctx, logger, ev.UserID, restrictionRetryText)
			return
		}
		profile.Restrictions = tags
		profile.Stage = models.StageReady
		if err := b.update(ctx, logger, profile); err != nil {
			b.send(ctx, logger, ev.UserID, turnErrorText)
			return
		}
		b.send(ctx, logger, ev.UserID, readyText(profile))

	case models.StageReady:
		b.handleCommand(ctx, logger, profile, lower)

	default:
		// Unmodeled stage value, e.g. from a newer schema. Reroute to a
		// clean start instead of guessing.
		logger.Warn("Unknown stage, resetting", zap.String("stage", string(profile.Stage)))
		profile.Reset()
		if err := b.update(ctx, logger, profile); err != nil {
			b.send(ctx, logger, ev.UserID, turnErrorText)
			return
		}
		b.send(ctx, logger, ev.UserID, resetText)
	}
}

func (b *Bot) handleCommand(ctx context.Context, logger *zap.Logger, profile *models.UserProfile, command string) {
	switch command {
	case "help", "?":
		b.send(ctx, logger, profile.UserID, helpText)
	case "stats":
		b.send(ctx, logger, profile.UserID, statsText(profile))
	case "profile":
		b.send(ctx, logger, profile.UserID, profileText(profile))
	default:
		b.send(ctx, logger, profile.UserID, photoHintText)
	}
}

func (b *Bot) handleImage(ctx context.Context, logger *zap.Logger, ev Event) {
	release := b.analysisLock(ev.UserID)
	defer release()

	unlock := b.storage.Lock(ev.UserID)

	profile, err := b.storage.GetOrCreate(ctx, ev.UserID, ev.Name)
	if err != nil {
		unlock()
		logger.Error("Failed to load profile", zap.Error(err))
		b.send(ctx, logger, ev.UserID, turnErrorText)
		return
	}

	if profile.Stage != models.StageReady {
		unlock()
		b.send(ctx, logger, ev.UserID, finishSetupText)
		return
	}

	// Snapshot what the analyzer needs, then drop the lock: the vision
	// call is the slow part of the turn and must not hold it.
	goals := append([]string(nil), profile.Goals...)
	restrictions := append([]string(nil), profile.Restrictions...)
	unlock()

	b.send(ctx, logger, ev.UserID, analyzingText)

	report, err := b.analyzer.Analyze(ctx, ev.Image, goals, restrictions)
	if err != nil {
		logger.Error("Cart analysis failed", zap.Error(err))
		var analysisErr *analyzer.AnalysisError
		if errors.As(err, &analysisErr) && analysisErr.Kind == analyzer.ProviderUnavailable {
			b.send(ctx, logger, ev.UserID, providerDownText)
		} else {
			b.send(ctx, logger, ev.UserID, unreadableCartText)
		}
		return
	}

	// Re-acquire to commit stats. The profile may have changed during
	// the analysis (e.g. a concurrent reset); count against whatever is
	// current.
	unlock = b.storage.Lock(ev.UserID)
	profile, err = b.storage.GetOrCreate(ctx, ev.UserID, ev.Name)
	if err == nil {
		profile.CartsAnalyzed++
		profile.ItemsFlagged += report.FlaggedCount()
		err = b.storage.Update(ctx, profile)
	}
	unlock()
	if err != nil {
		logger.Error("Failed to commit stats", zap.Error(err))
	}

	b.send(ctx, logger, ev.UserID, FormatReport(report))
}

func (b *Bot) update(ctx context.Context, logger *zap.Logger, profile *models.UserProfile) error {
	if err := b.storage.Update(ctx, profile); err != nil {
		logger.Error("Failed to update profile",
			zap.Error(err),
			zap.String("stage", string(profile.Stage)))
		return err
	}
	return nil
}

func (b *Bot) send(ctx context.Context, logger *zap.Logger, to, text string) {
	if err := b.sender.SendText(ctx, to, text); err != nil {
		logger.Error("Failed to send message", zap.Error(err))
	}
}
