package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"macro-meal-planner/internal/config"
	"macro-meal-planner/internal/metrics"
	"macro-meal-planner/internal/planner"
)

// maxMessageLen is Telegram's limit for a single text message.
const maxMessageLen = 4096

const planTimeout = 2 * time.Minute

// Service is the part of the application the bot drives.
type Service interface {
	GeneratePlan(ctx context.Context, req planner.PlanRequest) (*planner.Plan, error)
	RecipeCount(ctx context.Context) (int, error)
	DailySummary(ctx context.Context, days int) ([]metrics.DailySummary, error)
	StorePath() string
}

// Bot wraps the Telegram API and the meal planner.
type Bot struct {
	api     *tgbotapi.BotAPI
	service Service
	cfg     *config.Config
	logger  *zap.Logger
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, service Service, logger *zap.Logger) (*Bot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("authorized on telegram", zap.String("account", api.Self.UserName))

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
		}
		resp, err := api.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		logger.Info("webhook set", zap.String("description", resp.Description))
	}

	return &Bot{api: api, service: service, cfg: cfg, logger: logger}, nil
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.logger.Warn("failed to parse update", zap.Error(err))
		return
	}
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	if !b.isAllowed(from.ID) {
		b.logger.Warn("unauthorized access attempt", zap.Int64("user_id", from.ID), zap.String("username", from.UserName))
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) isAllowed(userID int64) bool {
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if userID == id {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), planTimeout)
	defer cancel()

	text := b.respond(ctx, msg.From.ID, msg.Text)
	for _, part := range splitMessage(text, maxMessageLen) {
		if _, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, part)); err != nil {
			b.logger.Warn("failed to send reply", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
			return
		}
	}
}
