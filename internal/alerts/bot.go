package alerts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/leePettigrew/it-triage-demo/internal/config"
)

// Enqueuer resubmits a ticket to the routing queue.
type Enqueuer interface {
	Enqueue(ticketID int64) bool
}

// Bot is the Telegram operator channel: it announces routing attempts that
// failed hard (corpus unavailable) and lets an operator requeue a ticket
// with /retry. A nil *Bot is valid and does nothing, mirroring the
// disabled-by-config case.
type Bot struct {
	api    *tgbotapi.BotAPI
	chatID int64
	queue  Enqueuer
	logger *zap.Logger
}

// NewBot creates the operator bot, or (nil, nil) when alerts are disabled.
func NewBot(cfg *config.Config, queue Enqueuer, logger *zap.Logger) (*Bot, error) {
	if !cfg.Alerts.Enabled || cfg.Alerts.TelegramBotToken == "" {
		logger.Info("Operator alerts are disabled (alerts.enabled=false or token is empty)")
		return nil, nil
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Alerts.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Operator alert bot authorized", zap.String("username", botAPI.Self.UserName))

	return &Bot{
		api:    botAPI,
		chatID: cfg.Alerts.TelegramChatID,
		queue:  queue,
		logger: logger,
	}, nil
}

// Start begins listening for operator commands.
func (b *Bot) Start(ctx context.Context) error {
	if b == nil {
		return nil // Bot is disabled
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Operator alert bot started, waiting for commands...")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Operator alert bot shutting down...")
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			if update.Message != nil {
				b.handleMessage(update.Message)
			}
		}
	}
}

// RoutingFailed sends a failure notice to the operator chat. Best-effort:
// delivery problems are logged, never returned.
func (b *Bot) RoutingFailed(ticketID int64, reason error) {
	if b == nil {
		return
	}

	text := fmt.Sprintf("⚠️ Routing failed for ticket #%d\n%v\n\nTicket left unrouted. Use /retry %d to requeue.", ticketID, reason, ticketID)
	b.sendMessage(text)
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	text := strings.TrimSpace(message.Text)

	switch {
	case strings.HasPrefix(text, "/retry"):
		b.handleRetry(text)
	case text == "/start" || text == "/help":
		b.sendMessage("Triage operator bot.\n/retry <ticket_id> — requeue a ticket for routing")
	}
}

func (b *Bot) handleRetry(text string) {
	parts := strings.Fields(text)
	if len(parts) != 2 {
		b.sendMessage("Usage: /retry <ticket_id>")
		return
	}

	ticketID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		b.sendMessage(fmt.Sprintf("❌ %q is not a ticket id", parts[1]))
		return
	}

	if b.queue.Enqueue(ticketID) {
		b.logger.Info("Operator requeued ticket", zap.Int64("ticket_id", ticketID))
		b.sendMessage(fmt.Sprintf("✅ Ticket #%d requeued for routing", ticketID))
	} else {
		b.sendMessage(fmt.Sprintf("❌ Routing queue is full, ticket #%d not requeued", ticketID))
	}
}

func (b *Bot) sendMessage(text string) {
	msg := tgbotapi.NewMessage(b.chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send operator alert", zap.Error(err))
	}
}
