// Package telegram implements an event-bus subscriber that posts
// operator alerts to a single configured chat, grounded on the
// teacher's telegram.TgBot: the same tgbotapi client and the same
// per-event-type message composition, but simplified from the
// teacher's per-user subscription table to a single operator chat id
// (SPEC_FULL.md's notify surface is an operator alert channel, not an
// end-user subscription service) and driven by internal/eventbus
// instead of a hardcoded EventHandler fan-out call from each server
// handler.
package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"csms/internal/eventbus"
	"csms/ocpp/core"
)

// Bot relays domain events onto a single Telegram chat.
type Bot struct {
	api    *tgbotapi.BotAPI
	chatId int64
	logger core.Logger
}

func NewBot(token string, chatId int64, logger core.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Bot{api: api, chatId: chatId, logger: logger}, nil
}

// Run subscribes to bus and blocks, sending a message per relevant
// event, until sub is closed.
func (b *Bot) Run(sub *eventbus.Subscription) {
	for event := range sub.Events() {
		text := b.compose(event)
		if text == "" {
			continue
		}
		msg := tgbotapi.NewMessage(b.chatId, text)
		msg.ParseMode = "MarkdownV2"
		if _, err := b.api.Send(msg); err != nil {
			b.logger.Error("telegram: sending alert", err)
		}
	}
}

func (b *Bot) compose(event core.Event) string {
	switch event.Type {
	case core.EventChargePointConnected, core.EventChargePointDisconnected:
		return fmt.Sprintf("*%s*: %s\n", event.ChargePointId, event.Type)

	case core.EventChargePointStatusChanged, core.EventConnectorStatusChanged:
		if event.ConnectorId == 0 {
			return ""
		}
		msg := fmt.Sprintf("*%s*: Connector %d: `%s`\n", event.ChargePointId, event.ConnectorId, event.Status)
		if event.TransactionId >= 0 {
			msg += fmt.Sprintf("Transaction ID: %d\n", event.TransactionId)
		}
		if event.Info != "" {
			msg += fmt.Sprintf("%s\n", sanitize(event.Info))
		}
		return msg

	case core.EventTransactionStarted:
		msg := fmt.Sprintf("*%s*: Connector %d: `%s`\n", event.ChargePointId, event.ConnectorId, event.Status)
		msg += fmt.Sprintf("Transaction ID: %d START\n", event.TransactionId)
		msg += fmt.Sprintf("User: %s\n", event.Username)
		msg += fmt.Sprintf("ID Tag: %s\n", sanitize(event.IdTag))
		return msg

	case core.EventTransactionStopped:
		msg := fmt.Sprintf("*%s*: Connector %d: `%s`\n", event.ChargePointId, event.ConnectorId, event.Status)
		msg += fmt.Sprintf("Transaction ID: %d STOP\n", event.TransactionId)
		msg += fmt.Sprintf("User: %s\n", event.Username)
		msg += fmt.Sprintf("ID Tag: %s\n", sanitize(event.IdTag))
		if event.Info != "" {
			msg += fmt.Sprintf("Info: %s\n", sanitize(event.Info))
		}
		return msg

	case core.EventTransactionBilled:
		msg := fmt.Sprintf("*%s*: Connector %d billed\n", event.ChargePointId, event.ConnectorId)
		msg += fmt.Sprintf("Transaction ID: %d\n", event.TransactionId)
		if event.Info != "" {
			msg += fmt.Sprintf("%s\n", sanitize(event.Info))
		}
		return msg

	case core.EventAuthorizationResult:
		msg := fmt.Sprintf("*%s*: user: `%s`\n", event.ChargePointId, sanitize(event.IdTag))
		msg += fmt.Sprintf("Auth status: %s\n", event.Status)
		return msg

	case core.EventError:
		return fmt.Sprintf("*%s*: error: %s\n", event.ChargePointId, sanitize(event.Info))

	default:
		return ""
	}
}

func sanitize(input string) string {
	const reservedChars = "\\`*_{}[]()#+-.!|"
	var sb strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(char)
	}
	return sb.String()
}
