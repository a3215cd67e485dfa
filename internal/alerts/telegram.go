package alerts

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender sends alerts to one or more Telegram chats
type TelegramSender struct {
	api     *tgbotapi.BotAPI
	chatIDs []int64
}

// NewTelegramSender creates a new Telegram sender. It validates the token
// against the Bot API before returning.
func NewTelegramSender(token string, chatIDs []int64) (*TelegramSender, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &TelegramSender{
		api:     api,
		chatIDs: chatIDs,
	}, nil
}

// Send delivers the alert to every configured chat. A failure on one chat
// does not stop delivery to the rest; the errors are collected.
func (s *TelegramSender) Send(ctx context.Context, payload *AlertPayload) error {
	text := s.buildMessage(payload)
	keyboard := s.buildKeyboard(payload)

	var errs []error
	for _, chatID := range s.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.DisableWebPagePreview = true
		if keyboard != nil {
			msg.ReplyMarkup = *keyboard
		}

		if _, err := s.api.Send(msg); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("telegram send errors: %v", errs)
	}

	return nil
}

func (s *TelegramSender) buildMessage(payload *AlertPayload) string {
	if payload.Message != "" {
		return payload.Message
	}

	var sb strings.Builder
	sb.WriteString(s.title(payload))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("*%s* (%s)\n", escapeMarkdown(payload.Name), escapeMarkdown(payload.Symbol)))
	sb.WriteString(fmt.Sprintf("Pair: `%s`\n", payload.PairAddress))
	if payload.ChainID != "" {
		sb.WriteString(fmt.Sprintf("Chain: %s", payload.ChainID))
		if payload.DexID != "" {
			sb.WriteString(fmt.Sprintf(" • %s", payload.DexID))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("\nPrice: *%s*\n", formatPrice(payload.PriceUSD)))
	if payload.LiquidityUSD > 0 {
		sb.WriteString(fmt.Sprintf("Liquidity: $%.0f\n", payload.LiquidityUSD))
	}
	if payload.VolumeUSD > 0 {
		sb.WriteString(fmt.Sprintf("Volume: $%.0f\n", payload.VolumeUSD))
	}

	switch payload.Kind {
	case KindGrowth, KindStopLoss, KindTrailingStop:
		sb.WriteString(fmt.Sprintf("\nEntry: %s\n", formatPrice(payload.EntryPrice)))
		sb.WriteString(fmt.Sprintf("From entry: *%+.1f%%*\n", payload.ChangeFromEntryPct))
		if payload.Kind == KindTrailingStop {
			sb.WriteString(fmt.Sprintf("Peak: %s (%.1f%% off)\n", formatPrice(payload.PeakPrice), -payload.ChangeFromPeakPct))
		}
	case KindRug:
		sb.WriteString(fmt.Sprintf("\nLiquidity drop from peak: *%.1f%%*\n", payload.LiquidityDropPct))
	}

	return sb.String()
}

func (s *TelegramSender) title(payload *AlertPayload) string {
	switch payload.Kind {
	case KindNewToken:
		return "🆕 New token spotted"
	case KindEntry:
		return "🎯 Tracking started"
	case KindGrowth:
		return "🚀 Price milestone"
	case KindStopLoss:
		return "🛑 Stop-loss hit"
	case KindTrailingStop:
		return "📉 Trailing stop hit"
	case KindRug:
		return "🚨 Liquidity pulled (possible rug)"
	default:
		return "ℹ️ Update"
	}
}

func (s *TelegramSender) buildKeyboard(payload *AlertPayload) *tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton

	if payload.PairURL != "" {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL("📊 Chart", payload.PairURL))
	}
	if payload.TokenAddress != "" {
		swapURL := fmt.Sprintf("https://jup.ag/swap/SOL-%s", payload.TokenAddress)
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL("🔄 Swap", swapURL))
	}

	if len(buttons) == 0 {
		return nil
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(buttons...))
	return &keyboard
}

// formatPrice keeps enough precision for sub-cent token prices without
// printing twelve digits for prices above a dollar.
func formatPrice(price float64) string {
	switch {
	case price <= 0:
		return "n/a"
	case price < 0.001:
		return fmt.Sprintf("$%.8f", price)
	case price < 1:
		return fmt.Sprintf("$%.6f", price)
	default:
		return fmt.Sprintf("$%.4f", price)
	}
}

// escapeMarkdown strips the characters Telegram's legacy Markdown parser
// chokes on in token names.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer("*", "", "_", "", "`", "", "[", "", "]", "")
	return replacer.Replace(s)
}
