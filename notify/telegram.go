// Package notify forwards ledger events to chat.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"

	"github.com/rustyeddy/leverbot/journal"
)

// Sender is the part of *tele.Bot used here.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Telegram is a journal.Journal that posts each event to one chat.
type Telegram struct {
	sender Sender
	chat   tele.ChatID
	log    zerolog.Logger
}

type Option func(*Telegram)

func WithLogger(log zerolog.Logger) Option {
	return func(t *Telegram) { t.log = log }
}

// NewTelegram builds an offline bot: it only sends and never polls.
func NewTelegram(token string, chatID int64, opts ...Option) (*Telegram, error) {
	b, err := tele.NewBot(tele.Settings{
		Token:   token,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return NewTelegramWith(b, chatID, opts...), nil
}

func NewTelegramWith(s Sender, chatID int64, opts ...Option) *Telegram {
	t := &Telegram{sender: s, chat: tele.ChatID(chatID), log: zerolog.Nop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Telegram) RecordEvent(e journal.Event) error {
	if _, err := t.sender.Send(t.chat, Format(e), tele.ModeHTML); err != nil {
		t.log.Warn().Err(err).Str("order_id", e.OrderID).Msg("telegram send failed")
		return fmt.Errorf("telegram: %w", err)
	}
	return nil
}

func (t *Telegram) Close() error { return nil }

// Format renders e as a short HTML message.
func Format(e journal.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s %s %s</b>\n", strings.ToUpper(string(e.TradeType)), e.Symbol, strings.ToUpper(string(e.Side)))
	fmt.Fprintf(&b, "size %.8f @ %.2f\n", e.Size, e.Price)
	fmt.Fprintf(&b, "position %.8f → %.8f\n", e.PositionSizeBefore, e.PositionSizeAfter)
	if e.TradeType != journal.TradeOpen && e.RealizedPnL != 0 {
		fmt.Fprintf(&b, "pnl %+.2f USDT\n", e.RealizedPnL)
	}
	fmt.Fprintf(&b, "balance %.2f\n", e.BalanceAfter)
	if e.Notes != "" {
		fmt.Fprintf(&b, "<i>%s</i>\n", escape(e.Notes))
	}
	fmt.Fprintf(&b, "<code>%s</code> %s", escape(e.OrderID), e.Time.UTC().Format(time.RFC3339))
	return b.String()
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string { return htmlEscaper.Replace(s) }
