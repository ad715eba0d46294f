package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatEventOrg renders an Event as an Org-mode block. Structured facts go
// in a PROPERTIES drawer so they stay searchable; the Notes heading is left
// for review.
func FormatEventOrg(e Event) string {
	heading := fmt.Sprintf("** %s %s %s (%s)",
		strings.ToUpper(string(e.TradeType)), e.Symbol, strings.ToUpper(string(e.Side)), shortID(e.OrderID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":ORDER_ID: %s\n", e.OrderID)
	fmt.Fprintf(&b, ":TIME: %s\n", e.Time.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":SYMBOL: %s\n", e.Symbol)
	fmt.Fprintf(&b, ":SIDE: %s\n", e.Side)
	fmt.Fprintf(&b, ":SIZE: %.8f\n", e.Size)
	fmt.Fprintf(&b, ":PRICE: %.2f\n", e.Price)
	fmt.Fprintf(&b, ":POSITION: %.8f -> %.8f\n", e.PositionSizeBefore, e.PositionSizeAfter)
	if e.EntryPrice > 0 {
		fmt.Fprintf(&b, ":ENTRY_PRICE: %.2f\n", e.EntryPrice)
	}
	if e.ExitPrice > 0 {
		fmt.Fprintf(&b, ":EXIT_PRICE: %.2f\n", e.ExitPrice)
	}
	fmt.Fprintf(&b, ":REALIZED_PNL: %.2f\n", e.RealizedPnL)
	fmt.Fprintf(&b, ":BALANCE: %.2f -> %.2f\n", e.BalanceBefore, e.BalanceAfter)
	fmt.Fprintf(&b, ":LEVERAGE: %d\n", e.Leverage)
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Notes\n")
	if e.Notes != "" {
		fmt.Fprintf(&b, "- %s\n", e.Notes)
	} else {
		b.WriteString("- \n")
	}

	return b.String()
}

// FormatEventsOrg renders multiple events separated by blank lines.
func FormatEventsOrg(events []Event) string {
	var b strings.Builder
	for i, e := range events {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatEventOrg(e))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 12 {
		return full
	}
	return full[:12]
}
