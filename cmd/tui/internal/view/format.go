package view

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
)

const (
	scanTimeout      = 2 * time.Minute
	reconcileTimeout = 30 * time.Second
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// FormatMoney formats an amount with two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatField renders a header field, marking values that were not read
// from the document.
func FormatField[T any](f invoice.Field[T], render func(T) string) string {
	switch f.State {
	case invoice.StateMissing:
		return faintStyle.Render("-")
	case invoice.StateExtracted:
		return render(f.Value)
	}

	return warnStyle.Render(fmt.Sprintf("%s (%s)", render(f.Value), f.State))
}

// Ctx returns a context with the given timeout for service calls.
func Ctx(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
