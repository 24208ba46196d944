package tui

import (
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/i18n"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/ledger"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("238")).Padding(0, 2)
	modalStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	menuStyle     = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1).MarginLeft(4)
	sectionStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Payment method badges, keyed by ledger.PaymentMethodBadgeClass.
var badgeStyles = map[string]lipgloss.Style{
	"badge-success": lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("42")).Padding(0, 1),
	"badge-info":    lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("39")).Padding(0, 1),
	"badge-accent":  lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("171")).Padding(0, 1),
	"badge-neutral": lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("241")).Padding(0, 1),
}

var defaultBadgeStyle = lipgloss.NewStyle().Padding(0, 1)

func badge(method string, t i18n.Func) string {
	if method == "" {
		return ""
	}
	style, ok := badgeStyles[ledger.PaymentMethodBadgeClass(method)]
	if !ok {
		style = defaultBadgeStyle
	}
	return style.Render(ledger.TranslatePaymentMethod(method, t))
}
