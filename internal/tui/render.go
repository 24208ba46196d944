package tui

import (
	"fmt"
	"strings"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/desk"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/dto"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/i18n"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/ledger"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

func money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-18s", label)) + " " + value
}

// RenderSession renders the session header, its derived figures and the
// payment breakdown. duration is only shown while the session is open.
func RenderSession(snap desk.Snapshot, duration string, t i18n.Func) string {
	if snap.State == desk.StateNone || snap.Session == nil {
		return titleStyle.Render(t("cash_register.labels.no_session", nil))
	}
	s := snap.Session

	header := titleStyle.Render(t("cash_register.labels.session", map[string]any{"number": s.SessionNumber}))
	if snap.State == desk.StateClosed {
		header += "  " + errorStyle.Render(t("cash_register.labels.closed", nil))
	}

	lines := []string{header, row(t("cash_register.labels.opened_at", nil), ledger.FormatTransactionDate(s.OpenedAt, t))}
	if snap.State == desk.StateOpen {
		lines = append(lines, row(t("cash_register.labels.duration", nil), duration))
	}
	if s.ClosedAt != nil {
		lines = append(lines, row(t("cash_register.labels.closed_at", nil), ledger.FormatTransactionDate(*s.ClosedAt, t)))
	}
	lines = append(lines,
		row(t("cash_register.labels.initial_balance", nil), money(s.InitialBalance)),
		row(t("cash_register.labels.current_balance", nil), titleStyle.Render(money(snap.CurrentBalance))),
	)
	if s.FinalBalance != nil {
		lines = append(lines, row(t("cash_register.labels.final_balance", nil), money(*s.FinalBalance)))
	}
	lines = append(lines,
		row(t("cash_register.labels.sales", nil), fmt.Sprintf("%s (%d)", money(snap.Sales), snap.SalesCount)),
		row(t("cash_register.labels.expenses", nil), fmt.Sprintf("%s (%d)", money(snap.Expenses), snap.ExpensesCount)),
	)

	cut := []string{
		titleStyle.Render(t("cash_register.labels.cut", nil)),
		row(t("cash_register.labels.refunds", nil), money(snap.Cut.TotalRefunds)),
		row(t("cash_register.labels.tips", nil), money(snap.Cut.TotalTips)),
		row(t("cash_register.labels.transactions", nil), fmt.Sprint(snap.Cut.TotalTransactions)),
		row(t("cash_register.labels.net_cash_flow", nil), money(snap.Cut.NetCashFlow)),
	}
	if snap.LastCut != nil {
		cut = append(cut, row(t("cash_register.labels.last_cut", nil),
			fmt.Sprintf("#%d %s", snap.LastCut.ID, money(snap.LastCut.TotalPayments))))
	}

	breakdown := []string{
		titleStyle.Render(t("cash_register.labels.breakdown", nil)),
		badge(dto.MethodCash, t) + " " + money(snap.Breakdown.Cash),
		badge(dto.MethodCard, t) + " " + money(snap.Breakdown.Card),
		badge(dto.MethodDigital, t) + " " + money(snap.Breakdown.Digital),
		badge(dto.MethodOther, t) + " " + money(snap.Breakdown.Other),
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render(strings.Join(lines, "\n")),
		lipgloss.JoinHorizontal(lipgloss.Top,
			sectionStyle.Render(strings.Join(cut, "\n")),
			sectionStyle.Render(strings.Join(breakdown, "\n")),
		),
	)
}

// RenderTransaction renders one ledger line.
func RenderTransaction(tx dto.Transaction, t i18n.Func) string {
	amount := money(tx.Amount)
	if tx.Amount.IsNegative() {
		amount = negativeStyle.Render(amount)
	}
	parts := []string{
		ledger.FormatTransactionDate(tx.CreatedAt, t),
		fmt.Sprintf("%-14s", ledger.TranslateTransactionType(tx.TransactionType, t)),
		fmt.Sprintf("%12s", amount),
		ledger.TranslateDescription(tx.Description, t),
	}
	if b := badge(tx.PaymentMethod, t); b != "" {
		parts = append(parts, b)
	}
	return strings.Join(parts, "  ")
}
