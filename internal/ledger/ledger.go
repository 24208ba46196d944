// Package ledger folds a session's transaction list into derived metrics: balance,
// expense and sale totals, the cut report and the payment-method breakdown.
//
// Every function is pure. Inputs are never mutated and the same input always
// yields the same output, so callers may recompute freely after each refresh.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/dto"

	"github.com/shopspring/decimal"
)

// timestampLayouts are tried in order when parsing backend timestamps.
// Layouts without a zone are interpreted in the caller's location.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseTimestamp(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SessionDuration renders the elapsed time since openedAt as "{h}h {m}m".
// An empty openedAt means there is no session and yields "0h 0m".
func SessionDuration(openedAt string, now time.Time) string {
	if openedAt == "" {
		return "0h 0m"
	}
	opened, ok := parseTimestamp(openedAt, now.Location())
	if !ok {
		return "0h 0m"
	}
	elapsed := now.Sub(opened)
	if elapsed < 0 {
		elapsed = 0
	}
	hours := int64(elapsed / time.Hour)
	minutes := int64((elapsed % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// SessionExpenses is the sum of |amount| over expense transactions. Always >= 0.
func SessionExpenses(txns []dto.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		if t.TransactionType == dto.TypeExpense {
			total = total.Add(t.Amount.Abs())
		}
	}
	return total
}

// SessionSales is the plain sum of sale amounts.
func SessionSales(txns []dto.Transaction) decimal.Decimal {
	return sumOfType(txns, dto.TypeSale)
}

func SalesCount(txns []dto.Transaction) int {
	return countOfType(txns, dto.TypeSale)
}

func ExpensesCount(txns []dto.Transaction) int {
	return countOfType(txns, dto.TypeExpense)
}

// CurrentBalance adds every signed amount to the initial balance, regardless of
// type: the sign already encodes the cash-flow direction.
func CurrentBalance(initial decimal.Decimal, txns []dto.Transaction) decimal.Decimal {
	balance := initial
	for _, t := range txns {
		balance = balance.Add(t.Amount)
	}
	return balance
}

// Cut builds the cut report for a transaction list.
//
// TotalRefunds is the raw signed sum of refunds and cancellations (stored
// negative, so usually <= 0) and NetCashFlow is exactly
// sales - refunds + tips - expenses.
func Cut(txns []dto.Transaction) dto.CutReport {
	report := dto.CutReport{
		TotalSales:        decimal.Zero,
		TotalRefunds:      decimal.Zero,
		TotalTips:         decimal.Zero,
		TotalExpenses:     decimal.Zero,
		TotalTransactions: len(txns),
	}
	for _, t := range txns {
		switch t.TransactionType {
		case dto.TypeSale:
			report.TotalSales = report.TotalSales.Add(t.Amount)
		case dto.TypeRefund, dto.TypeCancellation:
			report.TotalRefunds = report.TotalRefunds.Add(t.Amount)
		case dto.TypeTip:
			report.TotalTips = report.TotalTips.Add(t.Amount)
		case dto.TypeExpense:
			report.TotalExpenses = report.TotalExpenses.Add(t.Amount.Abs())
		}
	}
	report.NetCashFlow = report.TotalSales.
		Sub(report.TotalRefunds).
		Add(report.TotalTips).
		Sub(report.TotalExpenses)
	return report
}

// Breakdown sums positive amounts per payment method. Negative rows (refunds,
// expenses) never reach a bucket, and unknown methods are dropped rather than
// counted as "other".
func Breakdown(txns []dto.Transaction) dto.PaymentBreakdown {
	b := dto.PaymentBreakdown{
		Cash:    decimal.Zero,
		Card:    decimal.Zero,
		Digital: decimal.Zero,
		Other:   decimal.Zero,
	}
	for _, t := range txns {
		if !t.Amount.IsPositive() {
			continue
		}
		switch strings.ToUpper(t.PaymentMethod) {
		case "CASH":
			b.Cash = b.Cash.Add(t.Amount)
		case "CARD":
			b.Card = b.Card.Add(t.Amount)
		case "DIGITAL":
			b.Digital = b.Digital.Add(t.Amount)
		case "OTHER":
			b.Other = b.Other.Add(t.Amount)
		}
	}
	return b
}

// SignedAmount applies the ledger sign convention to a magnitude: sales, tips
// and manual additions are positive; refunds, cancellations, expenses and
// manual withdrawals are negative.
func SignedAmount(txType string, amount decimal.Decimal) decimal.Decimal {
	switch txType {
	case dto.TypeRefund, dto.TypeCancellation, dto.TypeExpense, dto.TypeManualWithdraw:
		return amount.Abs().Neg()
	default:
		return amount.Abs()
	}
}

// EmptyDenominations returns a new zero-filled count. Callers mutate the result,
// so every call allocates.
func EmptyDenominations() *dto.Denominations {
	return &dto.Denominations{}
}

func sumOfType(txns []dto.Transaction, typ string) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		if t.TransactionType == typ {
			total = total.Add(t.Amount)
		}
	}
	return total
}

func countOfType(txns []dto.Transaction, typ string) int {
	n := 0
	for _, t := range txns {
		if t.TransactionType == typ {
			n++
		}
	}
	return n
}
