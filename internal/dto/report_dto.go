package dto

import "github.com/shopspring/decimal"

// CutReport is a derived snapshot of a session's transaction list. Never persisted.
type CutReport struct {
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalRefunds      decimal.Decimal `json:"total_refunds"`
	TotalTips         decimal.Decimal `json:"total_tips"`
	TotalExpenses     decimal.Decimal `json:"total_expenses"`
	TotalTransactions int             `json:"total_transactions"`
	NetCashFlow       decimal.Decimal `json:"net_cash_flow"`
}

// PaymentBreakdown sums positive amounts per payment method.
type PaymentBreakdown struct {
	Cash    decimal.Decimal `json:"cash"`
	Card    decimal.Decimal `json:"card"`
	Digital decimal.Decimal `json:"digital"`
	Other   decimal.Decimal `json:"other"`
}

// CutRequest converts the breakdown into the payload posted to the cut endpoint.
func (b PaymentBreakdown) CutRequest() CutRequest {
	return CutRequest{
		CashPayments:    b.Cash,
		CardPayments:    b.Card,
		DigitalPayments: b.Digital,
		OtherPayments:   b.Other,
	}
}

// SessionReport is the server-side view of a session with its derived metrics.
type SessionReport struct {
	Session        Session          `json:"session"`
	CurrentBalance decimal.Decimal  `json:"current_balance"`
	Cut            CutReport        `json:"cut"`
	Breakdown      PaymentBreakdown `json:"breakdown"`
	Transactions   []Transaction    `json:"transactions"`
}
