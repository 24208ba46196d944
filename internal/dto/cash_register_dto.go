package dto

import (
	"fmt"

	"github.com/shopspring/decimal"
)

func init() {
	// Monetary fields travel as plain JSON numbers, never quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Transaction types recorded in the ledger.
const (
	TypeSale           = "sale"
	TypeRefund         = "refund"
	TypeCancellation   = "cancellation"
	TypeTip            = "tip"
	TypeExpense        = "expense"
	TypeManualAdd      = "manual_add"
	TypeManualWithdraw = "manual_withdraw"
)

// Payment methods. Comparisons against stored values are case-insensitive.
const (
	MethodCash    = "cash"
	MethodCard    = "card"
	MethodDigital = "digital"
	MethodOther   = "other"
)

// Session status values.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// ─── Ledger entities ─────────────────────────────────────────────────────────

// Transaction is one signed monetary event within a session.
// Timestamps stay as the raw strings sent by the backend.
type Transaction struct {
	ID              int64           `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	TransactionType string          `json:"transaction_type"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	Category        string          `json:"category,omitempty"`
	CreatedAt       string          `json:"created_at"`
}

type Session struct {
	ID             int64            `json:"id"`
	SessionNumber  int              `json:"session_number"`
	OpenedAt       string           `json:"opened_at"`
	ClosedAt       *string          `json:"closed_at"`
	InitialBalance decimal.Decimal  `json:"initial_balance"`
	FinalBalance   *decimal.Decimal `json:"final_balance"`
	Status         string           `json:"status,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
}

// Denominations is a physical cash count supplied at close time.
type Denominations struct {
	Bills1000   int `json:"bills_1000"`
	Bills500    int `json:"bills_500"`
	Bills200    int `json:"bills_200"`
	Bills100    int `json:"bills_100"`
	Bills50     int `json:"bills_50"`
	Bills20     int `json:"bills_20"`
	Coins20     int `json:"coins_20"`
	Coins10     int `json:"coins_10"`
	Coins5      int `json:"coins_5"`
	Coins2      int `json:"coins_2"`
	Coins1      int `json:"coins_1"`
	Coins50Cent int `json:"coins_50_cent"`
}

// SetCount assigns a count by its JSON field name.
func (d *Denominations) SetCount(field string, n int) error {
	if n < 0 {
		return fmt.Errorf("denominations: negative count for %s", field)
	}
	switch field {
	case "bills_1000":
		d.Bills1000 = n
	case "bills_500":
		d.Bills500 = n
	case "bills_200":
		d.Bills200 = n
	case "bills_100":
		d.Bills100 = n
	case "bills_50":
		d.Bills50 = n
	case "bills_20":
		d.Bills20 = n
	case "coins_20":
		d.Coins20 = n
	case "coins_10":
		d.Coins10 = n
	case "coins_5":
		d.Coins5 = n
	case "coins_2":
		d.Coins2 = n
	case "coins_1":
		d.Coins1 = n
	case "coins_50_cent":
		d.Coins50Cent = n
	default:
		return fmt.Errorf("denominations: unknown field %q", field)
	}
	return nil
}

// DenominationsFromCounts builds a count from JSON field names.
func DenominationsFromCounts(counts map[string]int) (*Denominations, error) {
	d := &Denominations{}
	for field, n := range counts {
		if err := d.SetCount(field, n); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Total is the cash value of the count.
func (d Denominations) Total() decimal.Decimal {
	units := decimal.NewFromInt(int64(d.Bills1000*1000 + d.Bills500*500 + d.Bills200*200 + d.Bills100*100 +
		d.Bills50*50 + d.Bills20*20 + d.Coins20*20 + d.Coins10*10 + d.Coins5*5 + d.Coins2*2 + d.Coins1))
	return units.Add(decimal.NewFromInt(int64(d.Coins50Cent)).Div(decimal.NewFromInt(2)))
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	InitialBalance decimal.Decimal `json:"initial_balance" validate:"min=0"`
}

type CloseSessionRequest struct {
	FinalBalance  decimal.Decimal `json:"final_balance"           validate:"min=0"`
	Notes         *string         `json:"notes,omitempty"`
	Denominations *Denominations  `json:"denominations,omitempty"`
}

type CutRequest struct {
	CashPayments    decimal.Decimal `json:"cash_payments"    validate:"min=0"`
	CardPayments    decimal.Decimal `json:"card_payments"    validate:"min=0"`
	DigitalPayments decimal.Decimal `json:"digital_payments" validate:"min=0"`
	OtherPayments   decimal.Decimal `json:"other_payments"   validate:"min=0"`
}

type ExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount"             validate:"gt=0"`
	Description string          `json:"description"        validate:"required,min=1"`
	Category    *string         `json:"category,omitempty"`
}

// RecordTransactionRequest registers a sale, refund, tip or manual movement.
// Amount is a magnitude; the server applies the sign for the type.
type RecordTransactionRequest struct {
	TransactionType string          `json:"transaction_type" validate:"required,oneof=sale refund cancellation tip manual_add manual_withdraw"`
	Amount          decimal.Decimal `json:"amount"           validate:"gt=0"`
	Description     string          `json:"description"      validate:"required"`
	PaymentMethod   string          `json:"payment_method"   validate:"omitempty,oneof=cash card digital other CASH CARD DIGITAL OTHER"`
	Category        *string         `json:"category,omitempty"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CutResult struct {
	ID              int64           `json:"id"`
	SessionID       int64           `json:"session_id"`
	CashPayments    decimal.Decimal `json:"cash_payments"`
	CardPayments    decimal.Decimal `json:"card_payments"`
	DigitalPayments decimal.Decimal `json:"digital_payments"`
	OtherPayments   decimal.Decimal `json:"other_payments"`
	TotalPayments   decimal.Decimal `json:"total_payments"`
	CreatedAt       string          `json:"created_at"`
}

type DifferenceResponse struct {
	Amount         decimal.Decimal `json:"amount"`
	Percentage     decimal.Decimal `json:"percentage"`
	Classification string          `json:"classification"` // normal | warning | critical
}

type CloseSessionResponse struct {
	SessionID       int64              `json:"session_id"`
	ExpectedBalance decimal.Decimal    `json:"expected_balance"`
	FinalBalance    decimal.Decimal    `json:"final_balance"`
	Difference      DifferenceResponse `json:"difference"`
	Status          string             `json:"status"`
}

type SessionPage struct {
	Data  []Session `json:"data"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
	Total int64     `json:"total"`
}

// ─── Events ──────────────────────────────────────────────────────────────────

// Event types published after every ledger mutation.
const (
	EventSessionOpened      = "session.opened"
	EventSessionClosed      = "session.closed"
	EventTransactionCreated = "transaction.created"
	EventTransactionDeleted = "transaction.deleted"
	EventCutPerformed       = "cut.performed"
)

// Event tells other desks that the ledger changed and their view is stale.
type Event struct {
	Type          string `json:"type"`
	SessionID     int64  `json:"session_id"`
	TransactionID int64  `json:"transaction_id,omitempty"`
}
