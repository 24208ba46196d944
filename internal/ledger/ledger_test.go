package ledger

import (
	"testing"
	"time"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/dto"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func tx(typ, amount, method string) dto.Transaction {
	return dto.Transaction{TransactionType: typ, Amount: d(amount), PaymentMethod: method}
}

func mixedSession() []dto.Transaction {
	return []dto.Transaction{
		tx(dto.TypeSale, "500", "cash"),
		tx(dto.TypeSale, "300", "card"),
		tx(dto.TypeRefund, "-50", "cash"),
		tx(dto.TypeTip, "25", "digital"),
		tx(dto.TypeExpense, "-100", "cash"),
	}
}

func TestSessionDuration(t *testing.T) {
	now := time.Date(2025, 11, 14, 11, 35, 0, 0, time.Local)
	assert.Equal(t, "2h 35m", SessionDuration("2025-11-14T09:00:00", now))
}

func TestSessionDuration_NoSession(t *testing.T) {
	assert.Equal(t, "0h 0m", SessionDuration("", time.Now()))
}

func TestSessionDuration_FloorsAndNoUpperBound(t *testing.T) {
	now := time.Date(2025, 11, 16, 10, 0, 59, 0, time.UTC)
	assert.Equal(t, "49h 0m", SessionDuration("2025-11-14T09:00:00Z", now))
}

func TestSessionDuration_NeverNegative(t *testing.T) {
	now := time.Date(2025, 11, 14, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "0h 0m", SessionDuration("2025-11-14T09:00:00Z", now))
}

func TestSessionDuration_Unparseable(t *testing.T) {
	assert.Equal(t, "0h 0m", SessionDuration("yesterday", time.Now()))
}

func TestCut_Scenario(t *testing.T) {
	report := Cut(mixedSession())

	assert.Equal(t, "800", report.TotalSales.String())
	assert.Equal(t, "-50", report.TotalRefunds.String())
	assert.Equal(t, "25", report.TotalTips.String())
	assert.Equal(t, "100", report.TotalExpenses.String())
	assert.Equal(t, 5, report.TotalTransactions)
	// 800 - (-50) + 25 - 100
	assert.Equal(t, "775", report.NetCashFlow.String())
}

func TestCut_Empty(t *testing.T) {
	report := Cut(nil)

	assert.True(t, report.TotalSales.IsZero())
	assert.True(t, report.TotalRefunds.IsZero())
	assert.True(t, report.TotalTips.IsZero())
	assert.True(t, report.TotalExpenses.IsZero())
	assert.True(t, report.NetCashFlow.IsZero())
	assert.Equal(t, 0, report.TotalTransactions)
}

func TestCut_CancellationsCountAsRefunds(t *testing.T) {
	report := Cut([]dto.Transaction{
		tx(dto.TypeRefund, "-20", ""),
		tx(dto.TypeCancellation, "-30", ""),
		tx(dto.TypeManualAdd, "999", "cash"),
	})
	assert.Equal(t, "-50", report.TotalRefunds.String())
	assert.Equal(t, 3, report.TotalTransactions)
	assert.Equal(t, "50", report.NetCashFlow.String())
}

func TestCurrentBalance(t *testing.T) {
	balance := CurrentBalance(d("1000"), []dto.Transaction{
		{Amount: d("500")},
		{Amount: d("-100")},
	})
	assert.Equal(t, "1400", balance.String())
}

func TestCurrentBalance_EmptyIsExact(t *testing.T) {
	initial := d("1234.56")
	assert.True(t, CurrentBalance(initial, nil).Equal(initial))
}

func TestCurrentBalance_IsInitialPlusSum(t *testing.T) {
	txns := mixedSession()
	sum := decimal.Zero
	for _, t := range txns {
		sum = sum.Add(t.Amount)
	}
	initial := d("250.10")
	assert.True(t, CurrentBalance(initial, txns).Equal(initial.Add(sum)))
}

func TestCurrentBalance_NoFloatDrift(t *testing.T) {
	txns := make([]dto.Transaction, 0, 10)
	for i := 0; i < 10; i++ {
		txns = append(txns, tx(dto.TypeSale, "0.1", "cash"))
	}
	assert.Equal(t, "1", CurrentBalance(decimal.Zero, txns).String())
}

func TestSessionExpenses_AlwaysNonNegative(t *testing.T) {
	cases := [][]dto.Transaction{
		nil,
		{tx(dto.TypeExpense, "-100", "cash")},
		{tx(dto.TypeExpense, "40", "cash"), tx(dto.TypeExpense, "-60", "")},
		{tx(dto.TypeSale, "-10", "cash")},
	}
	for _, txns := range cases {
		assert.False(t, SessionExpenses(txns).IsNegative())
	}
	assert.Equal(t, "100", SessionExpenses(cases[2]).String())
}

func TestSalesAndCounts(t *testing.T) {
	txns := mixedSession()
	assert.Equal(t, "800", SessionSales(txns).String())
	assert.Equal(t, 2, SalesCount(txns))
	assert.Equal(t, 1, ExpensesCount(txns))
	assert.Equal(t, 0, SalesCount(nil))
	assert.True(t, SessionSales(nil).IsZero())
}

func TestBreakdown_ExcludesNegativeRows(t *testing.T) {
	b := Breakdown([]dto.Transaction{
		tx(dto.TypeSale, "500", "CASH"),
		tx(dto.TypeRefund, "-50", "cash"),
	})
	assert.Equal(t, "500", b.Cash.String())
	assert.True(t, b.Card.IsZero())
	assert.True(t, b.Digital.IsZero())
	assert.True(t, b.Other.IsZero())
}

func TestBreakdown_UnknownMethodsDropped(t *testing.T) {
	b := Breakdown([]dto.Transaction{
		tx(dto.TypeSale, "10", "voucher"),
		tx(dto.TypeSale, "20", ""),
		tx(dto.TypeSale, "30", "Other"),
		tx(dto.TypeSale, "40", "Digital"),
		tx(dto.TypeTip, "5", "card"),
	})
	assert.Equal(t, "30", b.Other.String())
	assert.Equal(t, "40", b.Digital.String())
	assert.Equal(t, "5", b.Card.String())
	assert.True(t, b.Cash.IsZero())
}

func TestBreakdown_NeverNegative(t *testing.T) {
	b := Breakdown(mixedSession())
	for _, v := range []decimal.Decimal{b.Cash, b.Card, b.Digital, b.Other} {
		assert.False(t, v.IsNegative())
	}
	assert.Equal(t, "500", b.Cash.String())
	assert.Equal(t, "300", b.Card.String())
	assert.Equal(t, "25", b.Digital.String())
}

func TestAggregatorDoesNotMutateInput(t *testing.T) {
	txns := mixedSession()
	before := make([]dto.Transaction, len(txns))
	copy(before, txns)

	_ = Cut(txns)
	_ = Breakdown(txns)
	_ = SessionExpenses(txns)
	_ = CurrentBalance(decimal.Zero, txns)

	require.Len(t, txns, len(before))
	for i := range txns {
		assert.True(t, txns[i].Amount.Equal(before[i].Amount))
		assert.Equal(t, before[i].TransactionType, txns[i].TransactionType)
	}
}

func TestEmptyDenominations_FreshInstances(t *testing.T) {
	a := EmptyDenominations()
	b := EmptyDenominations()

	assert.NotSame(t, a, b)
	assert.Equal(t, *a, *b)
	assert.Equal(t, dto.Denominations{}, *a)

	a.Bills500 = 3
	assert.Equal(t, 0, b.Bills500)
}

func TestSignedAmount(t *testing.T) {
	for typ, want := range map[string]string{
		dto.TypeSale:           "10",
		dto.TypeTip:            "10",
		dto.TypeManualAdd:      "10",
		dto.TypeRefund:         "-10",
		dto.TypeCancellation:   "-10",
		dto.TypeExpense:        "-10",
		dto.TypeManualWithdraw: "-10",
	} {
		assert.True(t, SignedAmount(typ, d("10")).Equal(d(want)), typ)
		assert.True(t, SignedAmount(typ, d("-10")).Equal(d(want)), typ+" from negative input")
	}
}
