package ledger

import (
	"testing"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/i18n"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spanish(t *testing.T) i18n.Func {
	t.Helper()
	c, err := i18n.Load()
	require.NoError(t, err)
	return c.Translator("es-MX")
}

func TestFormatTransactionDate(t *testing.T) {
	tr := spanish(t)
	assert.Equal(t, "No date", FormatTransactionDate("", tr))
	assert.Equal(t, "Invalid Date", FormatTransactionDate("not-a-date", tr))
	assert.Equal(t, "14/11/2025 09:05", FormatTransactionDate("2025-11-14T09:05:00", tr))
}

func TestFormatTransactionDate_MissingLayoutFallsBack(t *testing.T) {
	assert.Equal(t, "2025-11-14 09:05", FormatTransactionDate("2025-11-14T09:05:00", i18n.Identity))
}

func TestTranslateDescription(t *testing.T) {
	tr := spanish(t)
	assert.Equal(t, "Pago de la orden #17", TranslateDescription("Payment for order #17", tr))
	assert.Equal(t, "Pago de la orden #8", TranslateDescription("PAYMENT FOR ORDER #8", tr))
	assert.Equal(t, "Hielo y vasos", TranslateDescription("Hielo y vasos", tr))
	assert.Equal(t, "Payment for order #", TranslateDescription("Payment for order #", tr))
}

func TestTranslateTransactionType(t *testing.T) {
	tr := spanish(t)
	assert.Equal(t, "Venta", TranslateTransactionType("sale", tr))
	assert.Equal(t, "Retiro manual", TranslateTransactionType("manual_withdraw", tr))
	assert.Equal(t, "adjustment", TranslateTransactionType("adjustment", tr))
}

func TestTranslatePaymentMethod(t *testing.T) {
	tr := spanish(t)
	assert.Equal(t, "Efectivo", TranslatePaymentMethod("CASH", tr))
	assert.Equal(t, "Tarjeta", TranslatePaymentMethod("card", tr))
	assert.Equal(t, "voucher", TranslatePaymentMethod("voucher", tr))
}

func TestPaymentMethodBadgeClass_CaseInsensitive(t *testing.T) {
	assert.Equal(t, PaymentMethodBadgeClass("cash"), PaymentMethodBadgeClass("CASH"))
	assert.Equal(t, "badge-info", PaymentMethodBadgeClass("Card"))
	assert.Equal(t, DefaultBadgeClass, PaymentMethodBadgeClass("voucher"))
	assert.Equal(t, DefaultBadgeClass, PaymentMethodBadgeClass(""))
}
