package ledger

import (
	"regexp"
	"strings"
	"time"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/i18n"
)

const (
	noDateLabel      = "No date"
	invalidDateLabel = "Invalid Date"

	datetimeFormatKey = "cash_register.formats.datetime"
	defaultLayout     = "2006-01-02 15:04"
)

var orderPaymentPattern = regexp.MustCompile(`(?i)payment for order #(\d+)`)

var transactionTypeKeys = map[string]string{
	"sale":            "cash_register.types.sale",
	"refund":          "cash_register.types.refund",
	"cancellation":    "cash_register.types.cancellation",
	"tip":             "cash_register.types.tip",
	"expense":         "cash_register.types.expense",
	"manual_add":      "cash_register.types.manual_add",
	"manual_withdraw": "cash_register.types.manual_withdraw",
}

var paymentMethodKeys = map[string]string{
	"cash":    "cash_register.methods.cash",
	"card":    "cash_register.methods.card",
	"digital": "cash_register.methods.digital",
	"other":   "cash_register.methods.other",
}

var badgeClasses = map[string]string{
	"cash":    "badge-success",
	"card":    "badge-info",
	"digital": "badge-accent",
	"other":   "badge-neutral",
}

// DefaultBadgeClass is returned for methods outside the known set.
const DefaultBadgeClass = "badge-default"

// FormatTransactionDate renders a backend timestamp with the locale's datetime
// layout. It never fails: empty input gives "No date" and unparseable input
// gives "Invalid Date".
func FormatTransactionDate(raw string, t i18n.Func) string {
	if raw == "" {
		return noDateLabel
	}
	ts, ok := parseTimestamp(raw, time.Local)
	if !ok {
		return invalidDateLabel
	}
	layout := t(datetimeFormatKey, nil)
	if layout == "" || layout == datetimeFormatKey {
		layout = defaultLayout
	}
	return ts.In(time.Local).Format(layout)
}

// TranslateDescription localizes the "Payment for order #N" pattern and leaves
// every other description untouched.
func TranslateDescription(desc string, t i18n.Func) string {
	m := orderPaymentPattern.FindStringSubmatch(desc)
	if m == nil {
		return desc
	}
	return t("cash_register.descriptions.order_payment", map[string]any{"order": m[1]})
}

func TranslateTransactionType(code string, t i18n.Func) string {
	key, ok := transactionTypeKeys[code]
	if !ok {
		return code
	}
	return t(key, nil)
}

func TranslatePaymentMethod(code string, t i18n.Func) string {
	key, ok := paymentMethodKeys[strings.ToLower(code)]
	if !ok {
		return code
	}
	return t(key, nil)
}

// PaymentMethodBadgeClass maps a method, in any casing, to its presentation tag.
func PaymentMethodBadgeClass(method string) string {
	if class, ok := badgeClasses[strings.ToLower(method)]; ok {
		return class
	}
	return DefaultBadgeClass
}
