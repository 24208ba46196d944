package desk

import (
	"context"
	"errors"
	"strings"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/apierror"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/dto"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/i18n"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/ledger"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// FeedbackKind classifies a user-facing message.
type FeedbackKind string

const (
	FeedbackSuccess FeedbackKind = "success"
	// FeedbackWarning: the server accepted the action but the view is stale.
	FeedbackWarning FeedbackKind = "warning"
	FeedbackError   FeedbackKind = "error"
)

// Feedback is the localized outcome of a user action.
type Feedback struct {
	Kind    FeedbackKind
	Message string
}

// OK reports whether the action took effect on the server.
func (f Feedback) OK() bool { return f.Kind != FeedbackError }

// ── Forms ─────────────────────────────────────────────────────────────────────

type OpenForm struct {
	InitialBalance decimal.Decimal `validate:"required"`
}

func (f *OpenForm) Reset() { *f = OpenForm{} }

type CloseForm struct {
	FinalBalance decimal.Decimal `validate:"required"`
	Notes        string
	// UseDenominations forwards Denominations to the server with the close.
	UseDenominations bool
	Denominations    *dto.Denominations
}

// NewCloseForm returns a form with a zeroed denomination count.
func NewCloseForm() *CloseForm {
	return &CloseForm{Denominations: ledger.EmptyDenominations()}
}

func (f *CloseForm) Reset() {
	*f = CloseForm{Denominations: ledger.EmptyDenominations()}
}

type ExpenseForm struct {
	Amount      decimal.Decimal `validate:"gt=0"`
	Description string          `validate:"required"`
	Category    string
}

func (f *ExpenseForm) Reset() { *f = ExpenseForm{} }

// fieldKeys maps a form field to the message shown when it fails validation.
var fieldKeys = map[string]string{
	"InitialBalance": "cash_register.errors.balance_required",
	"FinalBalance":   "cash_register.errors.balance_required",
	"Amount":         "cash_register.errors.amount_positive",
	"Description":    "cash_register.errors.description_required",
}

// ── Adapter ───────────────────────────────────────────────────────────────────

// Adapter validates form input, drives the Orchestrator and turns every outcome
// into localized Feedback. Invalid input never reaches the server.
type Adapter struct {
	orch     *Orchestrator
	t        i18n.Func
	validate *validator.Validate
}

func NewAdapter(orch *Orchestrator, t i18n.Func) *Adapter {
	if t == nil {
		t = i18n.Identity
	}
	return &Adapter{orch: orch, t: t, validate: dto.NewValidator()}
}

func (a *Adapter) Orchestrator() *Orchestrator { return a.orch }

// T exposes the adapter's translator to views.
func (a *Adapter) T() i18n.Func { return a.t }

func (a *Adapter) Refresh(ctx context.Context) Feedback {
	if err := a.orch.LoadCurrentSession(ctx); err != nil {
		return a.failure(err, "cash_register.errors.load_failed")
	}
	return a.success("cash_register.messages.session_loaded", nil)
}

func (a *Adapter) OpenSession(ctx context.Context, form *OpenForm) Feedback {
	if err := a.check(form); err != nil {
		return a.failure(err, "cash_register.errors.open_failed")
	}
	fb := a.outcome(a.orch.OpenSession(ctx, form.InitialBalance), "cash_register.messages.session_opened", nil, "cash_register.errors.open_failed")
	if fb.OK() {
		form.Reset()
	}
	return fb
}

func (a *Adapter) CloseSession(ctx context.Context, form *CloseForm) Feedback {
	if err := a.check(form); err != nil {
		return a.failure(err, "cash_register.errors.close_failed")
	}
	var notes *string
	if n := strings.TrimSpace(form.Notes); n != "" {
		notes = &n
	}
	var denoms *dto.Denominations
	if form.UseDenominations && form.Denominations != nil {
		cp := *form.Denominations
		denoms = &cp
	}
	fb := a.outcome(a.orch.CloseSession(ctx, form.FinalBalance, notes, denoms), "cash_register.messages.session_closed", nil, "cash_register.errors.close_failed")
	if fb.OK() {
		form.Reset()
	}
	return fb
}

func (a *Adapter) AddExpense(ctx context.Context, form *ExpenseForm) Feedback {
	form.Description = strings.TrimSpace(form.Description)
	if err := a.check(form); err != nil {
		return a.failure(err, "cash_register.errors.expense_failed")
	}
	var category *string
	if c := strings.TrimSpace(form.Category); c != "" {
		category = &c
	}
	fb := a.outcome(a.orch.AddExpense(ctx, form.Amount, form.Description, category), "cash_register.messages.expense_added", nil, "cash_register.errors.expense_failed")
	if fb.OK() {
		form.Reset()
	}
	return fb
}

// PerformCut posts the payment breakdown of the mirrored transactions.
func (a *Adapter) PerformCut(ctx context.Context) Feedback {
	result, err := a.orch.PerformCut(ctx)
	var params map[string]any
	if result != nil {
		params = map[string]any{"cut": result.ID}
	}
	return a.outcome(err, "cash_register.messages.cut_performed", params, "cash_register.errors.cut_failed")
}

func (a *Adapter) DeleteTransaction(ctx context.Context, transactionID int64) Feedback {
	return a.outcome(a.orch.DeleteTransaction(ctx, transactionID), "cash_register.messages.transaction_deleted", nil, "cash_register.errors.delete_failed")
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// check runs the form's validate tags and reports the first failing field.
func (a *Adapter) check(form any) error {
	err := a.validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0].Field()
		return &ValidationError{Field: field, Key: fieldKeys[field]}
	}
	return err
}

func (a *Adapter) success(key string, params map[string]any) Feedback {
	return Feedback{Kind: FeedbackSuccess, Message: a.t(key, params)}
}

// outcome reports a mutation. A RefreshError means the server applied it and
// only the re-read failed, so the user must not repeat the action.
func (a *Adapter) outcome(err error, successKey string, params map[string]any, fallbackKey string) Feedback {
	var refresh *RefreshError
	switch {
	case err == nil:
		return a.success(successKey, params)
	case errors.As(err, &refresh):
		log.Warn().Err(err).Str("op", refresh.Op).Msg("desk view stale after accepted action")
		msg := a.t("cash_register.messages.saved_stale", map[string]any{"message": a.t(successKey, params)})
		return Feedback{Kind: FeedbackWarning, Message: msg}
	default:
		return a.failure(err, fallbackKey)
	}
}

// failure picks the message for err: the validation message, the server's own
// detail when it sent one, otherwise the per-action fallback.
func (a *Adapter) failure(err error, fallbackKey string) Feedback {
	var verr *ValidationError
	var remote *apierror.Remote
	msg := a.t(fallbackKey, nil)

	switch {
	case errors.As(err, &verr) && verr.Key != "":
		msg = a.t(verr.Key, nil)
	case errors.Is(err, ErrNoOpenSession):
		msg = a.t("cash_register.errors.no_open_session", nil)
	case errors.As(err, &remote) && remote.Detail != "":
		msg = remote.Detail
	}
	log.Debug().Err(err).Str("fallback", fallbackKey).Msg("desk action failed")
	return Feedback{Kind: FeedbackError, Message: msg}
}
