package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/dto"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/ledger"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/model"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrSessionAlreadyOpen  = errors.New("A cash register session is already open")
	ErrNoOpenSession       = errors.New("No open cash register session")
	ErrSessionNotFound     = errors.New("Cash register session not found")
	ErrSessionClosed       = errors.New("Cash register session is closed")
	ErrTransactionNotFound = errors.New("Transaction not found")
	ErrNotesRequired       = errors.New("Critical difference: closing notes are required")
)

// Difference classifications recorded on close.
const (
	ClassificationNormal   = "normal"
	ClassificationWarning  = "warning"
	ClassificationCritical = "critical"
)

// EventPublisher announces ledger mutations to listening desks.
type EventPublisher interface {
	Publish(ctx context.Context, ev dto.Event) error
}

// MetricsRecorder counts ledger activity.
type MetricsRecorder interface {
	IncrSessionOpened()
	IncrSessionClosed(classification string)
	IncrTransaction(txType string)
	IncrCut()
}

type CashRegisterService interface {
	CurrentSession(ctx context.Context) (*dto.Session, error)
	OpenSession(ctx context.Context, actor string, req dto.OpenSessionRequest) (*dto.Session, error)
	CloseSession(ctx context.Context, actor string, sessionID int64, req dto.CloseSessionRequest) (*dto.CloseSessionResponse, error)
	PerformCut(ctx context.Context, actor string, sessionID int64, req dto.CutRequest) (*dto.CutResult, error)
	AddExpense(ctx context.Context, actor string, sessionID int64, req dto.ExpenseRequest) (*dto.Transaction, error)
	RecordTransaction(ctx context.Context, actor string, sessionID int64, req dto.RecordTransactionRequest) (*dto.Transaction, error)
	DeleteTransaction(ctx context.Context, actor string, transactionID int64) error
	ListTransactions(ctx context.Context, sessionID int64) ([]dto.Transaction, error)
	ListSessions(ctx context.Context, page, limit int) (*dto.SessionPage, error)
	SessionReport(ctx context.Context, sessionID int64) (*dto.SessionReport, error)
}

type cashRegisterService struct {
	repo    repository.CashRegisterRepository
	events  EventPublisher
	metrics MetricsRecorder
	now     func() time.Time
}

// NewCashRegisterService wires the ledger service. events and metrics may be nil.
func NewCashRegisterService(repo repository.CashRegisterRepository, events EventPublisher, metrics MetricsRecorder) CashRegisterService {
	return &cashRegisterService{repo: repo, events: events, metrics: metrics, now: time.Now}
}

// ── Sessions ──────────────────────────────────────────────────────────────────

func (s *cashRegisterService) CurrentSession(ctx context.Context) (*dto.Session, error) {
	sess, err := s.repo.FindOpenSession(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoOpenSession
	}
	if err != nil {
		return nil, err
	}
	out := toSessionDTO(sess)
	return &out, nil
}

func (s *cashRegisterService) OpenSession(ctx context.Context, actor string, req dto.OpenSessionRequest) (*dto.Session, error) {
	// Guard: a single drawer, a single open session
	if existing, err := s.repo.FindOpenSession(ctx); err == nil && existing != nil {
		return nil, ErrSessionAlreadyOpen
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	number, err := s.repo.NextSessionNumber(ctx)
	if err != nil {
		return nil, err
	}
	sess := &model.CashSession{
		SessionNumber:  number,
		OpenedBy:       actor,
		InitialBalance: req.InitialBalance,
		Status:         dto.StatusOpen,
		OpenedAt:       s.now().UTC(),
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		// Lost a race against another open: the partial unique index rejected us.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSessionAlreadyOpen
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrSessionOpened()
	}
	s.publish(ctx, dto.Event{Type: dto.EventSessionOpened, SessionID: sess.ID})
	log.Info().Int64("session_id", sess.ID).Int("session_number", number).Str("actor", actor).Msg("cash register session opened")

	out := toSessionDTO(sess)
	return &out, nil
}

// CloseSession reconciles the declared balance against the ledger and closes
// the session. Critical differences require notes.
func (s *cashRegisterService) CloseSession(ctx context.Context, actor string, sessionID int64, req dto.CloseSessionRequest) (*dto.CloseSessionResponse, error) {
	sess, err := s.openSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sum, err := s.repo.SumTransactions(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	expected := sess.InitialBalance.Add(sum)
	diff := req.FinalBalance.Sub(expected)
	pct := differencePct(diff, expected)
	classification := classifyDifference(pct)

	if classification == ClassificationCritical && (req.Notes == nil || strings.TrimSpace(*req.Notes) == "") {
		return nil, ErrNotesRequired
	}

	closedAt := s.now().UTC()
	final := req.FinalBalance
	sess.ExpectedBalance = &expected
	sess.FinalBalance = &final
	sess.Difference = &diff
	sess.DifferencePct = &pct
	sess.Classification = &classification
	sess.Denominations = req.Denominations
	sess.Notes = req.Notes
	sess.Status = dto.StatusClosed
	sess.ClosedBy = &actor
	sess.ClosedAt = &closedAt

	if err := s.repo.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrSessionClosed(classification)
	}
	s.publish(ctx, dto.Event{Type: dto.EventSessionClosed, SessionID: sessionID})
	log.Info().Int64("session_id", sessionID).Str("difference", diff.String()).Str("classification", classification).Msg("cash register session closed")

	return &dto.CloseSessionResponse{
		SessionID:       sessionID,
		ExpectedBalance: expected,
		FinalBalance:    final,
		Difference: dto.DifferenceResponse{
			Amount:         diff,
			Percentage:     pct,
			Classification: classification,
		},
		Status: dto.StatusClosed,
	}, nil
}

func (s *cashRegisterService) ListSessions(ctx context.Context, page, limit int) (*dto.SessionPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	sessions, total, err := s.repo.ListSessions(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.Session, 0, len(sessions))
	for i := range sessions {
		data = append(data, toSessionDTO(&sessions[i]))
	}
	return &dto.SessionPage{Data: data, Page: page, Limit: limit, Total: total}, nil
}

// SessionReport derives the same figures a desk shows, computed server-side.
func (s *cashRegisterService) SessionReport(ctx context.Context, sessionID int64) (*dto.SessionReport, error) {
	sess, err := s.repo.FindSessionByID(ctx, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	txns, err := s.ListTransactions(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &dto.SessionReport{
		Session:        toSessionDTO(sess),
		CurrentBalance: ledger.CurrentBalance(sess.InitialBalance, txns),
		Cut:            ledger.Cut(txns),
		Breakdown:      ledger.Breakdown(txns),
		Transactions:   txns,
	}, nil
}

// ── Cuts ──────────────────────────────────────────────────────────────────────

func (s *cashRegisterService) PerformCut(ctx context.Context, actor string, sessionID int64, req dto.CutRequest) (*dto.CutResult, error) {
	if _, err := s.openSessionByID(ctx, sessionID); err != nil {
		return nil, err
	}

	cut := &model.CashCut{
		SessionID:       sessionID,
		CashPayments:    req.CashPayments,
		CardPayments:    req.CardPayments,
		DigitalPayments: req.DigitalPayments,
		OtherPayments:   req.OtherPayments,
		TotalPayments:   req.CashPayments.Add(req.CardPayments).Add(req.DigitalPayments).Add(req.OtherPayments),
		CreatedBy:       actor,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.CreateCut(ctx, cut); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrCut()
	}
	s.publish(ctx, dto.Event{Type: dto.EventCutPerformed, SessionID: sessionID})

	return &dto.CutResult{
		ID:              cut.ID,
		SessionID:       sessionID,
		CashPayments:    cut.CashPayments,
		CardPayments:    cut.CardPayments,
		DigitalPayments: cut.DigitalPayments,
		OtherPayments:   cut.OtherPayments,
		TotalPayments:   cut.TotalPayments,
		CreatedAt:       formatTimestamp(cut.CreatedAt),
	}, nil
}

// ── Transactions ──────────────────────────────────────────────────────────────

func (s *cashRegisterService) AddExpense(ctx context.Context, actor string, sessionID int64, req dto.ExpenseRequest) (*dto.Transaction, error) {
	return s.record(ctx, actor, sessionID, dto.TypeExpense, req.Amount, req.Description, nil, req.Category)
}

func (s *cashRegisterService) RecordTransaction(ctx context.Context, actor string, sessionID int64, req dto.RecordTransactionRequest) (*dto.Transaction, error) {
	var method *string
	if req.PaymentMethod != "" {
		m := strings.ToLower(req.PaymentMethod)
		method = &m
	}
	return s.record(ctx, actor, sessionID, req.TransactionType, req.Amount, req.Description, method, req.Category)
}

func (s *cashRegisterService) record(ctx context.Context, actor string, sessionID int64, txType string, amount decimal.Decimal, description string, method, category *string) (*dto.Transaction, error) {
	if _, err := s.openSessionByID(ctx, sessionID); err != nil {
		return nil, err
	}

	txn := &model.CashTransaction{
		SessionID:       sessionID,
		TransactionType: txType,
		PaymentMethod:   method,
		Category:        category,
		Amount:          ledger.SignedAmount(txType, amount),
		Description:     strings.TrimSpace(description),
		CreatedBy:       actor,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrTransaction(txType)
	}
	s.publish(ctx, dto.Event{Type: dto.EventTransactionCreated, SessionID: sessionID, TransactionID: txn.ID})

	out := toTransactionDTO(txn)
	return &out, nil
}

// DeleteTransaction removes an entry from an open session's ledger.
func (s *cashRegisterService) DeleteTransaction(ctx context.Context, actor string, transactionID int64) error {
	txn, err := s.repo.FindTransactionByID(ctx, transactionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTransactionNotFound
	}
	if err != nil {
		return err
	}
	if _, err := s.openSessionByID(ctx, txn.SessionID); err != nil {
		return err
	}
	if err := s.repo.DeleteTransaction(ctx, transactionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTransactionNotFound
		}
		return err
	}

	s.publish(ctx, dto.Event{Type: dto.EventTransactionDeleted, SessionID: txn.SessionID, TransactionID: transactionID})
	log.Info().Int64("transaction_id", transactionID).Str("actor", actor).Msg("cash register transaction deleted")
	return nil
}

func (s *cashRegisterService) ListTransactions(ctx context.Context, sessionID int64) ([]dto.Transaction, error) {
	rows, err := s.repo.ListTransactions(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, toTransactionDTO(&rows[i]))
	}
	return out, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// differencePct is diff relative to expected, in percent, rounded to 2 places.
// Any non-zero difference against a zero expectation counts as 100%.
func differencePct(diff, expected decimal.Decimal) decimal.Decimal {
	if expected.IsZero() {
		if diff.IsZero() {
			return decimal.Zero
		}
		return decimal.NewFromInt(100)
	}
	return diff.Div(expected.Abs()).Mul(decimal.NewFromInt(100)).Round(2)
}

// classifyDifference: normal |pct| <= 1, warning <= 5, critical > 5.
func classifyDifference(pct decimal.Decimal) string {
	abs := pct.Abs()
	switch {
	case abs.LessThanOrEqual(decimal.NewFromInt(1)):
		return ClassificationNormal
	case abs.LessThanOrEqual(decimal.NewFromInt(5)):
		return ClassificationWarning
	default:
		return ClassificationCritical
	}
}

func (s *cashRegisterService) openSessionByID(ctx context.Context, id int64) (*model.CashSession, error) {
	sess, err := s.repo.FindSessionByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if sess.Status != dto.StatusOpen {
		return nil, ErrSessionClosed
	}
	return sess, nil
}

func (s *cashRegisterService) publish(ctx context.Context, ev dto.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event", ev.Type).Msg("event publish failed")
	}
}

func formatTimestamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func toSessionDTO(s *model.CashSession) dto.Session {
	out := dto.Session{
		ID:             s.ID,
		SessionNumber:  s.SessionNumber,
		OpenedAt:       formatTimestamp(s.OpenedAt),
		InitialBalance: s.InitialBalance,
		FinalBalance:   s.FinalBalance,
		Status:         s.Status,
		Notes:          s.Notes,
	}
	if s.ClosedAt != nil {
		closed := formatTimestamp(*s.ClosedAt)
		out.ClosedAt = &closed
	}
	return out
}

func toTransactionDTO(t *model.CashTransaction) dto.Transaction {
	out := dto.Transaction{
		ID:              t.ID,
		Amount:          t.Amount,
		Description:     t.Description,
		TransactionType: t.TransactionType,
		CreatedAt:       formatTimestamp(t.CreatedAt),
	}
	if t.PaymentMethod != nil {
		out.PaymentMethod = *t.PaymentMethod
	}
	if t.Category != nil {
		out.Category = *t.Category
	}
	return out
}
