package desk

import (
	"context"
	"sync"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/dto"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/ledger"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Remote is the transport to the cash register API. infra.CashAPIClient is the
// production implementation.
type Remote interface {
	CurrentSession(ctx context.Context) (*dto.Session, error)
	OpenSession(ctx context.Context, req dto.OpenSessionRequest) (*dto.Session, error)
	CloseSession(ctx context.Context, sessionID int64, req dto.CloseSessionRequest) error
	PerformCut(ctx context.Context, sessionID int64, req dto.CutRequest) (*dto.CutResult, error)
	ListTransactions(ctx context.Context, sessionID int64) ([]dto.Transaction, error)
	AddExpense(ctx context.Context, sessionID int64, req dto.ExpenseRequest) error
	DeleteTransaction(ctx context.Context, transactionID int64) error
	// SessionReport reads any session, open or closed, with its transactions.
	SessionReport(ctx context.Context, sessionID int64) (*dto.SessionReport, error)
}

// State of the mirrored session.
type State int

const (
	StateNone State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "none"
	}
}

// Snapshot is an immutable copy of the mirror plus the figures derived from it.
type Snapshot struct {
	State        State
	Session      *dto.Session
	Transactions []dto.Transaction

	CurrentBalance decimal.Decimal
	Sales          decimal.Decimal
	Expenses       decimal.Decimal
	SalesCount     int
	ExpensesCount  int
	Cut            dto.CutReport
	Breakdown      dto.PaymentBreakdown

	// LastCut is the most recent cut performed from this desk, if any.
	LastCut *dto.CutResult
}

// Orchestrator owns the local mirror of the current session and its
// transactions. It is the only component that calls Remote.
//
// Every successful mutation re-reads the session from the server; the mirror is
// replaced only when that re-read succeeds. Failures leave the mirror untouched
// and come back to the caller unchanged. Operations are serialized.
type Orchestrator struct {
	remote Remote

	opMu sync.Mutex

	mu      sync.RWMutex
	state   State
	session *dto.Session
	txns    []dto.Transaction
	lastCut *dto.CutResult

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

func NewOrchestrator(remote Remote) *Orchestrator {
	return &Orchestrator{
		remote: remote,
		txns:   []dto.Transaction{},
		subs:   make(map[int]func(Snapshot)),
	}
}

// ── Observers ─────────────────────────────────────────────────────────────────

// Subscribe registers fn to receive a snapshot after every change to the mirror.
// fn runs on the goroutine that made the change and must not call back into a
// mutating operation. The returned func unregisters it.
func (o *Orchestrator) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	o.subMu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = fn
	o.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.subMu.Lock()
			delete(o.subs, id)
			o.subMu.Unlock()
		})
	}
}

func (o *Orchestrator) notify() {
	snap := o.Snapshot()
	o.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// ── Getters ───────────────────────────────────────────────────────────────────

func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Session returns a copy of the mirrored session, or nil.
func (o *Orchestrator) Session() *dto.Session {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return copySession(o.session)
}

// Transactions returns a copy of the mirrored transaction list.
func (o *Orchestrator) Transactions() []dto.Transaction {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]dto.Transaction{}, o.txns...)
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	txns := append([]dto.Transaction{}, o.txns...)
	snap := Snapshot{
		State:         o.state,
		Session:       copySession(o.session),
		Transactions:  txns,
		Sales:         ledger.SessionSales(txns),
		Expenses:      ledger.SessionExpenses(txns),
		SalesCount:    ledger.SalesCount(txns),
		ExpensesCount: ledger.ExpensesCount(txns),
		Cut:           ledger.Cut(txns),
		Breakdown:     ledger.Breakdown(txns),
		LastCut:       o.lastCut,
	}
	if o.session != nil {
		snap.CurrentBalance = ledger.CurrentBalance(o.session.InitialBalance, txns)
	}
	return snap
}

// ── Operations ────────────────────────────────────────────────────────────────

// LoadCurrentSession replaces the mirror with the server's open session and its
// transactions, or with nothing when no session is open.
func (o *Orchestrator) LoadCurrentSession(ctx context.Context) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	sess, txns, err := o.fetch(ctx)
	if err != nil {
		return err
	}
	o.swap(stateFor(sess), sess, txns, o.lastCutFor(sess))
	return nil
}

// OpenSession asks the server to open a session. A rejection (for example a
// session already open elsewhere) is returned as-is.
func (o *Orchestrator) OpenSession(ctx context.Context, initialBalance decimal.Decimal) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if _, err := o.remote.OpenSession(ctx, dto.OpenSessionRequest{InitialBalance: initialBalance}); err != nil {
		return err
	}
	return o.refresh(ctx, "open session")
}

// CloseSession closes the open session. After success the mirror reports
// StateClosed with the closed session until the next load or open.
func (o *Orchestrator) CloseSession(ctx context.Context, actualBalance decimal.Decimal, notes *string, denominations *dto.Denominations) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	sess, err := o.openSession()
	if err != nil {
		return err
	}
	req := dto.CloseSessionRequest{FinalBalance: actualBalance, Notes: notes, Denominations: denominations}
	if err := o.remote.CloseSession(ctx, sess.ID, req); err != nil {
		return err
	}

	current, err := o.remote.CurrentSession(ctx)
	if err != nil {
		return &RefreshError{Op: "close session", Err: err}
	}
	if current != nil && current.ID != sess.ID {
		// Someone already opened the next session.
		txns, err := o.remote.ListTransactions(ctx, current.ID)
		if err != nil {
			return &RefreshError{Op: "close session", Err: err}
		}
		o.swap(StateOpen, current, txns, nil)
		return nil
	}

	report, err := o.remote.SessionReport(ctx, sess.ID)
	if err != nil {
		return &RefreshError{Op: "close session", Err: err}
	}
	closed := report.Session
	state := StateClosed
	if closed.ClosedAt == nil && closed.Status != dto.StatusClosed {
		state = StateOpen
	}
	o.swap(state, &closed, report.Transactions, nil)
	return nil
}

func (o *Orchestrator) AddExpense(ctx context.Context, amount decimal.Decimal, description string, category *string) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	sess, err := o.openSession()
	if err != nil {
		return err
	}
	req := dto.ExpenseRequest{Amount: amount, Description: description, Category: category}
	if err := o.remote.AddExpense(ctx, sess.ID, req); err != nil {
		return err
	}
	return o.refresh(ctx, "add expense")
}

// PerformCut posts the per-method totals of the mirrored transactions as a cut
// of the open session. The totals are taken under the operation lock, so a
// concurrent reload cannot change them between reading and posting.
func (o *Orchestrator) PerformCut(ctx context.Context) (*dto.CutResult, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	sess, err := o.openSession()
	if err != nil {
		return nil, err
	}
	breakdown := ledger.Breakdown(o.Transactions())
	result, err := o.remote.PerformCut(ctx, sess.ID, breakdown.CutRequest())
	if err != nil {
		return nil, err
	}

	current, txns, err := o.fetch(ctx)
	if err != nil {
		return result, &RefreshError{Op: "perform cut", Err: err}
	}
	var lastCut *dto.CutResult
	if current != nil && current.ID == sess.ID {
		lastCut = result
	}
	o.swap(stateFor(current), current, txns, lastCut)
	return result, nil
}

func (o *Orchestrator) DeleteTransaction(ctx context.Context, transactionID int64) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if _, err := o.openSession(); err != nil {
		return err
	}
	if err := o.remote.DeleteTransaction(ctx, transactionID); err != nil {
		return err
	}
	return o.refresh(ctx, "delete transaction")
}

// ── Internals ─────────────────────────────────────────────────────────────────

func (o *Orchestrator) openSession() (*dto.Session, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.state != StateOpen || o.session == nil {
		return nil, ErrNoOpenSession
	}
	return copySession(o.session), nil
}

func (o *Orchestrator) fetch(ctx context.Context) (*dto.Session, []dto.Transaction, error) {
	sess, err := o.remote.CurrentSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil {
		return nil, []dto.Transaction{}, nil
	}
	txns, err := o.remote.ListTransactions(ctx, sess.ID)
	if err != nil {
		return nil, nil, err
	}
	return sess, txns, nil
}

func (o *Orchestrator) refresh(ctx context.Context, op string) error {
	sess, txns, err := o.fetch(ctx)
	if err != nil {
		return &RefreshError{Op: op, Err: err}
	}
	o.swap(stateFor(sess), sess, txns, o.lastCutFor(sess))
	return nil
}

// lastCutFor keeps the remembered cut only while the same session is mirrored.
func (o *Orchestrator) lastCutFor(sess *dto.Session) *dto.CutResult {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if sess == nil || o.lastCut == nil || o.lastCut.SessionID != sess.ID {
		return nil
	}
	return o.lastCut
}

func (o *Orchestrator) swap(state State, sess *dto.Session, txns []dto.Transaction, lastCut *dto.CutResult) {
	if txns == nil {
		txns = []dto.Transaction{}
	}
	o.mu.Lock()
	o.state = state
	o.session = sess
	o.txns = txns
	o.lastCut = lastCut
	o.mu.Unlock()

	log.Debug().Str("state", state.String()).Int("transactions", len(txns)).Msg("desk mirror updated")
	o.notify()
}

func stateFor(sess *dto.Session) State {
	if sess == nil {
		return StateNone
	}
	return StateOpen
}

func copySession(s *dto.Session) *dto.Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
