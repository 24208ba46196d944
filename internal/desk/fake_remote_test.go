package desk

import (
	"context"
	"fmt"
	"sync"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/apierror"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/dto"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/ledger"

	"github.com/shopspring/decimal"
)

// fakeRemote is an in-memory cash register API. Amounts are signed with
// ledger.SignedAmount, as on the server, so derived figures match production.
type fakeRemote struct {
	mu       sync.Mutex
	sessions []*dto.Session
	txns     map[int64][]dto.Transaction
	nextID   int64

	calls map[string]int

	// Per-operation failure injection.
	failOpen, failClose, failCut, failExpense, failDelete error
	failCurrent, failList, failReport                       error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{txns: make(map[int64][]dto.Transaction), calls: make(map[string]int)}
}

func (f *fakeRemote) id() int64 { f.nextID++; return f.nextID }

func (f *fakeRemote) open() *dto.Session {
	for _, s := range f.sessions {
		if s.ClosedAt == nil {
			return s
		}
	}
	return nil
}

func (f *fakeRemote) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRemote) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// seed adds a transaction directly, as if recorded by another terminal.
func (f *fakeRemote) seed(typ, amount, method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.open()
	if s == nil {
		panic("seed without open session")
	}
	f.txns[s.ID] = append(f.txns[s.ID], dto.Transaction{
		ID:              f.id(),
		Amount:          ledger.SignedAmount(typ, decimal.RequireFromString(amount)),
		Description:     typ,
		TransactionType: typ,
		PaymentMethod:   method,
		CreatedAt:       "2025-11-14T09:30:00Z",
	})
}

func (f *fakeRemote) CurrentSession(context.Context) (*dto.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["current"]++
	if f.failCurrent != nil {
		return nil, f.failCurrent
	}
	if s := f.open(); s != nil {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeRemote) OpenSession(_ context.Context, req dto.OpenSessionRequest) (*dto.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["open"]++
	if f.failOpen != nil {
		return nil, f.failOpen
	}
	if f.open() != nil {
		return nil, &apierror.Remote{Status: 409, Detail: "A cash register session is already open"}
	}
	s := &dto.Session{
		ID:             f.id(),
		SessionNumber:  len(f.sessions) + 1,
		OpenedAt:       "2025-11-14T09:00:00Z",
		InitialBalance: req.InitialBalance,
		Status:         dto.StatusOpen,
	}
	f.sessions = append(f.sessions, s)
	cp := *s
	return &cp, nil
}

func (f *fakeRemote) CloseSession(_ context.Context, id int64, req dto.CloseSessionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["close"]++
	if f.failClose != nil {
		return f.failClose
	}
	s := f.open()
	if s == nil || s.ID != id {
		return &apierror.Remote{Status: 404, Detail: "Cash register session not found"}
	}
	closed := "2025-11-14T18:00:00Z"
	final := req.FinalBalance
	s.ClosedAt, s.FinalBalance, s.Status, s.Notes = &closed, &final, dto.StatusClosed, req.Notes
	return nil
}

func (f *fakeRemote) PerformCut(_ context.Context, id int64, req dto.CutRequest) (*dto.CutResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["cut"]++
	if f.failCut != nil {
		return nil, f.failCut
	}
	return &dto.CutResult{
		ID:              f.id(),
		SessionID:       id,
		CashPayments:    req.CashPayments,
		CardPayments:    req.CardPayments,
		DigitalPayments: req.DigitalPayments,
		OtherPayments:   req.OtherPayments,
		TotalPayments:   req.CashPayments.Add(req.CardPayments).Add(req.DigitalPayments).Add(req.OtherPayments),
	}, nil
}

func (f *fakeRemote) ListTransactions(_ context.Context, id int64) ([]dto.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["list"]++
	if f.failList != nil {
		return nil, f.failList
	}
	return append([]dto.Transaction{}, f.txns[id]...), nil
}

func (f *fakeRemote) AddExpense(_ context.Context, id int64, req dto.ExpenseRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["expense"]++
	if f.failExpense != nil {
		return f.failExpense
	}
	txn := dto.Transaction{
		ID:              f.id(),
		Amount:          req.Amount.Neg(),
		Description:     req.Description,
		TransactionType: dto.TypeExpense,
		CreatedAt:       "2025-11-14T10:00:00Z",
	}
	if req.Category != nil {
		txn.Category = *req.Category
	}
	f.txns[id] = append(f.txns[id], txn)
	return nil
}

func (f *fakeRemote) DeleteTransaction(_ context.Context, txID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	if f.failDelete != nil {
		return f.failDelete
	}
	for sid, list := range f.txns {
		for i, t := range list {
			if t.ID == txID {
				f.txns[sid] = append(list[:i:i], list[i+1:]...)
				return nil
			}
		}
	}
	return &apierror.Remote{Status: 404, Detail: fmt.Sprintf("Transaction %d not found", txID)}
}

func (f *fakeRemote) SessionReport(_ context.Context, id int64) (*dto.SessionReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["report"]++
	if f.failReport != nil {
		return nil, f.failReport
	}
	for _, s := range f.sessions {
		if s.ID != id {
			continue
		}
		txns := append([]dto.Transaction{}, f.txns[id]...)
		return &dto.SessionReport{
			Session:        *s,
			CurrentBalance: ledger.CurrentBalance(s.InitialBalance, txns),
			Transactions:   txns,
		}, nil
	}
	return nil, &apierror.Remote{Status: 404, Detail: "Cash register session not found"}
}
