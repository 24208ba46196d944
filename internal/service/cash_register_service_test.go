package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/dto"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory CashRegisterRepository ─────────────────────────────────────────

type memCashRepo struct {
	mu           sync.Mutex
	sessions     map[int64]*model.CashSession
	transactions map[int64]*model.CashTransaction
	cuts         []model.CashCut
	nextID       int64
	failCreate   error
}

func newMemCashRepo() *memCashRepo {
	return &memCashRepo{
		sessions:     make(map[int64]*model.CashSession),
		transactions: make(map[int64]*model.CashTransaction),
	}
}

func (r *memCashRepo) id() int64 { r.nextID++; return r.nextID }

func (r *memCashRepo) CreateSession(_ context.Context, s *model.CashSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	s.ID = r.id()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *memCashRepo) FindOpenSession(_ context.Context) (*model.CashSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Status == dto.StatusOpen {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memCashRepo) FindSessionByID(_ context.Context, id int64) (*model.CashSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memCashRepo) NextSessionNumber(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, s := range r.sessions {
		if s.SessionNumber > max {
			max = s.SessionNumber
		}
	}
	return max + 1, nil
}

func (r *memCashRepo) UpdateSession(_ context.Context, s *model.CashSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *memCashRepo) ListSessions(_ context.Context, page, limit int) ([]model.CashSession, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]model.CashSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, *s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SessionNumber > all[j].SessionNumber })
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r *memCashRepo) CreateTransaction(_ context.Context, t *model.CashTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.id()
	cp := *t
	r.transactions[t.ID] = &cp
	return nil
}

func (r *memCashRepo) FindTransactionByID(_ context.Context, id int64) (*model.CashTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok || t.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memCashRepo) DeleteTransaction(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok || t.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	t.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

func (r *memCashRepo) ListTransactions(_ context.Context, sessionID int64) ([]model.CashTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CashTransaction
	for _, t := range r.transactions {
		if t.SessionID == sessionID && !t.DeletedAt.Valid {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memCashRepo) SumTransactions(ctx context.Context, sessionID int64) (decimal.Decimal, error) {
	txns, _ := r.ListTransactions(ctx, sessionID)
	sum := decimal.Zero
	for _, t := range txns {
		sum = sum.Add(t.Amount)
	}
	return sum, nil
}

func (r *memCashRepo) CreateCut(_ context.Context, c *model.CashCut) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.id()
	r.cuts = append(r.cuts, *c)
	return nil
}

// ── Spies ─────────────────────────────────────────────────────────────────────

type spyPublisher struct {
	events []dto.Event
	err    error
}

func (p *spyPublisher) Publish(_ context.Context, ev dto.Event) error {
	p.events = append(p.events, ev)
	return p.err
}

type spyMetrics struct {
	opened, cuts int
	closed       []string
	txns         []string
}

func (m *spyMetrics) IncrSessionOpened() { m.opened++ }
func (m *spyMetrics) IncrSessionClosed(c string) { m.closed = append(m.closed, c) }
func (m *spyMetrics) IncrTransaction(t string) { m.txns = append(m.txns, t) }
func (m *spyMetrics) IncrCut() { m.cuts++ }

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func newTestService() (*cashRegisterService, *memCashRepo, *spyPublisher, *spyMetrics) {
	repo := newMemCashRepo()
	pub := &spyPublisher{}
	met := &spyMetrics{}
	svc := NewCashRegisterService(repo, pub, met).(*cashRegisterService)
	svc.now = func() time.Time { return time.Date(2025, 11, 14, 9, 0, 0, 0, time.UTC) }
	return svc, repo, pub, met
}

func openSession(t *testing.T, svc CashRegisterService, initial string) *dto.Session {
	t.Helper()
	sess, err := svc.OpenSession(context.Background(), "ana", dto.OpenSessionRequest{InitialBalance: d(initial)})
	require.NoError(t, err)
	return sess
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestOpenSession(t *testing.T) {
	svc, _, pub, met := newTestService()

	sess := openSession(t, svc, "1000")
	assert.Equal(t, 1, sess.SessionNumber)
	assert.Equal(t, dto.StatusOpen, sess.Status)
	assert.Equal(t, "2025-11-14T09:00:00Z", sess.OpenedAt)
	assert.True(t, sess.InitialBalance.Equal(d("1000")))
	assert.Nil(t, sess.ClosedAt)
	assert.Equal(t, 1, met.opened)
	require.Len(t, pub.events, 1)
	assert.Equal(t, dto.EventSessionOpened, pub.events[0].Type)

	current, err := svc.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sess.ID, current.ID)
}

func TestOpenSession_AlreadyOpen(t *testing.T) {
	svc, _, _, _ := newTestService()
	openSession(t, svc, "100")

	_, err := svc.OpenSession(context.Background(), "ana", dto.OpenSessionRequest{InitialBalance: d("50")})
	assert.ErrorIs(t, err, ErrSessionAlreadyOpen)
}

func TestOpenSession_DuplicateKeyIsAlreadyOpen(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.failCreate = gorm.ErrDuplicatedKey

	_, err := svc.OpenSession(context.Background(), "ana", dto.OpenSessionRequest{InitialBalance: d("50")})
	assert.ErrorIs(t, err, ErrSessionAlreadyOpen)
}

func TestCurrentSession_None(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.CurrentSession(context.Background())
	assert.ErrorIs(t, err, ErrNoOpenSession)
}

func TestSessionNumbersIncrease(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	first := openSession(t, svc, "100")
	_, err := svc.CloseSession(ctx, "ana", first.ID, dto.CloseSessionRequest{FinalBalance: d("100")})
	require.NoError(t, err)
	second := openSession(t, svc, "100")
	assert.Equal(t, first.SessionNumber+1, second.SessionNumber)
}

func TestRecordTransaction_SignNormalization(t *testing.T) {
	svc, _, _, met := newTestService()
	ctx := context.Background()
	sess := openSession(t, svc, "0")

	cases := []struct {
		typ  string
		want string
	}{
		{dto.TypeSale, "500"},
		{dto.TypeTip, "20"},
		{dto.TypeManualAdd, "30"},
		{dto.TypeRefund, "-40"},
		{dto.TypeCancellation, "-10"},
		{dto.TypeManualWithdraw, "-25"},
	}
	amounts := map[string]string{
		dto.TypeSale: "500", dto.TypeTip: "20", dto.TypeManualAdd: "30",
		dto.TypeRefund: "40", dto.TypeCancellation: "10", dto.TypeManualWithdraw: "25",
	}
	for _, tc := range cases {
		txn, err := svc.RecordTransaction(ctx, "ana", sess.ID, dto.RecordTransactionRequest{
			TransactionType: tc.typ,
			Amount:          d(amounts[tc.typ]),
			Description:     "  " + tc.typ + "  ",
			PaymentMethod:   "CASH",
		})
		require.NoError(t, err, tc.typ)
		assert.True(t, txn.Amount.Equal(d(tc.want)), "%s: got %s", tc.typ, txn.Amount)
		assert.Equal(t, dto.MethodCash, txn.PaymentMethod)
		assert.Equal(t, tc.typ, txn.Description)
	}
	assert.Len(t, met.txns, len(cases))
}

func TestAddExpense_StoredNegative(t *testing.T) {
	svc, _, pub, _ := newTestService()
	ctx := context.Background()
	sess := openSession(t, svc, "200")
	cat := "supplies"

	txn, err := svc.AddExpense(ctx, "ana", sess.ID, dto.ExpenseRequest{Amount: d("35.50"), Description: "Ice", Category: &cat})
	require.NoError(t, err)
	assert.True(t, txn.Amount.Equal(d("-35.50")))
	assert.Equal(t, dto.TypeExpense, txn.TransactionType)
	assert.Equal(t, "supplies", txn.Category)
	assert.Empty(t, txn.PaymentMethod)

	last := pub.events[len(pub.events)-1]
	assert.Equal(t, dto.EventTransactionCreated, last.Type)
	assert.Equal(t, txn.ID, last.TransactionID)
}

func TestTransactionsRequireOpenSession(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddExpense(ctx, "ana", 99, dto.ExpenseRequest{Amount: d("1"), Description: "x"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	sess := openSession(t, svc, "100")
	_, err = svc.CloseSession(ctx, "ana", sess.ID, dto.CloseSessionRequest{FinalBalance: d("100")})
	require.NoError(t, err)

	_, err = svc.AddExpense(ctx, "ana", sess.ID, dto.ExpenseRequest{Amount: d("1"), Description: "x"})
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = svc.PerformCut(ctx, "ana", sess.ID, dto.CutRequest{})
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = svc.CloseSession(ctx, "ana", sess.ID, dto.CloseSessionRequest{FinalBalance: d("100")})
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestCloseSession_Reconciliation(t *testing.T) {
	cases := []struct {
		name           string
		final          string
		notes          *string
		wantClass      string
		wantDifference string
		wantErr        error
	}{
		{"exact", "1400", nil, ClassificationNormal, "0", nil},
		{"within one percent", "1390", nil, ClassificationNormal, "-10", nil},
		{"warning", "1450", nil, ClassificationWarning, "50", nil},
		{"critical without notes", "1000", nil, "", "", ErrNotesRequired},
		{"critical with notes", "1000", strPtr("till short, reported"), ClassificationCritical, "-400", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _, met := newTestService()
			ctx := context.Background()
			sess := openSession(t, svc, "1000")
			_, err := svc.RecordTransaction(ctx, "ana", sess.ID, dto.RecordTransactionRequest{
				TransactionType: dto.TypeSale, Amount: d("500"), Description: "Payment for order #1", PaymentMethod: "cash",
			})
			require.NoError(t, err)
			_, err = svc.AddExpense(ctx, "ana", sess.ID, dto.ExpenseRequest{Amount: d("100"), Description: "Milk"})
			require.NoError(t, err)

			resp, err := svc.CloseSession(ctx, "ana", sess.ID, dto.CloseSessionRequest{FinalBalance: d(tc.final), Notes: tc.notes})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				current, cerr := svc.CurrentSession(ctx)
				require.NoError(t, cerr)
				assert.Equal(t, sess.ID, current.ID, "session must stay open")
				return
			}
			require.NoError(t, err)
			assert.True(t, resp.ExpectedBalance.Equal(d("1400")))
			assert.True(t, resp.Difference.Amount.Equal(d(tc.wantDifference)), "got %s", resp.Difference.Amount)
			assert.Equal(t, tc.wantClass, resp.Difference.Classification)
			assert.Equal(t, dto.StatusClosed, resp.Status)
			assert.Equal(t, []string{tc.wantClass}, met.closed)

			_, err = svc.CurrentSession(ctx)
			assert.ErrorIs(t, err, ErrNoOpenSession)
		})
	}
}

func TestCloseSession_StoresDenominations(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()
	sess := openSession(t, svc, "100")

	count := &dto.Denominations{Bills50: 2}
	_, err := svc.CloseSession(ctx, "ana", sess.ID, dto.CloseSessionRequest{FinalBalance: d("100"), Denominations: count})
	require.NoError(t, err)

	stored := repo.sessions[sess.ID]
	require.NotNil(t, stored.Denominations)
	assert.Equal(t, 2, stored.Denominations.Bills50)
	require.NotNil(t, stored.ClosedBy)
	assert.Equal(t, "ana", *stored.ClosedBy)
	require.NotNil(t, stored.ClosedAt)
}

func TestDifferencePct_ZeroExpected(t *testing.T) {
	assert.True(t, differencePct(decimal.Zero, decimal.Zero).IsZero())
	assert.True(t, differencePct(d("5"), decimal.Zero).Equal(d("100")))
	assert.True(t, differencePct(d("-5"), d("200")).Equal(d("-2.5")))
}

func TestPerformCut(t *testing.T) {
	svc, repo, pub, met := newTestService()
	ctx := context.Background()
	sess := openSession(t, svc, "100")

	res, err := svc.PerformCut(ctx, "ana", sess.ID, dto.CutRequest{
		CashPayments: d("120.50"), CardPayments: d("80"), DigitalPayments: d("0"), OtherPayments: d("9.50"),
	})
	require.NoError(t, err)
	assert.True(t, res.TotalPayments.Equal(d("210")))
	assert.Equal(t, sess.ID, res.SessionID)
	assert.Len(t, repo.cuts, 1)
	assert.Equal(t, 1, met.cuts)
	assert.Equal(t, dto.EventCutPerformed, pub.events[len(pub.events)-1].Type)

	// A cut is not a ledger entry.
	txns, err := svc.ListTransactions(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestDeleteTransaction(t *testing.T) {
	svc, _, pub, _ := newTestService()
	ctx := context.Background()
	sess := openSession(t, svc, "100")
	txn, err := svc.AddExpense(ctx, "ana", sess.ID, dto.ExpenseRequest{Amount: d("10"), Description: "Ice"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTransaction(ctx, "sup", txn.ID))
	assert.Equal(t, dto.EventTransactionDeleted, pub.events[len(pub.events)-1].Type)

	txns, err := svc.ListTransactions(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)

	assert.ErrorIs(t, svc.DeleteTransaction(ctx, "sup", txn.ID), ErrTransactionNotFound)
}

func TestDeleteTransaction_ClosedSession(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	sess := openSession(t, svc, "100")
	txn, err := svc.AddExpense(ctx, "ana", sess.ID, dto.ExpenseRequest{Amount: d("10"), Description: "Ice"})
	require.NoError(t, err)
	_, err = svc.CloseSession(ctx, "ana", sess.ID, dto.CloseSessionRequest{FinalBalance: d("90")})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteTransaction(ctx, "sup", txn.ID), ErrSessionClosed)
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	svc, _, pub, _ := newTestService()
	pub.err = errors.New("redis down")

	sess := openSession(t, svc, "100")
	assert.NotZero(t, sess.ID)
}

func TestSessionReport(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	sess := openSession(t, svc, "1000")
	for _, req := range []dto.RecordTransactionRequest{
		{TransactionType: dto.TypeSale, Amount: d("500"), Description: "a", PaymentMethod: "cash"},
		{TransactionType: dto.TypeSale, Amount: d("300"), Description: "b", PaymentMethod: "card"},
		{TransactionType: dto.TypeRefund, Amount: d("50"), Description: "c", PaymentMethod: "cash"},
		{TransactionType: dto.TypeTip, Amount: d("20"), Description: "d", PaymentMethod: "digital"},
	} {
		_, err := svc.RecordTransaction(ctx, "ana", sess.ID, req)
		require.NoError(t, err)
	}
	_, err := svc.AddExpense(ctx, "ana", sess.ID, dto.ExpenseRequest{Amount: d("100"), Description: "e"})
	require.NoError(t, err)

	report, err := svc.SessionReport(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, report.CurrentBalance.Equal(d("1670")), "got %s", report.CurrentBalance)
	assert.True(t, report.Cut.TotalSales.Equal(d("800")))
	// Refunds are stored negative and the net formula subtracts the signed sum.
	assert.True(t, report.Cut.TotalRefunds.Equal(d("-50")))
	assert.True(t, report.Cut.TotalExpenses.Equal(d("100")))
	assert.True(t, report.Cut.NetCashFlow.Equal(d("770")))
	assert.True(t, report.Breakdown.Cash.Equal(d("500")))
	assert.True(t, report.Breakdown.Card.Equal(d("300")))
	assert.True(t, report.Breakdown.Digital.Equal(d("20")))
	assert.Len(t, report.Transactions, 5)

	_, err = svc.SessionReport(ctx, 999)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestListSessions_Pagination(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		sess := openSession(t, svc, "10")
		_, err := svc.CloseSession(ctx, "ana", sess.ID, dto.CloseSessionRequest{FinalBalance: d("10")})
		require.NoError(t, err)
	}

	page, err := svc.ListSessions(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Data, 2)
	assert.Equal(t, 3, page.Data[0].SessionNumber)

	page, err = svc.ListSessions(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.Limit)
}

func strPtr(s string) *string { return &s }
