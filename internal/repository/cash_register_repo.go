package repository

import (
	"context"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CashRegisterRepository interface {
	CreateSession(ctx context.Context, s *model.CashSession) error
	// FindOpenSession returns gorm.ErrRecordNotFound when the drawer is closed.
	FindOpenSession(ctx context.Context) (*model.CashSession, error)
	FindSessionByID(ctx context.Context, id int64) (*model.CashSession, error)
	NextSessionNumber(ctx context.Context) (int, error)
	UpdateSession(ctx context.Context, s *model.CashSession) error
	ListSessions(ctx context.Context, page, limit int) ([]model.CashSession, int64, error)

	CreateTransaction(ctx context.Context, t *model.CashTransaction) error
	FindTransactionByID(ctx context.Context, id int64) (*model.CashTransaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	ListTransactions(ctx context.Context, sessionID int64) ([]model.CashTransaction, error)
	SumTransactions(ctx context.Context, sessionID int64) (decimal.Decimal, error)

	CreateCut(ctx context.Context, c *model.CashCut) error
}

type cashRegisterRepo struct{ db *gorm.DB }

func NewCashRegisterRepository(db *gorm.DB) CashRegisterRepository {
	return &cashRegisterRepo{db: db}
}

func (r *cashRegisterRepo) CreateSession(ctx context.Context, s *model.CashSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *cashRegisterRepo) FindOpenSession(ctx context.Context) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).Where("status = ?", "open").First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cashRegisterRepo) FindSessionByID(ctx context.Context, id int64) (*model.CashSession, error) {
	var s model.CashSession
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cashRegisterRepo) NextSessionNumber(ctx context.Context) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&model.CashSession{}).
		Select("COALESCE(MAX(session_number), 0)").Scan(&max).Error
	return max + 1, err
}

func (r *cashRegisterRepo) UpdateSession(ctx context.Context, s *model.CashSession) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *cashRegisterRepo) ListSessions(ctx context.Context, page, limit int) ([]model.CashSession, int64, error) {
	var sessions []model.CashSession
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.CashSession{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.WithContext(ctx).Order("session_number DESC").Offset((page - 1) * limit).Limit(limit).Find(&sessions).Error
	return sessions, total, err
}

func (r *cashRegisterRepo) CreateTransaction(ctx context.Context, t *model.CashTransaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *cashRegisterRepo) FindTransactionByID(ctx context.Context, id int64) (*model.CashTransaction, error) {
	var t model.CashTransaction
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTransaction soft-deletes: the row keeps its deleted_at stamp and drops
// out of every default-scoped query.
func (r *cashRegisterRepo) DeleteTransaction(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.CashTransaction{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cashRegisterRepo) ListTransactions(ctx context.Context, sessionID int64) ([]model.CashTransaction, error) {
	var txns []model.CashTransaction
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at ASC, id ASC").Find(&txns).Error
	return txns, err
}

func (r *cashRegisterRepo) SumTransactions(ctx context.Context, sessionID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.CashTransaction{}).
		Where("session_id = ?", sessionID).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error
	return sum, err
}

func (r *cashRegisterRepo) CreateCut(ctx context.Context, c *model.CashCut) error {
	return r.db.WithContext(ctx).Create(c).Error
}
