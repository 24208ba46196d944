package model

import (
	"time"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/dto"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashSession is one opening-to-closing period of the drawer.
// Status: "open" | "closed". At most one row is open at a time (partial unique index).
type CashSession struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	SessionNumber  int             `gorm:"not null;uniqueIndex"`
	OpenedBy       string          `gorm:"type:varchar(100);not null"`
	ClosedBy       *string         `gorm:"type:varchar(100)"`
	InitialBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// ExpectedBalance is computed on close: InitialBalance + SUM(transactions)
	ExpectedBalance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	FinalBalance    *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Difference      *decimal.Decimal `gorm:"type:decimal(12,2)"`
	DifferencePct   *decimal.Decimal `gorm:"type:decimal(7,2)"`
	// Classification: "normal" | "warning" | "critical"
	Classification *string             `gorm:"type:varchar(20)"`
	Denominations  *dto.Denominations  `gorm:"type:jsonb;serializer:json"`
	Status         string              `gorm:"type:varchar(20);not null;default:'open'"`
	Notes          *string
	OpenedAt       time.Time
	ClosedAt       *time.Time
}

func (CashSession) TableName() string { return "cash_register_sessions" }

// CashTransaction is a signed ledger entry. Deletes are soft so the audit trail survives.
type CashTransaction struct {
	ID              int64           `gorm:"primaryKey;autoIncrement"`
	SessionID       int64           `gorm:"index;not null"`
	TransactionType string          `gorm:"type:varchar(30);not null"`
	PaymentMethod   *string         `gorm:"type:varchar(20)"`
	Category        *string         `gorm:"type:varchar(60)"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description     string          `gorm:"not null"`
	CreatedBy       string          `gorm:"type:varchar(100);not null"`
	CreatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (CashTransaction) TableName() string { return "cash_register_transactions" }

// CashCut records a mid-session cut: the per-method totals at the time it was taken.
type CashCut struct {
	ID              int64           `gorm:"primaryKey;autoIncrement"`
	SessionID       int64           `gorm:"index;not null"`
	CashPayments    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CardPayments    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DigitalPayments decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	OtherPayments   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalPayments   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedBy       string          `gorm:"type:varchar(100);not null"`
	CreatedAt       time.Time
}

func (CashCut) TableName() string { return "cash_register_cuts" }
