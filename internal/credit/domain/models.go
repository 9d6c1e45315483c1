package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// TransactionKind classifies entries in the append-only credit log.
type TransactionKind string

const (
	TransactionKindGrant       TransactionKind = "grant"
	TransactionKindReservation TransactionKind = "reservation"
	TransactionKindDeduction   TransactionKind = "deduction"
	TransactionKindRefund      TransactionKind = "refund"
)

// Account is the mutable per-user balance row.
type Account struct {
	UserID          string    `gorm:"primaryKey;column:user_id" json:"user_id"`
	Balance         int64     `gorm:"not null;default:0" json:"balance"`
	LifetimeGranted int64     `gorm:"not null;default:0" json:"lifetime_granted"`
	LifetimeUsed    int64     `gorm:"not null;default:0" json:"lifetime_used"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "credit_accounts" }

// Transaction is an immutable ledger record. Amounts are signed:
// reservations are negative, grants and refunds positive.
type Transaction struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID    string            `gorm:"not null;index" json:"user_id"`
	Amount    int64             `gorm:"not null" json:"amount"`
	Kind      TransactionKind   `gorm:"type:text;not null" json:"kind"`
	JobID     string            `gorm:"not null;default:''" json:"job_id,omitempty"`
	Reason    string            `gorm:"not null;default:''" json:"reason,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Transaction) TableName() string { return "credit_transactions" }
