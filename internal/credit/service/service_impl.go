package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	creditdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/credit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
}

func NewService(p ServiceParam) creditdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("credit.service"),

		genID: p.GenID,
	}
}

func (s *Service) GetBalance(ctx context.Context, userID string) (*creditdomain.Account, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, creditdomain.ErrInvalidUser
	}

	var account creditdomain.Account
	err := s.db.WithContext(ctx).Raw(
		`SELECT user_id, balance, lifetime_granted, lifetime_used, created_at, updated_at
		 FROM credit_accounts
		 WHERE user_id = ?`,
		userID,
	).Scan(&account).Error
	if err != nil {
		return nil, creditdomain.ErrStoreUnavailable
	}
	if account.UserID == "" {
		return nil, creditdomain.ErrAccountNotFound
	}
	return &account, nil
}

func (s *Service) Grant(ctx context.Context, userID string, amount int64, reason string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return creditdomain.ErrInvalidUser
	}
	if amount <= 0 {
		return creditdomain.ErrInvalidAmount
	}

	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`INSERT INTO credit_accounts (user_id, balance, lifetime_granted, lifetime_used, created_at, updated_at)
			 VALUES (?, ?, ?, 0, ?, ?)
			 ON CONFLICT (user_id) DO UPDATE SET
				balance = balance + excluded.balance,
				lifetime_granted = lifetime_granted + excluded.lifetime_granted,
				updated_at = excluded.updated_at`,
			userID, amount, amount, now, now,
		).Error; err != nil {
			return creditdomain.ErrStoreUnavailable
		}
		return s.appendTransaction(ctx, tx, creditdomain.Transaction{
			UserID: userID,
			Amount: amount,
			Kind:   creditdomain.TransactionKindGrant,
			Reason: reason,
		})
	})
}

// Reserve performs a single guarded decrement so two concurrent
// reservations can never both spend the same credits.
func (s *Service) Reserve(ctx context.Context, userID string, amount int64, jobID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, creditdomain.ErrInvalidUser
	}
	if amount <= 0 {
		return false, creditdomain.ErrInvalidAmount
	}

	reserved := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(
			`UPDATE credit_accounts
			 SET balance = balance - ?,
			     lifetime_used = lifetime_used + ?,
			     updated_at = ?
			 WHERE user_id = ? AND balance >= ?`,
			amount, amount, time.Now().UTC(), userID, amount,
		)
		if result.Error != nil {
			return creditdomain.ErrStoreUnavailable
		}
		if result.RowsAffected == 0 {
			return nil
		}
		reserved = true
		return s.appendTransaction(ctx, tx, creditdomain.Transaction{
			UserID: userID,
			Amount: -amount,
			Kind:   creditdomain.TransactionKindReservation,
			JobID:  jobID,
		})
	})
	if err != nil {
		if errors.Is(err, creditdomain.ErrStoreUnavailable) {
			return false, err
		}
		return false, creditdomain.ErrStoreUnavailable
	}
	return reserved, nil
}

func (s *Service) Deduct(ctx context.Context, userID string, amount int64, jobID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return creditdomain.ErrInvalidUser
	}
	if amount < 0 {
		return creditdomain.ErrInvalidAmount
	}

	// The balance already moved at reservation time. The deduction row
	// records what actually settled for the job.
	err := s.appendTransaction(ctx, s.db, creditdomain.Transaction{
		UserID:   userID,
		Amount:   0,
		Kind:     creditdomain.TransactionKindDeduction,
		JobID:    jobID,
		Reason:   "settled",
		Metadata: datatypes.JSONMap{"settled_credits": amount},
	})
	if err != nil {
		return creditdomain.ErrStoreUnavailable
	}
	return nil
}

func (s *Service) Refund(ctx context.Context, userID string, amount int64, jobID string, reason string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return creditdomain.ErrInvalidUser
	}
	if amount <= 0 {
		return creditdomain.ErrInvalidAmount
	}

	// Server-side increment, not read-modify-write, so concurrent refunds
	// and reservations cannot lose updates.
	result := s.db.WithContext(ctx).Exec(
		`UPDATE credit_accounts
		 SET balance = balance + ?,
		     lifetime_used = lifetime_used - ?,
		     updated_at = ?
		 WHERE user_id = ?`,
		amount, amount, time.Now().UTC(), userID,
	)
	if result.Error != nil {
		return creditdomain.ErrRefundFailed
	}
	if result.RowsAffected == 0 {
		return creditdomain.ErrAccountNotFound
	}

	if err := s.appendTransaction(ctx, s.db, creditdomain.Transaction{
		UserID: userID,
		Amount: amount,
		Kind:   creditdomain.TransactionKindRefund,
		JobID:  jobID,
		Reason: reason,
	}); err != nil {
		// The balance mutation succeeded; losing the audit row is logged
		// but must not fail the refund itself.
		s.log.Error("refund transaction log append failed",
			zap.String("user_id", userID),
			zap.String("job_id", jobID),
			zap.Int64("amount", amount),
			zap.Error(err),
		)
	}
	return nil
}

func (s *Service) ListTransactions(ctx context.Context, userID string, limit int) ([]creditdomain.Transaction, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, creditdomain.ErrInvalidUser
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var transactions []creditdomain.Transaction
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, user_id, amount, kind, job_id, reason, created_at
		 FROM credit_transactions
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		userID, limit,
	).Scan(&transactions).Error
	if err != nil {
		return nil, creditdomain.ErrStoreUnavailable
	}
	return transactions, nil
}

func (s *Service) appendTransaction(ctx context.Context, tx *gorm.DB, record creditdomain.Transaction) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO credit_transactions (id, user_id, amount, kind, job_id, reason, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.genID.Generate(),
		record.UserID,
		record.Amount,
		record.Kind,
		record.JobID,
		record.Reason,
		record.Metadata,
		time.Now().UTC(),
	).Error
}
