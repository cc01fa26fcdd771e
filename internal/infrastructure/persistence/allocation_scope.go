package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/fieldsupply/backend/internal/application/allocation"
	"github.com/fieldsupply/backend/internal/domain/contract"
	"github.com/fieldsupply/backend/internal/domain/ordering"
	"github.com/fieldsupply/backend/internal/domain/shared"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed. Serialization
// failures surface as concurrency conflicts so the caller can retry.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos allocation.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
	if err != nil && isSerializationFailure(err) {
		return shared.ErrConcurrencyConflict
	}
	return err
}

// isSerializationFailure recognizes driver-level conflicts between
// concurrent transactions: Postgres serialization/deadlock errors and
// SQLite's busy/locked states.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		if pqErr.Code == "40001" || pqErr.Code == "40P01" {
			return true
		}
		// Reserves on different line items hold no common row lock, so two
		// of them can generate the same next order code. The loser's unique
		// violation is transient: a retry reads the committed code and
		// generates the next one.
		return pqErr.Code == "23505" && pqErr.Constraint == "uq_orders_order_code"
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "UNIQUE constraint failed: orders.order_code")
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// PurchaseOrders returns the purchase order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PurchaseOrders() contract.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

// Orders returns the order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Orders() ordering.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ allocation.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ allocation.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
