package ordering

import (
	"context"

	"github.com/fieldsupply/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order by ID, pending reprogram request included
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderCode finds an order by its human-readable code
	FindByOrderCode(ctx context.Context, orderCode string) (*Order, error)

	// FindAll finds orders with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// FindByLineItem finds orders referencing a line item
	FindByLineItem(ctx context.Context, lineItemID uuid.UUID, filter shared.Filter) ([]Order, error)

	// FindPendingApproval finds urgent orders waiting for approval
	FindPendingApproval(ctx context.Context, filter shared.Filter) ([]Order, error)

	// FindPendingReprogram finds orders with an unresolved reprogram request
	FindPendingReprogram(ctx context.Context, filter shared.Filter) ([]Order, error)

	// SumConsumedQuantity sums the quantities of orders on a line item whose
	// status still consumes balance. Must see all rows committed by earlier
	// writers of the same line item when called under the line item row lock.
	SumConsumedQuantity(ctx context.Context, lineItemID uuid.UUID) (decimal.Decimal, error)

	// Save creates or updates an order
	Save(ctx context.Context, order *Order) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, order *Order) error

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// GenerateOrderCode generates a unique human-readable order code
	GenerateOrderCode(ctx context.Context) (string, error)
}
