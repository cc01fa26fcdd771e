package contract

import (
	"context"

	"github.com/fieldsupply/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	// FindByID finds a purchase order by ID, line items included
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByOrderNumber finds a purchase order by its order number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*PurchaseOrder, error)

	// FindAll finds purchase orders with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]PurchaseOrder, error)

	// FindLineItemByID finds a single line item by ID
	FindLineItemByID(ctx context.Context, id uuid.UUID) (*LineItem, error)

	// FindLineItemByIDForUpdate finds a line item and takes a row-level
	// exclusive lock on it for the duration of the surrounding transaction.
	// Reserve and swap serialize on this lock before recomputing the balance.
	FindLineItemByIDForUpdate(ctx context.Context, id uuid.UUID) (*LineItem, error)

	// Save creates or updates a purchase order with its line items
	Save(ctx context.Context, order *PurchaseOrder) error

	// Count counts purchase orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByOrderNumber checks if an order number is already taken
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)

	// GenerateOrderNumber generates a unique purchase order number
	GenerateOrderNumber(ctx context.Context) (string, error)
}
