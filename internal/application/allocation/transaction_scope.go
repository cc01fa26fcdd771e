package allocation

import (
	"context"

	"github.com/fieldsupply/backend/internal/domain/contract"
	"github.com/fieldsupply/backend/internal/domain/ordering"
)

// TransactionalRepositories provides access to all repositories bound to one
// database transaction.
type TransactionalRepositories interface {
	PurchaseOrders() contract.PurchaseOrderRepository
	Orders() ordering.OrderRepository
}

// TransactionScope executes a function atomically against the backing store.
// Reserve and swap run their whole check-and-write sequence inside a single
// scope so no partial reservation is ever observable: the function either
// commits as a unit or rolls back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}
