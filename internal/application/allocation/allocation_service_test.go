package allocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldsupply/backend/internal/domain/contract"
	"github.com/fieldsupply/backend/internal/domain/ordering"
	"github.com/fieldsupply/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockPurchaseOrderRepository is a mock implementation of PurchaseOrderRepository
type MockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *MockPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*contract.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*contract.PurchaseOrder, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]contract.PurchaseOrder, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contract.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindLineItemByID(ctx context.Context, id uuid.UUID) (*contract.LineItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.LineItem), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindLineItemByIDForUpdate(ctx context.Context, id uuid.UUID) (*contract.LineItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.LineItem), args.Error(1)
}

func (m *MockPurchaseOrderRepository) Save(ctx context.Context, order *contract.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPurchaseOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	args := m.Called(ctx, orderNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockPurchaseOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOrderCode(ctx context.Context, orderCode string) (*ordering.Order, error) {
	args := m.Called(ctx, orderCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ordering.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByLineItem(ctx context.Context, lineItemID uuid.UUID, filter shared.Filter) ([]ordering.Order, error) {
	args := m.Called(ctx, lineItemID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) FindPendingApproval(ctx context.Context, filter shared.Filter) ([]ordering.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) FindPendingReprogram(ctx context.Context, filter shared.Filter) ([]ordering.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) SumConsumedQuantity(ctx context.Context, lineItemID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, lineItemID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *ordering.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, order *ordering.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) GenerateOrderCode(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// stubScope runs the function directly against the given repositories, with
// no real transaction behind it.
type stubScope struct {
	purchaseOrders contract.PurchaseOrderRepository
	orders         ordering.OrderRepository
}

func (s *stubScope) PurchaseOrders() contract.PurchaseOrderRepository { return s.purchaseOrders }
func (s *stubScope) Orders() ordering.OrderRepository                 { return s.orders }

func (s *stubScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// conflictingScope fails the first n executions with a concurrency conflict
// before delegating to the inner scope.
type conflictingScope struct {
	inner     *stubScope
	conflicts int
	calls     int
}

func (s *conflictingScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	s.calls++
	if s.calls <= s.conflicts {
		return shared.ErrConcurrencyConflict
	}
	return s.inner.Execute(ctx, fn)
}

var (
	testLineItemID  = uuid.New()
	testPOID        = uuid.New()
	testProductID   = uuid.New()
	testSiteID      = uuid.New()
	testSupplierID  = uuid.New()
	testOrderCode   = "ORD-2026-00042"
	testUnit        = "m3"
	testFixedNow    = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	testDeliveryFar = time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC)
)

func newTestService(po *MockPurchaseOrderRepository, orders *MockOrderRepository, opts ...ServiceOption) *Service {
	scope := &stubScope{purchaseOrders: po, orders: orders}
	base := []ServiceOption{WithClock(func() time.Time { return testFixedNow })}
	return NewService(scope, po, orders, zap.NewNop(), append(base, opts...)...)
}

func createTestPurchaseOrder(t *testing.T) *contract.PurchaseOrder {
	t.Helper()
	po, err := contract.NewPurchaseOrder(
		"PO-2026-00007", testSupplierID, "Cimento Forte LTDA",
		testSiteID, "Obra Margem Norte",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("building purchase order: %v", err)
	}
	po.ID = testPOID
	return po
}

func createTestLineItem(t *testing.T, total int64) *contract.LineItem {
	t.Helper()
	item, err := contract.NewLineItem(testPOID, testProductID, "Concreto usinado", "CON-30", testUnit, decimal.NewFromInt(total))
	if err != nil {
		t.Fatalf("building line item: %v", err)
	}
	item.ID = testLineItemID
	return item
}

func TestAllocationService_Reserve(t *testing.T) {
	t.Run("admits order when balance covers the quantity", func(t *testing.T) {
		poRepo := new(MockPurchaseOrderRepository)
		orderRepo := new(MockOrderRepository)
		service := newTestService(poRepo, orderRepo)
		ctx := context.Background()

		poRepo.On("FindLineItemByIDForUpdate", mock.Anything, testLineItemID).Return(createTestLineItem(t, 100), nil)
		poRepo.On("FindByID", mock.Anything, testPOID).Return(createTestPurchaseOrder(t), nil)
		orderRepo.On("SumConsumedQuantity", mock.Anything, testLineItemID).Return(decimal.NewFromInt(40), nil)
		orderRepo.On("GenerateOrderCode", mock.Anything).Return(testOrderCode, nil)
		orderRepo.On("Save", mock.Anything, mock.AnythingOfType("*ordering.Order")).Return(nil)

		result, err := service.Reserve(ctx, &ReserveRequest{
			LineItemID:   testLineItemID,
			Quantity:     decimal.NewFromInt(60),
			DeliveryDate: testDeliveryFar,
			WorkLocation: "Bloco B",
		})

		assert.NoError(t, err)
		assert.True(t, result.Admitted())
		assert.Equal(t, testOrderCode, result.Order.OrderCode)
		assert.Equal(t, "REGISTRADO", result.Order.Status)
		assert.False(t, result.Order.IsUrgent)
		orderRepo.AssertExpectations(t)
	})

	t.Run("urgent delivery enters approval status", func(t *testing.T) {
		poRepo := new(MockPurchaseOrderRepository)
		orderRepo := new(MockOrderRepository)
		service := newTestService(poRepo, orderRepo)
		ctx := context.Background()

		poRepo.On("FindLineItemByIDForUpdate", mock.Anything, testLineItemID).Return(createTestLineItem(t, 100), nil)
		poRepo.On("FindByID", mock.Anything, testPOID).Return(createTestPurchaseOrder(t), nil)
		orderRepo.On("SumConsumedQuantity", mock.Anything, testLineItemID).Return(decimal.Zero, nil)
		orderRepo.On("GenerateOrderCode", mock.Anything).Return(testOrderCode, nil)
		orderRepo.On("Save", mock.Anything, mock.AnythingOfType("*ordering.Order")).Return(nil)

		// 2026-03-12 is two days from the fixed clock, inside the 7-day window
		result, err := service.Reserve(ctx, &ReserveRequest{
			LineItemID:   testLineItemID,
			Quantity:     decimal.NewFromInt(10),
			DeliveryDate: time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		})

		assert.NoError(t, err)
		assert.True(t, result.Admitted())
		assert.Equal(t, "EM_APROVACAO", result.Order.Status)
		assert.True(t, result.Order.IsUrgent)
	})

	t.Run("rejects when quantity exceeds remaining balance", func(t *testing.T) {
		poRepo := new(MockPurchaseOrderRepository)
		orderRepo := new(MockOrderRepository)
		service := newTestService(poRepo, orderRepo)
		ctx := context.Background()

		poRepo.On("FindLineItemByIDForUpdate", mock.Anything, testLineItemID).Return(createTestLineItem(t, 100), nil)
		poRepo.On("FindByID", mock.Anything, testPOID).Return(createTestPurchaseOrder(t), nil)
		orderRepo.On("SumConsumedQuantity", mock.Anything, testLineItemID).Return(decimal.NewFromInt(60), nil)

		result, err := service.Reserve(ctx, &ReserveRequest{
			LineItemID:   testLineItemID,
			Quantity:     decimal.NewFromInt(60),
			DeliveryDate: testDeliveryFar,
		})

		assert.NoError(t, err)
		assert.False(t, result.Admitted())
		assert.Equal(t, RejectionInsufficientBalance, result.Rejection.Code)
		assert.True(t, result.Rejection.Remaining.Equal(decimal.NewFromInt(40)))
		assert.Equal(t, testUnit, result.Rejection.Unit)
		orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects delivery date outside the validity window", func(t *testing.T) {
		poRepo := new(MockPurchaseOrderRepository)
		orderRepo := new(MockOrderRepository)
		service := newTestService(poRepo, orderRepo)
		ctx := context.Background()

		poRepo.On("FindLineItemByIDForUpdate", mock.Anything, testLineItemID).Return(createTestLineItem(t, 100), nil)
		poRepo.On("FindByID", mock.Anything, testPOID).Return(createTestPurchaseOrder(t), nil)

		result, err := service.Reserve(ctx, &ReserveRequest{
			LineItemID:   testLineItemID,
			Quantity:     decimal.NewFromInt(10),
			DeliveryDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		})

		assert.NoError(t, err)
		assert.False(t, result.Admitted())
		assert.Equal(t, RejectionOutOfWindow, result.Rejection.Code)
		orderRepo.AssertNotCalled(t, "SumConsumedQuantity", mock.Anything, mock.Anything)
	})

	t.Run("admits delivery on the last day of the window", func(t *testing.T) {
		poRepo := new(MockPurchaseOrderRepository)
		orderRepo := new(MockOrderRepository)
		service := newTestService(poRepo, orderRepo)
		ctx := context.Background()

		poRepo.On("FindLineItemByIDForUpdate", mock.Anything, testLineItemID).Return(createTestLineItem(t, 100), nil)
		poRepo.On("FindByID", mock.Anything, testPOID).Return(createTestPurchaseOrder(t), nil)
		orderRepo.On("SumConsumedQuantity", mock.Anything, testLineItemID).Return(decimal.Zero, nil)
		orderRepo.On("GenerateOrderCode", mock.Anything).Return(testOrderCode, nil)
		orderRepo.On("Save", mock.Anything, mock.AnythingOfType("*ordering.Order")).Return(nil)

		result, err := service.Reserve(ctx, &ReserveRequest{
			LineItemID:   testLineItemID,
			Quantity:     decimal.NewFromInt(10),
			DeliveryDate: time.Date(2026, 3, 31, 18, 0, 0, 0, time.UTC),
		})

		assert.NoError(t, err)
		assert.True(t, result.Admitted())
	})

	t.Run("rejects invalid input before touching the store", func(t *testing.T) {
		poRepo := new(MockPurchaseOrderRepository)
		orderRepo := new(MockOrderRepository)
		service := newTestService(poRepo, orderRepo)

		_, err := service.Reserve(context.Background(), &ReserveRequest{
			LineItemID:   testLineItemID,
			Quantity:     decimal.NewFromInt(-5),
			DeliveryDate: testDeliveryFar,
		})

		assert.Error(t, err)
		assert.True(t, shared.HasCode(err, "VALIDATION_ERROR"))
		poRepo.AssertNotCalled(t, "FindLineItemByIDForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("retries on concurrency conflict and succeeds", func(t *testing.T) {
		poRepo := new(MockPurchaseOrderRepository)
		orderRepo := new(MockOrderRepository)
		scope := &conflictingScope{
			inner:     &stubScope{purchaseOrders: poRepo, orders: orderRepo},
			conflicts: 2,
		}
		service := NewService(scope, poRepo, orderRepo, zap.NewNop(),
			WithClock(func() time.Time { return testFixedNow }))
		ctx := context.Background()

		poRepo.On("FindLineItemByIDForUpdate", mock.Anything, testLineItemID).Return(createTestLineItem(t, 100), nil)
		poRepo.On("FindByID", mock.Anything, testPOID).Return(createTestPurchaseOrder(t), nil)
		orderRepo.On("SumConsumedQuantity", mock.Anything, testLineItemID).Return(decimal.Zero, nil)
		orderRepo.On("GenerateOrderCode", mock.Anything).Return(testOrderCode, nil)
		orderRepo.On("Save", mock.Anything, mock.AnythingOfType("*ordering.Order")).Return(nil)

		result, err := service.Reserve(ctx, &ReserveRequest{
			LineItemID:   testLineItemID,
			Quantity:     decimal.NewFromInt(10),
			DeliveryDate: testDeliveryFar,
		})

		assert.NoError(t, err)
		assert.True(t, result.Admitted())
		assert.Equal(t, 3, scope.calls)
	})

	t.Run("gives up after exhausting retries", func(t *testing.T) {
		poRepo := new(MockPurchaseOrderRepository)
		orderRepo := new(MockOrderRepository)
		scope := &conflictingScope{
			inner:     &stubScope{purchaseOrders: poRepo, orders: orderRepo},
			conflicts: 10,
		}
		service := NewService(scope, poRepo, orderRepo, zap.NewNop(),
			WithClock(func() time.Time { return testFixedNow }))

		_, err := service.Reserve(context.Background(), &ReserveRequest{
			LineItemID:   testLineItemID,
			Quantity:     decimal.NewFromInt(10),
			DeliveryDate: testDeliveryFar,
		})

		assert.Error(t, err)
		assert.True(t, shared.IsConcurrencyConflict(err))
		assert.Equal(t, defaultMaxRetries, scope.calls)
	})

	t.Run("propagates repository failures", func(t *testing.T) {
		poRepo := new(MockPurchaseOrderRepository)
		orderRepo := new(MockOrderRepository)
		service := newTestService(poRepo, orderRepo)

		poRepo.On("FindLineItemByIDForUpdate", mock.Anything, testLineItemID).Return(nil, errors.New("connection reset"))

		_, err := service.Reserve(context.Background(), &ReserveRequest{
			LineItemID:   testLineItemID,
			Quantity:     decimal.NewFromInt(10),
			DeliveryDate: testDeliveryFar,
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestAllocationService_Swap(t *testing.T) {
	newLineItemID := uuid.New()
	newPOID := uuid.New()

	createOrder := func(t *testing.T) *ordering.Order {
		t.Helper()
		order, err := ordering.NewOrder(testOrderCode, testLineItemID, testPOID, testProductID,
			decimal.NewFromInt(30), testUnit, testDeliveryFar, false)
		if err != nil {
			t.Fatalf("building order: %v", err)
		}
		return order
	}

	createTargetLineItem := func(t *testing.T, productID uuid.UUID, total int64) *contract.LineItem {
		t.Helper()
		item, err := contract.NewLineItem(newPOID, productID, "Concreto usinado", "CON-30", testUnit, decimal.NewFromInt(total))
		if err != nil {
			t.Fatalf("building line item: %v", err)
		}
		item.ID = newLineItemID
		return item
	}

	createTargetPO := func(t *testing.T) *contract.PurchaseOrder {
		t.Helper()
		po, err := contract.NewPurchaseOrder(
			"PO-2026-00008", testSupplierID, "Cimento Forte LTDA",
			testSiteID, "Obra Margem Norte",
			time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		)
		if err != nil {
			t.Fatalf("building purchase order: %v", err)
		}
		po.ID = newPOID
		return po
	}

	t.Run("repoints order to a compatible line item", func(t *testing.T) {
		poRepo := new(MockPurchaseOrderRepository)
		orderRepo := new(MockOrderRepository)
		service := newTestService(poRepo, orderRepo)
		ctx := context.Background()

		order := createOrder(t)
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		poRepo.On("FindLineItemByIDForUpdate", mock.Anything, newLineItemID).Return(createTargetLineItem(t, testProductID, 100), nil)
		poRepo.On("FindByID", mock.Anything, newPOID).Return(createTargetPO(t), nil)
		orderRepo.On("SumConsumedQuantity", mock.Anything, newLineItemID).Return(decimal.NewFromInt(50), nil)
		orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

		result, err := service.Swap(ctx, &SwapRequest{OrderID: order.ID, NewLineItemID: newLineItemID})

		assert.NoError(t, err)
		assert.True(t, result.Swapped())
		assert.Equal(t, newLineItemID, order.LineItemID)
		assert.Equal(t, newPOID, order.PurchaseOrderID)
		assert.True(t, order.Quantity.Equal(decimal.NewFromInt(30)))
		orderRepo.AssertExpectations(t)
	})

	t.Run("rejects when target carries a different product", func(t *testing.T) {
		poRepo := new(MockPurchaseOrderRepository)
		orderRepo := new(MockOrderRepository)
		service := newTestService(poRepo, orderRepo)
		ctx := context.Background()

		order := createOrder(t)
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		poRepo.On("FindLineItemByIDForUpdate", mock.Anything, newLineItemID).Return(createTargetLineItem(t, uuid.New(), 100), nil)

		result, err := service.Swap(ctx, &SwapRequest{OrderID: order.ID, NewLineItemID: newLineItemID})

		assert.NoError(t, err)
		assert.False(t, result.Swapped())
		assert.Equal(t, RejectionProductMismatch, result.Rejection.Code)
		assert.Equal(t, testLineItemID, order.LineItemID)
		orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("rejects when target balance cannot absorb the order", func(t *testing.T) {
		poRepo := new(MockPurchaseOrderRepository)
		orderRepo := new(MockOrderRepository)
		service := newTestService(poRepo, orderRepo)
		ctx := context.Background()

		order := createOrder(t)
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		poRepo.On("FindLineItemByIDForUpdate", mock.Anything, newLineItemID).Return(createTargetLineItem(t, testProductID, 100), nil)
		poRepo.On("FindByID", mock.Anything, newPOID).Return(createTargetPO(t), nil)
		orderRepo.On("SumConsumedQuantity", mock.Anything, newLineItemID).Return(decimal.NewFromInt(80), nil)

		result, err := service.Swap(ctx, &SwapRequest{OrderID: order.ID, NewLineItemID: newLineItemID})

		assert.NoError(t, err)
		assert.False(t, result.Swapped())
		assert.Equal(t, RejectionInsufficientBalance, result.Rejection.Code)
		assert.True(t, result.Rejection.Remaining.Equal(decimal.NewFromInt(20)))
	})

	t.Run("rejects when order delivery date misses the target window", func(t *testing.T) {
		poRepo := new(MockPurchaseOrderRepository)
		orderRepo := new(MockOrderRepository)
		service := newTestService(poRepo, orderRepo)
		ctx := context.Background()

		order, err := ordering.NewOrder(testOrderCode, testLineItemID, testPOID, testProductID,
			decimal.NewFromInt(30), testUnit, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), false)
		assert.NoError(t, err)
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		poRepo.On("FindLineItemByIDForUpdate", mock.Anything, newLineItemID).Return(createTargetLineItem(t, testProductID, 100), nil)
		poRepo.On("FindByID", mock.Anything, newPOID).Return(createTargetPO(t), nil)

		result, err := service.Swap(ctx, &SwapRequest{OrderID: order.ID, NewLineItemID: newLineItemID})

		assert.NoError(t, err)
		assert.False(t, result.Swapped())
		assert.Equal(t, RejectionOutOfWindow, result.Rejection.Code)
	})

	t.Run("refuses swap onto the same line item", func(t *testing.T) {
		poRepo := new(MockPurchaseOrderRepository)
		orderRepo := new(MockOrderRepository)
		service := newTestService(poRepo, orderRepo)

		order := createOrder(t)
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		_, err := service.Swap(context.Background(), &SwapRequest{OrderID: order.ID, NewLineItemID: testLineItemID})

		assert.Error(t, err)
		assert.True(t, shared.HasCode(err, "SAME_LINE_ITEM"))
	})

	t.Run("refuses swap on terminal order", func(t *testing.T) {
		poRepo := new(MockPurchaseOrderRepository)
		orderRepo := new(MockOrderRepository)
		service := newTestService(poRepo, orderRepo)

		order := createOrder(t)
		assert.NoError(t, order.Cancel("no longer needed"))
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		poRepo.On("FindLineItemByIDForUpdate", mock.Anything, newLineItemID).Return(createTargetLineItem(t, testProductID, 100), nil)
		poRepo.On("FindByID", mock.Anything, newPOID).Return(createTargetPO(t), nil)
		orderRepo.On("SumConsumedQuantity", mock.Anything, newLineItemID).Return(decimal.Zero, nil)

		_, err := service.Swap(context.Background(), &SwapRequest{OrderID: order.ID, NewLineItemID: newLineItemID})

		assert.Error(t, err)
		assert.True(t, shared.HasCode(err, "INVALID_TRANSITION"))
	})
}

func TestAllocationService_GetBalance(t *testing.T) {
	t.Run("derives remaining from total and consumed", func(t *testing.T) {
		poRepo := new(MockPurchaseOrderRepository)
		orderRepo := new(MockOrderRepository)
		service := newTestService(poRepo, orderRepo)

		poRepo.On("FindLineItemByID", mock.Anything, testLineItemID).Return(createTestLineItem(t, 100), nil)
		orderRepo.On("SumConsumedQuantity", mock.Anything, testLineItemID).Return(decimal.NewFromInt(35), nil)

		balance, err := service.GetBalance(context.Background(), testLineItemID)

		assert.NoError(t, err)
		assert.True(t, balance.Total.Equal(decimal.NewFromInt(100)))
		assert.True(t, balance.Used.Equal(decimal.NewFromInt(35)))
		assert.True(t, balance.Remaining.Equal(decimal.NewFromInt(65)))
		assert.Equal(t, testUnit, balance.Unit)
	})

	t.Run("unknown line item propagates not found", func(t *testing.T) {
		poRepo := new(MockPurchaseOrderRepository)
		orderRepo := new(MockOrderRepository)
		service := newTestService(poRepo, orderRepo)

		poRepo.On("FindLineItemByID", mock.Anything, testLineItemID).Return(nil, shared.ErrNotFound)

		_, err := service.GetBalance(context.Background(), testLineItemID)

		assert.Error(t, err)
		assert.True(t, shared.HasCode(err, "NOT_FOUND"))
	})
}
