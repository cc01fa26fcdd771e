package contract

import (
	"context"
	"testing"
	"time"

	"github.com/fieldsupply/backend/internal/domain/contract"
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

var (
	testSupplierID  = uuid.New()
	testSiteID      = uuid.New()
	testProductID   = uuid.New()
	testOrderNumber = "PO-2026-00015"
	testFixedNow    = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
)

func newTestService(repo *MockPurchaseOrderRepository) *Service {
	return NewService(repo, zap.NewNop(), WithClock(func() time.Time { return testFixedNow }))
}

func validCreateRequest() *CreatePurchaseOrderRequest {
	return &CreatePurchaseOrderRequest{
		SupplierID:   testSupplierID,
		SupplierName: "Britagem Serra Azul",
		SiteID:       testSiteID,
		SiteName:     "Obra Viaduto Leste",
		ValidFrom:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		Items: []CreateLineItemInput{
			{
				ProductID:     testProductID,
				ProductName:   "Brita 1",
				ProductCode:   "BRI-001",
				Unit:          "t",
				QuantityTotal: decimal.NewFromInt(500),
			},
		},
	}
}

func TestContractService_Create(t *testing.T) {
	t.Run("creates order with generated number", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		service := newTestService(repo)

		repo.On("GenerateOrderNumber", mock.Anything).Return(testOrderNumber, nil)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*contract.PurchaseOrder")).Return(nil)

		resp, err := service.Create(context.Background(), validCreateRequest())

		assert.NoError(t, err)
		assert.Equal(t, testOrderNumber, resp.OrderNumber)
		assert.Equal(t, "ACTIVE", resp.Status)
		assert.Len(t, resp.Items, 1)
		assert.True(t, resp.Items[0].QuantityTotal.Equal(decimal.NewFromInt(500)))
		repo.AssertExpectations(t)
	})

	t.Run("rejects duplicate order number", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		service := newTestService(repo)

		repo.On("ExistsByOrderNumber", mock.Anything, "PO-DUP").Return(true, nil)

		req := validCreateRequest()
		req.OrderNumber = "PO-DUP"
		_, err := service.Create(context.Background(), req)

		assert.Error(t, err)
		assert.True(t, shared.HasCode(err, "ALREADY_EXISTS"))
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects order without items", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		service := newTestService(repo)

		req := validCreateRequest()
		req.Items = nil
		_, err := service.Create(context.Background(), req)

		assert.Error(t, err)
		assert.True(t, shared.HasCode(err, "VALIDATION_ERROR"))
	})

	t.Run("rejects duplicate product across items", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		service := newTestService(repo)

		repo.On("GenerateOrderNumber", mock.Anything).Return(testOrderNumber, nil)

		req := validCreateRequest()
		req.Items = append(req.Items, CreateLineItemInput{
			ProductID:     testProductID,
			ProductName:   "Brita 1",
			Unit:          "t",
			QuantityTotal: decimal.NewFromInt(100),
		})
		_, err := service.Create(context.Background(), req)

		assert.Error(t, err)
		assert.True(t, shared.HasCode(err, "DUPLICATE_PRODUCT"))
	})

	t.Run("rejects inverted validity window", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		service := newTestService(repo)

		repo.On("GenerateOrderNumber", mock.Anything).Return(testOrderNumber, nil)

		req := validCreateRequest()
		req.ValidFrom, req.ValidUntil = req.ValidUntil, req.ValidFrom
		_, err := service.Create(context.Background(), req)

		assert.Error(t, err)
		assert.True(t, shared.HasCode(err, "INVALID_WINDOW"))
	})
}

func TestContractService_Reads(t *testing.T) {
	createStoredOrder := func(t *testing.T, validUntil time.Time) *contract.PurchaseOrder {
		t.Helper()
		po, err := contract.NewPurchaseOrder(testOrderNumber, testSupplierID, "Britagem Serra Azul",
			testSiteID, "Obra Viaduto Leste", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), validUntil)
		if err != nil {
			t.Fatalf("building purchase order: %v", err)
		}
		return po
	}

	t.Run("get by id reports effective status", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		service := newTestService(repo)

		expired := createStoredOrder(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))
		repo.On("FindByID", mock.Anything, expired.ID).Return(expired, nil)

		resp, err := service.GetByID(context.Background(), expired.ID)

		assert.NoError(t, err)
		// fixed clock is 2026-04-10, past the window
		assert.Equal(t, "EXPIRED", resp.Status)
	})

	t.Run("list pages with totals", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		service := newTestService(repo)
		filter := shared.DefaultFilter()

		stored := createStoredOrder(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC))
		repo.On("FindAll", mock.Anything, filter).Return([]contract.PurchaseOrder{*stored}, nil)
		repo.On("Count", mock.Anything, filter).Return(int64(7), nil)

		resp, err := service.List(context.Background(), filter)

		assert.NoError(t, err)
		assert.Len(t, resp.Items, 1)
		assert.Equal(t, int64(7), resp.Total)
		assert.Equal(t, "ACTIVE", resp.Items[0].Status)
	})

	t.Run("unknown id propagates not found", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		service := newTestService(repo)
		id := uuid.New()

		repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := service.GetByID(context.Background(), id)

		assert.Error(t, err)
		assert.True(t, shared.HasCode(err, "NOT_FOUND"))
	})
}
