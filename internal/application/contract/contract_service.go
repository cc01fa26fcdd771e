package contract

import (
	"context"
	"time"

	"github.com/fieldsupply/backend/internal/domain/contract"
	"github.com/fieldsupply/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service manages purchase orders: registration with their line items and
// read access for the allocation flow. Totals are immutable after creation;
// consumption lives entirely on the ordering side.
type Service struct {
	purchaseOrders contract.PurchaseOrderRepository
	now            func() time.Time
	logger         *zap.Logger
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithClock overrides the time source, mainly for tests
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a contract service
func NewService(purchaseOrders contract.PurchaseOrderRepository, logger *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		purchaseOrders: purchaseOrders,
		now:            time.Now,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a purchase order with at least one line item. When no
// order number is supplied one is generated; supplied numbers must be unique.
func (s *Service) Create(ctx context.Context, req *CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Purchase order needs at least one line item")
	}

	orderNumber := req.OrderNumber
	if orderNumber == "" {
		generated, err := s.purchaseOrders.GenerateOrderNumber(ctx)
		if err != nil {
			return nil, err
		}
		orderNumber = generated
	} else {
		exists, err := s.purchaseOrders.ExistsByOrderNumber(ctx, orderNumber)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Purchase order number already in use").
				WithDetail("order_number", orderNumber)
		}
	}

	order, err := contract.NewPurchaseOrder(orderNumber, req.SupplierID, req.SupplierName,
		req.SiteID, req.SiteName, req.ValidFrom, req.ValidUntil)
	if err != nil {
		return nil, err
	}
	if req.Remark != "" {
		order.SetRemark(req.Remark)
	}
	for _, input := range req.Items {
		if _, err := order.AddLineItem(input.ProductID, input.ProductName, input.ProductCode, input.Unit, input.QuantityTotal); err != nil {
			return nil, err
		}
	}

	if err := s.purchaseOrders.Save(ctx, order); err != nil {
		return nil, err
	}

	s.publishEvents(order)
	s.logger.Info("purchase order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("supplier", order.SupplierName),
		zap.Int("items", order.ItemCount()))

	resp := ToPurchaseOrderResponse(order, s.now())
	return &resp, nil
}

// AddLineItem appends a line item to an existing purchase order
func (s *Service) AddLineItem(ctx context.Context, purchaseOrderID uuid.UUID, req *AddLineItemRequest) (*PurchaseOrderResponse, error) {
	order, err := s.purchaseOrders.FindByID(ctx, purchaseOrderID)
	if err != nil {
		return nil, err
	}

	if _, err := order.AddLineItem(req.ProductID, req.ProductName, req.ProductCode, req.Unit, req.QuantityTotal); err != nil {
		return nil, err
	}

	if err := s.purchaseOrders.Save(ctx, order); err != nil {
		return nil, err
	}
	s.publishEvents(order)

	resp := ToPurchaseOrderResponse(order, s.now())
	return &resp, nil
}

// GetByID returns one purchase order with its line items
func (s *Service) GetByID(ctx context.Context, purchaseOrderID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.purchaseOrders.FindByID(ctx, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseOrderResponse(order, s.now())
	return &resp, nil
}

// GetByOrderNumber returns one purchase order by its human-readable number
func (s *Service) GetByOrderNumber(ctx context.Context, orderNumber string) (*PurchaseOrderResponse, error) {
	order, err := s.purchaseOrders.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseOrderResponse(order, s.now())
	return &resp, nil
}

// List returns purchase orders matching the filter
func (s *Service) List(ctx context.Context, filter shared.Filter) (*PurchaseOrderListResponse, error) {
	orders, err := s.purchaseOrders.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.purchaseOrders.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToPurchaseOrderListResponse(orders, total, filter, s.now()), nil
}

// publishEvents drains an aggregate's pending domain events into the
// structured log and clears them.
func (s *Service) publishEvents(agg shared.AggregateRoot) {
	for _, ev := range agg.GetDomainEvents() {
		s.logger.Debug("domain event",
			zap.String("event_type", ev.EventType()),
			zap.String("aggregate_type", ev.AggregateType()),
			zap.String("aggregate_id", ev.AggregateID().String()))
	}
	agg.ClearDomainEvents()
}
