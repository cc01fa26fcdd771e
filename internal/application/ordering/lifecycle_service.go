package ordering

import (
	"context"

	"github.com/fieldsupply/backend/internal/domain/contract"
	"github.com/fieldsupply/backend/internal/domain/ordering"
	"github.com/fieldsupply/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LifecycleService drives admitted orders through their status state machine
// and handles the reprogramming workflow. Allocation (balance, admission,
// swap) lives in the allocation service; this one never touches quantities.
type LifecycleService struct {
	orders         ordering.OrderRepository
	purchaseOrders contract.PurchaseOrderRepository
	logger         *zap.Logger
}

// NewLifecycleService creates an order lifecycle service
func NewLifecycleService(
	orders ordering.OrderRepository,
	purchaseOrders contract.PurchaseOrderRepository,
	logger *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		orders:         orders,
		purchaseOrders: purchaseOrders,
		logger:         logger,
	}
}

// Transition applies a lifecycle event to an order. Writes go through the
// version check, so a stale reviewer loses to a concurrent update instead of
// silently overwriting it.
func (s *LifecycleService) Transition(ctx context.Context, orderID uuid.UUID, req *TransitionRequest) (*OrderResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	event := ordering.OrderEvent(req.Event)
	if event == ordering.EventCancel {
		err = order.Cancel(req.Reason)
	} else {
		err = order.Apply(event)
	}
	if err != nil {
		return nil, err
	}

	if err := s.orders.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.publishEvents(order)
	s.logger.Info("order transitioned",
		zap.String("order_code", order.OrderCode),
		zap.String("event", req.Event),
		zap.String("status", order.Status.String()))

	resp := ToOrderResponse(order)
	return &resp, nil
}

// RequestReprogram attaches a pending delivery-date change request to an
// order. The date is not validated against the validity window here; the
// window check runs at resolution time against the then-current contract.
func (s *LifecycleService) RequestReprogram(ctx context.Context, orderID uuid.UUID, req *ReprogramRequest) (*OrderResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if _, err := order.RequestReprogram(req.NewDeliveryDate, req.Justification); err != nil {
		return nil, err
	}

	if err := s.orders.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.publishEvents(order)
	s.logger.Info("reprogram requested",
		zap.String("order_code", order.OrderCode),
		zap.Time("new_delivery_date", req.NewDeliveryDate))

	resp := ToOrderResponse(order)
	return &resp, nil
}

// ResolveReprogram approves or rejects the pending reprogram request.
// Approval re-checks the new date against the owning purchase order's
// validity window before applying it; rejection cancels the order and
// releases its reservation.
func (s *LifecycleService) ResolveReprogram(ctx context.Context, orderID uuid.UUID, req *ResolveReprogramRequest) (*OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.HasPendingReprogram() {
		return nil, shared.NewDomainError("NO_PENDING_REPROGRAM", "Order has no pending reprogram request")
	}

	if req.Approve {
		purchaseOrder, err := s.purchaseOrders.FindByID(ctx, order.PurchaseOrderID)
		if err != nil {
			return nil, err
		}
		if !purchaseOrder.IsWithinWindow(order.Reprogram.NewDeliveryDate) {
			return nil, shared.NewDomainError("OUT_OF_VALIDITY_WINDOW",
				"Requested delivery date falls outside the purchase order validity window").
				WithDetail("valid_from", purchaseOrder.ValidFrom).
				WithDetail("valid_until", purchaseOrder.ValidUntil)
		}
		if err := order.ApproveReprogram(); err != nil {
			return nil, err
		}
	} else {
		if err := order.RejectReprogram(); err != nil {
			return nil, err
		}
	}

	if err := s.orders.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.publishEvents(order)
	s.logger.Info("reprogram resolved",
		zap.String("order_code", order.OrderCode),
		zap.Bool("approved", req.Approve))

	resp := ToOrderResponse(order)
	return &resp, nil
}

// GetByID returns one order, pending reprogram request included
func (s *LifecycleService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// List returns orders matching the filter
func (s *LifecycleService) List(ctx context.Context, filter shared.Filter) (*OrderListResponse, error) {
	orders, err := s.orders.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.orders.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToOrderListResponse(orders, total, filter), nil
}

// ListByLineItem returns orders drawing from a line item
func (s *LifecycleService) ListByLineItem(ctx context.Context, lineItemID uuid.UUID, filter shared.Filter) (*OrderListResponse, error) {
	orders, err := s.orders.FindByLineItem(ctx, lineItemID, filter)
	if err != nil {
		return nil, err
	}
	return ToOrderListResponse(orders, int64(len(orders)), filter), nil
}

// ListPendingApproval returns urgent orders waiting in the approval queue
func (s *LifecycleService) ListPendingApproval(ctx context.Context, filter shared.Filter) (*OrderListResponse, error) {
	orders, err := s.orders.FindPendingApproval(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToOrderListResponse(orders, int64(len(orders)), filter), nil
}

// ListPendingReprogram returns orders with an unresolved reprogram request
func (s *LifecycleService) ListPendingReprogram(ctx context.Context, filter shared.Filter) (*OrderListResponse, error) {
	orders, err := s.orders.FindPendingReprogram(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToOrderListResponse(orders, int64(len(orders)), filter), nil
}

// publishEvents drains an aggregate's pending domain events into the
// structured log and clears them.
func (s *LifecycleService) publishEvents(agg shared.AggregateRoot) {
	for _, ev := range agg.GetDomainEvents() {
		s.logger.Debug("domain event",
			zap.String("event_type", ev.EventType()),
			zap.String("aggregate_type", ev.AggregateType()),
			zap.String("aggregate_id", ev.AggregateID().String()))
	}
	agg.ClearDomainEvents()
}
