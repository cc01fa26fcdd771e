package allocation

import (
	"context"
	"time"

	"github.com/fieldsupply/backend/internal/domain/contract"
	"github.com/fieldsupply/backend/internal/domain/ordering"
	"github.com/fieldsupply/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// defaultMaxRetries bounds the retry loop on serialization conflicts
const defaultMaxRetries = 3

// Service admits, re-points and inspects reservations against purchase order
// line items. Every admission decision happens inside a single transaction
// holding a row-level lock on the line item, so two concurrent reservations
// can never both observe the same remaining balance.
type Service struct {
	scope          TransactionScope
	purchaseOrders contract.PurchaseOrderRepository
	orders         ordering.OrderRepository
	now            func() time.Time
	urgentDays     func() int
	maxRetries     int
	logger         *zap.Logger
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithClock overrides the time source, mainly for tests
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithUrgentDaysThreshold supplies the short-notice window in days. It is a
// function so a configuration change takes effect on the next evaluation
// without rebuilding the service.
func WithUrgentDaysThreshold(days func() int) ServiceOption {
	return func(s *Service) { s.urgentDays = days }
}

// WithMaxRetries bounds the number of attempts on concurrency conflicts
func WithMaxRetries(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// NewService creates an allocation service
func NewService(
	scope TransactionScope,
	purchaseOrders contract.PurchaseOrderRepository,
	orders ordering.OrderRepository,
	logger *zap.Logger,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		scope:          scope,
		purchaseOrders: purchaseOrders,
		orders:         orders,
		now:            time.Now,
		urgentDays:     func() int { return ordering.DefaultUrgentDaysThreshold },
		maxRetries:     defaultMaxRetries,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reserve admits a new order against a line item. The validity window and
// balance checks, the urgency classification and the insert all run in one
// transaction under the line item lock; on a serialization conflict the whole
// attempt is retried with fresh state. Business-rule rejections come back in
// the result, not as errors.
func (s *Service) Reserve(ctx context.Context, req *ReserveRequest) (*ReserveResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var result *ReserveResult
	var admitted *ordering.Order
	var lastErr error

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		result = nil
		admitted = nil
		lastErr = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			lineItem, err := repos.PurchaseOrders().FindLineItemByIDForUpdate(ctx, req.LineItemID)
			if err != nil {
				return err
			}

			purchaseOrder, err := repos.PurchaseOrders().FindByID(ctx, lineItem.PurchaseOrderID)
			if err != nil {
				return err
			}

			if !purchaseOrder.IsWithinWindow(req.DeliveryDate) {
				result = &ReserveResult{
					Rejection: outOfWindowRejection(purchaseOrder.ValidFrom, purchaseOrder.ValidUntil),
				}
				return nil
			}

			used, err := repos.Orders().SumConsumedQuantity(ctx, lineItem.ID)
			if err != nil {
				return err
			}
			balance := ordering.NewLineItemBalance(lineItem.ID, lineItem.QuantityTotal, used, lineItem.Unit)
			if !balance.CanFulfill(req.Quantity) {
				result = &ReserveResult{
					Rejection: insufficientBalanceRejection(balance.Remaining, balance.Unit),
				}
				return nil
			}

			isUrgent := ordering.ClassifyUrgency(req.DeliveryDate, s.now(), s.urgentDays())

			orderCode, err := repos.Orders().GenerateOrderCode(ctx)
			if err != nil {
				return err
			}

			order, err := ordering.NewOrder(
				orderCode,
				lineItem.ID,
				lineItem.PurchaseOrderID,
				lineItem.ProductID,
				req.Quantity,
				lineItem.Unit,
				req.DeliveryDate,
				isUrgent,
			)
			if err != nil {
				return err
			}
			order.SetWorkLocation(req.WorkLocation)
			if err := order.SetNotes(req.Notes); err != nil {
				return err
			}
			if req.RequestedBy != nil {
				order.SetRequestedBy(*req.RequestedBy)
			}

			if err := repos.Orders().Save(ctx, order); err != nil {
				return err
			}

			admitted = order
			response := ToOrderResponse(order)
			result = &ReserveResult{Order: &response}
			return nil
		})

		if lastErr == nil {
			if result.Admitted() {
				s.publishEvents(admitted)
				s.logger.Info("order admitted",
					zap.String("order_code", result.Order.OrderCode),
					zap.String("line_item_id", req.LineItemID.String()),
					zap.String("quantity", req.Quantity.String()),
					zap.Bool("is_urgent", result.Order.IsUrgent))
			} else {
				s.logger.Info("reservation rejected",
					zap.String("line_item_id", req.LineItemID.String()),
					zap.String("code", result.Rejection.Code))
			}
			return result, nil
		}
		if !shared.IsConcurrencyConflict(lastErr) {
			return nil, lastErr
		}
		s.logger.Warn("reserve retrying after conflict",
			zap.String("line_item_id", req.LineItemID.String()),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}

	return nil, lastErr
}

// Swap re-points an order at a new line item carrying the same product. The
// target window, product identity and balance are checked against the new
// line item under its lock; the order's quantity and status are untouched.
func (s *Service) Swap(ctx context.Context, req *SwapRequest) (*SwapResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var result *SwapResult
	var swapped *ordering.Order
	var lastErr error

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		result = nil
		swapped = nil
		lastErr = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			order, err := repos.Orders().FindByID(ctx, req.OrderID)
			if err != nil {
				return err
			}
			if order.LineItemID == req.NewLineItemID {
				return shared.NewDomainError("SAME_LINE_ITEM", "Order already draws from this line item")
			}

			target, err := repos.PurchaseOrders().FindLineItemByIDForUpdate(ctx, req.NewLineItemID)
			if err != nil {
				return err
			}
			if target.ProductID != order.ProductID {
				result = &SwapResult{Rejection: productMismatchRejection()}
				return nil
			}

			targetPO, err := repos.PurchaseOrders().FindByID(ctx, target.PurchaseOrderID)
			if err != nil {
				return err
			}
			if !targetPO.IsWithinWindow(order.DeliveryDate) {
				result = &SwapResult{
					Rejection: outOfWindowRejection(targetPO.ValidFrom, targetPO.ValidUntil),
				}
				return nil
			}

			used, err := repos.Orders().SumConsumedQuantity(ctx, target.ID)
			if err != nil {
				return err
			}
			balance := ordering.NewLineItemBalance(target.ID, target.QuantityTotal, used, target.Unit)
			if !balance.CanFulfill(order.Quantity) {
				result = &SwapResult{
					Rejection: insufficientBalanceRejection(balance.Remaining, balance.Unit),
				}
				return nil
			}

			if err := order.RepointLineItem(target.ID, target.PurchaseOrderID); err != nil {
				return err
			}
			if err := repos.Orders().SaveWithLock(ctx, order); err != nil {
				return err
			}

			swapped = order
			response := ToOrderResponse(order)
			result = &SwapResult{Order: &response}
			return nil
		})

		if lastErr == nil {
			if result.Swapped() {
				s.publishEvents(swapped)
				s.logger.Info("order swapped",
					zap.String("order_id", req.OrderID.String()),
					zap.String("new_line_item_id", req.NewLineItemID.String()))
			} else {
				s.logger.Info("swap rejected",
					zap.String("order_id", req.OrderID.String()),
					zap.String("code", result.Rejection.Code))
			}
			return result, nil
		}
		if !shared.IsConcurrencyConflict(lastErr) {
			return nil, lastErr
		}
		s.logger.Warn("swap retrying after conflict",
			zap.String("order_id", req.OrderID.String()),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}

	return nil, lastErr
}

// GetBalance recomputes the authoritative balance of a line item from
// persisted state. Reads do not take the row lock; a reservation committing
// concurrently is reflected on the next call.
func (s *Service) GetBalance(ctx context.Context, lineItemID uuid.UUID) (*BalanceResponse, error) {
	if lineItemID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Line item ID is required")
	}

	lineItem, err := s.purchaseOrders.FindLineItemByID(ctx, lineItemID)
	if err != nil {
		return nil, err
	}
	used, err := s.orders.SumConsumedQuantity(ctx, lineItemID)
	if err != nil {
		return nil, err
	}

	balance := ordering.NewLineItemBalance(lineItem.ID, lineItem.QuantityTotal, used, lineItem.Unit)
	response := ToBalanceResponse(balance)
	return &response, nil
}

// publishEvents drains an aggregate's pending domain events into the
// structured log and clears them. Events are observational; nothing
// downstream consumes them as messages.
func (s *Service) publishEvents(agg shared.AggregateRoot) {
	for _, ev := range agg.GetDomainEvents() {
		s.logger.Debug("domain event",
			zap.String("event_type", ev.EventType()),
			zap.String("aggregate_type", ev.AggregateType()),
			zap.String("aggregate_id", ev.AggregateID().String()))
	}
	agg.ClearDomainEvents()
}
