package ordering

import (
	"time"

	"github.com/fieldsupply/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated             = "OrderCreated"
	EventTypeOrderStatusChanged       = "OrderStatusChanged"
	EventTypeOrderReservationReleased = "OrderReservationReleased"
	EventTypeOrderReprogramRequested  = "OrderReprogramRequested"
	EventTypeOrderReprogramResolved   = "OrderReprogramResolved"
	EventTypeOrderSwapped             = "OrderSwapped"
)

// OrderCreatedEvent is raised when an order is admitted
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderCode    string          `json:"order_code"`
	LineItemID   uuid.UUID       `json:"line_item_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	DeliveryDate time.Time       `json:"delivery_date"`
	IsUrgent     bool            `json:"is_urgent"`
	Status       OrderStatus     `json:"status"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(order *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, order.ID),
		OrderCode:       order.OrderCode,
		LineItemID:      order.LineItemID,
		Quantity:        order.Quantity,
		DeliveryDate:    order.DeliveryDate,
		IsUrgent:        order.IsUrgent,
		Status:          order.Status,
	}
}

// OrderStatusChangedEvent is raised on every lifecycle transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderCode string      `json:"order_code"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	Event     OrderEvent  `json:"event"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(order *Order, from OrderStatus, event OrderEvent) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, order.ID),
		OrderCode:       order.OrderCode,
		From:            from,
		To:              order.Status,
		Event:           event,
	}
}

// OrderReservationReleasedEvent is raised when an order stops consuming its
// line item's balance (refusal, cancellation, archival)
type OrderReservationReleasedEvent struct {
	shared.BaseDomainEvent
	OrderCode  string          `json:"order_code"`
	LineItemID uuid.UUID       `json:"line_item_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// NewOrderReservationReleasedEvent creates a new OrderReservationReleasedEvent
func NewOrderReservationReleasedEvent(order *Order) *OrderReservationReleasedEvent {
	return &OrderReservationReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderReservationReleased, AggregateTypeOrder, order.ID),
		OrderCode:       order.OrderCode,
		LineItemID:      order.LineItemID,
		Quantity:        order.Quantity,
	}
}

// OrderReprogramRequestedEvent is raised when a reprogram request is filed
type OrderReprogramRequestedEvent struct {
	shared.BaseDomainEvent
	OrderCode       string    `json:"order_code"`
	NewDeliveryDate time.Time `json:"new_delivery_date"`
	Justification   string    `json:"justification"`
}

// NewOrderReprogramRequestedEvent creates a new OrderReprogramRequestedEvent
func NewOrderReprogramRequestedEvent(order *Order, req *ReprogramRequest) *OrderReprogramRequestedEvent {
	return &OrderReprogramRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderReprogramRequested, AggregateTypeOrder, order.ID),
		OrderCode:       order.OrderCode,
		NewDeliveryDate: req.NewDeliveryDate,
		Justification:   req.Justification,
	}
}

// OrderReprogramResolvedEvent is raised when a reprogram request is reviewed
type OrderReprogramResolvedEvent struct {
	shared.BaseDomainEvent
	OrderCode    string    `json:"order_code"`
	Approved     bool      `json:"approved"`
	DeliveryDate time.Time `json:"delivery_date"`
}

// NewOrderReprogramResolvedEvent creates a new OrderReprogramResolvedEvent
func NewOrderReprogramResolvedEvent(order *Order, approved bool) *OrderReprogramResolvedEvent {
	return &OrderReprogramResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderReprogramResolved, AggregateTypeOrder, order.ID),
		OrderCode:       order.OrderCode,
		Approved:        approved,
		DeliveryDate:    order.DeliveryDate,
	}
}

// OrderSwappedEvent is raised when an order is repointed to another line item
type OrderSwappedEvent struct {
	shared.BaseDomainEvent
	OrderCode      string    `json:"order_code"`
	FromLineItemID uuid.UUID `json:"from_line_item_id"`
	ToLineItemID   uuid.UUID `json:"to_line_item_id"`
}

// NewOrderSwappedEvent creates a new OrderSwappedEvent
func NewOrderSwappedEvent(order *Order, fromLineItemID uuid.UUID) *OrderSwappedEvent {
	return &OrderSwappedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderSwapped, AggregateTypeOrder, order.ID),
		OrderCode:       order.OrderCode,
		FromLineItemID:  fromLineItemID,
		ToLineItemID:    order.LineItemID,
	}
}
