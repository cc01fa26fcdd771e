package ordering

import (
	"fmt"
	"time"

	"github.com/fieldsupply/backend/internal/domain/shared"
	"github.com/fieldsupply/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a material order. The wire values are
// kept in Portuguese for compatibility with data migrated from the legacy
// field-supply system.
type OrderStatus string

const (
	// OrderStatusRegistered is the initial status of a non-urgent order; the
	// order is visible to the supplier.
	OrderStatusRegistered OrderStatus = "REGISTRADO"
	// OrderStatusInApproval is the initial status of an urgent order; it
	// reserves quantity but stays hidden from the supplier until approved.
	OrderStatusInApproval OrderStatus = "EM_APROVACAO"
	// OrderStatusApproved is a legacy alias of REGISTRADO kept for migrated
	// rows; nothing in this service produces it.
	OrderStatusApproved OrderStatus = "APROVADO"
	// OrderStatusRefused is terminal; the reservation is released.
	OrderStatusRefused OrderStatus = "RECUSADO"
	// OrderStatusCancelled is terminal; the reservation is released.
	OrderStatusCancelled OrderStatus = "CANCELADO"
	// OrderStatusNotStarted means fulfillment has been scheduled.
	OrderStatusNotStarted OrderStatus = "NAO_INICIADO"
	// OrderStatusLoaded means the material left the supplier's yard.
	OrderStatusLoaded OrderStatus = "CARREGADO"
	// OrderStatusInRoute means the truck is on its way to the site.
	OrderStatusInRoute OrderStatus = "EM_ROTA"
	// OrderStatusDelivered is terminal; delivery was confirmed at the site.
	OrderStatusDelivered OrderStatus = "ENTREGUE"
	// OrderStatusArchived is the terminal soft-delete status; the row is kept
	// but the reservation is released.
	OrderStatusArchived OrderStatus = "EXCLUIDO"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusRegistered, OrderStatusInApproval, OrderStatusApproved,
		OrderStatusRefused, OrderStatusCancelled, OrderStatusNotStarted,
		OrderStatusLoaded, OrderStatusInRoute, OrderStatusDelivered,
		OrderStatusArchived:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is legal from this status
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusRefused, OrderStatusCancelled, OrderStatusDelivered, OrderStatusArchived:
		return true
	}
	return false
}

// ConsumesBalance reports whether an order in this status counts toward the
// used quantity of its line item. Admission reserves eagerly: EM_APROVACAO
// already consumes, so concurrent orders cannot oversubscribe the contract
// during the approval window. Only refusal, cancellation and archival release
// the reservation.
func (s OrderStatus) ConsumesBalance() bool {
	switch s {
	case OrderStatusRefused, OrderStatusCancelled, OrderStatusArchived:
		return false
	}
	return true
}

// NonConsumingStatuses returns the statuses excluded from balance computation
func NonConsumingStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusRefused, OrderStatusCancelled, OrderStatusArchived}
}

// CanTransitionTo checks if the status can transition to the target status.
// The table is closed: anything not listed is rejected.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if !s.IsTerminal() && (target == OrderStatusCancelled || target == OrderStatusArchived) {
		return true
	}
	switch s {
	case OrderStatusInApproval:
		return target == OrderStatusRegistered || target == OrderStatusRefused
	case OrderStatusRegistered, OrderStatusApproved:
		return target == OrderStatusNotStarted
	case OrderStatusNotStarted:
		return target == OrderStatusLoaded
	case OrderStatusLoaded:
		return target == OrderStatusInRoute
	case OrderStatusInRoute:
		return target == OrderStatusDelivered
	}
	return false
}

// OrderEvent identifies a lifecycle transition request
type OrderEvent string

const (
	EventApprove       OrderEvent = "approve"
	EventReject        OrderEvent = "reject"
	EventStart         OrderEvent = "start"
	EventMarkLoaded    OrderEvent = "markLoaded"
	EventMarkInRoute   OrderEvent = "markInRoute"
	EventMarkDelivered OrderEvent = "markDelivered"
	EventCancel        OrderEvent = "cancel"
	EventArchive       OrderEvent = "archive"
)

// IsValid checks if the event is a known OrderEvent
func (e OrderEvent) IsValid() bool {
	switch e {
	case EventApprove, EventReject, EventStart, EventMarkLoaded,
		EventMarkInRoute, EventMarkDelivered, EventCancel, EventArchive:
		return true
	}
	return false
}

// targetStatus returns the status the event drives toward. The approve event
// returns the order to the registered flow rather than a separate state.
func (e OrderEvent) targetStatus() (OrderStatus, bool) {
	switch e {
	case EventApprove:
		return OrderStatusRegistered, true
	case EventReject:
		return OrderStatusRefused, true
	case EventStart:
		return OrderStatusNotStarted, true
	case EventMarkLoaded:
		return OrderStatusLoaded, true
	case EventMarkInRoute:
		return OrderStatusInRoute, true
	case EventMarkDelivered:
		return OrderStatusDelivered, true
	case EventCancel:
		return OrderStatusCancelled, true
	case EventArchive:
		return OrderStatusArchived, true
	}
	return "", false
}

// MaxNotesLength bounds the free-text notes field
const MaxNotesLength = 250

// ReprogramStatus represents the review status of a reprogram request
type ReprogramStatus string

const (
	ReprogramStatusPending  ReprogramStatus = "PENDING"
	ReprogramStatusApplied  ReprogramStatus = "APPLIED"
	ReprogramStatusRejected ReprogramStatus = "REJECTED"
	ReprogramStatusVoided   ReprogramStatus = "VOIDED"
)

// ReprogramRequest asks to move an order's delivery date without touching its
// quantity or product. While pending it does not change the order's status;
// it surfaces in a review queue.
type ReprogramRequest struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	NewDeliveryDate time.Time       `gorm:"not null"`
	Justification   string          `gorm:"type:varchar(500);not null"`
	Status          ReprogramStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	RequestedAt     time.Time       `gorm:"not null"`
	ResolvedAt      *time.Time
}

// TableName returns the table name for GORM
func (ReprogramRequest) TableName() string {
	return "order_reprogram_requests"
}

// IsPending reports whether the request still awaits review
func (r *ReprogramRequest) IsPending() bool {
	return r.Status == ReprogramStatusPending
}

// Order represents a concrete delivery request drawing quantity from exactly
// one purchase order line item. Quantity and product are fixed once admitted;
// only the contractual source (line item) may change, through a swap.
type Order struct {
	shared.BaseAggregateRoot
	OrderCode       string            `gorm:"type:varchar(50);not null;uniqueIndex"`
	LineItemID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	PurchaseOrderID uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID         `gorm:"type:uuid;not null"`
	Quantity        decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Unit            string            `gorm:"type:varchar(20);not null"`
	DeliveryDate    time.Time         `gorm:"not null;index"`
	Status          OrderStatus       `gorm:"type:varchar(20);not null;index"`
	IsUrgent        bool              `gorm:"not null;default:false"`
	WorkLocation    string            `gorm:"type:varchar(200)"`
	Notes           string            `gorm:"type:varchar(250)"`
	RequestedBy     *uuid.UUID        `gorm:"type:uuid;index"`
	Reprogram       *ReprogramRequest `gorm:"foreignKey:OrderID;references:ID"`
	ApprovedAt      *time.Time
	CancelledAt     *time.Time
	DeliveredAt     *time.Time
	CancelReason    string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates an admitted order draft. The caller (allocation service)
// is responsible for having verified balance and validity window inside the
// same transaction that persists the result. The initial status branches on
// urgency: urgent orders wait for approval, everything else registers
// directly.
func NewOrder(orderCode string, lineItemID, purchaseOrderID, productID uuid.UUID, quantity decimal.Decimal, unit string, deliveryDate time.Time, isUrgent bool) (*Order, error) {
	if orderCode == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_CODE", "Order code cannot be empty")
	}
	if lineItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LINE_ITEM", "Line item ID cannot be empty")
	}
	if purchaseOrderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PURCHASE_ORDER", "Purchase order ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	status := OrderStatusRegistered
	if isUrgent {
		status = OrderStatusInApproval
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderCode:         orderCode,
		LineItemID:        lineItemID,
		PurchaseOrderID:   purchaseOrderID,
		ProductID:         productID,
		Quantity:          quantity,
		Unit:              unit,
		DeliveryDate:      valueobject.StartOfDay(deliveryDate),
		Status:            status,
		IsUrgent:          isUrgent,
	}

	order.AddDomainEvent(NewOrderCreatedEvent(order))

	return order, nil
}

// SetWorkLocation sets the optional work location
func (o *Order) SetWorkLocation(location string) {
	o.WorkLocation = location
	o.Touch()
}

// SetNotes sets the free-text notes, enforcing the length bound
func (o *Order) SetNotes(notes string) error {
	if len([]rune(notes)) > MaxNotesLength {
		return shared.NewDomainError("INVALID_NOTES", fmt.Sprintf("Notes cannot exceed %d characters", MaxNotesLength))
	}
	o.Notes = notes
	o.Touch()
	return nil
}

// SetRequestedBy records the requesting user
func (o *Order) SetRequestedBy(userID uuid.UUID) {
	o.RequestedBy = &userID
}

// Apply drives the state machine with a lifecycle event. Events outside the
// transition table are rejected with INVALID_TRANSITION.
func (o *Order) Apply(event OrderEvent) error {
	if !event.IsValid() {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Unknown lifecycle event %q", event))
	}
	target, _ := event.targetStatus()
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Event %s is not legal for order in %s status", event, o.Status))
	}

	from := o.Status
	now := time.Now()
	o.Status = target

	switch target {
	case OrderStatusRegistered:
		o.ApprovedAt = &now
	case OrderStatusDelivered:
		o.DeliveredAt = &now
	case OrderStatusCancelled:
		o.CancelledAt = &now
	}

	// A terminal status leaves nothing to reprogram; an open request would
	// otherwise sit in the pending-review queue with no legal resolution.
	if target.IsTerminal() && o.Reprogram != nil && o.Reprogram.IsPending() {
		o.Reprogram.Status = ReprogramStatusVoided
		o.Reprogram.ResolvedAt = &now
	}

	o.UpdatedAt = now
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, event))

	if from.ConsumesBalance() && !target.ConsumesBalance() {
		o.AddDomainEvent(NewOrderReservationReleasedEvent(o))
	}

	return nil
}

// Cancel cancels the order with a reason, releasing its reservation
func (o *Order) Cancel(reason string) error {
	if err := o.Apply(EventCancel); err != nil {
		return err
	}
	o.CancelReason = reason
	return nil
}

// Archive soft-deletes the order. The row is never removed; archival is a
// status value.
func (o *Order) Archive() error {
	return o.Apply(EventArchive)
}

// RequestReprogram attaches a pending reprogram request. Only one request may
// be pending at a time, and terminal orders cannot be reprogrammed.
func (o *Order) RequestReprogram(newDeliveryDate time.Time, justification string) (*ReprogramRequest, error) {
	if o.Status.IsTerminal() {
		return nil, shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot reprogram order in terminal %s status", o.Status))
	}
	if justification == "" {
		return nil, shared.NewDomainError("INVALID_JUSTIFICATION", "Reprogram justification is required")
	}
	if o.Reprogram != nil && o.Reprogram.IsPending() {
		return nil, shared.NewDomainError("REPROGRAM_PENDING", "Order already has a pending reprogram request")
	}

	req := &ReprogramRequest{
		ID:              uuid.New(),
		OrderID:         o.ID,
		NewDeliveryDate: valueobject.StartOfDay(newDeliveryDate),
		Justification:   justification,
		Status:          ReprogramStatusPending,
		RequestedAt:     time.Now(),
	}
	o.Reprogram = req
	o.Touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderReprogramRequestedEvent(o, req))

	return req, nil
}

// ApproveReprogram applies the pending request, overwriting the delivery
// date. Quantity is untouched; reprogramming never changes balance, only
// timing. The caller must have validated the new date against the owning
// purchase order's window.
func (o *Order) ApproveReprogram() error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot resolve reprogram for order in terminal %s status", o.Status))
	}
	if o.Reprogram == nil || !o.Reprogram.IsPending() {
		return shared.NewDomainError("NO_PENDING_REPROGRAM", "Order has no pending reprogram request")
	}

	now := time.Now()
	o.DeliveryDate = o.Reprogram.NewDeliveryDate
	o.Reprogram.Status = ReprogramStatusApplied
	o.Reprogram.ResolvedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderReprogramResolvedEvent(o, true))

	return nil
}

// RejectReprogram rejects the pending request and cancels the order,
// releasing its reservation.
func (o *Order) RejectReprogram() error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot resolve reprogram for order in terminal %s status", o.Status))
	}
	if o.Reprogram == nil || !o.Reprogram.IsPending() {
		return shared.NewDomainError("NO_PENDING_REPROGRAM", "Order has no pending reprogram request")
	}

	now := time.Now()
	o.Reprogram.Status = ReprogramStatusRejected
	o.Reprogram.ResolvedAt = &now
	o.AddDomainEvent(NewOrderReprogramResolvedEvent(o, false))

	return o.Cancel("Reprogram request rejected")
}

// RepointLineItem moves the order's consumption to another line item. Both
// the balance check on the target and the product identity check belong to
// the allocation service; this method only performs the atomic repoint.
func (o *Order) RepointLineItem(newLineItemID, newPurchaseOrderID uuid.UUID) error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot swap order in terminal %s status", o.Status))
	}
	if newLineItemID == uuid.Nil || newPurchaseOrderID == uuid.Nil {
		return shared.NewDomainError("INVALID_LINE_ITEM", "Target line item cannot be empty")
	}

	from := o.LineItemID
	o.LineItemID = newLineItemID
	o.PurchaseOrderID = newPurchaseOrderID
	o.Touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderSwappedEvent(o, from))

	return nil
}

// HasPendingReprogram reports whether a reprogram request awaits review
func (o *Order) HasPendingReprogram() bool {
	return o.Reprogram != nil && o.Reprogram.IsPending()
}

// IsArchived reports whether the order was soft-deleted
func (o *Order) IsArchived() bool {
	return o.Status == OrderStatusArchived
}
