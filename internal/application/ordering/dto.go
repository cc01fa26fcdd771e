package ordering

import (
	"time"

	"github.com/fieldsupply/backend/internal/domain/ordering"
	"github.com/fieldsupply/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransitionRequest asks to drive an order through a lifecycle event
type TransitionRequest struct {
	Event  string `json:"event" binding:"required"`
	Reason string `json:"reason"`
}

// Validate rejects malformed input before loading the order
func (r *TransitionRequest) Validate() error {
	if !ordering.OrderEvent(r.Event).IsValid() {
		return shared.NewDomainError("VALIDATION_ERROR", "Unknown lifecycle event").
			WithDetail("event", r.Event)
	}
	return nil
}

// ReprogramRequest asks to move an order's delivery date
type ReprogramRequest struct {
	NewDeliveryDate time.Time `json:"new_delivery_date" binding:"required"`
	Justification   string    `json:"justification" binding:"required"`
}

// Validate rejects malformed input before loading the order
func (r *ReprogramRequest) Validate() error {
	if r.NewDeliveryDate.IsZero() {
		return shared.NewDomainError("VALIDATION_ERROR", "New delivery date is required")
	}
	if r.Justification == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Justification is required")
	}
	return nil
}

// ResolveReprogramRequest carries the reviewer's decision
type ResolveReprogramRequest struct {
	Approve bool `json:"approve"`
}

// ReprogramResponse is a reprogram request as seen by callers
type ReprogramResponse struct {
	ID              uuid.UUID  `json:"id"`
	NewDeliveryDate time.Time  `json:"new_delivery_date"`
	Justification   string     `json:"justification"`
	Status          string     `json:"status"`
	RequestedAt     time.Time  `json:"requested_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

// OrderResponse is a material order as seen by callers
type OrderResponse struct {
	ID              uuid.UUID          `json:"id"`
	OrderCode       string             `json:"order_code"`
	LineItemID      uuid.UUID          `json:"line_item_id"`
	PurchaseOrderID uuid.UUID          `json:"purchase_order_id"`
	ProductID       uuid.UUID          `json:"product_id"`
	Quantity        decimal.Decimal    `json:"quantity"`
	Unit            string             `json:"unit"`
	DeliveryDate    time.Time          `json:"delivery_date"`
	Status          string             `json:"status"`
	IsUrgent        bool               `json:"is_urgent"`
	WorkLocation    string             `json:"work_location,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	RequestedBy     *uuid.UUID         `json:"requested_by,omitempty"`
	Reprogram       *ReprogramResponse `json:"reprogram,omitempty"`
	CancelReason    string             `json:"cancel_reason,omitempty"`
	ApprovedAt      *time.Time         `json:"approved_at,omitempty"`
	CancelledAt     *time.Time         `json:"cancelled_at,omitempty"`
	DeliveredAt     *time.Time         `json:"delivered_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// OrderListResponse is a paginated order listing
type OrderListResponse struct {
	Items    []OrderResponse `json:"items"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// ToOrderResponse converts a domain Order to its response DTO
func ToOrderResponse(order *ordering.Order) OrderResponse {
	resp := OrderResponse{
		ID:              order.ID,
		OrderCode:       order.OrderCode,
		LineItemID:      order.LineItemID,
		PurchaseOrderID: order.PurchaseOrderID,
		ProductID:       order.ProductID,
		Quantity:        order.Quantity,
		Unit:            order.Unit,
		DeliveryDate:    order.DeliveryDate,
		Status:          order.Status.String(),
		IsUrgent:        order.IsUrgent,
		WorkLocation:    order.WorkLocation,
		Notes:           order.Notes,
		RequestedBy:     order.RequestedBy,
		CancelReason:    order.CancelReason,
		ApprovedAt:      order.ApprovedAt,
		CancelledAt:     order.CancelledAt,
		DeliveredAt:     order.DeliveredAt,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	if order.Reprogram != nil {
		resp.Reprogram = &ReprogramResponse{
			ID:              order.Reprogram.ID,
			NewDeliveryDate: order.Reprogram.NewDeliveryDate,
			Justification:   order.Reprogram.Justification,
			Status:          string(order.Reprogram.Status),
			RequestedAt:     order.Reprogram.RequestedAt,
			ResolvedAt:      order.Reprogram.ResolvedAt,
		}
	}
	return resp
}

// ToOrderListResponse converts a page of domain orders to the listing DTO
func ToOrderListResponse(orders []ordering.Order, total int64, filter shared.Filter) *OrderListResponse {
	items := make([]OrderResponse, 0, len(orders))
	for idx := range orders {
		items = append(items, ToOrderResponse(&orders[idx]))
	}
	return &OrderListResponse{
		Items:    items,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
}
