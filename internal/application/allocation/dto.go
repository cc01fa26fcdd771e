package allocation

import (
	"time"

	"github.com/fieldsupply/backend/internal/domain/ordering"
	"github.com/fieldsupply/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReserveRequest asks to admit a new order against a line item
type ReserveRequest struct {
	LineItemID   uuid.UUID       `json:"line_item_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	DeliveryDate time.Time       `json:"delivery_date" binding:"required"`
	WorkLocation string          `json:"work_location"`
	Notes        string          `json:"notes"`
	RequestedBy  *uuid.UUID      `json:"requested_by"`
}

// Validate rejects malformed input before any transaction opens
func (r *ReserveRequest) Validate() error {
	if r.LineItemID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Line item ID is required")
	}
	if r.Quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION_ERROR", "Quantity must be positive")
	}
	if r.DeliveryDate.IsZero() {
		return shared.NewDomainError("VALIDATION_ERROR", "Delivery date is required")
	}
	if len([]rune(r.Notes)) > ordering.MaxNotesLength {
		return shared.NewDomainError("VALIDATION_ERROR", "Notes exceed the maximum length")
	}
	return nil
}

// SwapRequest asks to re-point an order at a different line item
type SwapRequest struct {
	OrderID       uuid.UUID `json:"order_id" binding:"required"`
	NewLineItemID uuid.UUID `json:"new_line_item_id" binding:"required"`
}

// Validate rejects malformed input before any transaction opens
func (r *SwapRequest) Validate() error {
	if r.OrderID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Order ID is required")
	}
	if r.NewLineItemID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Target line item ID is required")
	}
	return nil
}

// Rejection codes for business-rule rejections
const (
	RejectionInsufficientBalance = "INSUFFICIENT_BALANCE"
	RejectionOutOfWindow         = "OUT_OF_VALIDITY_WINDOW"
	RejectionProductMismatch     = "PRODUCT_MISMATCH"
)

// Rejection is a business-rule rejection surfaced as a value, never as a Go
// error: retrying with the same input would fail identically, so callers
// branch on it instead of unwinding.
type Rejection struct {
	Code       string           `json:"code"`
	Message    string           `json:"message"`
	Remaining  *decimal.Decimal `json:"remaining,omitempty"`
	Unit       string           `json:"unit,omitempty"`
	ValidFrom  *time.Time       `json:"valid_from,omitempty"`
	ValidUntil *time.Time       `json:"valid_until,omitempty"`
}

func insufficientBalanceRejection(remaining decimal.Decimal, unit string) *Rejection {
	return &Rejection{
		Code:      RejectionInsufficientBalance,
		Message:   "Requested quantity exceeds the remaining balance on the line item",
		Remaining: &remaining,
		Unit:      unit,
	}
}

func outOfWindowRejection(validFrom, validUntil time.Time) *Rejection {
	return &Rejection{
		Code:       RejectionOutOfWindow,
		Message:    "Delivery date falls outside the purchase order validity window",
		ValidFrom:  &validFrom,
		ValidUntil: &validUntil,
	}
}

func productMismatchRejection() *Rejection {
	return &Rejection{
		Code:    RejectionProductMismatch,
		Message: "Target line item carries a different product",
	}
}

// OrderResponse is the admitted order as seen by callers
type OrderResponse struct {
	ID              uuid.UUID       `json:"id"`
	OrderCode       string          `json:"order_code"`
	LineItemID      uuid.UUID       `json:"line_item_id"`
	PurchaseOrderID uuid.UUID       `json:"purchase_order_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	DeliveryDate    time.Time       `json:"delivery_date"`
	Status          string          `json:"status"`
	IsUrgent        bool            `json:"is_urgent"`
	WorkLocation    string          `json:"work_location,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ToOrderResponse converts a domain Order to its response DTO
func ToOrderResponse(order *ordering.Order) OrderResponse {
	return OrderResponse{
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
		CreatedAt:       order.CreatedAt,
	}
}

// ReserveResult is the outcome of a reserve call: either an admitted order or
// a rejection, never both.
type ReserveResult struct {
	Order     *OrderResponse `json:"order,omitempty"`
	Rejection *Rejection     `json:"rejection,omitempty"`
}

// Admitted reports whether the reservation was committed
func (r *ReserveResult) Admitted() bool {
	return r.Order != nil
}

// SwapResult is the outcome of a swap call
type SwapResult struct {
	Order     *OrderResponse `json:"order,omitempty"`
	Rejection *Rejection     `json:"rejection,omitempty"`
}

// Swapped reports whether the repoint was committed
func (r *SwapResult) Swapped() bool {
	return r.Order != nil
}

// BalanceResponse is the authoritative balance of a line item
type BalanceResponse struct {
	LineItemID uuid.UUID       `json:"line_item_id"`
	Total      decimal.Decimal `json:"total"`
	Used       decimal.Decimal `json:"used"`
	Remaining  decimal.Decimal `json:"remaining"`
	Unit       string          `json:"unit"`
}

// ToBalanceResponse converts a domain balance to its response DTO
func ToBalanceResponse(b ordering.LineItemBalance) BalanceResponse {
	return BalanceResponse{
		LineItemID: b.LineItemID,
		Total:      b.Total,
		Used:       b.Used,
		Remaining:  b.Remaining,
		Unit:       b.Unit,
	}
}
