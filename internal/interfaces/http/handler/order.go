package handler

import (
	"time"

	allocationapp "github.com/fieldsupply/backend/internal/application/allocation"
	orderingapp "github.com/fieldsupply/backend/internal/application/ordering"
	"github.com/fieldsupply/backend/internal/domain/ordering"
	"github.com/fieldsupply/backend/internal/domain/shared"
	"github.com/fieldsupply/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler handles material order API endpoints. Admission, balance and
// swap go through the allocation service; everything after admission goes
// through the lifecycle service.
type OrderHandler struct {
	BaseHandler
	allocator *allocationapp.Service
	lifecycle *orderingapp.LifecycleService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(allocator *allocationapp.Service, lifecycle *orderingapp.LifecycleService) *OrderHandler {
	return &OrderHandler{
		allocator: allocator,
		lifecycle: lifecycle,
	}
}

// SwapOrderRequest asks to re-point an order at a different line item
type SwapOrderRequest struct {
	NewLineItemID uuid.UUID `json:"new_line_item_id" binding:"required"`
}

// CancelOrderRequest carries the cancellation reason
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// OrderListQuery holds the query parameters for listing orders
type OrderListQuery struct {
	Page            int        `form:"page" binding:"omitempty,min=1"`
	PageSize        int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy         string     `form:"order_by"`
	OrderDir        string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search          string     `form:"search"`
	LineItemID      *uuid.UUID `form:"line_item_id"`
	PurchaseOrderID *uuid.UUID `form:"purchase_order_id"`
	ProductID       *uuid.UUID `form:"product_id"`
	Status          string     `form:"status"`
	Statuses        []string   `form:"statuses"`
	IsUrgent        *bool      `form:"is_urgent"`
	DeliveryFrom    *time.Time `form:"delivery_from" time_format:"2006-01-02"`
	DeliveryUntil   *time.Time `form:"delivery_until" time_format:"2006-01-02"`
	IncludeArchived bool       `form:"include_archived"`
}

func (q *OrderListQuery) toFilter() shared.Filter {
	filter := shared.DefaultFilter()
	if q.Page > 0 {
		filter.Page = q.Page
	}
	if q.PageSize > 0 {
		filter.PageSize = q.PageSize
	}
	if q.OrderBy != "" {
		filter.OrderBy = q.OrderBy
	}
	if q.OrderDir != "" {
		filter.OrderDir = q.OrderDir
	}
	filter.Search = q.Search
	if q.LineItemID != nil {
		filter.Filters["line_item_id"] = *q.LineItemID
	}
	if q.PurchaseOrderID != nil {
		filter.Filters["purchase_order_id"] = *q.PurchaseOrderID
	}
	if q.ProductID != nil {
		filter.Filters["product_id"] = *q.ProductID
	}
	if q.Status != "" {
		filter.Filters["status"] = q.Status
	}
	if len(q.Statuses) > 0 {
		filter.Filters["statuses"] = q.Statuses
	}
	if q.IsUrgent != nil {
		filter.Filters["is_urgent"] = *q.IsUrgent
	}
	if q.DeliveryFrom != nil {
		filter.Filters["delivery_from"] = *q.DeliveryFrom
	}
	if q.DeliveryUntil != nil {
		filter.Filters["delivery_until"] = *q.DeliveryUntil
	}
	if q.IncludeArchived {
		filter.Filters["include_archived"] = true
	}
	return filter
}

// rejected sends a business-rule rejection with the full rejection payload,
// so callers see the remaining balance or validity window that caused it
func (h *OrderHandler) rejected(c *gin.Context, rejection *allocationapp.Rejection) {
	code := dto.NormalizeErrorCode(rejection.Code)
	resp := dto.NewErrorResponseWithRequestID(code, rejection.Message, getRequestID(c))
	resp.Data = rejection
	c.JSON(dto.GetHTTPStatus(code), resp)
}

// Reserve admits a new order against a line item
func (h *OrderHandler) Reserve(c *gin.Context) {
	var req allocationapp.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.allocator.Reserve(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !result.Admitted() {
		h.rejected(c, result.Rejection)
		return
	}

	h.Created(c, result.Order)
}

// GetBalance returns the authoritative balance of a line item
func (h *OrderHandler) GetBalance(c *gin.Context) {
	lineItemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid line item ID format")
		return
	}

	balance, err := h.allocator.GetBalance(c.Request.Context(), lineItemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, balance)
}

// Swap re-points an order at a different line item carrying the same product
func (h *OrderHandler) Swap(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var body SwapOrderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.allocator.Swap(c.Request.Context(), &allocationapp.SwapRequest{
		OrderID:       orderID,
		NewLineItemID: body.NewLineItemID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !result.Swapped() {
		h.rejected(c, result.Rejection)
		return
	}

	h.Success(c, result.Order)
}

// GetByID retrieves an order with its pending reprogram request, if any
func (h *OrderHandler) GetByID(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.lifecycle.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// List retrieves a paginated list of orders
func (h *OrderHandler) List(c *gin.Context) {
	var query OrderListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := query.toFilter()
	list, err := h.lifecycle.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, list.Items, list.Total, filter.Page, filter.PageSize)
}

// ListPendingApproval retrieves urgent orders waiting for a reviewer
func (h *OrderHandler) ListPendingApproval(c *gin.Context) {
	var query OrderListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := query.toFilter()
	list, err := h.lifecycle.ListPendingApproval(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, list.Items, list.Total, filter.Page, filter.PageSize)
}

// ListPendingReprogram retrieves orders with an unresolved reprogram request
func (h *OrderHandler) ListPendingReprogram(c *gin.Context) {
	var query OrderListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := query.toFilter()
	list, err := h.lifecycle.ListPendingReprogram(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, list.Items, list.Total, filter.Page, filter.PageSize)
}

// transition applies a lifecycle event to an order identified by the path
func (h *OrderHandler) transition(c *gin.Context, event ordering.OrderEvent, reason string) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.lifecycle.Transition(c.Request.Context(), orderID, &orderingapp.TransitionRequest{
		Event:  string(event),
		Reason: reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Approve moves an urgent order out of the approval queue
func (h *OrderHandler) Approve(c *gin.Context) {
	h.transition(c, ordering.EventApprove, "")
}

// Reject refuses an urgent order, releasing its reserved quantity
func (h *OrderHandler) Reject(c *gin.Context) {
	h.transition(c, ordering.EventReject, "")
}

// Start moves an approved order into preparation
func (h *OrderHandler) Start(c *gin.Context) {
	h.transition(c, ordering.EventStart, "")
}

// MarkLoaded records that the material has been loaded
func (h *OrderHandler) MarkLoaded(c *gin.Context) {
	h.transition(c, ordering.EventMarkLoaded, "")
}

// MarkInRoute records that the material left for the site
func (h *OrderHandler) MarkInRoute(c *gin.Context) {
	h.transition(c, ordering.EventMarkInRoute, "")
}

// MarkDelivered records delivery at the site
func (h *OrderHandler) MarkDelivered(c *gin.Context) {
	h.transition(c, ordering.EventMarkDelivered, "")
}

// Cancel cancels an order, releasing its reserved quantity
func (h *OrderHandler) Cancel(c *gin.Context) {
	var body CancelOrderRequest
	if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
		h.BadRequest(c, err.Error())
		return
	}
	h.transition(c, ordering.EventCancel, body.Reason)
}

// Archive soft-deletes an order
func (h *OrderHandler) Archive(c *gin.Context) {
	h.transition(c, ordering.EventArchive, "")
}

// Reprogram files a request to move the order's delivery date
func (h *OrderHandler) Reprogram(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req orderingapp.ReprogramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.lifecycle.RequestReprogram(c.Request.Context(), orderID, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// ResolveReprogram records the reviewer's decision on a pending reprogram
// request
func (h *OrderHandler) ResolveReprogram(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req orderingapp.ResolveReprogramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.lifecycle.ResolveReprogram(c.Request.Context(), orderID, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}
