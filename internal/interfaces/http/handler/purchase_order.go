package handler

import (
	"time"

	contractapp "github.com/fieldsupply/backend/internal/application/contract"
	"github.com/fieldsupply/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PurchaseOrderHandler handles purchase order API endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	contracts *contractapp.Service
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(contracts *contractapp.Service) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		contracts: contracts,
	}
}

// PurchaseOrderListQuery holds the query parameters for listing purchase orders
type PurchaseOrderListQuery struct {
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search     string     `form:"search"`
	SupplierID *uuid.UUID `form:"supplier_id"`
	SiteID     *uuid.UUID `form:"site_id"`
	Status     string     `form:"status"`
	ValidOn    *time.Time `form:"valid_on" time_format:"2006-01-02"`
}

func (q *PurchaseOrderListQuery) toFilter() shared.Filter {
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
	if q.SupplierID != nil {
		filter.Filters["supplier_id"] = *q.SupplierID
	}
	if q.SiteID != nil {
		filter.Filters["site_id"] = *q.SiteID
	}
	if q.Status != "" {
		filter.Filters["status"] = q.Status
	}
	if q.ValidOn != nil {
		filter.Filters["valid_on"] = *q.ValidOn
	}
	return filter
}

// Create registers a new purchase order with its line items
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req contractapp.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.contracts.Create(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// GetByID retrieves a purchase order with its line items
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	order, err := h.contracts.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// GetByOrderNumber retrieves a purchase order by its business number
func (h *PurchaseOrderHandler) GetByOrderNumber(c *gin.Context) {
	orderNumber := c.Param("order_number")
	if orderNumber == "" {
		h.BadRequest(c, "Order number is required")
		return
	}

	order, err := h.contracts.GetByOrderNumber(c.Request.Context(), orderNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// List retrieves a paginated list of purchase orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var query PurchaseOrderListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := query.toFilter()
	list, err := h.contracts.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, list.Items, list.Total, filter.Page, filter.PageSize)
}

// AddItem appends a line item to an existing purchase order
func (h *PurchaseOrderHandler) AddItem(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	var req contractapp.AddLineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.contracts.AddLineItem(c.Request.Context(), orderID, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}
