package contract

import (
	"time"

	"github.com/fieldsupply/backend/internal/domain/contract"
	"github.com/fieldsupply/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateLineItemInput is one line item of a new purchase order
type CreateLineItemInput struct {
	ProductID     uuid.UUID       `json:"product_id" binding:"required"`
	ProductName   string          `json:"product_name" binding:"required"`
	ProductCode   string          `json:"product_code"`
	Unit          string          `json:"unit" binding:"required"`
	QuantityTotal decimal.Decimal `json:"quantity_total" binding:"required"`
}

// CreatePurchaseOrderRequest registers a new purchase order with its items
type CreatePurchaseOrderRequest struct {
	OrderNumber  string                `json:"order_number"`
	SupplierID   uuid.UUID             `json:"supplier_id" binding:"required"`
	SupplierName string                `json:"supplier_name" binding:"required"`
	SiteID       uuid.UUID             `json:"site_id" binding:"required"`
	SiteName     string                `json:"site_name"`
	ValidFrom    time.Time             `json:"valid_from" binding:"required"`
	ValidUntil   time.Time             `json:"valid_until" binding:"required"`
	Remark       string                `json:"remark"`
	Items        []CreateLineItemInput `json:"items" binding:"required,min=1,dive"`
}

// AddLineItemRequest appends a line item to an existing purchase order
type AddLineItemRequest struct {
	ProductID     uuid.UUID       `json:"product_id" binding:"required"`
	ProductName   string          `json:"product_name" binding:"required"`
	ProductCode   string          `json:"product_code"`
	Unit          string          `json:"unit" binding:"required"`
	QuantityTotal decimal.Decimal `json:"quantity_total" binding:"required"`
}

// LineItemResponse is a purchase order line item as seen by callers
type LineItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	ProductCode   string          `json:"product_code,omitempty"`
	Unit          string          `json:"unit"`
	QuantityTotal decimal.Decimal `json:"quantity_total"`
}

// PurchaseOrderResponse is a purchase order as seen by callers. Status is the
// effective status, with expiry derived from the validity window at read
// time.
type PurchaseOrderResponse struct {
	ID           uuid.UUID          `json:"id"`
	OrderNumber  string             `json:"order_number"`
	SupplierID   uuid.UUID          `json:"supplier_id"`
	SupplierName string             `json:"supplier_name"`
	SiteID       uuid.UUID          `json:"site_id"`
	SiteName     string             `json:"site_name,omitempty"`
	ValidFrom    time.Time          `json:"valid_from"`
	ValidUntil   time.Time          `json:"valid_until"`
	Status       string             `json:"status"`
	Remark       string             `json:"remark,omitempty"`
	Items        []LineItemResponse `json:"items"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// PurchaseOrderListResponse is a paginated purchase order listing
type PurchaseOrderListResponse struct {
	Items    []PurchaseOrderResponse `json:"items"`
	Total    int64                   `json:"total"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"page_size"`
}

// ToLineItemResponse converts a domain line item to its response DTO
func ToLineItemResponse(item *contract.LineItem) LineItemResponse {
	return LineItemResponse{
		ID:            item.ID,
		ProductID:     item.ProductID,
		ProductName:   item.ProductName,
		ProductCode:   item.ProductCode,
		Unit:          item.Unit,
		QuantityTotal: item.QuantityTotal,
	}
}

// ToPurchaseOrderResponse converts a domain purchase order to its response
// DTO, deriving the effective status as of now
func ToPurchaseOrderResponse(order *contract.PurchaseOrder, asOf time.Time) PurchaseOrderResponse {
	items := make([]LineItemResponse, 0, len(order.Items))
	for idx := range order.Items {
		items = append(items, ToLineItemResponse(&order.Items[idx]))
	}
	return PurchaseOrderResponse{
		ID:           order.ID,
		OrderNumber:  order.OrderNumber,
		SupplierID:   order.SupplierID,
		SupplierName: order.SupplierName,
		SiteID:       order.SiteID,
		SiteName:     order.SiteName,
		ValidFrom:    order.ValidFrom,
		ValidUntil:   order.ValidUntil,
		Status:       order.EffectiveStatus(asOf).String(),
		Remark:       order.Remark,
		Items:        items,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}

// ToPurchaseOrderListResponse converts a page of purchase orders to the
// listing DTO
func ToPurchaseOrderListResponse(orders []contract.PurchaseOrder, total int64, filter shared.Filter, asOf time.Time) *PurchaseOrderListResponse {
	items := make([]PurchaseOrderResponse, 0, len(orders))
	for idx := range orders {
		items = append(items, ToPurchaseOrderResponse(&orders[idx], asOf))
	}
	return &PurchaseOrderListResponse{
		Items:    items,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
}
