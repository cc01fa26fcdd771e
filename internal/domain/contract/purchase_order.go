package contract

import (
	"fmt"
	"time"

	"github.com/fieldsupply/backend/internal/domain/shared"
	"github.com/fieldsupply/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus represents the stored status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusActive     PurchaseOrderStatus = "ACTIVE"
	PurchaseOrderStatusPending    PurchaseOrderStatus = "PENDING"
	PurchaseOrderStatusProcessing PurchaseOrderStatus = "PROCESSING"

	// PurchaseOrderStatusExpired is derived from the validity window at read
	// time and is never persisted.
	PurchaseOrderStatusExpired PurchaseOrderStatus = "EXPIRED"
)

// IsValid checks if the status is a valid stored PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusActive, PurchaseOrderStatusPending, PurchaseOrderStatusProcessing:
		return true
	}
	return false
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// LineItem represents one product entry within a purchase order. Its total
// quantity is fixed at creation; consumption is tracked through orders that
// reference it, never by mutating the line item.
type LineItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName     string          `gorm:"type:varchar(200);not null"`
	ProductCode     string          `gorm:"type:varchar(50);not null"`
	Unit            string          `gorm:"type:varchar(20);not null"`
	QuantityTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LineItem) TableName() string {
	return "purchase_order_line_items"
}

// NewLineItem creates a new purchase order line item
func NewLineItem(purchaseOrderID, productID uuid.UUID, productName, productCode, unit string, quantityTotal decimal.Decimal) (*LineItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if unit == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit cannot be empty")
	}
	if quantityTotal.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Total quantity must be positive")
	}

	now := time.Now()
	return &LineItem{
		ID:              uuid.New(),
		PurchaseOrderID: purchaseOrderID,
		ProductID:       productID,
		ProductName:     productName,
		ProductCode:     productCode,
		Unit:            unit,
		QuantityTotal:   quantityTotal,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// PurchaseOrder represents a supply contract aggregate root: a fixed product
// set negotiated with one supplying company for one destination site, valid
// inside [ValidFrom, ValidUntil]. Quantities are immutable after creation and
// are consumed only through orders referencing its line items.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber  string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	SupplierName string              `gorm:"type:varchar(200);not null"`
	SiteID       uuid.UUID           `gorm:"type:uuid;not null;index"`
	SiteName     string              `gorm:"type:varchar(200);not null"`
	ValidFrom    time.Time           `gorm:"not null"`
	ValidUntil   time.Time           `gorm:"not null;index"`
	Items        []LineItem          `gorm:"foreignKey:PurchaseOrderID;references:ID"`
	Status       PurchaseOrderStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	Remark       string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrder creates a new purchase order
func NewPurchaseOrder(orderNumber string, supplierID uuid.UUID, supplierName string, siteID uuid.UUID, siteName string, validFrom, validUntil time.Time) (*PurchaseOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if supplierName == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER_NAME", "Supplier name cannot be empty")
	}
	if siteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SITE", "Destination site ID cannot be empty")
	}
	if valueobject.DayAfter(validFrom, validUntil) {
		return nil, shared.NewDomainError("INVALID_WINDOW", "Validity window start cannot be after its end")
	}

	order := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		SupplierID:        supplierID,
		SupplierName:      supplierName,
		SiteID:            siteID,
		SiteName:          siteName,
		ValidFrom:         valueobject.StartOfDay(validFrom),
		ValidUntil:        valueobject.StartOfDay(validUntil),
		Items:             make([]LineItem, 0),
		Status:            PurchaseOrderStatusActive,
	}

	order.AddDomainEvent(NewPurchaseOrderCreatedEvent(order))

	return order, nil
}

// AddLineItem adds a new line item to the order. A product may appear only
// once per purchase order.
func (o *PurchaseOrder) AddLineItem(productID uuid.UUID, productName, productCode, unit string, quantityTotal decimal.Decimal) (*LineItem, error) {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", fmt.Sprintf("Product %s already has a line item in this purchase order", productID))
		}
	}

	item, err := NewLineItem(o.ID, productID, productName, productCode, unit, quantityTotal)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.Touch()
	o.IncrementVersion()

	return item, nil
}

// SetRemark sets the order remark
func (o *PurchaseOrder) SetRemark(remark string) {
	o.Remark = remark
	o.Touch()
	o.IncrementVersion()
}

// IsExpired reports whether the purchase order is past its validity window
// as of the given date. The comparison is by calendar day; the day of
// ValidUntil itself is still valid.
func (o *PurchaseOrder) IsExpired(asOf time.Time) bool {
	return valueobject.DayAfter(asOf, o.ValidUntil)
}

// IsWithinWindow reports whether date falls inside [ValidFrom, ValidUntil],
// boundaries included, comparing by calendar day.
func (o *PurchaseOrder) IsWithinWindow(date time.Time) bool {
	if valueobject.DayBefore(date, o.ValidFrom) {
		return false
	}
	return !valueobject.DayAfter(date, o.ValidUntil)
}

// EffectiveStatus returns the status for read purposes: EXPIRED overrides the
// stored status once the window has passed. Balance computation never uses
// this; already-admitted orders on an expired contract keep consuming.
func (o *PurchaseOrder) EffectiveStatus(asOf time.Time) PurchaseOrderStatus {
	if o.IsExpired(asOf) {
		return PurchaseOrderStatusExpired
	}
	return o.Status
}

// GetLineItem returns a line item by its ID
func (o *PurchaseOrder) GetLineItem(itemID uuid.UUID) *LineItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// GetLineItemByProduct returns a line item by product ID
func (o *PurchaseOrder) GetLineItemByProduct(productID uuid.UUID) *LineItem {
	for idx := range o.Items {
		if o.Items[idx].ProductID == productID {
			return &o.Items[idx]
		}
	}
	return nil
}

// ItemCount returns the number of line items in the order
func (o *PurchaseOrder) ItemCount() int {
	return len(o.Items)
}
