package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fieldsupply/backend/internal/domain/contract"
	"github.com/fieldsupply/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID finds a purchase order by its ID, line items included
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*contract.PurchaseOrder, error) {
	var order contract.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber finds a purchase order by its order number
func (r *GormPurchaseOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*contract.PurchaseOrder, error) {
	var order contract.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindAll finds purchase orders with filtering and pagination
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]contract.PurchaseOrder, error) {
	var orders []contract.PurchaseOrder

	query := r.db.WithContext(ctx).Model(&contract.PurchaseOrder{})
	query = r.applyFilter(query, filter)

	if err := query.Preload("Items").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindLineItemByID finds a single line item by ID
func (r *GormPurchaseOrderRepository) FindLineItemByID(ctx context.Context, id uuid.UUID) (*contract.LineItem, error) {
	var item contract.LineItem
	if err := r.db.WithContext(ctx).
		First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindLineItemByIDForUpdate finds a line item and takes a row-level exclusive
// lock for the duration of the surrounding transaction. Writers racing on the
// same line item serialize here before recomputing the balance. SQLite has no
// SELECT FOR UPDATE; its single-writer transactions give the same guarantee.
func (r *GormPurchaseOrderRepository) FindLineItemByIDForUpdate(ctx context.Context, id uuid.UUID) (*contract.LineItem, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var item contract.LineItem
	if err := query.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// Save creates or updates a purchase order with its line items
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *contract.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(order).Error; err != nil {
			return err
		}

		for i := range order.Items {
			order.Items[i].PurchaseOrderID = order.ID
			if err := tx.Save(&order.Items[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Count counts purchase orders matching the filter
func (r *GormPurchaseOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&contract.PurchaseOrder{})
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByOrderNumber checks if an order number is already taken
func (r *GormPurchaseOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&contract.PurchaseOrder{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateOrderNumber generates a unique purchase order number.
// Format: PO-YYYY-NNNNN (e.g., PO-2026-00001)
func (r *GormPurchaseOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("PO-%d-", year)

	var lastOrder contract.PurchaseOrder
	err := r.db.WithContext(ctx).
		Model(&contract.PurchaseOrder{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		First(&lastOrder).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastOrder.OrderNumber != "" {
		parts := strings.Split(lastOrder.OrderNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}

// applyFilter applies filter options to the query
func (r *GormPurchaseOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Ordering goes through a whitelist to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, PurchaseOrderSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.Order(sortField + " " + sortOrder)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormPurchaseOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("order_number ILIKE ? OR supplier_name ILIKE ?",
			searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "supplier_id":
			query = query.Where("supplier_id = ?", value)
		case "site_id":
			query = query.Where("site_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "valid_on":
			if t, ok := value.(time.Time); ok {
				query = query.Where("valid_from <= ? AND valid_until >= ?", t, t)
			}
		}
	}

	return query
}

// Ensure GormPurchaseOrderRepository implements PurchaseOrderRepository
var _ contract.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
