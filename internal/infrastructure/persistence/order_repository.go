package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fieldsupply/backend/internal/domain/ordering"
	"github.com/fieldsupply/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// preloadReprogram loads the latest reprogram request with the order. Resolved
// requests stay in the table; scanning in ascending request order leaves the
// newest one on the aggregate.
func (r *GormOrderRepository) preloadReprogram(query *gorm.DB) *gorm.DB {
	return query.Preload("Reprogram", func(db *gorm.DB) *gorm.DB {
		return db.Order("requested_at ASC")
	})
}

// FindByID finds an order by ID, reprogram request included
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	var order ordering.Order
	if err := r.preloadReprogram(r.db.WithContext(ctx)).
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByOrderCode finds an order by its human-readable code
func (r *GormOrderRepository) FindByOrderCode(ctx context.Context, orderCode string) (*ordering.Order, error) {
	var order ordering.Order
	if err := r.preloadReprogram(r.db.WithContext(ctx)).
		Where("order_code = ?", orderCode).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindAll finds orders with filtering and pagination
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ordering.Order, error) {
	var orders []ordering.Order

	query := r.db.WithContext(ctx).Model(&ordering.Order{})
	query = r.applyFilter(query, filter)

	if err := r.preloadReprogram(query).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindByLineItem finds orders referencing a line item
func (r *GormOrderRepository) FindByLineItem(ctx context.Context, lineItemID uuid.UUID, filter shared.Filter) ([]ordering.Order, error) {
	var orders []ordering.Order

	query := r.db.WithContext(ctx).Model(&ordering.Order{}).
		Where("line_item_id = ?", lineItemID)
	query = r.applyFilter(query, filter)

	if err := r.preloadReprogram(query).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindPendingApproval finds urgent orders waiting for approval
func (r *GormOrderRepository) FindPendingApproval(ctx context.Context, filter shared.Filter) ([]ordering.Order, error) {
	var orders []ordering.Order

	query := r.db.WithContext(ctx).Model(&ordering.Order{}).
		Where("status = ?", ordering.OrderStatusInApproval)
	query = r.applyFilter(query, filter)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindPendingReprogram finds orders with an unresolved reprogram request
func (r *GormOrderRepository) FindPendingReprogram(ctx context.Context, filter shared.Filter) ([]ordering.Order, error) {
	var orders []ordering.Order

	query := r.db.WithContext(ctx).Model(&ordering.Order{}).
		Joins("JOIN order_reprogram_requests ON order_reprogram_requests.order_id = orders.id").
		Where("order_reprogram_requests.status = ?", ordering.ReprogramStatusPending)
	query = r.applyFilter(query, filter)

	if err := r.preloadReprogram(query).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// SumConsumedQuantity sums the quantities of orders on a line item whose
// status still consumes balance. Runs against committed state plus the
// current transaction's own writes, which is exactly what the balance check
// needs when called under the line item row lock.
func (r *GormOrderRepository) SumConsumedQuantity(ctx context.Context, lineItemID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.WithContext(ctx).
		Model(&ordering.Order{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("line_item_id = ? AND status NOT IN ?", lineItemID, ordering.NonConsumingStatuses()).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// Save creates or updates an order together with its reprogram request
func (r *GormOrderRepository) Save(ctx context.Context, order *ordering.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Reprogram").Save(order).Error; err != nil {
			return err
		}
		if order.Reprogram != nil {
			if err := tx.Save(order.Reprogram).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveWithLock saves with optimistic locking (checks version). The domain
// increments the version before saving, so the row must still carry the
// previous one.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *ordering.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&ordering.Order{}).
			Where("id = ? AND version = ?", order.ID, order.Version-1).
			Updates(map[string]interface{}{
				"line_item_id":      order.LineItemID,
				"purchase_order_id": order.PurchaseOrderID,
				"delivery_date":     order.DeliveryDate,
				"status":            order.Status,
				"work_location":     order.WorkLocation,
				"notes":             order.Notes,
				"approved_at":       order.ApprovedAt,
				"cancelled_at":      order.CancelledAt,
				"delivered_at":      order.DeliveredAt,
				"cancel_reason":     order.CancelReason,
				"version":           order.Version,
				"updated_at":        order.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if order.Reprogram != nil {
			if err := tx.Save(order.Reprogram).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&ordering.Order{})
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GenerateOrderCode generates a unique human-readable order code.
// Format: ORD-YYYY-NNNNN (e.g., ORD-2026-00001)
func (r *GormOrderRepository) GenerateOrderCode(ctx context.Context) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("ORD-%d-", year)

	var lastOrder ordering.Order
	err := r.db.WithContext(ctx).
		Model(&ordering.Order{}).
		Where("order_code LIKE ?", prefix+"%").
		Order("order_code DESC").
		First(&lastOrder).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastOrder.OrderCode != "" {
		parts := strings.Split(lastOrder.OrderCode, "-")
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
func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Ordering goes through a whitelist to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.Order("orders." + sortField + " " + sortOrder)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("order_code ILIKE ? OR work_location ILIKE ?",
			searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "line_item_id":
			query = query.Where("line_item_id = ?", value)
		case "purchase_order_id":
			query = query.Where("purchase_order_id = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "status":
			query = query.Where("orders.status = ?", value)
		case "statuses":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("orders.status IN ?", statuses)
			}
		case "is_urgent":
			query = query.Where("is_urgent = ?", value)
		case "delivery_from":
			if t, ok := value.(time.Time); ok {
				query = query.Where("delivery_date >= ?", t)
			}
		case "delivery_until":
			if t, ok := value.(time.Time); ok {
				query = query.Where("delivery_date <= ?", t)
			}
		case "include_archived":
			// Archived rows stay queryable; nothing to add
		}
	}

	if _, ok := filter.Filters["include_archived"]; !ok {
		if _, ok := filter.Filters["status"]; !ok {
			if _, ok := filter.Filters["statuses"]; !ok {
				query = query.Where("orders.status <> ?", ordering.OrderStatusArchived)
			}
		}
	}

	return query
}

// Ensure GormOrderRepository implements OrderRepository
var _ ordering.OrderRepository = (*GormOrderRepository)(nil)
