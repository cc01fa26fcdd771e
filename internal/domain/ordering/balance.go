package ordering

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItemBalance is the authoritative consumption snapshot of one purchase
// order line item: total contracted quantity, the sum reserved by orders in
// consuming statuses, and what is left. It is recomputed from persisted state
// on every read and never cached across a write.
type LineItemBalance struct {
	LineItemID uuid.UUID       `json:"line_item_id"`
	Total      decimal.Decimal `json:"total"`
	Used       decimal.Decimal `json:"used"`
	Remaining  decimal.Decimal `json:"remaining"`
	Unit       string          `json:"unit"`
}

// NewLineItemBalance derives the balance from total and used quantities
func NewLineItemBalance(lineItemID uuid.UUID, total, used decimal.Decimal, unit string) LineItemBalance {
	return LineItemBalance{
		LineItemID: lineItemID,
		Total:      total,
		Used:       used,
		Remaining:  total.Sub(used),
		Unit:       unit,
	}
}

// CanFulfill reports whether the remaining balance covers the quantity
func (b LineItemBalance) CanFulfill(quantity decimal.Decimal) bool {
	return quantity.LessThanOrEqual(b.Remaining)
}
