package ordering

import (
	"time"

	"github.com/fieldsupply/backend/internal/domain/shared/valueobject"
)

// DefaultUrgentDaysThreshold is the fallback short-notice window in days when
// no threshold is configured.
const DefaultUrgentDaysThreshold = 7

// ClassifyUrgency decides whether an order must pass through approval before
// becoming visible to the supplier. An order is urgent when its delivery date
// is strictly less than thresholdDays whole days away from today: a delivery
// exactly thresholdDays out is NOT urgent.
func ClassifyUrgency(deliveryDate, today time.Time, thresholdDays int) bool {
	if thresholdDays <= 0 {
		thresholdDays = DefaultUrgentDaysThreshold
	}
	return valueobject.DaysBetween(today, deliveryDate) < thresholdDays
}
