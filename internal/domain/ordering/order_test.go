package ordering

import (
	"strings"
	"testing"
	"time"

	"github.com/fieldsupply/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestOrder(t *testing.T, urgent bool) *Order {
	t.Helper()
	order, err := NewOrder("OC-2026-0001", uuid.New(), uuid.New(), uuid.New(),
		decimal.NewFromInt(30), "m3", time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), urgent)
	require.NoError(t, err)
	return order
}

func orderInStatus(t *testing.T, status OrderStatus) *Order {
	t.Helper()
	order := createTestOrder(t, false)
	order.Status = status
	return order
}

func TestNewOrder(t *testing.T) {
	t.Run("non-urgent order registers directly", func(t *testing.T) {
		order := createTestOrder(t, false)

		assert.Equal(t, OrderStatusRegistered, order.Status)
		assert.False(t, order.IsUrgent)
		assert.Len(t, order.GetDomainEvents(), 1)
	})

	t.Run("urgent order waits for approval", func(t *testing.T) {
		order := createTestOrder(t, true)

		assert.Equal(t, OrderStatusInApproval, order.Status)
		assert.True(t, order.IsUrgent)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewOrder("OC-2026-0002", uuid.New(), uuid.New(), uuid.New(),
			decimal.Zero, "m3", time.Now(), false)
		assert.Error(t, err)
	})

	t.Run("rejects missing references", func(t *testing.T) {
		_, err := NewOrder("OC-2026-0003", uuid.Nil, uuid.New(), uuid.New(),
			decimal.NewFromInt(1), "m3", time.Now(), false)
		assert.Error(t, err)
	})
}

func TestOrderStatus_ConsumesBalance(t *testing.T) {
	tests := []struct {
		status   OrderStatus
		consumes bool
	}{
		{OrderStatusRegistered, true},
		{OrderStatusInApproval, true}, // reserved eagerly, before approval
		{OrderStatusApproved, true},
		{OrderStatusNotStarted, true},
		{OrderStatusLoaded, true},
		{OrderStatusInRoute, true},
		{OrderStatusDelivered, true},
		{OrderStatusRefused, false},
		{OrderStatusCancelled, false},
		{OrderStatusArchived, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.consumes, tt.status.ConsumesBalance())
		})
	}
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     OrderStatus
		to       OrderStatus
		canTrans bool
	}{
		// Approval branch
		{OrderStatusInApproval, OrderStatusRegistered, true},
		{OrderStatusInApproval, OrderStatusRefused, true},
		{OrderStatusInApproval, OrderStatusNotStarted, false},
		// Operational forward chain
		{OrderStatusRegistered, OrderStatusNotStarted, true},
		{OrderStatusApproved, OrderStatusNotStarted, true},
		{OrderStatusNotStarted, OrderStatusLoaded, true},
		{OrderStatusLoaded, OrderStatusInRoute, true},
		{OrderStatusInRoute, OrderStatusDelivered, true},
		// No skipping or going back
		{OrderStatusRegistered, OrderStatusLoaded, false},
		{OrderStatusLoaded, OrderStatusNotStarted, false},
		{OrderStatusInRoute, OrderStatusLoaded, false},
		{OrderStatusRegistered, OrderStatusInApproval, false},
		// Cancel and archive from any non-terminal state
		{OrderStatusRegistered, OrderStatusCancelled, true},
		{OrderStatusInApproval, OrderStatusArchived, true},
		{OrderStatusInRoute, OrderStatusCancelled, true},
		{OrderStatusLoaded, OrderStatusArchived, true},
		// Terminal states are final
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusArchived, false},
		{OrderStatusRefused, OrderStatusRegistered, false},
		{OrderStatusArchived, OrderStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrder_Apply(t *testing.T) {
	t.Run("approval returns urgent order to registered flow", func(t *testing.T) {
		order := createTestOrder(t, true)

		err := order.Apply(EventApprove)

		require.NoError(t, err)
		assert.Equal(t, OrderStatusRegistered, order.Status)
		assert.NotNil(t, order.ApprovedAt)
		assert.Equal(t, 2, order.GetVersion())
	})

	t.Run("rejection refuses the order and releases the reservation", func(t *testing.T) {
		order := createTestOrder(t, true)
		order.ClearDomainEvents()

		err := order.Apply(EventReject)

		require.NoError(t, err)
		assert.Equal(t, OrderStatusRefused, order.Status)

		events := order.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventTypeOrderStatusChanged, events[0].EventType())
		assert.Equal(t, EventTypeOrderReservationReleased, events[1].EventType())
	})

	t.Run("full delivery chain", func(t *testing.T) {
		order := createTestOrder(t, false)

		for _, ev := range []OrderEvent{EventStart, EventMarkLoaded, EventMarkInRoute, EventMarkDelivered} {
			require.NoError(t, order.Apply(ev))
		}

		assert.Equal(t, OrderStatusDelivered, order.Status)
		assert.NotNil(t, order.DeliveredAt)
	})

	t.Run("illegal event is rejected with INVALID_TRANSITION", func(t *testing.T) {
		order := createTestOrder(t, false)

		err := order.Apply(EventMarkDelivered)

		require.Error(t, err)
		assert.True(t, shared.HasCode(err, "INVALID_TRANSITION"))
		assert.Equal(t, OrderStatusRegistered, order.Status)
	})

	t.Run("unknown event is rejected", func(t *testing.T) {
		order := createTestOrder(t, false)
		err := order.Apply(OrderEvent("teleport"))
		assert.True(t, shared.HasCode(err, "INVALID_TRANSITION"))
	})

	t.Run("terminal order accepts nothing", func(t *testing.T) {
		order := orderInStatus(t, OrderStatusDelivered)
		for _, ev := range []OrderEvent{EventApprove, EventReject, EventStart, EventCancel, EventArchive} {
			assert.Error(t, order.Apply(ev), string(ev))
		}
	})
}

func TestOrder_Cancel(t *testing.T) {
	order := orderInStatus(t, OrderStatusInRoute)

	err := order.Cancel("truck broke down")

	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, order.Status)
	assert.Equal(t, "truck broke down", order.CancelReason)
	assert.NotNil(t, order.CancelledAt)
	assert.False(t, order.Status.ConsumesBalance())
}

func TestOrder_Archive(t *testing.T) {
	t.Run("archives from any non-terminal state", func(t *testing.T) {
		for _, status := range []OrderStatus{OrderStatusRegistered, OrderStatusInApproval, OrderStatusNotStarted, OrderStatusLoaded, OrderStatusInRoute} {
			order := orderInStatus(t, status)
			require.NoError(t, order.Archive(), string(status))
			assert.True(t, order.IsArchived())
		}
	})

	t.Run("cannot archive a delivered order", func(t *testing.T) {
		order := orderInStatus(t, OrderStatusDelivered)
		assert.Error(t, order.Archive())
	})
}

func TestOrder_SetNotes(t *testing.T) {
	order := createTestOrder(t, false)

	require.NoError(t, order.SetNotes("entregar na portaria 2"))
	assert.Equal(t, "entregar na portaria 2", order.Notes)

	err := order.SetNotes(strings.Repeat("x", MaxNotesLength+1))
	assert.Error(t, err)
}

func TestOrder_RequestReprogram(t *testing.T) {
	newDate := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)

	t.Run("attaches pending request without changing status", func(t *testing.T) {
		order := createTestOrder(t, false)

		req, err := order.RequestReprogram(newDate, "site flooded")

		require.NoError(t, err)
		assert.Equal(t, OrderStatusRegistered, order.Status)
		assert.True(t, order.HasPendingReprogram())
		assert.Equal(t, newDate, req.NewDeliveryDate)
		assert.Equal(t, ReprogramStatusPending, req.Status)
	})

	t.Run("rejects second pending request", func(t *testing.T) {
		order := createTestOrder(t, false)
		_, err := order.RequestReprogram(newDate, "site flooded")
		require.NoError(t, err)

		_, err = order.RequestReprogram(newDate.AddDate(0, 0, 1), "still flooded")
		assert.Error(t, err)
	})

	t.Run("rejects empty justification", func(t *testing.T) {
		order := createTestOrder(t, false)
		_, err := order.RequestReprogram(newDate, "")
		assert.Error(t, err)
	})

	t.Run("rejects terminal order", func(t *testing.T) {
		order := orderInStatus(t, OrderStatusCancelled)
		_, err := order.RequestReprogram(newDate, "too late")
		assert.Error(t, err)
	})
}

func TestOrder_ApproveReprogram(t *testing.T) {
	order := createTestOrder(t, false)
	newDate := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	originalQty := order.Quantity
	_, err := order.RequestReprogram(newDate, "site flooded")
	require.NoError(t, err)

	err = order.ApproveReprogram()

	require.NoError(t, err)
	assert.Equal(t, newDate, order.DeliveryDate)
	assert.Equal(t, ReprogramStatusApplied, order.Reprogram.Status)
	assert.False(t, order.HasPendingReprogram())
	assert.True(t, originalQty.Equal(order.Quantity), "reprogramming never changes quantity")
	assert.Equal(t, OrderStatusRegistered, order.Status)
}

func TestOrder_RejectReprogram(t *testing.T) {
	t.Run("rejection cancels the order", func(t *testing.T) {
		order := createTestOrder(t, false)
		_, err := order.RequestReprogram(time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), "site flooded")
		require.NoError(t, err)

		err = order.RejectReprogram()

		require.NoError(t, err)
		assert.Equal(t, OrderStatusCancelled, order.Status)
		assert.Equal(t, ReprogramStatusRejected, order.Reprogram.Status)
	})

	t.Run("fails without a pending request", func(t *testing.T) {
		order := createTestOrder(t, false)
		assert.Error(t, order.RejectReprogram())
	})
}

func TestOrder_ReprogramVoidedOnTerminalTransition(t *testing.T) {
	newDate := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)

	deliveredWithOpenRequest := func(t *testing.T) *Order {
		t.Helper()
		order := createTestOrder(t, false)
		_, err := order.RequestReprogram(newDate, "access road blocked")
		require.NoError(t, err)
		for _, event := range []OrderEvent{EventStart, EventMarkLoaded, EventMarkInRoute, EventMarkDelivered} {
			require.NoError(t, order.Apply(event))
		}
		return order
	}

	t.Run("delivery voids the open request", func(t *testing.T) {
		order := deliveredWithOpenRequest(t)

		assert.Equal(t, OrderStatusDelivered, order.Status)
		assert.Equal(t, ReprogramStatusVoided, order.Reprogram.Status)
		assert.NotNil(t, order.Reprogram.ResolvedAt)
		assert.False(t, order.HasPendingReprogram())
	})

	t.Run("approval cannot touch a delivered order", func(t *testing.T) {
		order := deliveredWithOpenRequest(t)
		originalDate := order.DeliveryDate

		err := order.ApproveReprogram()

		assert.Error(t, err)
		assert.Equal(t, originalDate, order.DeliveryDate)
		assert.Equal(t, OrderStatusDelivered, order.Status)
	})

	t.Run("rejection cannot cancel a delivered order", func(t *testing.T) {
		order := deliveredWithOpenRequest(t)

		err := order.RejectReprogram()

		assert.Error(t, err)
		assert.Equal(t, OrderStatusDelivered, order.Status)
	})

	t.Run("cancellation voids the open request too", func(t *testing.T) {
		order := createTestOrder(t, false)
		_, err := order.RequestReprogram(newDate, "access road blocked")
		require.NoError(t, err)

		require.NoError(t, order.Cancel("obra suspensa"))

		assert.Equal(t, ReprogramStatusVoided, order.Reprogram.Status)
		assert.False(t, order.HasPendingReprogram())
	})
}

func TestOrder_RepointLineItem(t *testing.T) {
	t.Run("repoints and bumps version", func(t *testing.T) {
		order := createTestOrder(t, false)
		newLineItem := uuid.New()
		newPO := uuid.New()

		err := order.RepointLineItem(newLineItem, newPO)

		require.NoError(t, err)
		assert.Equal(t, newLineItem, order.LineItemID)
		assert.Equal(t, newPO, order.PurchaseOrderID)
	})

	t.Run("rejects terminal order", func(t *testing.T) {
		order := orderInStatus(t, OrderStatusDelivered)
		assert.Error(t, order.RepointLineItem(uuid.New(), uuid.New()))
	})

	t.Run("rejects nil target", func(t *testing.T) {
		order := createTestOrder(t, false)
		assert.Error(t, order.RepointLineItem(uuid.Nil, uuid.New()))
	})
}
