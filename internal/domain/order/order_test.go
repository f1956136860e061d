package order

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder_Validation(t *testing.T) {
	tests := []struct {
		name      string
		userID    uint
		planID    uint
		orderType Type
		remark    string
		wantErr   bool
	}{
		{"valid purchase", 1, 2, TypePurchase, "", false},
		{"zero user", 0, 2, TypePurchase, "", true},
		{"zero plan", 1, 0, TypePurchase, "", true},
		{"invalid type", 1, 2, Type("weird"), "", true},
		{"remark too long", 1, 2, TypePurchase, strings.Repeat("x", 256), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := NewOrder(tt.userID, tt.planID, tt.orderType, 100, 30, 1024, tt.remark)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusPending, o.Status())
			assert.NotEmpty(t, o.OrderNo())
		})
	}
}

func TestGenerateOrderNo_Prefixes(t *testing.T) {
	tests := []struct {
		orderType Type
		prefix    string
	}{
		{TypePurchase, "ORD"},
		{TypeUnsubscribe, "UNSUB"},
		{TypeUpgrade, "UPG"},
		{TypeSignin, "SIGNIN"},
	}

	for _, tt := range tests {
		no := GenerateOrderNo(tt.orderType)
		assert.True(t, strings.HasPrefix(no, tt.prefix), "order no %q should have prefix %q", no, tt.prefix)
	}
}

func TestOrder_MarkPaid(t *testing.T) {
	now := time.Now().UTC()

	o, err := NewOrder(1, 2, TypePurchase, 100, 30, 1024, "")
	require.NoError(t, err)

	require.NoError(t, o.MarkPaid("manual", now))
	assert.Equal(t, StatusPaid, o.Status())
	assert.Equal(t, "manual", o.PayMethod())
	require.NotNil(t, o.PaidAt())
	assert.Equal(t, now, *o.PaidAt())

	assert.ErrorIs(t, o.MarkPaid("manual", now), ErrOrderAlreadyPaid)
}

func TestOrder_Cancel(t *testing.T) {
	now := time.Now().UTC()

	t.Run("pending cancels", func(t *testing.T) {
		o, err := NewOrder(1, 2, TypePurchase, 100, 30, 1024, "")
		require.NoError(t, err)
		require.NoError(t, o.Cancel())
		assert.Equal(t, StatusCancelled, o.Status())
		assert.ErrorIs(t, o.Cancel(), ErrOrderCancelled)
	})

	t.Run("paid cannot cancel", func(t *testing.T) {
		o, err := NewOrder(1, 2, TypePurchase, 100, 30, 1024, "")
		require.NoError(t, err)
		require.NoError(t, o.MarkPaid("manual", now))
		assert.ErrorIs(t, o.Cancel(), ErrOrderAlreadyPaid)
	})

	t.Run("force cancel overrides paid", func(t *testing.T) {
		o, err := NewOrder(1, 2, TypePurchase, 100, 30, 1024, "")
		require.NoError(t, err)
		require.NoError(t, o.MarkPaid("manual", now))
		require.NoError(t, o.ForceCancel())
		assert.Equal(t, StatusCancelled, o.Status())
		assert.ErrorIs(t, o.ForceCancel(), ErrOrderCancelled)
	})
}

func TestOrder_PayWindow(t *testing.T) {
	o, err := NewOrder(1, 2, TypePurchase, 100, 30, 1024, "")
	require.NoError(t, err)

	assert.False(t, o.IsPayExpired(o.CreatedAt().Add(PayWindow-time.Minute)))
	assert.True(t, o.IsPayExpired(o.CreatedAt().Add(PayWindow+time.Minute)))

	require.NoError(t, o.MarkPaid("manual", o.CreatedAt()))
	assert.False(t, o.IsPayExpired(o.CreatedAt().Add(PayWindow+time.Hour)))
}

func TestReconstructOrder(t *testing.T) {
	now := time.Now().UTC()

	o, err := ReconstructOrder(5, 1, 2, "ORD123", -500, "refund", "paid", "unsubscribe", -10, -1024, "partial refund", now, &now)
	require.NoError(t, err)
	assert.Equal(t, int64(-500), o.Amount())
	assert.Equal(t, -10, o.DurationDays())
	assert.Equal(t, TypeUnsubscribe, o.OrderType())

	_, err = ReconstructOrder(0, 1, 2, "ORD123", 100, "", "paid", "purchase", 30, 0, "", now, nil)
	assert.Error(t, err)

	_, err = ReconstructOrder(5, 1, 2, "ORD123", 100, "", "bogus", "purchase", 30, 0, "", now, nil)
	assert.Error(t, err)
}
