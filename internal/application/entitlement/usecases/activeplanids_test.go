package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/domain/entitlement"
	"meridian/internal/shared/logger"
)

type stubHoldingsRepo struct {
	entitlement.Repository
	holdings []entitlement.ActiveHolding
	err      error
}

func (s *stubHoldingsRepo) ListActiveHoldings(ctx context.Context, userID uint, now time.Time) ([]entitlement.ActiveHolding, error) {
	return s.holdings, s.err
}

func TestActivePlanIDs_Execute(t *testing.T) {
	mk := func(planID, groupID uint, level int, exclusive bool) entitlement.ActiveHolding {
		return entitlement.ActiveHolding{
			EntitlementID:  planID,
			PlanID:         planID,
			GroupID:        groupID,
			GroupLevel:     level,
			GroupExclusive: exclusive,
		}
	}

	tests := []struct {
		name     string
		holdings []entitlement.ActiveHolding
		want     []uint
	}{
		{
			name:     "empty holdings",
			holdings: nil,
			want:     []uint{},
		},
		{
			name: "non-exclusive groups contribute every plan",
			holdings: []entitlement.ActiveHolding{
				mk(10, 1, 2, false),
				mk(11, 1, 2, false),
				mk(20, 2, 1, false),
			},
			want: []uint{10, 11, 20},
		},
		{
			// Holdings arrive ordered by level desc, so the first exclusive
			// row wins and the rest are dropped.
			name: "exclusive groups collapse to the highest level",
			holdings: []entitlement.ActiveHolding{
				mk(30, 3, 5, true),
				mk(20, 2, 3, true),
				mk(10, 1, 1, true),
			},
			want: []uint{30},
		},
		{
			name: "mixed exclusive and non-exclusive",
			holdings: []entitlement.ActiveHolding{
				mk(30, 3, 5, true),
				mk(40, 4, 4, false),
				mk(20, 2, 3, true),
			},
			want: []uint{30, 40},
		},
		{
			name: "duplicate plan ids deduplicated",
			holdings: []entitlement.ActiveHolding{
				mk(10, 1, 2, false),
				mk(10, 1, 2, false),
			},
			want: []uint{10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewActivePlanIDsUseCase(&stubHoldingsRepo{holdings: tt.holdings}, logger.NewLogger())
			result, err := uc.Execute(context.Background(), ActivePlanIDsCommand{UserID: 1})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.PlanIDs)
		})
	}
}

func TestActivePlanIDs_RequiresUserID(t *testing.T) {
	uc := NewActivePlanIDsUseCase(&stubHoldingsRepo{}, logger.NewLogger())
	_, err := uc.Execute(context.Background(), ActivePlanIDsCommand{})
	assert.Error(t, err)
}
