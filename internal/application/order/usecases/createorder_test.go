package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/domain/entitlement"
	"meridian/internal/domain/order"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

func newCreateOrderUseCase(planRepo *stubPlanRepo, groupRepo *stubGroupRepo, entRepo *stubEntitlementRepo, orderRepo *stubOrderRepo) *CreateOrderUseCase {
	return NewCreateOrderUseCase(orderRepo, planRepo, groupRepo, entRepo, nil, nil, logger.NewLogger())
}

func requireConflict(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)
}

func TestCreateOrder_CreatesPendingOrder(t *testing.T) {
	orderRepo := &stubOrderRepo{}
	uc := newCreateOrderUseCase(
		&stubPlanRepo{plan: testPlan(t, 5, 2, 990)},
		&stubGroupRepo{group: testGroup(t, 2, 1)},
		&stubEntitlementRepo{},
		orderRepo,
	)

	result, err := uc.Execute(context.Background(), CreateOrderCommand{UserID: 1, PlanID: 5})
	require.NoError(t, err)

	assert.Equal(t, uint(1), result.OrderID)
	assert.Equal(t, int64(990), result.Amount)
	assert.Equal(t, "pending", result.Status)
	assert.NotZero(t, result.PayExpireAt)
	require.NotNil(t, orderRepo.created)
	assert.Equal(t, order.TypePurchase, orderRepo.created.OrderType())
}

func TestCreateOrder_Guards(t *testing.T) {
	t.Run("pending order blocks a second one", func(t *testing.T) {
		uc := newCreateOrderUseCase(
			&stubPlanRepo{plan: testPlan(t, 5, 2, 990)},
			&stubGroupRepo{group: testGroup(t, 2, 1)},
			&stubEntitlementRepo{},
			&stubOrderRepo{pending: true},
		)

		_, err := uc.Execute(context.Background(), CreateOrderCommand{UserID: 1, PlanID: 5})
		requireConflict(t, err)
	})

	t.Run("cannot buy below the highest active level", func(t *testing.T) {
		uc := newCreateOrderUseCase(
			&stubPlanRepo{plan: testPlan(t, 5, 2, 990)},
			&stubGroupRepo{group: testGroup(t, 2, 1)},
			&stubEntitlementRepo{holdings: []entitlement.ActiveHolding{
				{EntitlementID: 1, PlanID: 9, GroupID: 3, GroupLevel: 5},
			}},
			&stubOrderRepo{},
		)

		_, err := uc.Execute(context.Background(), CreateOrderCommand{UserID: 1, PlanID: 5})
		requireConflict(t, err)
	})

	t.Run("exclusive holding blocks another exclusive group", func(t *testing.T) {
		uc := newCreateOrderUseCase(
			&stubPlanRepo{plan: testPlan(t, 5, 2, 990)},
			&stubGroupRepo{group: testGroup(t, 2, 3)},
			&stubEntitlementRepo{holdings: []entitlement.ActiveHolding{
				{EntitlementID: 1, PlanID: 9, GroupID: 3, GroupLevel: 2, GroupExclusive: true},
			}},
			&stubOrderRepo{},
		)

		_, err := uc.Execute(context.Background(), CreateOrderCommand{UserID: 1, PlanID: 5})
		requireConflict(t, err)
	})

	t.Run("same exclusive group stacks fine", func(t *testing.T) {
		uc := newCreateOrderUseCase(
			&stubPlanRepo{plan: testPlan(t, 5, 2, 990)},
			&stubGroupRepo{group: testGroup(t, 2, 3)},
			&stubEntitlementRepo{holdings: []entitlement.ActiveHolding{
				{EntitlementID: 1, PlanID: 9, GroupID: 2, GroupLevel: 3, GroupExclusive: true},
			}},
			&stubOrderRepo{},
		)

		_, err := uc.Execute(context.Background(), CreateOrderCommand{UserID: 1, PlanID: 5})
		assert.NoError(t, err)
	})
}

func TestCreateOrder_HiddenPlanNotFound(t *testing.T) {
	plan := testPlan(t, 5, 2, 990)
	group, err := testGroupWithVisibility(t, 2, 1, false)
	require.NoError(t, err)

	uc := newCreateOrderUseCase(
		&stubPlanRepo{plan: plan},
		&stubGroupRepo{group: group},
		&stubEntitlementRepo{},
		&stubOrderRepo{},
	)

	_, execErr := uc.Execute(context.Background(), CreateOrderCommand{UserID: 1, PlanID: 5})
	require.Error(t, execErr)
	appErr, ok := execErr.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
}

func TestCreateOrder_Validation(t *testing.T) {
	uc := newCreateOrderUseCase(&stubPlanRepo{}, &stubGroupRepo{}, &stubEntitlementRepo{}, &stubOrderRepo{})

	_, err := uc.Execute(context.Background(), CreateOrderCommand{PlanID: 5})
	assert.Error(t, err)
	_, err = uc.Execute(context.Background(), CreateOrderCommand{UserID: 1})
	assert.Error(t, err)
}
