package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	entitlementuc "meridian/internal/application/entitlement/usecases"
	"meridian/internal/domain/catalog"
	"meridian/internal/domain/entitlement"
	"meridian/internal/domain/user"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

type stubClientRepo struct {
	user.ClientRepository
	client *user.Client
	err    error
}

func (s *stubClientRepo) GetByUUID(ctx context.Context, clientUUID string) (*user.Client, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.client, nil
}

type stubUserRepo struct {
	user.Repository
	user *user.User
	err  error
}

func (s *stubUserRepo) GetByID(ctx context.Context, id uint) (*user.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

type stubAuthzEntitlementRepo struct {
	entitlement.Repository
	holdings []entitlement.ActiveHolding
	usable   []*entitlement.Entitlement
	all      []*entitlement.Entitlement
}

func (s *stubAuthzEntitlementRepo) ListByUser(ctx context.Context, userID uint) ([]*entitlement.Entitlement, error) {
	return s.all, nil
}

func (s *stubAuthzEntitlementRepo) ListActiveHoldings(ctx context.Context, userID uint, now time.Time) ([]entitlement.ActiveHolding, error) {
	return s.holdings, nil
}

func (s *stubAuthzEntitlementRepo) ListUsableForNode(ctx context.Context, userID, nodeID uint, now time.Time) ([]*entitlement.Entitlement, error) {
	return s.usable, nil
}

func (s *stubAuthzEntitlementRepo) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (s *stubAuthzEntitlementRepo) MarkExhausted(ctx context.Context) (int64, error) {
	return 0, nil
}

type stubPlanNodeRepo struct {
	catalog.PlanNodeRepository
	planIDs []uint
}

func (s *stubPlanNodeRepo) PlanIDsForNode(ctx context.Context, nodeID uint) ([]uint, error) {
	return s.planIDs, nil
}

type authzFixture struct {
	clientRepo      *stubClientRepo
	userRepo        *stubUserRepo
	entitlementRepo *stubAuthzEntitlementRepo
	planNodeRepo    *stubPlanNodeRepo
}

func newAuthzUseCase(f authzFixture) *AuthorizeConnectionUseCase {
	log := logger.NewLogger()
	return NewAuthorizeConnectionUseCase(
		f.clientRepo,
		f.userRepo,
		f.entitlementRepo,
		f.planNodeRepo,
		entitlementuc.NewRefreshEntitlementStatusUseCase(f.entitlementRepo, log),
		entitlementuc.NewActivePlanIDsUseCase(f.entitlementRepo, log),
		log,
	)
}

func testClient(t *testing.T, userID uint, enabled bool) *user.Client {
	t.Helper()
	now := time.Now().UTC()
	c, err := user.ReconstructClient(1, userID, uuid.NewString(), "", enabled, now, now)
	require.NoError(t, err)
	return c
}

func testUser(t *testing.T, id uint, banned bool) *user.User {
	t.Helper()
	status := "active"
	if banned {
		status = "banned"
	}
	now := time.Now().UTC()
	u, err := user.ReconstructUser(id, "alice", "a@b.com", "hash", "user", status, 0, 0, nil, 0, nil, 0, now, now)
	require.NoError(t, err)
	return u
}

func usableEntitlement(t *testing.T) *entitlement.Entitlement {
	t.Helper()
	now := time.Now().UTC()
	ent, err := entitlement.ReconstructEntitlement(1, 5, 1, 10, "active",
		now, now.Add(24*time.Hour), now, now.Add(24*time.Hour),
		1<<30, 0, 100, "", nil, 1, now, now)
	require.NoError(t, err)
	return ent
}

func drainedEntitlement(t *testing.T) *entitlement.Entitlement {
	t.Helper()
	now := time.Now().UTC()
	ent, err := entitlement.ReconstructEntitlement(2, 5, 1, 10, "exhausted",
		now, now.Add(24*time.Hour), now, now.Add(24*time.Hour),
		1<<30, 1<<30, 100, "", nil, 1, now, now)
	require.NoError(t, err)
	return ent
}

func TestAuthorizeConnection_Allow(t *testing.T) {
	uc := newAuthzUseCase(authzFixture{
		clientRepo: &stubClientRepo{client: testClient(t, 5, true)},
		userRepo:   &stubUserRepo{user: testUser(t, 5, false)},
		entitlementRepo: &stubAuthzEntitlementRepo{
			holdings: []entitlement.ActiveHolding{{EntitlementID: 1, PlanID: 10, GroupID: 1, GroupLevel: 1}},
			usable:   []*entitlement.Entitlement{usableEntitlement(t)},
		},
		planNodeRepo: &stubPlanNodeRepo{planIDs: []uint{10, 11}},
	})

	result, err := uc.Execute(context.Background(), AuthorizeConnectionCommand{UUID: "abc", NodeID: 3})
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Empty(t, result.Reason)
	assert.Equal(t, uint(5), result.UserID)
	assert.Equal(t, []uint{10}, result.ActivePlanIDs)
}

func TestAuthorizeConnection_DenyReasons(t *testing.T) {
	tests := []struct {
		name    string
		fixture authzFixture
		reason  string
	}{
		{
			name: "unknown uuid",
			fixture: authzFixture{
				clientRepo:      &stubClientRepo{err: user.ErrClientNotFound},
				userRepo:        &stubUserRepo{},
				entitlementRepo: &stubAuthzEntitlementRepo{},
				planNodeRepo:    &stubPlanNodeRepo{},
			},
			reason: ReasonUUIDNotFound,
		},
		{
			name: "disabled uuid",
			fixture: authzFixture{
				clientRepo:      &stubClientRepo{client: testClient(t, 5, false)},
				userRepo:        &stubUserRepo{},
				entitlementRepo: &stubAuthzEntitlementRepo{},
				planNodeRepo:    &stubPlanNodeRepo{},
			},
			reason: ReasonUUIDDisabled,
		},
		{
			name: "banned user",
			fixture: authzFixture{
				clientRepo:      &stubClientRepo{client: testClient(t, 5, true)},
				userRepo:        &stubUserRepo{user: testUser(t, 5, true)},
				entitlementRepo: &stubAuthzEntitlementRepo{},
				planNodeRepo:    &stubPlanNodeRepo{},
			},
			reason: ReasonUserBanned,
		},
		{
			name: "no active plan",
			fixture: authzFixture{
				clientRepo:      &stubClientRepo{client: testClient(t, 5, true)},
				userRepo:        &stubUserRepo{user: testUser(t, 5, false)},
				entitlementRepo: &stubAuthzEntitlementRepo{},
				planNodeRepo:    &stubPlanNodeRepo{planIDs: []uint{10}},
			},
			reason: ReasonNoActivePlan,
		},
		{
			name: "drained account before node checks",
			fixture: authzFixture{
				clientRepo: &stubClientRepo{client: testClient(t, 5, true)},
				userRepo:   &stubUserRepo{user: testUser(t, 5, false)},
				entitlementRepo: &stubAuthzEntitlementRepo{
					all: []*entitlement.Entitlement{drainedEntitlement(t)},
				},
				planNodeRepo: &stubPlanNodeRepo{planIDs: []uint{10}},
			},
			reason: ReasonTrafficExceeded,
		},
		{
			name: "plan not bound to node",
			fixture: authzFixture{
				clientRepo: &stubClientRepo{client: testClient(t, 5, true)},
				userRepo:   &stubUserRepo{user: testUser(t, 5, false)},
				entitlementRepo: &stubAuthzEntitlementRepo{
					holdings: []entitlement.ActiveHolding{{EntitlementID: 1, PlanID: 10, GroupID: 1, GroupLevel: 1}},
				},
				planNodeRepo: &stubPlanNodeRepo{planIDs: []uint{99}},
			},
			reason: ReasonNodeNotAllowed,
		},
		{
			name: "all eligible entitlements drained",
			fixture: authzFixture{
				clientRepo: &stubClientRepo{client: testClient(t, 5, true)},
				userRepo:   &stubUserRepo{user: testUser(t, 5, false)},
				entitlementRepo: &stubAuthzEntitlementRepo{
					holdings: []entitlement.ActiveHolding{{EntitlementID: 1, PlanID: 10, GroupID: 1, GroupLevel: 1}},
					usable:   nil,
				},
				planNodeRepo: &stubPlanNodeRepo{planIDs: []uint{10}},
			},
			reason: ReasonTrafficExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := newAuthzUseCase(tt.fixture)
			result, err := uc.Execute(context.Background(), AuthorizeConnectionCommand{UUID: "abc", NodeID: 3})
			require.NoError(t, err)
			assert.False(t, result.Allowed)
			assert.Equal(t, tt.reason, result.Reason)
		})
	}
}

func TestAuthorizeConnection_Validation(t *testing.T) {
	uc := newAuthzUseCase(authzFixture{
		clientRepo:      &stubClientRepo{},
		userRepo:        &stubUserRepo{},
		entitlementRepo: &stubAuthzEntitlementRepo{},
		planNodeRepo:    &stubPlanNodeRepo{},
	})

	_, err := uc.Execute(context.Background(), AuthorizeConnectionCommand{NodeID: 3})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
}

func TestAuthorizeConnection_AccountLevelCheckSkipsNodeBinding(t *testing.T) {
	uc := newAuthzUseCase(authzFixture{
		clientRepo: &stubClientRepo{client: testClient(t, 5, true)},
		userRepo:   &stubUserRepo{user: testUser(t, 5, false)},
		entitlementRepo: &stubAuthzEntitlementRepo{
			holdings: []entitlement.ActiveHolding{{EntitlementID: 1, PlanID: 10, GroupID: 1, GroupLevel: 1}},
		},
		// no plans bound anywhere; without a node id that must not matter
		planNodeRepo: &stubPlanNodeRepo{},
	})

	result, err := uc.Execute(context.Background(), AuthorizeConnectionCommand{UUID: "abc"})
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, []uint{10}, result.ActivePlanIDs)
}
