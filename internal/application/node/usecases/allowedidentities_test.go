package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	entitlementuc "meridian/internal/application/entitlement/usecases"
	"meridian/internal/domain/entitlement"
	"meridian/internal/domain/user"
	"meridian/internal/shared/logger"
)

type stubIdentityEntitlementRepo struct {
	entitlement.Repository
	nodeUserIDs []uint
	holdings    map[uint][]entitlement.ActiveHolding
}

func (s *stubIdentityEntitlementRepo) ListUserIDsWithNodeAccess(ctx context.Context, nodeID uint, now time.Time) ([]uint, error) {
	return s.nodeUserIDs, nil
}

func (s *stubIdentityEntitlementRepo) ListActiveHoldings(ctx context.Context, userID uint, now time.Time) ([]entitlement.ActiveHolding, error) {
	return s.holdings[userID], nil
}

type stubCanonicalClientRepo struct {
	user.ClientRepository
	clients map[uint]*user.Client
	created []*user.Client
}

func (s *stubCanonicalClientRepo) GetCanonicalByUser(ctx context.Context, userID uint) (*user.Client, error) {
	if c, ok := s.clients[userID]; ok {
		return c, nil
	}
	return nil, user.ErrClientNotFound
}

func (s *stubCanonicalClientRepo) Create(ctx context.Context, c *user.Client) error {
	s.created = append(s.created, c)
	return nil
}

func canonicalClient(t *testing.T, id, userID uint, clientUUID string) *user.Client {
	t.Helper()
	now := time.Now().UTC()
	c, err := user.ReconstructClient(id, userID, clientUUID, "", true, now, now)
	require.NoError(t, err)
	return c
}

func newAllowedUseCase(entRepo *stubIdentityEntitlementRepo, clientRepo *stubCanonicalClientRepo, nodePlanIDs []uint) *AllowedIdentitiesUseCase {
	log := logger.NewLogger()
	return NewAllowedIdentitiesUseCase(
		entRepo,
		clientRepo,
		&stubPlanNodeRepo{planIDs: nodePlanIDs},
		entitlementuc.NewActivePlanIDsUseCase(entRepo, log),
		log,
	)
}

func TestAllowedIdentities_Execute(t *testing.T) {
	t.Run("lists users whose effective plans cover the node", func(t *testing.T) {
		entRepo := &stubIdentityEntitlementRepo{
			nodeUserIDs: []uint{5},
			holdings: map[uint][]entitlement.ActiveHolding{
				5: {{EntitlementID: 1, PlanID: 10, GroupID: 2, GroupLevel: 1}},
			},
		}
		clientRepo := &stubCanonicalClientRepo{clients: map[uint]*user.Client{
			5: canonicalClient(t, 1, 5, "00000000-0000-0000-0000-000000000005"),
		}}

		uc := newAllowedUseCase(entRepo, clientRepo, []uint{10})
		result, err := uc.Execute(context.Background(), AllowedIdentitiesCommand{NodeID: 3})
		require.NoError(t, err)
		assert.Equal(t, []string{"00000000-0000-0000-0000-000000000005"}, result.UUIDs)
	})

	t.Run("exclusive collapse removes users whose node plan lost", func(t *testing.T) {
		// user 5 holds two exclusive-group plans; the higher level one wins,
		// and only the losing plan 10 is bound to this node
		entRepo := &stubIdentityEntitlementRepo{
			nodeUserIDs: []uint{5},
			holdings: map[uint][]entitlement.ActiveHolding{
				5: {
					{EntitlementID: 2, PlanID: 20, GroupID: 3, GroupLevel: 2, GroupExclusive: true},
					{EntitlementID: 1, PlanID: 10, GroupID: 2, GroupLevel: 1, GroupExclusive: true},
				},
			},
		}
		clientRepo := &stubCanonicalClientRepo{clients: map[uint]*user.Client{
			5: canonicalClient(t, 1, 5, "00000000-0000-0000-0000-000000000005"),
		}}

		uc := newAllowedUseCase(entRepo, clientRepo, []uint{10})
		result, err := uc.Execute(context.Background(), AllowedIdentitiesCommand{NodeID: 3})
		require.NoError(t, err)
		assert.Empty(t, result.UUIDs)
		assert.Empty(t, clientRepo.created)
	})

	t.Run("mints a canonical client for users without one", func(t *testing.T) {
		entRepo := &stubIdentityEntitlementRepo{
			nodeUserIDs: []uint{7},
			holdings: map[uint][]entitlement.ActiveHolding{
				7: {{EntitlementID: 3, PlanID: 11, GroupID: 2, GroupLevel: 1}},
			},
		}
		clientRepo := &stubCanonicalClientRepo{clients: map[uint]*user.Client{}}

		uc := newAllowedUseCase(entRepo, clientRepo, []uint{11})
		result, err := uc.Execute(context.Background(), AllowedIdentitiesCommand{NodeID: 3})
		require.NoError(t, err)
		require.Len(t, clientRepo.created, 1)
		assert.Equal(t, []string{clientRepo.created[0].UUID()}, result.UUIDs)
	})

	t.Run("node id required", func(t *testing.T) {
		uc := newAllowedUseCase(&stubIdentityEntitlementRepo{}, &stubCanonicalClientRepo{}, nil)
		_, err := uc.Execute(context.Background(), AllowedIdentitiesCommand{})
		require.Error(t, err)
	})
}
