package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/domain/catalog"
	"meridian/internal/domain/node"
	"meridian/internal/shared/logger"
)

type stubNodeRepo struct {
	node.Repository
	existing *node.Node
	created  *node.Node
	updated  *node.Node
}

func (s *stubNodeRepo) GetByIdentity(ctx context.Context, address string, port int, protocol string) (*node.Node, error) {
	if s.existing == nil {
		return nil, node.ErrNodeNotFound
	}
	return s.existing, nil
}

func (s *stubNodeRepo) Create(ctx context.Context, n *node.Node) error {
	s.created = n
	return n.SetID(42)
}

func (s *stubNodeRepo) Update(ctx context.Context, n *node.Node) error {
	s.updated = n
	return nil
}

type stubBindingPlanNodeRepo struct {
	catalog.PlanNodeRepository
	boundNodeID uint
	boundPlans  []uint
}

func (s *stubBindingPlanNodeRepo) BindPlans(ctx context.Context, nodeID uint, planIDs []uint) error {
	s.boundNodeID = nodeID
	s.boundPlans = planIDs
	return nil
}

func TestRegisterNode_Execute(t *testing.T) {
	t.Run("creates and binds plans", func(t *testing.T) {
		nodeRepo := &stubNodeRepo{}
		planNodeRepo := &stubBindingPlanNodeRepo{}
		uc := NewRegisterNodeUseCase(nodeRepo, planNodeRepo, logger.NewLogger())

		result, err := uc.Execute(context.Background(), RegisterNodeCommand{
			Name:     "edge-1",
			Address:  "10.0.0.1",
			Port:     8388,
			Protocol: "shadowsocks",
			PlanIDs:  []uint{10, 11},
		})
		require.NoError(t, err)
		assert.True(t, result.Created)
		assert.Equal(t, uint(42), result.NodeID)
		assert.Equal(t, uint(42), planNodeRepo.boundNodeID)
		assert.Equal(t, []uint{10, 11}, planNodeRepo.boundPlans)
	})

	t.Run("refresh binds plans to the existing node", func(t *testing.T) {
		now := time.Now().UTC()
		existing, err := node.ReconstructNode(7, "edge-1", "10.0.0.1", 8388, "shadowsocks", nil, "enabled", 0, now, now)
		require.NoError(t, err)

		nodeRepo := &stubNodeRepo{existing: existing}
		planNodeRepo := &stubBindingPlanNodeRepo{}
		uc := NewRegisterNodeUseCase(nodeRepo, planNodeRepo, logger.NewLogger())

		result, err := uc.Execute(context.Background(), RegisterNodeCommand{
			Address:  "10.0.0.1",
			Port:     8388,
			Protocol: "shadowsocks",
			PlanIDs:  []uint{10},
		})
		require.NoError(t, err)
		assert.False(t, result.Created)
		assert.Equal(t, uint(7), result.NodeID)
		assert.NotNil(t, nodeRepo.updated)
		assert.Equal(t, uint(7), planNodeRepo.boundNodeID)
		assert.Equal(t, []uint{10}, planNodeRepo.boundPlans)
	})

	t.Run("no plan ids means no binding", func(t *testing.T) {
		nodeRepo := &stubNodeRepo{}
		planNodeRepo := &stubBindingPlanNodeRepo{}
		uc := NewRegisterNodeUseCase(nodeRepo, planNodeRepo, logger.NewLogger())

		_, err := uc.Execute(context.Background(), RegisterNodeCommand{
			Address:  "10.0.0.1",
			Port:     8388,
			Protocol: "vmess",
		})
		require.NoError(t, err)
		assert.Zero(t, planNodeRepo.boundNodeID)
	})

	t.Run("rejects bad identity", func(t *testing.T) {
		uc := NewRegisterNodeUseCase(&stubNodeRepo{}, &stubBindingPlanNodeRepo{}, logger.NewLogger())

		_, err := uc.Execute(context.Background(), RegisterNodeCommand{Port: 8388, Protocol: "vmess"})
		require.Error(t, err)

		_, err = uc.Execute(context.Background(), RegisterNodeCommand{Address: "10.0.0.1", Port: 99999, Protocol: "vmess"})
		require.Error(t, err)

		_, err = uc.Execute(context.Background(), RegisterNodeCommand{Address: "10.0.0.1", Port: 8388, Protocol: "smtp"})
		require.Error(t, err)
	})
}
