package node

import "context"

type Repository interface {
	Create(ctx context.Context, n *Node) error
	Update(ctx context.Context, n *Node) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*Node, error)

	// GetByIdentity looks a node up by its (address, port, protocol) identity.
	GetByIdentity(ctx context.Context, address string, port int, protocol string) (*Node, error)

	List(ctx context.Context) ([]*Node, error)
	ListEnabled(ctx context.Context) ([]*Node, error)
}

type TrafficRepository interface {
	// AddDaily accumulates traffic into the (node, date) row, creating it on
	// first write.
	AddDaily(ctx context.Context, nodeID uint, date string, upload, download int64) error
	GetDaily(ctx context.Context, nodeID uint, date string) (*DailyTraffic, error)
	ListByNode(ctx context.Context, nodeID uint, fromDate, toDate string) ([]*DailyTraffic, error)
}
