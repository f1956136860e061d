package node

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusEnabled  Status = "enabled"
	StatusDisabled Status = "disabled"
)

func (s Status) IsValid() bool {
	return s == StatusEnabled || s == StatusDisabled
}

// Protocol is the proxy protocol a node speaks.
type Protocol string

const (
	ProtocolShadowsocks Protocol = "shadowsocks"
	ProtocolVMess       Protocol = "vmess"
	ProtocolVLESS       Protocol = "vless"
	ProtocolTrojan      Protocol = "trojan"
	ProtocolHysteria2   Protocol = "hysteria2"
)

func (p Protocol) IsValid() bool {
	switch p {
	case ProtocolShadowsocks, ProtocolVMess, ProtocolVLESS, ProtocolTrojan, ProtocolHysteria2:
		return true
	default:
		return false
	}
}

func (p Protocol) String() string {
	return string(p)
}

// Node is a proxy endpoint. The (address, port, protocol) triple is its
// identity for idempotent agent registration; config carries the
// protocol-specific blob verbatim.
type Node struct {
	id        uint
	name      string
	address   string
	port      int
	protocol  Protocol
	config    map[string]interface{}
	status    Status
	sortOrder int
	createdAt time.Time
	updatedAt time.Time
}

func NewNode(name, address string, port int, protocol Protocol, config map[string]interface{}) (*Node, error) {
	if name == "" {
		return nil, fmt.Errorf("node name is required")
	}
	if address == "" {
		return nil, fmt.Errorf("node address is required")
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid node port: %d", port)
	}
	if !protocol.IsValid() {
		return nil, fmt.Errorf("invalid node protocol: %s", protocol)
	}
	if config == nil {
		config = make(map[string]interface{})
	}

	now := time.Now().UTC()
	return &Node{
		name:      name,
		address:   address,
		port:      port,
		protocol:  protocol,
		config:    config,
		status:    StatusEnabled,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func ReconstructNode(id uint, name, address string, port int, protocol string,
	config map[string]interface{}, status string, sortOrder int,
	createdAt, updatedAt time.Time) (*Node, error) {

	if id == 0 {
		return nil, fmt.Errorf("node ID cannot be zero")
	}
	proto := Protocol(protocol)
	if !proto.IsValid() {
		return nil, fmt.Errorf("invalid node protocol: %s", protocol)
	}
	st := Status(status)
	if !st.IsValid() {
		return nil, fmt.Errorf("invalid node status: %s", status)
	}
	if config == nil {
		config = make(map[string]interface{})
	}

	return &Node{
		id:        id,
		name:      name,
		address:   address,
		port:      port,
		protocol:  proto,
		config:    config,
		status:    st,
		sortOrder: sortOrder,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

func (n *Node) ID() uint                       { return n.id }
func (n *Node) Name() string                   { return n.name }
func (n *Node) Address() string                { return n.address }
func (n *Node) Port() int                      { return n.port }
func (n *Node) Protocol() Protocol             { return n.protocol }
func (n *Node) Config() map[string]interface{} { return n.config }
func (n *Node) Status() Status                 { return n.status }
func (n *Node) SortOrder() int                 { return n.sortOrder }
func (n *Node) CreatedAt() time.Time           { return n.createdAt }
func (n *Node) UpdatedAt() time.Time           { return n.updatedAt }

func (n *Node) SetID(id uint) error {
	if n.id != 0 {
		return fmt.Errorf("node ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("node ID cannot be zero")
	}
	n.id = id
	return nil
}

func (n *Node) IsEnabled() bool {
	return n.status == StatusEnabled
}

// Update carries optional field changes for a node.
type Update struct {
	Name      *string
	Address   *string
	Port      *int
	Protocol  *string
	Config    map[string]interface{}
	Status    *string
	SortOrder *int
}

// Apply merges non-nil fields into the node.
func (n *Node) Apply(u Update) error {
	if u.Name != nil {
		if *u.Name == "" {
			return fmt.Errorf("node name is required")
		}
		n.name = *u.Name
	}
	if u.Address != nil {
		if *u.Address == "" {
			return fmt.Errorf("node address is required")
		}
		n.address = *u.Address
	}
	if u.Port != nil {
		if *u.Port < 1 || *u.Port > 65535 {
			return fmt.Errorf("invalid node port: %d", *u.Port)
		}
		n.port = *u.Port
	}
	if u.Protocol != nil {
		proto := Protocol(*u.Protocol)
		if !proto.IsValid() {
			return fmt.Errorf("invalid node protocol: %s", *u.Protocol)
		}
		n.protocol = proto
	}
	if u.Config != nil {
		n.config = u.Config
	}
	if u.Status != nil {
		st := Status(*u.Status)
		if !st.IsValid() {
			return fmt.Errorf("invalid node status: %s", *u.Status)
		}
		n.status = st
	}
	if u.SortOrder != nil {
		n.sortOrder = *u.SortOrder
	}
	n.updatedAt = time.Now().UTC()
	return nil
}

// RefreshFromAgent updates the mutable attributes reported by a node agent,
// keeping identity fields untouched.
func (n *Node) RefreshFromAgent(name string, config map[string]interface{}) {
	if name != "" {
		n.name = name
	}
	if config != nil {
		n.config = config
	}
	n.updatedAt = time.Now().UTC()
}
