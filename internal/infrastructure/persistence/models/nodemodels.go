package models

import (
	"time"

	"gorm.io/datatypes"

	"meridian/internal/shared/constants"
)

// NodeModel is the persistence model for proxy nodes. The (address, port,
// protocol) triple is the identity agents register against.
type NodeModel struct {
	ID        uint           `gorm:"primarykey"`
	Name      string         `gorm:"not null;size:100"`
	Address   string         `gorm:"not null;size:255;uniqueIndex:idx_node_identity,priority:1"`
	Port      int            `gorm:"not null;uniqueIndex:idx_node_identity,priority:2"`
	Protocol  string         `gorm:"not null;size:20;uniqueIndex:idx_node_identity,priority:3"`
	Config    datatypes.JSON `gorm:"type:json"`
	Status    string         `gorm:"not null;size:20;default:enabled"`
	SortOrder int            `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (NodeModel) TableName() string {
	return constants.TableNodes
}

// NodeTrafficModel is the per-node per-business-day traffic aggregate.
type NodeTrafficModel struct {
	ID            uint   `gorm:"primarykey"`
	NodeID        uint   `gorm:"not null;uniqueIndex:idx_node_date,priority:1"`
	Date          string `gorm:"not null;size:10;uniqueIndex:idx_node_date,priority:2"`
	UploadBytes   int64  `gorm:"not null;default:0"`
	DownloadBytes int64  `gorm:"not null;default:0"`
	Connections   int64  `gorm:"not null;default:0"`
	UpdatedAt     time.Time
}

func (NodeTrafficModel) TableName() string {
	return constants.TableNodeTraffic
}
