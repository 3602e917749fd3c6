package model

import (
	"time"
)

// Component represents one (node, component class) mapping row. A node
// declares each component class at most once.
type Component struct {
	ID             int       `gorm:"primaryKey;autoIncrement" json:"id"`
	NodeID         string    `gorm:"column:node_id;type:varchar(128);uniqueIndex:uniq_node_component;not null" json:"node_id"`
	ComponentClass string    `gorm:"column:component_class;type:varchar(255);uniqueIndex:uniq_node_component;index;not null" json:"component_class"`
	ModulePath     string    `gorm:"column:module_path;type:varchar(255);not null" json:"module_path"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for Component model
func (Component) TableName() string {
	return "components"
}
