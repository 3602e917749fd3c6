package model

import (
	"time"

	"gorm.io/datatypes"
)

// NodeStatus represents executor node status
type NodeStatus string

const (
	NodeStatusActive    NodeStatus = "active"
	NodeStatusInactive  NodeStatus = "inactive"
	NodeStatusDeploying NodeStatus = "deploying"
)

// DeploymentLocation represents where an executor node is deployed
type DeploymentLocation string

const (
	DeploymentLocal DeploymentLocation = "local"
	DeploymentCloud DeploymentLocation = "cloud"
	DeploymentK8s   DeploymentLocation = "k8s"
)

// Node represents an executor node registered from a descriptor file.
// MetadataJSON keeps the original descriptor payload verbatim so fields
// not modeled as columns survive reconciliation.
type Node struct {
	NodeID             string             `gorm:"column:node_id;type:varchar(128);primaryKey" json:"node_id"`
	Name               string             `gorm:"type:varchar(128);not null" json:"name"`
	Description        string             `gorm:"type:varchar(512)" json:"description"`
	SourceCodeLocation string             `gorm:"column:source_code_location;type:varchar(255)" json:"source_code_location"`
	DockerImage        string             `gorm:"type:varchar(255)" json:"docker_image"`
	DeploymentLocation DeploymentLocation `gorm:"type:varchar(16);not null;default:'local'" json:"deployment_location"`
	APIURL             string             `gorm:"column:api_url;type:varchar(255)" json:"api_url"`
	Status             NodeStatus         `gorm:"type:varchar(16);index;not null;default:'active'" json:"status"`
	MetadataJSON       datatypes.JSON     `gorm:"column:metadata_json;type:json" json:"metadata_json"`
	CreatedAt          time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
	Components         []Component        `gorm:"foreignKey:NodeID;references:NodeID;constraint:OnDelete:CASCADE" json:"components,omitempty"`
}

// TableName specifies the table name for Node model
func (Node) TableName() string {
	return "nodes"
}
