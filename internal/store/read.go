package store

import (
	"fmt"

	"droq_registry/internal/model"
)

// NodeWithComponents pairs a node row with its full component mapping
type NodeWithComponents struct {
	Node       model.Node        `json:"node"`
	Components map[string]string `json:"components"`
}

// ActiveNode pairs an active node row with its supported component
// class names (sorted). The listing endpoint only needs the count and
// the class names, not the module paths.
type ActiveNode struct {
	Node                model.Node
	SupportedComponents []string
}

// ComponentNode is the resolution of a component class to its owning
// active node.
type ComponentNode struct {
	Node       model.Node        `json:"node"`
	Components map[string]string `json:"components"`
	ModulePath string            `json:"module_path"`
}

// GetNode returns the node row and its full component mapping. Returns
// gorm.ErrRecordNotFound when the id is absent.
func (s *Store) GetNode(nodeID string) (*NodeWithComponents, error) {
	var n model.Node
	if err := s.db.Where("node_id = ?", nodeID).First(&n).Error; err != nil {
		return nil, err
	}

	components, err := s.componentMap(nodeID)
	if err != nil {
		return nil, err
	}

	return &NodeWithComponents{Node: n, Components: components}, nil
}

// ListActiveNodes returns all nodes with status=active, each with its
// sorted component class names.
func (s *Store) ListActiveNodes() ([]ActiveNode, error) {
	var nodes []model.Node
	err := s.db.Where("status = ?", model.NodeStatusActive).Order("node_id asc").Find(&nodes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active nodes: %w", err)
	}

	out := make([]ActiveNode, 0, len(nodes))
	for _, n := range nodes {
		classes := []string{}
		err := s.db.Model(&model.Component{}).
			Where("node_id = ?", n.NodeID).
			Order("component_class asc").
			Pluck("component_class", &classes).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list components for node %s: %w", n.NodeID, err)
		}
		out = append(out, ActiveNode{Node: n, SupportedComponents: classes})
	}

	return out, nil
}

// FindNodeByComponent resolves a component class to its owning active
// node, the node's full mapping and the module path for that class.
// Only active nodes are eligible; when the table carries stale rows for
// more than one node the lowest node_id wins, matching the reconciler's
// conflict order. Returns gorm.ErrRecordNotFound when no active node
// owns the class.
func (s *Store) FindNodeByComponent(componentClass string) (*ComponentNode, error) {
	var row model.Component
	err := s.db.
		Joins("JOIN nodes ON nodes.node_id = components.node_id").
		Where("components.component_class = ? AND nodes.status = ?", componentClass, model.NodeStatusActive).
		Order("components.node_id asc").
		First(&row).Error
	if err != nil {
		return nil, err
	}

	nw, err := s.GetNode(row.NodeID)
	if err != nil {
		return nil, err
	}

	return &ComponentNode{
		Node:       nw.Node,
		Components: nw.Components,
		ModulePath: row.ModulePath,
	}, nil
}

func (s *Store) componentMap(nodeID string) (map[string]string, error) {
	var rows []model.Component
	if err := s.db.Where("node_id = ?", nodeID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load components for node %s: %w", nodeID, err)
	}

	components := make(map[string]string, len(rows))
	for _, c := range rows {
		components[c.ComponentClass] = c.ModulePath
	}
	return components, nil
}
