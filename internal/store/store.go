package store

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"droq_registry/internal/model"

	"gorm.io/gorm"
)

// Store is the persistence handle for the registry's two tables. It is
// constructed once at startup and passed to the reconciler and the query
// service.
type Store struct {
	db *gorm.DB
}

// New creates a Store over an opened database
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Tx runs fn against a transactional view of the store. The node upsert
// and its component replacement commit or roll back together.
func (s *Store) Tx(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// UpsertNode inserts the node or updates its mutable fields. created_at
// is never touched after the first insert, and updated_at moves only
// when content actually changed. Returns whether the row was newly
// created.
func (s *Store) UpsertNode(n *model.Node) (bool, error) {
	var existing model.Node
	err := s.db.Where("node_id = ?", n.NodeID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.db.Create(n).Error; err != nil {
			return false, fmt.Errorf("failed to insert node %s: %w", n.NodeID, err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query node %s: %w", n.NodeID, err)
	}

	if nodeUnchanged(&existing, n) {
		return false, nil
	}

	updates := map[string]interface{}{
		"name":                 n.Name,
		"description":          n.Description,
		"source_code_location": n.SourceCodeLocation,
		"docker_image":         n.DockerImage,
		"deployment_location":  n.DeploymentLocation,
		"api_url":              n.APIURL,
		"status":               n.Status,
		"metadata_json":        n.MetadataJSON,
	}
	if err := s.db.Model(&model.Node{}).Where("node_id = ?", n.NodeID).Updates(updates).Error; err != nil {
		return false, fmt.Errorf("failed to update node %s: %w", n.NodeID, err)
	}
	return false, nil
}

func nodeUnchanged(a, b *model.Node) bool {
	return a.Name == b.Name &&
		a.Description == b.Description &&
		a.SourceCodeLocation == b.SourceCodeLocation &&
		a.DockerImage == b.DockerImage &&
		a.DeploymentLocation == b.DeploymentLocation &&
		a.APIURL == b.APIURL &&
		a.Status == b.Status &&
		bytes.Equal(a.MetadataJSON, b.MetadataJSON)
}

// ReplaceComponents makes the stored mapping for nodeID exactly match
// mapping: rows for classes no longer declared are deleted, new classes
// are inserted, unchanged rows keep their created_at.
func (s *Store) ReplaceComponents(nodeID string, mapping map[string]string) error {
	var existing []model.Component
	if err := s.db.Where("node_id = ?", nodeID).Find(&existing).Error; err != nil {
		return fmt.Errorf("failed to load components for node %s: %w", nodeID, err)
	}

	current := make(map[string]model.Component, len(existing))
	for _, c := range existing {
		current[c.ComponentClass] = c
	}

	var stale []int
	for class, c := range current {
		if _, ok := mapping[class]; !ok {
			stale = append(stale, c.ID)
		}
	}
	if len(stale) > 0 {
		if err := s.db.Where("id IN ?", stale).Delete(&model.Component{}).Error; err != nil {
			return fmt.Errorf("failed to delete stale components for node %s: %w", nodeID, err)
		}
	}

	classes := make([]string, 0, len(mapping))
	for class := range mapping {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	for _, class := range classes {
		path := mapping[class]
		if c, ok := current[class]; ok {
			if c.ModulePath == path {
				continue
			}
			err := s.db.Model(&model.Component{}).Where("id = ?", c.ID).Update("module_path", path).Error
			if err != nil {
				return fmt.Errorf("failed to update component %s for node %s: %w", class, nodeID, err)
			}
			continue
		}
		row := model.Component{NodeID: nodeID, ComponentClass: class, ModulePath: path}
		if err := s.db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert component %s for node %s: %w", class, nodeID, err)
		}
	}

	return nil
}
