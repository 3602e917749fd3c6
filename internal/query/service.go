package query

import (
	"context"
	"encoding/json"
	"fmt"

	"droq_registry/internal/cache"
	"droq_registry/internal/store"

	"github.com/sirupsen/logrus"
)

// Service is the read-only facade over the store. It holds no state of
// its own; the optional cache only shortcuts the component lookup.
type Service struct {
	store  *store.Store
	cache  *cache.Cache // optional
	logger *logrus.Entry
}

// New creates a query Service
func New(st *store.Store, c *cache.Cache, logger *logrus.Entry) *Service {
	return &Service{
		store:  st,
		cache:  c,
		logger: logger.WithField("component", "query-service"),
	}
}

// ListActiveNodes returns all active nodes with their component class names
func (s *Service) ListActiveNodes() ([]store.ActiveNode, error) {
	return s.store.ListActiveNodes()
}

// GetNode returns a node of any status with its full component mapping.
// A caller naming a node by id wants it whether or not it is active.
func (s *Service) GetNode(nodeID string) (*store.NodeWithComponents, error) {
	return s.store.GetNode(nodeID)
}

// FindNodeByComponent resolves a component class to its owning active
// node. Not-found passes through as gorm.ErrRecordNotFound and is never
// cached.
func (s *Service) FindNodeByComponent(ctx context.Context, componentClass string) (*store.ComponentNode, error) {
	var key string
	if s.cache != nil {
		key = componentNodeKey(s.cache.Generation(ctx), componentClass)
		if data, ok := s.cache.Get(ctx, key); ok {
			var cn store.ComponentNode
			if err := json.Unmarshal(data, &cn); err == nil {
				return &cn, nil
			}
			s.logger.Warnf("Dropping undecodable cache entry for component %s", componentClass)
		}
	}

	cn, err := s.store.FindNodeByComponent(componentClass)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(cn); err == nil {
			s.cache.Set(ctx, key, data)
		}
	}

	return cn, nil
}

func componentNodeKey(generation int64, componentClass string) string {
	return fmt.Sprintf("registry:component_node:%d:%s", generation, componentClass)
}
