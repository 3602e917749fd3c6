package reconcile

import (
	"context"
	"sort"
	"sync"
	"time"

	"droq_registry/internal/cache"
	"droq_registry/internal/descriptor"
	"droq_registry/internal/model"
	"droq_registry/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Reconciler applies descriptor batches to the store. Runs are
// serialized: the startup run and any admin re-trigger never overlap.
type Reconciler struct {
	mu     sync.Mutex
	source descriptor.Source
	store  *store.Store
	cache  *cache.Cache
	logger *logrus.Entry
}

// Config holds the dependencies for a Reconciler
type Config struct {
	Source descriptor.Source
	Store  *store.Store
	Cache  *cache.Cache // optional
	Logger *logrus.Entry
}

// New creates a Reconciler
func New(cfg *Config) *Reconciler {
	return &Reconciler{
		source: cfg.Source,
		store:  cfg.Store,
		cache:  cfg.Cache,
		logger: cfg.Logger.WithField("component", "reconciler"),
	}
}

// Run loads one descriptor batch and synchronizes the store with it.
// Invalid descriptors are skipped, store failures roll back only the
// node they hit, and cross-node component claims resolve
// first-writer-wins in ascending node_id order. The only error returned
// is a failure to load the batch at all.
func (r *Reconciler) Run() (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Applied:   []string{},
		Skipped:   []SkippedDescriptor{},
		Conflicts: []Conflict{},
		Failed:    []FailedNode{},
	}

	results, err := r.source.Load()
	if err != nil {
		return nil, err
	}

	var valid []*descriptor.Descriptor
	for _, res := range results {
		if res.Invalid != nil {
			r.logger.Warnf("Skipping descriptor %s: %v", res.File, res.Invalid)
			report.Skipped = append(report.Skipped, SkippedDescriptor{
				File:   res.File,
				Reason: res.Invalid.Error(),
			})
			continue
		}
		valid = append(valid, res.Descriptor)
	}

	// Deterministic apply order so conflict resolution is reproducible
	// regardless of file system enumeration order.
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].NodeID < valid[j].NodeID })

	claims := make(map[string]string) // component_class -> owning node_id, this run
	for _, d := range valid {
		mapping, conflicts := filterClaims(d, claims)

		created := false
		err := r.store.Tx(func(tx *store.Store) error {
			var err error
			if created, err = tx.UpsertNode(nodeFromDescriptor(d)); err != nil {
				return err
			}
			return tx.ReplaceComponents(d.NodeID, mapping)
		})
		if err != nil {
			r.logger.Errorf("Failed to reconcile node %s: %v", d.NodeID, err)
			report.Failed = append(report.Failed, FailedNode{NodeID: d.NodeID, Error: err.Error()})
			continue
		}

		// Claims stick only once the node's transaction committed.
		for class := range mapping {
			claims[class] = d.NodeID
		}
		report.Conflicts = append(report.Conflicts, conflicts...)
		report.Applied = append(report.Applied, d.NodeID)
		if created {
			report.Created++
		}
	}

	report.FinishedAt = time.Now()

	if r.cache != nil {
		if err := r.cache.BumpGeneration(context.Background()); err != nil {
			r.logger.Warnf("Failed to invalidate query cache: %v", err)
		}
	}

	r.logger.WithFields(logrus.Fields{
		"run_id":    report.RunID,
		"applied":   len(report.Applied),
		"created":   report.Created,
		"skipped":   len(report.Skipped),
		"conflicts": len(report.Conflicts),
		"failed":    len(report.Failed),
	}).Info("Reconciliation run completed")

	return report, nil
}

// filterClaims drops every component class already claimed by a
// different node earlier in this run. The node's remaining mapping
// proceeds normally.
func filterClaims(d *descriptor.Descriptor, claims map[string]string) (map[string]string, []Conflict) {
	mapping := make(map[string]string, len(d.Components))
	var conflicts []Conflict
	for class, path := range d.Components {
		if owner, ok := claims[class]; ok && owner != d.NodeID {
			conflicts = append(conflicts, Conflict{
				ComponentClass: class,
				OwnerNodeID:    owner,
				RejectedNodeID: d.NodeID,
			})
			continue
		}
		mapping[class] = path
	}
	return mapping, conflicts
}

func nodeFromDescriptor(d *descriptor.Descriptor) *model.Node {
	return &model.Node{
		NodeID:             d.NodeID,
		Name:               d.Name,
		Description:        d.Description,
		SourceCodeLocation: d.SourceCodeLocation,
		DockerImage:        d.DockerImage,
		DeploymentLocation: model.DeploymentLocation(d.DeploymentLocation),
		APIURL:             d.APIURL,
		Status:             model.NodeStatus(d.Status),
		MetadataJSON:       datatypes.JSON(d.Raw),
	}
}
