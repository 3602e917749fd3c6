package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"droq_registry/internal/db"
	"droq_registry/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	gdb, err := db.Open("sqlite", filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close(gdb) })
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return New(gdb)
}

func testNode(nodeID string, status model.NodeStatus) *model.Node {
	return &model.Node{
		NodeID:             nodeID,
		Name:               "Node " + nodeID,
		Description:        "test node",
		DeploymentLocation: model.DeploymentLocal,
		APIURL:             "http://" + nodeID + ":8000",
		Status:             status,
		MetadataJSON:       datatypes.JSON([]byte(`{"node_id":"` + nodeID + `"}`)),
	}
}

func TestUpsertNode(t *testing.T) {
	s := openTestStore(t)

	created, err := s.UpsertNode(testNode("n1", model.NodeStatusActive))
	if err != nil {
		t.Fatalf("UpsertNode failed: %v", err)
	}
	if !created {
		t.Error("First upsert should create the row")
	}

	nw, err := s.GetNode("n1")
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	firstCreatedAt := nw.Node.CreatedAt
	firstUpdatedAt := nw.Node.UpdatedAt

	time.Sleep(10 * time.Millisecond)

	// Identical content: no write, updated_at must not move
	created, err = s.UpsertNode(testNode("n1", model.NodeStatusActive))
	if err != nil {
		t.Fatalf("UpsertNode failed: %v", err)
	}
	if created {
		t.Error("Second upsert should not report created")
	}

	nw, err = s.GetNode("n1")
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	if !nw.Node.UpdatedAt.Equal(firstUpdatedAt) {
		t.Error("updated_at must not change when content is unchanged")
	}

	time.Sleep(10 * time.Millisecond)

	// Changed content: updated_at moves, created_at does not
	changed := testNode("n1", model.NodeStatusInactive)
	if _, err := s.UpsertNode(changed); err != nil {
		t.Fatalf("UpsertNode failed: %v", err)
	}

	nw, err = s.GetNode("n1")
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	if nw.Node.Status != model.NodeStatusInactive {
		t.Errorf("Expected status inactive, got %s", nw.Node.Status)
	}
	if !nw.Node.CreatedAt.Equal(firstCreatedAt) {
		t.Error("created_at must never change after first insert")
	}
	if !nw.Node.UpdatedAt.After(firstUpdatedAt) {
		t.Error("updated_at should move when content changed")
	}
}

func TestReplaceComponents(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.UpsertNode(testNode("n1", model.NodeStatusActive)); err != nil {
		t.Fatalf("UpsertNode failed: %v", err)
	}

	if err := s.ReplaceComponents("n1", map[string]string{"Add": "m.add", "Sub": "m.sub"}); err != nil {
		t.Fatalf("ReplaceComponents failed: %v", err)
	}

	nw, err := s.GetNode("n1")
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	if len(nw.Components) != 2 || nw.Components["Add"] != "m.add" {
		t.Errorf("Unexpected mapping: %v", nw.Components)
	}

	var addRow model.Component
	if err := s.db.Where("node_id = ? AND component_class = ?", "n1", "Add").First(&addRow).Error; err != nil {
		t.Fatalf("failed to load component row: %v", err)
	}
	addCreatedAt := addRow.CreatedAt

	time.Sleep(10 * time.Millisecond)

	// Drop Sub, keep Add, add Mul
	if err := s.ReplaceComponents("n1", map[string]string{"Add": "m.add", "Mul": "m.mul"}); err != nil {
		t.Fatalf("ReplaceComponents failed: %v", err)
	}

	nw, err = s.GetNode("n1")
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	if len(nw.Components) != 2 {
		t.Fatalf("Expected 2 components, got %v", nw.Components)
	}
	if _, ok := nw.Components["Sub"]; ok {
		t.Error("Sub should have been deleted")
	}
	if nw.Components["Mul"] != "m.mul" {
		t.Error("Mul should have been inserted")
	}

	// Unchanged row keeps its created_at
	if err := s.db.Where("node_id = ? AND component_class = ?", "n1", "Add").First(&addRow).Error; err != nil {
		t.Fatalf("failed to reload component row: %v", err)
	}
	if !addRow.CreatedAt.Equal(addCreatedAt) {
		t.Error("Unchanged component row must keep its created_at")
	}

	// Module path change updates in place
	if err := s.ReplaceComponents("n1", map[string]string{"Add": "m.add_v2", "Mul": "m.mul"}); err != nil {
		t.Fatalf("ReplaceComponents failed: %v", err)
	}
	nw, _ = s.GetNode("n1")
	if nw.Components["Add"] != "m.add_v2" {
		t.Errorf("Expected updated module path, got %s", nw.Components["Add"])
	}
}

func TestGetNode_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetNode("does-not-exist")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("Expected gorm.ErrRecordNotFound, got %v", err)
	}
}

func TestListActiveNodes(t *testing.T) {
	s := openTestStore(t)

	for _, n := range []*model.Node{
		testNode("n1", model.NodeStatusActive),
		testNode("n2", model.NodeStatusInactive),
		testNode("n3", model.NodeStatusDeploying),
		testNode("n4", model.NodeStatusActive),
	} {
		if _, err := s.UpsertNode(n); err != nil {
			t.Fatalf("UpsertNode failed: %v", err)
		}
	}
	if err := s.ReplaceComponents("n1", map[string]string{"Add": "m.add", "Sub": "m.sub"}); err != nil {
		t.Fatalf("ReplaceComponents failed: %v", err)
	}

	active, err := s.ListActiveNodes()
	if err != nil {
		t.Fatalf("ListActiveNodes failed: %v", err)
	}

	if len(active) != 2 {
		t.Fatalf("Expected 2 active nodes, got %d", len(active))
	}
	if active[0].Node.NodeID != "n1" || active[1].Node.NodeID != "n4" {
		t.Errorf("Expected n1, n4 in order, got %s, %s", active[0].Node.NodeID, active[1].Node.NodeID)
	}
	if len(active[0].SupportedComponents) != 2 {
		t.Errorf("Expected 2 supported components for n1, got %v", active[0].SupportedComponents)
	}
	if len(active[1].SupportedComponents) != 0 {
		t.Errorf("Expected no components for n4, got %v", active[1].SupportedComponents)
	}
}

func TestFindNodeByComponent(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.UpsertNode(testNode("n1", model.NodeStatusActive)); err != nil {
		t.Fatalf("UpsertNode failed: %v", err)
	}
	if err := s.ReplaceComponents("n1", map[string]string{"Add": "m.add", "Sub": "m.sub"}); err != nil {
		t.Fatalf("ReplaceComponents failed: %v", err)
	}

	cn, err := s.FindNodeByComponent("Add")
	if err != nil {
		t.Fatalf("FindNodeByComponent failed: %v", err)
	}
	if cn.Node.NodeID != "n1" {
		t.Errorf("Expected n1, got %s", cn.Node.NodeID)
	}
	if cn.ModulePath != "m.add" {
		t.Errorf("Expected module path m.add, got %s", cn.ModulePath)
	}
	if len(cn.Components) != 2 {
		t.Errorf("Expected full mapping, got %v", cn.Components)
	}
}

func TestFindNodeByComponent_InactiveOwnerNotEligible(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.UpsertNode(testNode("n1", model.NodeStatusInactive)); err != nil {
		t.Fatalf("UpsertNode failed: %v", err)
	}
	if err := s.ReplaceComponents("n1", map[string]string{"Add": "m.add"}); err != nil {
		t.Fatalf("ReplaceComponents failed: %v", err)
	}

	_, err := s.FindNodeByComponent("Add")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("Inactive owner must not resolve, got %v", err)
	}
}

func TestFindNodeByComponent_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.FindNodeByComponent("NoSuchClass")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("Expected gorm.ErrRecordNotFound, got %v", err)
	}
}

func TestFindNodeByComponent_LowestNodeIDWins(t *testing.T) {
	s := openTestStore(t)

	// Two active owners can exist when rows persist across runs; the
	// lookup must still resolve deterministically.
	for _, id := range []string{"node-b", "node-a"} {
		if _, err := s.UpsertNode(testNode(id, model.NodeStatusActive)); err != nil {
			t.Fatalf("UpsertNode failed: %v", err)
		}
		if err := s.ReplaceComponents(id, map[string]string{"Foo": id + ".foo"}); err != nil {
			t.Fatalf("ReplaceComponents failed: %v", err)
		}
	}

	cn, err := s.FindNodeByComponent("Foo")
	if err != nil {
		t.Fatalf("FindNodeByComponent failed: %v", err)
	}
	if cn.Node.NodeID != "node-a" {
		t.Errorf("Expected node-a to win, got %s", cn.Node.NodeID)
	}
	if cn.ModulePath != "node-a.foo" {
		t.Errorf("Expected node-a.foo, got %s", cn.ModulePath)
	}
}

func TestTx_RollsBackTogether(t *testing.T) {
	s := openTestStore(t)

	err := s.Tx(func(tx *Store) error {
		if _, err := tx.UpsertNode(testNode("n1", model.NodeStatusActive)); err != nil {
			return err
		}
		if err := tx.ReplaceComponents("n1", map[string]string{"Add": "m.add"}); err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("Expected transaction error")
	}

	if _, err := s.GetNode("n1"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("Node row should have rolled back, got %v", err)
	}
}
