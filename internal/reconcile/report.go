package reconcile

import "time"

// Conflict records a component class claimed by two nodes in one run.
// The earlier node (ascending node_id) keeps the class.
type Conflict struct {
	ComponentClass string `json:"component_class"`
	OwnerNodeID    string `json:"owner_node_id"`
	RejectedNodeID string `json:"rejected_node_id"`
}

// SkippedDescriptor records a descriptor file that failed validation
type SkippedDescriptor struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// FailedNode records a descriptor whose store transaction failed and
// was rolled back.
type FailedNode struct {
	NodeID string `json:"node_id"`
	Error  string `json:"error"`
}

// Report aggregates the outcome of one reconciliation run
type Report struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Created    int                 `json:"created"`
	Applied    []string            `json:"applied"`
	Skipped    []SkippedDescriptor `json:"skipped"`
	Conflicts  []Conflict          `json:"conflicts"`
	Failed     []FailedNode        `json:"failed"`
}
