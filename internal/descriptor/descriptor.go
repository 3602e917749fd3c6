package descriptor

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Descriptor is one node descriptor document. A descriptor declares a
// node's metadata and the component classes it can execute.
type Descriptor struct {
	NodeID             string            `json:"node_id"`
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	Version            string            `json:"version,omitempty"`
	SourceCodeLocation string            `json:"source_code_location,omitempty"`
	DockerImage        string            `json:"docker_image,omitempty"`
	DeploymentLocation string            `json:"deployment_location,omitempty"`
	APIURL             string            `json:"api_url"`
	IPAddress          string            `json:"ip_address,omitempty"`
	Status             string            `json:"status,omitempty"`
	Author             string            `json:"author,omitempty"`
	Components         map[string]string `json:"components"`

	// Raw is the original document, kept verbatim for the node's
	// metadata_json column.
	Raw json.RawMessage `json:"-"`
}

// ValidationError reports a descriptor file that failed validation.
// Either Fields names the missing/malformed fields, or Err carries the
// underlying read/parse error.
type ValidationError struct {
	File   string
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("descriptor %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("descriptor %s: missing or malformed fields: %s", e.File, strings.Join(e.Fields, ", "))
}

// Result is the outcome of parsing one descriptor file. Exactly one of
// Descriptor and Invalid is set.
type Result struct {
	File       string
	Descriptor *Descriptor
	Invalid    *ValidationError
}

// Parse parses and validates one descriptor document
func Parse(file string, data []byte) Result {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return Result{File: file, Invalid: &ValidationError{File: file, Err: err}}
	}

	// The components key is required even when the mapping is empty, so
	// probe the raw document to tell "absent" apart from "empty".
	var probe map[string]json.RawMessage
	_ = json.Unmarshal(data, &probe)

	var bad []string
	if d.NodeID == "" {
		bad = append(bad, "node_id")
	}
	if d.Name == "" {
		bad = append(bad, "name")
	}
	if d.Description == "" {
		bad = append(bad, "description")
	}
	if d.APIURL == "" {
		bad = append(bad, "api_url")
	}
	if _, ok := probe["components"]; !ok {
		bad = append(bad, "components")
	}
	switch d.DeploymentLocation {
	case "", "local", "cloud", "k8s":
	default:
		bad = append(bad, "deployment_location")
	}
	switch d.Status {
	case "", "active", "inactive", "deploying":
	default:
		bad = append(bad, "status")
	}
	if len(bad) > 0 {
		return Result{File: file, Invalid: &ValidationError{File: file, Fields: bad}}
	}

	if d.DeploymentLocation == "" {
		d.DeploymentLocation = "local"
	}
	if d.Status == "" {
		d.Status = "active"
	}
	if d.Components == nil {
		d.Components = map[string]string{}
	}
	d.Raw = json.RawMessage(data)

	return Result{File: file, Descriptor: &d}
}
