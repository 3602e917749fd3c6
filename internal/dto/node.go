package dto

import (
	"encoding/json"
	"sort"

	"droq_registry/internal/model"
)

// NodeMetadata is the descriptor-facing view of a node in API responses
type NodeMetadata struct {
	NodeID              string   `json:"node_id"`
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	SourceCodeLocation  string   `json:"source_code_location,omitempty"`
	DockerImage         string   `json:"docker_image,omitempty"`
	DeploymentLocation  string   `json:"deployment_location"`
	APIURL              string   `json:"api_url,omitempty"`
	IPAddress           string   `json:"ip_address,omitempty"`
	Status              string   `json:"status"`
	SupportedComponents []string `json:"supported_components"`
}

// NodeInfo represents one entry in the nodes listing
type NodeInfo struct {
	Metadata        NodeMetadata `json:"metadata"`
	ComponentsCount int          `json:"components_count"`
}

// NodesListResponse is the body of GET /api/v1/nodes
type NodesListResponse struct {
	Nodes      []NodeInfo `json:"nodes"`
	TotalNodes int        `json:"total_nodes"`
}

// NodeResponse is the body of GET /api/v1/nodes/{node_id}
type NodeResponse struct {
	Node       NodeMetadata      `json:"node"`
	Components map[string]string `json:"components"`
}

// ComponentNodeResponse is the body of GET /api/v1/components/{component_class}/node
type ComponentNodeResponse struct {
	Node       NodeMetadata      `json:"node"`
	Components map[string]string `json:"components"`
	ModulePath string            `json:"module_path"`
}

// MetadataFromNode builds the API metadata view from a stored node row
func MetadataFromNode(n *model.Node, supported []string) NodeMetadata {
	if supported == nil {
		supported = []string{}
	}

	md := NodeMetadata{
		NodeID:              n.NodeID,
		Name:                n.Name,
		Description:         n.Description,
		SourceCodeLocation:  n.SourceCodeLocation,
		DockerImage:         n.DockerImage,
		DeploymentLocation:  string(n.DeploymentLocation),
		APIURL:              n.APIURL,
		Status:              string(n.Status),
		SupportedComponents: supported,
	}

	// ip_address is not a typed column; recover it from the preserved
	// descriptor payload.
	if len(n.MetadataJSON) > 0 {
		var raw struct {
			IPAddress string `json:"ip_address"`
		}
		if err := json.Unmarshal(n.MetadataJSON, &raw); err == nil {
			md.IPAddress = raw.IPAddress
		}
	}

	return md
}

// SupportedClasses returns the sorted component class names of a mapping
func SupportedClasses(components map[string]string) []string {
	classes := make([]string, 0, len(components))
	for class := range components {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}
