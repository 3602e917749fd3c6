package nodes

import (
	"errors"
	"fmt"

	"droq_registry/internal/dto"
	"droq_registry/internal/httpx"
	"droq_registry/internal/query"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles nodes API
type Handler struct {
	query *query.Service
}

// NewHandler creates a new nodes handler
func NewHandler(q *query.Service) *Handler {
	return &Handler{query: q}
}

// List handles GET /api/v1/nodes
func (h *Handler) List(c *gin.Context) {
	active, err := h.query.ListActiveNodes()
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to list nodes", err))
		return
	}

	resp := dto.NodesListResponse{Nodes: make([]dto.NodeInfo, 0, len(active))}
	for i := range active {
		resp.Nodes = append(resp.Nodes, dto.NodeInfo{
			Metadata:        dto.MetadataFromNode(&active[i].Node, active[i].SupportedComponents),
			ComponentsCount: len(active[i].SupportedComponents),
		})
	}
	resp.TotalNodes = len(resp.Nodes)

	httpx.OK(c, resp)
}

// Get handles GET /api/v1/nodes/:node_id
func (h *Handler) Get(c *gin.Context) {
	nodeID := c.Param("node_id")

	nw, err := h.query.GetNode(nodeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.FailErr(c, httpx.ErrNotFound(fmt.Sprintf("Node '%s' not found in registry", nodeID)))
		return
	}
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to load node", err))
		return
	}

	httpx.OK(c, dto.NodeResponse{
		Node:       dto.MetadataFromNode(&nw.Node, dto.SupportedClasses(nw.Components)),
		Components: nw.Components,
	})
}
