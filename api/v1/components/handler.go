package components

import (
	"errors"
	"fmt"

	"droq_registry/internal/dto"
	"droq_registry/internal/httpx"
	"droq_registry/internal/query"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles components API
type Handler struct {
	query *query.Service
}

// NewHandler creates a new components handler
func NewHandler(q *query.Service) *Handler {
	return &Handler{query: q}
}

// GetNode handles GET /api/v1/components/:component_class/node
func (h *Handler) GetNode(c *gin.Context) {
	componentClass := c.Param("component_class")

	cn, err := h.query.FindNodeByComponent(c.Request.Context(), componentClass)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.FailErr(c, httpx.ErrNotFound(
			fmt.Sprintf("Component '%s' not found in any executor node", componentClass)))
		return
	}
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to resolve component", err))
		return
	}

	httpx.OK(c, dto.ComponentNodeResponse{
		Node:       dto.MetadataFromNode(&cn.Node, dto.SupportedClasses(cn.Components)),
		Components: cn.Components,
		ModulePath: cn.ModulePath,
	})
}
