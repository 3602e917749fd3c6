package admin

import (
	"droq_registry/internal/httpx"
	"droq_registry/internal/reconcile"

	"github.com/gin-gonic/gin"
)

// Handler handles admin API
type Handler struct {
	reconciler *reconcile.Reconciler
}

// NewHandler creates a new admin handler
func NewHandler(r *reconcile.Reconciler) *Handler {
	return &Handler{reconciler: r}
}

// Reconcile handles POST /api/v1/admin/reconcile. It re-runs the
// descriptor reconciliation and returns the run report. Runs serialize
// behind the reconciler's lock.
func (h *Handler) Reconcile(c *gin.Context) {
	report, err := h.reconciler.Run()
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("reconciliation failed", err))
		return
	}

	httpx.OK(c, report)
}
