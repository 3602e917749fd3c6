package v1

import (
	"net/http"

	"droq_registry/api/v1/admin"
	"droq_registry/api/v1/components"
	"droq_registry/api/v1/nodes"
	"droq_registry/internal/query"
	"droq_registry/internal/reconcile"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "droq-registry-service"
	serviceVersion = "0.1.0"
)

// SetupRouter sets up the API v1 routes
func SetupRouter(r *gin.Engine, q *query.Service, rec *reconcile.Reconciler) {
	r.GET("/", rootHandler)
	r.GET("/health", healthHandler)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/ping", pingHandler)

		// Nodes routes
		nodesHandler := nodes.NewHandler(q)
		nodesGroup := v1.Group("/nodes")
		{
			nodesGroup.GET("", nodesHandler.List)
			nodesGroup.GET("/:node_id", nodesHandler.Get)
		}

		// Component → node resolution
		componentsHandler := components.NewHandler(q)
		v1.GET("/components/:component_class/node", componentsHandler.GetNode)

		// Admin routes
		adminHandler := admin.NewHandler(rec)
		v1.POST("/admin/reconcile", adminHandler.Reconcile)
	}
}

// rootHandler describes the service
func rootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     serviceName,
		"version":     serviceVersion,
		"description": "Registry service for mapping executor nodes to their supported components",
	})
}

// healthHandler reports process liveness
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}

func pingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"pong": true,
	})
}
