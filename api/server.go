// Package api exposes the orchestrator entry points over HTTP for the
// presentation layer.
package api

import (
	"sync"

	"rbitracker/orchestrator"
	"rbitracker/state"
	"rbitracker/storage"

	"github.com/gin-gonic/gin"
)

// Server bundles the components the handlers need.
type Server struct {
	Pipeline *orchestrator.Pipeline
	Store    storage.RecordStore
	State    *state.Manager
	Reports  *orchestrator.ReportCache

	// runMu admits one ingestion run at a time.
	runMu sync.Mutex
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	RegisterCircularRoutes(r, s)
	RegisterHealthRoutes(r)
	return r
}
