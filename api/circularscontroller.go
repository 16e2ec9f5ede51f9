package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"rbitracker/orchestrator"
	"rbitracker/storage"
	"rbitracker/types"

	"github.com/gin-gonic/gin"
)

// RegisterCircularRoutes registers ingestion, report, and comparison
// endpoints.
func RegisterCircularRoutes(r *gin.Engine, s *Server) {
	g := r.Group("/api")
	g.POST("/ingest", s.handleIngest)
	g.GET("/status", s.handleStatus)
	g.GET("/reports/:date", s.handleReport)
	g.GET("/circulars", s.handleCirculars)
	g.POST("/compare", s.handleCompare)
}

// IngestRequest selects the date to ingest, as YYYY-MM-DD.
type IngestRequest struct {
	Date string `json:"date" binding:"required"`
}

// handleIngest starts an ingestion run asynchronously and returns 202.
// Only one run may be in flight at a time.
func (s *Server) handleIngest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	if !s.runMu.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "an ingestion run is already in progress"})
		return
	}

	go func() {
		defer s.runMu.Unlock()
		if _, err := s.Pipeline.RunIngestion(context.Background(), date); err != nil {
			log.Printf("Ingestion run for %s failed: %v", req.Date, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "ingestion started", "date": req.Date})
}

// handleStatus returns the state machine snapshot.
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.State.Status())
}

// handleReport returns the cached run report for a date.
func (s *Server) handleReport(c *gin.Context) {
	if s.Reports == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report cache not configured"})
		return
	}

	report, err := s.Reports.Load(c.Request.Context(), c.Param("date"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no report for date"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleCirculars lists stored circulars, optionally filtered by the
// listing date header (e.g. "13 Feb, 2025").
func (s *Server) handleCirculars(c *gin.Context) {
	records, err := s.Store.Query(c.Request.Context(), storage.Filter{
		CircularDate: c.Query("date"),
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "circulars": records})
}

// CompareRequest selects the stored circular to compare by its storage
// key.
type CompareRequest struct {
	SourceDocumentRef string `json:"source_document_ref" binding:"required"`
}

// handleCompare runs the comparison synchronously and returns the
// report. The result is display-only and not persisted.
func (s *Server) handleCompare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_document_ref is required"})
		return
	}

	report, err := s.Pipeline.RunComparison(c.Request.Context(), req.SourceDocumentRef)
	if err != nil {
		c.JSON(compareStatus(err), gin.H{"error": err.Error(), "kind": types.ErrorKind(err)})
		return
	}
	c.JSON(http.StatusOK, report)
}

func compareStatus(err error) int {
	if errors.Is(err, orchestrator.ErrNotStored) {
		return http.StatusNotFound
	}
	switch types.ErrorKind(err) {
	case "corpus_unavailable", "storage_unavailable":
		return http.StatusServiceUnavailable
	case "generation_failure", "schema_violation":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
