package server

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nwafound/ramp-bc-export/internal/exporter"
	"github.com/nwafound/ramp-bc-export/internal/ramp"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleAvailability reports which Ramp endpoints the granted OAuth scopes
// can reach.
func (s *Server) handleAvailability(c *gin.Context) {
	if err := s.client.EnsureToken(c.Request.Context()); err != nil {
		s.logger.Error("Authentication failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "authentication with Ramp failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"endpoints": s.client.CheckAvailableEndpoints(c.Request.Context()),
	})
}

type exportRequest struct {
	Type       string `json:"type"`
	All        bool   `json:"all"`
	Period     string `json:"period"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	MarkSynced bool   `json:"mark_synced"`
}

// handleExport runs one export batch with the same semantics as the CLI
// export command and returns the per-type summary.
func (s *Server) handleExport(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	opts := exporter.Options{
		All:        req.All,
		Start:      req.StartDate,
		End:        req.EndDate,
		MarkSynced: req.MarkSynced,
	}

	if req.Type != "" {
		rt, err := ramp.ParseResourceType(req.Type)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts.Type = rt
	}

	if req.Period != "" {
		period, err := exporter.ParsePeriod(req.Period)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts.Period = period
	}

	if err := s.client.EnsureToken(c.Request.Context()); err != nil {
		s.logger.Error("Authentication failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "authentication with Ramp failed"})
		return
	}

	summary, err := s.runner.Run(c.Request.Context(), opts)
	if err != nil {
		s.logger.Error("Export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// handleDownload serves a produced export file by name. The name is
// flattened to its base so the lookup cannot escape the export directory.
func (s *Server) handleDownload(c *gin.Context) {
	name := filepath.Base(c.Param("name"))
	if name == "." || name == "/" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file name"})
		return
	}

	path := filepath.Join(s.cfg.Export.OutputDir, name)
	c.FileAttachment(path, name)
}
