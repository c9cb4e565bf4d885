package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StatusData struct {
	RollCalls   int64      `json:"rollcalls"`
	Senators    int        `json:"senators"`
	LastUpdated *time.Time `json:"last_updated"`
	LastRunID   string     `json:"last_run_id,omitempty"`
	LastNew     int        `json:"last_new_count"`
}

func (h *Handlers) GetStatus(c *gin.Context) {
	var stats StatusData

	total, err := h.store.CountRollCalls()
	if err != nil {
		h.logger.Error("failed to count roll calls", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	stats.RollCalls = total

	senators, err := h.store.Senators("")
	if err != nil {
		h.logger.Error("failed to load senators", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	stats.Senators = len(senators)

	entry, err := h.store.LastUpdated()
	if err != nil {
		h.logger.Error("failed to read update log", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if entry != nil {
		stats.LastUpdated = &entry.LastUpdated
		stats.LastRunID = entry.RunID
		stats.LastNew = entry.NewCount
	}

	c.JSON(http.StatusOK, stats)
}
