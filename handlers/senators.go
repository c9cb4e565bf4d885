package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handlers) ListSenators(c *gin.Context) {
	state := strings.ToUpper(strings.TrimSpace(c.Query("state")))
	senators, err := h.store.Senators(state)
	if err != nil {
		h.logger.Error("failed to load senators", zap.String("state", state), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, senators)
}
