package handlers

import (
	"net/http"

	"bloodlink/models"
	"bloodlink/statemachine"

	"github.com/gin-gonic/gin"
)

// Health reports liveness and database reachability
func (h *Handler) Health(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":  status,
		"service": "BloodLink API",
		"version": "1.0.0",
	})
}

// GetStateMachineInfo returns the blood request lifecycle for informational purposes
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	transitions := statemachine.GetAllTransitions()
	info := make([]gin.H, 0, len(transitions))
	for _, t := range transitions {
		info = append(info, gin.H{"from": t.From, "to": t.To, "actor": t.Actor})
	}

	var terminal []models.RequestStatus
	for _, s := range []models.RequestStatus{models.StatusPending, models.StatusAccepted, models.StatusCompleted, models.StatusCancelled} {
		if statemachine.IsTerminal(s) {
			terminal = append(terminal, s)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   info,
		"terminal_states": terminal,
		"description":     "Blood Request Lifecycle State Machine",
	})
}
