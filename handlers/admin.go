package handlers

import (
	"net/http"

	"bloodlink/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const activityLimit = 50

// GetStats returns platform-wide counters (admin only)
func (h *Handler) GetStats(c *gin.Context) {
	db := h.db.WithContext(c.Request.Context())
	var (
		totalDonors, availableDonors, totalDonations      int64
		totalRequests, pendingRequests, completedRequests int64
		emergencyRequests                                 int64
	)

	queries := []*gorm.DB{
		db.Model(&models.Donor{}).Count(&totalDonors),
		db.Model(&models.Donor{}).Where("available = ?", true).Count(&availableDonors),
		db.Model(&models.Donor{}).Select("COALESCE(SUM(total_donations), 0)").Scan(&totalDonations),
		db.Model(&models.BloodRequest{}).Count(&totalRequests),
		db.Model(&models.BloodRequest{}).Where("status = ?", models.StatusPending).Count(&pendingRequests),
		db.Model(&models.BloodRequest{}).Where("status = ?", models.StatusCompleted).Count(&completedRequests),
		db.Model(&models.BloodRequest{}).
			Where("status = ? AND is_emergency = ?", models.StatusPending, true).
			Count(&emergencyRequests),
	}
	for _, q := range queries {
		if q.Error != nil {
			h.internal(c, "Failed to compute stats", q.Error)
			return
		}
	}

	distribution := []models.BloodTypeCount{}
	err := db.Model(&models.Donor{}).
		Select("blood_type, COUNT(*) AS count").
		Group("blood_type").
		Order("count desc, blood_type asc").
		Scan(&distribution).Error
	if err != nil {
		h.internal(c, "Failed to compute stats", err)
		return
	}

	c.JSON(http.StatusOK, models.Stats{
		TotalDonors:           int(totalDonors),
		AvailableDonors:       int(availableDonors),
		TotalRequests:         int(totalRequests),
		PendingRequests:       int(pendingRequests),
		CompletedRequests:     int(completedRequests),
		TotalDonations:        int(totalDonations),
		EmergencyRequests:     int(emergencyRequests),
		BloodTypeDistribution: distribution,
	})
}

// GetActivities returns the most recent activity feed entries (admin only)
func (h *Handler) GetActivities(c *gin.Context) {
	activities := []models.Activity{}
	err := h.db.WithContext(c.Request.Context()).
		Order("timestamp desc").
		Limit(activityLimit).
		Find(&activities).Error
	if err != nil {
		h.internal(c, "Failed to load activities", err)
		return
	}
	c.JSON(http.StatusOK, activities)
}
