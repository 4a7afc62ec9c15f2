package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"bloodlink/middleware"
	"bloodlink/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const leaderboardLimit = 10

// ListDonors searches donors by availability, exact blood type and a
// case-insensitive location fragment
func (h *Handler) ListDonors(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Preload("User")

	if v := c.Query("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			detail(c, http.StatusBadRequest, "available must be true or false")
			return
		}
		query = query.Where("available = ?", available)
	}
	if bt := c.Query("blood_type"); bt != "" {
		query = query.Where("blood_type = ?", bt)
	}

	var donors []models.Donor
	if err := query.Order("created_at asc").Find(&donors).Error; err != nil {
		h.internal(c, "Failed to list donors", err)
		return
	}

	location := strings.ToLower(strings.TrimSpace(c.Query("location")))
	result := []models.DonorProfile{}
	for _, d := range donors {
		if location != "" && !strings.Contains(strings.ToLower(d.User.Location), location) {
			continue
		}
		result = append(result, models.NewDonorProfile(d, d.User))
	}
	c.JSON(http.StatusOK, result)
}

// GetMyDonorProfile returns the caller's donor profile
func (h *Handler) GetMyDonorProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	donor, ok := h.donorFor(c, user.ID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.NewDonorProfile(*donor, *user))
}

func (h *Handler) donorFor(c *gin.Context, userID string) (*models.Donor, bool) {
	var donor models.Donor
	err := h.db.WithContext(c.Request.Context()).Where("user_id = ?", userID).First(&donor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		detail(c, http.StatusNotFound, "Donor profile not found")
		return nil, false
	}
	if err != nil {
		h.internal(c, "Failed to load donor profile", err)
		return nil, false
	}
	return &donor, true
}

// UpdateAvailability sets whether the caller can currently donate
func (h *Handler) UpdateAvailability(c *gin.Context) {
	var req models.AvailabilityUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	result := h.db.WithContext(c.Request.Context()).Model(&models.Donor{}).
		Where("user_id = ?", middleware.GetUserID(c)).
		Update("available", *req.Available)
	if result.Error != nil {
		h.internal(c, "Failed to update availability", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		detail(c, http.StatusNotFound, "Donor profile not found")
		return
	}

	c.JSON(http.StatusOK, models.AvailabilityAck{
		Message:   "Availability updated successfully",
		Available: *req.Available,
	})
}

// Leaderboard ranks the top donors by completed donations
func (h *Handler) Leaderboard(c *gin.Context) {
	var donors []models.Donor
	err := h.db.WithContext(c.Request.Context()).Preload("User").
		Order("total_donations desc").
		Find(&donors).Error
	if err != nil {
		h.internal(c, "Failed to load leaderboard", err)
		return
	}

	sort.SliceStable(donors, func(i, j int) bool {
		if donors[i].TotalDonations != donors[j].TotalDonations {
			return donors[i].TotalDonations > donors[j].TotalDonations
		}
		return donors[i].User.Name < donors[j].User.Name
	})
	if len(donors) > leaderboardLimit {
		donors = donors[:leaderboardLimit]
	}

	entries := make([]models.LeaderboardEntry, 0, len(donors))
	for _, d := range donors {
		achievements := d.Achievements
		if achievements == nil {
			achievements = []string{}
		}
		entries = append(entries, models.LeaderboardEntry{
			ID:             d.ID,
			Name:           d.User.Name,
			BloodType:      d.BloodType,
			TotalDonations: d.TotalDonations,
			Achievements:   achievements,
		})
	}
	c.JSON(http.StatusOK, entries)
}
