package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"bloodlink/middleware"
	"bloodlink/models"
	"bloodlink/statemachine"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListBloodRequests returns requests scoped by the caller's role: donors see
// requests naming them plus pending ones for their blood type, recipients
// their own, admins everything. Newest first.
func (h *Handler) ListBloodRequests(c *gin.Context) {
	user := middleware.CurrentUser(c)
	query := h.db.WithContext(c.Request.Context()).Order("created_at desc")

	switch user.Role {
	case models.RoleDonor:
		var donor models.Donor
		err := h.db.WithContext(c.Request.Context()).Where("user_id = ?", user.ID).First(&donor).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, []models.BloodRequest{})
			return
		}
		if err != nil {
			h.internal(c, "Failed to load donor profile", err)
			return
		}
		// requests targeted at another donor are theirs alone
		query = query.Where("donor_id = ? OR (donor_id IS NULL AND blood_type = ? AND status = ?)",
			donor.ID, donor.BloodType, models.StatusPending)
	case models.RoleRecipient:
		query = query.Where("recipient_id = ?", user.ID)
	}

	requests := []models.BloodRequest{}
	if err := query.Find(&requests).Error; err != nil {
		h.internal(c, "Failed to list blood requests", err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

// CreateBloodRequest files a new request, optionally targeted at one donor
func (h *Handler) CreateBloodRequest(c *gin.Context) {
	var req models.BloodRequestCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}
	if !req.BloodType.Valid() {
		detail(c, http.StatusBadRequest, "Invalid blood type")
		return
	}
	if !req.Urgency.Valid() {
		detail(c, http.StatusBadRequest, "Invalid urgency. Must be: low, medium, high, or critical")
		return
	}

	user := middleware.CurrentUser(c)
	now := h.now().UTC()
	request := models.BloodRequest{
		ID:             uuid.NewString(),
		RecipientID:    user.ID,
		RecipientName:  user.Name,
		RecipientPhone: user.Phone,
		BloodType:      req.BloodType,
		Location:       req.Location,
		Urgency:        req.Urgency,
		Status:         models.StatusPending,
		Message:        req.Message,
		IsEmergency:    req.Urgency == models.UrgencyCritical,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if req.DonorID != nil && *req.DonorID != "" {
		donorID := *req.DonorID
		request.DonorID = &donorID
		var donor models.Donor
		// an unknown donor keeps the id without a name
		if err := h.db.WithContext(c.Request.Context()).Preload("User").First(&donor, "id = ?", donorID).Error; err == nil {
			name := donor.User.Name
			request.DonorName = &name
		}
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&request).Error; err != nil {
			return err
		}
		msg := fmt.Sprintf("%s requested %s blood in %s", user.Name, request.BloodType, request.Location)
		if request.IsEmergency {
			msg = "EMERGENCY: " + msg
		}
		return h.record(tx, models.ActivityRequest, user.Name, msg)
	})
	if err != nil {
		h.internal(c, "Failed to create blood request", err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// UpdateBloodRequestStatus moves a request through its lifecycle
func (h *Handler) UpdateBloodRequestStatus(c *gin.Context) {
	var req models.StatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Status.Valid() {
		detail(c, http.StatusBadRequest, "Invalid status. Must be: pending, accepted, completed, or cancelled")
		return
	}

	user := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	var request models.BloodRequest
	err := h.db.WithContext(ctx).First(&request, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		detail(c, http.StatusNotFound, "Request not found")
		return
	}
	if err != nil {
		h.internal(c, "Failed to load blood request", err)
		return
	}

	var donor *models.Donor
	switch user.Role {
	case models.RoleRecipient:
		if request.RecipientID != user.ID {
			detail(c, http.StatusForbidden, "Not authorized to update this request")
			return
		}
	case models.RoleDonor:
		d, ok := h.donorFor(c, user.ID)
		if !ok {
			return
		}
		if request.DonorID != nil && *request.DonorID != d.ID {
			detail(c, http.StatusForbidden, "This request is assigned to another donor")
			return
		}
		donor = d
	}

	if err := statemachine.CanTransition(request.Status, req.Status, user.Role); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"detail":            err.Error(),
			"current_status":    request.Status,
			"requested":         req.Status,
			"valid_next_states": statemachine.ValidTransitionsFrom(request.Status),
		})
		return
	}

	prevStatus := request.Status
	now := h.now().UTC()
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request.Status = req.Status
		request.UpdatedAt = now
		if donor != nil && request.DonorID == nil {
			// a donor accepting a general request becomes its donor
			donorID := donor.ID
			donorName := user.Name
			request.DonorID = &donorID
			request.DonorName = &donorName
		}
		if err := tx.Save(&request).Error; err != nil {
			return err
		}

		if req.Status != models.StatusCompleted || request.DonorID == nil {
			return h.record(tx, models.ActivityRequest, user.Name,
				fmt.Sprintf("Request for %s in %s moved from %s to %s", request.BloodType, request.Location, prevStatus, req.Status))
		}

		var credited models.Donor
		if err := tx.First(&credited, "id = ?", *request.DonorID).Error; err != nil {
			return err
		}
		credited.RecordDonation(now)
		if err := tx.Model(&credited).Select("total_donations", "last_donation_date", "achievements").Updates(&credited).Error; err != nil {
			return err
		}
		donorName := user.Name
		if request.DonorName != nil {
			donorName = *request.DonorName
		}
		return h.record(tx, models.ActivityDonation, donorName,
			fmt.Sprintf("%s donated %s blood to %s", donorName, request.BloodType, request.RecipientName))
	})
	if err != nil {
		h.internal(c, "Failed to update blood request", err)
		return
	}
	c.JSON(http.StatusOK, request)
}
