package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"bloodlink/middleware"
	"bloodlink/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Register creates a new donor or recipient account
func (h *Handler) Register(c *gin.Context) {
	var req models.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Role != models.RoleDonor && req.Role != models.RoleRecipient {
		detail(c, http.StatusBadRequest, "Invalid role. Must be: donor or recipient")
		return
	}
	if req.BloodType != "" && !req.BloodType.Valid() {
		detail(c, http.StatusBadRequest, "Invalid blood type")
		return
	}

	// Check email uniqueness
	var existing models.User
	err := h.db.WithContext(c.Request.Context()).Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		detail(c, http.StatusBadRequest, "Email already registered")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		h.internal(c, "Failed to look up user", err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internal(c, "Failed to hash password", err)
		return
	}

	user := models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Phone:        req.Phone,
		Location:     req.Location,
		CreatedAt:    h.now().UTC(),
	}
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		// donors without a blood type get no profile until they add one
		if user.Role == models.RoleDonor && req.BloodType != "" {
			donor := models.Donor{
				ID:           uuid.NewString(),
				UserID:       user.ID,
				BloodType:    req.BloodType,
				Available:    true,
				Achievements: []string{},
				CreatedAt:    user.CreatedAt,
			}
			if err := tx.Create(&donor).Error; err != nil {
				return err
			}
		}
		return h.record(tx, models.ActivityOther, user.Name, fmt.Sprintf("New %s registered: %s", user.Role, user.Name))
	})
	if err != nil {
		h.internal(c, "Failed to create user", err)
		return
	}

	h.respondWithToken(c, &user)
}

// Login authenticates a user and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	var user models.User
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; err != nil {
		detail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		detail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	h.respondWithToken(c, &user)
}

func (h *Handler) respondWithToken(c *gin.Context, user *models.User) {
	token, err := h.auth.GenerateToken(user)
	if err != nil {
		h.internal(c, "Failed to generate token", err)
		return
	}
	c.JSON(http.StatusOK, models.AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        *user,
	})
}

// GetProfile returns the authenticated user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}
