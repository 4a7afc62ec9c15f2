package handlers

import (
	"net/http"
	"time"

	"bloodlink/middleware"
	"bloodlink/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler serves the /api routes.
type Handler struct {
	db     *gorm.DB
	auth   *middleware.Auth
	logger *zap.Logger
	now    func() time.Time
}

func New(db *gorm.DB, auth *middleware.Auth, logger *zap.Logger) *Handler {
	return &Handler{db: db, auth: auth, logger: logger, now: time.Now}
}

func detail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"detail": msg})
}

// internal logs err and answers 500 with msg
func (h *Handler) internal(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, zap.Error(err), zap.String("path", c.FullPath()))
	detail(c, http.StatusInternalServerError, msg)
}

// record appends an entry to the activity feed inside tx
func (h *Handler) record(tx *gorm.DB, typ models.ActivityType, userName, message string) error {
	return tx.Create(&models.Activity{
		ID:        uuid.NewString(),
		Type:      typ,
		Message:   message,
		UserName:  userName,
		Timestamp: h.now().UTC(),
	}).Error
}
