package models

import "time"

// RequestStatus represents all possible states of a blood request
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusAccepted  RequestStatus = "accepted"
	StatusCompleted RequestStatus = "completed"
	StatusCancelled RequestStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Urgency of a blood request as chosen by the recipient.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

type BloodRequest struct {
	ID             string        `json:"id" gorm:"primaryKey"`
	RecipientID    string        `json:"recipient_id" gorm:"index;not null"`
	RecipientName  string        `json:"recipient_name"`
	RecipientPhone string        `json:"recipient_phone"`
	DonorID        *string       `json:"donor_id" gorm:"index"`
	DonorName      *string       `json:"donor_name"`
	BloodType      BloodType     `json:"blood_type" gorm:"index;not null"`
	Location       string        `json:"location"`
	Urgency        Urgency       `json:"urgency" gorm:"not null"`
	Status         RequestStatus `json:"status" gorm:"index;not null;default:'pending'"`
	Message        string        `json:"message,omitempty"`
	IsEmergency    bool          `json:"is_emergency"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// IsTargetedAt reports whether the request names donorID as its donor.
func (r BloodRequest) IsTargetedAt(donorID string) bool {
	return r.DonorID != nil && *r.DonorID == donorID
}

// BloodRequestCreate is the body of POST /blood-requests. DonorID is serialized
// as null for a general request.
type BloodRequestCreate struct {
	BloodType BloodType `json:"blood_type" binding:"required" validate:"required,bloodtype"`
	Location  string    `json:"location" binding:"required" validate:"required"`
	Urgency   Urgency   `json:"urgency" binding:"required" validate:"required,oneof=low medium high critical"`
	Message   string    `json:"message"`
	DonorID   *string   `json:"donor_id"`
}

// StatusUpdate is the body of PUT /blood-requests/:id.
type StatusUpdate struct {
	Status RequestStatus `json:"status" binding:"required"`
}
