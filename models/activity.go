package models

import "time"

// ActivityType classifies an entry of the admin activity feed
type ActivityType string

const (
	ActivityDonation ActivityType = "donation"
	ActivityRequest  ActivityType = "request"
	ActivityOther    ActivityType = "other"
)

// Activity is a read-only audit entry.
type Activity struct {
	ID        string       `json:"id" gorm:"primaryKey"`
	Type      ActivityType `json:"type" gorm:"not null"`
	Message   string       `json:"message"`
	UserName  string       `json:"user_name"`
	Timestamp time.Time    `json:"timestamp" gorm:"index"`
}

// Stats are platform-wide counters recomputed by the backend on every call.
type Stats struct {
	TotalDonors           int              `json:"total_donors"`
	AvailableDonors       int              `json:"available_donors"`
	TotalRequests         int              `json:"total_requests"`
	PendingRequests       int              `json:"pending_requests"`
	CompletedRequests     int              `json:"completed_requests"`
	TotalDonations        int              `json:"total_donations"`
	EmergencyRequests     int              `json:"emergency_requests"`
	BloodTypeDistribution []BloodTypeCount `json:"blood_type_distribution"`
}

// BloodTypeCount is one bucket of the donor blood type distribution.
type BloodTypeCount struct {
	BloodType BloodType `json:"_id"`
	Count     int       `json:"count"`
}
