package models

import "time"

// BloodType is one of the eight ABO/Rh groups.
type BloodType string

// BloodTypes lists every accepted blood type in display order.
var BloodTypes = []BloodType{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

func (b BloodType) Valid() bool {
	for _, t := range BloodTypes {
		if t == b {
			return true
		}
	}
	return false
}

// Donor is the stored donor record. Contact details live on the owning User.
type Donor struct {
	ID               string     `json:"id" gorm:"primaryKey"`
	UserID           string     `json:"user_id" gorm:"uniqueIndex;not null"`
	User             User       `json:"-" gorm:"foreignKey:UserID"`
	BloodType        BloodType  `json:"blood_type" gorm:"index;not null"`
	Available        bool       `json:"available" gorm:"index"`
	TotalDonations   int        `json:"total_donations"`
	Achievements     []string   `json:"achievements" gorm:"serializer:json"`
	LastDonationDate *time.Time `json:"last_donation_date"`
	CreatedAt        time.Time  `json:"created_at"`
}

// DonorProfile is a donor record merged with the owner's contact details,
// as returned by /donors and /donors/me.
type DonorProfile struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	BloodType        BloodType  `json:"blood_type"`
	Available        bool       `json:"available"`
	TotalDonations   int        `json:"total_donations"`
	Achievements     []string   `json:"achievements"`
	LastDonationDate *time.Time `json:"last_donation_date"`
	Location         string     `json:"location"`
	Name             string     `json:"name"`
	Phone            string     `json:"phone"`
	Email            string     `json:"email"`
}

// NewDonorProfile merges d with its owning user u.
func NewDonorProfile(d Donor, u User) DonorProfile {
	achievements := d.Achievements
	if achievements == nil {
		achievements = []string{}
	}
	return DonorProfile{
		ID:               d.ID,
		UserID:           d.UserID,
		BloodType:        d.BloodType,
		Available:        d.Available,
		TotalDonations:   d.TotalDonations,
		Achievements:     achievements,
		LastDonationDate: d.LastDonationDate,
		Location:         u.Location,
		Name:             u.Name,
		Phone:            u.Phone,
		Email:            u.Email,
	}
}

// LeaderboardEntry is one row of /donors/leaderboard.
type LeaderboardEntry struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	BloodType      BloodType `json:"blood_type"`
	TotalDonations int       `json:"total_donations"`
	Achievements   []string  `json:"achievements"`
}

// LatestAchievement returns the most recent achievement, or "".
func (e LeaderboardEntry) LatestAchievement() string {
	if len(e.Achievements) == 0 {
		return ""
	}
	return e.Achievements[len(e.Achievements)-1]
}

// AvailabilityUpdate is the body of PUT /donors/me/availability.
type AvailabilityUpdate struct {
	Available *bool `json:"available" binding:"required"`
}

// AvailabilityAck acknowledges an availability change.
type AvailabilityAck struct {
	Message   string `json:"message"`
	Available bool   `json:"available"`
}

// DonorFilter holds the optional query parameters of GET /donors.
type DonorFilter struct {
	Available *bool
	BloodType BloodType
	Location  string
}

// donationMilestones maps a donation count to the achievement it unlocks.
var donationMilestones = map[int]string{
	1:  "First Donation",
	5:  "Regular Donor",
	10: "Lifesaver",
	25: "Blood Hero",
}

// RecordDonation counts one completed donation at t and unlocks any
// milestone achievement it reaches.
func (d *Donor) RecordDonation(t time.Time) {
	d.TotalDonations++
	d.LastDonationDate = &t
	if a, ok := donationMilestones[d.TotalDonations]; ok {
		d.Achievements = append(d.Achievements, a)
	}
}
