package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"bloodlink/models"
)

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.Do(ctx, http.MethodPost, "/auth/login", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req models.Registration) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.Do(ctx, http.MethodPost, "/auth/register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile resolves the current token to its user.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.Do(ctx, http.MethodGet, "/profile", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyDonorProfile(ctx context.Context) (*models.DonorProfile, error) {
	var out models.DonorProfile
	if err := c.Do(ctx, http.MethodGet, "/donors/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetAvailability(ctx context.Context, available bool) (*models.AvailabilityAck, error) {
	var out models.AvailabilityAck
	body := models.AvailabilityUpdate{Available: &available}
	if err := c.Do(ctx, http.MethodPut, "/donors/me/availability", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDonors searches donors; zero-valued filter fields are left out of the query.
func (c *Client) ListDonors(ctx context.Context, f models.DonorFilter) ([]models.DonorProfile, error) {
	out := []models.DonorProfile{}
	if err := c.Do(ctx, http.MethodGet, "/donors", donorQuery(f), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func donorQuery(f models.DonorFilter) url.Values {
	q := url.Values{}
	if f.BloodType != "" {
		q.Set("blood_type", string(f.BloodType))
	}
	if f.Location != "" {
		q.Set("location", f.Location)
	}
	if f.Available != nil {
		q.Set("available", strconv.FormatBool(*f.Available))
	}
	return q
}

func (c *Client) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	out := []models.LeaderboardEntry{}
	if err := c.Do(ctx, http.MethodGet, "/donors/leaderboard", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListBloodRequests returns the requests visible to the caller's role.
func (c *Client) ListBloodRequests(ctx context.Context) ([]models.BloodRequest, error) {
	out := []models.BloodRequest{}
	if err := c.Do(ctx, http.MethodGet, "/blood-requests", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateBloodRequest(ctx context.Context, req models.BloodRequestCreate) (*models.BloodRequest, error) {
	var out models.BloodRequest
	if err := c.Do(ctx, http.MethodPost, "/blood-requests", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateBloodRequestStatus(ctx context.Context, id string, status models.RequestStatus) (*models.BloodRequest, error) {
	var out models.BloodRequest
	path := "/blood-requests/" + url.PathEscape(id)
	if err := c.Do(ctx, http.MethodPut, path, nil, models.StatusUpdate{Status: status}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var out models.Stats
	if err := c.Do(ctx, http.MethodGet, "/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Activities(ctx context.Context) ([]models.Activity, error) {
	out := []models.Activity{}
	if err := c.Do(ctx, http.MethodGet, "/activities", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
