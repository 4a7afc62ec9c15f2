package dashboard

import (
	"context"
	"strings"
	"sync"
	"testing"

	"bloodlink/apiclient"
	"bloodlink/models"
	"bloodlink/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type statusCall struct {
	ID     string
	Status models.RequestStatus
}

// fakeAPI is an in-memory backend. Errors set on it are returned by the
// matching call until cleared.
type fakeAPI struct {
	mu sync.Mutex

	user       *models.User
	profileErr error

	authResp      *models.AuthResponse
	authErr       error
	logins        []models.LoginRequest
	registrations []models.Registration

	donorProfile    *models.DonorProfile
	donorProfileErr error
	availabilityErr error
	availability    []bool

	donors       []models.DonorProfile
	donorsErr    error
	donorFilters []models.DonorFilter

	requests     []models.BloodRequest
	requestsErr  error
	requestCalls int
	createErr    error
	created      []models.BloodRequestCreate
	updateErr    error
	updates      []statusCall

	stats          *models.Stats
	statsErr       error
	leaderboard    []models.LeaderboardEntry
	leaderboardErr error
	activities     []models.Activity
	activitiesErr  error
}

func (f *fakeAPI) Profile(ctx context.Context) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	u := *f.user
	return &u, nil
}

func (f *fakeAPI) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, req)
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.authResp, nil
}

func (f *fakeAPI) Register(ctx context.Context, req models.Registration) (*models.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registrations = append(f.registrations, req)
	if f.authErr != nil {
		return nil, f.authErr
	}
	return &models.AuthResponse{
		AccessToken: "token-" + req.Email,
		TokenType:   "bearer",
		User: models.User{
			ID:       uuid.NewString(),
			Name:     req.Name,
			Email:    req.Email,
			Role:     req.Role,
			Phone:    req.Phone,
			Location: req.Location,
		},
	}, nil
}

func (f *fakeAPI) MyDonorProfile(ctx context.Context) (*models.DonorProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.donorProfileErr != nil {
		return nil, f.donorProfileErr
	}
	p := *f.donorProfile
	return &p, nil
}

func (f *fakeAPI) SetAvailability(ctx context.Context, available bool) (*models.AvailabilityAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.availability = append(f.availability, available)
	if f.availabilityErr != nil {
		return nil, f.availabilityErr
	}
	f.donorProfile.Available = available
	return &models.AvailabilityAck{Message: "updated", Available: available}, nil
}

func (f *fakeAPI) ListDonors(ctx context.Context, filter models.DonorFilter) ([]models.DonorProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.donorFilters = append(f.donorFilters, filter)
	if f.donorsErr != nil {
		return nil, f.donorsErr
	}
	out := []models.DonorProfile{}
	for _, d := range f.donors {
		if filter.Available != nil && d.Available != *filter.Available {
			continue
		}
		if filter.BloodType != "" && d.BloodType != filter.BloodType {
			continue
		}
		if filter.Location != "" && !strings.Contains(strings.ToLower(d.Location), strings.ToLower(filter.Location)) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeAPI) ListBloodRequests(ctx context.Context) ([]models.BloodRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestCalls++
	if f.requestsErr != nil {
		return nil, f.requestsErr
	}
	return append([]models.BloodRequest{}, f.requests...), nil
}

func (f *fakeAPI) CreateBloodRequest(ctx context.Context, req models.BloodRequestCreate) (*models.BloodRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	r := models.BloodRequest{
		ID:          uuid.NewString(),
		DonorID:     req.DonorID,
		BloodType:   req.BloodType,
		Location:    req.Location,
		Urgency:     req.Urgency,
		Message:     req.Message,
		Status:      models.StatusPending,
		IsEmergency: req.Urgency == models.UrgencyCritical,
	}
	f.requests = append([]models.BloodRequest{r}, f.requests...)
	return &r, nil
}

func (f *fakeAPI) UpdateBloodRequestStatus(ctx context.Context, id string, status models.RequestStatus) (*models.BloodRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, statusCall{ID: id, Status: status})
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i := range f.requests {
		if f.requests[i].ID != id {
			continue
		}
		f.requests[i].Status = status
		if f.requests[i].DonorID == nil && f.donorProfile != nil {
			donorID := f.donorProfile.ID
			f.requests[i].DonorID = &donorID
		}
		r := f.requests[i]
		return &r, nil
	}
	return nil, &apiclient.Error{Kind: apiclient.NotFound, Status: 404, Message: "Request not found"}
}

func (f *fakeAPI) Stats(ctx context.Context) (*models.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	s := *f.stats
	return &s, nil
}

func (f *fakeAPI) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.leaderboardErr != nil {
		return nil, f.leaderboardErr
	}
	return append([]models.LeaderboardEntry{}, f.leaderboard...), nil
}

func (f *fakeAPI) Activities(ctx context.Context) ([]models.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activitiesErr != nil {
		return nil, f.activitiesErr
	}
	return append([]models.Activity{}, f.activities...), nil
}

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func newDeps(t *testing.T, user *models.User) (Deps, *Recorder) {
	t.Helper()
	store, err := session.NewStore(context.Background(), session.NewMemoryStore(), zap.NewNop())
	require.NoError(t, err)
	if user != nil {
		require.NoError(t, store.Login(context.Background(), "token-"+user.ID, *user))
	}
	rec := &Recorder{}
	return Deps{Session: store, Notifier: rec, Logger: zap.NewNop()}, rec
}

func strPtr(s string) *string { return &s }

var (
	errUnauthorized = &apiclient.Error{Kind: apiclient.Unauthorized, Status: 401, Message: "Invalid token"}
	errServer       = &apiclient.Error{Kind: apiclient.Unknown, Status: 500}
	errNetwork      = &apiclient.Error{Kind: apiclient.Network, Err: context.DeadlineExceeded}
)
