package dashboard

import (
	"context"
	"errors"

	"bloodlink/models"
	"bloodlink/statemachine"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoSelection is returned by AcceptSelected when no request is open.
	ErrNoSelection = errors.New("no request selected")
	// ErrRequestNotPending is returned when selecting a request that is not pending.
	ErrRequestNotPending = errors.New("request is not pending")
)

// DonorAPI is the part of the backend the donor dashboard talks to.
type DonorAPI interface {
	MyDonorProfile(ctx context.Context) (*models.DonorProfile, error)
	SetAvailability(ctx context.Context, available bool) (*models.AvailabilityAck, error)
	ListBloodRequests(ctx context.Context) ([]models.BloodRequest, error)
	UpdateBloodRequestStatus(ctx context.Context, id string, status models.RequestStatus) (*models.BloodRequest, error)
}

// DonorDashboard shows the donor's profile and the requests they can act on.
type DonorDashboard struct {
	view
	api DonorAPI

	profile  *models.DonorProfile
	requests []models.BloodRequest
	selected *models.BloodRequest
}

// DonorSnapshot is a consistent copy of the donor dashboard for rendering.
type DonorSnapshot struct {
	Loading  bool
	Profile  *models.DonorProfile
	Pending  []models.BloodRequest
	Mine     []models.BloodRequest
	Selected *models.BloodRequest
}

func NewDonorDashboard(ctx context.Context, api DonorAPI, deps Deps) *DonorDashboard {
	d := &DonorDashboard{api: api}
	d.init(ctx, deps, string(ViewDonor))
	return d
}

// Load fetches the profile and the visible requests together. Either both
// are applied or, on any failure, neither.
func (d *DonorDashboard) Load() error {
	defer d.doneLoading()

	var (
		profile  *models.DonorProfile
		requests []models.BloodRequest
	)
	g, ctx := errgroup.WithContext(d.ctx)
	g.Go(func() error {
		p, err := d.api.MyDonorProfile(ctx)
		profile = p
		return err
	})
	g.Go(func() error {
		r, err := d.api.ListBloodRequests(ctx)
		requests = r
		return err
	})
	if err := g.Wait(); err != nil {
		return d.fail(err, "Failed to load data")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed() {
		return ErrViewClosed
	}
	d.profile = profile
	d.requests = requests
	return nil
}

func (d *DonorDashboard) Profile() *models.DonorProfile {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copyProfile(d.profile)
}

// PendingRequests are the visible requests still waiting for a donor.
func (d *DonorDashboard) PendingRequests() []models.BloodRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return filterRequests(d.requests, func(r models.BloodRequest) bool {
		return r.Status == models.StatusPending
	})
}

// MyRequests are the requests naming this donor, in any status.
func (d *DonorDashboard) MyRequests() []models.BloodRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.myRequestsLocked()
}

func (d *DonorDashboard) myRequestsLocked() []models.BloodRequest {
	if d.profile == nil {
		return []models.BloodRequest{}
	}
	id := d.profile.ID
	return filterRequests(d.requests, func(r models.BloodRequest) bool {
		return r.IsTargetedAt(id)
	})
}

// ToggleAvailability asks the backend to flip availability. Local state only
// changes once the backend acknowledges, then everything is re-fetched.
func (d *DonorDashboard) ToggleAvailability() error {
	const failed = "Failed to update availability"

	d.mu.Lock()
	profile := d.profile
	d.mu.Unlock()
	if profile == nil {
		return d.fail(ErrNotLoaded, failed)
	}
	want := !profile.Available

	if _, err := d.api.SetAvailability(d.ctx, want); err != nil {
		return d.fail(err, failed)
	}

	d.mu.Lock()
	if d.closed() {
		d.mu.Unlock()
		return ErrViewClosed
	}
	if d.profile != nil {
		d.profile.Available = want
	}
	d.mu.Unlock()

	if want {
		d.succeed("You are now available for donation")
	} else {
		d.succeed("You are now unavailable for donation")
	}
	d.refetch()
	return nil
}

// SelectRequest opens the detail view of a pending request.
func (d *DonorDashboard) SelectRequest(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.requests {
		if r.ID == id && r.Status == models.StatusPending {
			req := r
			d.selected = &req
			return nil
		}
	}
	return ErrRequestNotPending
}

func (d *DonorDashboard) Selected() *models.BloodRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.selected == nil {
		return nil
	}
	req := *d.selected
	return &req
}

func (d *DonorDashboard) CloseDetail() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selected = nil
}

// AcceptSelected accepts the request open in the detail view. The detail
// view stays open if the backend refuses.
func (d *DonorDashboard) AcceptSelected() error {
	const failed = "Failed to accept request"

	selected := d.Selected()
	if selected == nil {
		return d.fail(ErrNoSelection, failed)
	}
	if err := statemachine.CanTransition(selected.Status, models.StatusAccepted, models.RoleDonor); err != nil {
		return d.fail(err, failed)
	}
	if _, err := d.api.UpdateBloodRequestStatus(d.ctx, selected.ID, models.StatusAccepted); err != nil {
		return d.fail(err, failed)
	}
	if d.closed() {
		return ErrViewClosed
	}

	d.mu.Lock()
	d.selected = nil
	d.mu.Unlock()
	d.succeed("Request accepted! Please contact the recipient.")
	d.refetch()
	return nil
}

func (d *DonorDashboard) Snapshot() DonorSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := DonorSnapshot{
		Loading: d.loading,
		Profile: copyProfile(d.profile),
		Pending: filterRequests(d.requests, func(r models.BloodRequest) bool {
			return r.Status == models.StatusPending
		}),
		Mine: d.myRequestsLocked(),
	}
	if d.selected != nil {
		req := *d.selected
		snap.Selected = &req
	}
	return snap
}

// refetch reloads after a mutation. Load reports its own failure.
func (d *DonorDashboard) refetch() {
	if err := d.Load(); err != nil {
		d.Logger.Debug("refetch after mutation", zap.Error(err))
	}
}

func copyProfile(p *models.DonorProfile) *models.DonorProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.Achievements = append([]string(nil), p.Achievements...)
	return &out
}

func filterRequests(in []models.BloodRequest, keep func(models.BloodRequest) bool) []models.BloodRequest {
	out := []models.BloodRequest{}
	for _, r := range in {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
