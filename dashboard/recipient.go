package dashboard

import (
	"context"
	"fmt"
	"strings"

	"bloodlink/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RecipientAPI is the part of the backend the recipient dashboard talks to.
type RecipientAPI interface {
	ListDonors(ctx context.Context, f models.DonorFilter) ([]models.DonorProfile, error)
	ListBloodRequests(ctx context.Context) ([]models.BloodRequest, error)
	CreateBloodRequest(ctx context.Context, req models.BloodRequestCreate) (*models.BloodRequest, error)
}

// SearchFilter narrows the donor search. Empty fields are not sent.
type SearchFilter struct {
	BloodType models.BloodType
	Location  string
}

// RequestForm is the blood request dialog.
type RequestForm struct {
	BloodType models.BloodType
	Location  string
	Urgency   models.Urgency
	Message   string
}

// RecipientDashboard lets a recipient find donors and file blood requests.
type RecipientDashboard struct {
	view
	api      RecipientAPI
	validate *validator.Validate

	donors     []models.DonorProfile
	myRequests []models.BloodRequest
	filter     SearchFilter

	dialogOpen bool
	target     *models.DonorProfile
	form       RequestForm
}

// RecipientSnapshot is a consistent copy of the recipient dashboard for rendering.
type RecipientSnapshot struct {
	Loading    bool
	Filter     SearchFilter
	Donors     []models.DonorProfile
	MyRequests []models.BloodRequest
	DialogOpen bool
	Target     *models.DonorProfile
	Form       RequestForm
}

func NewRecipientDashboard(ctx context.Context, api RecipientAPI, deps Deps) *RecipientDashboard {
	r := &RecipientDashboard{
		api:      api,
		validate: models.NewValidator(),
	}
	r.init(ctx, deps, string(ViewRecipient))
	r.form = r.defaultForm()
	return r
}

func (r *RecipientDashboard) defaultForm() RequestForm {
	f := RequestForm{Urgency: models.UrgencyMedium}
	if r.Session != nil {
		if u := r.Session.User(); u != nil {
			f.Location = u.Location
		}
	}
	return f
}

func available() *bool {
	t := true
	return &t
}

// Load fetches available donors and the recipient's own requests. Either
// both are applied or, on any failure, neither.
func (r *RecipientDashboard) Load() error {
	defer r.doneLoading()

	var (
		donors   []models.DonorProfile
		requests []models.BloodRequest
	)
	g, ctx := errgroup.WithContext(r.ctx)
	g.Go(func() error {
		d, err := r.api.ListDonors(ctx, models.DonorFilter{Available: available()})
		donors = d
		return err
	})
	g.Go(func() error {
		q, err := r.api.ListBloodRequests(ctx)
		requests = q
		return err
	})
	if err := g.Wait(); err != nil {
		return r.fail(err, "Failed to load data")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed() {
		return ErrViewClosed
	}
	r.donors = donors
	r.myRequests = requests
	return nil
}

// Search replaces the donor list with available donors matching f.
func (r *RecipientDashboard) Search(f SearchFilter) error {
	f.Location = strings.TrimSpace(f.Location)
	donors, err := r.api.ListDonors(r.ctx, models.DonorFilter{
		Available: available(),
		BloodType: f.BloodType,
		Location:  f.Location,
	})
	if err != nil {
		return r.fail(err, "Search failed")
	}

	r.mu.Lock()
	if r.closed() {
		r.mu.Unlock()
		return ErrViewClosed
	}
	r.filter = f
	r.donors = donors
	r.mu.Unlock()

	r.Notifier.Notify(Notice{Level: LevelInfo, Message: fmt.Sprintf("Found %d donor(s)", len(donors))})
	return nil
}

func (r *RecipientDashboard) Donors() []models.DonorProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.DonorProfile{}, r.donors...)
}

// MyRequests returns the recipient's requests in backend order.
func (r *RecipientDashboard) MyRequests() []models.BloodRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.BloodRequest{}, r.myRequests...)
}

// OpenRequestDialog opens the request dialog. A non-nil donor makes the
// request targeted and pre-fills its blood type and location.
func (r *RecipientDashboard) OpenRequestDialog(donor *models.DonorProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dialogOpen = true
	r.target = copyProfile(donor)
	if donor != nil {
		r.form.BloodType = donor.BloodType
		r.form.Location = donor.Location
	}
}

// CloseRequestDialog closes the dialog without touching the form.
func (r *RecipientDashboard) CloseRequestDialog() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dialogOpen = false
	r.target = nil
}

func (r *RecipientDashboard) DialogOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dialogOpen
}

func (r *RecipientDashboard) Form() RequestForm {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.form
}

func (r *RecipientDashboard) SetForm(f RequestForm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.form = f
}

// SubmitRequest files the request in the dialog. On success the form is
// reset, the dialog closes and both lists are re-fetched; on failure the
// dialog stays open with its values.
func (r *RecipientDashboard) SubmitRequest() error {
	const failed = "Failed to submit request"

	r.mu.Lock()
	open, form, target := r.dialogOpen, r.form, r.target
	r.mu.Unlock()
	if !open {
		return ErrDialogClosed
	}

	req := models.BloodRequestCreate{
		BloodType: form.BloodType,
		Location:  strings.TrimSpace(form.Location),
		Urgency:   form.Urgency,
		Message:   strings.TrimSpace(form.Message),
	}
	if target != nil {
		id := target.ID
		req.DonorID = &id
	}
	if err := r.validate.Struct(req); err != nil {
		return r.fail(err, validationMessage(err))
	}

	if _, err := r.api.CreateBloodRequest(r.ctx, req); err != nil {
		return r.fail(err, failed)
	}

	r.mu.Lock()
	if r.closed() {
		r.mu.Unlock()
		return ErrViewClosed
	}
	r.dialogOpen = false
	r.target = nil
	r.mu.Unlock()
	r.SetForm(r.defaultForm())

	r.succeed("Blood request submitted successfully!")
	if err := r.Load(); err != nil {
		r.Logger.Debug("refetch after request", zap.Error(err))
	}
	return nil
}

func (r *RecipientDashboard) Snapshot() RecipientSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RecipientSnapshot{
		Loading:    r.loading,
		Filter:     r.filter,
		Donors:     append([]models.DonorProfile{}, r.donors...),
		MyRequests: append([]models.BloodRequest{}, r.myRequests...),
		DialogOpen: r.dialogOpen,
		Target:     copyProfile(r.target),
		Form:       r.form,
	}
}
