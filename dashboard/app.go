package dashboard

import (
	"context"

	"bloodlink/models"
	"bloodlink/session"
)

// API is everything the views need from the backend.
type API interface {
	session.ProfileFetcher
	AuthAPI
	DonorAPI
	RecipientAPI
	AdminAPI
}

// App wires the session, the backend client and the notifier into views.
type App struct {
	api  API
	deps Deps
}

func NewApp(api API, deps Deps) *App {
	return &App{api: api, deps: deps}
}

// Start resolves a persisted session. It returns nil when signed out.
func (a *App) Start(ctx context.Context) *models.User {
	return a.deps.Session.Restore(ctx, a.api)
}

func (a *App) Session() *session.Store { return a.deps.Session }

// Open resolves requested against the current user and builds the view
// that is actually shown. The caller runs Load and Close.
func (a *App) Open(ctx context.Context, requested View) (View, Controller) {
	v := Resolve(a.deps.Session.User(), requested)
	switch v {
	case ViewDonor:
		return v, a.Donor(ctx)
	case ViewRecipient:
		return v, a.Recipient(ctx)
	case ViewAdmin:
		return v, a.Admin(ctx)
	}
	return v, a.Landing(ctx)
}

func (a *App) Landing(ctx context.Context) *Landing {
	return NewLanding(ctx, a.api, a.deps)
}

func (a *App) Donor(ctx context.Context) *DonorDashboard {
	return NewDonorDashboard(ctx, a.api, a.deps)
}

func (a *App) Recipient(ctx context.Context) *RecipientDashboard {
	return NewRecipientDashboard(ctx, a.api, a.deps)
}

func (a *App) Admin(ctx context.Context) *AdminDashboard {
	return NewAdminDashboard(ctx, a.api, a.deps)
}
