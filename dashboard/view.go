package dashboard

import (
	"context"
	"errors"
	"sync"

	"bloodlink/apiclient"
	"bloodlink/session"

	"go.uber.org/zap"
)

var (
	// ErrViewClosed is returned when results arrive after Close.
	ErrViewClosed = errors.New("view closed")
	// ErrNotLoaded is returned by actions that need data Load has not provided yet.
	ErrNotLoaded = errors.New("view data not loaded")
)

// Deps are shared by every controller.
type Deps struct {
	Session  *session.Store
	Notifier Notifier
	Logger   *zap.Logger
	// LogoutOnUnauthorized ends the session whenever a view action is
	// rejected as Unauthorized. Otherwise only session restore does that.
	LogoutOnUnauthorized bool
}

// Controller is the lifecycle every view shares.
type Controller interface {
	// Load runs the initial fetch of the view.
	Load() error
	// Loading is true until the first Load finishes.
	Loading() bool
	// Close cancels in-flight calls; later results are dropped.
	Close()
}

// view holds the lifecycle and notification plumbing of a controller. Its
// mutex also guards the embedding controller's state.
type view struct {
	Deps
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	loading bool
}

func (v *view) init(parent context.Context, deps Deps, name string) {
	if deps.Notifier == nil {
		deps.Notifier = NotifierFunc(func(Notice) {})
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	deps.Logger = deps.Logger.With(zap.String("view", name))
	v.Deps = deps
	v.ctx, v.cancel = context.WithCancel(parent)
	v.loading = true
}

func (v *view) Close() { v.cancel() }

func (v *view) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

func (v *view) closed() bool { return v.ctx.Err() != nil }

func (v *view) doneLoading() {
	v.mu.Lock()
	v.loading = false
	v.mu.Unlock()
}

// fail reports err to the user as message and hands it back to the caller.
func (v *view) fail(err error, message string) error {
	if v.closed() {
		return ErrViewClosed
	}
	v.Logger.Warn(message, zap.Error(err))
	v.Notifier.Notify(Notice{Level: LevelError, Message: message})
	// a rejected sign-in must not drop a persisted token that was never resolved
	if v.LogoutOnUnauthorized && v.Session != nil && v.Session.User() != nil &&
		apiclient.KindOf(err) == apiclient.Unauthorized {
		v.Session.Expire(v.ctx, err)
	}
	return err
}

func (v *view) succeed(message string) {
	v.Logger.Debug(message)
	v.Notifier.Notify(Notice{Level: LevelSuccess, Message: message})
}
