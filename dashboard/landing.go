package dashboard

import (
	"context"
	"errors"
	"sort"
	"strings"

	"bloodlink/apiclient"
	"bloodlink/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ErrDialogClosed is returned when a form is submitted without an open dialog.
var ErrDialogClosed = errors.New("dialog is not open")

// AuthAPI is the part of the backend the landing view talks to.
type AuthAPI interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.Registration) (*models.AuthResponse, error)
}

type AuthMode string

const (
	ModeLogin    AuthMode = "login"
	ModeRegister AuthMode = "register"
)

// AuthForm holds every field of the sign-in and sign-up forms. Login mode
// only reads Email and Password.
type AuthForm struct {
	Email     string
	Password  string
	Name      string
	Phone     string
	Role      models.UserRole
	BloodType models.BloodType
	Location  string
}

func (f AuthForm) login() models.LoginRequest {
	return models.LoginRequest{Email: strings.TrimSpace(f.Email), Password: f.Password}
}

func (f AuthForm) registration() models.Registration {
	r := models.Registration{
		Name:     strings.TrimSpace(f.Name),
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
		Phone:    strings.TrimSpace(f.Phone),
		Role:     f.Role,
		Location: strings.TrimSpace(f.Location),
	}
	if f.Role == models.RoleDonor {
		r.BloodType = f.BloodType
	}
	return r
}

// Landing is the unauthenticated entry view with its login/register dialog.
type Landing struct {
	view
	api      AuthAPI
	validate *validator.Validate

	mode       AuthMode
	dialogOpen bool
	form       AuthForm
}

func NewLanding(ctx context.Context, api AuthAPI, deps Deps) *Landing {
	l := &Landing{
		api:      api,
		validate: models.NewValidator(),
		mode:     ModeLogin,
		form:     AuthForm{Role: models.RoleDonor},
	}
	l.init(ctx, deps, string(ViewLanding))
	return l
}

// Load has nothing to fetch.
func (l *Landing) Load() error {
	l.doneLoading()
	return nil
}

func (l *Landing) OpenDialog(mode AuthMode) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mode = mode
	l.dialogOpen = true
}

func (l *Landing) CloseDialog() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dialogOpen = false
}

// SwitchMode toggles between login and register, keeping the form values.
func (l *Landing) SwitchMode() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mode == ModeLogin {
		l.mode = ModeRegister
	} else {
		l.mode = ModeLogin
	}
}

func (l *Landing) Mode() AuthMode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

func (l *Landing) DialogOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dialogOpen
}

func (l *Landing) Form() AuthForm {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.form
}

// SetForm replaces the form values. A non-donor role never carries a blood type.
func (l *Landing) SetForm(f AuthForm) {
	if f.Role != models.RoleDonor {
		f.BloodType = ""
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.form = f
}

func (l *Landing) SetRole(role models.UserRole) {
	l.mu.Lock()
	f := l.form
	l.mu.Unlock()
	f.Role = role
	l.SetForm(f)
}

// Submit sends the form for the current mode. On success the session is
// signed in and the dialog closes; on failure the dialog stays open.
func (l *Landing) Submit() error {
	l.mu.Lock()
	mode, form, open := l.mode, l.form, l.dialogOpen
	l.mu.Unlock()
	if !open {
		return ErrDialogClosed
	}

	var (
		resp    *models.AuthResponse
		err     error
		welcome string
	)
	switch mode {
	case ModeRegister:
		req := form.registration()
		if err := l.validate.Struct(req); err != nil {
			return l.fail(err, validationMessage(err))
		}
		resp, err = l.api.Register(l.ctx, req)
		welcome = "Account created successfully!"
	default:
		req := form.login()
		if err := l.validate.Struct(req); err != nil {
			return l.fail(err, validationMessage(err))
		}
		resp, err = l.api.Login(l.ctx, req)
		welcome = "Welcome back!"
	}
	if err != nil {
		msg := apiclient.Detail(err)
		if msg == "" {
			msg = "Authentication failed"
		}
		return l.fail(err, msg)
	}
	if l.closed() {
		return ErrViewClosed
	}

	if err := l.Session.Login(l.ctx, resp.AccessToken, resp.User); err != nil {
		// signed in for this process only
		l.Logger.Warn("persist session token", zap.Error(err))
	}
	l.mu.Lock()
	l.dialogOpen = false
	l.mu.Unlock()
	l.succeed(welcome)
	return nil
}

// validationMessage names the offending form fields.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Please check the form"
	}
	seen := map[string]bool{}
	var fields []string
	for _, fe := range verrs {
		name := fieldLabel(fe.Field())
		if !seen[name] {
			seen[name] = true
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return "Missing or invalid: " + strings.Join(fields, ", ")
}

func fieldLabel(field string) string {
	switch field {
	case "BloodType":
		return "blood type"
	case "DonorID":
		return "donor"
	}
	return strings.ToLower(field)
}
