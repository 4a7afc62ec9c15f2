package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bloodlink/dashboard"
	"bloodlink/export"
	"bloodlink/models"
	"bloodlink/render"
)

var errNotSignedIn = errors.New("not signed in, run `bloodlink login` first")

// signedIn restores the session and checks that it belongs on want.
func (c *cli) signedIn(ctx context.Context, want dashboard.View) (*models.User, error) {
	u := c.app.Start(ctx)
	if u == nil {
		return nil, errNotSignedIn
	}
	if want != dashboard.ViewLanding && dashboard.Resolve(u, want) != want {
		return nil, fmt.Errorf("%s commands need a %s account, signed in as %s", want, want, u.Role)
	}
	return u, nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := c.flags("login")
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *email == "" {
		var err error
		if *email, err = c.prompt("Email: "); err != nil {
			return err
		}
	}
	if *password == "" {
		var err error
		if *password, err = c.prompt("Password: "); err != nil {
			return err
		}
	}

	l := c.app.Landing(ctx)
	defer l.Close()
	l.OpenDialog(dashboard.ModeLogin)
	l.SetForm(dashboard.AuthForm{Email: *email, Password: *password})
	if err := l.Submit(); err != nil {
		return err
	}
	return render.User(c.stdout, c.store.User())
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := c.flags("register")
	var form dashboard.AuthForm
	fs.StringVar(&form.Name, "name", "", "Full name")
	fs.StringVar(&form.Email, "email", "", "Account email")
	fs.StringVar(&form.Password, "password", "", "Account password (prompted when empty)")
	fs.StringVar(&form.Phone, "phone", "", "Phone number")
	fs.StringVar(&form.Location, "location", "", "City or area")
	role := fs.String("role", string(models.RoleDonor), "donor or recipient")
	bloodType := fs.String("blood-type", "", "Blood type, donors only (e.g. O-)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if form.Password == "" {
		var err error
		if form.Password, err = c.prompt("Password: "); err != nil {
			return err
		}
	}

	l := c.app.Landing(ctx)
	defer l.Close()
	l.OpenDialog(dashboard.ModeRegister)
	form.Role = models.UserRole(strings.ToLower(*role))
	form.BloodType = models.BloodType(strings.ToUpper(*bloodType))
	l.SetForm(form)
	if err := l.Submit(); err != nil {
		return err
	}
	return render.User(c.stdout, c.store.User())
}

func (c *cli) logout(ctx context.Context) error {
	if err := c.store.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "Signed out.")
	return nil
}

func (c *cli) whoami(ctx context.Context) error {
	return render.User(c.stdout, c.app.Start(ctx))
}

func (c *cli) showDashboard(ctx context.Context, args []string) error {
	fs := c.flags("dashboard")
	tab := fs.String("tab", string(dashboard.TabRequests), "Admin tab: requests, blood-types or leaderboard")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	u, err := c.signedIn(ctx, dashboard.ViewLanding)
	if err != nil {
		return err
	}

	_, ctrl := c.app.Open(ctx, dashboard.Home(u))
	defer ctrl.Close()
	loadErr := ctrl.Load()
	if errors.Is(loadErr, dashboard.ErrViewClosed) {
		return loadErr
	}

	switch v := ctrl.(type) {
	case *dashboard.DonorDashboard:
		if loadErr != nil {
			return loadErr
		}
		return render.Donor(c.stdout, v.Snapshot())
	case *dashboard.RecipientDashboard:
		if loadErr != nil {
			return loadErr
		}
		return render.Recipient(c.stdout, v.Snapshot())
	case *dashboard.AdminDashboard:
		if err := v.SelectTab(dashboard.Tab(*tab)); err != nil {
			return err
		}
		// partial data is still worth showing
		if err := render.Admin(c.stdout, v.Snapshot()); err != nil {
			return err
		}
		return loadErr
	}
	return errNotSignedIn
}

func (c *cli) donorToggle(ctx context.Context) error {
	if _, err := c.signedIn(ctx, dashboard.ViewDonor); err != nil {
		return err
	}
	d := c.app.Donor(ctx)
	defer d.Close()
	if err := d.Load(); err != nil {
		return err
	}
	if err := d.ToggleAvailability(); err != nil {
		return err
	}
	return render.Donor(c.stdout, d.Snapshot())
}

func (c *cli) donorAccept(ctx context.Context, args []string) error {
	fs := c.flags("donor accept")
	id := fs.String("id", "", "Request ID")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *id == "" {
		fmt.Fprintln(c.stderr, "donor accept: -id is required")
		return errUsage
	}
	if _, err := c.signedIn(ctx, dashboard.ViewDonor); err != nil {
		return err
	}

	d := c.app.Donor(ctx)
	defer d.Close()
	if err := d.Load(); err != nil {
		return err
	}
	if err := d.SelectRequest(*id); err != nil {
		return fmt.Errorf("request %s: %w", *id, err)
	}
	if err := d.AcceptSelected(); err != nil {
		return err
	}
	return render.Donor(c.stdout, d.Snapshot())
}

func (c *cli) recipientSearch(ctx context.Context, args []string) error {
	fs := c.flags("recipient search")
	bloodType := fs.String("blood-type", "", "Only donors of this blood type")
	location := fs.String("location", "", "Only donors whose location contains this text")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if _, err := c.signedIn(ctx, dashboard.ViewRecipient); err != nil {
		return err
	}

	r := c.app.Recipient(ctx)
	defer r.Close()
	if err := r.Load(); err != nil {
		return err
	}
	err := r.Search(dashboard.SearchFilter{
		BloodType: models.BloodType(strings.ToUpper(*bloodType)),
		Location:  *location,
	})
	if err != nil {
		return err
	}
	return render.Recipient(c.stdout, r.Snapshot())
}

func (c *cli) recipientRequest(ctx context.Context, args []string) error {
	fs := c.flags("recipient request")
	donorID := fs.String("donor", "", "Target an available donor by ID (general request when empty)")
	bloodType := fs.String("blood-type", "", "Blood type needed (defaults to the donor's)")
	location := fs.String("location", "", "Where the blood is needed (defaults to your location)")
	urgency := fs.String("urgency", "", "low, medium, high or critical (default medium)")
	message := fs.String("message", "", "Note for the donor")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if _, err := c.signedIn(ctx, dashboard.ViewRecipient); err != nil {
		return err
	}

	r := c.app.Recipient(ctx)
	defer r.Close()
	if err := r.Load(); err != nil {
		return err
	}

	var target *models.DonorProfile
	if *donorID != "" {
		for _, d := range r.Donors() {
			if d.ID == *donorID {
				target = &d
				break
			}
		}
		if target == nil {
			return fmt.Errorf("donor %s is not available", *donorID)
		}
	}
	r.OpenRequestDialog(target)

	form := r.Form()
	if *bloodType != "" {
		form.BloodType = models.BloodType(strings.ToUpper(*bloodType))
	}
	if *location != "" {
		form.Location = *location
	}
	if *urgency != "" {
		form.Urgency = models.Urgency(strings.ToLower(*urgency))
	}
	form.Message = *message
	r.SetForm(form)

	if err := r.SubmitRequest(); err != nil {
		return err
	}
	return render.Recipient(c.stdout, r.Snapshot())
}

func (c *cli) adminExport(ctx context.Context, args []string) error {
	fs := c.flags("admin export")
	out := fs.String("out", "bloodlink-overview.xlsx", "Output workbook path")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if _, err := c.signedIn(ctx, dashboard.ViewAdmin); err != nil {
		return err
	}

	a := c.app.Admin(ctx)
	defer a.Close()
	loadErr := a.Load()
	if errors.Is(loadErr, dashboard.ErrViewClosed) {
		return loadErr
	}
	if err := export.WriteAdminWorkbook(*out, a.Snapshot()); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Wrote %s\n", *out)
	return loadErr
}
