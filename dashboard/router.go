package dashboard

import "bloodlink/models"

// View names a top-level screen.
type View string

const (
	ViewLanding   View = "landing"
	ViewDonor     View = "donor"
	ViewRecipient View = "recipient"
	ViewAdmin     View = "admin"
)

// Home is the screen a user lands on: their role's dashboard, or Landing
// when signed out.
func Home(u *models.User) View {
	if u == nil {
		return ViewLanding
	}
	switch u.Role {
	case models.RoleDonor:
		return ViewDonor
	case models.RoleRecipient:
		return ViewRecipient
	case models.RoleAdmin:
		return ViewAdmin
	}
	return ViewLanding
}

// Resolve returns the screen actually shown when u asks for requested.
// A signed-in user asking for Landing goes home; asking for another role's
// dashboard redirects to Landing.
func Resolve(u *models.User, requested View) View {
	if requested == ViewLanding {
		return Home(u)
	}
	if Home(u) != requested {
		return ViewLanding
	}
	return requested
}
