// Package render prints dashboard snapshots as plain text tables.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"bloodlink/dashboard"
	"bloodlink/models"
)

const dateLayout = "2006-01-02 15:04"

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("-", len([]rune(title))))
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateLayout)
}

func requestFlag(r models.BloodRequest) string {
	if r.IsEmergency {
		return "EMERGENCY"
	}
	return ""
}

// User prints the signed-in user.
func User(w io.Writer, u *models.User) error {
	if u == nil {
		_, err := fmt.Fprintln(w, "Not signed in.")
		return err
	}
	tw := table(w)
	fmt.Fprintf(tw, "Name:\t%s\n", u.Name)
	fmt.Fprintf(tw, "Email:\t%s\n", u.Email)
	fmt.Fprintf(tw, "Role:\t%s\n", u.Role)
	fmt.Fprintf(tw, "Phone:\t%s\n", orDash(u.Phone))
	fmt.Fprintf(tw, "Location:\t%s\n", orDash(u.Location))
	return tw.Flush()
}

// Donor prints the donor dashboard.
func Donor(w io.Writer, s dashboard.DonorSnapshot) error {
	if s.Loading {
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	}
	if p := s.Profile; p != nil {
		heading(w, "Donor profile")
		tw := table(w)
		status := "unavailable"
		if p.Available {
			status = "available"
		}
		fmt.Fprintf(tw, "Name:\t%s\n", p.Name)
		fmt.Fprintf(tw, "Blood type:\t%s\n", p.BloodType)
		fmt.Fprintf(tw, "Location:\t%s\n", orDash(p.Location))
		fmt.Fprintf(tw, "Status:\t%s\n", status)
		fmt.Fprintf(tw, "Donations:\t%d\n", p.TotalDonations)
		if p.LastDonationDate != nil {
			fmt.Fprintf(tw, "Last donation:\t%s\n", date(*p.LastDonationDate))
		}
		if len(p.Achievements) > 0 {
			fmt.Fprintf(tw, "Achievements:\t%s\n", strings.Join(p.Achievements, ", "))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	heading(w, fmt.Sprintf("Pending requests (%d)", len(s.Pending)))
	if err := requests(w, s.Pending, true); err != nil {
		return err
	}
	heading(w, fmt.Sprintf("My requests (%d)", len(s.Mine)))
	if err := requests(w, s.Mine, false); err != nil {
		return err
	}

	if r := s.Selected; r != nil {
		heading(w, "Request details")
		tw := table(w)
		fmt.Fprintf(tw, "ID:\t%s\n", r.ID)
		fmt.Fprintf(tw, "Recipient:\t%s\n", orDash(r.RecipientName))
		fmt.Fprintf(tw, "Phone:\t%s\n", orDash(r.RecipientPhone))
		fmt.Fprintf(tw, "Blood type:\t%s\n", r.BloodType)
		fmt.Fprintf(tw, "Location:\t%s\n", orDash(r.Location))
		fmt.Fprintf(tw, "Urgency:\t%s\n", r.Urgency)
		fmt.Fprintf(tw, "Message:\t%s\n", orDash(r.Message))
		return tw.Flush()
	}
	return nil
}

func requests(w io.Writer, list []models.BloodRequest, withRecipient bool) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No requests.")
		return err
	}
	tw := table(w)
	if withRecipient {
		fmt.Fprintln(tw, "ID\tRECIPIENT\tBLOOD\tLOCATION\tURGENCY\tCREATED\t")
	} else {
		fmt.Fprintln(tw, "ID\tSTATUS\tBLOOD\tLOCATION\tURGENCY\tCREATED\t")
	}
	for _, r := range list {
		second := string(r.Status)
		if withRecipient {
			second = orDash(r.RecipientName)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, second, r.BloodType, orDash(r.Location), r.Urgency, date(r.CreatedAt), requestFlag(r))
	}
	return tw.Flush()
}

// Recipient prints the recipient dashboard.
func Recipient(w io.Writer, s dashboard.RecipientSnapshot) error {
	if s.Loading {
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	}
	heading(w, fmt.Sprintf("Available donors (%d)", len(s.Donors)))
	if len(s.Donors) == 0 {
		fmt.Fprintln(w, "No donors found.")
	} else {
		tw := table(w)
		fmt.Fprintln(tw, "ID\tNAME\tBLOOD\tLOCATION\tPHONE\tDONATIONS")
		for _, d := range s.Donors {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
				d.ID, d.Name, d.BloodType, orDash(d.Location), orDash(d.Phone), d.TotalDonations)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	heading(w, fmt.Sprintf("My requests (%d)", len(s.MyRequests)))
	if len(s.MyRequests) == 0 {
		_, err := fmt.Fprintln(w, "No requests yet.")
		return err
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tSTATUS\tBLOOD\tURGENCY\tDONOR\tCREATED")
	for _, r := range s.MyRequests {
		donor := "-"
		if r.DonorName != nil {
			donor = *r.DonorName
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, strings.ToUpper(string(r.Status)), r.BloodType, r.Urgency, donor, date(r.CreatedAt))
	}
	return tw.Flush()
}

// Admin prints the admin dashboard with its selected tab.
func Admin(w io.Writer, s dashboard.AdminSnapshot) error {
	if s.Loading {
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	}
	if s.Banner != "" {
		fmt.Fprintf(w, "\n%s\n", s.Banner)
	}
	if st := s.Stats; st != nil {
		heading(w, "Overview")
		tw := table(w)
		fmt.Fprintf(tw, "Total donors:\t%d\tAvailable:\t%d\n", st.TotalDonors, st.AvailableDonors)
		fmt.Fprintf(tw, "Total requests:\t%d\tPending:\t%d\n", st.TotalRequests, st.PendingRequests)
		fmt.Fprintf(tw, "Completed:\t%d\tDonations:\t%d\n", st.CompletedRequests, st.TotalDonations)
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	switch s.Tab {
	case dashboard.TabBloodTypes:
		heading(w, "Blood type distribution")
		tw := table(w)
		fmt.Fprintln(tw, "TYPE\tDONORS")
		for _, c := range s.Distribution {
			fmt.Fprintf(tw, "%s\t%d\n", c.BloodType, c.Count)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	case dashboard.TabLeaderboard:
		heading(w, "Top donors")
		if err := Leaderboard(w, s.Leaderboard); err != nil {
			return err
		}
	default:
		heading(w, "Recent requests")
		tw := table(w)
		fmt.Fprintln(tw, "ID\tRECIPIENT\tBLOOD\tSTATUS\tURGENCY\tCREATED\t")
		for _, r := range s.RecentRequests {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, orDash(r.RecipientName), r.BloodType, r.Status, r.Urgency, date(r.CreatedAt), requestFlag(r))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	heading(w, "Recent activity")
	if len(s.Activities) == 0 {
		_, err := fmt.Fprintln(w, "No activity.")
		return err
	}
	tw := table(w)
	for _, a := range s.Activities {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", date(a.Timestamp), a.Type, a.Message)
	}
	return tw.Flush()
}

// Leaderboard prints ranked donors, medals first.
func Leaderboard(w io.Writer, board []dashboard.RankedDonor) error {
	tw := table(w)
	fmt.Fprintln(tw, "RANK\tNAME\tBLOOD\tDONATIONS\tLATEST")
	for _, d := range board {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			d.Badge(), d.Name, d.BloodType, d.TotalDonations, orDash(d.LatestAchievement()))
	}
	return tw.Flush()
}
