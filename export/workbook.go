// Package export writes the admin overview to an Excel workbook.
package export

import (
	"fmt"
	"time"

	"bloodlink/dashboard"

	"github.com/xuri/excelize/v2"
)

const (
	SheetStats       = "Stats"
	SheetRequests    = "Requests"
	SheetBloodTypes  = "Blood Types"
	SheetLeaderboard = "Leaderboard"
	SheetActivity    = "Activity"
)

const timeLayout = "2006-01-02 15:04:05"

type sheet struct {
	name    string
	headers []string
	widths  []float64
	rows    [][]any
}

// AdminWorkbook builds a workbook with one sheet per admin panel. The caller
// closes the returned file.
func AdminWorkbook(s dashboard.AdminSnapshot) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#FDE2E2"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sh := range adminSheets(s) {
		idx, err := f.NewSheet(sh.name)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", sh.name, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		if err := writeSheet(f, sh, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.DeleteSheet("Sheet1")
	return f, nil
}

// WriteAdminWorkbook saves the admin workbook at path.
func WriteAdminWorkbook(path string, s dashboard.AdminSnapshot) error {
	f, err := AdminWorkbook(s)
	if err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		f.Close()
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return f.Close()
}

func writeSheet(f *excelize.File, sh sheet, headerStyle int) error {
	header := make([]any, len(sh.headers))
	for i, h := range sh.headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sh.name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sh.name, err)
	}
	last, err := excelize.CoordinatesToCellName(len(sh.headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sh.name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sh.name, err)
	}

	for i, w := range sh.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sh.name, col, col, w); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, row := range sh.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sh.name, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sh.name, i+2, err)
		}
	}

	return f.SetPanes(sh.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func adminSheets(s dashboard.AdminSnapshot) []sheet {
	stats := sheet{
		name:    SheetStats,
		headers: []string{"Metric", "Value"},
		widths:  []float64{24, 12},
	}
	if st := s.Stats; st != nil {
		stats.rows = [][]any{
			{"Total donors", st.TotalDonors},
			{"Available donors", st.AvailableDonors},
			{"Total requests", st.TotalRequests},
			{"Pending requests", st.PendingRequests},
			{"Completed requests", st.CompletedRequests},
			{"Total donations", st.TotalDonations},
			{"Emergency requests", st.EmergencyRequests},
		}
	}

	requests := sheet{
		name:    SheetRequests,
		headers: []string{"ID", "Recipient", "Phone", "Blood Type", "Location", "Urgency", "Status", "Emergency", "Donor", "Created"},
		widths:  []float64{38, 20, 16, 12, 20, 12, 12, 12, 20, 20},
	}
	for _, r := range s.Requests {
		donor := ""
		if r.DonorName != nil {
			donor = *r.DonorName
		}
		requests.rows = append(requests.rows, []any{
			r.ID, r.RecipientName, r.RecipientPhone, string(r.BloodType), r.Location,
			string(r.Urgency), string(r.Status), yesNo(r.IsEmergency), donor, formatTime(r.CreatedAt),
		})
	}

	types := sheet{
		name:    SheetBloodTypes,
		headers: []string{"Blood Type", "Donors"},
		widths:  []float64{12, 10},
	}
	for _, c := range s.Distribution {
		types.rows = append(types.rows, []any{string(c.BloodType), c.Count})
	}

	board := sheet{
		name:    SheetLeaderboard,
		headers: []string{"Rank", "Name", "Blood Type", "Donations", "Latest Achievement"},
		widths:  []float64{8, 20, 12, 12, 24},
	}
	for _, d := range s.Leaderboard {
		board.rows = append(board.rows, []any{d.Rank, d.Name, string(d.BloodType), d.TotalDonations, d.LatestAchievement()})
	}

	activity := sheet{
		name:    SheetActivity,
		headers: []string{"Time", "Type", "User", "Message"},
		widths:  []float64{20, 12, 20, 50},
	}
	for _, a := range s.Activities {
		activity.rows = append(activity.rows, []any{formatTime(a.Timestamp), string(a.Type), a.UserName, a.Message})
	}

	return []sheet{stats, requests, types, board, activity}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
