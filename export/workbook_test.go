package export

import (
	"path/filepath"
	"testing"

	"bloodlink/dashboard"
	"bloodlink/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func snapshot() dashboard.AdminSnapshot {
	donor := "Ann"
	return dashboard.AdminSnapshot{
		Stats: &models.Stats{TotalDonors: 2, EmergencyRequests: 1},
		Requests: []models.BloodRequest{
			{ID: "r-1", RecipientName: "Cy", BloodType: "O-", Urgency: models.UrgencyCritical, Status: models.StatusAccepted, IsEmergency: true, DonorName: &donor},
		},
		Distribution: []models.BloodTypeCount{{BloodType: "O-", Count: 1}},
		Leaderboard: []dashboard.RankedDonor{
			{LeaderboardEntry: models.LeaderboardEntry{Name: "Ann", BloodType: "O-", TotalDonations: 5, Achievements: []string{"Lifesaver"}}, Rank: 1, Medal: "🥇"},
		},
		Activities: []models.Activity{{Type: models.ActivityRequest, Message: "New request", UserName: "Cy"}},
	}
}

func TestAdminWorkbook(t *testing.T) {
	f, err := AdminWorkbook(snapshot())
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetStats, SheetRequests, SheetBloodTypes, SheetLeaderboard, SheetActivity}, f.GetSheetList())

	rows, err := f.GetRows(SheetRequests)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Recipient", rows[0][1])
	assert.Equal(t, "r-1", rows[1][0])
	assert.Equal(t, "Yes", rows[1][7])
	assert.Equal(t, "Ann", rows[1][8])

	rows, err = f.GetRows(SheetLeaderboard)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "Ann", "O-", "5", "Lifesaver"}, rows[1])

	rows, err = f.GetRows(SheetStats)
	require.NoError(t, err)
	assert.Equal(t, []string{"Emergency requests", "1"}, rows[len(rows)-1])
}

func TestWriteAdminWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin.xlsx")
	require.NoError(t, WriteAdminWorkbook(path, snapshot()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetBloodTypes)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Blood Type", "Donors"}, {"O-", "1"}}, rows)
}

func TestAdminWorkbook_EmptySnapshot(t *testing.T) {
	f, err := AdminWorkbook(dashboard.AdminSnapshot{})
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetActivity)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}
