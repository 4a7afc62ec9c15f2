package dashboard

import (
	"context"
	"fmt"
	"strconv"

	"bloodlink/models"

	"golang.org/x/sync/errgroup"
)

// AdminAPI is the part of the backend the admin dashboard reads.
type AdminAPI interface {
	Stats(ctx context.Context) (*models.Stats, error)
	ListBloodRequests(ctx context.Context) ([]models.BloodRequest, error)
	Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
	Activities(ctx context.Context) ([]models.Activity, error)
}

// Tab of the admin dashboard.
type Tab string

const (
	TabRequests    Tab = "requests"
	TabBloodTypes  Tab = "blood-types"
	TabLeaderboard Tab = "leaderboard"
)

// Tabs lists the admin tabs in display order.
var Tabs = []Tab{TabRequests, TabBloodTypes, TabLeaderboard}

func (t Tab) Valid() bool {
	for _, v := range Tabs {
		if v == t {
			return true
		}
	}
	return false
}

const recentRequestLimit = 10

var medals = []string{"🥇", "🥈", "🥉"}

// Medal returns the medal for a 1-based leaderboard rank, or "".
func Medal(rank int) string {
	if rank >= 1 && rank <= len(medals) {
		return medals[rank-1]
	}
	return ""
}

// RankedDonor is a leaderboard row with its position.
type RankedDonor struct {
	models.LeaderboardEntry
	Rank  int
	Medal string
}

// Badge is the medal for the top three and the plain rank after that.
func (r RankedDonor) Badge() string {
	if r.Medal != "" {
		return r.Medal
	}
	return strconv.Itoa(r.Rank)
}

// AdminDashboard is the read-only platform overview.
type AdminDashboard struct {
	view
	api AdminAPI

	stats       *models.Stats
	requests    []models.BloodRequest
	leaderboard []models.LeaderboardEntry
	activities  []models.Activity
	tab         Tab
}

// AdminSnapshot is a consistent copy of the admin dashboard for rendering
// and export.
type AdminSnapshot struct {
	Loading        bool
	Stats          *models.Stats
	Banner         string
	Tab            Tab
	Requests       []models.BloodRequest
	RecentRequests []models.BloodRequest
	Distribution   []models.BloodTypeCount
	Leaderboard    []RankedDonor
	Activities     []models.Activity
}

func NewAdminDashboard(ctx context.Context, api AdminAPI, deps Deps) *AdminDashboard {
	a := &AdminDashboard{api: api, tab: TabRequests}
	a.init(ctx, deps, string(ViewAdmin))
	return a
}

// Load fetches stats, requests, leaderboard and activity concurrently. Every
// fetch that succeeds is applied even when another fails; any failure is
// reported once.
func (a *AdminDashboard) Load() error {
	defer a.doneLoading()

	var g errgroup.Group
	g.Go(func() error {
		s, err := a.api.Stats(a.ctx)
		if err != nil {
			return err
		}
		a.apply(func() { a.stats = s })
		return nil
	})
	g.Go(func() error {
		r, err := a.api.ListBloodRequests(a.ctx)
		if err != nil {
			return err
		}
		a.apply(func() { a.requests = r })
		return nil
	})
	g.Go(func() error {
		l, err := a.api.Leaderboard(a.ctx)
		if err != nil {
			return err
		}
		a.apply(func() { a.leaderboard = l })
		return nil
	})
	g.Go(func() error {
		act, err := a.api.Activities(a.ctx)
		if err != nil {
			return err
		}
		a.apply(func() { a.activities = act })
		return nil
	})
	if err := g.Wait(); err != nil {
		return a.fail(err, "Failed to load data")
	}
	if a.closed() {
		return ErrViewClosed
	}
	return nil
}

func (a *AdminDashboard) apply(set func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed() {
		return
	}
	set()
}

func (a *AdminDashboard) Stats() *models.Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyStats(a.stats)
}

// EmergencyBanner returns the alert text while emergency requests are pending.
func (a *AdminDashboard) EmergencyBanner() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return emergencyBanner(a.stats)
}

func emergencyBanner(s *models.Stats) (string, bool) {
	if s == nil || s.EmergencyRequests <= 0 {
		return "", false
	}
	return fmt.Sprintf("🚨 Emergency Alert: %d emergency blood request(s) require immediate attention!", s.EmergencyRequests), true
}

// RecentRequests is the head of the request list as returned by the backend.
func (a *AdminDashboard) RecentRequests() []models.BloodRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return recent(a.requests)
}

func recent(in []models.BloodRequest) []models.BloodRequest {
	n := len(in)
	if n > recentRequestLimit {
		n = recentRequestLimit
	}
	return append([]models.BloodRequest{}, in[:n]...)
}

func (a *AdminDashboard) Distribution() []models.BloodTypeCount {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stats == nil {
		return []models.BloodTypeCount{}
	}
	return append([]models.BloodTypeCount{}, a.stats.BloodTypeDistribution...)
}

// Leaderboard ranks donors in backend order starting at 1.
func (a *AdminDashboard) Leaderboard() []RankedDonor {
	a.mu.Lock()
	defer a.mu.Unlock()
	return rank(a.leaderboard)
}

func rank(entries []models.LeaderboardEntry) []RankedDonor {
	out := make([]RankedDonor, 0, len(entries))
	for i, e := range entries {
		out = append(out, RankedDonor{LeaderboardEntry: e, Rank: i + 1, Medal: Medal(i + 1)})
	}
	return out
}

func (a *AdminDashboard) Activities() []models.Activity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.Activity{}, a.activities...)
}

func (a *AdminDashboard) SelectTab(t Tab) error {
	if !t.Valid() {
		return fmt.Errorf("unknown tab %q", t)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tab = t
	return nil
}

func (a *AdminDashboard) Tab() Tab {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tab
}

func (a *AdminDashboard) Snapshot() AdminSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	banner, _ := emergencyBanner(a.stats)
	snap := AdminSnapshot{
		Loading:        a.loading,
		Stats:          copyStats(a.stats),
		Banner:         banner,
		Tab:            a.tab,
		Requests:       append([]models.BloodRequest{}, a.requests...),
		RecentRequests: recent(a.requests),
		Distribution:   []models.BloodTypeCount{},
		Leaderboard:    rank(a.leaderboard),
		Activities:     append([]models.Activity{}, a.activities...),
	}
	if a.stats != nil {
		snap.Distribution = append(snap.Distribution, a.stats.BloodTypeDistribution...)
	}
	return snap
}

func copyStats(s *models.Stats) *models.Stats {
	if s == nil {
		return nil
	}
	out := *s
	out.BloodTypeDistribution = append([]models.BloodTypeCount(nil), s.BloodTypeDistribution...)
	return &out
}
