package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"bloodlink/config"
	"bloodlink/handlers"
	"bloodlink/middleware"
	"bloodlink/models"
	"bloodlink/routes"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	adminEmail    = "admin@bloodlink.test"
	adminPassword = "admin-pass"
)

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	db     *gorm.DB
	auth   *middleware.Auth
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := config.OpenDB(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	_, err = handlers.EnsureAdmin(context.Background(), db, "Root", adminEmail, adminPassword)
	require.NoError(t, err)

	auth := middleware.NewAuth("test-secret", time.Hour, db)
	h := handlers.New(db, auth, zap.NewNop())
	return &testServer{t: t, engine: routes.NewEngine(h, auth, zap.NewNop()), db: db, auth: auth}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func detailOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, w)["detail"].(string)
}

func (s *testServer) register(reg models.Registration) models.AuthResponse {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", "", reg)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return decode[models.AuthResponse](s.t, w)
}

func (s *testServer) login(email, password string) models.AuthResponse {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: email, Password: password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return decode[models.AuthResponse](s.t, w)
}

func donorReg(name, email string, bt models.BloodType, location string) models.Registration {
	return models.Registration{
		Name: name, Email: email, Password: "pw-" + name, Phone: "555-0100",
		Role: models.RoleDonor, BloodType: bt, Location: location,
	}
}

func recipientReg(name, email, location string) models.Registration {
	return models.Registration{
		Name: name, Email: email, Password: "pw-" + name, Phone: "555-0199",
		Role: models.RoleRecipient, Location: location,
	}
}

func TestRegisterLoginProfile(t *testing.T) {
	s := newServer(t)

	reg := s.register(donorReg("Ann", "ann@example.com", "O-", "Boston"))
	assert.NotEmpty(t, reg.AccessToken)
	assert.Equal(t, "bearer", reg.TokenType)
	assert.Equal(t, models.RoleDonor, reg.User.Role)

	login := s.login("ann@example.com", "pw-Ann")
	assert.Equal(t, reg.User.ID, login.User.ID)

	w := s.do(http.MethodGet, "/api/profile", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[models.User](t, w)
	assert.Equal(t, models.RoleDonor, profile.Role)
	assert.Equal(t, "Boston", profile.Location)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(http.MethodGet, "/api/donors/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[models.DonorProfile](t, w)
	assert.Equal(t, models.BloodType("O-"), me.BloodType)
	assert.True(t, me.Available)
	assert.Equal(t, []string{}, me.Achievements)
}

func TestRegister_Rejections(t *testing.T) {
	s := newServer(t)
	s.register(recipientReg("Cy", "cy@example.com", "Austin"))

	w := s.do(http.MethodPost, "/api/auth/register", "", recipientReg("Cy", "CY@example.com", "Austin"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already registered", detailOf(t, w))

	admin := recipientReg("Eve", "eve@example.com", "Austin")
	admin.Role = models.RoleAdmin
	w = s.do(http.MethodPost, "/api/auth/register", "", admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	bad := donorReg("Bo", "bo@example.com", "Z+", "Boston")
	w = s.do(http.MethodPost, "/api/auth/register", "", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid blood type", detailOf(t, w))

	w = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/auth/register", "", recipientReg("Gil", "gil@example.com", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code, "location is required")
	assert.Contains(t, detailOf(t, w), "Location")
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newServer(t)
	s.register(recipientReg("Cy", "cy@example.com", "Austin"))

	w := s.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "cy@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", detailOf(t, w))
}

func TestAuthMiddleware(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/profile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Could not validate credentials", detailOf(t, w))

	expired := middleware.NewAuth("test-secret", -time.Minute, s.db)
	token, err := expired.GenerateToken(&models.User{ID: "whoever", Role: models.RoleDonor})
	require.NoError(t, err)
	w = s.do(http.MethodGet, "/api/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token has expired", detailOf(t, w))

	ghost, err := s.auth.GenerateToken(&models.User{ID: "deleted-user", Role: models.RoleDonor})
	require.NoError(t, err)
	w = s.do(http.MethodGet, "/api/profile", ghost, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "User not found", detailOf(t, w))
}

func TestRoleGuards(t *testing.T) {
	s := newServer(t)
	donor := s.register(donorReg("Ann", "ann@example.com", "O-", "Boston"))
	recipient := s.register(recipientReg("Cy", "cy@example.com", "Austin"))

	w := s.do(http.MethodGet, "/api/donors/me", recipient.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/blood-requests", donor.AccessToken, models.BloodRequestCreate{
		BloodType: "O-", Location: "Boston", Urgency: models.UrgencyLow,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/stats", recipient.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(http.MethodGet, "/api/activities", donor.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAvailabilityAndDonorSearch(t *testing.T) {
	s := newServer(t)
	s.register(donorReg("Ann", "ann@example.com", "O-", "Boston, MA"))
	bo := s.register(donorReg("Bo", "bo@example.com", "O-", "Boston"))
	s.register(donorReg("Di", "di@example.com", "A+", "Boston"))
	s.register(donorReg("Ed", "ed@example.com", "O-", "Denver"))
	cy := s.register(recipientReg("Cy", "cy@example.com", "Austin"))

	off := false
	w := s.do(http.MethodPut, "/api/donors/me/availability", bo.AccessToken, models.AvailabilityUpdate{Available: &off})
	require.Equal(t, http.StatusOK, w.Code)
	ack := decode[models.AvailabilityAck](t, w)
	assert.False(t, ack.Available)

	w = s.do(http.MethodPut, "/api/donors/me/availability", bo.AccessToken, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/donors?available=true&blood_type=O-&location=boston", cy.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	donors := decode[[]models.DonorProfile](t, w)
	require.Len(t, donors, 1)
	assert.Equal(t, "Ann", donors[0].Name)
	assert.Equal(t, "ann@example.com", donors[0].Email)

	w = s.do(http.MethodGet, "/api/donors", cy.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.DonorProfile](t, w), 4)

	w = s.do(http.MethodGet, "/api/donors?available=maybe", cy.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListBloodRequests_DonorSeesOnlyOwnTargets(t *testing.T) {
	s := newServer(t)
	ann := s.register(donorReg("Ann", "ann@example.com", "O-", "Boston"))
	bo := s.register(donorReg("Bo", "bo@example.com", "O-", "Boston"))
	cy := s.register(recipientReg("Cy", "cy@example.com", "Austin"))
	annProfile := decode[models.DonorProfile](t, s.do(http.MethodGet, "/api/donors/me", ann.AccessToken, nil))

	w := s.do(http.MethodPost, "/api/blood-requests", cy.AccessToken, models.BloodRequestCreate{
		BloodType: "O-", Location: "Boston", Urgency: models.UrgencyHigh, DonorID: &annProfile.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	targeted := decode[models.BloodRequest](t, w)
	w = s.do(http.MethodPost, "/api/blood-requests", cy.AccessToken, models.BloodRequestCreate{
		BloodType: "O-", Location: "Boston", Urgency: models.UrgencyMedium,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	general := decode[models.BloodRequest](t, w)

	annList := decode[[]models.BloodRequest](t, s.do(http.MethodGet, "/api/blood-requests", ann.AccessToken, nil))
	assert.Len(t, annList, 2)

	boList := decode[[]models.BloodRequest](t, s.do(http.MethodGet, "/api/blood-requests", bo.AccessToken, nil))
	require.Len(t, boList, 1)
	assert.Equal(t, general.ID, boList[0].ID)
	assert.NotEqual(t, targeted.ID, boList[0].ID)
}

func TestBloodRequestLifecycle(t *testing.T) {
	s := newServer(t)
	ann := s.register(donorReg("Ann", "ann@example.com", "O-", "Boston"))
	di := s.register(donorReg("Di", "di@example.com", "A+", "Boston"))
	cy := s.register(recipientReg("Cy", "cy@example.com", "Austin"))
	admin := s.login(adminEmail, adminPassword)

	me := decode[models.DonorProfile](t, s.do(http.MethodGet, "/api/donors/me", ann.AccessToken, nil))

	// targeted, critical
	w := s.do(http.MethodPost, "/api/blood-requests", cy.AccessToken, models.BloodRequestCreate{
		BloodType: "O-", Location: "Boston", Urgency: models.UrgencyCritical, Message: "surgery", DonorID: &me.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode[models.BloodRequest](t, w)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.True(t, created.IsEmergency)
	require.NotNil(t, created.DonorName)
	assert.Equal(t, "Ann", *created.DonorName)
	assert.Equal(t, "Cy", created.RecipientName)

	// general, low
	w = s.do(http.MethodPost, "/api/blood-requests", cy.AccessToken, models.BloodRequestCreate{
		BloodType: "A+", Location: "Austin", Urgency: models.UrgencyLow,
	})
	require.Equal(t, http.StatusOK, w.Code)
	general := decode[models.BloodRequest](t, w)
	assert.Nil(t, general.DonorID)
	assert.False(t, general.IsEmergency)

	// scoping
	annList := decode[[]models.BloodRequest](t, s.do(http.MethodGet, "/api/blood-requests", ann.AccessToken, nil))
	require.Len(t, annList, 1)
	assert.Equal(t, created.ID, annList[0].ID)
	diList := decode[[]models.BloodRequest](t, s.do(http.MethodGet, "/api/blood-requests", di.AccessToken, nil))
	require.Len(t, diList, 1)
	assert.Equal(t, general.ID, diList[0].ID)
	cyList := decode[[]models.BloodRequest](t, s.do(http.MethodGet, "/api/blood-requests", cy.AccessToken, nil))
	assert.Len(t, cyList, 2)

	stats := decode[models.Stats](t, s.do(http.MethodGet, "/api/stats", admin.AccessToken, nil))
	assert.Equal(t, 2, stats.TotalDonors)
	assert.Equal(t, 2, stats.PendingRequests)
	assert.Equal(t, 1, stats.EmergencyRequests)

	// Di cannot take Ann's request
	w = s.do(http.MethodPut, "/api/blood-requests/"+created.ID, di.AccessToken, models.StatusUpdate{Status: models.StatusAccepted})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Ann accepts
	w = s.do(http.MethodPut, "/api/blood-requests/"+created.ID, ann.AccessToken, models.StatusUpdate{Status: models.StatusAccepted})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusAccepted, decode[models.BloodRequest](t, w).Status)

	// never back to pending, no double accept
	w = s.do(http.MethodPut, "/api/blood-requests/"+created.ID, ann.AccessToken, models.StatusUpdate{Status: models.StatusAccepted})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = s.do(http.MethodPut, "/api/blood-requests/"+created.ID, admin.AccessToken, models.StatusUpdate{Status: models.StatusPending})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Di accepts the general one and becomes its donor
	w = s.do(http.MethodPut, "/api/blood-requests/"+general.ID, di.AccessToken, models.StatusUpdate{Status: models.StatusAccepted})
	require.Equal(t, http.StatusOK, w.Code)
	taken := decode[models.BloodRequest](t, w)
	require.NotNil(t, taken.DonorName)
	assert.Equal(t, "Di", *taken.DonorName)

	// admin completes Ann's request
	w = s.do(http.MethodPut, "/api/blood-requests/"+created.ID, admin.AccessToken, models.StatusUpdate{Status: models.StatusCompleted})
	require.Equal(t, http.StatusOK, w.Code)

	me = decode[models.DonorProfile](t, s.do(http.MethodGet, "/api/donors/me", ann.AccessToken, nil))
	assert.Equal(t, 1, me.TotalDonations)
	assert.NotNil(t, me.LastDonationDate)
	assert.Equal(t, []string{"First Donation"}, me.Achievements)

	board := decode[[]models.LeaderboardEntry](t, s.do(http.MethodGet, "/api/donors/leaderboard", cy.AccessToken, nil))
	require.Len(t, board, 2)
	assert.Equal(t, "Ann", board[0].Name)
	assert.Equal(t, "First Donation", board[0].LatestAchievement())

	stats = decode[models.Stats](t, s.do(http.MethodGet, "/api/stats", admin.AccessToken, nil))
	assert.Equal(t, 1, stats.CompletedRequests)
	assert.Equal(t, 1, stats.TotalDonations)
	assert.Equal(t, 0, stats.EmergencyRequests)
	assert.Len(t, stats.BloodTypeDistribution, 2)

	activities := decode[[]models.Activity](t, s.do(http.MethodGet, "/api/activities", admin.AccessToken, nil))
	require.NotEmpty(t, activities)
	assert.Equal(t, models.ActivityDonation, activities[0].Type)
}

func TestUpdateBloodRequest_Rejections(t *testing.T) {
	s := newServer(t)
	cy := s.register(recipientReg("Cy", "cy@example.com", "Austin"))
	fay := s.register(recipientReg("Fay", "fay@example.com", "Austin"))

	created := decode[models.BloodRequest](t, s.do(http.MethodPost, "/api/blood-requests", cy.AccessToken, models.BloodRequestCreate{
		BloodType: "B+", Location: "Austin", Urgency: models.UrgencyHigh,
	}))

	w := s.do(http.MethodPut, "/api/blood-requests/missing", cy.AccessToken, models.StatusUpdate{Status: models.StatusCancelled})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Request not found", detailOf(t, w))

	w = s.do(http.MethodPut, "/api/blood-requests/"+created.ID, fay.AccessToken, models.StatusUpdate{Status: models.StatusCancelled})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, "/api/blood-requests/"+created.ID, cy.AccessToken, models.StatusUpdate{Status: "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/blood-requests/"+created.ID, cy.AccessToken, models.StatusUpdate{Status: models.StatusAccepted})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPut, "/api/blood-requests/"+created.ID, cy.AccessToken, models.StatusUpdate{Status: models.StatusCancelled})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusCancelled, decode[models.BloodRequest](t, w).Status)

	w = s.do(http.MethodPost, "/api/blood-requests", cy.AccessToken, models.BloodRequestCreate{
		BloodType: "B+", Location: "Austin", Urgency: "whenever",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnsureAdmin(t *testing.T) {
	s := newServer(t)

	created, err := handlers.EnsureAdmin(context.Background(), s.db, "Root", adminEmail, adminPassword)
	require.NoError(t, err)
	assert.False(t, created, "already seeded")

	created, err = handlers.EnsureAdmin(context.Background(), s.db, "Root", "", "")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = handlers.EnsureAdmin(context.Background(), s.db, "Root", "other@bloodlink.test", "")
	assert.Error(t, err)

	admin := s.login(adminEmail, adminPassword)
	assert.Equal(t, models.RoleAdmin, admin.User.Role)
}

func TestPublicEndpoints(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]any](t, w)["status"])

	w = s.do(http.MethodGet, "/api/state-machine", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[map[string]any](t, w)
	assert.Len(t, info["state_machine"], 7)
	assert.ElementsMatch(t, []any{"completed", "cancelled"}, info["terminal_states"])

	w = s.do(http.MethodOptions, "/api/profile", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
