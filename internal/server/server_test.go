package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hiretrack/internal/auth"
	"hiretrack/internal/config"
	"hiretrack/internal/errors"
	"hiretrack/internal/observability"
	"hiretrack/internal/store"
	"hiretrack/internal/types"
)

// testEnv bundles a server wired against an in-memory store.
type testEnv struct {
	store   *store.Store
	auth    *auth.Manager
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.Open(store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	authMgr, err := auth.NewManager("test-secret-test-secret", time.Hour)
	require.NoError(t, err)

	appCfg := &config.Config{}
	logger := errors.NewLogger(slog.LevelError)

	srv := NewServer(appCfg, ServerConfig{
		Host:           "127.0.0.1",
		Port:           "0",
		Version:        "test",
		MaxRequestSize: 1 << 20,
	}, st, authMgr, logger)

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{}, appCfg)
	require.NoError(t, err)

	return &testEnv{store: st, auth: authMgr, handler: srv.setupRoutes(om)}
}

// seedUser creates an account directly in the store and returns it with
// a valid bearer token.
func (e *testEnv) seedUser(t *testing.T, name, email string, role types.Role) (*types.User, string) {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &types.User{FullName: name, Email: email, Role: role, PasswordHash: hash}
	require.NoError(t, e.store.CreateUser(context.Background(), user))

	token, err := e.auth.Issue(user)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"full_name": "Ada Candidate",
		"email":     "Ada@Example.com",
		"password":  "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created tokenResponse
	decodeBody(t, rec, &created)
	require.NotEmpty(t, created.Token)
	require.Equal(t, "ada@example.com", created.User.Email)
	require.Equal(t, types.RoleCandidate, created.User.Role)

	// Duplicate registration conflicts regardless of email case.
	rec = env.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"full_name": "Ada Again",
		"email":     "ada@example.com",
		"password":  "password123",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "ada@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var login tokenResponse
	decodeBody(t, rec, &login)

	rec = env.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "ada@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing fields", map[string]any{"email": "x@y.com"}, http.StatusBadRequest},
		{"short password", map[string]any{"full_name": "X", "email": "x@y.com", "password": "short"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			require.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/applications", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/applications", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleEnforcement(t *testing.T) {
	env := newTestEnv(t)
	_, candidateToken := env.seedUser(t, "Cara Candidate", "cara@example.com", types.RoleCandidate)

	rec := env.do(t, http.MethodGet, "/api/users", candidateToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/jobs", candidateToken, map[string]any{"title": "Nope"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminCreatesUsers(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.seedUser(t, "Ann Admin", "ann@example.com", types.RoleAdmin)
	_, candidateToken := env.seedUser(t, "Cara Candidate", "cara@example.com", types.RoleCandidate)

	rec := env.do(t, http.MethodPost, "/api/users", adminToken, map[string]any{
		"full_name": "Rex Recruiter",
		"email":     "rex@example.com",
		"password":  "password123",
		"role":      "recruiter",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created types.User
	decodeBody(t, rec, &created)
	require.Equal(t, types.RoleRecruiter, created.Role)

	rec = env.do(t, http.MethodPost, "/api/users", adminToken, map[string]any{
		"full_name": "Dup",
		"email":     "rex@example.com",
		"password":  "password123",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/users", adminToken, map[string]any{
		"full_name": "Bad Role",
		"email":     "bad@example.com",
		"password":  "password123",
		"role":      "overlord",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/users", candidateToken, map[string]any{
		"full_name": "Sneaky",
		"email":     "sneaky@example.com",
		"password":  "password123",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestJobsMineFilter(t *testing.T) {
	env := newTestEnv(t)
	_, raeToken := env.seedUser(t, "Rae Recruiter", "rae@example.com", types.RoleRecruiter)
	_, onaToken := env.seedUser(t, "Ona Other", "ona@example.com", types.RoleRecruiter)

	rec := env.do(t, http.MethodPost, "/api/jobs", raeToken, map[string]any{"title": "Rae Job"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/jobs", onaToken, map[string]any{"title": "Ona Job"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/jobs?mine=true", raeToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Jobs []types.Job `json:"jobs"`
	}
	decodeBody(t, rec, &listing)
	require.Len(t, listing.Jobs, 1)
	require.Equal(t, "Rae Job", listing.Jobs[0].Title)

	rec = env.do(t, http.MethodGet, "/api/jobs?mine=true", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJobLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	recruiter, recruiterToken := env.seedUser(t, "Rae Recruiter", "rae@example.com", types.RoleRecruiter)
	_, otherToken := env.seedUser(t, "Ona Other", "ona@example.com", types.RoleRecruiter)

	rec := env.do(t, http.MethodPost, "/api/jobs", recruiterToken, map[string]any{
		"title":       "Backend Engineer",
		"description": "Go services",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var job types.Job
	decodeBody(t, rec, &job)
	require.Equal(t, "backend-engineer", job.Slug)
	require.Equal(t, "open", job.Status)
	require.NotNil(t, job.PostedBy)
	require.Equal(t, recruiter.ID, *job.PostedBy)

	// Listing is public.
	rec = env.do(t, http.MethodGet, "/api/jobs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Another recruiter cannot touch this posting.
	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/jobs/%d", job.ID), otherToken, map[string]any{
		"title": "Hijacked",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/jobs/%d", job.ID), recruiterToken, map[string]any{
		"status": "closed",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Closed jobs reject applications.
	rec = env.do(t, http.MethodPost, "/api/applications", "", map[string]any{
		"job_id":    job.ID,
		"full_name": "Late Applicant",
		"email":     "late@example.com",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplicationFlow(t *testing.T) {
	env := newTestEnv(t)
	_, recruiterToken := env.seedUser(t, "Rae Recruiter", "rae@example.com", types.RoleRecruiter)

	rec := env.do(t, http.MethodPost, "/api/jobs", recruiterToken, map[string]any{
		"title": "Backend Engineer",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var job types.Job
	decodeBody(t, rec, &job)

	// Applying is public, no token required.
	rec = env.do(t, http.MethodPost, "/api/applications", "", map[string]any{
		"job_id":    job.ID,
		"full_name": "Ada Applicant",
		"email":     "Ada@Example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var app types.Application
	decodeBody(t, rec, &app)
	require.Equal(t, "submitted", app.Status)

	// The owning recruiter sees the application.
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/applications?job_id=%d", job.ID), recruiterToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Applications []types.Application `json:"applications"`
	}
	decodeBody(t, rec, &listed)
	require.Len(t, listed.Applications, 1)

	// A candidate account with the matching email sees only their own.
	_, adaToken := env.seedUser(t, "Ada Applicant", "ada@example.com", types.RoleCandidate)
	rec = env.do(t, http.MethodGet, "/api/applications", adaToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &listed)
	require.Len(t, listed.Applications, 1)

	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/applications/%d/status", app.ID), recruiterToken, map[string]any{
		"status": "screening",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/applications/%d/status", app.ID), recruiterToken, map[string]any{
		"status": "bogus",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// The status change produced a notification for the candidate.
	rec = env.do(t, http.MethodGet, "/api/notifications", adaToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var notifications struct {
		Notifications []types.Notification `json:"notifications"`
	}
	decodeBody(t, rec, &notifications)
	require.NotEmpty(t, notifications.Notifications)
}

func TestScreeningEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, recruiterToken := env.seedUser(t, "Rae Recruiter", "rae@example.com", types.RoleRecruiter)
	_, otherToken := env.seedUser(t, "Ona Other", "ona@example.com", types.RoleRecruiter)

	rec := env.do(t, http.MethodPost, "/api/jobs", recruiterToken, map[string]any{
		"title": "Backend Engineer",
		"requirements": map[string]any{
			"scores": map[string]any{
				"go":  map[string]any{"min": 50, "important": true},
				"sql": map[string]any{"min": 40},
			},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var job types.Job
	decodeBody(t, rec, &job)

	// Two applicants: one with a strong profile, one with no account.
	_, strongToken := env.seedUser(t, "Sam Strong", "sam@example.com", types.RoleCandidate)
	rec = env.do(t, http.MethodPut, "/api/profile", strongToken, map[string]any{
		"scores": map[string]float64{"go": 80, "sql": 60},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	for _, applicant := range []struct{ name, email string }{
		{"Sam Strong", "Sam@Example.com"},
		{"Nel Noaccount", "nel@example.com"},
	} {
		rec = env.do(t, http.MethodPost, "/api/applications", "", map[string]any{
			"job_id":    job.ID,
			"full_name": applicant.name,
			"email":     applicant.email,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/evaluations/screening?job_id=%d", job.ID), recruiterToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report struct {
		Job struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
		} `json:"job"`
		Results []struct {
			Email   string `json:"email"`
			Status  string `json:"status"`
			Percent int    `json:"percent"`
		} `json:"results"`
	}
	decodeBody(t, rec, &report)
	require.Equal(t, job.ID, report.Job.ID)
	require.Len(t, report.Results, 2)

	// Strong applicant ranks first: (80/50 + 60/40)/2 = 155%.
	require.Equal(t, "Sam@Example.com", report.Results[0].Email)
	require.Equal(t, 155, report.Results[0].Percent)
	require.Equal(t, "meets-all", report.Results[0].Status)

	// No account degrades to the empty snapshot, not an error.
	require.Equal(t, "nel@example.com", report.Results[1].Email)
	require.Equal(t, 0, report.Results[1].Percent)
	require.Equal(t, "partial:0%", report.Results[1].Status)

	// Bad and missing job ids.
	rec = env.do(t, http.MethodGet, "/api/evaluations/screening", recruiterToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/evaluations/screening?job_id=abc", recruiterToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/evaluations/screening?job_id=99999", recruiterToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// A recruiter who does not own the job is refused.
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/evaluations/screening?job_id=%d", job.ID), otherToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInterviewAndOfferFlow(t *testing.T) {
	env := newTestEnv(t)
	_, recruiterToken := env.seedUser(t, "Rae Recruiter", "rae@example.com", types.RoleRecruiter)

	rec := env.do(t, http.MethodPost, "/api/jobs", recruiterToken, map[string]any{"title": "Backend Engineer"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var job types.Job
	decodeBody(t, rec, &job)

	rec = env.do(t, http.MethodPost, "/api/applications", "", map[string]any{
		"job_id":    job.ID,
		"full_name": "Ada Applicant",
		"email":     "ada@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var app types.Application
	decodeBody(t, rec, &app)

	rec = env.do(t, http.MethodPost, "/api/interviews", recruiterToken, map[string]any{
		"application_id": app.ID,
		"scheduled_at":   time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"mode":           "video",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var iv types.Interview
	decodeBody(t, rec, &iv)
	require.Equal(t, "scheduled", iv.Status)

	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/interviews/%d", iv.ID), recruiterToken, map[string]any{
		"status": "completed",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/offers", recruiterToken, map[string]any{
		"application_id": app.ID,
		"start_date":     time.Now().Add(30 * 24 * time.Hour).UTC().Format(time.RFC3339),
		"position":       "Backend Engineer",
		"salary":         "competitive",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/offers", recruiterToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCriteriaCatalogOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.seedUser(t, "Abe Admin", "abe@example.com", types.RoleAdmin)
	_, recruiterToken := env.seedUser(t, "Rae Recruiter", "rae@example.com", types.RoleRecruiter)

	rec := env.do(t, http.MethodPost, "/api/criteria", adminToken, map[string]any{
		"key":   "go",
		"label": "Go proficiency",
		"min":   0,
		"max":   100,
		"step":  5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Only admins manage the catalog.
	rec = env.do(t, http.MethodPost, "/api/criteria", recruiterToken, map[string]any{
		"key":   "sql",
		"label": "SQL",
		"min":   0,
		"max":   100,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Browsing is public.
	rec = env.do(t, http.MethodGet, "/api/criteria", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var criteria struct {
		Criteria []types.CriterionDef `json:"criteria"`
	}
	decodeBody(t, rec, &criteria)
	require.Len(t, criteria.Criteria, 1)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health map[string]any
	decodeBody(t, rec, &health)
	require.Equal(t, "healthy", health["status"])
	require.Equal(t, "hiretrack", health["service"])
}

func TestAdminNotificationListing(t *testing.T) {
	env := newTestEnv(t)
	admin, adminToken := env.seedUser(t, "Ann Admin", "ann@example.com", types.RoleAdmin)
	cand, candToken := env.seedUser(t, "Cara Candidate", "cara@example.com", types.RoleCandidate)

	for _, n := range []*types.Notification{
		{UserID: cand.ID, Title: "For Cara"},
		{UserID: admin.ID, Title: "For Ann"},
	} {
		require.NoError(t, env.store.CreateNotification(context.Background(), n))
	}

	var listing struct {
		Notifications []types.Notification `json:"notifications"`
	}

	// Admins see everyone's notifications by default.
	rec := env.do(t, http.MethodGet, "/api/notifications", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &listing)
	require.Len(t, listing.Notifications, 2)

	// mine=true narrows the admin to their own.
	rec = env.do(t, http.MethodGet, "/api/notifications?mine=true", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listing.Notifications = nil
	decodeBody(t, rec, &listing)
	require.Len(t, listing.Notifications, 1)
	require.Equal(t, "For Ann", listing.Notifications[0].Title)

	// Everyone else only ever sees their own, flag or not.
	rec = env.do(t, http.MethodGet, "/api/notifications", candToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listing.Notifications = nil
	decodeBody(t, rec, &listing)
	require.Len(t, listing.Notifications, 1)
	require.Equal(t, "For Cara", listing.Notifications[0].Title)
}

func TestResultRecordingAndHiredOffer(t *testing.T) {
	env := newTestEnv(t)
	_, recruiterToken := env.seedUser(t, "Rae Recruiter", "rae@example.com", types.RoleRecruiter)
	cand, _ := env.seedUser(t, "Hal Hired", "hal@example.com", types.RoleCandidate)

	rec := env.do(t, http.MethodPost, "/api/jobs", recruiterToken, map[string]any{"title": "SRE"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var job types.Job
	decodeBody(t, rec, &job)

	rec = env.do(t, http.MethodPost, "/api/applications", "", map[string]any{
		"job_id":    job.ID,
		"full_name": "Hal Hired",
		"email":     "hal@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var app types.Application
	decodeBody(t, rec, &app)

	rec = env.do(t, http.MethodPost, "/api/results", recruiterToken, map[string]any{
		"application_id": app.ID,
		"result":         "hired",
		"notes":          "strong interviews",
		"offer":          map[string]any{"position": "SRE II", "salary": "ample"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var result types.Result
	decodeBody(t, rec, &result)
	require.Equal(t, "hired", result.Outcome)
	require.Equal(t, "hal@example.com", result.Email)

	// A passing outcome extends an offer automatically.
	rec = env.do(t, http.MethodGet, "/api/offers", recruiterToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var offers struct {
		Offers []types.Offer `json:"offers"`
	}
	decodeBody(t, rec, &offers)
	require.Len(t, offers.Offers, 1)
	require.Equal(t, app.ID, offers.Offers[0].ApplicationID)
	require.Equal(t, "SRE II", offers.Offers[0].Position)

	// The candidate account got the offer notification.
	notifications, err := env.store.ListNotificationsByUser(context.Background(), cand.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 2) // application received + offer

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/results/%d", result.ID), recruiterToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/results?job_id=%d", job.ID), recruiterToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Results []types.Result `json:"results"`
	}
	decodeBody(t, rec, &listing)
	require.Len(t, listing.Results, 1)
	require.Equal(t, "SRE", listing.Results[0].JobTitle)
}

func TestJobCloseRejectsPendingApplications(t *testing.T) {
	env := newTestEnv(t)
	_, recruiterToken := env.seedUser(t, "Rae Recruiter", "rae@example.com", types.RoleRecruiter)
	cand, _ := env.seedUser(t, "Pat Pending", "pat@example.com", types.RoleCandidate)

	rec := env.do(t, http.MethodPost, "/api/jobs", recruiterToken, map[string]any{"title": "Analyst"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var job types.Job
	decodeBody(t, rec, &job)

	rec = env.do(t, http.MethodPost, "/api/applications", "", map[string]any{
		"job_id":    job.ID,
		"full_name": "Pat Pending",
		"email":     "pat@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var app types.Application
	decodeBody(t, rec, &app)

	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/jobs/%d", job.ID), recruiterToken, map[string]any{
		"status": "closed",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	updated, err := env.store.GetApplicationByID(context.Background(), app.ID)
	require.NoError(t, err)
	require.Equal(t, "rejected", updated.Status)

	// The close wrote a rejected result row exactly once.
	results, err := env.store.ListResults(context.Background(), store.ListResultsOptions{JobID: &job.ID})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "rejected", results[0].Outcome)
	require.Equal(t, app.ID, results[0].ApplicationID)

	// Closing an already-closed job does not double up.
	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/jobs/%d", job.ID), recruiterToken, map[string]any{
		"status": "closed",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	results, err = env.store.ListResults(context.Background(), store.ListResultsOptions{JobID: &job.ID})
	require.NoError(t, err)
	require.Len(t, results, 1)

	// The candidate was told.
	notifications, err := env.store.ListNotificationsByUser(context.Background(), cand.ID)
	require.NoError(t, err)
	var sawRejection bool
	for _, n := range notifications {
		if n.Type == "result" {
			sawRejection = true
		}
	}
	require.True(t, sawRejection)
}

func TestProcessCatalogOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, recruiterToken := env.seedUser(t, "Rae Recruiter", "rae@example.com", types.RoleRecruiter)
	_, candToken := env.seedUser(t, "Cara Candidate", "cara@example.com", types.RoleCandidate)

	rec := env.do(t, http.MethodPost, "/api/processes", recruiterToken, map[string]any{
		"name": "Engineering pipeline",
		"stages": []map[string]any{
			{"name": "Screening"},
			{"name": "Technical"},
			{"name": "Offer"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var process types.Process
	decodeBody(t, rec, &process)
	require.Len(t, process.Stages, 3)
	require.Equal(t, 1, process.Stages[0].Order)
	require.Equal(t, 3, process.Stages[2].Order)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/processes/%d", process.ID), recruiterToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched types.Process
	decodeBody(t, rec, &fetched)
	require.Equal(t, "Engineering pipeline", fetched.Name)
	require.Len(t, fetched.Stages, 3)
	require.Equal(t, "Screening", fetched.Stages[0].Name)

	// PATCH with stages replaces the list wholesale.
	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/processes/%d", process.ID), recruiterToken, map[string]any{
		"stages": []map[string]any{
			{"name": "Intro call"},
			{"name": "Final"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	fetched = types.Process{}
	decodeBody(t, rec, &fetched)
	require.Len(t, fetched.Stages, 2)
	require.Equal(t, "Intro call", fetched.Stages[0].Name)

	rec = env.do(t, http.MethodGet, "/api/processes", candToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/processes/%d", process.ID), recruiterToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/processes/%d", process.ID), recruiterToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvaluationStageReference(t *testing.T) {
	env := newTestEnv(t)
	_, recruiterToken := env.seedUser(t, "Rae Recruiter", "rae@example.com", types.RoleRecruiter)

	rec := env.do(t, http.MethodPost, "/api/processes", recruiterToken, map[string]any{
		"name":   "Default",
		"stages": []map[string]any{{"name": "Screening"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var process types.Process
	decodeBody(t, rec, &process)

	rec = env.do(t, http.MethodPost, "/api/jobs", recruiterToken, map[string]any{"title": "QA"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var job types.Job
	decodeBody(t, rec, &job)

	rec = env.do(t, http.MethodPost, "/api/applications", "", map[string]any{
		"job_id":    job.ID,
		"full_name": "Eva Applicant",
		"email":     "eva@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var app types.Application
	decodeBody(t, rec, &app)

	rec = env.do(t, http.MethodPost, "/api/evaluations", recruiterToken, map[string]any{
		"application_id": app.ID,
		"stage_id":       process.Stages[0].ID,
		"score":          72.5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var eval types.Evaluation
	decodeBody(t, rec, &eval)
	require.NotNil(t, eval.StageID)
	require.Equal(t, process.Stages[0].ID, *eval.StageID)
}
