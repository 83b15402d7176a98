package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiretrack/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestUserLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &types.User{FullName: "Ada Lovelace", Email: "Ada@Example.COM", Role: types.RoleRecruiter, PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, u))
	require.NotZero(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email, "email should be stored lowercased")

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.FullName, got.FullName)

	byEmail, err := s.GetUserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail, "email lookup should be case-insensitive")
	assert.Equal(t, u.ID, byEmail.ID)

	missing, err := s.GetUserByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	newName := "Augusta Ada King"
	updated, err := s.UpdateUser(ctx, u.ID, UserUpdate{FullName: &newName})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, newName, updated.FullName)
	assert.Equal(t, "ada@example.com", updated.Email, "untouched fields keep their values")

	noop, err := s.UpdateUser(ctx, u.ID, UserUpdate{})
	require.NoError(t, err)
	require.NotNil(t, noop)
	assert.Equal(t, newName, noop.FullName)

	users, err := s.ListUsers(ctx, "augusta")
	require.NoError(t, err)
	require.Len(t, users, 1)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	gone, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestJobLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := &types.User{FullName: "R", Email: "r@example.com", Role: types.RoleRecruiter}
	require.NoError(t, s.CreateUser(ctx, owner))

	j := &types.Job{
		Title:        "Backend Engineer",
		Slug:         "backend-engineer",
		Description:  "Build services",
		Department:   "Engineering",
		PostedBy:     &owner.ID,
		Requirements: json.RawMessage(`{"scores":{"communication":{"min":50,"important":true}}}`),
	}
	require.NoError(t, s.CreateJob(ctx, j))
	require.NotZero(t, j.ID)
	assert.Equal(t, "open", j.Status)

	got, err := s.GetJobByID(ctx, j.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.PostedBy)
	assert.Equal(t, owner.ID, *got.PostedBy)
	assert.JSONEq(t, string(j.Requirements), string(got.Requirements))

	other := &types.Job{Title: "Designer", Slug: "designer", Description: "Design things"}
	require.NoError(t, s.CreateJob(ctx, other))

	mine, err := s.ListJobs(ctx, ListJobsOptions{PostedBy: &owner.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, j.ID, mine[0].ID)

	matched, err := s.ListJobs(ctx, ListJobsOptions{Query: "backend"})
	require.NoError(t, err)
	require.Len(t, matched, 1)

	closed := "closed"
	updated, err := s.UpdateJob(ctx, j.ID, JobUpdate{Status: &closed})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "closed", updated.Status)

	require.NoError(t, s.DeleteJob(ctx, j.ID))
	gone, err := s.GetJobByID(ctx, j.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestApplicationsOrderAndScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := &types.User{FullName: "R", Email: "r@example.com", Role: types.RoleRecruiter}
	require.NoError(t, s.CreateUser(ctx, owner))
	j := &types.Job{Title: "Role", Slug: "role", Description: "d", PostedBy: &owner.ID}
	require.NoError(t, s.CreateJob(ctx, j))

	first := &types.Application{JobID: j.ID, FullName: "First", Email: "first@example.com"}
	require.NoError(t, s.CreateApplication(ctx, first))
	time.Sleep(2 * time.Millisecond)
	second := &types.Application{JobID: j.ID, FullName: "Second", Email: "second@example.com"}
	require.NoError(t, s.CreateApplication(ctx, second))
	assert.Equal(t, "submitted", first.Status)

	apps, err := s.ListApplicationsByJob(ctx, j.ID)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "First", apps[0].FullName, "applications should list oldest first")
	assert.Equal(t, "Second", apps[1].FullName)

	scoped, err := s.ListApplications(ctx, ListApplicationsOptions{PostedBy: &owner.ID})
	require.NoError(t, err)
	assert.Len(t, scoped, 2)

	none, err := s.ListApplications(ctx, ListApplicationsOptions{Email: "nobody@example.com"})
	require.NoError(t, err)
	assert.Empty(t, none)

	own, err := s.ListApplications(ctx, ListApplicationsOptions{Email: "FIRST@example.com"})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, first.ID, own[0].ID)

	updated, err := s.UpdateApplicationStatus(ctx, first.ID, "shortlisted")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "shortlisted", updated.Status)

	missing, err := s.UpdateApplicationStatus(ctx, 9999, "rejected")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProfileUpsertAndLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &types.User{FullName: "C", Email: "cand@example.com", Role: types.RoleCandidate}
	require.NoError(t, s.CreateUser(ctx, u))

	none, err := s.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	p, err := s.UpsertProfile(ctx, u.ID, json.RawMessage(`{"communication":70}`), nil)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.JSONEq(t, `{"communication":70}`, string(p.Scores))

	p2, err := s.UpsertProfile(ctx, u.ID, json.RawMessage(`{"communication":80,"coding":60}`), json.RawMessage(`{"note":"x"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"communication":80,"coding":60}`, string(p2.Scores))
	assert.Equal(t, p.CreatedAt, p2.CreatedAt, "upsert should keep the original creation time")

	id, ok, err := s.FindUserIDByEmail(ctx, "CAND@Example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, u.ID, id)

	_, ok, err = s.FindUserIDByEmail(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	scores, err := s.GetProfileScores(ctx, u.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"communication":80,"coding":60}`, string(scores))

	noScores, err := s.GetProfileScores(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, noScores)
}

func TestEvaluations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	j := &types.Job{Title: "Role", Slug: "role", Description: "d"}
	require.NoError(t, s.CreateJob(ctx, j))
	app := &types.Application{JobID: j.ID, FullName: "A", Email: "a@example.com"}
	require.NoError(t, s.CreateApplication(ctx, app))

	e := &types.Evaluation{ApplicationID: app.ID, Score: 87.5, Comments: "strong"}
	require.NoError(t, s.CreateEvaluation(ctx, e))
	require.NotZero(t, e.ID)

	got, err := s.GetEvaluationByID(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 87.5, got.Score)
	assert.Nil(t, got.StageID)

	all, err := s.ListEvaluations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestInterviewLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	j := &types.Job{Title: "Role", Slug: "role", Description: "d"}
	require.NoError(t, s.CreateJob(ctx, j))
	app := &types.Application{JobID: j.ID, FullName: "A", Email: "a@example.com"}
	require.NoError(t, s.CreateApplication(ctx, app))

	when := time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC)
	iv := &types.Interview{ApplicationID: app.ID, ScheduledAt: when, Mode: "video"}
	require.NoError(t, s.CreateInterview(ctx, iv))
	assert.Equal(t, "scheduled", iv.Status)

	got, err := s.GetInterviewByID(ctx, iv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, when.Equal(got.ScheduledAt))
	assert.Equal(t, "video", got.Mode)

	done := "completed"
	updated, err := s.UpdateInterview(ctx, iv.ID, InterviewUpdate{Status: &done})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "completed", updated.Status)

	all, err := s.ListInterviews(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestOffers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	j := &types.Job{Title: "Role", Slug: "role", Description: "d"}
	require.NoError(t, s.CreateJob(ctx, j))
	app := &types.Application{JobID: j.ID, FullName: "A", Email: "a@example.com"}
	require.NoError(t, s.CreateApplication(ctx, app))

	o := &types.Offer{
		ApplicationID: app.ID,
		StartDate:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Position:      "Backend Engineer",
		Salary:        "competitive",
	}
	require.NoError(t, s.CreateOffer(ctx, o))
	require.NotZero(t, o.ID)

	got, err := s.GetOfferByID(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Backend Engineer", got.Position)
	assert.Empty(t, got.Content)

	all, err := s.ListOffers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNotifications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &types.User{FullName: "C", Email: "c@example.com", Role: types.RoleCandidate}
	require.NoError(t, s.CreateUser(ctx, u))
	other := &types.User{FullName: "O", Email: "o@example.com", Role: types.RoleCandidate}
	require.NoError(t, s.CreateUser(ctx, other))

	n := &types.Notification{UserID: u.ID, Title: "Application received", Type: "application"}
	require.NoError(t, s.CreateNotification(ctx, n))

	list, err := s.ListNotificationsByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsRead)

	ok, err := s.MarkNotificationRead(ctx, n.ID, other.ID)
	require.NoError(t, err)
	assert.False(t, ok, "users must not mark other users' notifications")

	ok, err = s.MarkNotificationRead(ctx, n.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	list, err = s.ListNotificationsByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsRead)
}

func TestCriteriaCatalog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &types.CriterionDef{Key: "communication", Label: "Communication", Max: 100, Step: 1, Active: true}
	require.NoError(t, s.CreateCriterion(ctx, c))
	inactive := &types.CriterionDef{Key: "archived", Label: "Archived", Max: 100, Step: 1}
	require.NoError(t, s.CreateCriterion(ctx, inactive))

	all, err := s.ListCriteria(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := s.ListCriteria(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "communication", active[0].Key)

	off := false
	updated, err := s.UpdateCriterion(ctx, c.ID, CriterionUpdate{Active: &off})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.False(t, updated.Active)

	ok, err := s.DeleteCriterion(ctx, inactive.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.DeleteCriterion(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, ok)
}
