package appraisalhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/auth"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/appraisal"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/approval"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/org"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/policy"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/api"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/middleware"
)

const secret = "handler-secret"

type toggleScorer struct {
	mu  sync.Mutex
	err error
}

func (s *toggleScorer) Score(context.Context, appraisal.Appraisal) (appraisal.Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return appraisal.Score{}, s.err
	}
	return appraisal.Score{Total: 75, Grade: "B"}, nil
}

func (s *toggleScorer) set(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, appraisal.Transition) error { return nil }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *api.Error      `json:"error"`
}

type server struct {
	t      *testing.T
	router http.Handler
	scorer *toggleScorer
}

func newServer(t *testing.T) *server {
	t.Helper()
	ctx := context.Background()
	dir := org.NewSnapshot(
		org.Employee{ID: "E", Name: "Eve", Active: true, Type: org.TypeOfficeStaff, ReportsTo: "M", DepartmentID: "d1"},
		org.Employee{ID: "M", Name: "Mia", Active: true, DepartmentID: "d1"},
		org.Employee{ID: "A", Name: "Ann", Active: true, DepartmentID: "d1"},
		org.Employee{ID: "B", Name: "Bob", Active: true, DepartmentID: "d1"},
		org.Employee{ID: "H", Name: "Hana", Active: true, DepartmentID: "hr"},
	)
	policies := policy.NewMemoryStore()
	require.NoError(t, policies.SavePolicy(ctx, policy.Policy{
		DepartmentID: "d1",
		Levels:       []policy.LevelApprover{{Level: 2, ApproverID: "A", RoleLabel: "hod"}},
	}))

	scorer := &toggleScorer{}
	svc := appraisal.NewService(
		appraisal.NewMemoryStore(),
		approval.NewService(dir, policies, zerolog.Nop(), nil),
		scorer,
		nopPublisher{},
		zerolog.Nop(),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Auth(secret, zerolog.Nop()))
	NewHandler(svc, dir, zerolog.Nop()).RegisterRoutes(r)
	return &server{t: t, router: r, scorer: scorer}
}

func (s *server) do(method, path, employeeID, role, body string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if employeeID != "" {
		token, err := auth.GenerateToken(secret, auth.Claims{EmployeeID: employeeID, Role: role}, time.Hour)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *server) appraisalOf(env envelope) appraisal.Appraisal {
	s.t.Helper()
	var a appraisal.Appraisal
	require.NoError(s.t, json.Unmarshal(env.Data, &a))
	return a
}

func (s *server) create(employeeID string) appraisal.Appraisal {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/appraisals", employeeID, auth.RoleEmployee,
		`{"periodStart":"2026-01-01","periodEnd":"2026-06-30"}`)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return s.appraisalOf(env)
}

func (s *server) submitted(employeeID string) appraisal.Appraisal {
	s.t.Helper()
	a := s.create(employeeID)
	rec, env := s.do(http.MethodPost, "/appraisals/"+a.ID+"/submit", employeeID, auth.RoleEmployee, "")
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	return s.appraisalOf(env)
}

func TestWorkflowOverHTTP(t *testing.T) {
	s := newServer(t)
	a := s.create("E")
	require.Equal(t, appraisal.StatusDraft, a.Status)

	rec, _ := s.do(http.MethodPut, "/appraisals/"+a.ID+"/responses", "E", auth.RoleEmployee,
		`{"answers":[{"questionId":"q1","rating":4,"maxRating":5}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env := s.do(http.MethodPost, "/appraisals/"+a.ID+"/submit", "E", auth.RoleEmployee, "")
	require.Equal(t, http.StatusOK, rec.Code)
	a = s.appraisalOf(env)
	require.Equal(t, appraisal.StatusSubmitted, a.Status)
	require.Equal(t, []string{"M", "A"}, a.Chain.Approvers())

	rec, env = s.do(http.MethodPost, "/appraisals/"+a.ID+"/submit", "E", auth.RoleEmployee, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "true", rec.Header().Get(api.NoopHeader))
	require.Equal(t, a.Version, s.appraisalOf(env).Version)

	rec, env = s.do(http.MethodPost, "/appraisals/"+a.ID+"/levels/2/review", "A", auth.RoleEmployee, `{}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "not_your_turn", env.Error.Code)

	rec, env = s.do(http.MethodPost, "/appraisals/"+a.ID+"/levels/1/review", "A", auth.RoleEmployee, `{}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "not_approver", env.Error.Code)

	rec, env = s.do(http.MethodPost, "/appraisals/"+a.ID+"/levels/1/review", "M", auth.RoleEmployee, `{"comment":"solid"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, appraisal.StatusInReview, s.appraisalOf(env).Status)

	rec, _ = s.do(http.MethodPost, "/appraisals/"+a.ID+"/levels/1/review", "M", auth.RoleEmployee, `{"comment":"again"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "true", rec.Header().Get(api.NoopHeader))

	rec, env = s.do(http.MethodPost, "/appraisals/"+a.ID+"/levels/2/review", "A", auth.RoleEmployee, `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	done := s.appraisalOf(env)
	require.Equal(t, appraisal.StatusCompleted, done.Status)
	require.Equal(t, "B", done.Grade)
	require.Len(t, done.Reviews, 2)
}

func TestCreateRejectsBadInput(t *testing.T) {
	s := newServer(t)

	rec, env := s.do(http.MethodPost, "/appraisals", "E", auth.RoleEmployee, `{"periodStart":"2026-06-30","periodEnd":"2026-01-01"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_error", env.Error.Code)

	rec, env = s.do(http.MethodPost, "/appraisals", "E", auth.RoleEmployee, `{"periodStart":"soon"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_error", env.Error.Code)

	rec, _ = s.do(http.MethodPost, "/appraisals", "E", auth.RoleEmployee, `{"periodStart":"2026-01-01","periodEnd":"2026-06-30","extra":1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(http.MethodPost, "/appraisals", "", "", `{"periodStart":"2026-01-01","periodEnd":"2026-06-30"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateTwiceReturnsConflict(t *testing.T) {
	s := newServer(t)
	s.create("E")

	rec, env := s.do(http.MethodPost, "/appraisals", "E", auth.RoleEmployee, `{"periodStart":"2026-01-01","periodEnd":"2026-06-30"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "appraisal_exists", env.Error.Code)
}

func TestReviewLevelValidation(t *testing.T) {
	s := newServer(t)
	a := s.submitted("E")

	for _, level := range []string{"x", "0", "7"} {
		rec, env := s.do(http.MethodPost, "/appraisals/"+a.ID+"/levels/"+level+"/review", "M", auth.RoleEmployee, `{}`)
		require.Equal(t, http.StatusBadRequest, rec.Code, level)
		require.Equal(t, "validation_error", env.Error.Code)
	}

	rec, env := s.do(http.MethodPost, "/appraisals/"+a.ID+"/levels/4/review", "M", auth.RoleEmployee, `{}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "not_in_chain", env.Error.Code)

	rec, env = s.do(http.MethodPost, "/appraisals/"+a.ID+"/levels/1/review", "M", auth.RoleEmployee,
		`{"answers":[{"questionId":"q1","rating":9,"maxRating":5}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_answer", env.Error.Code)
}

func TestVisibility(t *testing.T) {
	s := newServer(t)
	a := s.submitted("E")
	path := "/appraisals/" + a.ID

	cases := []struct {
		actor string
		role  string
		want  int
	}{
		{"E", auth.RoleEmployee, http.StatusOK},
		{"M", auth.RoleEmployee, http.StatusOK},
		{"A", auth.RoleEmployee, http.StatusOK},
		{"B", auth.RoleEmployee, http.StatusNotFound},
		{"H", auth.RoleHR, http.StatusOK},
	}
	for _, tc := range cases {
		rec, _ := s.do(http.MethodGet, path, tc.actor, tc.role, "")
		require.Equal(t, tc.want, rec.Code, tc.actor)
	}

	rec, env := s.do(http.MethodGet, "/appraisals/not-there", "H", auth.RoleHR, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "appraisal_not_found", env.Error.Code)
}

func TestOwnerOnlyMutations(t *testing.T) {
	s := newServer(t)
	a := s.submitted("E")

	rec, env := s.do(http.MethodPost, "/appraisals/"+a.ID+"/submit", "M", auth.RoleEmployee, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "not_owner", env.Error.Code)

	rec, env = s.do(http.MethodPut, "/appraisals/"+a.ID+"/responses", "M", auth.RoleEmployee, `{"answers":[]}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "not_owner", env.Error.Code)
}

func TestOutsiderMutationsLookLikeMissing(t *testing.T) {
	s := newServer(t)
	a := s.create("E")
	path := "/appraisals/" + a.ID

	rec, env := s.do(http.MethodPut, path+"/responses", "B", auth.RoleEmployee, `{"answers":[]}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "appraisal_not_found", env.Error.Code)

	rec, env = s.do(http.MethodPost, path+"/submit", "B", auth.RoleEmployee, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "appraisal_not_found", env.Error.Code)

	rec, env = s.do(http.MethodPost, path+"/levels/1/review", "B", auth.RoleEmployee, `{}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "appraisal_not_found", env.Error.Code)
}

func TestOutsiderCannotReadClosedLevel(t *testing.T) {
	s := newServer(t)
	a := s.create("E")
	path := "/appraisals/" + a.ID

	rec, _ := s.do(http.MethodPut, path+"/responses", "E", auth.RoleEmployee,
		`{"answers":[{"questionId":"q1","rating":4,"maxRating":5,"comment":"private self note"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec, _ = s.do(http.MethodPost, path+"/submit", "E", auth.RoleEmployee, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(http.MethodPost, path+"/levels/1/review", "M", auth.RoleEmployee, `{"comment":"mgr secret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = s.do(http.MethodGet, path, "B", auth.RoleEmployee, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := s.do(http.MethodPost, path+"/levels/1/review", "B", auth.RoleEmployee, `{}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "appraisal_not_found", env.Error.Code)
	require.Empty(t, rec.Header().Get(api.NoopHeader))
	require.NotContains(t, rec.Body.String(), "private self note")
	require.NotContains(t, rec.Body.String(), "mgr secret")

	rec, env = s.do(http.MethodPost, path+"/levels/1/review", "A", auth.RoleEmployee, `{}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "not_approver", env.Error.Code)
	require.NotContains(t, rec.Body.String(), "mgr secret")

	rec, _ = s.do(http.MethodPost, path+"/levels/1/review", "M", auth.RoleEmployee, `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "true", rec.Header().Get(api.NoopHeader))
}

func TestScoringFailureIsPendingUntilFinalized(t *testing.T) {
	s := newServer(t)
	a := s.submitted("E")
	s.scorer.set(errors.New("scoring backend down"))

	rec, _ := s.do(http.MethodPost, "/appraisals/"+a.ID+"/levels/1/review", "M", auth.RoleEmployee, `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, env := s.do(http.MethodPost, "/appraisals/"+a.ID+"/levels/2/review", "A", auth.RoleEmployee, `{}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.True(t, env.Success)
	require.Equal(t, "scoring_pending", env.Error.Code)
	require.Equal(t, appraisal.StatusInReview, s.appraisalOf(env).Status)

	rec, _ = s.do(http.MethodPost, "/appraisals/"+a.ID+"/finalize", "E", auth.RoleEmployee, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	s.scorer.set(nil)
	rec, env = s.do(http.MethodPost, "/appraisals/"+a.ID+"/finalize", "H", auth.RoleHR, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, appraisal.StatusCompleted, s.appraisalOf(env).Status)
}

func TestFinalizeWithPendingLevels(t *testing.T) {
	s := newServer(t)
	a := s.submitted("E")

	rec, env := s.do(http.MethodPost, "/appraisals/"+a.ID+"/finalize", "H", auth.RoleHR, "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "reviews_pending", env.Error.Code)
}

func TestExportPDF(t *testing.T) {
	s := newServer(t)
	a := s.submitted("E")

	rec, _ := s.do(http.MethodGet, "/appraisals/"+a.ID+"/export.pdf", "E", auth.RoleEmployee, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "appraisal-E-2026-06-30.pdf")
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec, _ = s.do(http.MethodGet, "/appraisals/"+a.ID+"/export.pdf", "B", auth.RoleEmployee, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
