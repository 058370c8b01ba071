package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"homeservices-marketplace/internal/auth"
	"homeservices-marketplace/internal/jobs"
	"homeservices-marketplace/internal/models"
	"homeservices-marketplace/internal/notify"
	"homeservices-marketplace/internal/repository"
	"homeservices-marketplace/internal/reviews"
	"homeservices-marketplace/internal/services"
)

type testServer struct {
	router *gin.Engine
	store  *repository.MemoryStore
	docs   *reviews.MemoryStore
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T, sandbox bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zaptest.NewLogger(t)
	store := repository.NewMemoryStore()
	docs := reviews.NewMemoryStore()
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	reviewService := services.NewReviewService(docs, tokens, log)
	router := NewRouter(RouterDeps{
		Jobs:    services.NewJobService(store, reviewService, log),
		Offers:  services.NewOfferService(store, notify.NewLogNotifier(log), reviewService, services.SiblingScopeAll, log),
		Reviews: reviewService,
		Auth:    services.NewAuthService(store, reviewService, tokens, auth.DefaultMockUsers(), sandbox, log),
		Tokens:  tokens,
		Health:  jobs.NewHealthMonitor("@every 30s", store, docs, log),
		Log:     log,
	})

	return &testServer{router: router, store: store, docs: docs, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) createUsers(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := s.store.UpsertUser(context.Background(), &models.User{ID: id, Email: id + "@example.com", Name: "Name " + id}); err != nil {
			t.Fatalf("UpsertUser failed: %v", err)
		}
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)
	return body.Error
}

func fixedJobBody(postedBy string) gin.H {
	return gin.H{
		"title":           "Fix leaking roof",
		"description":     "Shingles missing after the storm",
		"category":        "roofing",
		"location":        "Austin",
		"budget":          500,
		"budgetType":      "fixed",
		"scope":           "medium",
		"duration":        "1 week",
		"experienceLevel": "intermediate",
		"postedBy":        postedBy,
		"skills":          []string{"roofing"},
	}
}

func (s *testServer) createJob(t *testing.T, postedBy string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/jobs", fixedJobBody(postedBy))
	if w.Code != http.StatusOK {
		t.Fatalf("create job: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Success bool   `json:"success"`
		JobID   string `json:"jobId"`
	}
	decode(t, w, &body)
	if !body.Success || body.JobID == "" {
		t.Fatalf("unexpected create job response %s", w.Body.String())
	}
	return body.JobID
}

type offerResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	JobID  string `json:"job_id"`
}

func TestProposalAcceptanceFlow(t *testing.T) {
	s := newTestServer(t, true)
	s.createUsers(t, "owner", "pro-a", "pro-b")
	jobID := s.createJob(t, "owner")

	var ids []string
	for _, contractor := range []string{"pro-a", "pro-b"} {
		w := s.do(t, http.MethodPost, "/api/proposals", gin.H{
			"jobId":             jobID,
			"contractorId":      contractor,
			"price":             450,
			"coverLetter":       "Licensed roofer",
			"estimatedDuration": "2 days",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("create proposal: expected 201, got %d: %s", w.Code, w.Body.String())
		}
		var offer offerResponse
		decode(t, w, &offer)
		if offer.Status != "pending" {
			t.Errorf("new proposal should be pending, got %s", offer.Status)
		}
		ids = append(ids, offer.ID)
	}

	w := s.do(t, http.MethodGet, "/api/proposals?jobId="+jobID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list proposals: expected 200, got %d", w.Code)
	}
	var listed []struct {
		ID  string `json:"id"`
		Job struct {
			ID       string `json:"_id"`
			Title    string `json:"title"`
			PostedBy struct {
				ID   string `json:"_id"`
				Name string `json:"name"`
			} `json:"postedBy"`
		} `json:"job"`
		Contractor struct {
			ID   string `json:"_id"`
			Name string `json:"name"`
		} `json:"contractor"`
	}
	decode(t, w, &listed)
	if len(listed) != 2 {
		t.Fatalf("expected 2 proposals, got %d", len(listed))
	}
	for _, p := range listed {
		if p.Job.ID != jobID || p.Job.Title != "Fix leaking roof" || p.Job.PostedBy.Name != "Name owner" {
			t.Errorf("missing nested job on %+v", p)
		}
		if p.Contractor.ID == "" || p.Contractor.Name == "" {
			t.Errorf("missing nested contractor on %+v", p)
		}
	}

	w = s.do(t, http.MethodPatch, "/api/proposals/"+ids[0], gin.H{"status": "accepted"})
	if w.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/jobs/"+jobID, nil)
	var job struct {
		Status string `json:"status"`
	}
	decode(t, w, &job)
	if job.Status != "in_progress" {
		t.Errorf("expected job in_progress, got %s", job.Status)
	}

	w = s.do(t, http.MethodGet, "/api/proposals/"+ids[1], nil)
	var loser offerResponse
	decode(t, w, &loser)
	if loser.Status != "rejected" {
		t.Errorf("expected sibling proposal rejected, got %s", loser.Status)
	}

	// The engagement is mirrored for the review flow.
	record, err := s.docs.GetJobRecord(context.Background(), jobID)
	if err != nil {
		t.Fatalf("GetJobRecord failed: %v", err)
	}
	if record.ProviderID != "pro-a" {
		t.Errorf("expected provider pro-a on the job record, got %q", record.ProviderID)
	}
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t, true)
	s.createUsers(t, "owner", "pro")
	jobID := s.createJob(t, "owner")

	app := gin.H{"jobId": jobID, "contractorId": "pro", "proposedRate": 40, "coverLetter": "Hi"}
	if w := s.do(t, http.MethodPost, "/api/applications", app); w.Code != http.StatusCreated {
		t.Fatalf("create application: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	tests := []struct {
		name    string
		method  string
		path    string
		body    interface{}
		want    int
		wantMsg string
	}{
		{"unknown poster", http.MethodPost, "/api/jobs", fixedJobBody("ghost"), http.StatusBadRequest, "Invalid user ID"},
		{"malformed job body", http.MethodPost, "/api/jobs", "not an object", http.StatusBadRequest, ""},
		{"missing userId", http.MethodGet, "/api/jobs", nil, http.StatusBadRequest, "User ID is required"},
		{"bad status filter", http.MethodGet, "/api/jobs?userId=owner&status=done", nil, http.StatusBadRequest, "Invalid status"},
		{"unknown job", http.MethodGet, "/api/jobs/missing", nil, http.StatusNotFound, "Job not found"},
		{"offer on unknown job", http.MethodPost, "/api/applications", gin.H{"jobId": "missing", "contractorId": "pro", "proposedRate": 40}, http.StatusNotFound, "Job not found"},
		{"duplicate application", http.MethodPost, "/api/applications", app, http.StatusBadRequest, "You have already applied for this job"},
		{"own job", http.MethodPost, "/api/proposals", gin.H{"jobId": jobID, "contractorId": "owner", "price": 100}, http.StatusBadRequest, "You cannot bid on your own job"},
		{"unknown application", http.MethodGet, "/api/applications/missing", nil, http.StatusNotFound, "Application not found"},
		{"bad transition", http.MethodPatch, "/api/applications/missing", gin.H{"status": "pending"}, http.StatusBadRequest, "Invalid status"},
		{"review without session", http.MethodPost, "/api/reviews", gin.H{"jobId": jobID, "providerId": "pro", "publicRating": 5, "privateRating": 5}, http.StatusUnauthorized, "Unauthorized"},
		{"unknown profile", http.MethodGet, "/api/profiles/nobody", nil, http.StatusNotFound, "Profile not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if tt.wantMsg != "" {
				if got := errorMessage(t, w); got != tt.wantMsg {
					t.Errorf("expected error %q, got %q", tt.wantMsg, got)
				}
			}
		})
	}
}

func TestClosedJobRejectsOffers(t *testing.T) {
	s := newTestServer(t, true)
	s.createUsers(t, "owner", "pro-a", "pro-b")
	jobID := s.createJob(t, "owner")

	w := s.do(t, http.MethodPost, "/api/applications", gin.H{"jobId": jobID, "contractorId": "pro-a", "proposedRate": 40})
	var offer offerResponse
	decode(t, w, &offer)
	if w := s.do(t, http.MethodPatch, "/api/applications/"+offer.ID, gin.H{"status": "accepted"}); w.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/applications", gin.H{"jobId": jobID, "contractorId": "pro-b", "proposedRate": 35})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if got := errorMessage(t, w); got != "Job is no longer accepting applications" {
		t.Errorf("unexpected error %q", got)
	}
}

func TestMockAuthFlow(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(t, http.MethodPost, "/api/auth/mock", gin.H{"userType": "contractor"})
	if w.Code != http.StatusOK {
		t.Fatalf("mock login: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	if session == nil || session.Value == "" || !session.HttpOnly {
		t.Fatalf("expected an http-only session cookie, got %+v", session)
	}

	w = s.do(t, http.MethodGet, "/api/auth/me", nil, session)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", w.Code)
	}
	var me struct {
		User models.User `json:"user"`
	}
	decode(t, w, &me)
	if me.User.ID != "mock-contractor-123" {
		t.Errorf("unexpected user %+v", me.User)
	}

	if w := s.do(t, http.MethodGet, "/api/auth/me", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("me without session: expected 401, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/auth/logout", nil, session)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName && c.MaxAge >= 0 {
			t.Errorf("logout should expire the cookie, got MaxAge %d", c.MaxAge)
		}
	}
}

func TestMockAuthDefaultsToDual(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(t, http.MethodPost, "/api/auth/mock", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		User auth.MockUser `json:"user"`
	}
	decode(t, w, &body)
	if body.User.ID != "mock-dual-123" {
		t.Errorf("expected the dual user, got %s", body.User.ID)
	}
}

func TestMockAuthOutsideSandbox(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(t, http.MethodPost, "/api/auth/mock", gin.H{"userType": "homeowner"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if got := errorMessage(t, w); got != "Mock auth only available in web container" {
		t.Errorf("unexpected error %q", got)
	}
}

func TestReviewFlow(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t, true)
	s.createUsers(t, "owner", "pro")
	if err := s.docs.EnsureProfile(ctx, "pro"); err != nil {
		t.Fatalf("EnsureProfile failed: %v", err)
	}
	jobID := s.createJob(t, "owner")

	token, err := s.tokens.Issue("owner")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	cookie := &http.Cookie{Name: auth.CookieName, Value: token}
	review := gin.H{"jobId": jobID, "providerId": "pro", "publicRating": 4, "privateRating": 5, "comment": "Solid"}

	w := s.do(t, http.MethodPost, "/api/reviews", review, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/profiles/pro", nil)
	var body struct {
		Profile       models.Profile `json:"profile"`
		AverageRating float64        `json:"averageRating"`
	}
	decode(t, w, &body)
	if body.Profile.CompletedJobs != 1 || body.AverageRating != 4 {
		t.Errorf("unexpected profile %+v (avg %v)", body.Profile, body.AverageRating)
	}

	review["publicRating"] = 9
	if w := s.do(t, http.MethodPost, "/api/reviews", review, cookie); w.Code != http.StatusBadRequest {
		t.Errorf("out of range rating: expected 400, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["status"] != "ok" || body["sql"] != "ok" || body["documents"] != "ok" {
		t.Errorf("unexpected health body %v", body)
	}
}
