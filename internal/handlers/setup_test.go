package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/selfire1/gridtip-sub000/internal/auth"
	"github.com/selfire1/gridtip-sub000/internal/cache"
	"github.com/selfire1/gridtip-sub000/internal/handlers"
	"github.com/selfire1/gridtip-sub000/internal/logger"
	"github.com/selfire1/gridtip-sub000/internal/repository"
	"github.com/selfire1/gridtip-sub000/internal/services"
	"github.com/selfire1/gridtip-sub000/internal/testutil"
	"github.com/selfire1/gridtip-sub000/pkg/jolpica"
)

const (
	testSeason   = 2025
	testPassword = "test-password"
)

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// fakeHub records which group a websocket request was subscribed to
type fakeHub struct {
	mu     sync.Mutex
	groups []int
}

func (f *fakeHub) ServeWs(w http.ResponseWriter, r *http.Request, groupID int) {
	f.mu.Lock()
	f.groups = append(f.groups, groupID)
	f.mu.Unlock()
	w.WriteHeader(http.StatusSwitchingProtocols)
}

// testSetup wires real services against an in-memory database
type testSetup struct {
	repo     repository.FullRepository
	client   *jolpica.MockClient
	hub      *fakeHub
	settings *services.SettingsService
	handlers *handlers.Handlers
	router   http.Handler
	now      time.Time
}

func newTestSetup(t *testing.T, opts ...jolpica.MockOption) *testSetup {
	t.Helper()
	log := logger.Nop()
	repo := testutil.NewTestRepository(t)
	s := &testSetup{repo: repo, hub: &fakeHub{}, now: baseTime}
	clock := func() time.Time { return s.now }

	s.settings = services.NewSettingsService(log, repo, services.Defaults{Season: testSeason, CutoffMinutes: 180})
	leaderboard := services.NewLeaderboardService(log, repo, s.settings, cache.NewMemoryCache(), time.Hour)
	leaderboard.SetClock(clock)
	s.settings.SetInvalidator(leaderboard)
	tipping := services.NewTippingService(log, repo, s.settings, leaderboard)
	tipping.SetClock(clock)
	groups := services.NewGroupService(log, repo, s.settings, leaderboard)
	s.client = jolpica.NewMockClient(opts...)
	syncer := services.NewSyncService(log, repo, s.client, leaderboard)
	syncer.SetClock(clock)

	adminAuth, err := auth.NewWithCost(testPassword, []byte("test-key"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("auth.NewWithCost failed: %v", err)
	}

	s.handlers = handlers.New(tipping, leaderboard, groups, syncer, s.settings, adminAuth, s.hub, handlers.NoopHTTPLogger{})
	s.router = s.handlers.Router()

	testutil.SeedGrid(t, repo, []string{"max_verstappen", "norris", "piastri"}, []string{"red_bull", "mclaren"})
	return s
}

// do sends a request with an optional JSON body
func (s *testSetup) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// login returns an admin session cookie
func (s *testSetup) login(t *testing.T) *http.Cookie {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/admin/login", handlers.LoginRequest{Password: testPassword})
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
}

func expectCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, w, status)
	apiErr := decode[handlers.APIError](t, w)
	if apiErr.Code != code {
		t.Errorf("expected code %s, got %s (%s)", code, apiErr.Code, apiErr.Message)
	}
}

func ptr[T any](v T) *T { return &v }
