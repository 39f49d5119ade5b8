package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"habitual/internal/auth"
	"habitual/internal/billing"
	"habitual/internal/config"
	"habitual/internal/core"
	"habitual/internal/log"
	"habitual/internal/services"
	"habitual/internal/storage"
)

const testWebhookSecret = "whsec_test"

type testEnv struct {
	server *Server
	repo   *storage.Repository
	auth   *auth.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	cfg := &config.Config{
		Port:                 "8080",
		AppURL:               "http://localhost:8080",
		StripeSecretKey:      "sk_test_123",
		StripeWebhookSecret:  testWebhookSecret,
		StripePriceIDPro:     "price_pro",
		StripePriceIDPremium: "price_premium",
	}

	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	authSvc := auth.NewService(cfg, repo, logger)

	deps := Deps{
		Repo:    repo,
		Auth:    authSvc,
		Entries: services.NewEntryService(repo, nil, nil, logger),
		Habits:  services.NewHabitService(repo),
		Friends: services.NewFriendService(repo),
		Billing: billing.NewClient(cfg),
		Logger:  logger,
	}
	server := NewServer(cfg, deps)
	t.Cleanup(func() { server.rateLimiter.stop() })

	return &testEnv{server: server, repo: repo, auth: authSvc}
}

func (env *testEnv) createUser(t *testing.T, email string) (core.User, *http.Cookie) {
	t.Helper()
	user, err := env.repo.CreateUser(context.Background(), core.User{
		Name:  "Test User",
		Email: email,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	token, expiresAt, err := env.auth.CreateSession(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return user, &http.Cookie{Name: auth.SessionCookie, Value: token, Expires: expiresAt}
}

func (env *testEnv) do(t *testing.T, method, path string, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	env.server.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestAPIRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/habits", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/habits", "",
		&http.Cookie{Name: auth.SessionCookie, Value: "bogus"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status with bogus token = %d, want 401", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := env.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Errorf("metrics output missing request counter: %q", rec.Body.String())
	}
}

func TestHabitLifecycle(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.createUser(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/habits",
		`{"name":"Morning latte","category":"coffee","defaultAmount":"4.50"}`, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeResponse[habitView](t, rec)
	if created.DefaultAmount != "4.50" {
		t.Errorf("defaultAmount = %q, want 4.50", created.DefaultAmount)
	}
	if created.Color == "" {
		t.Error("expected category default color to be set")
	}

	rec = env.do(t, http.MethodGet, "/api/habits", "", cookie)
	habits := decodeResponse[[]habitView](t, rec)
	if len(habits) != 1 {
		t.Fatalf("list returned %d habits, want 1", len(habits))
	}

	rec = env.do(t, http.MethodPatch, "/api/habits/"+created.ID,
		`{"isArchived":true}`, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("archive status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/habits", "", cookie)
	if habits := decodeResponse[[]habitView](t, rec); len(habits) != 0 {
		t.Errorf("archived habit still listed: %+v", habits)
	}
	rec = env.do(t, http.MethodGet, "/api/habits?includeArchived=true", "", cookie)
	if habits := decodeResponse[[]habitView](t, rec); len(habits) != 1 {
		t.Errorf("includeArchived returned %d habits, want 1", len(habits))
	}

	rec = env.do(t, http.MethodDelete, "/api/habits/"+created.ID, "", cookie)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/habits/"+created.ID, "", cookie)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestHabitOwnership(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.createUser(t, "ada@example.com")
	_, otherCookie := env.createUser(t, "eve@example.com")

	rec := env.do(t, http.MethodPost, "/api/habits",
		`{"name":"Takeout","category":"food"}`, cookie)
	habit := decodeResponse[habitView](t, rec)

	rec = env.do(t, http.MethodGet, "/api/habits/"+habit.ID, "", otherCookie)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign habit get status = %d, want 404", rec.Code)
	}
}

func TestEntryCreateAndQuota(t *testing.T) {
	env := newTestEnv(t)
	user, cookie := env.createUser(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/habits",
		`{"name":"Takeout","category":"food"}`, cookie)
	habit := decodeResponse[habitView](t, rec)

	rec = env.do(t, http.MethodPost, "/api/entries",
		fmt.Sprintf(`{"habitId":%q,"amount":"12.50","notes":"friday"}`, habit.ID), cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create entry status = %d, body %s", rec.Code, rec.Body.String())
	}
	entry := decodeResponse[entryView](t, rec)
	if entry.Amount != "12.50" {
		t.Errorf("amount = %q, want 12.50", entry.Amount)
	}

	rec = env.do(t, http.MethodGet, "/api/user", "", cookie)
	if u := decodeResponse[userView](t, rec); u.EntriesThisMonth != 1 {
		t.Errorf("entriesThisMonth = %d, want 1", u.EntriesThisMonth)
	}

	// Free tier caps at 100 entries per month.
	if err := env.repo.SetEntryUsage(context.Background(), user.ID, 100, time.Now().UTC()); err != nil {
		t.Fatalf("SetEntryUsage: %v", err)
	}
	rec = env.do(t, http.MethodPost, "/api/entries",
		fmt.Sprintf(`{"habitId":%q,"amount":"3.00"}`, habit.ID), cookie)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("over-quota status = %d, want 403", rec.Code)
	}
	errResp := decodeResponse[errorResponse](t, rec)
	if !errResp.Upgrade {
		t.Error("quota response missing upgrade hint")
	}
}

func TestEntryRejectsForeignHabit(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.createUser(t, "ada@example.com")
	_, otherCookie := env.createUser(t, "eve@example.com")

	rec := env.do(t, http.MethodPost, "/api/habits",
		`{"name":"Cinema","category":"entertainment"}`, otherCookie)
	habit := decodeResponse[habitView](t, rec)

	rec = env.do(t, http.MethodPost, "/api/entries",
		fmt.Sprintf(`{"habitId":%q,"amount":"10.00"}`, habit.ID), cookie)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign habit entry status = %d, want 404", rec.Code)
	}
}

func TestUserProfileUpdate(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.createUser(t, "ada@example.com")

	rec := env.do(t, http.MethodPatch, "/api/user",
		`{"hourlyWage":"25.00","currency":"eur","shareAmounts":true}`, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body.String())
	}
	u := decodeResponse[userView](t, rec)
	if u.HourlyWage != "25.00" {
		t.Errorf("hourlyWage = %q, want 25.00", u.HourlyWage)
	}
	if u.Currency != "EUR" {
		t.Errorf("currency = %q, want EUR", u.Currency)
	}
	if !u.ShareAmounts {
		t.Error("shareAmounts not updated")
	}

	rec = env.do(t, http.MethodPatch, "/api/user", `{"currency":"euros"}`, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad currency status = %d, want 400", rec.Code)
	}
}

func TestGoalEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.createUser(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/goals",
		`{"name":"Emergency fund","type":"savings","targetAmount":"1000.00"}`, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal status = %d, body %s", rec.Code, rec.Body.String())
	}
	goal := decodeResponse[goalView](t, rec)

	rec = env.do(t, http.MethodPatch, "/api/goals/"+goal.ID,
		`{"currentAmount":"250.00"}`, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch goal status = %d, body %s", rec.Code, rec.Body.String())
	}
	if updated := decodeResponse[goalView](t, rec); updated.CurrentAmount != "250.00" {
		t.Errorf("currentAmount = %q, want 250.00", updated.CurrentAmount)
	}

	rec = env.do(t, http.MethodPatch, "/api/goals/"+goal.ID,
		`{"status":"cancelled"}`, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel goal status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/goals", "", cookie)
	if goals := decodeResponse[[]goalView](t, rec); len(goals) != 0 {
		t.Errorf("cancelled goal still listed: %+v", goals)
	}
}

func TestFriendFlow(t *testing.T) {
	env := newTestEnv(t)
	ada, adaCookie := env.createUser(t, "ada@example.com")
	_, graceCookie := env.createUser(t, "grace@example.com")

	rec := env.do(t, http.MethodPost, "/api/friends",
		`{"email":"ada@example.com"}`, adaCookie)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("self-request status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/friends",
		`{"email":"grace@example.com"}`, adaCookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("request status = %d, body %s", rec.Code, rec.Body.String())
	}
	friendship := decodeResponse[friendshipView](t, rec)
	if friendship.Status != "pending" {
		t.Errorf("status = %q, want pending", friendship.Status)
	}

	rec = env.do(t, http.MethodPost, "/api/friends",
		`{"email":"ada@example.com"}`, graceCookie)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate reverse request status = %d, want 409", rec.Code)
	}

	// Only the addressee may accept.
	rec = env.do(t, http.MethodPatch, "/api/friends/"+friendship.ID,
		`{"status":"accepted"}`, adaCookie)
	if rec.Code != http.StatusForbidden {
		t.Errorf("requester accept status = %d, want 403", rec.Code)
	}
	rec = env.do(t, http.MethodPatch, "/api/friends/"+friendship.ID,
		`{"status":"accepted"}`, graceCookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("addressee accept status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/friends", "", graceCookie)
	friends := decodeResponse[[]friendshipView](t, rec)
	if len(friends) != 1 || friends[0].Status != "accepted" {
		t.Fatalf("friend list = %+v, want one accepted", friends)
	}
	if friends[0].Friend == nil || friends[0].Friend.ID != ada.ID {
		t.Errorf("friend profile = %+v, want ada", friends[0].Friend)
	}

	rec = env.do(t, http.MethodDelete, "/api/friends/"+friendship.ID, "", adaCookie)
	if rec.Code != http.StatusNoContent {
		t.Errorf("remove status = %d, want 204", rec.Code)
	}
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.createUser(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/habits",
		`{"name":"Morning latte","category":"coffee"}`, cookie)
	habit := decodeResponse[habitView](t, rec)

	for _, amount := range []string{"4.50", "5.00"} {
		rec = env.do(t, http.MethodPost, "/api/entries",
			fmt.Sprintf(`{"habitId":%q,"amount":%q}`, habit.ID, amount), cookie)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed entry status = %d", rec.Code)
		}
	}

	env.do(t, http.MethodPatch, "/api/user", `{"hourlyWage":"20.00"}`, cookie)

	rec = env.do(t, http.MethodGet, "/api/dashboard", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d, body %s", rec.Code, rec.Body.String())
	}
	dash := decodeResponse[dashboardResponse](t, rec)

	if dash.Totals.Daily != "9.50" || dash.Totals.Monthly != "9.50" {
		t.Errorf("totals = %+v, want 9.50 daily and monthly", dash.Totals)
	}
	if dash.MonthlyTrend.Direction != core.TrendUp {
		t.Errorf("trend direction = %q, want up", dash.MonthlyTrend.Direction)
	}
	if dash.TimeCost == nil {
		t.Fatal("expected time cost with an hourly wage set")
	}
	if len(dash.Chart) != chartDays {
		t.Errorf("chart has %d points, want %d", len(dash.Chart), chartDays)
	}
	if dash.Chart[chartDays-1].Amount != "9.50" {
		t.Errorf("today's chart amount = %q, want 9.50", dash.Chart[chartDays-1].Amount)
	}
	if len(dash.Categories) != 1 || dash.Categories[0].Category != "coffee" {
		t.Errorf("categories = %+v, want coffee only", dash.Categories)
	}
	if dash.Categories[0].Color != core.CategoryColors[core.CategoryCoffee] {
		t.Errorf("category color = %q", dash.Categories[0].Color)
	}
	if dash.HabitCount != 1 || dash.EntryCount != 2 {
		t.Errorf("counts = %d habits %d entries, want 1/2", dash.HabitCount, dash.EntryCount)
	}
	if dash.Projection.Linear != "114.00" {
		t.Errorf("linear projection = %q, want 114.00", dash.Projection.Linear)
	}

	// Second read is served from the cache.
	misses := env.server.metrics.cacheMisses.Load()
	hits := env.server.metrics.cacheHits.Load()
	rec = env.do(t, http.MethodGet, "/api/dashboard", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("cached dashboard status = %d", rec.Code)
	}
	if env.server.metrics.cacheHits.Load() != hits+1 {
		t.Error("expected a dashboard cache hit")
	}
	if env.server.metrics.cacheMisses.Load() != misses {
		t.Error("unexpected dashboard cache miss")
	}

	// Entry writes invalidate the cached dashboard.
	rec = env.do(t, http.MethodPost, "/api/entries",
		fmt.Sprintf(`{"habitId":%q,"amount":"2.00"}`, habit.ID), cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("invalidation entry status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/dashboard", "", cookie)
	if dash := decodeResponse[dashboardResponse](t, rec); dash.Totals.Daily != "11.50" {
		t.Errorf("post-invalidation daily total = %q, want 11.50", dash.Totals.Daily)
	}
}

func TestInsightsUnconfigured(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.createUser(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/insights", "", cookie)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 without an AI key", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/insights", "", cookie)
	if rec.Code != http.StatusOK {
		t.Errorf("list status = %d, want 200", rec.Code)
	}
}

func signWebhookPayload(payload []byte, secret string, at time.Time) string {
	ts := fmt.Sprintf("%d", at.Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestBillingWebhook(t *testing.T) {
	env := newTestEnv(t)
	user, cookie := env.createUser(t, "ada@example.com")

	if err := env.repo.SetStripeCustomer(context.Background(), user.ID, "cus_123"); err != nil {
		t.Fatalf("SetStripeCustomer: %v", err)
	}

	payload := []byte(`{
		"id": "evt_1",
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": "sub_1",
			"customer": "cus_123",
			"status": "active",
			"current_period_end": 1790000000,
			"items": {"data": [{"price": {"id": "price_pro"}}]}
		}}
	}`)

	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", signWebhookPayload(payload, testWebhookSecret, time.Now()))
	rec := httptest.NewRecorder()
	env.server.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := env.do(t, http.MethodGet, "/api/user", "", cookie)
	if u := decodeResponse[userView](t, resp); u.Tier != "pro" {
		t.Errorf("tier after webhook = %q, want pro", u.Tier)
	}

	// Tampered payloads are rejected.
	req = httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(string(payload)+" "))
	req.Header.Set("Stripe-Signature", signWebhookPayload(payload, testWebhookSecret, time.Now()))
	rec = httptest.NewRecorder()
	env.server.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("tampered webhook status = %d, want 400", rec.Code)
	}

	// Deletion downgrades back to free.
	deletion := []byte(`{
		"id": "evt_2",
		"type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_1", "customer": "cus_123", "status": "canceled"}}
	}`)
	req = httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(string(deletion)))
	req.Header.Set("Stripe-Signature", signWebhookPayload(deletion, testWebhookSecret, time.Now()))
	rec = httptest.NewRecorder()
	env.server.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("deletion webhook status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp = env.do(t, http.MethodGet, "/api/user", "", cookie)
	if u := decodeResponse[userView](t, resp); u.Tier != "free" {
		t.Errorf("tier after deletion = %q, want free", u.Tier)
	}
}

func TestBillingPortalWithoutCustomer(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.createUser(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/billing/portal", "", cookie)
	if rec.Code != http.StatusNotFound {
		t.Errorf("portal status = %d, want 404 without a customer", rec.Code)
	}
}

func TestLoginUnconfigured(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/auth/login", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("login status = %d, want 503 without Google config", rec.Code)
	}
}
