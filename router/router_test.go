// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/fundgate/ledger"
	"github.com/danielhkuo/fundgate/models"
	"github.com/danielhkuo/fundgate/testutil"
)

func setup(t *testing.T) (*http.ServeMux, *testutil.Clock) {
	t.Helper()
	clock := testutil.NewClock()
	eng := testutil.SetupEngine(t, clock)
	return NewRouter(eng, testutil.GetTestConfig()), clock
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := setup(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _ := setup(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	expected := "fundgate API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/nowhere", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown path, got %d", w.Code)
	}
}

func TestRouteExistence(t *testing.T) {
	mux, _ := setup(t)

	// 400, 401, 404 are all valid responses depending on handler logic
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/"},

		{"POST", "/campaigns"},
		{"GET", "/campaigns"},
		{"GET", "/campaigns/c1"},
		{"POST", "/campaigns/c1/status"},
		{"POST", "/campaigns/c1/emergency-stop"},
		{"GET", "/campaigns/c1/events"},

		{"POST", "/campaigns/c1/contributions"},
		{"GET", "/campaigns/c1/contributors/0xabc"},
		{"GET", "/me/contributions"},

		{"POST", "/campaigns/c1/approvals"},
		{"GET", "/campaigns/c1/approvals"},

		{"POST", "/campaigns/c1/withdrawal"},
		{"POST", "/campaigns/c1/refunds"},
		{"POST", "/campaigns/c1/refunds/sweep"},

		{"POST", "/campaigns/c1/updates"},
		{"POST", "/campaigns/c1/subscription"},
		{"DELETE", "/campaigns/c1/subscription"},
		{"GET", "/me/notifications"},
		{"DELETE", "/me/notifications"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux, _ := setup(t)

	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/health"},
		{"DELETE", "/campaigns/c1"},
		{"GET", "/campaigns/c1/withdrawal"},
		{"PUT", "/campaigns/c1/approvals"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestMutatingRoutesRequireToken(t *testing.T) {
	mux, _ := setup(t)

	paths := []string{
		"/campaigns",
		"/campaigns/c1/status",
		"/campaigns/c1/contributions",
		"/campaigns/c1/approvals",
		"/campaigns/c1/withdrawal",
		"/campaigns/c1/refunds",
		"/campaigns/c1/refunds/sweep",
		"/campaigns/c1/emergency-stop",
		"/campaigns/c1/updates",
		"/campaigns/c1/subscription",
	}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, testutil.MakeRequest("POST", p, map[string]any{}, nil))
			testutil.AssertStatus(t, w, http.StatusUnauthorized)
		})
	}

	for _, r := range []struct{ method, path string }{
		{"GET", "/me/contributions"},
		{"GET", "/me/notifications"},
		{"DELETE", "/me/notifications"},
		{"DELETE", "/campaigns/c1/subscription"},
	} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(r.method, r.path, nil))
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	}
}

func TestFundingToWithdrawal(t *testing.T) {
	mux, clock := setup(t)
	cfg := testutil.GetTestConfig()
	owner := testutil.AuthHeader(t, cfg, "0xowner")
	alice := testutil.AuthHeader(t, cfg, "0xalice")
	bob := testutil.AuthHeader(t, cfg, "0xbob")

	serve := func(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.MakeRequest(method, path, body, headers))
		return w
	}

	w := serve("POST", "/campaigns", models.CreateCampaignRequest{
		Title:             "Solar kiosk",
		Kind:              "startup",
		Target:            1000,
		Deadline:          clock.Now().Add(48 * time.Hour),
		ApprovalThreshold: 200,
		RequiredApprovals: 2,
		Tiers: []models.TierRequest{
			{Name: "Seed", Amount: 100},
			{Name: "Sprout", Amount: 500},
			{Name: "Tree", Amount: 1000},
		},
	}, owner)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var created models.CampaignResponse
	testutil.AssertJSON(t, w, &created)
	base := "/campaigns/" + created.ID

	testutil.AssertStatus(t, serve("POST", base+"/contributions", models.ContributeRequest{Amount: 600}, alice), http.StatusCreated)
	testutil.AssertStatus(t, serve("POST", base+"/contributions", models.ContributeRequest{Amount: 400}, bob), http.StatusCreated)

	// Quorum not met yet
	testutil.AssertStatus(t, serve("POST", base+"/approvals", nil, alice), http.StatusOK)
	w = serve("POST", base+"/withdrawal", nil, owner)
	testutil.AssertStatus(t, w, http.StatusUnprocessableEntity)

	testutil.AssertStatus(t, serve("POST", base+"/approvals", nil, bob), http.StatusOK)

	w = serve("GET", base+"/approvals", nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var approvals models.ApprovalsResponse
	testutil.AssertJSON(t, w, &approvals)
	if approvals.Count != 2 || !approvals.QuorumMet {
		t.Errorf("Expected quorum with 2 approvals, got %+v", approvals)
	}

	w = serve("POST", base+"/withdrawal", nil, owner)
	testutil.AssertStatus(t, w, http.StatusOK)
	var res ledger.WithdrawalResult
	testutil.AssertJSON(t, w, &res)
	if res.Amount != 1000 || res.State != ledger.StateClosed {
		t.Errorf("Unexpected withdrawal %+v", res)
	}

	w = serve("GET", base+"/events", nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var evs models.EventsResponse
	testutil.AssertJSON(t, w, &evs)
	if len(evs.Events) == 0 || evs.Events[len(evs.Events)-1].NewState != ledger.StateClosed {
		t.Errorf("Expected feed to end in closed state, got %+v", evs.Events)
	}
}

func TestSubscriberFeed(t *testing.T) {
	mux, clock := setup(t)
	cfg := testutil.GetTestConfig()
	owner := testutil.AuthHeader(t, cfg, "0xowner")
	carol := testutil.AuthHeader(t, cfg, "0xcarol")

	serve := func(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.MakeRequest(method, path, body, headers))
		return w
	}

	w := serve("POST", "/campaigns", models.CreateCampaignRequest{
		Title:             "Community radio",
		Kind:              "donation",
		Target:            500,
		Deadline:          clock.Now().Add(72 * time.Hour),
		ApprovalThreshold: 50,
		RequiredApprovals: 1,
		Tiers: []models.TierRequest{
			{Name: "Listener", Amount: 10},
			{Name: "Host", Amount: 100},
			{Name: "Station", Amount: 500},
		},
	}, owner)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var created models.CampaignResponse
	testutil.AssertJSON(t, w, &created)
	base := "/campaigns/" + created.ID

	testutil.AssertStatus(t, serve("POST", base+"/subscription", nil, carol), http.StatusOK)
	clock.Advance(time.Hour)
	testutil.AssertStatus(t, serve("POST", base+"/updates", models.PostUpdateRequest{
		Title:   "Transmitter ordered",
		Message: "We go on air next month.",
	}, owner), http.StatusCreated)
	testutil.AssertStatus(t, serve("POST", base+"/updates", models.PostUpdateRequest{Title: "x", Message: "y"}, carol), http.StatusForbidden)

	w = serve("GET", "/me/notifications", nil, carol)
	testutil.AssertStatus(t, w, http.StatusOK)
	var feed models.NotificationsResponse
	testutil.AssertJSON(t, w, &feed)
	if len(feed.Notifications) != 1 || feed.Notifications[0].Title != "Transmitter ordered" {
		t.Fatalf("Expected the owner update in the feed, got %+v", feed.Notifications)
	}

	w = serve("DELETE", "/me/notifications", nil, carol)
	testutil.AssertStatus(t, w, http.StatusOK)
	var cleared models.ClearNotificationsResponse
	testutil.AssertJSON(t, w, &cleared)
	if cleared.Cleared != 1 {
		t.Errorf("Expected 1 cleared notification, got %d", cleared.Cleared)
	}

	testutil.AssertStatus(t, serve("DELETE", base+"/subscription", nil, carol), http.StatusOK)
	testutil.AssertStatus(t, serve("POST", base+"/updates", models.PostUpdateRequest{Title: "Again", Message: "More news."}, owner), http.StatusCreated)

	w = serve("GET", "/me/notifications", nil, carol)
	testutil.AssertStatus(t, w, http.StatusOK)
	feed = models.NotificationsResponse{}
	testutil.AssertJSON(t, w, &feed)
	if len(feed.Notifications) != 0 {
		t.Errorf("Expected empty feed after unsubscribing, got %+v", feed.Notifications)
	}
}
