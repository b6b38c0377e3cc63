// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/fundgate/cliparse"
	"github.com/danielhkuo/fundgate/engine"
	"github.com/danielhkuo/fundgate/ledger"
	"github.com/danielhkuo/fundgate/middleware"
	"github.com/danielhkuo/fundgate/models"
	"github.com/danielhkuo/fundgate/testutil"
)

const (
	owner ledger.Principal = "0xowner"
	alice ledger.Principal = "0xalice"
	bob   ledger.Principal = "0xbob"
)

type testServer struct {
	mux   *http.ServeMux
	eng   *engine.Engine
	clock *testutil.Clock
	cfg   cliparse.Config
}

// newTestServer mounts every handler the way the router does.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clock := testutil.NewClock()
	eng := testutil.SetupEngine(t, clock)
	return newTestServerWith(t, eng, clock)
}

func newTestServerWith(t *testing.T, eng *engine.Engine, clock *testutil.Clock) *testServer {
	t.Helper()
	cfg := testutil.GetTestConfig()
	mux := http.NewServeMux()
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.Authenticate(cfg.TokenSecret, h)
	}

	ch := NewCampaignHandler(eng)
	fh := NewFundingHandler(eng)
	ah := NewApprovalHandler(eng)
	ph := NewPayoutHandler(eng)
	sh := NewSubscriptionHandler(eng)

	mux.HandleFunc("POST /campaigns", authed(ch.CreateCampaign))
	mux.HandleFunc("GET /campaigns", ch.ListCampaigns)
	mux.HandleFunc("GET /campaigns/{id}", ch.GetCampaign)
	mux.HandleFunc("POST /campaigns/{id}/status", authed(ch.RefreshStatus))
	mux.HandleFunc("POST /campaigns/{id}/emergency-stop", authed(ch.EmergencyStop))
	mux.HandleFunc("GET /campaigns/{id}/events", ch.GetEvents)
	mux.HandleFunc("POST /campaigns/{id}/updates", authed(ch.PostUpdate))
	mux.HandleFunc("POST /campaigns/{id}/subscription", authed(sh.Subscribe))
	mux.HandleFunc("DELETE /campaigns/{id}/subscription", authed(sh.Unsubscribe))
	mux.HandleFunc("GET /me/notifications", authed(sh.MyNotifications))
	mux.HandleFunc("DELETE /me/notifications", authed(sh.ClearNotifications))
	mux.HandleFunc("POST /campaigns/{id}/contributions", authed(fh.Contribute))
	mux.HandleFunc("GET /campaigns/{id}/contributors/{principal}", fh.GetContributor)
	mux.HandleFunc("GET /me/contributions", authed(fh.MyContributions))
	mux.HandleFunc("POST /campaigns/{id}/approvals", authed(ah.Approve))
	mux.HandleFunc("GET /campaigns/{id}/approvals", ah.GetApprovals)
	mux.HandleFunc("POST /campaigns/{id}/withdrawal", authed(ph.Withdraw))
	mux.HandleFunc("POST /campaigns/{id}/refunds", authed(ph.Refund))
	mux.HandleFunc("POST /campaigns/{id}/refunds/sweep", authed(ph.SweepRefunds))

	return &testServer{mux: mux, eng: eng, clock: clock, cfg: cfg}
}

// do sends a request as p; an empty p sends no token.
func (s *testServer) do(t *testing.T, method, path string, body interface{}, p ledger.Principal) *httptest.ResponseRecorder {
	t.Helper()
	var headers map[string]string
	if p != "" {
		headers = testutil.AuthHeader(t, s.cfg, p)
	}
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, testutil.MakeRequest(method, path, body, headers))
	return w
}

func (s *testServer) campaign(t *testing.T) string {
	t.Helper()
	return testutil.CreateTestCampaign(t, s.eng, s.clock, owner)
}

// assertCode checks the status and the machine-readable error code.
func assertCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	testutil.AssertStatus(t, w, status)
	var resp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Code != code {
		t.Errorf("Expected code %q, got %q (%s)", code, resp.Code, resp.Message)
	}
}
