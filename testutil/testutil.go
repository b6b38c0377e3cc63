// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/fundgate/auth"
	"github.com/danielhkuo/fundgate/cliparse"
	"github.com/danielhkuo/fundgate/db"
	"github.com/danielhkuo/fundgate/engine"
	"github.com/danielhkuo/fundgate/ledger"
)

// T0 is the starting time of every test clock.
var T0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Clock is a settable engine clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock { return &Clock{now: T0} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// SetupTestDB opens an in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(context.Background(), db.SQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// SetupEngine returns an engine over a fresh SQLite store, driven by clock.
func SetupEngine(t *testing.T, clock *Clock) *engine.Engine {
	t.Helper()

	store := db.NewSQLStore(SetupTestDB(t), db.SQLite)
	return engine.New(store,
		engine.WithClock(clock),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseType:   cliparse.DatabaseMemory,
		TokenSecret:    "test-token-secret",
		TokenTTL:       time.Hour,
		PublishTimeout: time.Second,
	}
}

// Token issues a bearer token for p valid against cfg.
func Token(t *testing.T, cfg cliparse.Config, p ledger.Principal) string {
	t.Helper()

	tok, err := auth.IssueToken(p, cfg.TokenSecret, cfg.TokenTTL, time.Now())
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return tok
}

// AuthHeader returns request headers authenticating as p.
func AuthHeader(t *testing.T, cfg cliparse.Config, p ledger.Principal) map[string]string {
	t.Helper()
	return map[string]string{"Authorization": "Bearer " + Token(t, cfg, p)}
}

// CampaignParams returns valid parameters relative to now: target 1000,
// approval threshold 200, two approvals required, deadline a week out.
func CampaignParams(now time.Time) ledger.Params {
	return ledger.Params{
		Title:             "Test Campaign",
		Description:       "A test campaign",
		Kind:              ledger.KindStartup,
		Target:            1000,
		Deadline:          now.Add(7 * 24 * time.Hour),
		ApprovalThreshold: 200,
		RequiredApprovals: 2,
		Tiers: []ledger.Tier{
			{Name: "Bronze", Amount: 50},
			{Name: "Silver", Amount: 250},
			{Name: "Gold", Amount: 1000},
		},
	}
}

// CreateTestCampaign creates a campaign owned by owner and returns its id
func CreateTestCampaign(t *testing.T, eng *engine.Engine, clock *Clock, owner ledger.Principal) string {
	t.Helper()

	snap, err := eng.CreateCampaign(context.Background(), owner, CampaignParams(clock.Now()))
	if err != nil {
		t.Fatalf("Failed to create test campaign: %v", err)
	}
	return snap.ID
}

// Contribute records a contribution directly through the engine
func Contribute(t *testing.T, eng *engine.Engine, id string, p ledger.Principal, amount int64) {
	t.Helper()

	if _, err := eng.Contribute(context.Background(), id, p, amount, nil, ""); err != nil {
		t.Fatalf("Failed to contribute %d as %s: %v", amount, p, err)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
