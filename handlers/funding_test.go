// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/fundgate/ledger"
	"github.com/danielhkuo/fundgate/models"
	"github.com/danielhkuo/fundgate/testutil"
)

func intPtr(i int) *int { return &i }

func TestContribute(t *testing.T) {
	s := newTestServer(t)
	id := s.campaign(t)

	w := s.do(t, "POST", "/campaigns/"+id+"/contributions", models.ContributeRequest{Amount: 250, TierIndex: intPtr(1)}, alice)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var receipt ledger.ContributionReceipt
	testutil.AssertJSON(t, w, &receipt)
	if receipt.Seq != 1 || receipt.Balance != 250 || receipt.State != ledger.StateActive || receipt.Replayed {
		t.Errorf("Unexpected receipt %+v", receipt)
	}
}

func TestContribute_Errors(t *testing.T) {
	s := newTestServer(t)
	id := s.campaign(t)
	path := "/campaigns/" + id + "/contributions"

	tests := []struct {
		name   string
		req    models.ContributeRequest
		status int
		code   string
	}{
		{"zero amount", models.ContributeRequest{Amount: 0}, http.StatusBadRequest, "invalid_amount"},
		{"negative amount", models.ContributeRequest{Amount: -5}, http.StatusBadRequest, "invalid_amount"},
		{"tier out of range", models.ContributeRequest{Amount: 50, TierIndex: intPtr(3)}, http.StatusBadRequest, "invalid_tier_index"},
		{"negative tier", models.ContributeRequest{Amount: 50, TierIndex: intPtr(-1)}, http.StatusBadRequest, "invalid_tier_index"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertCode(t, s.do(t, "POST", path, tt.req, alice), tt.status, tt.code)
		})
	}

	t.Run("unknown campaign", func(t *testing.T) {
		w := s.do(t, "POST", "/campaigns/missing/contributions", models.ContributeRequest{Amount: 10}, alice)
		assertCode(t, w, http.StatusNotFound, "campaign_not_found")
	})

	t.Run("key too long", func(t *testing.T) {
		headers := testutil.AuthHeader(t, s.cfg, alice)
		headers[IdempotencyHeader] = strings.Repeat("k", maxIdempotencyKey+1)
		w := httptest.NewRecorder()
		s.mux.ServeHTTP(w, testutil.MakeRequest("POST", path, models.ContributeRequest{Amount: 10}, headers))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestContribute_Lifecycle(t *testing.T) {
	t.Run("target reached", func(t *testing.T) {
		s := newTestServer(t)
		id := s.campaign(t)
		testutil.Contribute(t, s.eng, id, alice, 1000)

		w := s.do(t, "POST", "/campaigns/"+id+"/contributions", models.ContributeRequest{Amount: 10}, bob)
		assertCode(t, w, http.StatusConflict, "campaign_not_active")
	})

	t.Run("deadline passed", func(t *testing.T) {
		s := newTestServer(t)
		id := s.campaign(t)
		s.clock.Advance(7 * 24 * time.Hour)

		w := s.do(t, "POST", "/campaigns/"+id+"/contributions", models.ContributeRequest{Amount: 10}, bob)
		assertCode(t, w, http.StatusConflict, "deadline_passed")
	})
}

func TestContribute_IdempotencyKey(t *testing.T) {
	s := newTestServer(t)
	id := s.campaign(t)
	path := "/campaigns/" + id + "/contributions"

	sendTier := func(p ledger.Principal, amount int64, tier *int) *httptest.ResponseRecorder {
		headers := testutil.AuthHeader(t, s.cfg, p)
		headers[IdempotencyHeader] = "order-42"
		w := httptest.NewRecorder()
		s.mux.ServeHTTP(w, testutil.MakeRequest("POST", path, models.ContributeRequest{Amount: amount, TierIndex: tier}, headers))
		return w
	}
	send := func(p ledger.Principal, amount int64) *httptest.ResponseRecorder {
		return sendTier(p, amount, nil)
	}

	testutil.AssertStatus(t, send(alice, 300), http.StatusCreated)

	w := send(alice, 300)
	testutil.AssertStatus(t, w, http.StatusOK)
	var receipt ledger.ContributionReceipt
	testutil.AssertJSON(t, w, &receipt)
	if !receipt.Replayed || receipt.Seq != 1 || receipt.Balance != 300 {
		t.Errorf("Expected replayed receipt, got %+v", receipt)
	}

	assertCode(t, send(alice, 301), http.StatusBadRequest, "idempotency_conflict")
	assertCode(t, send(bob, 300), http.StatusBadRequest, "idempotency_conflict")
	assertCode(t, sendTier(alice, 300, intPtr(1)), http.StatusBadRequest, "idempotency_conflict")

	total, err := s.eng.TotalBy(context.Background(), id, alice)
	if err != nil {
		t.Fatal(err)
	}
	if total != 300 {
		t.Errorf("Retry must not double count: total %d", total)
	}
}

func TestGetContributor(t *testing.T) {
	s := newTestServer(t)
	id := s.campaign(t)
	testutil.Contribute(t, s.eng, id, alice, 150)
	testutil.Contribute(t, s.eng, id, alice, 100)
	testutil.Contribute(t, s.eng, id, bob, 50)

	tests := []struct {
		p          ledger.Principal
		total      int64
		isApprover bool
	}{
		{alice, 250, true},
		{bob, 50, false},
		{"0xnobody", 0, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.p), func(t *testing.T) {
			w := s.do(t, "GET", "/campaigns/"+id+"/contributors/"+string(tt.p), nil, "")
			testutil.AssertStatus(t, w, http.StatusOK)
			var resp models.ContributorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Total != tt.total || resp.IsApprover != tt.isApprover || resp.HasApproved {
				t.Errorf("Unexpected contributor %+v", resp)
			}
		})
	}
}

func TestMyContributions(t *testing.T) {
	s := newTestServer(t)
	first := s.campaign(t)
	second := s.campaign(t)
	testutil.Contribute(t, s.eng, first, alice, 120)
	testutil.Contribute(t, s.eng, second, alice, 80)
	testutil.Contribute(t, s.eng, second, bob, 999)

	w := s.do(t, "GET", "/me/contributions", nil, alice)
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.MyContributionsResponse
	testutil.AssertJSON(t, w, &resp)

	if resp.Principal != alice || resp.Total != 200 || len(resp.Contributions) != 2 {
		t.Fatalf("Unexpected contributions %+v", resp)
	}
	for _, c := range resp.Contributions {
		if c.CampaignTitle != "Test Campaign" {
			t.Errorf("Expected campaign title, got %q", c.CampaignTitle)
		}
	}

	w = s.do(t, "GET", "/me/contributions", nil, "0xnewcomer")
	testutil.AssertStatus(t, w, http.StatusOK)
	resp = models.MyContributionsResponse{}
	testutil.AssertJSON(t, w, &resp)
	if resp.Contributions == nil || len(resp.Contributions) != 0 {
		t.Errorf("Expected empty list, got %v", resp.Contributions)
	}
}
