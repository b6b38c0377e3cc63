// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0       = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	deadline = t0.Add(30 * 24 * time.Hour)
)

const owner Principal = "0xowner"

func testTiers() []Tier {
	return []Tier{
		{Name: "Bronze", Amount: 100, Description: "Thanks"},
		{Name: "Silver", Amount: 500, Description: "Sticker"},
		{Name: "Gold", Amount: 1000, Description: "T-shirt"},
	}
}

func testParams() Params {
	return Params{
		Title:             "Solar kiosk",
		Kind:              KindStartup,
		Target:            1000,
		Deadline:          deadline,
		ApprovalThreshold: 200,
		RequiredApprovals: 1,
		Tiers:             testTiers(),
	}
}

func newTestCampaign(t *testing.T, mutate ...func(*Params)) *Campaign {
	t.Helper()
	p := testParams()
	for _, m := range mutate {
		m(&p)
	}
	c, err := NewCampaign("c1", owner, p, t0)
	require.NoError(t, err)
	return c
}

func contribute(t *testing.T, c *Campaign, p Principal, amount int64, at time.Time) ContributionReceipt {
	t.Helper()
	r, err := c.Contribute(p, amount, nil, "", at)
	require.NoError(t, err)
	return r
}

func assertBalanceInvariant(t *testing.T, c *Campaign) {
	t.Helper()
	var sum int64
	for _, ct := range c.contributions {
		sum += ct.Amount
	}
	assert.Equal(t, sum-c.released-c.refunded, c.balance, "balance invariant")
	assert.GreaterOrEqual(t, c.balance, int64(0))
}

func TestNewCampaign_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr error
	}{
		{"zero target", func(p *Params) { p.Target = 0 }, ErrInvalidCampaign},
		{"deadline in past", func(p *Params) { p.Deadline = t0.Add(-time.Hour) }, ErrInvalidCampaign},
		{"deadline now", func(p *Params) { p.Deadline = t0 }, ErrInvalidCampaign},
		{"unknown kind", func(p *Params) { p.Kind = "lottery" }, ErrInvalidCampaign},
		{"negative threshold", func(p *Params) { p.ApprovalThreshold = -1 }, ErrInvalidCampaign},
		{"no required approvals", func(p *Params) { p.RequiredApprovals = 0 }, ErrInvalidCampaign},
		{"two tiers", func(p *Params) { p.Tiers = p.Tiers[:2] }, ErrInvalidTierCatalog},
		{"zero tier amount", func(p *Params) { p.Tiers[1].Amount = 0 }, ErrInvalidTierCatalog},
		{"unnamed tier", func(p *Params) { p.Tiers[2].Name = " " }, ErrInvalidTierCatalog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			_, err := NewCampaign("c1", owner, p, t0)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, CategoryValidation, Classify(err))
		})
	}
}

func TestNewCampaign_TiersNeedNotIncrease(t *testing.T) {
	c := newTestCampaign(t, func(p *Params) {
		p.Tiers = []Tier{{Name: "A", Amount: 900}, {Name: "B", Amount: 100}, {Name: "C", Amount: 500}}
	})
	assert.Equal(t, StateActive, c.State())
	assert.Equal(t, int64(900), c.Tiers()[0].Amount)
}

func TestNextState(t *testing.T) {
	before := deadline.Add(-time.Minute)
	tests := []struct {
		name    string
		state   State
		balance int64
		now     time.Time
		want    State
	}{
		{"active below target before deadline", StateActive, 400, before, StateActive},
		{"active reaches target before deadline", StateActive, 1000, before, StateSuccessful},
		{"active over target at deadline", StateActive, 1200, deadline, StateSuccessful},
		{"active below target at deadline", StateActive, 400, deadline, StateFailed},
		{"successful stays", StateSuccessful, 0, deadline.Add(time.Hour), StateSuccessful},
		{"failed stays", StateFailed, 2000, before, StateFailed},
		{"closed stays", StateClosed, 0, before, StateClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextState(tt.state, tt.balance, 1000, tt.now, deadline))
		})
	}
}

func TestSnapshotRestore(t *testing.T) {
	c := newTestCampaign(t)
	contribute(t, c, "a", 250, t0.Add(time.Hour))
	contribute(t, c, "b", 800, t0.Add(2*time.Hour))
	_, err := c.Approve("a", t0.Add(3*time.Hour))
	require.NoError(t, err)

	restored, err := Restore(c.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, c.Snapshot(), restored.Snapshot())
	assert.Equal(t, int64(250), restored.TotalBy("a"))
	assert.True(t, restored.HasApproved("a"))

	r := contribute(t, newTestCampaign(t), "x", 1, t0.Add(time.Minute))
	assert.Equal(t, int64(1), r.Seq)
}

func TestRestore_RejectsBrokenLedger(t *testing.T) {
	c := newTestCampaign(t)
	contribute(t, c, "a", 250, t0.Add(time.Hour))

	s := c.Snapshot()
	s.Balance = 999
	_, err := Restore(s)
	assert.Error(t, err)

	s = c.Snapshot()
	s.Contributions[0].Seq = 7
	_, err = Restore(s)
	assert.Error(t, err)

	s = c.Snapshot()
	s.State = "paused"
	_, err = Restore(s)
	assert.Error(t, err)
}

func TestClone_IsIndependent(t *testing.T) {
	c := newTestCampaign(t)
	contribute(t, c, "a", 250, t0.Add(time.Hour))

	cp := c.Clone()
	contribute(t, cp, "a", 100, t0.Add(2*time.Hour))

	assert.Equal(t, int64(250), c.TotalBy("a"))
	assert.Equal(t, 1, c.Contributions())
	assert.Equal(t, int64(350), cp.TotalBy("a"))
}

func TestClassifyAndCode(t *testing.T) {
	assert.Equal(t, CategoryEligibility, Classify(ErrDeadlinePassed))
	assert.Equal(t, CategoryAuthorization, Classify(ErrNotQualified))
	assert.Equal(t, CategoryQuorum, Classify(ErrInsufficientApprovals))
	assert.Equal(t, CategoryNotFound, Classify(ErrCampaignNotFound))
	assert.Equal(t, CategoryUnknown, Classify(assert.AnError))
	assert.Equal(t, Category(""), Classify(nil))
	assert.Equal(t, "nothing_to_refund", Code(ErrNothingToRefund))
	assert.Equal(t, CategoryValidation, Classify(ErrInvalidUpdate))
	assert.Equal(t, "invalid_update", Code(fmt.Errorf("%w: title is required", ErrInvalidUpdate)))
	assert.Equal(t, "internal", Code(assert.AnError))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Donation ")
	require.NoError(t, err)
	assert.Equal(t, KindDonation, k)

	_, err = ParseKind("grant")
	assert.ErrorIs(t, err, ErrInvalidCampaign)
}
