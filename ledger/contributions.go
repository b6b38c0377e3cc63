// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Contribute appends a contribution and returns its receipt.
//
// A non-empty requestKey makes the call safe to retry: a second call with the
// same key, contributor, amount and tier returns the first receipt and records
// nothing.
func (c *Campaign) Contribute(contributor Principal, amount int64, tierIndex *int, requestKey string, now time.Time) (ContributionReceipt, error) {
	requestKey = strings.TrimSpace(requestKey)
	if requestKey != "" {
		if i, ok := c.byRequestKey[requestKey]; ok {
			prev := c.contributions[i]
			if prev.Contributor != contributor || prev.Amount != amount || !sameTier(prev.TierIndex, tierIndex) {
				return ContributionReceipt{}, ErrIdempotencyConflict
			}
			return ContributionReceipt{
				CampaignID: c.id,
				Seq:        prev.Seq,
				Amount:     prev.Amount,
				Balance:    c.balance,
				State:      c.state,
				At:         prev.At,
				Replayed:   true,
			}, nil
		}
	}

	if strings.TrimSpace(string(contributor)) == "" {
		return ContributionReceipt{}, ErrUnauthorized
	}
	if amount <= 0 {
		return ContributionReceipt{}, ErrInvalidAmount
	}
	if amount > math.MaxInt64-c.balance || amount > math.MaxInt64-c.totals[contributor] {
		return ContributionReceipt{}, fmt.Errorf("%w: contribution would overflow the balance", ErrInvalidAmount)
	}
	if tierIndex != nil && !c.tiers.Has(*tierIndex) {
		return ContributionReceipt{}, fmt.Errorf("%w: %d", ErrInvalidTierIndex, *tierIndex)
	}
	if c.state == StateClosed {
		return ContributionReceipt{}, ErrCampaignClosed
	}
	if !now.Before(c.deadline) {
		return ContributionReceipt{}, ErrDeadlinePassed
	}
	if c.state != StateActive {
		return ContributionReceipt{}, ErrCampaignNotActive
	}

	ct := Contribution{
		Seq:         int64(len(c.contributions) + 1),
		Contributor: contributor,
		Amount:      amount,
		RequestKey:  requestKey,
		At:          now.UTC(),
	}
	if tierIndex != nil {
		idx := *tierIndex
		ct.TierIndex = &idx
	}
	c.contributions = append(c.contributions, ct)
	c.totals[contributor] += amount
	if requestKey != "" {
		c.byRequestKey[requestKey] = len(c.contributions) - 1
	}
	c.balance += amount
	c.Refresh(now)

	return ContributionReceipt{
		CampaignID: c.id,
		Seq:        ct.Seq,
		Amount:     amount,
		Balance:    c.balance,
		State:      c.state,
		At:         ct.At,
	}, nil
}

func sameTier(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// TotalBy sums every contribution recorded for p.
func (c *Campaign) TotalBy(p Principal) int64 {
	return c.totals[p]
}

// ContributionsBy returns p's contributions in sequence order.
func (c *Campaign) ContributionsBy(p Principal) []Contribution {
	var out []Contribution
	for _, ct := range c.contributions {
		if ct.Contributor == p {
			out = append(out, ct)
		}
	}
	return out
}

// Contributors returns every distinct contributor in order of first contribution.
func (c *Campaign) Contributors() []Principal {
	seen := make(map[Principal]bool, len(c.totals))
	var out []Principal
	for _, ct := range c.contributions {
		if !seen[ct.Contributor] {
			seen[ct.Contributor] = true
			out = append(out, ct.Contributor)
		}
	}
	return out
}
