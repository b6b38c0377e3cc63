// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import "time"

// Withdraw releases the whole balance of a successful campaign to its owner
// once the approval quorum is met, and closes the campaign.
func (c *Campaign) Withdraw(requestor Principal, now time.Time) (WithdrawalResult, error) {
	if c.state == StateClosed {
		return WithdrawalResult{}, ErrCampaignClosed
	}
	if requestor != c.owner {
		return WithdrawalResult{}, ErrUnauthorized
	}
	if c.state != StateSuccessful {
		return WithdrawalResult{}, ErrCampaignNotEligible
	}
	if c.ApprovalCount() < c.requiredApprovals {
		return WithdrawalResult{}, ErrInsufficientApprovals
	}

	amount := c.balance
	c.released += amount
	c.balance = 0
	c.enter(StateClosed)

	return WithdrawalResult{
		CampaignID: c.id,
		Owner:      c.owner,
		Amount:     amount,
		State:      c.state,
		At:         now.UTC(),
	}, nil
}

// Refundable is what p can still reclaim from a failed campaign.
func (c *Campaign) Refundable(p Principal) int64 {
	return c.totals[p] - c.refundedBy[p]
}

// RefundedTo is what p has already been refunded.
func (c *Campaign) RefundedTo(p Principal) int64 {
	return c.refundedBy[p]
}

// Refund returns contributor's outstanding contributions. The campaign closes
// when everything held at the moment of failure has been returned.
func (c *Campaign) Refund(contributor Principal, now time.Time) (RefundResult, error) {
	if c.state == StateClosed {
		return RefundResult{}, ErrCampaignClosed
	}
	if c.state != StateFailed {
		return RefundResult{}, ErrCampaignNotEligible
	}
	amount := c.Refundable(contributor)
	if amount <= 0 {
		return RefundResult{}, ErrNothingToRefund
	}
	c.refund(contributor, amount)
	return c.refundResult(contributor, amount, now), nil
}

// SweepRefunds refunds every contributor with an outstanding amount and closes
// the campaign. Only the owner may sweep.
func (c *Campaign) SweepRefunds(requestor Principal, now time.Time) ([]RefundResult, error) {
	if c.state == StateClosed {
		return nil, ErrCampaignClosed
	}
	if requestor != c.owner {
		return nil, ErrUnauthorized
	}
	if c.state != StateFailed {
		return nil, ErrCampaignNotEligible
	}

	var out []RefundResult
	for _, p := range c.Contributors() {
		amount := c.Refundable(p)
		if amount <= 0 {
			continue
		}
		c.refund(p, amount)
		out = append(out, c.refundResult(p, amount, now))
	}
	if c.state != StateClosed && c.balance == 0 {
		c.enter(StateClosed)
	}
	return out, nil
}

func (c *Campaign) refund(p Principal, amount int64) {
	c.refundedBy[p] += amount
	c.refunded += amount
	c.balance -= amount
	if c.refunded >= c.failedBalance {
		c.enter(StateClosed)
	}
}

func (c *Campaign) refundResult(p Principal, amount int64, now time.Time) RefundResult {
	return RefundResult{
		CampaignID:  c.id,
		Contributor: p,
		Amount:      amount,
		Balance:     c.balance,
		State:       c.state,
		At:          now.UTC(),
	}
}

// EmergencyStop lets the owner fail an active campaign regardless of its
// balance, which opens refunds.
func (c *Campaign) EmergencyStop(requestor Principal, now time.Time) (StopResult, error) {
	if c.state == StateClosed {
		return StopResult{}, ErrCampaignClosed
	}
	if requestor != c.owner {
		return StopResult{}, ErrUnauthorized
	}
	if c.state != StateActive {
		return StopResult{}, ErrCampaignNotActive
	}
	c.enter(StateFailed)
	return StopResult{
		CampaignID: c.id,
		Balance:    c.balance,
		State:      c.state,
		At:         now.UTC(),
	}, nil
}
