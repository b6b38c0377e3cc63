// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import "time"

// IsApprover reports whether p's cumulative contribution clears the threshold.
func (c *Campaign) IsApprover(p Principal) bool {
	total, ok := c.totals[p]
	return ok && total >= c.approvalThreshold
}

// Approve records p's approval of the withdrawal. Approving twice returns the
// existing receipt.
func (c *Campaign) Approve(p Principal, now time.Time) (ApprovalReceipt, error) {
	if c.state == StateClosed {
		return ApprovalReceipt{}, ErrCampaignClosed
	}
	if !c.IsApprover(p) {
		return ApprovalReceipt{}, ErrNotQualified
	}
	if c.state != StateSuccessful {
		return ApprovalReceipt{}, ErrCampaignNotEligible
	}

	if i, ok := c.approvedBy[p]; ok {
		return c.approvalReceipt(c.approvals[i]), nil
	}
	a := Approval{Approver: p, At: now.UTC()}
	c.approvals = append(c.approvals, a)
	c.approvedBy[p] = len(c.approvals) - 1
	return c.approvalReceipt(a), nil
}

func (c *Campaign) approvalReceipt(a Approval) ApprovalReceipt {
	return ApprovalReceipt{
		CampaignID:    c.id,
		Approver:      a.Approver,
		At:            a.At,
		ApprovalCount: c.ApprovalCount(),
	}
}

// ApprovalCount counts distinct approvers who still qualify. Qualification is
// checked now rather than when the approval was recorded.
func (c *Campaign) ApprovalCount() int {
	n := 0
	for _, a := range c.approvals {
		if c.IsApprover(a.Approver) {
			n++
		}
	}
	return n
}

func (c *Campaign) HasApproved(p Principal) bool {
	_, ok := c.approvedBy[p]
	return ok
}

// Approvals returns the register in the order approvals were given.
func (c *Campaign) Approvals() []Approval {
	out := make([]Approval, len(c.approvals))
	copy(out, c.approvals)
	return out
}
