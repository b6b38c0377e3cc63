// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger is the campaign funding engine: tier catalog, contribution
ledger, approval register, lifecycle state machine and the withdrawal/refund
processor. It performs no I/O and holds no locks; callers serialize commands
per campaign (see package engine).

# Lifecycle

	active ──balance >= target──────────────▶ successful ──withdraw──▶ closed
	   │                                                                  ▲
	   ├──now >= deadline, balance < target──▶ failed ──refunds────────────┘
	   └──emergency stop (owner)────────────▶ failed

State is never assigned by callers. Every command re-derives it with
NextState from (state, balance, target, now, deadline):

	c.Refresh(now)

# Commands

	receipt, err := c.Contribute(p, 500, &tier, requestKey, now)
	approval, err := c.Approve(p, now)
	result, err := c.Withdraw(owner, now)
	refund, err := c.Refund(p, now)
	refunds, err := c.SweepRefunds(owner, now)
	stop, err := c.EmergencyStop(owner, now)

A command that returns an error leaves the campaign unchanged.

# Invariants

  - balance == sum(contributions) - released - refunded, and balance >= 0
  - closed is reached only from successful or failed
  - withdrawal requires ApprovalCount() >= RequiredApprovals()

# Persistence

Snapshot and Restore convert to and from the exported storage form. Restore
rejects snapshots whose balance does not match their ledger.
*/
package ledger
