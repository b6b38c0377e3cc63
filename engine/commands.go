// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"time"

	"github.com/danielhkuo/fundgate/ledger"
)

// CreateCampaign validates p and stores a new Active campaign owned by owner.
func (e *Engine) CreateCampaign(ctx context.Context, owner ledger.Principal, p ledger.Params) (ledger.Snapshot, error) {
	if owner == "" {
		return ledger.Snapshot{}, ledger.ErrUnauthorized
	}
	now := e.clock.Now()
	c, err := ledger.NewCampaign(e.newID(), owner, p, now)
	if err != nil {
		return ledger.Snapshot{}, err
	}

	events := []ledger.Event{e.event(c, ledger.EventCampaignCreated, owner, ledger.Amount(c.Target()), now)}
	if err := e.store.Create(ctx, c, events); err != nil {
		return ledger.Snapshot{}, unavailable("create campaign", err)
	}
	e.logger.Info("campaign created",
		"campaign_id", c.ID(),
		"owner", owner,
		"kind", c.Kind(),
		"target", c.Target(),
	)
	e.publish(ctx, events)
	return c.Snapshot(), nil
}

// Refresh persists any state transition that time alone has caused. It is the
// status check command and is a no-op on a Closed campaign. The returned view
// counts only approvals that still qualify.
func (e *Engine) Refresh(ctx context.Context, id string, actor ledger.Principal) (View, error) {
	var now time.Time
	c, err := e.exec(ctx, id, actor, func(_ *ledger.Campaign, at time.Time) ([]ledger.Event, error) {
		now = at
		return nil, nil
	})
	if err != nil {
		return View{}, err
	}
	return viewOf(c, now), nil
}

// Contribute records a contribution. A non-empty requestKey makes retries
// return the original receipt instead of recording twice.
func (e *Engine) Contribute(ctx context.Context, id string, contributor ledger.Principal, amount int64, tierIndex *int, requestKey string) (ledger.ContributionReceipt, error) {
	var receipt ledger.ContributionReceipt
	_, err := e.exec(ctx, id, contributor, func(c *ledger.Campaign, now time.Time) ([]ledger.Event, error) {
		r, err := c.Contribute(contributor, amount, tierIndex, requestKey, now)
		if err != nil {
			return nil, err
		}
		receipt = r
		if r.Replayed {
			return nil, nil
		}
		return []ledger.Event{e.event(c, ledger.EventContributionRecorded, contributor, ledger.Amount(amount), now)}, nil
	})
	if err != nil {
		return ledger.ContributionReceipt{}, err
	}
	return receipt, nil
}

// Approve records approver's vote to release a successful campaign's funds.
func (e *Engine) Approve(ctx context.Context, id string, approver ledger.Principal) (ledger.ApprovalReceipt, error) {
	var receipt ledger.ApprovalReceipt
	_, err := e.exec(ctx, id, approver, func(c *ledger.Campaign, now time.Time) ([]ledger.Event, error) {
		already := c.HasApproved(approver)
		r, err := c.Approve(approver, now)
		if err != nil {
			return nil, err
		}
		receipt = r
		if already {
			return nil, nil
		}
		return []ledger.Event{e.event(c, ledger.EventWithdrawalApproved, approver, nil, now)}, nil
	})
	if err != nil {
		return ledger.ApprovalReceipt{}, err
	}
	return receipt, nil
}

func (e *Engine) Withdraw(ctx context.Context, id string, requestor ledger.Principal) (ledger.WithdrawalResult, error) {
	var res ledger.WithdrawalResult
	_, err := e.exec(ctx, id, requestor, func(c *ledger.Campaign, now time.Time) ([]ledger.Event, error) {
		r, err := c.Withdraw(requestor, now)
		if err != nil {
			return nil, err
		}
		res = r
		return []ledger.Event{e.event(c, ledger.EventFundsWithdrawn, requestor, ledger.Amount(r.Amount), now)}, nil
	})
	if err != nil {
		return ledger.WithdrawalResult{}, err
	}
	e.logger.Info("funds withdrawn", "campaign_id", id, "owner", requestor, "amount", res.Amount)
	return res, nil
}

func (e *Engine) Refund(ctx context.Context, id string, contributor ledger.Principal) (ledger.RefundResult, error) {
	var res ledger.RefundResult
	_, err := e.exec(ctx, id, contributor, func(c *ledger.Campaign, now time.Time) ([]ledger.Event, error) {
		r, err := c.Refund(contributor, now)
		if err != nil {
			return nil, err
		}
		res = r
		return []ledger.Event{e.event(c, ledger.EventRefundIssued, contributor, ledger.Amount(r.Amount), now)}, nil
	})
	if err != nil {
		return ledger.RefundResult{}, err
	}
	return res, nil
}

// SweepRefunds refunds every outstanding contributor of a failed campaign on
// the owner's behalf.
func (e *Engine) SweepRefunds(ctx context.Context, id string, requestor ledger.Principal) ([]ledger.RefundResult, error) {
	var out []ledger.RefundResult
	_, err := e.exec(ctx, id, requestor, func(c *ledger.Campaign, now time.Time) ([]ledger.Event, error) {
		rs, err := c.SweepRefunds(requestor, now)
		if err != nil {
			return nil, err
		}
		out = rs
		events := make([]ledger.Event, 0, len(rs))
		for _, r := range rs {
			events = append(events, e.event(c, ledger.EventRefundIssued, r.Contributor, ledger.Amount(r.Amount), now))
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("refunds swept", "campaign_id", id, "refunds", len(out))
	return out, nil
}

// PostUpdate publishes an owner announcement to the campaign's subscribers.
func (e *Engine) PostUpdate(ctx context.Context, id string, author ledger.Principal, title, message string) (ledger.Update, error) {
	var u ledger.Update
	_, err := e.exec(ctx, id, author, func(c *ledger.Campaign, now time.Time) ([]ledger.Event, error) {
		r, err := c.PostUpdate(author, title, message, now)
		if err != nil {
			return nil, err
		}
		u = r
		ev := e.event(c, ledger.EventCampaignUpdate, author, nil, now)
		ev.Title, ev.Message = r.Title, r.Message
		return []ledger.Event{ev}, nil
	})
	if err != nil {
		return ledger.Update{}, err
	}
	e.logger.Info("campaign update posted", "campaign_id", id, "title", u.Title)
	return u, nil
}

func (e *Engine) EmergencyStop(ctx context.Context, id string, requestor ledger.Principal) (ledger.StopResult, error) {
	var res ledger.StopResult
	_, err := e.exec(ctx, id, requestor, func(c *ledger.Campaign, now time.Time) ([]ledger.Event, error) {
		r, err := c.EmergencyStop(requestor, now)
		if err != nil {
			return nil, err
		}
		res = r
		return []ledger.Event{e.event(c, ledger.EventEmergencyStopped, requestor, ledger.Amount(r.Balance), now)}, nil
	})
	if err != nil {
		return ledger.StopResult{}, err
	}
	e.logger.Warn("campaign emergency stopped", "campaign_id", id, "balance", res.Balance)
	return res, nil
}
