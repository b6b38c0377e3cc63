// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"time"

	"github.com/danielhkuo/fundgate/ledger"
)

// View is a read-only picture of a campaign. EffectiveState is the state the
// next command would see; State is what is stored.
type View struct {
	ledger.Snapshot
	EffectiveState ledger.State
	ApprovalCount  int
}

// ContributorStatus answers the per-principal questions a dashboard asks.
type ContributorStatus struct {
	CampaignID  string
	Principal   ledger.Principal
	Total       int64
	Refunded    int64
	Refundable  int64
	IsApprover  bool
	HasApproved bool
}

// ApprovalStatus reports progress towards the withdrawal quorum.
type ApprovalStatus struct {
	CampaignID string
	Count      int
	Required   int
	Approvals  []ledger.Approval
}

// Get returns the campaign with its state projected to now. Nothing is
// persisted.
func (e *Engine) Get(ctx context.Context, id string) (View, error) {
	c, err := e.view(ctx, id)
	if err != nil {
		return View{}, err
	}
	return viewOf(c, e.clock.Now()), nil
}

func viewOf(c *ledger.Campaign, now time.Time) View {
	return View{
		Snapshot:       c.Snapshot(),
		EffectiveState: c.ProjectedState(now),
		ApprovalCount:  c.ApprovalCount(),
	}
}

// TotalBy is the cumulative amount p has contributed to the campaign.
func (e *Engine) TotalBy(ctx context.Context, id string, p ledger.Principal) (int64, error) {
	c, err := e.view(ctx, id)
	if err != nil {
		return 0, err
	}
	return c.TotalBy(p), nil
}

func (e *Engine) Contributor(ctx context.Context, id string, p ledger.Principal) (ContributorStatus, error) {
	c, err := e.view(ctx, id)
	if err != nil {
		return ContributorStatus{}, err
	}
	return ContributorStatus{
		CampaignID:  id,
		Principal:   p,
		Total:       c.TotalBy(p),
		Refunded:    c.RefundedTo(p),
		Refundable:  c.Refundable(p),
		IsApprover:  c.IsApprover(p),
		HasApproved: c.HasApproved(p),
	}, nil
}

func (e *Engine) Approvals(ctx context.Context, id string) (ApprovalStatus, error) {
	c, err := e.view(ctx, id)
	if err != nil {
		return ApprovalStatus{}, err
	}
	return ApprovalStatus{
		CampaignID: id,
		Count:      c.ApprovalCount(),
		Required:   c.RequiredApprovals(),
		Approvals:  c.Approvals(),
	}, nil
}

// List returns campaign summaries matching f. Summaries carry no ledger rows;
// their State field is projected to now.
func (e *Engine) List(ctx context.Context, f ListFilter) ([]ledger.Snapshot, error) {
	if f.Kind != "" {
		if _, err := ledger.ParseKind(string(f.Kind)); err != nil {
			return nil, err
		}
	}
	if f.State != "" && !f.State.Valid() {
		return nil, ledger.ErrInvalidCampaign
	}
	// The state filter must see projected states, so it and the limit are
	// applied here rather than in the store.
	query := f
	query.State = ""
	if f.State != "" {
		query.Limit = 0
	}
	rows, err := e.store.List(ctx, query)
	if err != nil {
		return nil, unavailable("list campaigns", err)
	}
	now := e.clock.Now()
	out := make([]ledger.Snapshot, 0, len(rows))
	for _, s := range rows {
		s.State = ledger.NextState(s.State, s.Balance, s.Target, now, s.Deadline)
		if f.State != "" && s.State != f.State {
			continue
		}
		out = append(out, s)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// Events returns the campaign's domain events, oldest first.
func (e *Engine) Events(ctx context.Context, id string, limit int) ([]ledger.Event, error) {
	if _, err := e.view(ctx, id); err != nil {
		return nil, err
	}
	evs, err := e.store.Events(ctx, id, limit)
	if err != nil {
		return nil, unavailable("list events", err)
	}
	return evs, nil
}

// ContributionsBy lists p's contributions across all campaigns.
func (e *Engine) ContributionsBy(ctx context.Context, p ledger.Principal) ([]ContributionRecord, error) {
	if p == "" {
		return nil, ledger.ErrUnauthorized
	}
	out, err := e.store.ContributionsBy(ctx, p)
	if err != nil {
		return nil, unavailable("list contributions", err)
	}
	return out, nil
}
