// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Campaign is a funding request together with the ledger, approval register
// and refund book it exclusively owns. Lifecycle fields are unexported: state
// only moves through the transition rules in this package.
type Campaign struct {
	id                string
	owner             Principal
	title             string
	description       string
	kind              Kind
	target            int64
	deadline          time.Time
	approvalThreshold int64
	requiredApprovals int
	tiers             TierCatalog
	createdAt         time.Time
	updatedAt         time.Time
	version           int64

	state         State
	balance       int64
	released      int64
	refunded      int64
	failedBalance int64

	contributions []Contribution
	totals        map[Principal]int64
	byRequestKey  map[string]int

	approvals  []Approval
	approvedBy map[Principal]int

	refundedBy map[Principal]int64
}

// NewCampaign validates p and returns an Active campaign owned by owner.
func NewCampaign(id string, owner Principal, p Params, now time.Time) (*Campaign, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidCampaign)
	}
	if strings.TrimSpace(string(owner)) == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidCampaign)
	}
	if p.Kind != KindStartup && p.Kind != KindDonation {
		return nil, fmt.Errorf("%w: unknown campaign kind %q", ErrInvalidCampaign, p.Kind)
	}
	if p.Target <= 0 {
		return nil, fmt.Errorf("%w: target must be positive", ErrInvalidCampaign)
	}
	if !p.Deadline.After(now) {
		return nil, fmt.Errorf("%w: deadline must be in the future", ErrInvalidCampaign)
	}
	if p.ApprovalThreshold < 0 {
		return nil, fmt.Errorf("%w: approval threshold cannot be negative", ErrInvalidCampaign)
	}
	if p.RequiredApprovals < 1 {
		return nil, fmt.Errorf("%w: at least one approval must be required", ErrInvalidCampaign)
	}
	tiers, err := NewTierCatalog(p.Tiers)
	if err != nil {
		return nil, err
	}

	c := &Campaign{
		id:                id,
		owner:             owner,
		title:             p.Title,
		description:       p.Description,
		kind:              p.Kind,
		target:            p.Target,
		deadline:          p.Deadline.UTC(),
		approvalThreshold: p.ApprovalThreshold,
		requiredApprovals: p.RequiredApprovals,
		tiers:             tiers,
		createdAt:         now.UTC(),
		updatedAt:         now.UTC(),
		state:             StateActive,
	}
	c.index()
	return c, nil
}

func (c *Campaign) index() {
	c.totals = make(map[Principal]int64)
	c.byRequestKey = make(map[string]int)
	for i, ct := range c.contributions {
		c.totals[ct.Contributor] += ct.Amount
		if ct.RequestKey != "" {
			c.byRequestKey[ct.RequestKey] = i
		}
	}
	c.approvedBy = make(map[Principal]int)
	for i, a := range c.approvals {
		c.approvedBy[a.Approver] = i
	}
	if c.refundedBy == nil {
		c.refundedBy = make(map[Principal]int64)
	}
}

func (c *Campaign) ID() string { return c.id }
func (c *Campaign) Owner() Principal { return c.owner }
func (c *Campaign) Title() string { return c.title }
func (c *Campaign) Kind() Kind { return c.kind }
func (c *Campaign) State() State { return c.state }
func (c *Campaign) Balance() int64 { return c.balance }
func (c *Campaign) Target() int64 { return c.target }
func (c *Campaign) Deadline() time.Time { return c.deadline }
func (c *Campaign) ApprovalThreshold() int64 { return c.approvalThreshold }
func (c *Campaign) RequiredApprovals() int { return c.requiredApprovals }
func (c *Campaign) Tiers() []Tier { return c.tiers.Tiers() }
func (c *Campaign) Version() int64 { return c.version }
func (c *Campaign) Contributions() int { return len(c.contributions) }
func (c *Campaign) SetVersion(version int64) { c.version = version }
func (c *Campaign) Touch(now time.Time) { c.updatedAt = now.UTC() }
func (c *Campaign) Released() int64 { return c.released }
func (c *Campaign) Refunded() int64 { return c.refunded }
func (c *Campaign) BalanceAtFailure() int64 { return c.failedBalance }

// NextState is the transition rule. It is a pure function of its inputs and
// only ever moves a campaign out of Active; the exits from Successful and
// Failed happen through withdrawal and refunds.
func NextState(s State, balance, target int64, now, deadline time.Time) State {
	if s != StateActive {
		return s
	}
	if balance >= target {
		return StateSuccessful
	}
	if !now.Before(deadline) {
		return StateFailed
	}
	return StateActive
}

// Refresh re-derives the state at now and reports whether it changed.
func (c *Campaign) Refresh(now time.Time) bool {
	next := NextState(c.state, c.balance, c.target, now, c.deadline)
	if next == c.state {
		return false
	}
	c.enter(next)
	return true
}

func (c *Campaign) enter(s State) {
	if s == StateFailed {
		c.failedBalance = c.balance
	}
	c.state = s
}

// ProjectedState is the state Refresh would produce at now, without mutating.
func (c *Campaign) ProjectedState(now time.Time) State {
	return NextState(c.state, c.balance, c.target, now, c.deadline)
}

// Clone returns a deep copy. Commands run against a clone so that a failed
// command leaves the original untouched.
func (c *Campaign) Clone() *Campaign {
	cp := *c
	cp.contributions = slices.Clone(c.contributions)
	cp.approvals = slices.Clone(c.approvals)
	cp.refundedBy = maps.Clone(c.refundedBy)
	cp.totals = maps.Clone(c.totals)
	cp.byRequestKey = maps.Clone(c.byRequestKey)
	cp.approvedBy = maps.Clone(c.approvedBy)
	return &cp
}

// Snapshot is the persistent, exported form of a campaign.
type Snapshot struct {
	ID                string              `json:"id"`
	Owner             Principal           `json:"owner"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Kind              Kind                `json:"kind"`
	Target            int64               `json:"target"`
	Deadline          time.Time           `json:"deadline"`
	ApprovalThreshold int64               `json:"approval_threshold"`
	RequiredApprovals int                 `json:"required_approvals"`
	Tiers             []Tier              `json:"tiers"`
	State             State               `json:"state"`
	Balance           int64               `json:"balance"`
	Released          int64               `json:"released"`
	Refunded          int64               `json:"refunded"`
	BalanceAtFailure  int64               `json:"balance_at_failure"`
	Contributions     []Contribution      `json:"contributions"`
	Approvals         []Approval          `json:"approvals"`
	RefundedBy        map[Principal]int64 `json:"refunded_by"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	Version           int64               `json:"version"`
}

func (c *Campaign) Snapshot() Snapshot {
	return Snapshot{
		ID:                c.id,
		Owner:             c.owner,
		Title:             c.title,
		Description:       c.description,
		Kind:              c.kind,
		Target:            c.target,
		Deadline:          c.deadline,
		ApprovalThreshold: c.approvalThreshold,
		RequiredApprovals: c.requiredApprovals,
		Tiers:             c.tiers.Tiers(),
		State:             c.state,
		Balance:           c.balance,
		Released:          c.released,
		Refunded:          c.refunded,
		BalanceAtFailure:  c.failedBalance,
		Contributions:     slices.Clone(c.contributions),
		Approvals:         slices.Clone(c.approvals),
		RefundedBy:        maps.Clone(c.refundedBy),
		CreatedAt:         c.createdAt,
		UpdatedAt:         c.updatedAt,
		Version:           c.version,
	}
}

// Restore rebuilds a campaign from storage, checking the balance invariant.
func Restore(s Snapshot) (*Campaign, error) {
	tiers, err := NewTierCatalog(s.Tiers)
	if err != nil {
		return nil, fmt.Errorf("restore campaign %s: %w", s.ID, err)
	}
	if !s.State.Valid() {
		return nil, fmt.Errorf("restore campaign %s: unknown state %q", s.ID, s.State)
	}
	var contributed int64
	for i, ct := range s.Contributions {
		if ct.Seq != int64(i+1) {
			return nil, fmt.Errorf("restore campaign %s: contribution sequence gap at %d", s.ID, ct.Seq)
		}
		contributed += ct.Amount
	}
	if s.Balance < 0 || s.Balance != contributed-s.Released-s.Refunded {
		return nil, fmt.Errorf("restore campaign %s: balance %d does not match ledger", s.ID, s.Balance)
	}

	c := &Campaign{
		id:                s.ID,
		owner:             s.Owner,
		title:             s.Title,
		description:       s.Description,
		kind:              s.Kind,
		target:            s.Target,
		deadline:          s.Deadline.UTC(),
		approvalThreshold: s.ApprovalThreshold,
		requiredApprovals: s.RequiredApprovals,
		tiers:             tiers,
		createdAt:         s.CreatedAt.UTC(),
		updatedAt:         s.UpdatedAt.UTC(),
		version:           s.Version,
		state:             s.State,
		balance:           s.Balance,
		released:          s.Released,
		refunded:          s.Refunded,
		failedBalance:     s.BalanceAtFailure,
		contributions:     slices.Clone(s.Contributions),
		approvals:         slices.Clone(s.Approvals),
		refundedBy:        maps.Clone(s.RefundedBy),
	}
	c.index()
	return c, nil
}
