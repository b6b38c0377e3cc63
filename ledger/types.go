// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"fmt"
	"strings"
	"time"
)

// Principal identifies an authenticated caller, as vouched for by the signer.
type Principal string

// Kind is the campaign flavour. It does not change any funding rule.
type Kind string

const (
	KindStartup  Kind = "startup"
	KindDonation Kind = "donation"
)

// ParseKind accepts the kind names case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindStartup, KindDonation:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown campaign kind %q", ErrInvalidCampaign, s)
}

// State is the campaign lifecycle state.
type State string

const (
	StateActive     State = "active"
	StateSuccessful State = "successful"
	StateFailed     State = "failed"
	StateClosed     State = "closed"
)

func (s State) Valid() bool {
	switch s {
	case StateActive, StateSuccessful, StateFailed, StateClosed:
		return true
	}
	return false
}

// Tier is a named reward level.
type Tier struct {
	Name        string `json:"name"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// TierCount is the fixed size of every tier catalog.
const TierCount = 3

// TierCatalog is the immutable list of reward tiers attached at creation.
type TierCatalog struct {
	tiers [TierCount]Tier
}

// NewTierCatalog validates exactly three tiers with positive amounts.
// Amounts are not required to be increasing.
func NewTierCatalog(tiers []Tier) (TierCatalog, error) {
	var c TierCatalog
	if len(tiers) != TierCount {
		return c, fmt.Errorf("%w: want %d tiers, got %d", ErrInvalidTierCatalog, TierCount, len(tiers))
	}
	for i, t := range tiers {
		if strings.TrimSpace(t.Name) == "" {
			return TierCatalog{}, fmt.Errorf("%w: tier %d has no name", ErrInvalidTierCatalog, i)
		}
		if t.Amount <= 0 {
			return TierCatalog{}, fmt.Errorf("%w: tier %d amount must be positive", ErrInvalidTierCatalog, i)
		}
		c.tiers[i] = t
	}
	return c, nil
}

// Tiers returns a copy of the catalog.
func (c TierCatalog) Tiers() []Tier {
	out := make([]Tier, TierCount)
	copy(out, c.tiers[:])
	return out
}

// Has reports whether i indexes a tier.
func (c TierCatalog) Has(i int) bool {
	return i >= 0 && i < TierCount
}

// Contribution is an immutable record of funds pledged to a campaign.
type Contribution struct {
	Seq         int64     `json:"seq"`
	Contributor Principal `json:"contributor"`
	Amount      int64     `json:"amount"`
	TierIndex   *int      `json:"tier_index,omitempty"`
	RequestKey  string    `json:"request_key,omitempty"`
	At          time.Time `json:"at"`
}

// Approval is a contributor's vote to release a successful campaign's funds.
type Approval struct {
	Approver Principal `json:"approver"`
	At       time.Time `json:"at"`
}

type ContributionReceipt struct {
	CampaignID string    `json:"campaign_id"`
	Seq        int64     `json:"seq"`
	Amount     int64     `json:"amount"`
	Balance    int64     `json:"balance"`
	State      State     `json:"state"`
	At         time.Time `json:"at"`
	// Replayed is set when a retry matched an already recorded contribution.
	Replayed bool `json:"replayed"`
}

type ApprovalReceipt struct {
	CampaignID    string    `json:"campaign_id"`
	Approver      Principal `json:"approver"`
	At            time.Time `json:"at"`
	ApprovalCount int       `json:"approval_count"`
}

type WithdrawalResult struct {
	CampaignID string    `json:"campaign_id"`
	Owner      Principal `json:"owner"`
	Amount     int64     `json:"amount"`
	State      State     `json:"state"`
	At         time.Time `json:"at"`
}

type RefundResult struct {
	CampaignID  string    `json:"campaign_id"`
	Contributor Principal `json:"contributor"`
	Amount      int64     `json:"amount"`
	Balance     int64     `json:"balance"`
	State       State     `json:"state"`
	At          time.Time `json:"at"`
}

type StopResult struct {
	CampaignID string    `json:"campaign_id"`
	Balance    int64     `json:"balance"`
	State      State     `json:"state"`
	At         time.Time `json:"at"`
}

// Update is an owner's announcement to the campaign's subscribers.
type Update struct {
	CampaignID string    `json:"campaign_id"`
	Author     Principal `json:"author"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	State      State     `json:"state"`
	At         time.Time `json:"at"`
}

// Params describes a campaign creation request.
type Params struct {
	Title             string
	Description       string
	Kind              Kind
	Target            int64
	Deadline          time.Time
	ApprovalThreshold int64
	RequiredApprovals int
	Tiers             []Tier
}
