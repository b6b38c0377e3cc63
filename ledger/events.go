// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import "time"

type EventKind string

const (
	EventCampaignCreated      EventKind = "campaign.created"
	EventContributionRecorded EventKind = "contribution.recorded"
	EventStateChanged         EventKind = "campaign.state_changed"
	EventWithdrawalApproved   EventKind = "withdrawal.approved"
	EventFundsWithdrawn       EventKind = "funds.withdrawn"
	EventRefundIssued         EventKind = "refund.issued"
	EventEmergencyStopped     EventKind = "campaign.emergency_stopped"
	EventCampaignUpdate       EventKind = "campaign.update"
)

// Event is a domain event for the notification subsystem. Amount is nil for
// events that move no funds. Title and Message are only set on owner updates.
type Event struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaign_id"`
	Kind       EventKind `json:"event_kind"`
	Actor      Principal `json:"actor"`
	Amount     *int64    `json:"amount,omitempty"`
	NewState   State     `json:"new_state"`
	Title      string    `json:"title,omitempty"`
	Message    string    `json:"message,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Amount is a helper for building events.
func Amount(v int64) *int64 {
	return &v
}
