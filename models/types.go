// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"time"

	"github.com/danielhkuo/fundgate/engine"
	"github.com/danielhkuo/fundgate/events"
	"github.com/danielhkuo/fundgate/ledger"
)

// Request types

type TierRequest struct {
	Name        string `json:"name"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

type CreateCampaignRequest struct {
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	Kind              string        `json:"kind"`
	Target            int64         `json:"target"`
	Deadline          time.Time     `json:"deadline"`
	ApprovalThreshold int64         `json:"approval_threshold"`
	RequiredApprovals int           `json:"required_approvals"`
	Tiers             []TierRequest `json:"tiers"`
}

// TierIndex is optional and only labels the contribution; the amount is not
// checked against the tier.
type ContributeRequest struct {
	Amount    int64 `json:"amount"`
	TierIndex *int  `json:"tier_index,omitempty"`
}

type PostUpdateRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Response types

type CampaignResponse struct {
	ID                string           `json:"id"`
	Owner             ledger.Principal `json:"owner"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	Kind              ledger.Kind      `json:"kind"`
	Target            int64            `json:"target"`
	Deadline          time.Time        `json:"deadline"`
	ApprovalThreshold int64            `json:"approval_threshold"`
	RequiredApprovals int              `json:"required_approvals"`
	Tiers             []ledger.Tier    `json:"tiers"`
	State             ledger.State     `json:"state"`
	StoredState       ledger.State     `json:"stored_state,omitempty"`
	Balance           int64            `json:"balance"`
	Released          int64            `json:"released"`
	Refunded          int64            `json:"refunded"`
	BalanceAtFailure  int64            `json:"balance_at_failure"`
	Contributions     int              `json:"contribution_count"`
	ApprovalCount     int              `json:"approval_count"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// NewCampaignResponse builds the response for a stored snapshot. state is the
// state to report; the stored one is included when it differs.
func NewCampaignResponse(s ledger.Snapshot, state ledger.State, approvals int) CampaignResponse {
	resp := CampaignResponse{
		ID:                s.ID,
		Owner:             s.Owner,
		Title:             s.Title,
		Description:       s.Description,
		Kind:              s.Kind,
		Target:            s.Target,
		Deadline:          s.Deadline,
		ApprovalThreshold: s.ApprovalThreshold,
		RequiredApprovals: s.RequiredApprovals,
		Tiers:             s.Tiers,
		State:             state,
		Balance:           s.Balance,
		Released:          s.Released,
		Refunded:          s.Refunded,
		BalanceAtFailure:  s.BalanceAtFailure,
		Contributions:     len(s.Contributions),
		ApprovalCount:     approvals,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
	if state != s.State {
		resp.StoredState = s.State
	}
	return resp
}

func FromView(v engine.View) CampaignResponse {
	return NewCampaignResponse(v.Snapshot, v.EffectiveState, v.ApprovalCount)
}

// CampaignSummary is a list entry. Summaries are built without the ledger, so
// they carry no counts.
type CampaignSummary struct {
	ID        string           `json:"id"`
	Owner     ledger.Principal `json:"owner"`
	Title     string           `json:"title"`
	Kind      ledger.Kind      `json:"kind"`
	Target    int64            `json:"target"`
	Deadline  time.Time        `json:"deadline"`
	State     ledger.State     `json:"state"`
	Balance   int64            `json:"balance"`
	CreatedAt time.Time        `json:"created_at"`
}

func FromSnapshot(s ledger.Snapshot) CampaignSummary {
	return CampaignSummary{
		ID:        s.ID,
		Owner:     s.Owner,
		Title:     s.Title,
		Kind:      s.Kind,
		Target:    s.Target,
		Deadline:  s.Deadline,
		State:     s.State,
		Balance:   s.Balance,
		CreatedAt: s.CreatedAt,
	}
}

type CampaignListResponse struct {
	Campaigns []CampaignSummary `json:"campaigns"`
}

type ContributorResponse struct {
	CampaignID  string           `json:"campaign_id"`
	Principal   ledger.Principal `json:"principal"`
	Total       int64            `json:"total"`
	Refunded    int64            `json:"refunded"`
	Refundable  int64            `json:"refundable"`
	IsApprover  bool             `json:"is_approver"`
	HasApproved bool             `json:"has_approved"`
}

func FromContributorStatus(s engine.ContributorStatus) ContributorResponse {
	return ContributorResponse{
		CampaignID:  s.CampaignID,
		Principal:   s.Principal,
		Total:       s.Total,
		Refunded:    s.Refunded,
		Refundable:  s.Refundable,
		IsApprover:  s.IsApprover,
		HasApproved: s.HasApproved,
	}
}

type ApprovalsResponse struct {
	CampaignID string            `json:"campaign_id"`
	Count      int               `json:"approval_count"`
	Required   int               `json:"required_approvals"`
	QuorumMet  bool              `json:"quorum_met"`
	Approvals  []ledger.Approval `json:"approvals"`
}

type SweepResponse struct {
	CampaignID string                `json:"campaign_id"`
	Refunds    []ledger.RefundResult `json:"refunds"`
	Total      int64                 `json:"total"`
}

// EventResponse pairs a stored event with its notification text.
type EventResponse struct {
	ledger.Event
	Notification events.Notification `json:"notification"`
}

type EventsResponse struct {
	CampaignID string          `json:"campaign_id"`
	Events     []EventResponse `json:"events"`
}

type MyContribution struct {
	CampaignID    string    `json:"campaign_id"`
	CampaignTitle string    `json:"campaign_title"`
	Seq           int64     `json:"seq"`
	Amount        int64     `json:"amount"`
	TierIndex     *int      `json:"tier_index,omitempty"`
	At            time.Time `json:"at"`
}

type MyContributionsResponse struct {
	Principal     ledger.Principal `json:"principal"`
	Total         int64            `json:"total"`
	Contributions []MyContribution `json:"contributions"`
}

type SubscriptionResponse struct {
	CampaignID string           `json:"campaign_id"`
	Principal  ledger.Principal `json:"principal"`
	Subscribed bool             `json:"subscribed"`
	Since      *time.Time       `json:"since,omitempty"`
}

// NotificationItem is one entry of a principal's feed.
type NotificationItem struct {
	ID         string           `json:"id"`
	CampaignID string           `json:"campaign_id"`
	Kind       ledger.EventKind `json:"event_kind"`
	Actor      ledger.Principal `json:"actor"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	At         time.Time        `json:"at"`
}

func FromEvent(ev ledger.Event) NotificationItem {
	n := events.Render(ev)
	return NotificationItem{
		ID:         ev.ID,
		CampaignID: ev.CampaignID,
		Kind:       ev.Kind,
		Actor:      ev.Actor,
		Title:      n.Title,
		Message:    n.Message,
		At:         n.At,
	}
}

type NotificationsResponse struct {
	Principal     ledger.Principal   `json:"principal"`
	Notifications []NotificationItem `json:"notifications"`
}

type ClearNotificationsResponse struct {
	Principal ledger.Principal `json:"principal"`
	Cleared   int              `json:"cleared"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
