// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/fundgate/ledger"
)

// Notification is the human-readable form of an event.
type Notification struct {
	CampaignID string    `json:"campaign_id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	At         time.Time `json:"at"`
}

// Envelope is the payload written to every transport.
type Envelope struct {
	Event        ledger.Event `json:"event"`
	Notification Notification `json:"notification"`
}

func Encode(ev ledger.Event) ([]byte, error) {
	b, err := json.Marshal(Envelope{Event: ev, Notification: Render(ev)})
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", ev.ID, err)
	}
	return b, nil
}

func amount(ev ledger.Event) string {
	if ev.Amount == nil {
		return "0"
	}
	return humanize.Comma(*ev.Amount)
}

// Render turns an event into a notification.
func Render(ev ledger.Event) Notification {
	n := Notification{CampaignID: ev.CampaignID, At: ev.OccurredAt}

	switch ev.Kind {
	case ledger.EventCampaignCreated:
		n.Title = "Campaign created"
		n.Message = fmt.Sprintf("Your campaign is live with a target of %s.", amount(ev))
	case ledger.EventContributionRecorded:
		n.Title = "New contribution received"
		n.Message = fmt.Sprintf("%s contributed %s.", ev.Actor, amount(ev))
	case ledger.EventWithdrawalApproved:
		n.Title = "Withdrawal approved"
		n.Message = fmt.Sprintf("%s approved releasing the funds.", ev.Actor)
	case ledger.EventFundsWithdrawn:
		n.Title = "Funds withdrawn"
		n.Message = fmt.Sprintf("%s was released to the owner.", amount(ev))
	case ledger.EventRefundIssued:
		n.Title = "Refund issued"
		n.Message = fmt.Sprintf("%s was refunded to %s.", amount(ev), ev.Actor)
	case ledger.EventEmergencyStopped:
		n.Title = "Campaign stopped"
		n.Message = fmt.Sprintf("The owner stopped the campaign. %s is open for refunds.", amount(ev))
	case ledger.EventCampaignUpdate:
		n.Title = ev.Title
		n.Message = ev.Message
	case ledger.EventStateChanged:
		n.Title, n.Message = stateMessage(ev.NewState)
	default:
		n.Title = string(ev.Kind)
	}
	return n
}

func stateMessage(s ledger.State) (string, string) {
	switch s {
	case ledger.StateSuccessful:
		return "Funding target reached", "The campaign reached its target. Contributors can now approve the withdrawal."
	case ledger.StateFailed:
		return "Campaign failed", "The campaign ended short of its target. Contributors can claim refunds."
	case ledger.StateClosed:
		return "Campaign closed", "All funds have been settled."
	}
	return "Campaign updated", fmt.Sprintf("The campaign is now %s.", s)
}
