// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request and response types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateCampaignRequest: title, description, kind, target, deadline,
    approval_threshold, required_approvals, tiers (exactly three)
  - ContributeRequest: amount, optional tier_index
  - PostUpdateRequest: title, message

Amounts are integers in the smallest currency unit. Deadlines are RFC 3339.

# Response Types

Types for JSON responses:

  - CampaignResponse: campaign parameters, state, balances and counts
  - CampaignListResponse: campaign summaries (no ledger counts)
  - ContributorResponse: one principal's standing in a campaign
  - ApprovalsResponse: approval count, quorum and approvers
  - SweepResponse: refunds issued by a sweep
  - EventsResponse: domain events with notification text
  - MyContributionsResponse: the caller's contributions across campaigns
  - SubscriptionResponse: whether the caller follows a campaign, and since when
  - NotificationsResponse: the caller's unread feed, newest first
  - ClearNotificationsResponse: how many notifications were marked read
  - ErrorResponse: error, code, message

Command receipts (contribution, approval, withdrawal, refund, stop, update)
are the ledger types themselves and carry their own JSON tags.

# Projected State

CampaignResponse.State is the state the next command would observe. When a
deadline has passed but nothing has touched the campaign yet, the stored
state differs and is reported as stored_state.
*/
package models
