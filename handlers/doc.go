// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the fundgate API.

# Handler Types

Each handler is a struct over the command engine:

  - CampaignHandler: create, list, view, status refresh, emergency stop, owner
    updates, events
  - FundingHandler: contributions, contributor standing, caller's dashboard
  - ApprovalHandler: withdrawal approvals and quorum status
  - PayoutHandler: withdrawal, refunds, refund sweep
  - SubscriptionHandler: campaign subscriptions and the caller's notification feed

	campaignHandler := handlers.NewCampaignHandler(eng)

Mutating handlers act as middleware.Principal(r) and expect to be wrapped
with middleware.Authenticate.

# Errors

Engine errors map to statuses by their group:

	validation     400
	authorization  403
	not found      404
	eligibility    409
	quorum         422
	unavailable    503 (with Retry-After)

The body carries a stable code such as "insufficient_approvals".

# Retries

POST /campaigns/{id}/contributions honours the Idempotency-Key header. A
repeated key returns the original receipt with 200 and "replayed": true.
*/
package handlers
