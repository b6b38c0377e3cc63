// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the fundgate API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(eng, cfg)

cfg.TokenSecret verifies bearer tokens on authenticated routes.

# Endpoints

Health:

	GET /health

Campaigns:

	POST /campaigns                     - Create campaign (auth)
	GET  /campaigns                     - List (owner, state, kind, limit)
	GET  /campaigns/{id}                - Campaign with projected state
	POST /campaigns/{id}/status         - Persist a pending deadline transition (auth)
	POST /campaigns/{id}/emergency-stop - Owner fails an active campaign (auth)
	GET  /campaigns/{id}/events         - Notification feed

Funding:

	POST /campaigns/{id}/contributions            - Contribute (auth, Idempotency-Key)
	GET  /campaigns/{id}/contributors/{principal} - Totals and approver status
	GET  /me/contributions                        - Caller's contributions (auth)

Approvals and payouts:

	POST /campaigns/{id}/approvals     - Approve withdrawal (auth)
	GET  /campaigns/{id}/approvals     - Approval count and quorum
	POST /campaigns/{id}/withdrawal    - Owner withdraws (auth)
	POST /campaigns/{id}/refunds       - Caller refunds own funds (auth)
	POST /campaigns/{id}/refunds/sweep - Owner refunds everyone (auth)

Updates and notifications:

	POST   /campaigns/{id}/updates      - Owner posts an update (auth)
	POST   /campaigns/{id}/subscription - Follow a campaign (auth)
	DELETE /campaigns/{id}/subscription - Stop following (auth)
	GET    /me/notifications            - Caller's unread feed, newest first (auth)
	DELETE /me/notifications            - Mark the whole feed read (auth)
*/
package router
