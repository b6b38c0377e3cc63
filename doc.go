// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the fundgate API server.

fundgate runs crowdfunding campaigns: contributors fund a campaign until its
target or deadline, qualified contributors approve releasing the funds, and
failed campaigns refund everyone.

# Starting the Server

The server requires a token secret; everything else has defaults:

	TOKEN_SECRET=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -token-secret ...

A .env file in the working directory is loaded first.

# Tokens

There is no login flow. Issue a bearer token for a principal with:

	go run . -token-secret ... -issue-token 0xabc

# Storage

DATABASE_TYPE selects sqlite (default, file fundgate.db), postgres or memory.
The schema is created on start.

# Notifications

Every domain event is logged. With REDIS_URL or KAFKA_BROKERS set it is also
published to Redis pub/sub or a Kafka topic. Delivery failures are logged and
never fail a command.

Owners post updates to their campaigns. Principals subscribe to campaigns and
read the events they missed at GET /me/notifications.

# Architecture

  - ledger: campaign state machine, contribution ledger, approvals, payouts
  - engine: per-campaign command serialization, persistence, events
  - db: SQL and in-memory stores
  - events: notification rendering and sinks
  - handlers, router, middleware, models: HTTP surface
  - auth: bearer tokens
  - cliparse: configuration

See package documentation for each component.
*/
package main
