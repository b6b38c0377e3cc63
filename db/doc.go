// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db stores campaigns for the engine.

# Stores

Two engine.Store implementations are provided:

  - SQLStore: SQLite (modernc.org/sqlite, the default) or PostgreSQL (lib/pq)
  - MemoryStore: process memory, for tests and throwaway runs

Open connects, pings and creates the schema:

	conn, err := db.Open(ctx, db.SQLite, "fundgate.db")
	if err != nil {
		log.Fatal(err)
	}
	store := db.NewSQLStore(conn, db.SQLite)

Queries are written with ? placeholders and rewritten to $N for PostgreSQL.

# Schema Creation

CreateSchema is safe to call multiple times - uses IF NOT EXISTS for all
tables and indexes. Timestamps are stored as unix milliseconds (BIGINT) so
the same DDL runs on both engines.

# Tables

  - campaign: parameters, lifecycle state, balances and a version counter
  - campaign_tier: the three reward tiers
  - contribution: append-only ledger, one row per contribution
  - approval: one row per approver
  - refund: refunded total per contributor
  - campaign_event: domain events in the order they were recorded, including
    owner updates with their title and message
  - subscription: who follows which campaign, with a read cursor into
    campaign_event

# Relationships

	campaign 1──3 campaign_tier
	campaign 1──* contribution
	campaign 1──* approval
	campaign 1──* refund
	campaign 1──* campaign_event
	campaign 1──* subscription

All foreign keys use ON DELETE CASCADE.

# Concurrency

Save is an optimistic update: it only succeeds when the stored version equals
the campaign's version, and writes the campaign row, new ledger rows and
events in one transaction. A lost race returns engine.ErrVersionConflict.
Load reads the campaign and its ledger rows in one read-only transaction.
*/
package db
