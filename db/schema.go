// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Timestamps are unix milliseconds so the same DDL runs on SQLite and
// PostgreSQL.
const schema = `
-- Campaigns
CREATE TABLE IF NOT EXISTS campaign (
    id TEXT PRIMARY KEY,
    owner TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    kind TEXT NOT NULL CHECK (kind IN ('startup', 'donation')),
    target BIGINT NOT NULL CHECK (target > 0),
    deadline_ms BIGINT NOT NULL,
    approval_threshold BIGINT NOT NULL CHECK (approval_threshold >= 0),
    required_approvals INTEGER NOT NULL CHECK (required_approvals >= 1),
    state TEXT NOT NULL CHECK (state IN ('active', 'successful', 'failed', 'closed')),
    balance BIGINT NOT NULL CHECK (balance >= 0),
    released BIGINT NOT NULL DEFAULT 0,
    refunded BIGINT NOT NULL DEFAULT 0,
    balance_at_failure BIGINT NOT NULL DEFAULT 0,
    created_ms BIGINT NOT NULL,
    updated_ms BIGINT NOT NULL,
    version BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_campaign_owner ON campaign(owner);
CREATE INDEX IF NOT EXISTS idx_campaign_state ON campaign(state);

-- Reward tiers, exactly three per campaign
CREATE TABLE IF NOT EXISTS campaign_tier (
    campaign_id TEXT NOT NULL REFERENCES campaign(id) ON DELETE CASCADE,
    idx INTEGER NOT NULL CHECK (idx >= 0 AND idx < 3),
    name TEXT NOT NULL,
    amount BIGINT NOT NULL CHECK (amount > 0),
    description TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (campaign_id, idx)
);

-- Contributions (append-only)
CREATE TABLE IF NOT EXISTS contribution (
    campaign_id TEXT NOT NULL REFERENCES campaign(id) ON DELETE CASCADE,
    seq BIGINT NOT NULL,
    contributor TEXT NOT NULL,
    amount BIGINT NOT NULL CHECK (amount > 0),
    tier_index INTEGER,
    request_key TEXT,
    at_ms BIGINT NOT NULL,
    PRIMARY KEY (campaign_id, seq),
    UNIQUE (campaign_id, request_key)
);

CREATE INDEX IF NOT EXISTS idx_contribution_contributor ON contribution(contributor);

-- Withdrawal approvals
CREATE TABLE IF NOT EXISTS approval (
    campaign_id TEXT NOT NULL REFERENCES campaign(id) ON DELETE CASCADE,
    approver TEXT NOT NULL,
    at_ms BIGINT NOT NULL,
    PRIMARY KEY (campaign_id, approver)
);

-- Refunded amount per contributor
CREATE TABLE IF NOT EXISTS refund (
    campaign_id TEXT NOT NULL REFERENCES campaign(id) ON DELETE CASCADE,
    contributor TEXT NOT NULL,
    amount BIGINT NOT NULL CHECK (amount > 0),
    PRIMARY KEY (campaign_id, contributor)
);

-- Domain events
CREATE TABLE IF NOT EXISTS campaign_event (
    id TEXT PRIMARY KEY,
    campaign_id TEXT NOT NULL REFERENCES campaign(id) ON DELETE CASCADE,
    position BIGINT NOT NULL,
    kind TEXT NOT NULL,
    actor TEXT NOT NULL DEFAULT '',
    amount BIGINT,
    new_state TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    message TEXT NOT NULL DEFAULT '',
    occurred_ms BIGINT NOT NULL,
    UNIQUE (campaign_id, position)
);

-- Feed subscriptions; cleared_position is the last event the subscriber has seen
CREATE TABLE IF NOT EXISTS subscription (
    campaign_id TEXT NOT NULL REFERENCES campaign(id) ON DELETE CASCADE,
    principal TEXT NOT NULL,
    created_ms BIGINT NOT NULL,
    cleared_position BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (campaign_id, principal)
);

CREATE INDEX IF NOT EXISTS idx_subscription_principal ON subscription(principal);
`
