// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/fundgate/engine"
	"github.com/danielhkuo/fundgate/ledger"
)

// SQLStore is the engine.Store backed by SQLite or PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(db *sql.DB, d Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: d}
}

var _ engine.Store = (*SQLStore)(nil)

func (s *SQLStore) q(query string) string {
	return s.dialect.rebind(query)
}

func (s *SQLStore) Create(ctx context.Context, c *ledger.Campaign, events []ledger.Event) error {
	snap := c.Snapshot()
	version := snap.Version + 1

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO campaign (id, owner, title, description, kind, target, deadline_ms,
			approval_threshold, required_approvals, state, balance, released, refunded,
			balance_at_failure, created_ms, updated_ms, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), snap.ID, string(snap.Owner), snap.Title, snap.Description, string(snap.Kind), snap.Target,
		toMillis(snap.Deadline), snap.ApprovalThreshold, snap.RequiredApprovals, string(snap.State),
		snap.Balance, snap.Released, snap.Refunded, snap.BalanceAtFailure,
		toMillis(snap.CreatedAt), toMillis(snap.UpdatedAt), version)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}

	for i, t := range snap.Tiers {
		_, err = tx.ExecContext(ctx, s.q(`
			INSERT INTO campaign_tier (campaign_id, idx, name, amount, description)
			VALUES (?, ?, ?, ?, ?)
		`), snap.ID, i, t.Name, t.Amount, t.Description)
		if err != nil {
			return fmt.Errorf("insert tier %d: %w", i, err)
		}
	}

	if err := s.writeLedger(ctx, tx, snap); err != nil {
		return err
	}
	if err := s.appendEvents(ctx, tx, snap.ID, events); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	c.SetVersion(version)
	return nil
}

func (s *SQLStore) Save(ctx context.Context, c *ledger.Campaign, events []ledger.Event) error {
	snap := c.Snapshot()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.q(`
		UPDATE campaign
		SET state = ?, balance = ?, released = ?, refunded = ?, balance_at_failure = ?,
			updated_ms = ?, version = version + 1
		WHERE id = ? AND version = ?
	`), string(snap.State), snap.Balance, snap.Released, snap.Refunded, snap.BalanceAtFailure,
		toMillis(snap.UpdatedAt), snap.ID, snap.Version)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	if n == 0 {
		return s.missingOrConflict(ctx, tx, snap.ID)
	}

	if err := s.writeLedger(ctx, tx, snap); err != nil {
		return err
	}
	if err := s.appendEvents(ctx, tx, snap.ID, events); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	c.SetVersion(snap.Version + 1)
	return nil
}

func (s *SQLStore) missingOrConflict(ctx context.Context, tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, s.q(`SELECT 1 FROM campaign WHERE id = ?`), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrCampaignNotFound
	}
	if err != nil {
		return fmt.Errorf("check campaign: %w", err)
	}
	return engine.ErrVersionConflict
}

// writeLedger appends contributions and approvals the database has not seen
// yet and upserts the per-contributor refund totals.
func (s *SQLStore) writeLedger(ctx context.Context, tx *sql.Tx, snap ledger.Snapshot) error {
	var lastSeq int64
	err := tx.QueryRowContext(ctx, s.q(`
		SELECT COALESCE(MAX(seq), 0) FROM contribution WHERE campaign_id = ?
	`), snap.ID).Scan(&lastSeq)
	if err != nil {
		return fmt.Errorf("read last contribution: %w", err)
	}
	for _, ct := range snap.Contributions {
		if ct.Seq <= lastSeq {
			continue
		}
		var tier sql.NullInt64
		if ct.TierIndex != nil {
			tier = sql.NullInt64{Int64: int64(*ct.TierIndex), Valid: true}
		}
		var key sql.NullString
		if ct.RequestKey != "" {
			key = sql.NullString{String: ct.RequestKey, Valid: true}
		}
		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO contribution (campaign_id, seq, contributor, amount, tier_index, request_key, at_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`), snap.ID, ct.Seq, string(ct.Contributor), ct.Amount, tier, key, toMillis(ct.At))
		if err != nil {
			return fmt.Errorf("insert contribution %d: %w", ct.Seq, err)
		}
	}

	for _, a := range snap.Approvals {
		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO approval (campaign_id, approver, at_ms)
			VALUES (?, ?, ?)
			ON CONFLICT (campaign_id, approver) DO NOTHING
		`), snap.ID, string(a.Approver), toMillis(a.At))
		if err != nil {
			return fmt.Errorf("insert approval: %w", err)
		}
	}

	for p, amount := range snap.RefundedBy {
		if amount <= 0 {
			continue
		}
		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO refund (campaign_id, contributor, amount)
			VALUES (?, ?, ?)
			ON CONFLICT (campaign_id, contributor) DO UPDATE SET amount = excluded.amount
		`), snap.ID, string(p), amount)
		if err != nil {
			return fmt.Errorf("upsert refund: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) appendEvents(ctx context.Context, tx *sql.Tx, campaignID string, events []ledger.Event) error {
	if len(events) == 0 {
		return nil
	}
	var pos int64
	err := tx.QueryRowContext(ctx, s.q(`
		SELECT COALESCE(MAX(position), 0) FROM campaign_event WHERE campaign_id = ?
	`), campaignID).Scan(&pos)
	if err != nil {
		return fmt.Errorf("read last event: %w", err)
	}
	for _, ev := range events {
		pos++
		var amount sql.NullInt64
		if ev.Amount != nil {
			amount = sql.NullInt64{Int64: *ev.Amount, Valid: true}
		}
		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO campaign_event (id, campaign_id, position, kind, actor, amount, new_state, title, message, occurred_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`), ev.ID, campaignID, pos, string(ev.Kind), string(ev.Actor), amount, string(ev.NewState), ev.Title, ev.Message, toMillis(ev.OccurredAt))
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return nil
}

const campaignColumns = `id, owner, title, description, kind, target, deadline_ms,
	approval_threshold, required_approvals, state, balance, released, refunded,
	balance_at_failure, created_ms, updated_ms, version`

type rowScanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanCampaign(row rowScanner) (ledger.Snapshot, error) {
	var (
		snap                           ledger.Snapshot
		owner, kind, state             string
		deadline, createdMs, updatedMs int64
	)
	err := row.Scan(&snap.ID, &owner, &snap.Title, &snap.Description, &kind, &snap.Target, &deadline,
		&snap.ApprovalThreshold, &snap.RequiredApprovals, &state, &snap.Balance, &snap.Released,
		&snap.Refunded, &snap.BalanceAtFailure, &createdMs, &updatedMs, &snap.Version)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	snap.Owner = ledger.Principal(owner)
	snap.Kind = ledger.Kind(kind)
	snap.State = ledger.State(state)
	snap.Deadline = fromMillis(deadline)
	snap.CreatedAt = fromMillis(createdMs)
	snap.UpdatedAt = fromMillis(updatedMs)
	return snap, nil
}

// Load reads the campaign row and its ledger tables in one read-only
// transaction, so a concurrent Save is seen entirely or not at all.
func (s *SQLStore) Load(ctx context.Context, id string) (*ledger.Campaign, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, s.q(`SELECT `+campaignColumns+` FROM campaign WHERE id = ?`), id)
	snap, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load campaign: %w", err)
	}

	if snap.Tiers, err = s.loadTiers(ctx, tx, id); err != nil {
		return nil, err
	}
	if snap.Contributions, err = s.loadContributions(ctx, tx, id); err != nil {
		return nil, err
	}
	if snap.Approvals, err = s.loadApprovals(ctx, tx, id); err != nil {
		return nil, err
	}
	if snap.RefundedBy, err = s.loadRefunds(ctx, tx, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ledger.Restore(snap)
}

func (s *SQLStore) loadTiers(ctx context.Context, q querier, id string) ([]ledger.Tier, error) {
	rows, err := q.QueryContext(ctx, s.q(`
		SELECT name, amount, description FROM campaign_tier WHERE campaign_id = ? ORDER BY idx
	`), id)
	if err != nil {
		return nil, fmt.Errorf("load tiers: %w", err)
	}
	defer rows.Close()

	var tiers []ledger.Tier
	for rows.Next() {
		var t ledger.Tier
		if err := rows.Scan(&t.Name, &t.Amount, &t.Description); err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (s *SQLStore) loadContributions(ctx context.Context, q querier, id string) ([]ledger.Contribution, error) {
	rows, err := q.QueryContext(ctx, s.q(`
		SELECT seq, contributor, amount, tier_index, request_key, at_ms
		FROM contribution WHERE campaign_id = ? ORDER BY seq
	`), id)
	if err != nil {
		return nil, fmt.Errorf("load contributions: %w", err)
	}
	defer rows.Close()

	var out []ledger.Contribution
	for rows.Next() {
		ct, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

func scanContribution(row rowScanner, extra ...any) (ledger.Contribution, error) {
	var (
		ct          ledger.Contribution
		contributor string
		tier        sql.NullInt64
		key         sql.NullString
		at          int64
	)
	dest := append([]any{&ct.Seq, &contributor, &ct.Amount, &tier, &key, &at}, extra...)
	if err := row.Scan(dest...); err != nil {
		return ledger.Contribution{}, fmt.Errorf("scan contribution: %w", err)
	}
	ct.Contributor = ledger.Principal(contributor)
	if tier.Valid {
		i := int(tier.Int64)
		ct.TierIndex = &i
	}
	ct.RequestKey = key.String
	ct.At = fromMillis(at)
	return ct, nil
}

func (s *SQLStore) loadApprovals(ctx context.Context, q querier, id string) ([]ledger.Approval, error) {
	rows, err := q.QueryContext(ctx, s.q(`
		SELECT approver, at_ms FROM approval WHERE campaign_id = ? ORDER BY at_ms, approver
	`), id)
	if err != nil {
		return nil, fmt.Errorf("load approvals: %w", err)
	}
	defer rows.Close()

	var out []ledger.Approval
	for rows.Next() {
		var (
			approver string
			at       int64
		)
		if err := rows.Scan(&approver, &at); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		out = append(out, ledger.Approval{Approver: ledger.Principal(approver), At: fromMillis(at)})
	}
	return out, rows.Err()
}

func (s *SQLStore) loadRefunds(ctx context.Context, q querier, id string) (map[ledger.Principal]int64, error) {
	rows, err := q.QueryContext(ctx, s.q(`
		SELECT contributor, amount FROM refund WHERE campaign_id = ?
	`), id)
	if err != nil {
		return nil, fmt.Errorf("load refunds: %w", err)
	}
	defer rows.Close()

	out := make(map[ledger.Principal]int64)
	for rows.Next() {
		var (
			p      string
			amount int64
		)
		if err := rows.Scan(&p, &amount); err != nil {
			return nil, fmt.Errorf("scan refund: %w", err)
		}
		out[ledger.Principal(p)] = amount
	}
	return out, rows.Err()
}

// List returns campaign summaries with tiers but without ledger rows, newest
// first.
func (s *SQLStore) List(ctx context.Context, f engine.ListFilter) ([]ledger.Snapshot, error) {
	var (
		where []string
		args  []any
	)
	if f.Owner != "" {
		where = append(where, "owner = ?")
		args = append(args, string(f.Owner))
	}
	if f.State != "" {
		where = append(where, "state = ?")
		args = append(args, string(f.State))
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}

	query := `SELECT ` + campaignColumns + ` FROM campaign`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_ms DESC, id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	var out []ledger.Snapshot
	for rows.Next() {
		snap, err := scanCampaign(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, snap)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Tiers are read after the cursor is closed; SQLite runs on one
	// connection.
	for i := range out {
		if out[i].Tiers, err = s.loadTiers(ctx, s.db, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

const eventColumns = `id, campaign_id, kind, actor, amount, new_state, title, message, occurred_ms`

func scanEvent(row rowScanner) (ledger.Event, error) {
	var (
		ev                 ledger.Event
		kind, actor, state string
		amount             sql.NullInt64
		at                 int64
	)
	if err := row.Scan(&ev.ID, &ev.CampaignID, &kind, &actor, &amount, &state, &ev.Title, &ev.Message, &at); err != nil {
		return ledger.Event{}, fmt.Errorf("scan event: %w", err)
	}
	ev.Kind = ledger.EventKind(kind)
	ev.Actor = ledger.Principal(actor)
	ev.NewState = ledger.State(state)
	ev.OccurredAt = fromMillis(at)
	if amount.Valid {
		ev.Amount = ledger.Amount(amount.Int64)
	}
	return ev, nil
}

func scanEvents(rows *sql.Rows) ([]ledger.Event, error) {
	defer rows.Close()
	var out []ledger.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Events returns up to limit events for the campaign in the order they were
// recorded. A non-positive limit returns all of them.
func (s *SQLStore) Events(ctx context.Context, campaignID string, limit int) ([]ledger.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM campaign_event WHERE campaign_id = ? ORDER BY position`
	args := []any{campaignID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return scanEvents(rows)
}

// ContributionsBy lists p's contributions across campaigns, newest first.
func (s *SQLStore) ContributionsBy(ctx context.Context, p ledger.Principal) ([]engine.ContributionRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT ct.seq, ct.contributor, ct.amount, ct.tier_index, ct.request_key, ct.at_ms,
			c.id, c.title
		FROM contribution ct
		JOIN campaign c ON c.id = ct.campaign_id
		WHERE ct.contributor = ?
		ORDER BY ct.at_ms DESC, c.id, ct.seq DESC
	`), string(p))
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	var out []engine.ContributionRecord
	for rows.Next() {
		var rec engine.ContributionRecord
		ct, err := scanContribution(rows, &rec.CampaignID, &rec.CampaignTitle)
		if err != nil {
			return nil, err
		}
		rec.Contribution = ct
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLStore) Subscribe(ctx context.Context, campaignID string, p ledger.Principal, at time.Time) (engine.Subscription, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return engine.Subscription{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, s.q(`SELECT 1 FROM campaign WHERE id = ?`), campaignID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Subscription{}, ledger.ErrCampaignNotFound
	}
	if err != nil {
		return engine.Subscription{}, fmt.Errorf("check campaign: %w", err)
	}

	var pos int64
	err = tx.QueryRowContext(ctx, s.q(`
		SELECT COALESCE(MAX(position), 0) FROM campaign_event WHERE campaign_id = ?
	`), campaignID).Scan(&pos)
	if err != nil {
		return engine.Subscription{}, fmt.Errorf("read last event: %w", err)
	}
	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO subscription (campaign_id, principal, created_ms, cleared_position)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (campaign_id, principal) DO NOTHING
	`), campaignID, string(p), toMillis(at), pos)
	if err != nil {
		return engine.Subscription{}, fmt.Errorf("insert subscription: %w", err)
	}

	var created int64
	err = tx.QueryRowContext(ctx, s.q(`
		SELECT created_ms FROM subscription WHERE campaign_id = ? AND principal = ?
	`), campaignID, string(p)).Scan(&created)
	if err != nil {
		return engine.Subscription{}, fmt.Errorf("read subscription: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return engine.Subscription{}, fmt.Errorf("commit: %w", err)
	}
	return engine.Subscription{CampaignID: campaignID, Principal: p, Since: fromMillis(created)}, nil
}

func (s *SQLStore) Unsubscribe(ctx context.Context, campaignID string, p ledger.Principal) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		DELETE FROM subscription WHERE campaign_id = ? AND principal = ?
	`), campaignID, string(p))
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	return n > 0, nil
}

// pendingFeed joins p's subscriptions to the events recorded after each
// subscription's cursor, leaving out what p did.
const pendingFeed = `
	FROM subscription s
	JOIN campaign_event e ON e.campaign_id = s.campaign_id AND e.position > s.cleared_position
	WHERE s.principal = ? AND e.actor <> s.principal`

func (s *SQLStore) Notifications(ctx context.Context, p ledger.Principal, limit int) ([]ledger.Event, error) {
	query := `SELECT e.id, e.campaign_id, e.kind, e.actor, e.amount, e.new_state, e.title, e.message, e.occurred_ms` +
		pendingFeed + ` ORDER BY e.occurred_ms DESC, e.campaign_id, e.position DESC`
	args := []any{string(p)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return scanEvents(rows)
}

func (s *SQLStore) ClearNotifications(ctx context.Context, p ledger.Principal) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, s.q(`SELECT COUNT(*)`+pendingFeed), string(p)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	_, err = tx.ExecContext(ctx, s.q(`
		UPDATE subscription SET cleared_position = (
			SELECT COALESCE(MAX(position), 0) FROM campaign_event
			WHERE campaign_event.campaign_id = subscription.campaign_id
		)
		WHERE principal = ?
	`), string(p))
	if err != nil {
		return 0, fmt.Errorf("clear notifications: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}
