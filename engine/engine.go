// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/fundgate/ledger"
)

// ErrVersionConflict is returned by a Store when another writer saved the
// campaign first. The engine reports it as ledger.ErrUnavailable.
var ErrVersionConflict = errors.New("campaign version conflict")

// Store persists campaigns and their domain events. Save and Create must write
// the campaign and events atomically.
type Store interface {
	Create(ctx context.Context, c *ledger.Campaign, events []ledger.Event) error
	// Load returns ledger.ErrCampaignNotFound for unknown ids.
	Load(ctx context.Context, id string) (*ledger.Campaign, error)
	// Save fails with ErrVersionConflict unless the stored version equals
	// c.Version(). On success it advances c's version.
	Save(ctx context.Context, c *ledger.Campaign, events []ledger.Event) error
	List(ctx context.Context, f ListFilter) ([]ledger.Snapshot, error)
	Events(ctx context.Context, campaignID string, limit int) ([]ledger.Event, error)
	ContributionsBy(ctx context.Context, p ledger.Principal) ([]ContributionRecord, error)

	// Subscribe is idempotent and returns the existing subscription when p
	// already follows the campaign. A new subscription starts after the
	// campaign's latest event.
	Subscribe(ctx context.Context, campaignID string, p ledger.Principal, at time.Time) (Subscription, error)
	// Unsubscribe reports whether a subscription was removed.
	Unsubscribe(ctx context.Context, campaignID string, p ledger.Principal) (bool, error)
	// Notifications lists events from p's subscriptions that p has not cleared
	// and did not cause, newest first. A non-positive limit returns all.
	Notifications(ctx context.Context, p ledger.Principal, limit int) ([]ledger.Event, error)
	// ClearNotifications moves every one of p's subscriptions past its latest
	// event and returns how many notifications were pending.
	ClearNotifications(ctx context.Context, p ledger.Principal) (int, error)
}

// ListFilter narrows List. Zero fields match everything.
type ListFilter struct {
	Owner ledger.Principal
	State ledger.State
	Kind  ledger.Kind
	Limit int
}

// ContributionRecord is one contribution with the campaign it went to.
type ContributionRecord struct {
	CampaignID    string
	CampaignTitle string
	ledger.Contribution
}

// Subscription is a principal following a campaign's event feed.
type Subscription struct {
	CampaignID string
	Principal  ledger.Principal
	Since      time.Time
}

type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Publisher delivers domain events to the notification subsystem. Delivery
// failures are logged and never fail a command.
type Publisher interface {
	Publish(ctx context.Context, ev ledger.Event) error
}

type Engine struct {
	store     Store
	clock     Clock
	publisher Publisher
	logger    *slog.Logger
	newID     func() string
	locks     *keyedLocks
}

type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithIDGenerator replaces the uuid campaign and event id source.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		clock:  ClockFunc(time.Now),
		logger: slog.Default(),
		newID:  uuid.NewString,
		locks:  newKeyedLocks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// unavailable wraps a collaborator failure so callers can retry it.
func unavailable(op string, err error) error {
	if errors.Is(err, ledger.ErrCampaignNotFound) || errors.Is(err, ledger.ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ledger.ErrUnavailable, op, err)
}

func (e *Engine) event(c *ledger.Campaign, kind ledger.EventKind, actor ledger.Principal, amount *int64, now time.Time) ledger.Event {
	return ledger.Event{
		ID:         e.newID(),
		CampaignID: c.ID(),
		Kind:       kind,
		Actor:      actor,
		Amount:     amount,
		NewState:   c.State(),
		OccurredAt: now.UTC(),
	}
}

func (e *Engine) publish(ctx context.Context, events []ledger.Event) {
	if e.publisher == nil {
		return
	}
	for _, ev := range events {
		if err := e.publisher.Publish(ctx, ev); err != nil {
			e.logger.Warn("event delivery failed",
				"campaign_id", ev.CampaignID,
				"event_kind", ev.Kind,
				"error", err,
			)
		}
	}
}

// command mutates a private clone of the campaign and returns the events it
// produced. Returning no events means nothing changed.
type command func(c *ledger.Campaign, now time.Time) ([]ledger.Event, error)

// exec runs cmd under the campaign's write lock: load, re-derive state, apply,
// save, publish. A state transition found while re-deriving is persisted even
// when cmd fails.
func (e *Engine) exec(ctx context.Context, id string, actor ledger.Principal, cmd command) (*ledger.Campaign, error) {
	unlock := e.locks.lock(id)
	defer unlock()

	c, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, unavailable("load campaign", err)
	}
	now := e.clock.Now()

	var pending []ledger.Event
	if c.Refresh(now) {
		pending = append(pending, e.event(c, ledger.EventStateChanged, actor, nil, now))
	}

	work := c.Clone()
	before := work.State()
	produced, cmdErr := cmd(work, now)
	if cmdErr != nil {
		if len(pending) > 0 {
			if err := e.commit(ctx, c, pending, now); err != nil {
				return nil, err
			}
		}
		return nil, cmdErr
	}

	pending = append(pending, produced...)
	if work.State() != before {
		pending = append(pending, e.event(work, ledger.EventStateChanged, actor, nil, now))
	}
	if len(pending) == 0 {
		return work, nil
	}
	if err := e.commit(ctx, work, pending, now); err != nil {
		return nil, err
	}
	return work, nil
}

func (e *Engine) commit(ctx context.Context, c *ledger.Campaign, events []ledger.Event, now time.Time) error {
	c.Touch(now)
	if err := e.store.Save(ctx, c, events); err != nil {
		return unavailable("save campaign", err)
	}
	for _, ev := range events {
		if ev.Kind == ledger.EventStateChanged {
			e.logger.Info("campaign state changed", "campaign_id", ev.CampaignID, "state", ev.NewState)
		}
	}
	e.publish(ctx, events)
	return nil
}

// view loads a campaign under the read lock. The returned campaign is a
// private copy and can be inspected without further locking.
func (e *Engine) view(ctx context.Context, id string) (*ledger.Campaign, error) {
	unlock := e.locks.rlock(id)
	defer unlock()

	c, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, unavailable("load campaign", err)
	}
	return c, nil
}
