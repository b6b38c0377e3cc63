// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/danielhkuo/fundgate/engine"
	"github.com/danielhkuo/fundgate/ledger"
)

// MemoryStore keeps campaigns in process memory. It is used by tests and by
// DATABASE_TYPE=memory.
type MemoryStore struct {
	mu        sync.RWMutex
	campaigns map[string]ledger.Snapshot
	events    map[string][]ledger.Event
	subs      map[subKey]*memorySub
}

type subKey struct {
	campaignID string
	principal  ledger.Principal
}

// cleared counts the campaign events already seen by the subscriber.
type memorySub struct {
	since   time.Time
	cleared int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		campaigns: make(map[string]ledger.Snapshot),
		events:    make(map[string][]ledger.Event),
		subs:      make(map[subKey]*memorySub),
	}
}

var _ engine.Store = (*MemoryStore)(nil)

func (m *MemoryStore) Create(ctx context.Context, c *ledger.Campaign, events []ledger.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.campaigns[c.ID()]; ok {
		return fmt.Errorf("campaign %s already exists", c.ID())
	}
	snap := c.Snapshot()
	snap.Version++
	m.campaigns[c.ID()] = snap
	m.events[c.ID()] = append(m.events[c.ID()], events...)
	c.SetVersion(snap.Version)
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, id string) (*ledger.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	snap, ok := m.campaigns[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ledger.ErrCampaignNotFound
	}
	return ledger.Restore(snap)
}

func (m *MemoryStore) Save(ctx context.Context, c *ledger.Campaign, events []ledger.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.campaigns[c.ID()]
	if !ok {
		return ledger.ErrCampaignNotFound
	}
	if stored.Version != c.Version() {
		return engine.ErrVersionConflict
	}
	snap := c.Snapshot()
	snap.Version++
	m.campaigns[c.ID()] = snap
	m.events[c.ID()] = append(m.events[c.ID()], events...)
	c.SetVersion(snap.Version)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, f engine.ListFilter) ([]ledger.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ledger.Snapshot
	for _, s := range m.campaigns {
		if f.Owner != "" && s.Owner != f.Owner {
			continue
		}
		if f.State != "" && s.State != f.State {
			continue
		}
		if f.Kind != "" && s.Kind != f.Kind {
			continue
		}
		s.Tiers = slices.Clone(s.Tiers)
		s.Contributions = nil
		s.Approvals = nil
		s.RefundedBy = nil
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b ledger.Snapshot) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryStore) Events(ctx context.Context, campaignID string, limit int) ([]ledger.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	evs := m.events[campaignID]
	if limit > 0 && len(evs) > limit {
		evs = evs[:limit]
	}
	return slices.Clone(evs), nil
}

func (m *MemoryStore) ContributionsBy(ctx context.Context, p ledger.Principal) ([]engine.ContributionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []engine.ContributionRecord
	for _, s := range m.campaigns {
		for _, ct := range s.Contributions {
			if ct.Contributor == p {
				out = append(out, engine.ContributionRecord{CampaignID: s.ID, CampaignTitle: s.Title, Contribution: ct})
			}
		}
	}
	slices.SortFunc(out, func(a, b engine.ContributionRecord) int {
		if c := b.At.Compare(a.At); c != 0 {
			return c
		}
		if c := cmp.Compare(a.CampaignID, b.CampaignID); c != 0 {
			return c
		}
		return cmp.Compare(b.Seq, a.Seq)
	})
	return out, nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, campaignID string, p ledger.Principal, at time.Time) (engine.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return engine.Subscription{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.campaigns[campaignID]; !ok {
		return engine.Subscription{}, ledger.ErrCampaignNotFound
	}
	key := subKey{campaignID, p}
	sub, ok := m.subs[key]
	if !ok {
		sub = &memorySub{since: at, cleared: len(m.events[campaignID])}
		m.subs[key] = sub
	}
	return engine.Subscription{CampaignID: campaignID, Principal: p, Since: sub.since}, nil
}

func (m *MemoryStore) Unsubscribe(ctx context.Context, campaignID string, p ledger.Principal) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := subKey{campaignID, p}
	if _, ok := m.subs[key]; !ok {
		return false, nil
	}
	delete(m.subs, key)
	return true, nil
}

type feedEntry struct {
	ev       ledger.Event
	position int
}

// pending returns the unseen events of every subscription p holds, caller
// holding the lock. Order matches the SQL store: newest first, then campaign,
// then latest position.
func (m *MemoryStore) pending(p ledger.Principal) []feedEntry {
	var out []feedEntry
	for key, sub := range m.subs {
		if key.principal != p {
			continue
		}
		evs := m.events[key.campaignID]
		for i := sub.cleared; i < len(evs); i++ {
			if evs[i].Actor != p {
				out = append(out, feedEntry{ev: evs[i], position: i + 1})
			}
		}
	}
	slices.SortFunc(out, func(a, b feedEntry) int {
		if c := b.ev.OccurredAt.Compare(a.ev.OccurredAt); c != 0 {
			return c
		}
		if c := cmp.Compare(a.ev.CampaignID, b.ev.CampaignID); c != 0 {
			return c
		}
		return cmp.Compare(b.position, a.position)
	})
	return out
}

func (m *MemoryStore) Notifications(ctx context.Context, p ledger.Principal, limit int) ([]ledger.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.pending(p)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]ledger.Event, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ev)
	}
	return out, nil
}

func (m *MemoryStore) ClearNotifications(ctx context.Context, p ledger.Principal) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.pending(p))
	for key, sub := range m.subs {
		if key.principal == p {
			sub.cleared = len(m.events[key.campaignID])
		}
	}
	return n, nil
}
