// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"

	"github.com/danielhkuo/fundgate/ledger"
)

// Subscribe makes p follow the campaign's event feed. Subscribing twice keeps
// the original subscription.
func (e *Engine) Subscribe(ctx context.Context, id string, p ledger.Principal) (Subscription, error) {
	if p == "" {
		return Subscription{}, ledger.ErrUnauthorized
	}
	if _, err := e.view(ctx, id); err != nil {
		return Subscription{}, err
	}
	sub, err := e.store.Subscribe(ctx, id, p, e.clock.Now().UTC())
	if err != nil {
		return Subscription{}, unavailable("subscribe", err)
	}
	return sub, nil
}

// Unsubscribe stops p following the campaign. It reports whether p was
// subscribed.
func (e *Engine) Unsubscribe(ctx context.Context, id string, p ledger.Principal) (bool, error) {
	if p == "" {
		return false, ledger.ErrUnauthorized
	}
	if _, err := e.view(ctx, id); err != nil {
		return false, err
	}
	removed, err := e.store.Unsubscribe(ctx, id, p)
	if err != nil {
		return false, unavailable("unsubscribe", err)
	}
	return removed, nil
}

// Notifications returns p's pending feed, newest first.
func (e *Engine) Notifications(ctx context.Context, p ledger.Principal, limit int) ([]ledger.Event, error) {
	if p == "" {
		return nil, ledger.ErrUnauthorized
	}
	evs, err := e.store.Notifications(ctx, p, limit)
	if err != nil {
		return nil, unavailable("list notifications", err)
	}
	return evs, nil
}

// ClearNotifications marks p's whole feed as read and returns how many
// notifications were cleared.
func (e *Engine) ClearNotifications(ctx context.Context, p ledger.Principal) (int, error) {
	if p == "" {
		return 0, ledger.ErrUnauthorized
	}
	n, err := e.store.ClearNotifications(ctx, p)
	if err != nil {
		return 0, unavailable("clear notifications", err)
	}
	return n, nil
}
