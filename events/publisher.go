// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/fundgate/ledger"
)

type Publisher interface {
	Publish(ctx context.Context, ev ledger.Event) error
}

// LogPublisher writes every event to the structured log.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, ev ledger.Event) error {
	n := Render(ev)
	p.logger.Info("notification",
		"event_id", ev.ID,
		"campaign_id", ev.CampaignID,
		"event_kind", ev.Kind,
		"state", ev.NewState,
		"title", n.Title,
		"message", n.Message,
	)
	return nil
}

type named struct {
	name string
	pub  Publisher
}

// Fanout delivers each event to every registered publisher concurrently and
// bounds the whole delivery by a timeout.
type Fanout struct {
	timeout time.Duration
	targets []named
}

func NewFanout(timeout time.Duration) *Fanout {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Fanout{timeout: timeout}
}

// Add registers a publisher under name, which prefixes its errors.
func (f *Fanout) Add(name string, p Publisher) *Fanout {
	f.targets = append(f.targets, named{name: name, pub: p})
	return f
}

func (f *Fanout) Len() int { return len(f.targets) }

func (f *Fanout) Publish(ctx context.Context, ev ledger.Event) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// Plain Group: one failing transport must not cancel the others.
	var g errgroup.Group
	for _, t := range f.targets {
		g.Go(func() error {
			if err := t.pub.Publish(ctx, ev); err != nil {
				return fmt.Errorf("%s: %w", t.name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
