package notify

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces feed delivery for a single match. The first step goes out
// immediately and every following one waits for the delay. A Pacer is not
// meant to be shared between matches.
type Pacer struct {
	next    Notifier
	limiter *rate.Limiter
}

// NewPacer wraps next. A non-positive delay disables pacing.
func NewPacer(next Notifier, delay time.Duration) *Pacer {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Pacer{next: next, limiter: rate.NewLimiter(limit, 1)}
}

// Step waits for the next slot, then sends item's text to the recipients and
// publishes the item on its session feed.
func (p *Pacer) Step(ctx context.Context, recipients []string, item FeedItem) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pace: %w", err)
	}
	var notifyErr error
	if len(recipients) > 0 && item.Text != "" {
		notifyErr = p.next.Notify(ctx, recipients, item.Text)
	}
	if err := p.next.Publish(ctx, item.Session, item); err != nil {
		return err
	}
	return notifyErr
}

// Notify waits for a slot and forwards.
func (p *Pacer) Notify(ctx context.Context, recipients []string, msg string) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pace: %w", err)
	}
	return p.next.Notify(ctx, recipients, msg)
}

// Publish waits for a slot and forwards.
func (p *Pacer) Publish(ctx context.Context, code string, item FeedItem) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pace: %w", err)
	}
	return p.next.Publish(ctx, code, item)
}
