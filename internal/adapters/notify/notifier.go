// Package notify delivers out-of-band messages and match feeds.
//
// Notify sends chat text to participants other than the one who issued the
// current command. Publish pushes a structured feed item to whoever follows a
// session: WebSocket watchers, a NATS subject, or just the log.
package notify

import (
	"context"
	"errors"

	"github.com/okian/patabol/internal/domain/model"
	"github.com/okian/patabol/pkg/logger"
	"github.com/okian/patabol/pkg/metrics"
)

// FeedKind tags a feed item.
type FeedKind string

const (
	FeedStart  FeedKind = "start"
	FeedEvent  FeedKind = "event"
	FeedResult FeedKind = "result"
	FeedStats  FeedKind = "stats"
	FeedEnd    FeedKind = "end"
)

// Score is the scoreline attached to result items.
type Score struct {
	Home     string `json:"home"`
	Away     string `json:"away"`
	HomeGoal int    `json:"home_goals"`
	AwayGoal int    `json:"away_goals"`
	MVP      string `json:"mvp,omitempty"`
}

// FeedItem is one entry of a session feed.
type FeedItem struct {
	Kind    FeedKind     `json:"kind"`
	Session string       `json:"session"`
	Text    string       `json:"text"`
	Event   *model.Event `json:"event,omitempty"`
	Score   *Score       `json:"score,omitempty"`
}

// Notifier is implemented by every delivery sink.
type Notifier interface {
	Notify(ctx context.Context, recipients []string, msg string) error
	Publish(ctx context.Context, code string, item FeedItem) error
}

// LogNotifier writes everything to the structured log.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier creates a LogNotifier; a nil logger uses the global one.
func NewLogNotifier(l logger.Logger) *LogNotifier {
	if l == nil {
		l = logger.Named("notify")
	}
	return &LogNotifier{log: l}
}

func (n *LogNotifier) Notify(ctx context.Context, recipients []string, msg string) error {
	for _, r := range recipients {
		n.log.Info(ctx, "notification", logger.Participant(r), logger.String("text", msg))
	}
	return nil
}

func (n *LogNotifier) Publish(ctx context.Context, code string, item FeedItem) error {
	n.log.Debug(ctx, "feed item",
		logger.SessionCode(code),
		logger.String("kind", string(item.Kind)),
		logger.String("text", item.Text))
	metrics.RecordFeedDelivered("log")
	return nil
}

// Multi fans every call out to all of its notifiers. Errors are joined and do
// not stop delivery to the remaining sinks.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, recipients []string, msg string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, recipients, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Publish(ctx context.Context, code string, item FeedItem) error {
	var errs []error
	for _, n := range m {
		if err := n.Publish(ctx, code, item); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops everything.
type Discard struct{}

func (Discard) Notify(context.Context, []string, string) error   { return nil }
func (Discard) Publish(context.Context, string, FeedItem) error { return nil }
