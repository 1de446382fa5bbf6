package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/okian/patabol/pkg/logger"
	"github.com/okian/patabol/pkg/metrics"
)

// UserMessage is the payload published on user subjects.
type UserMessage struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

// NATSNotifier publishes notifications and feeds as JSON on NATS subjects:
// <prefix>.user.<id> and <prefix>.session.<code>.
type NATSNotifier struct {
	nc     *nats.Conn
	prefix string
	log    logger.Logger
}

// NewNATSNotifier connects to url.
func NewNATSNotifier(url string, opts ...NATSOption) (*NATSNotifier, error) {
	n := &NATSNotifier{prefix: "patabol"}
	for _, opt := range opts {
		opt(n)
	}
	if n.log == nil {
		n.log = logger.NewNop()
	}
	nc, err := nats.Connect(url, nats.Name("patabol"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	n.nc = nc
	return n, nil
}

// UserSubject returns the subject notifications for id are published on.
func (n *NATSNotifier) UserSubject(id string) string {
	return n.prefix + ".user." + subjectToken(id)
}

// SessionSubject returns the subject the feed of code is published on.
func (n *NATSNotifier) SessionSubject(code string) string {
	return n.prefix + ".session." + subjectToken(code)
}

func (n *NATSNotifier) Notify(ctx context.Context, recipients []string, msg string) error {
	for _, r := range recipients {
		data, err := json.Marshal(UserMessage{Recipient: r, Text: msg})
		if err != nil {
			return fmt.Errorf("encode notification: %w", err)
		}
		if err := n.nc.Publish(n.UserSubject(r), data); err != nil {
			n.log.Warn(ctx, "nats publish failed", logger.Participant(r), logger.Error(err))
			return fmt.Errorf("publish notification: %w", err)
		}
	}
	return nil
}

func (n *NATSNotifier) Publish(ctx context.Context, code string, item FeedItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode feed item: %w", err)
	}
	if err := n.nc.Publish(n.SessionSubject(code), data); err != nil {
		n.log.Warn(ctx, "nats publish failed", logger.SessionCode(code), logger.Error(err))
		return fmt.Errorf("publish feed item: %w", err)
	}
	metrics.RecordFeedDelivered("nats")
	return nil
}

// Close drains pending publishes and closes the connection.
func (n *NATSNotifier) Close() error {
	if n.nc == nil {
		return nil
	}
	return n.nc.Drain()
}

// subjectToken makes s safe to use as a single subject token.
func subjectToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
}
