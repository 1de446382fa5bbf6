package notify

import (
	"net/http"

	"github.com/okian/patabol/pkg/logger"
)

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the hub logger.
func WithHubLogger(l logger.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.log = l
		}
	}
}

// WithOriginCheck replaces the upgrade origin check.
func WithOriginCheck(check func(*http.Request) bool) HubOption {
	return func(h *Hub) {
		if check != nil {
			h.upgrader.CheckOrigin = check
		}
	}
}

// NATSOption configures a NATSNotifier.
type NATSOption func(*NATSNotifier)

// WithSubjectPrefix sets the subject prefix. Defaults to "patabol".
func WithSubjectPrefix(prefix string) NATSOption {
	return func(n *NATSNotifier) {
		if prefix != "" {
			n.prefix = prefix
		}
	}
}

// WithNATSLogger sets the notifier logger.
func WithNATSLogger(l logger.Logger) NATSOption {
	return func(n *NATSNotifier) {
		if l != nil {
			n.log = l
		}
	}
}
