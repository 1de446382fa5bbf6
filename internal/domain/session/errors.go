package session

import (
	"errors"
	"fmt"
)

// Kind classifies session errors so callers can decide how to surface them.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindPolicy
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPolicy:
		return "policy"
	default:
		return "internal"
	}
}

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrNotInSession        = errors.New("participant is not in a session")
	ErrPlayerNotFound      = errors.New("player not found in pool")
	ErrSessionFull         = errors.New("session is full")
	ErrAlreadyJoined       = errors.New("participant already joined this session")
	ErrAlreadyInSession    = errors.New("participant is already in a session")
	ErrNotCreator          = errors.New("only the session creator may do this")
	ErrOpponentPresent     = errors.New("scripted opponent already present")
	ErrReservedParticipant = errors.New("participant id is reserved")
	ErrMatchLocked         = errors.New("match already scheduled")
	ErrEmptySelection      = errors.New("selection is empty")
	ErrRosterTooLarge      = errors.New("roster exceeds maximum size")
	ErrPlayerUnavailable   = errors.New("player is not available")
	ErrDuplicatePlayer     = errors.New("player selected more than once")
	ErrNoPlayersAvailable  = errors.New("no players available")
	ErrEmptyRoster         = errors.New("roster is empty")
	ErrNotInRoster         = errors.New("player is not in roster")
)

var kinds = map[error]Kind{
	ErrSessionNotFound:     KindNotFound,
	ErrNotInSession:        KindNotFound,
	ErrPlayerNotFound:      KindNotFound,
	ErrSessionFull:         KindPolicy,
	ErrAlreadyJoined:       KindPolicy,
	ErrAlreadyInSession:    KindPolicy,
	ErrNotCreator:          KindPolicy,
	ErrOpponentPresent:     KindPolicy,
	ErrReservedParticipant: KindPolicy,
	ErrMatchLocked:         KindPolicy,
	ErrEmptySelection:      KindValidation,
	ErrRosterTooLarge:      KindValidation,
	ErrPlayerUnavailable:   KindValidation,
	ErrDuplicatePlayer:     KindValidation,
	ErrNoPlayersAvailable:  KindValidation,
	ErrEmptyRoster:         KindValidation,
	ErrNotInRoster:         KindValidation,
}

// Error is the error type returned by session operations.
type Error struct {
	Kind Kind
	Op   string
	// Subject is the offending value when there is one, e.g. a player id.
	Subject string
	Err     error
}

func (e *Error) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("session %s: %v: %s", e.Op, e.Err, e.Subject)
	}
	return fmt.Sprintf("session %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err for op, deriving the kind from the sentinel it carries.
func E(op string, err error) error {
	return ES(op, "", err)
}

// ES is E with a subject.
func ES(op, subject string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kindFor(err), Op: op, Subject: subject, Err: err}
}

func kindFor(err error) Kind {
	for sentinel, k := range kinds {
		if errors.Is(err, sentinel) {
			return k
		}
	}
	return KindInternal
}

// KindOf classifies err. Errors that are not session errors are internal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// SubjectOf returns the subject attached to a session error, if any.
func SubjectOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Subject
	}
	return ""
}
