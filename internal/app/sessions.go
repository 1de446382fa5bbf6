package service

import (
	"context"
	"errors"

	repository "github.com/okian/patabol/internal/adapters/repository"
	"github.com/okian/patabol/internal/domain/model"
	"github.com/okian/patabol/internal/domain/session"
	"github.com/okian/patabol/pkg/logger"
)

// Create opens a session owned by participant with a fresh pool and code.
func (s *Service) Create(ctx context.Context, participant, nickname, team string) (*session.View, error) {
	const op = "create"
	if !s.running() {
		return nil, ErrNotStarted
	}
	if _, err := s.Current(ctx, participant); err == nil {
		return nil, session.E(op, session.ErrAlreadyInSession)
	}

	players := s.generator.Generate(s.poolSize)
	e, err := s.store.Create(func(code string) *session.Session {
		return session.New(code, players, participant, nickname, team, s.src)
	})
	if err != nil {
		return nil, session.E(op, err)
	}

	e.Lock()
	defer e.Unlock()
	if !s.store.Bind(participant, e.Code()) {
		s.store.Remove(e)
		return nil, session.E(op, session.ErrAlreadyInSession)
	}
	s.logger.Info(ctx, "session created", logger.SessionCode(e.Code()), logger.Participant(participant))
	return e.Session().Snapshot(), nil
}

// Join adds participant to the session with the given code.
func (s *Service) Join(ctx context.Context, code, participant, nickname, team string) (*session.View, error) {
	const op = "join"
	if !s.running() {
		return nil, ErrNotStarted
	}
	code = session.NormalizeCode(code)
	if cur, err := s.Current(ctx, participant); err == nil {
		if cur.Code == code {
			return nil, session.E(op, session.ErrAlreadyJoined)
		}
		return nil, session.E(op, session.ErrAlreadyInSession)
	}
	e, ok := s.store.Get(code)
	if !ok {
		return nil, session.ES(op, code, session.ErrSessionNotFound)
	}

	e.Lock()
	defer e.Unlock()
	if e.Removed() {
		return nil, session.ES(op, code, session.ErrSessionNotFound)
	}
	sess := e.Session()
	if _, member := sess.Participant(participant); member {
		return nil, session.E(op, session.ErrAlreadyJoined)
	}
	if !s.store.Bind(participant, e.Code()) {
		return nil, session.E(op, session.ErrAlreadyInSession)
	}
	if _, err := sess.Join(participant, nickname, team); err != nil {
		s.store.Unbind(participant, e.Code())
		return nil, err
	}
	s.logger.Info(ctx, "participant joined", logger.SessionCode(code), logger.Participant(participant))
	return sess.Snapshot(), nil
}

// AddBot seats the scripted opponent in the requester's session.
func (s *Service) AddBot(ctx context.Context, participant, team string) (*session.View, error) {
	return s.mutate(ctx, "add_bot", participant, func(sess *session.Session) error {
		_, err := sess.AddBot(participant, team)
		return err
	})
}

// Current returns the participant's session.
func (s *Service) Current(ctx context.Context, participant string) (*session.View, error) {
	return s.mutate(ctx, "current", participant, func(*session.Session) error { return nil })
}

// SelectRoster replaces the participant's roster.
func (s *Service) SelectRoster(ctx context.Context, participant string, ids []string) (*session.View, error) {
	return s.mutate(ctx, "select_roster", participant, func(sess *session.Session) error {
		_, err := sess.SelectRoster(participant, ids)
		return err
	})
}

// AutoSelectRoster drafts a roster for the participant.
func (s *Service) AutoSelectRoster(ctx context.Context, participant string) (*session.View, error) {
	return s.mutate(ctx, "auto_select_roster", participant, func(sess *session.Session) error {
		_, err := sess.AutoSelectRoster(participant)
		return err
	})
}

// RemovePlayer returns a player from the participant's roster to the pool.
func (s *Service) RemovePlayer(ctx context.Context, participant, id string) (*session.View, model.Player, error) {
	var removed model.Player
	view, err := s.mutate(ctx, "remove_player", participant, func(sess *session.Session) error {
		p, err := sess.RemovePlayer(participant, id)
		if err != nil {
			return err
		}
		removed = p.Snapshot()
		return nil
	})
	return view, removed, err
}

// Confirm locks in the participant's roster. The result reports whether the
// match must now be scheduled; the caller does that with Schedule.
func (s *Service) Confirm(ctx context.Context, participant string) (*session.View, session.ConfirmResult, error) {
	var res session.ConfirmResult
	view, err := s.mutate(ctx, "confirm", participant, func(sess *session.Session) error {
		out, err := sess.Confirm(participant)
		if err != nil {
			return err
		}
		res = out.Result()
		return nil
	})
	if err == nil && res.Trigger {
		s.logger.Info(ctx, "both rosters confirmed", logger.SessionCode(view.Code))
	}
	return view, res, err
}

// Leave removes the participant from their session. The session is deleted
// once no human is left.
func (s *Service) Leave(ctx context.Context, participant string) error {
	if !s.running() {
		return ErrNotStarted
	}
	code, ok := s.store.Lookup(participant)
	if !ok {
		return session.E("leave", session.ErrNotInSession)
	}
	return s.leave(ctx, participant, code)
}

// leave removes participant from the session with code, whatever session
// the participant is currently bound to.
func (s *Service) leave(ctx context.Context, participant, code string) error {
	const op = "leave"
	e, ok := s.store.Get(code)
	if !ok {
		s.store.Unbind(participant, code)
		return session.E(op, session.ErrNotInSession)
	}

	e.Lock()
	defer e.Unlock()
	if e.Removed() {
		s.store.Unbind(participant, code)
		return session.E(op, session.ErrNotInSession)
	}
	humans, err := e.Session().Leave(participant)
	if errors.Is(err, session.ErrMatchLocked) {
		return err
	}
	s.store.Unbind(participant, code)
	if err != nil {
		return err
	}
	if humans == 0 {
		s.store.Remove(e)
		s.logger.Info(ctx, "session closed", logger.SessionCode(code))
	}
	return nil
}

// Snapshot returns the session with the given code.
func (s *Service) Snapshot(_ context.Context, code string) (*session.View, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	code = session.NormalizeCode(code)
	e, ok := s.store.Get(code)
	if !ok {
		return nil, session.ES("snapshot", code, session.ErrSessionNotFound)
	}
	e.Lock()
	defer e.Unlock()
	if e.Removed() {
		return nil, session.ES("snapshot", code, session.ErrSessionNotFound)
	}
	return e.Session().Snapshot(), nil
}

// mutate runs fn on the participant's session under its lock and returns a
// snapshot taken before the lock is released. A failed fn leaves no trace
// because every session operation validates before it mutates.
func (s *Service) mutate(_ context.Context, op, participant string, fn func(*session.Session) error) (*session.View, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	e, ok := s.store.Resolve(participant)
	if !ok {
		if code, bound := s.store.Lookup(participant); bound {
			s.store.Unbind(participant, code)
		}
		return nil, session.E(op, session.ErrNotInSession)
	}

	e.Lock()
	defer e.Unlock()
	sess, err := s.live(e, participant)
	if err != nil {
		return nil, session.E(op, err)
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	return sess.Snapshot(), nil
}

// live returns the entry's session if participant still belongs to it. A
// stale index entry is dropped. The caller holds the entry lock.
func (s *Service) live(e *repository.Entry, participant string) (*session.Session, error) {
	if e.Removed() {
		s.store.Unbind(participant, e.Code())
		return nil, session.ErrNotInSession
	}
	sess := e.Session()
	if _, ok := sess.Participant(participant); !ok {
		s.store.Unbind(participant, e.Code())
		return nil, session.ErrNotInSession
	}
	return sess, nil
}
