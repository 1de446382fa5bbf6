package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/patabol/internal/adapters/notify"
	"github.com/okian/patabol/internal/domain/model"
	"github.com/okian/patabol/internal/domain/session"
	"github.com/okian/patabol/internal/router"
	"github.com/okian/patabol/pkg/logger"
	"github.com/okian/patabol/pkg/metrics"
)

// ErrMatchNotReady is returned by RunMatch for a session that has no
// scheduled, unplayed match.
var ErrMatchNotReady = errors.New("match not ready")

// RunMatch plays the scheduled match of a session and delivers its feed.
// The session lock is held only while the engine runs and the result is
// stored; delivery is paced without it. Afterwards every human leaves, which
// closes the session.
func (s *Service) RunMatch(ctx context.Context, code string) error {
	e, ok := s.store.Get(code)
	if !ok {
		metrics.RecordMatchFailed("session_gone")
		return session.ES("run_match", code, session.ErrSessionNotFound)
	}

	e.Lock()
	if e.Removed() {
		e.Unlock()
		metrics.RecordMatchFailed("session_gone")
		return session.ES("run_match", code, session.ErrSessionNotFound)
	}
	sess := e.Session()
	home, away, ok := sess.Matchup()
	if !ok {
		state := sess.State
		e.Unlock()
		metrics.RecordMatchFailed("not_ready")
		s.logger.Error(ctx, "scheduled match is not playable",
			logger.SessionCode(code), logger.String("state", state.String()))
		return fmt.Errorf("run match %s: %w", code, ErrMatchNotReady)
	}

	start := time.Now()
	res, err := s.engine.Simulate(home.Roster, away.Roster)
	if err != nil {
		sess.RevertTrigger()
		e.Unlock()
		metrics.RecordMatchFailed("engine")
		return fmt.Errorf("simulate %s: %w", code, err)
	}
	res.Home.Name = home.Team
	res.Away.Name = away.Team
	sess.RecordResult(res)
	humans := sess.Humans()
	e.Unlock()

	elapsed := time.Since(start)
	metrics.RecordMatchSimulated(float64(elapsed.Microseconds())/1000, res.Home.Goals+res.Away.Goals, res.MVP.MVPScore())
	s.logger.Info(ctx, "match simulated",
		logger.SessionCode(code),
		logger.String("score", fmt.Sprintf("%s %d - %d %s", res.Home.Name, res.Home.Goals, res.Away.Goals, res.Away.Name)),
		logger.Int("events", len(res.Events)),
		logger.String("mvp", res.MVP.ID),
	)

	if err := s.deliver(ctx, code, humans, res); err != nil {
		s.logger.Warn(ctx, "match feed interrupted", logger.SessionCode(code), logger.Error(err))
	}
	for _, h := range humans {
		if err := s.leave(ctx, h, code); err != nil && !errors.Is(err, session.ErrNotInSession) {
			s.logger.Warn(ctx, "leave after match failed", logger.SessionCode(code),
				logger.Participant(h), logger.Error(err))
		}
	}
	return nil
}

// deliver sends the match feed: kickoff, every event, result, stats and the
// closing message, one step per event delay.
func (s *Service) deliver(ctx context.Context, code string, humans []string, res *model.MatchResult) error {
	pacer := notify.NewPacer(s.notifier, s.eventDelay)
	score := &notify.Score{
		Home:     res.Home.Name,
		Away:     res.Away.Name,
		HomeGoal: res.Home.Goals,
		AwayGoal: res.Away.Goals,
		MVP:      res.MVP.ID,
	}

	items := make([]notify.FeedItem, 0, len(res.Events)+4)
	items = append(items, notify.FeedItem{Kind: notify.FeedStart, Session: code, Text: router.MsgMatchStart})
	for i := range res.Events {
		ev := res.Events[i]
		items = append(items, notify.FeedItem{Kind: notify.FeedEvent, Session: code, Text: router.FormatEvent(ev), Event: &ev})
	}
	items = append(items,
		notify.FeedItem{Kind: notify.FeedResult, Session: code, Text: router.FormatResult(res), Score: score},
		notify.FeedItem{Kind: notify.FeedStats, Session: code, Text: router.FormatStats(res)},
		notify.FeedItem{Kind: notify.FeedEnd, Session: code, Text: router.MsgMatchEnd, Score: score},
	)

	for _, item := range items {
		if err := pacer.Step(ctx, humans, item); err != nil {
			if ctx.Err() != nil {
				return err
			}
			s.logger.Warn(ctx, "feed delivery failed", logger.SessionCode(code),
				logger.String("kind", string(item.Kind)), logger.Error(err))
		}
	}
	return nil
}
