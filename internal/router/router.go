// Package router turns chat commands into coordinator calls and renders the
// replies. It is channel-agnostic: adapters pass the sender id and raw text
// and deliver whatever comes back.
package router

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/patabol/internal/domain/model"
	"github.com/okian/patabol/internal/domain/random"
	"github.com/okian/patabol/internal/domain/session"
	"github.com/okian/patabol/pkg/logger"
)

// DefaultMaxPoolListing caps an unfiltered /pool listing.
const DefaultMaxPoolListing = 15

// Coordinator is the session lifecycle the router drives. Every call
// returns a snapshot taken under the session lock.
type Coordinator interface {
	Create(ctx context.Context, participant, nickname, team string) (*session.View, error)
	Join(ctx context.Context, code, participant, nickname, team string) (*session.View, error)
	AddBot(ctx context.Context, participant, team string) (*session.View, error)
	Current(ctx context.Context, participant string) (*session.View, error)
	SelectRoster(ctx context.Context, participant string, ids []string) (*session.View, error)
	AutoSelectRoster(ctx context.Context, participant string) (*session.View, error)
	RemovePlayer(ctx context.Context, participant, id string) (*session.View, model.Player, error)
	Confirm(ctx context.Context, participant string) (*session.View, session.ConfirmResult, error)
	Leave(ctx context.Context, participant string) error
}

// Notification is a message for participants other than the sender.
type Notification struct {
	Recipients []string
	Text       string
}

// Trigger asks the caller to schedule the session's match.
type Trigger struct {
	SessionCode string
}

// Reply is the outcome of one command. Messages is never empty.
type Reply struct {
	Messages      []string
	Notifications []Notification
	Trigger       *Trigger

	// Command is the canonical command name, for metrics.
	Command string
	// Outcome is "ok" or the kind of the error that was reported.
	Outcome string
}

var aliases = map[string]string{
	"/u":    "/unirse",
	"/p":    "/pool",
	"/d":    "/detalle",
	"/s":    "/seleccionar",
	"/a":    "/seleccionar_auto",
	"/q":    "/quitar",
	"/e":    "/equipo",
	"/c":    "/confirmar",
	"/est":  "/estadisticas",
	"/h":    "/ayuda",
	"/help": "/ayuda",
}

var poolFilters = map[string]model.Role{
	"port": model.RoleGoalkeeper,
	"def":  model.RoleDefender,
	"med":  model.RoleMidfielder,
	"del":  model.RoleForward,
}

// Router dispatches commands.
type Router struct {
	coord          Coordinator
	src            random.Source
	maxPoolListing int
	log            logger.Logger
}

// New creates a Router on top of coord.
func New(coord Coordinator, opts ...Option) *Router {
	r := &Router{coord: coord, maxPoolListing: DefaultMaxPoolListing}
	for _, opt := range opts {
		opt(r)
	}
	if r.src == nil {
		src, err := random.NewFromCrypto()
		if err != nil {
			src = random.New(1)
		}
		r.src = src
	}
	if r.log == nil {
		r.log = logger.NewNop()
	}
	return r
}

// CanonicalCommand lower-cases a command word and resolves aliases.
func CanonicalCommand(word string) string {
	cmd := strings.ToLower(word)
	if full, ok := aliases[cmd]; ok {
		return full
	}
	return cmd
}

// Route handles one command from participant.
func (r *Router) Route(ctx context.Context, participant, text string) Reply {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return Reply{Messages: []string{msgEmptyCommand}, Command: "empty", Outcome: "unknown"}
	}
	cmd := CanonicalCommand(parts[0])
	args := parts[1:]

	var rep Reply
	switch {
	case cmd == "/ayuda":
		rep = reply(msgHelp)
	default:
		view, err := r.coord.Current(ctx, participant)
		switch {
		case err == nil:
			rep = r.inSession(ctx, participant, view, cmd, args)
		case errors.Is(err, session.ErrNotInSession):
			rep = r.outOfSession(ctx, participant, cmd, args)
		default:
			rep = r.failure(ctx, "current", err)
		}
	}
	rep.Command = strings.TrimPrefix(cmd, "/")
	if rep.Outcome == "" {
		rep.Outcome = "ok"
	}
	return rep
}

func reply(msgs ...string) Reply {
	return Reply{Messages: msgs}
}

func (r *Router) outOfSession(ctx context.Context, participant, cmd string, args []string) Reply {
	switch cmd {
	case "/sesion":
		return r.create(ctx, participant, args)
	case "/unirse":
		return r.join(ctx, participant, args)
	default:
		return reply(msgNotConnected)
	}
}

func (r *Router) inSession(ctx context.Context, participant string, view *session.View, cmd string, args []string) Reply {
	switch cmd {
	case "/iniciar":
		return reply(msgStart)
	case "/sesion":
		return reply(msgAlreadyInSession)
	case "/unirse":
		if len(args) >= 1 && strings.EqualFold(args[0], "ia") {
			return r.addBot(ctx, participant, args[1:])
		}
		return reply(msgJoinWhileIn)
	case "/salir":
		if err := r.coord.Leave(ctx, participant); err != nil {
			return r.failure(ctx, "leave", err)
		}
		return reply(msgLeft)
	case "/pool":
		return r.pool(view, args)
	case "/detalle":
		return r.detail(view, args)
	case "/seleccionar":
		return r.selectRoster(ctx, participant, args)
	case "/seleccionar_auto":
		return r.autoSelect(ctx, participant)
	case "/quitar":
		return r.remove(ctx, participant, view, args)
	case "/equipo":
		return r.roster(participant, view)
	case "/confirmar":
		return r.confirm(ctx, participant)
	case "/estadisticas":
		if view.Result == nil {
			return reply(msgNoResult)
		}
		return reply(FormatResult(view.Result), FormatStats(view.Result))
	default:
		return Reply{Messages: []string{msgUnknownCommand}, Outcome: "unknown"}
	}
}

func (r *Router) create(ctx context.Context, participant string, args []string) Reply {
	if len(args) < 1 {
		return r.usage(msgCreateUsage + "\n\n" + msgNotConnected)
	}
	nickname, team := args[0], strings.Join(args[1:], " ")
	view, err := r.coord.Create(ctx, participant, nickname, team)
	if err != nil {
		return r.failure(ctx, "create", err)
	}
	me, _ := view.Participant(participant)
	return reply(fmt.Sprintf(msgCreated, nickname, me.Team, view.Code), msgHelp)
}

func (r *Router) join(ctx context.Context, participant string, args []string) Reply {
	if len(args) < 2 {
		return r.usage(msgJoinUsage + "\n\n" + msgNotConnected)
	}
	code, nickname, team := args[0], args[1], strings.Join(args[2:], " ")
	view, err := r.coord.Join(ctx, code, participant, nickname, team)
	if err != nil {
		return r.failure(ctx, "join", err)
	}
	me, _ := view.Participant(participant)
	rep := reply(fmt.Sprintf(msgJoined, nickname, me.Team), msgHelp)
	if view.Creator != "" && view.Creator != participant {
		rep.Notifications = append(rep.Notifications, Notification{
			Recipients: []string{view.Creator},
			Text:       fmt.Sprintf(msgJoinNotified, me.Nickname, me.Team),
		})
	}
	return rep
}

func (r *Router) addBot(ctx context.Context, participant string, args []string) Reply {
	view, err := r.coord.AddBot(ctx, participant, strings.Join(args, " "))
	if err != nil {
		return r.failure(ctx, "add_bot", err)
	}
	bot, _ := view.Participant(session.BotID)
	return reply(fmt.Sprintf(msgBotJoined, bot.Team))
}

func (r *Router) pool(view *session.View, args []string) Reply {
	available := view.Available
	filtered := false
	if len(args) > 0 {
		if role, ok := poolFilters[strings.ToLower(args[0])]; ok {
			filtered = true
			available = filterRole(available, role)
		}
	}
	if filtered && len(available) == 0 {
		return reply(msgPoolFilterNone)
	}
	footer := ""
	if !filtered && len(available) > r.maxPoolListing {
		sample := StratifiedSample(r.src, available, r.maxPoolListing)
		footer = fmt.Sprintf(msgPoolMore, len(available)-len(sample))
		available = sample
	}
	return reply(FormatPool(available, footer))
}

func filterRole(players []model.Player, role model.Role) []model.Player {
	out := make([]model.Player, 0, len(players))
	for _, p := range players {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// StratifiedSample picks up to n players keeping the role mix of the input:
// each role gets max(1, round(n*share)) slots in goalkeeper, defender,
// midfielder, forward order, and any shortfall is topped up at random. The
// sample is returned in pool order.
func StratifiedSample(src random.Source, players []model.Player, n int) []model.Player {
	if len(players) <= n {
		return players
	}
	byRole := make(map[model.Role][]int)
	for i, p := range players {
		byRole[p.Role] = append(byRole[p.Role], i)
	}
	picked := make(map[int]bool, n)
	remaining := n
	total := len(players)
	for _, role := range model.Roles {
		group := byRole[role]
		if len(group) == 0 || remaining <= 0 {
			continue
		}
		take := max(1, int(math.RoundToEven(float64(n*len(group))/float64(total))))
		take = min(take, remaining, len(group))
		for _, idx := range random.Sample(src, group, take) {
			picked[idx] = true
		}
		remaining -= take
	}
	if len(picked) < n {
		rest := make([]int, 0, total-len(picked))
		for i := range players {
			if !picked[i] {
				rest = append(rest, i)
			}
		}
		for _, idx := range random.Sample(src, rest, n-len(picked)) {
			picked[idx] = true
		}
	}
	idxs := make([]int, 0, len(picked))
	for idx := range picked {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)
	out := make([]model.Player, len(idxs))
	for i, idx := range idxs {
		out[i] = players[idx]
	}
	return out
}

func (r *Router) detail(view *session.View, args []string) Reply {
	if len(args) != 1 {
		return r.usage(msgDetailUsage)
	}
	p, ok := view.FindPlayer(args[0])
	if !ok {
		return Reply{
			Messages: []string{fmt.Sprintf(msgPlayerNotFound, model.NormalizePlayerID(args[0]))},
			Outcome:  session.KindNotFound.String(),
		}
	}
	return reply(FormatDetail(p))
}

func (r *Router) selectRoster(ctx context.Context, participant string, ids []string) Reply {
	view, err := r.coord.SelectRoster(ctx, participant, ids)
	if err != nil {
		return r.failure(ctx, "select_roster", err)
	}
	return reply(selectionMessage(msgSelected, participant, view))
}

func (r *Router) autoSelect(ctx context.Context, participant string) Reply {
	view, err := r.coord.AutoSelectRoster(ctx, participant)
	if err != nil {
		return r.failure(ctx, "auto_select_roster", err)
	}
	return reply(selectionMessage(msgAutoSelected, participant, view))
}

func selectionMessage(header, participant string, view *session.View) string {
	me, _ := view.Participant(participant)
	msg := FormatSelection(header, me.Team, me.Roster)
	switch {
	case view.State == session.StateBothReady:
		msg += msgSelectBothReady
	case view.HasBot():
		msg += msgSelectVersusBot
	default:
		msg += msgSelectWaiting
	}
	return msg
}

func (r *Router) remove(ctx context.Context, participant string, view *session.View, args []string) Reply {
	if len(args) != 1 {
		return r.usage(msgRemoveUsage)
	}
	_, removed, err := r.coord.RemovePlayer(ctx, participant, args[0])
	if errors.Is(err, session.ErrEmptyRoster) {
		return Reply{Messages: []string{msgRemoveEmpty}, Outcome: session.KindValidation.String()}
	}
	if errors.Is(err, session.ErrNotInRoster) {
		me, _ := view.Participant(participant)
		return Reply{
			Messages: []string{fmt.Sprintf(msgRemoveNotInTeam,
				model.NormalizePlayerID(args[0]), strings.Join(me.RosterIDs(), ", "))},
			Outcome: session.KindValidation.String(),
		}
	}
	if err != nil {
		return r.failure(ctx, "remove_player", err)
	}
	return reply(fmt.Sprintf(msgRemoved, removed.Label()))
}

func (r *Router) roster(participant string, view *session.View) Reply {
	me, ok := view.Participant(participant)
	if !ok || len(me.Roster) == 0 {
		return reply(msgRosterEmpty)
	}
	return reply(FormatRoster(me))
}

func (r *Router) confirm(ctx context.Context, participant string) Reply {
	view, res, err := r.coord.Confirm(ctx, participant)
	if err != nil {
		return r.failure(ctx, "confirm", err)
	}
	if res.AlreadyConfirmed && !res.BotDrafted && !res.Trigger {
		return reply(msgAlreadyConfirmed)
	}

	me, _ := view.Participant(participant)
	rep := reply(FormatLineup(me))
	if !res.AlreadyConfirmed {
		if others := otherHumans(view, participant); len(others) > 0 {
			rep.Notifications = append(rep.Notifications, Notification{Recipients: others, Text: FormatLineup(me)})
		}
	}
	if res.BotDrafted {
		bot, _ := view.Participant(session.BotID)
		rep.Messages = append(rep.Messages, FormatLineup(bot))
	}
	if res.Trigger {
		rep.Messages = append(rep.Messages, msgBothConfirmed)
		rep.Trigger = &Trigger{SessionCode: view.Code}
	}
	return rep
}

func otherHumans(view *session.View, participant string) []string {
	var out []string
	for _, id := range view.Humans() {
		if id != participant {
			out = append(out, id)
		}
	}
	return out
}

func (r *Router) usage(msg string) Reply {
	return Reply{Messages: []string{msg}, Outcome: "usage"}
}

// failure renders err for the user. Internal errors are logged and replaced
// by a generic apology.
func (r *Router) failure(ctx context.Context, op string, err error) Reply {
	kind := session.KindOf(err)
	if kind == session.KindInternal {
		r.log.Error(ctx, "command failed", logger.String("op", op), logger.Error(err))
		return Reply{Messages: []string{msgInternal}, Outcome: kind.String()}
	}
	return Reply{Messages: []string{errorMessage(err)}, Outcome: kind.String()}
}

func errorMessage(err error) string {
	subject := session.SubjectOf(err)
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		if subject != "" {
			return fmt.Sprintf(msgSessionNotFound, subject)
		}
		return msgNotConnected
	case errors.Is(err, session.ErrNotInSession):
		return msgNotConnected
	case errors.Is(err, session.ErrSessionFull):
		return msgSessionFull
	case errors.Is(err, session.ErrAlreadyJoined):
		return msgAlreadyJoined
	case errors.Is(err, session.ErrAlreadyInSession):
		return msgAlreadyInSession
	case errors.Is(err, session.ErrReservedParticipant):
		return msgReservedID
	case errors.Is(err, session.ErrNotCreator):
		return msgBotNotCreator
	case errors.Is(err, session.ErrOpponentPresent):
		return msgBotAlreadyThere
	case errors.Is(err, session.ErrMatchLocked):
		return msgMatchLocked
	case errors.Is(err, session.ErrNoPlayersAvailable):
		return msgNothingToPick
	case errors.Is(err, session.ErrEmptySelection):
		return msgSelectEmpty
	case errors.Is(err, session.ErrRosterTooLarge):
		return fmt.Sprintf(msgSelectTooMany, session.MaxRoster)
	case errors.Is(err, session.ErrPlayerUnavailable):
		return fmt.Sprintf(msgSelectUnavail, subject)
	case errors.Is(err, session.ErrDuplicatePlayer):
		return fmt.Sprintf(msgSelectDuplicate, subject)
	case errors.Is(err, session.ErrEmptyRoster):
		return msgConfirmEmpty
	case errors.Is(err, session.ErrPlayerNotFound):
		return fmt.Sprintf(msgPlayerNotFound, subject)
	default:
		return msgUnknownCommand
	}
}
