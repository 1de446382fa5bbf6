package router

import (
	"fmt"
	"strings"

	"github.com/okian/patabol/internal/domain/model"
	"github.com/okian/patabol/internal/domain/session"
)

var rule = strings.Repeat("=", 30)

// RoleName returns the Spanish display name of a role.
func RoleName(r model.Role) string {
	switch r {
	case model.RoleGoalkeeper:
		return "Portero"
	case model.RoleDefender:
		return "Defensa"
	case model.RoleMidfielder:
		return "Medio"
	case model.RoleForward:
		return "Delantero"
	default:
		return "?"
	}
}

// Stars renders a 1-10 attribute as five stars.
func Stars(v int) string {
	n := min(5, max(1, (v+1)/2))
	return strings.Repeat("⭐", n) + strings.Repeat("☆", 5-n)
}

// EventIcon returns the icon shown in front of an event.
func EventIcon(k model.EventKind) string {
	switch k {
	case model.EventGoal:
		return "⚽"
	case model.EventFoul:
		return "🟨"
	case model.EventSteal:
		return "🏃"
	case model.EventDribble:
		return "✨"
	case model.EventPass, model.EventAdvance:
		return "📍"
	case model.EventSave:
		return "🧤"
	default:
		return "•"
	}
}

// FormatEvent renders one play-by-play line.
func FormatEvent(ev model.Event) string {
	return EventIcon(ev.Kind) + " " + ev.Text
}

// FormatDetail renders a player card.
func FormatDetail(p model.Player) string {
	var b strings.Builder
	b.WriteString("👤 DETALLE DE PATABOLISTA\n")
	b.WriteString(rule + "\n\n")
	fmt.Fprintf(&b, "🆔 ID: %s\n", p.ID)
	fmt.Fprintf(&b, "📛 Nombre: %s\n", p.Label())
	fmt.Fprintf(&b, "🏷️ Rol: %s\n\n", RoleName(p.Role))
	b.WriteString("📊 ATRIBUTOS:\n")
	a := p.Attributes
	fmt.Fprintf(&b, "🎯 Control:   %s (%d/10)\n", Stars(a.Control), a.Control)
	fmt.Fprintf(&b, "⚡ Velocidad: %s (%d/10)\n", Stars(a.Speed), a.Speed)
	fmt.Fprintf(&b, "💪 Fuerza:    %s (%d/10)\n", Stars(a.Strength), a.Strength)
	fmt.Fprintf(&b, "🌀 Regate:    %s (%d/10)\n", Stars(a.Dribble), a.Dribble)
	return b.String()
}

// FormatPool renders a pool listing with an optional footer.
func FormatPool(players []model.Player, footer string) string {
	if len(players) == 0 {
		return msgPoolEmpty
	}
	var b strings.Builder
	b.WriteString(msgPoolTitle + "\n")
	b.WriteString(rule + "\n\n")
	for i, p := range players {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Label())
		fmt.Fprintf(&b, "   🏷️ Rol: %s\n", RoleName(p.Role))
	}
	if footer != "" {
		b.WriteString("\n" + footer)
	}
	return b.String()
}

// FormatRoster renders the participant's current roster.
func FormatRoster(p session.ParticipantView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👥 Tu equipo: %s\n", p.Team)
	b.WriteString(rule + "\n\n")
	for i, pl := range p.Roster {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, pl.Label(), RoleName(pl.Role))
	}
	return b.String()
}

// FormatSelection renders the reply to a roster selection.
func FormatSelection(header, team string, roster []model.Player) string {
	var b strings.Builder
	fmt.Fprintf(&b, header, team)
	for _, pl := range roster {
		fmt.Fprintf(&b, "  - %s (%s)\n", pl.Label(), RoleName(pl.Role))
	}
	return b.String()
}

// FormatLineup renders a confirmed lineup.
func FormatLineup(p session.ParticipantView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ %s confirmó el equipo *%s*:\n", p.Nickname, p.Team)
	for i, pl := range p.Roster {
		fmt.Fprintf(&b, "  %d. %s (%s)\n", i+1, pl.Label(), RoleName(pl.Role))
	}
	return b.String()
}

// FormatResult renders the final score and the player of the match.
func FormatResult(res *model.MatchResult) string {
	var b strings.Builder
	b.WriteString("🏆 RESULTADO FINAL\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "%s: %d\n", res.Home.Name, res.Home.Goals)
	fmt.Fprintf(&b, "%s: %d\n\n", res.Away.Name, res.Away.Goals)
	if side, ok := res.Winner(); ok {
		fmt.Fprintf(&b, "🎉 ¡Ganador: %s!\n\n", res.Team(side).Name)
	} else {
		b.WriteString("🤝 Empate. Buen partido.\n\n")
	}
	mvp := res.MVP
	fmt.Fprintf(&b, "⭐ Jugador del Partido: %s\n", mvp.Label())
	fmt.Fprintf(&b, "Goles: %d, Regates: %d, Robos: %d, Pases: %d\n",
		mvp.Stats.Goals, mvp.Stats.Dribbles, mvp.Stats.Steals, mvp.Stats.Passes)
	return b.String()
}

// FormatStats renders the per-player summary of both teams.
func FormatStats(res *model.MatchResult) string {
	var b strings.Builder
	b.WriteString("📊 ESTADÍSTICAS RESUMIDAS\n")
	b.WriteString(rule + "\n\n")
	for i, team := range []model.TeamResult{res.Home, res.Away} {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "👥 %s:\n", team.Name)
		for _, p := range team.Players {
			s := p.Stats
			fmt.Fprintf(&b, "%s:\n  G:%d P:%d Rg:%d Rb:%d F:%d\n",
				p.Label(), s.Goals, s.Passes, s.Dribbles, s.Steals, s.Fouls)
		}
	}
	return b.String()
}
