// Package suggest produces ranked, rule-based roster advice for one team.
package suggest

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/omarshaarawi/leaguedesk/internal/config"
	"github.com/omarshaarawi/leaguedesk/internal/models"
	"github.com/omarshaarawi/leaguedesk/internal/repository"
	"github.com/omarshaarawi/leaguedesk/internal/valuation"
)

type Type string

const (
	TypeLineup Type = "lineup"
	TypePickup Type = "pickup"
	TypeTrade  Type = "trade"
	TypeDrop   Type = "drop"
)

func (t Type) precedence() int {
	switch t {
	case TypeLineup:
		return 0
	case TypePickup:
		return 1
	case TypeTrade:
		return 2
	case TypeDrop:
		return 3
	}
	return 4
}

// Priority orders suggestions; lower is more urgent.
type Priority int

const (
	PriorityHigh Priority = iota + 1
	PriorityMedium
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	}
	return "unknown"
}

type Suggestion struct {
	ID         string
	Type       Type
	Priority   Priority
	Confidence float64
	Title      string
	Rationale  string
	PlayerIDs  []int64
}

// TeamState is the roster under review.
type TeamState struct {
	Team    models.Team
	Roster  []models.RosterEntry
	Players map[int64]models.Player
}

// LeagueContext is the league-wide information the rules compare against.
type LeagueContext struct {
	Period int
	Board  *valuation.Board
}

type Engine struct {
	policy config.SuggestionPolicy
}

func NewEngine(policy config.SuggestionPolicy) *Engine {
	return &Engine{policy: policy}
}

// ForTeam builds the inputs for one team from a league snapshot.
func ForTeam(state repository.LeagueState, teamID int, valuer *valuation.Valuer) (TeamState, LeagueContext, bool) {
	team, ok := state.Team(teamID)
	if !ok {
		return TeamState{}, LeagueContext{}, false
	}
	ts := TeamState{Team: team, Roster: state.TeamRoster(teamID), Players: state.Players}
	lc := LeagueContext{Period: state.League.CurrentPeriod, Board: valuer.Board(state)}
	return ts, lc, true
}

// Suggest applies every rule and returns the results ordered by priority,
// confidence (highest first), type and id.
func (e *Engine) Suggest(team TeamState, lc LeagueContext) []Suggestion {
	var out []Suggestion
	out = append(out, e.lineup(team, lc)...)
	out = append(out, e.pickup(team, lc)...)
	out = append(out, e.trade(team, lc)...)
	out = append(out, e.drop(team, lc)...)
	Sort(out)
	return out
}

// Sort orders suggestions deterministically.
func Sort(s []Suggestion) {
	slices.SortFunc(s, func(a, b Suggestion) int {
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Type.precedence(), b.Type.precedence()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func (e *Engine) priority(gain float64) Priority {
	switch {
	case gain >= e.policy.HighGain:
		return PriorityHigh
	case gain >= e.policy.MediumGain:
		return PriorityMedium
	}
	return PriorityLow
}

// confidence maps a gain onto [0.5, 0.95].
func (e *Engine) confidence(gain float64) float64 {
	scale := e.policy.HighGain
	if scale <= 0 {
		scale = 1
	}
	c := 0.5 + gain/(2*scale)
	return valuation.Round2(math.Min(0.95, math.Max(0.5, c)))
}

// onBye reports whether p's pro team is off in period. A zero bye week is
// unknown, not a bye.
func onBye(p models.Player, period int) bool {
	return p.ByeWeek != 0 && p.ByeWeek == period
}

// projected is what a player is expected to score this period. Players on
// bye or ruled out score nothing.
func projected(p models.Player, period int) float64 {
	if onBye(p, period) {
		return 0
	}
	if !p.Active || p.InjuryStatus == "OUT" || p.InjuryStatus == "INJURY_RESERVE" {
		return 0
	}
	if line, ok := p.Stat(period, models.StatSourceProjected); ok {
		return line.Total
	}
	return 0
}

func sortedEntries(roster []models.RosterEntry) []models.RosterEntry {
	out := slices.Clone(roster)
	slices.SortFunc(out, func(a, b models.RosterEntry) int { return cmp.Compare(a.PlayerID, b.PlayerID) })
	return out
}

// lineup suggests starting a bench player who outprojects a starter in a
// slot the bench player can fill. Each player is used at most once.
func (e *Engine) lineup(team TeamState, lc LeagueContext) []Suggestion {
	var starters, bench []models.RosterEntry
	for _, r := range sortedEntries(team.Roster) {
		switch {
		case r.Slot.IsStarter():
			starters = append(starters, r)
		case r.Slot == models.SlotBench:
			bench = append(bench, r)
		}
	}

	used := make(map[int64]bool)
	var out []Suggestion
	for _, s := range starters {
		starter := team.Players[s.PlayerID]
		starterPts := projected(starter, lc.Period)

		var best *models.Player
		var bestGain float64
		for _, b := range bench {
			if used[b.PlayerID] {
				continue
			}
			cand := team.Players[b.PlayerID]
			if !cand.CanPlay(s.Slot) {
				continue
			}
			gain := projected(cand, lc.Period) - starterPts
			if gain >= e.policy.LineupMinGain && gain > bestGain {
				best, bestGain = &cand, gain
			}
		}
		if best == nil {
			continue
		}
		used[best.ID] = true

		rationale := fmt.Sprintf("%s is projected %.1f points more than %s at %s.",
			best.FullName, bestGain, starter.FullName, s.Slot)
		if onBye(starter, lc.Period) {
			rationale += fmt.Sprintf(" %s is on bye.", starter.FullName)
		}
		out = append(out, Suggestion{
			ID:         fmt.Sprintf("lineup:%d:%d", best.ID, starter.ID),
			Type:       TypeLineup,
			Priority:   e.priority(bestGain),
			Confidence: e.confidence(bestGain),
			Title:      fmt.Sprintf("Start %s over %s", best.FullName, starter.FullName),
			Rationale:  rationale,
			PlayerIDs:  []int64{best.ID, starter.ID},
		})
	}
	return out
}

// pickup suggests replacing the weakest bench or injury-risk player at a
// position with the best free agent there.
func (e *Engine) pickup(team TeamState, lc LeagueContext) []Suggestion {
	weakest := make(map[models.Position]models.Player)
	for _, r := range sortedEntries(team.Roster) {
		p := team.Players[r.PlayerID]
		if r.Slot != models.SlotBench && !p.IsInjuryRisk() {
			continue
		}
		if r.Slot == models.SlotIR {
			continue
		}
		cur, ok := weakest[p.Position]
		if !ok || lc.Board.Value(p.ID).Value < lc.Board.Value(cur.ID).Value {
			weakest[p.Position] = p
		}
	}

	var out []Suggestion
	for _, pos := range models.Positions {
		weak, ok := weakest[pos]
		if !ok {
			continue
		}
		fas := lc.Board.FreeAgents(pos)
		if len(fas) == 0 {
			continue
		}
		fa := lc.Board.Value(fas[0])
		gain := fa.Value - lc.Board.Value(weak.ID).Value
		if gain < e.policy.PickupMinGain {
			continue
		}
		faPlayer := team.Players[fa.PlayerID]
		rationale := fmt.Sprintf("%s is valued %.1f above %s.", faPlayer.FullName, gain, weak.FullName)
		if weak.IsInjuryRisk() {
			rationale += fmt.Sprintf(" %s is listed %s.", weak.FullName, weak.InjuryStatus)
		}
		out = append(out, Suggestion{
			ID:         fmt.Sprintf("pickup:%d:%d", fa.PlayerID, weak.ID),
			Type:       TypePickup,
			Priority:   e.priority(gain),
			Confidence: e.confidence(gain),
			Title:      fmt.Sprintf("Pick up %s, drop %s", faPlayer.FullName, weak.FullName),
			Rationale:  rationale,
			PlayerIDs:  []int64{fa.PlayerID, weak.ID},
		})
	}
	return out
}

// dedicatedPosition is the single position a starting slot takes, if any.
func dedicatedPosition(slot models.LineupSlot) (models.Position, bool) {
	switch slot {
	case models.SlotQB:
		return models.PositionQB, true
	case models.SlotRB:
		return models.PositionRB, true
	case models.SlotWR:
		return models.PositionWR, true
	case models.SlotTE:
		return models.PositionTE, true
	case models.SlotK:
		return models.PositionK, true
	case models.SlotDST:
		return models.PositionDST, true
	}
	return "", false
}

// trade pairs a position with surplus depth against a position whose
// weakest starter is below replacement level.
func (e *Engine) trade(team TeamState, lc LeagueContext) []Suggestion {
	have := make(map[models.Position]int)
	need := make(map[models.Position]int)
	weakStarter := make(map[models.Position]models.Player)
	for _, r := range sortedEntries(team.Roster) {
		p := team.Players[r.PlayerID]
		have[p.Position]++
		pos, ok := dedicatedPosition(r.Slot)
		if !ok {
			continue
		}
		need[pos]++
		cur, seen := weakStarter[pos]
		if !seen || lc.Board.Value(p.ID).Value < lc.Board.Value(cur.ID).Value {
			weakStarter[pos] = p
		}
	}

	var surplus []models.Position
	for _, pos := range models.Positions {
		if need[pos] > 0 && have[pos] > need[pos]+e.policy.SurplusExtra {
			surplus = append(surplus, pos)
		}
	}

	var out []Suggestion
	for _, pos := range models.Positions {
		starter, ok := weakStarter[pos]
		if !ok {
			continue
		}
		gap := lc.Board.Replacement(pos) - lc.Board.Value(starter.ID).Value
		if gap <= 0 {
			continue
		}
		for _, from := range surplus {
			if from == pos {
				continue
			}
			rationale := fmt.Sprintf("You roster %d %s for %d starting spot(s); %s is %.1f below the best available %s.",
				have[from], from, need[from], starter.FullName, gap, pos)
			out = append(out, Suggestion{
				ID:         fmt.Sprintf("trade:%s:%s", from, pos),
				Type:       TypeTrade,
				Priority:   e.priority(gap),
				Confidence: e.confidence(gap),
				Title:      fmt.Sprintf("Trade %s depth for a %s upgrade", from, pos),
				Rationale:  rationale,
				PlayerIDs:  []int64{starter.ID},
			})
		}
	}
	return out
}

// drop flags rostered players below replacement level at their position
// unless a bye or injury explains the low value. Injured reserve is exempt.
func (e *Engine) drop(team TeamState, lc LeagueContext) []Suggestion {
	var out []Suggestion
	for _, r := range sortedEntries(team.Roster) {
		if r.Slot == models.SlotIR {
			continue
		}
		p := team.Players[r.PlayerID]
		if onBye(p, lc.Period) || p.IsInjuryRisk() {
			continue
		}
		if lc.Board.Depth(p.Position) == 0 {
			continue
		}
		gap := lc.Board.Replacement(p.Position) - lc.Board.Value(p.ID).Value
		if gap < e.policy.DropMargin {
			continue
		}
		out = append(out, Suggestion{
			ID:         fmt.Sprintf("drop:%d", p.ID),
			Type:       TypeDrop,
			Priority:   e.priority(gap),
			Confidence: e.confidence(gap),
			Title:      fmt.Sprintf("Drop %s", p.FullName),
			Rationale:  fmt.Sprintf("%s is valued %.1f below the best available %s.", p.FullName, gap, p.Position),
			PlayerIDs:  []int64{p.ID},
		})
	}
	return out
}
