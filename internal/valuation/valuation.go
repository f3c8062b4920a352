// Package valuation scores players for trade and lineup decisions. Values
// are a weighted blend of season average, recent form and projection,
// scaled by how scarce the position is on the waiver wire.
package valuation

import (
	"cmp"
	"math"
	"slices"

	"github.com/omarshaarawi/leaguedesk/internal/config"
	"github.com/omarshaarawi/leaguedesk/internal/models"
	"github.com/omarshaarawi/leaguedesk/internal/repository"
)

// Breakdown explains how a player's value was computed.
type Breakdown struct {
	PlayerID  int64
	Position  models.Position
	SeasonAvg float64
	RecentAvg float64
	Projected float64
	Base      float64
	Scarcity  float64
	Value     float64
}

type Valuer struct {
	policy config.ValuationPolicy
}

func New(policy config.ValuationPolicy) *Valuer {
	return &Valuer{policy: policy}
}

// weeklyActuals returns actual totals for completed periods, newest first.
func weeklyActuals(p models.Player, period int) []float64 {
	lines := make([]models.StatLine, 0, len(p.Stats))
	for _, s := range p.Stats {
		if s.Source == models.StatSourceActual && s.Period >= 1 && s.Period < period {
			lines = append(lines, s)
		}
	}
	slices.SortFunc(lines, func(a, b models.StatLine) int { return cmp.Compare(b.Period, a.Period) })
	out := make([]float64, len(lines))
	for i, l := range lines {
		out[i] = l.Total
	}
	return out
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// Base computes the unscaled value of p as of period. Without weekly lines
// the season average comes from the season total; without recent games or a
// projection the season average stands in.
func (v *Valuer) Base(p models.Player, period int) Breakdown {
	b := Breakdown{PlayerID: p.ID, Position: p.Position, Scarcity: 1}

	weekly := weeklyActuals(p, period)
	switch {
	case len(weekly) > 0:
		b.SeasonAvg = mean(weekly)
	case period > 1:
		if total, ok := p.Stat(0, models.StatSourceActual); ok {
			b.SeasonAvg = total.Total / float64(period-1)
		}
	}

	b.RecentAvg = b.SeasonAvg
	if len(weekly) > 0 {
		b.RecentAvg = mean(weekly[:min(v.policy.RecentWindow, len(weekly))])
	}

	b.Projected = b.RecentAvg
	if proj, ok := p.Stat(period, models.StatSourceProjected); ok {
		b.Projected = proj.Total
	}

	b.Base = v.policy.SeasonWeight*b.SeasonAvg + v.policy.RecentWeight*b.RecentAvg + v.policy.ProjectedWeight*b.Projected
	b.Value = b.Base
	return b
}

// Scarcity returns the multiplier for a position with depth usable free
// agents: 1 + bonus * (1 - min(depth, cap)/cap).
func (v *Valuer) Scarcity(depth int) float64 {
	capDepth := v.policy.ScarcityDepthCap
	if capDepth <= 0 {
		return 1
	}
	return 1 + v.policy.ScarcityBonus*(1-float64(min(depth, capDepth))/float64(capDepth))
}

// Board holds the values of every known player in one league snapshot.
type Board struct {
	Period    int
	values    map[int64]Breakdown
	depth     map[models.Position]int
	scarcity  map[models.Position]float64
	rostered  map[int64]int
	freeAgent map[models.Position][]int64
}

// Board values all players in state. Depth counts unrostered players at a
// position whose base value is positive.
func (v *Valuer) Board(state repository.LeagueState) *Board {
	period := state.League.CurrentPeriod
	b := &Board{
		Period:    period,
		values:    make(map[int64]Breakdown, len(state.Players)),
		depth:     make(map[models.Position]int),
		scarcity:  make(map[models.Position]float64),
		rostered:  state.Rostered(),
		freeAgent: make(map[models.Position][]int64),
	}

	for id, p := range state.Players {
		bd := v.Base(p, period)
		b.values[id] = bd
		if _, onRoster := b.rostered[id]; !onRoster && p.Active && bd.Base > 0 {
			b.depth[p.Position]++
			b.freeAgent[p.Position] = append(b.freeAgent[p.Position], id)
		}
	}

	for _, pos := range append(slices.Clone(models.Positions), models.PositionUnknown) {
		b.scarcity[pos] = v.Scarcity(b.depth[pos])
	}
	for id, bd := range b.values {
		bd.Scarcity = b.scarcity[bd.Position]
		bd.Value = bd.Base * bd.Scarcity
		b.values[id] = bd
	}
	for pos, ids := range b.freeAgent {
		slices.SortFunc(ids, func(x, y int64) int {
			if c := cmp.Compare(b.values[y].Value, b.values[x].Value); c != 0 {
				return c
			}
			return cmp.Compare(x, y)
		})
		b.freeAgent[pos] = ids
	}
	return b
}

// Value returns the breakdown for a player. Unknown players are worth zero.
func (b *Board) Value(id int64) Breakdown {
	bd, ok := b.values[id]
	if !ok {
		return Breakdown{PlayerID: id, Scarcity: 1}
	}
	return bd
}

// Depth is the number of usable free agents at pos.
func (b *Board) Depth(pos models.Position) int {
	return b.depth[pos]
}

// FreeAgents returns usable free agents at pos, best first.
func (b *Board) FreeAgents(pos models.Position) []int64 {
	return slices.Clone(b.freeAgent[pos])
}

// Replacement is the value of the best free agent at pos, or zero.
func (b *Board) Replacement(pos models.Position) float64 {
	ids := b.freeAgent[pos]
	if len(ids) == 0 {
		return 0
	}
	return b.values[ids[0]].Value
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
