package fantasy

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/omarshaarawi/leaguedesk/internal/api/espn"
	"github.com/omarshaarawi/leaguedesk/internal/models"
)

// Upstream bundles the provider payloads gathered for one sync run.
type Upstream struct {
	League       *espn.LeagueResponse
	Matchups     []espn.MatchupScore
	Transactions []espn.Transaction
	FreeAgents   []espn.PlayerPoolEntry
	ProTeams     []espn.ProTeamInfo
}

// Snapshot is the mapped league state for the current period.
type Snapshot struct {
	League       models.League
	Teams        []models.Team
	Players      []models.Player
	Rosters      []models.RosterEntry
	Matchups     []models.Matchup
	Transactions []models.WaiverTransaction
}

// MapSnapshot maps every payload of a sync run. Identical anomalies are
// folded into one entry with a count.
func MapSnapshot(leagueID string, up Upstream) (Snapshot, []Anomaly) {
	var snap Snapshot
	var anomalies []Anomaly
	if up.League == nil {
		return snap, nil
	}
	raw := up.League

	byes := make(map[int]int, len(up.ProTeams))
	for _, t := range up.ProTeams {
		if t.ByeWeek > 0 {
			byes[t.ID] = t.ByeWeek
		}
	}

	period := CurrentPeriod(raw)

	budget := models.DefaultWaiverBudget
	if b := raw.Settings.AcquisitionSettings.AcquisitionBudget; b > 0 {
		budget = decimal.NewFromInt(int64(b))
	}

	teamCount := raw.Settings.Size
	if teamCount == 0 {
		teamCount = len(raw.Teams)
	}

	snap.League = models.League{
		ExternalID:           strconv.Itoa(raw.ID),
		Name:                 raw.Settings.Name,
		SeasonYear:           raw.SeasonID,
		TeamCount:            teamCount,
		ScoringType:          ScoringTypeOf(raw.Settings.ScoringSettings),
		CurrentPeriod:        period,
		CurrentMatchupPeriod: MatchupPeriod(raw),
		FinalPeriod:          raw.Status.FinalScoringPeriod,
		WaiverBudget:         budget,
	}

	players := make(map[int64]models.Player)
	addPlayer := func(p models.Player) {
		if _, ok := players[p.ID]; !ok {
			players[p.ID] = p
		}
	}

	for _, rt := range raw.Teams {
		snap.Teams = append(snap.Teams, MapTeam(rt, leagueID))

		for _, entry := range rt.Roster.Entries {
			rp := entry.PlayerPoolEntry.Player
			if rp.ID == 0 {
				rp.ID = entry.PlayerID
			}
			p, pa := MapPlayer(rp, byes)
			anomalies = append(anomalies, pa...)
			addPlayer(p)

			slot := MapLineupSlot(entry.LineupSlotID)
			if slot == models.SlotUnknown {
				anomalies = append(anomalies, anomaly("roster", rt.ID, "lineup_slot", entry.LineupSlotID))
			}
			snap.Rosters = append(snap.Rosters, models.RosterEntry{
				LeagueID: leagueID,
				TeamID:   rt.ID,
				PlayerID: p.ID,
				Period:   period,
				Slot:     slot,
				SlotCode: entry.LineupSlotID,
				Current:  true,
			})
		}
	}

	for _, fa := range up.FreeAgents {
		rp := fa.Player
		if rp.ID == 0 {
			rp.ID = fa.ID
		}
		p, pa := MapPlayer(rp, byes)
		anomalies = append(anomalies, pa...)
		addPlayer(p)
	}

	for _, rm := range up.Matchups {
		m, ma := MapMatchup(rm, leagueID)
		anomalies = append(anomalies, ma...)
		snap.Matchups = append(snap.Matchups, m)
	}

	for _, rt := range up.Transactions {
		txs, ta := MapTransaction(rt, leagueID)
		anomalies = append(anomalies, ta...)
		snap.Transactions = append(snap.Transactions, txs...)
	}

	snap.Players = make([]models.Player, 0, len(players))
	for _, p := range players {
		snap.Players = append(snap.Players, p)
	}
	slices.SortFunc(snap.Players, func(a, b models.Player) int { return cmp.Compare(a.ID, b.ID) })

	return snap, foldAnomalies(anomalies)
}

// CurrentPeriod is the league's scoring period, falling back to the current
// matchup period when the scoring period is absent.
func CurrentPeriod(raw *espn.LeagueResponse) int {
	if raw == nil {
		return 0
	}
	if raw.ScoringPeriodID > 0 {
		return raw.ScoringPeriodID
	}
	return raw.Status.CurrentMatchupPeriod
}

// MatchupPeriod is the league's current head-to-head period, falling back to
// the scoring period when the status omits it.
func MatchupPeriod(raw *espn.LeagueResponse) int {
	if raw == nil {
		return 0
	}
	if raw.Status.CurrentMatchupPeriod > 0 {
		return raw.Status.CurrentMatchupPeriod
	}
	return raw.ScoringPeriodID
}

func foldAnomalies(in []Anomaly) []Anomaly {
	if len(in) == 0 {
		return nil
	}
	type key struct{ entity, field, raw string }
	index := make(map[key]int)
	var out []Anomaly
	for _, a := range in {
		k := key{a.Entity, a.Field, a.Raw}
		if i, ok := index[k]; ok {
			out[i].Count += a.Count
			continue
		}
		index[k] = len(out)
		out = append(out, a)
	}
	return out
}

func sortStats(stats []models.NamedStat) {
	slices.SortFunc(stats, func(a, b models.NamedStat) int { return cmp.Compare(a.Code, b.Code) })
}

func sortStatLines(lines []models.StatLine) {
	slices.SortFunc(lines, func(a, b models.StatLine) int {
		if c := cmp.Compare(a.Period, b.Period); c != 0 {
			return c
		}
		return cmp.Compare(a.Source, b.Source)
	})
}
