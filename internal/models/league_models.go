package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultWaiverBudget applies when the league does not configure one.
var DefaultWaiverBudget = decimal.NewFromInt(100)

type League struct {
	ID          string
	ExternalID  string
	Name        string
	SeasonYear  int
	TeamCount   int
	ScoringType ScoringType
	// CurrentPeriod is the scoring period: the unit projections, byes and
	// rosters are keyed by.
	CurrentPeriod int
	// CurrentMatchupPeriod is the head-to-head period. One matchup period can
	// span several scoring periods.
	CurrentMatchupPeriod int
	FinalPeriod          int
	Visibility           Visibility
	WaiverBudget         decimal.Decimal
	OwnerUserID          string
	LastSyncedAt         time.Time
}

// MatchupPeriod is the period matchups are read for. Leagues synced before
// the matchup period was tracked fall back to the scoring period.
func (l League) MatchupPeriod() int {
	if l.CurrentMatchupPeriod > 0 {
		return l.CurrentMatchupPeriod
	}
	return l.CurrentPeriod
}

// Equal compares the synced fields of two leagues. LastSyncedAt is ignored.
func (l League) Equal(o League) bool {
	return l.ID == o.ID &&
		l.ExternalID == o.ExternalID &&
		l.Name == o.Name &&
		l.SeasonYear == o.SeasonYear &&
		l.TeamCount == o.TeamCount &&
		l.ScoringType == o.ScoringType &&
		l.CurrentPeriod == o.CurrentPeriod &&
		l.CurrentMatchupPeriod == o.CurrentMatchupPeriod &&
		l.FinalPeriod == o.FinalPeriod &&
		l.Visibility == o.Visibility &&
		l.WaiverBudget.Equal(o.WaiverBudget) &&
		l.OwnerUserID == o.OwnerUserID
}

type Team struct {
	LeagueID      string
	ExternalID    int
	Name          string
	Abbreviation  string
	Wins          int
	Losses        int
	Ties          int
	PointsFor     float64
	PointsAgainst float64
	PlayoffSeed   int
	OwnerUserID   string
}

// WinPercentage counts ties as half a win.
func (t Team) WinPercentage() float64 {
	games := t.Wins + t.Losses + t.Ties
	if games == 0 {
		return 0
	}
	return (float64(t.Wins) + float64(t.Ties)/2) / float64(games)
}

// SyncedEqual ignores the locally claimed owner.
func (t Team) SyncedEqual(o Team) bool {
	t.OwnerUserID, o.OwnerUserID = "", ""
	return t == o
}

type NamedStat struct {
	Code     int
	Category StatCategory
	Value    float64
}

// StatLine holds the stats for one period. Period 0 is the season total.
type StatLine struct {
	Period int
	Source StatSource
	Total  float64
	Stats  []NamedStat
}

type Player struct {
	ID           int64
	FullName     string
	Position     Position
	PositionCode int
	ProTeamID    int
	ProTeam      string
	ByeWeek      int
	Active       bool
	InjuryStatus string
	// EligibleSlots is nil when upstream did not report eligibility.
	EligibleSlots []LineupSlot
	PercentOwned  float64
	Stats         []StatLine
}

func (p Player) Equal(o Player) bool {
	if p.ID != o.ID || p.FullName != o.FullName || p.Position != o.Position ||
		p.PositionCode != o.PositionCode || p.ProTeamID != o.ProTeamID ||
		p.ProTeam != o.ProTeam || p.ByeWeek != o.ByeWeek || p.Active != o.Active ||
		p.InjuryStatus != o.InjuryStatus || p.PercentOwned != o.PercentOwned {
		return false
	}
	if !slices.Equal(p.EligibleSlots, o.EligibleSlots) {
		return false
	}
	return slices.EqualFunc(p.Stats, o.Stats, func(a, b StatLine) bool {
		return a.Period == b.Period && a.Source == b.Source && a.Total == b.Total &&
			slices.Equal(a.Stats, b.Stats)
	})
}

// Stat returns the line for period and source.
func (p Player) Stat(period int, source StatSource) (StatLine, bool) {
	for _, s := range p.Stats {
		if s.Period == period && s.Source == source {
			return s, true
		}
	}
	return StatLine{}, false
}

// IsInjuryRisk reports statuses that put availability in doubt.
func (p Player) IsInjuryRisk() bool {
	switch p.InjuryStatus {
	case "", "ACTIVE", "NORMAL":
		return false
	}
	return true
}

// CanPlay reports whether the player may occupy slot.
func (p Player) CanPlay(slot LineupSlot) bool {
	if p.EligibleSlots != nil {
		return slices.Contains(p.EligibleSlots, slot)
	}
	return slot.Accepts(p.Position)
}

// RosterKey identifies a roster entry within a league.
type RosterKey struct {
	TeamID   int
	PlayerID int64
	Period   int
}

type RosterEntry struct {
	LeagueID string
	TeamID   int
	PlayerID int64
	Period   int
	Slot     LineupSlot
	SlotCode int
	Current  bool
}

func (r RosterEntry) Key() RosterKey {
	return RosterKey{TeamID: r.TeamID, PlayerID: r.PlayerID, Period: r.Period}
}

type Matchup struct {
	LeagueID      string
	ExternalID    int
	Period        int
	HomeTeamID    int
	AwayTeamID    int
	HomeScore     float64
	AwayScore     float64
	HomeProjected float64
	AwayProjected float64
	Winner        Winner
	IsPlayoff     bool
}

// IsBye reports a matchup with no away team.
func (m Matchup) IsBye() bool {
	return m.AwayTeamID == 0
}

type WaiverTransaction struct {
	ID         string
	LeagueID   string
	TeamID     int
	PlayerID   int64
	Type       TransactionType
	BidAmount  decimal.Decimal
	Status     TransactionStatus
	Period     int
	OccurredAt time.Time
}

func (t WaiverTransaction) Equal(o WaiverTransaction) bool {
	return t.ID == o.ID && t.LeagueID == o.LeagueID && t.TeamID == o.TeamID &&
		t.PlayerID == o.PlayerID && t.Type == o.Type && t.BidAmount.Equal(o.BidAmount) &&
		t.Status == o.Status && t.Period == o.Period && t.OccurredAt.Equal(o.OccurredAt)
}

// TradeProposalTTL is how long a proposal stays open.
const TradeProposalTTL = 7 * 24 * time.Hour

type TradeProposal struct {
	ID              string
	LeagueID        string
	ProposingTeamID int
	ReceivingTeamID int
	Give            []int64
	Receive         []int64
	FairnessScore   float64
	ValueDifference float64
	Status          TradeStatus
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

// EffectiveStatus reports a pending proposal past its expiry as expired.
func (p TradeProposal) EffectiveStatus(now time.Time) TradeStatus {
	if p.Status == TradePending && !now.Before(p.ExpiresAt) {
		return TradeExpired
	}
	return p.Status
}

type TeamStanding struct {
	Rank          int
	Team          Team
	WinPercentage float64
}

type WhoHasResult struct {
	Player      Player
	TeamName    string
	TeamID      int
	Found       bool
	Points      float64
	IsProjected bool
}

type RecapGame struct {
	HomeTeam  string
	AwayTeam  string
	HomeScore float64
	AwayScore float64
}

type Trophy struct {
	Category string
	Team     string
	Value    float64
}

type FinalScoreReport struct {
	Period   int
	Games    []RecapGame
	Trophies []Trophy
}

// Clone returns a copy that shares no slices with p.
func (p Player) Clone() Player {
	if p.EligibleSlots != nil {
		p.EligibleSlots = slices.Clone(p.EligibleSlots)
	}
	if p.Stats != nil {
		stats := make([]StatLine, len(p.Stats))
		for i, line := range p.Stats {
			line.Stats = slices.Clone(line.Stats)
			stats[i] = line
		}
		p.Stats = stats
	}
	return p
}

func (p TradeProposal) Clone() TradeProposal {
	p.Give = slices.Clone(p.Give)
	p.Receive = slices.Clone(p.Receive)
	return p
}
