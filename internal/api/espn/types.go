package espn

// LeagueResponse is the league document returned by the provider. Which
// fields are populated depends on the views requested.
type LeagueResponse struct {
	ID              int               `json:"id"`
	ScoringPeriodID int               `json:"scoringPeriodId"`
	SeasonID        int               `json:"seasonId"`
	SegmentID       int               `json:"segmentId"`
	Status          Status            `json:"status"`
	Teams           []Team            `json:"teams"`
	Settings        Settings          `json:"settings"`
	Schedule        []MatchupScore    `json:"schedule"`
	Transactions    []Transaction     `json:"transactions"`
	Players         []PlayerPoolEntry `json:"players"`
}

type Settings struct {
	Name                string              `json:"name"`
	Size                int                 `json:"size"`
	AcquisitionSettings AcquisitionSettings `json:"acquisitionSettings"`
	ScoringSettings     ScoringSettings     `json:"scoringSettings"`
}

type AcquisitionSettings struct {
	AcquisitionBudget        int  `json:"acquisitionBudget"`
	IsUsingAcquisitionBudget bool `json:"isUsingAcquisitionBudget"`
}

type ScoringSettings struct {
	ScoringType  string        `json:"scoringType"`
	ScoringItems []ScoringItem `json:"scoringItems"`
}

type ScoringItem struct {
	StatID int     `json:"statId"`
	Points float64 `json:"points"`
}

type Status struct {
	CurrentMatchupPeriod int  `json:"currentMatchupPeriod"`
	FinalScoringPeriod   int  `json:"finalScoringPeriod"`
	FirstScoringPeriod   int  `json:"firstScoringPeriod"`
	LatestScoringPeriod  int  `json:"latestScoringPeriod"`
	IsActive             bool `json:"isActive"`
}

type Team struct {
	ID                 int                `json:"id"`
	Abbreviation       string             `json:"abbrev"`
	Name               string             `json:"name"`
	Location           string             `json:"location"`
	Nickname           string             `json:"nickname"`
	PlayoffSeed        int                `json:"playoffSeed"`
	Points             float64            `json:"points"`
	Owners             []string           `json:"owners"`
	Roster             Roster             `json:"roster"`
	Record             Record             `json:"record"`
	TransactionCounter TransactionCounter `json:"transactionCounter"`
}

type TransactionCounter struct {
	AcquisitionBudgetSpent int `json:"acquisitionBudgetSpent"`
}

type Roster struct {
	Entries []RosterEntry `json:"entries"`
}

type Record struct {
	Overall RecordDetails `json:"overall"`
}

type RecordDetails struct {
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Ties          int     `json:"ties"`
	Percentage    float64 `json:"percentage"`
	PointsFor     float64 `json:"pointsFor"`
	PointsAgainst float64 `json:"pointsAgainst"`
}

type ScoreboardResponse struct {
	Schedule []MatchupScore `json:"schedule"`
}

type MatchupScore struct {
	ID              int       `json:"id"`
	MatchupPeriodID int       `json:"matchupPeriodId"`
	Away            TeamScore `json:"away"`
	Home            TeamScore `json:"home"`
	Winner          string    `json:"winner"`
	PlayoffTierType string    `json:"playoffTierType"`
}

type TeamScore struct {
	TeamID                        int                `json:"teamId"`
	TotalPoints                   float64            `json:"totalPoints"`
	TotalPointsLive               *float64           `json:"totalPointsLive"`
	TotalProjectedPointsLive      *float64           `json:"totalProjectedPointsLive"`
	PointsByScoringPeriod         map[string]float64 `json:"pointsByScoringPeriod"`
	RosterForCurrentScoringPeriod RosterForPeriod    `json:"rosterForCurrentScoringPeriod"`
}

type RosterForPeriod struct {
	Entries []RosterEntry `json:"entries"`
}

type RosterEntry struct {
	PlayerID        int             `json:"playerId"`
	PlayerPoolEntry PlayerPoolEntry `json:"playerPoolEntry"`
	LineupSlotID    int             `json:"lineupSlotId"`
	Status          string          `json:"status"`
}

type PlayerPoolEntry struct {
	ID               int     `json:"id"`
	OnTeamID         int     `json:"onTeamId"`
	Status           string  `json:"status"`
	Player           Player  `json:"player"`
	AppliedStatTotal float64 `json:"appliedStatTotal"`
}

type Player struct {
	ID                int       `json:"id"`
	FullName          string    `json:"fullName"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	DefaultPositionID int       `json:"defaultPositionId"`
	ProTeamID         int       `json:"proTeamId"`
	EligibleSlots     []int     `json:"eligibleSlots"`
	Active            *bool     `json:"active"`
	Injured           bool      `json:"injured"`
	Ownership         Ownership `json:"ownership"`
	Stats             []Stat    `json:"stats"`
	InjuryStatus      string    `json:"injuryStatus"`
}

type Ownership struct {
	PercentOwned float64 `json:"percentOwned"`
}

type Stat struct {
	StatSourceID    int                `json:"statSourceId"`
	StatSplitTypeID int                `json:"statSplitTypeId"`
	ScoringPeriodID int                `json:"scoringPeriodId"`
	SeasonID        int                `json:"seasonId"`
	AppliedTotal    float64            `json:"appliedTotal"`
	AppliedStats    map[string]float64 `json:"appliedStats"`
	Stats           map[string]float64 `json:"stats"`
}

type Transaction struct {
	ID              string            `json:"id"`
	Type            string            `json:"type"`
	Status          string            `json:"status"`
	TeamID          int               `json:"teamId"`
	BidAmount       float64           `json:"bidAmount"`
	ScoringPeriodID int               `json:"scoringPeriodId"`
	ProposedDate    int64             `json:"proposedDate"`
	ProcessDate     int64             `json:"processDate"`
	Items           []TransactionItem `json:"items"`
}

type TransactionItem struct {
	PlayerID   int    `json:"playerId"`
	Type       string `json:"type"`
	FromTeamID int    `json:"fromTeamId"`
	ToTeamID   int    `json:"toTeamId"`
}

type ProTeamInfo struct {
	ID      int    `json:"id"`
	Abbrev  string `json:"abbrev"`
	ByeWeek int    `json:"byeWeek"`
	Name    string `json:"name"`
}

type ProScheduleResponse struct {
	Settings struct {
		ProTeams []ProTeamInfo `json:"proTeams"`
	} `json:"settings"`
}
