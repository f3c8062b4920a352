package fantasy

import "github.com/omarshaarawi/leaguedesk/internal/models"

var positionCodes = map[int]models.Position{
	1:  models.PositionQB,
	2:  models.PositionRB,
	3:  models.PositionWR,
	4:  models.PositionTE,
	5:  models.PositionK,
	16: models.PositionDST,
}

var slotCodes = map[int]models.LineupSlot{
	0:  models.SlotQB,
	1:  models.SlotTQB,
	2:  models.SlotRB,
	3:  models.SlotRBWR,
	4:  models.SlotWR,
	5:  models.SlotWRTE,
	6:  models.SlotTE,
	7:  models.SlotOP,
	16: models.SlotDST,
	17: models.SlotK,
	20: models.SlotBench,
	21: models.SlotIR,
	23: models.SlotFlex,
}

var statCodes = map[int]models.StatCategory{
	0:   "passAttempts",
	1:   "passCompletions",
	3:   "passYards",
	4:   "passTouchdowns",
	19:  "pass2PtConversions",
	20:  "passInterceptions",
	23:  "rushAttempts",
	24:  "rushYards",
	25:  "rushTouchdowns",
	26:  "rush2PtConversions",
	42:  "receivingYards",
	43:  "receivingTouchdowns",
	44:  "receiving2PtConversions",
	53:  "receptions",
	58:  "targets",
	68:  "fumbles",
	72:  "fumblesLost",
	74:  "fieldGoalsMade50Plus",
	77:  "fieldGoalsMade40To49",
	80:  "fieldGoalsMadeUnder40",
	83:  "fieldGoalsMade",
	84:  "fieldGoalsAttempted",
	85:  "fieldGoalsMissed",
	86:  "extraPointsMade",
	87:  "extraPointsAttempted",
	88:  "extraPointsMissed",
	93:  "defensiveBlockedKickTouchdowns",
	95:  "defensiveInterceptions",
	96:  "defensiveFumbleRecoveries",
	97:  "defensiveBlockedKicks",
	98:  "defensiveSafeties",
	99:  "defensiveSacks",
	120: "defensivePointsAllowed",
	127: "defensiveYardsAllowed",
}

var proTeams = map[int]string{
	1: "ATL", 2: "BUF", 3: "CHI", 4: "CIN", 5: "CLE", 6: "DAL", 7: "DEN", 8: "DET",
	9: "GB", 10: "TEN", 11: "IND", 12: "KC", 13: "LV", 14: "LAR", 15: "MIA", 16: "MIN",
	17: "NE", 18: "NO", 19: "NYG", 20: "NYJ", 21: "PHI", 22: "ARI", 23: "PIT", 24: "LAC",
	25: "SF", 26: "SEA", 27: "TB", 28: "WSH", 29: "CAR", 30: "JAX", 33: "BAL", 34: "HOU",
}

// FreeAgentProTeam is the abbreviation used for players without a pro team.
const FreeAgentProTeam = "FA"

const (
	statSourceActual    = 0
	statSourceProjected = 1

	receptionsStatID = 53
)
