package models

import "fmt"

// Position is a player's primary position.
type Position string

const (
	PositionQB      Position = "QB"
	PositionRB      Position = "RB"
	PositionWR      Position = "WR"
	PositionTE      Position = "TE"
	PositionK       Position = "K"
	PositionDST     Position = "D/ST"
	PositionUnknown Position = "UNKNOWN"
)

// Positions lists the known positions in display order.
var Positions = []Position{PositionQB, PositionRB, PositionWR, PositionTE, PositionK, PositionDST}

// LineupSlot is a roster slot a player can occupy.
type LineupSlot string

const (
	SlotQB      LineupSlot = "QB"
	SlotTQB     LineupSlot = "TQB"
	SlotRB      LineupSlot = "RB"
	SlotRBWR    LineupSlot = "RB/WR"
	SlotWR      LineupSlot = "WR"
	SlotWRTE    LineupSlot = "WR/TE"
	SlotTE      LineupSlot = "TE"
	SlotOP      LineupSlot = "OP"
	SlotFlex    LineupSlot = "FLEX"
	SlotDST     LineupSlot = "D/ST"
	SlotK       LineupSlot = "K"
	SlotBench   LineupSlot = "BENCH"
	SlotIR      LineupSlot = "IR"
	SlotUnknown LineupSlot = "UNKNOWN"
)

// IsStarter reports whether players in the slot score for the team.
func (s LineupSlot) IsStarter() bool {
	switch s {
	case SlotBench, SlotIR, SlotUnknown, "":
		return false
	}
	return true
}

// Accepts reports whether a player at pos may fill the slot.
func (s LineupSlot) Accepts(pos Position) bool {
	switch s {
	case SlotQB, SlotTQB:
		return pos == PositionQB
	case SlotRB:
		return pos == PositionRB
	case SlotRBWR:
		return pos == PositionRB || pos == PositionWR
	case SlotWR:
		return pos == PositionWR
	case SlotWRTE:
		return pos == PositionWR || pos == PositionTE
	case SlotTE:
		return pos == PositionTE
	case SlotFlex:
		return pos == PositionRB || pos == PositionWR || pos == PositionTE
	case SlotOP:
		return pos == PositionQB || pos == PositionRB || pos == PositionWR || pos == PositionTE
	case SlotDST:
		return pos == PositionDST
	case SlotK:
		return pos == PositionK
	case SlotBench, SlotIR:
		return true
	}
	return false
}

// StatSource distinguishes recorded stats from projections.
type StatSource string

const (
	StatSourceActual    StatSource = "actual"
	StatSourceProjected StatSource = "projected"
)

// StatCategory names a statistic. Unknown codes keep their raw value in NamedStat.
type StatCategory string

const StatUnknown StatCategory = "unknown"

type Winner string

const (
	WinnerHome      Winner = "HOME"
	WinnerAway      Winner = "AWAY"
	WinnerTie       Winner = "TIE"
	WinnerUndecided Winner = "UNDECIDED"
)

type TransactionType string

const (
	TransactionAdd   TransactionType = "ADD"
	TransactionDrop  TransactionType = "DROP"
	TransactionTrade TransactionType = "TRADE"
)

type TransactionStatus string

const (
	TransactionPending    TransactionStatus = "PENDING"
	TransactionSuccessful TransactionStatus = "SUCCESSFUL"
	TransactionFailed     TransactionStatus = "FAILED"
)

type TradeStatus string

const (
	TradePending   TradeStatus = "pending"
	TradeAccepted  TradeStatus = "accepted"
	TradeRejected  TradeStatus = "rejected"
	TradeExpired   TradeStatus = "expired"
	TradeCancelled TradeStatus = "cancelled"
)

// ParseTradeStatus validates a caller supplied status.
func ParseTradeStatus(s string) (TradeStatus, error) {
	switch st := TradeStatus(s); st {
	case TradePending, TradeAccepted, TradeRejected, TradeExpired, TradeCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown trade status %q", s)
}

type ScoringType string

const (
	ScoringStandard ScoringType = "standard"
	ScoringHalfPPR  ScoringType = "half_ppr"
	ScoringPPR      ScoringType = "ppr"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)
