package trade

import (
	"math"

	"github.com/omarshaarawi/leaguedesk/internal/valuation"
)

// fairnessEpsilon keeps the denominator positive when both sides are worthless.
const fairnessEpsilon = 1e-9

// Fairness scores a trade from the proposer's side. valueDifference is
// receive minus give; the score is 100 for equal totals and falls linearly
// with the difference relative to the total value exchanged.
func Fairness(giveValue, receiveValue float64) (score, valueDifference float64) {
	valueDifference = receiveValue - giveValue
	total := math.Max(giveValue+receiveValue, fairnessEpsilon)
	score = 100 - 100*math.Abs(valueDifference)/total
	score = math.Min(100, math.Max(0, score))
	return valuation.Round2(score), valuation.Round2(valueDifference)
}
