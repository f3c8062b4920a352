// Package trade evaluates and records trade proposals between two teams.
package trade

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/omarshaarawi/leaguedesk/internal/apperr"
	"github.com/omarshaarawi/leaguedesk/internal/config"
	"github.com/omarshaarawi/leaguedesk/internal/models"
	"github.com/omarshaarawi/leaguedesk/internal/repository"
	"github.com/omarshaarawi/leaguedesk/internal/valuation"
)

type Request struct {
	LeagueID        string
	ProposingTeamID int
	ReceivingTeamID int
	Give            []int64
	Receive         []int64
}

// PlayerValue is one player in a trade with the team giving them up.
type PlayerValue struct {
	Player models.Player
	TeamID int
	valuation.Breakdown
}

type Evaluation struct {
	IsValid         bool
	Problems        []string
	FairnessScore   float64
	ValueDifference float64
	GiveValue       float64
	ReceiveValue    float64
	Summary         string
	Recommendations []string
	Players         []PlayerValue
}

type Evaluator struct {
	store  repository.Store
	valuer *valuation.Valuer
	policy config.TradePolicy
	clock  clockwork.Clock
	logger *slog.Logger
}

type Option func(*Evaluator)

func WithClock(clock clockwork.Clock) Option {
	return func(e *Evaluator) {
		e.clock = clock
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

func NewEvaluator(store repository.Store, policy config.Policy, opts ...Option) *Evaluator {
	e := &Evaluator{
		store:  store,
		valuer: valuation.New(policy.Valuation),
		policy: policy.Trade,
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate scores req against the league's current snapshot. Malformed
// requests fail with a validation error; well-formed trades that cannot
// happen come back with IsValid false and the reasons in Problems.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (Evaluation, error) {
	if req.LeagueID == "" {
		return Evaluation{}, apperr.Validationf("league id is required")
	}
	if req.ProposingTeamID == 0 || req.ReceivingTeamID == 0 {
		return Evaluation{}, apperr.Validationf("both teams are required")
	}
	if req.ProposingTeamID == req.ReceivingTeamID {
		return Evaluation{}, apperr.Validationf("a team cannot trade with itself")
	}

	state, err := e.store.LeagueState(ctx, req.LeagueID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Evaluation{}, apperr.Wrap(apperr.KindValidation, "unknown league", err)
		}
		return Evaluation{}, fmt.Errorf("loading league state: %w", err)
	}
	for _, id := range []int{req.ProposingTeamID, req.ReceivingTeamID} {
		if _, ok := state.Team(id); !ok {
			return Evaluation{}, apperr.Validationf("team %d is not in league %s", id, req.LeagueID)
		}
	}

	return e.evaluate(state, req), nil
}

func (e *Evaluator) evaluate(state repository.LeagueState, req Request) Evaluation {
	var ev Evaluation
	ev.Problems = problems(state, req)
	if len(ev.Problems) > 0 {
		ev.Summary = "Trade is not valid: " + strings.Join(ev.Problems, "; ")
		return ev
	}
	ev.IsValid = true

	board := e.valuer.Board(state)
	for _, id := range req.Give {
		bd := board.Value(id)
		ev.GiveValue += bd.Value
		ev.Players = append(ev.Players, PlayerValue{Player: state.Players[id], TeamID: req.ProposingTeamID, Breakdown: bd})
	}
	for _, id := range req.Receive {
		bd := board.Value(id)
		ev.ReceiveValue += bd.Value
		ev.Players = append(ev.Players, PlayerValue{Player: state.Players[id], TeamID: req.ReceivingTeamID, Breakdown: bd})
	}
	ev.FairnessScore, ev.ValueDifference = Fairness(ev.GiveValue, ev.ReceiveValue)
	ev.GiveValue = valuation.Round2(ev.GiveValue)
	ev.ReceiveValue = valuation.Round2(ev.ReceiveValue)

	proposer, _ := state.Team(req.ProposingTeamID)
	receiver, _ := state.Team(req.ReceivingTeamID)
	ev.Summary = e.summary(ev, proposer, receiver)
	ev.Recommendations = e.recommendations(state, req, ev, proposer, receiver)
	return ev
}

// problems lists the reasons a well-formed request cannot be executed. Only
// players on a team's active roster, outside injured reserve, can be traded.
func problems(state repository.LeagueState, req Request) []string {
	var out []string
	if len(req.Give) == 0 {
		out = append(out, "proposing team gives no players")
	}
	if len(req.Receive) == 0 {
		out = append(out, "proposing team receives no players")
	}

	owners := state.Rostered()
	reserve := make(map[int64]bool)
	for _, r := range state.Rosters {
		if r.Current && r.Slot == models.SlotIR {
			reserve[r.PlayerID] = true
		}
	}
	seen := make(map[int64]bool)
	check := func(ids []int64, teamID int) {
		for _, id := range ids {
			if seen[id] {
				out = append(out, fmt.Sprintf("player %d appears more than once", id))
				continue
			}
			seen[id] = true
			if _, ok := state.Players[id]; !ok {
				out = append(out, fmt.Sprintf("player %d is unknown", id))
				continue
			}
			if owner, ok := owners[id]; !ok || owner != teamID {
				out = append(out, fmt.Sprintf("%s is not on team %d", state.Players[id].FullName, teamID))
				continue
			}
			if reserve[id] {
				out = append(out, fmt.Sprintf("%s is on injured reserve", state.Players[id].FullName))
			}
		}
	}
	check(req.Give, req.ProposingTeamID)
	check(req.Receive, req.ReceivingTeamID)
	return out
}

func (e *Evaluator) summary(ev Evaluation, proposer, receiver models.Team) string {
	switch {
	case ev.FairnessScore >= e.policy.EvenAtLeast:
		return fmt.Sprintf("Balanced trade (fairness %.1f).", ev.FairnessScore)
	case ev.ValueDifference > 0:
		return fmt.Sprintf("Favors %s by %.1f points of value (fairness %.1f).", proposer.Name, ev.ValueDifference, ev.FairnessScore)
	default:
		return fmt.Sprintf("Favors %s by %.1f points of value (fairness %.1f).", receiver.Name, -ev.ValueDifference, ev.FairnessScore)
	}
}

func (e *Evaluator) recommendations(state repository.LeagueState, req Request, ev Evaluation, proposer, receiver models.Team) []string {
	var out []string

	loser := proposer
	if ev.ValueDifference > 0 {
		loser = receiver
	}
	switch {
	case ev.FairnessScore < e.policy.LopsidedBelow:
		out = append(out, fmt.Sprintf("Lopsided: %s should ask for more before accepting.", loser.Name))
	case ev.FairnessScore < e.policy.FavorsBelow:
		out = append(out, fmt.Sprintf("%s gives up more value; consider adding a depth piece to balance it.", loser.Name))
	case ev.FairnessScore >= e.policy.EvenAtLeast:
		out = append(out, "Values are close; decide on roster fit.")
	}

	if len(req.Give) != len(req.Receive) {
		out = append(out, fmt.Sprintf("%s sends %d player(s) and receives %d; check roster space.",
			proposer.Name, len(req.Give), len(req.Receive)))
	}

	// Positions the proposer would be left without.
	remaining := make(map[models.Position]int)
	for _, r := range state.TeamRoster(req.ProposingTeamID) {
		remaining[state.Players[r.PlayerID].Position]++
	}
	for _, id := range req.Give {
		remaining[state.Players[id].Position]--
	}
	for _, id := range req.Receive {
		remaining[state.Players[id].Position]++
	}
	var emptied []string
	for _, id := range req.Give {
		pos := state.Players[id].Position
		if remaining[pos] <= 0 && !slices.Contains(emptied, string(pos)) {
			emptied = append(emptied, string(pos))
		}
	}
	slices.Sort(emptied)
	for _, pos := range emptied {
		out = append(out, fmt.Sprintf("%s would have no %s left on the roster.", proposer.Name, pos))
	}

	received := slices.Clone(req.Receive)
	slices.SortFunc(received, cmp.Compare[int64])
	for _, id := range received {
		p := state.Players[id]
		if p.IsInjuryRisk() {
			out = append(out, fmt.Sprintf("%s is listed %s.", p.FullName, p.InjuryStatus))
		}
		if p.ByeWeek != 0 && p.ByeWeek == state.League.CurrentPeriod {
			out = append(out, fmt.Sprintf("%s is on bye this week.", p.FullName))
		}
	}
	return out
}

// Propose evaluates req and stores it as a pending proposal.
func (e *Evaluator) Propose(ctx context.Context, req Request) (models.TradeProposal, Evaluation, error) {
	ev, err := e.Evaluate(ctx, req)
	if err != nil {
		return models.TradeProposal{}, Evaluation{}, err
	}
	if !ev.IsValid {
		return models.TradeProposal{}, ev, apperr.Validationf("trade is not valid: %s", strings.Join(ev.Problems, "; "))
	}

	now := e.clock.Now().UTC()
	p := models.TradeProposal{
		ID:              uuid.NewString(),
		LeagueID:        req.LeagueID,
		ProposingTeamID: req.ProposingTeamID,
		ReceivingTeamID: req.ReceivingTeamID,
		Give:            slices.Clone(req.Give),
		Receive:         slices.Clone(req.Receive),
		FairnessScore:   ev.FairnessScore,
		ValueDifference: ev.ValueDifference,
		Status:          models.TradePending,
		CreatedAt:       now,
		ExpiresAt:       now.Add(models.TradeProposalTTL),
	}
	if err := e.store.SaveTradeProposal(ctx, p); err != nil {
		return models.TradeProposal{}, Evaluation{}, fmt.Errorf("saving trade proposal: %w", err)
	}
	e.logger.Info("trade proposed",
		"league_id", p.LeagueID,
		"trade_id", p.ID,
		"fairness", p.FairnessScore,
	)
	return p, ev, nil
}

// UpdateStatus moves a pending proposal to status. Expired proposals and
// proposals already decided cannot change.
func (e *Evaluator) UpdateStatus(ctx context.Context, id string, status models.TradeStatus) (models.TradeProposal, error) {
	switch status {
	case models.TradeAccepted, models.TradeRejected, models.TradeCancelled:
	default:
		return models.TradeProposal{}, apperr.Validationf("cannot set trade status to %q", status)
	}

	p, err := e.store.GetTradeProposal(ctx, id)
	if err != nil {
		return models.TradeProposal{}, err
	}
	if current := p.EffectiveStatus(e.clock.Now()); current != models.TradePending {
		return models.TradeProposal{}, apperr.Validationf("trade proposal %s is %s", id, current)
	}
	if err := e.store.UpdateTradeStatus(ctx, id, models.TradePending, status); err != nil {
		return models.TradeProposal{}, err
	}
	p.Status = status
	return p, nil
}

// List returns the league's proposals newest first with expiry applied.
func (e *Evaluator) List(ctx context.Context, leagueID string) ([]models.TradeProposal, error) {
	proposals, err := e.store.ListTradeProposals(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	now := e.clock.Now()
	for i := range proposals {
		proposals[i].Status = proposals[i].EffectiveStatus(now)
	}
	return proposals, nil
}
