package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/omarshaarawi/leaguedesk/internal/apperr"
	"github.com/omarshaarawi/leaguedesk/internal/models"
	"github.com/omarshaarawi/leaguedesk/internal/suggest"
	"github.com/omarshaarawi/leaguedesk/internal/trade"
	"github.com/omarshaarawi/leaguedesk/internal/waiver"
)

type BudgetsResult struct {
	Budgets   []waiver.Budget
	Freshness Freshness
}

// GetWaiverBudgets returns acquisition budgets for the league, or for one
// team when teamID is not zero.
func (s *FantasyService) GetWaiverBudgets(ctx context.Context, leagueID string, teamID int) (BudgetsResult, error) {
	league, err := s.store.GetLeague(ctx, leagueID)
	if err != nil {
		return BudgetsResult{}, err
	}

	var budgets []waiver.Budget
	if teamID != 0 {
		b, err := s.ledger.CurrentBudget(ctx, leagueID, teamID)
		if err != nil {
			return BudgetsResult{}, err
		}
		budgets = []waiver.Budget{b}
	} else {
		budgets, err = s.ledger.LeagueBudgets(ctx, leagueID)
		if err != nil {
			return BudgetsResult{}, err
		}
	}

	for _, b := range budgets {
		if err := waiver.Check(b); err != nil {
			s.logger.Warn("waiver budget check failed",
				"league_id", leagueID,
				"team_id", b.TeamID,
				"spent", b.Spent.String(),
				"total", b.Total.String(),
				"error", err,
			)
		}
	}
	return BudgetsResult{Budgets: budgets, Freshness: s.freshness(league)}, nil
}

type EvaluationResult struct {
	trade.Evaluation
	Freshness Freshness
}

func (s *FantasyService) EvaluateTrade(ctx context.Context, req trade.Request) (EvaluationResult, error) {
	ev, err := s.evaluator.Evaluate(ctx, req)
	if err != nil {
		return EvaluationResult{}, err
	}
	league, err := s.store.GetLeague(ctx, req.LeagueID)
	if err != nil {
		return EvaluationResult{}, err
	}
	return EvaluationResult{Evaluation: ev, Freshness: s.freshness(league)}, nil
}

func (s *FantasyService) ProposeTrade(ctx context.Context, req trade.Request) (models.TradeProposal, trade.Evaluation, error) {
	return s.evaluator.Propose(ctx, req)
}

// UpdateTradeStatus records a decision on a pending proposal. status is one
// of accepted, rejected or cancelled.
func (s *FantasyService) UpdateTradeStatus(ctx context.Context, tradeID, status string) (models.TradeProposal, error) {
	st, err := models.ParseTradeStatus(strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return models.TradeProposal{}, apperr.Wrap(apperr.KindValidation, "invalid trade status", err)
	}
	p, err := s.evaluator.UpdateStatus(ctx, tradeID, st)
	if err != nil {
		return models.TradeProposal{}, err
	}
	s.logger.Info("trade status updated", "trade_id", tradeID, "status", st)
	return p, nil
}

func (s *FantasyService) ListTradeProposals(ctx context.Context, leagueID string) ([]models.TradeProposal, error) {
	if _, err := s.store.GetLeague(ctx, leagueID); err != nil {
		return nil, err
	}
	return s.evaluator.List(ctx, leagueID)
}

type SuggestionsResult struct {
	Team        models.Team
	Period      int
	Suggestions []suggest.Suggestion
	Freshness   Freshness
}

func (s *FantasyService) GetSuggestions(ctx context.Context, leagueID string, teamID int) (SuggestionsResult, error) {
	state, err := s.store.LeagueState(ctx, leagueID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return SuggestionsResult{}, apperr.Wrap(apperr.KindValidation, "unknown league", err)
		}
		return SuggestionsResult{}, fmt.Errorf("loading league state: %w", err)
	}
	team, lc, ok := suggest.ForTeam(state, teamID, s.valuer)
	if !ok {
		return SuggestionsResult{}, apperr.Validationf("team %d is not in league %s", teamID, leagueID)
	}
	return SuggestionsResult{
		Team:        team.Team,
		Period:      lc.Period,
		Suggestions: s.suggester.Suggest(team, lc),
		Freshness:   s.freshness(state.League),
	}, nil
}

// RecordTransaction stores a locally entered waiver transaction and returns
// the team's updated budget. Transactions that upstream later reports with
// the same id replace it.
func (s *FantasyService) RecordTransaction(ctx context.Context, tx models.WaiverTransaction) (waiver.Budget, error) {
	switch tx.Type {
	case models.TransactionAdd, models.TransactionDrop, models.TransactionTrade:
	default:
		return waiver.Budget{}, apperr.Validationf("unknown transaction type %q", tx.Type)
	}
	switch tx.Status {
	case models.TransactionPending, models.TransactionSuccessful, models.TransactionFailed:
	case "":
		tx.Status = models.TransactionPending
	default:
		return waiver.Budget{}, apperr.Validationf("unknown transaction status %q", tx.Status)
	}
	if tx.BidAmount.IsNegative() {
		return waiver.Budget{}, apperr.Validationf("bid amount must not be negative")
	}
	if tx.PlayerID == 0 {
		return waiver.Budget{}, apperr.Validationf("player id is required")
	}

	league, err := s.store.GetLeague(ctx, tx.LeagueID)
	if err != nil {
		return waiver.Budget{}, err
	}
	if _, err := s.store.GetTeam(ctx, tx.LeagueID, tx.TeamID); err != nil {
		return waiver.Budget{}, err
	}

	if tx.ID == "" {
		tx.ID = "local:" + uuid.NewString()
	}
	if tx.Period == 0 {
		tx.Period = league.CurrentPeriod
	}
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = s.clock.Now().UTC()
	}
	if err := s.store.UpsertTransaction(ctx, tx); err != nil {
		return waiver.Budget{}, fmt.Errorf("saving transaction: %w", err)
	}
	s.logger.Info("transaction recorded",
		"league_id", tx.LeagueID,
		"team_id", tx.TeamID,
		"transaction_id", tx.ID,
		"type", tx.Type,
		"bid", tx.BidAmount.String(),
	)
	return s.ledger.CurrentBudget(ctx, tx.LeagueID, tx.TeamID)
}

// ClaimTeam marks userID as the owner of a team. An empty userID releases
// the claim.
func (s *FantasyService) ClaimTeam(ctx context.Context, leagueID string, teamID int, userID string) (models.Team, error) {
	if err := s.store.ClaimTeam(ctx, leagueID, teamID, strings.TrimSpace(userID)); err != nil {
		return models.Team{}, err
	}
	return s.store.GetTeam(ctx, leagueID, teamID)
}
