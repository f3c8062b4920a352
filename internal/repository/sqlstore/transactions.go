package sqlstore

import (
	"context"
	"fmt"

	"github.com/omarshaarawi/leaguedesk/internal/apperr"
	"github.com/omarshaarawi/leaguedesk/internal/models"
	"github.com/omarshaarawi/leaguedesk/internal/repository"
)

const transactionColumns = `id, league_id, team_id, player_id, type, bid_amount, status, period, occurred_at`

func scanTransaction(row rowScanner) (models.WaiverTransaction, error) {
	var (
		t          models.WaiverTransaction
		kind       string
		status     string
		occurredAt int64
	)
	err := row.Scan(&t.ID, &t.LeagueID, &t.TeamID, &t.PlayerID, &kind, &t.BidAmount, &status, &t.Period, &occurredAt)
	if err != nil {
		return models.WaiverTransaction{}, err
	}
	t.Type = models.TransactionType(kind)
	t.Status = models.TransactionStatus(status)
	t.OccurredAt = fromMillis(occurredAt)
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, leagueID string, f repository.TransactionFilter) ([]models.WaiverTransaction, error) {
	if _, err := s.GetLeague(ctx, leagueID); err != nil {
		return nil, err
	}
	return s.listTransactions(ctx, s.db, leagueID, f)
}

func (s *Store) listTransactions(ctx context.Context, q querier, leagueID string, f repository.TransactionFilter) ([]models.WaiverTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM waiver_transactions WHERE league_id = ?`
	args := []any{leagueID}
	if f.TeamID != 0 {
		query += ` AND team_id = ?`
		args = append(args, f.TeamID)
	}
	query += ` ORDER BY occurred_at DESC, id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.query(ctx, q, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []models.WaiverTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) UpsertTransaction(ctx context.Context, t models.WaiverTransaction) error {
	if t.BidAmount.IsNegative() {
		return apperr.Validationf("bid amount must not be negative")
	}
	if _, err := s.GetLeague(ctx, t.LeagueID); err != nil {
		return err
	}
	if err := s.upsertTransaction(ctx, s.db, t); err != nil {
		return fmt.Errorf("upsert transaction %s: %w", t.ID, err)
	}
	return nil
}

func (s *Store) upsertTransaction(ctx context.Context, q querier, t models.WaiverTransaction) error {
	return s.exec(ctx, q, `
INSERT INTO waiver_transactions (`+transactionColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	team_id = excluded.team_id,
	player_id = excluded.player_id,
	type = excluded.type,
	bid_amount = excluded.bid_amount,
	status = excluded.status,
	period = excluded.period,
	occurred_at = excluded.occurred_at`,
		t.ID, t.LeagueID, t.TeamID, t.PlayerID, string(t.Type), t.BidAmount.String(),
		string(t.Status), t.Period, toMillis(t.OccurredAt),
	)
}

const tradeColumns = `id, league_id, proposing_team_id, receiving_team_id, give, receive,
	fairness_score, value_difference, status, created_at, expires_at`

func scanTrade(row rowScanner) (models.TradeProposal, error) {
	var (
		p         models.TradeProposal
		give      string
		receive   string
		status    string
		createdAt int64
		expiresAt int64
	)
	err := row.Scan(&p.ID, &p.LeagueID, &p.ProposingTeamID, &p.ReceivingTeamID, &give, &receive,
		&p.FairnessScore, &p.ValueDifference, &status, &createdAt, &expiresAt)
	if err != nil {
		return models.TradeProposal{}, err
	}
	if err := json.Unmarshal([]byte(give), &p.Give); err != nil {
		return models.TradeProposal{}, fmt.Errorf("decode give for trade %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(receive), &p.Receive); err != nil {
		return models.TradeProposal{}, fmt.Errorf("decode receive for trade %s: %w", p.ID, err)
	}
	p.Status = models.TradeStatus(status)
	p.CreatedAt = fromMillis(createdAt)
	p.ExpiresAt = fromMillis(expiresAt)
	return p, nil
}

func (s *Store) SaveTradeProposal(ctx context.Context, p models.TradeProposal) error {
	if _, err := s.GetLeague(ctx, p.LeagueID); err != nil {
		return err
	}
	give, err := json.Marshal(p.Give)
	if err != nil {
		return fmt.Errorf("encode give: %w", err)
	}
	receive, err := json.Marshal(p.Receive)
	if err != nil {
		return fmt.Errorf("encode receive: %w", err)
	}
	err = s.exec(ctx, s.db, `
INSERT INTO trade_proposals (`+tradeColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	give = excluded.give,
	receive = excluded.receive,
	fairness_score = excluded.fairness_score,
	value_difference = excluded.value_difference,
	status = excluded.status,
	expires_at = excluded.expires_at`,
		p.ID, p.LeagueID, p.ProposingTeamID, p.ReceivingTeamID, string(give), string(receive),
		p.FairnessScore, p.ValueDifference, string(p.Status), toMillis(p.CreatedAt), toMillis(p.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("save trade proposal %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) GetTradeProposal(ctx context.Context, id string) (models.TradeProposal, error) {
	p, err := scanTrade(s.queryRow(ctx, s.db, `SELECT `+tradeColumns+` FROM trade_proposals WHERE id = ?`, id))
	if err != nil {
		return models.TradeProposal{}, notFound(err, "trade proposal %s not found", id)
	}
	return p, nil
}

func (s *Store) ListTradeProposals(ctx context.Context, leagueID string) ([]models.TradeProposal, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT `+tradeColumns+` FROM trade_proposals WHERE league_id = ? ORDER BY created_at DESC, id`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list trade proposals: %w", err)
	}
	defer rows.Close()

	var out []models.TradeProposal
	for rows.Next() {
		p, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) UpdateTradeStatus(ctx context.Context, id string, from, to models.TradeStatus) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE trade_proposals SET status = ? WHERE id = ? AND status = ?`),
		string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("update trade status %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update trade status %s: %w", id, err)
	}
	if n == 1 {
		return nil
	}
	current, err := s.GetTradeProposal(ctx, id)
	if err != nil {
		return err
	}
	return apperr.Validationf("trade proposal %s is %s, not %s", id, current.Status, from)
}
