package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/omarshaarawi/leaguedesk/internal/apperr"
	"github.com/omarshaarawi/leaguedesk/internal/models"
)

const leagueColumns = `id, external_id, season_year, name, team_count, scoring_type, current_period,
	current_matchup_period, final_period, visibility, waiver_budget, owner_user_id, last_synced_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLeague(row rowScanner) (models.League, error) {
	var (
		l        models.League
		scoring  string
		visible  string
		syncedAt int64
	)
	err := row.Scan(&l.ID, &l.ExternalID, &l.SeasonYear, &l.Name, &l.TeamCount, &scoring,
		&l.CurrentPeriod, &l.CurrentMatchupPeriod, &l.FinalPeriod, &visible, &l.WaiverBudget, &l.OwnerUserID, &syncedAt)
	if err != nil {
		return models.League{}, err
	}
	l.ScoringType = models.ScoringType(scoring)
	l.Visibility = models.Visibility(visible)
	l.LastSyncedAt = fromMillis(syncedAt)
	return l, nil
}

func (s *Store) UpsertLeague(ctx context.Context, league models.League) error {
	if league.ID == "" {
		return apperr.Validationf("league id is required")
	}
	return s.upsertLeague(ctx, s.db, league)
}

func (s *Store) upsertLeague(ctx context.Context, q querier, l models.League) error {
	err := s.exec(ctx, q, `
INSERT INTO leagues (`+leagueColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	external_id = excluded.external_id,
	season_year = excluded.season_year,
	name = excluded.name,
	team_count = excluded.team_count,
	scoring_type = excluded.scoring_type,
	current_period = excluded.current_period,
	current_matchup_period = excluded.current_matchup_period,
	final_period = excluded.final_period,
	visibility = excluded.visibility,
	waiver_budget = excluded.waiver_budget,
	owner_user_id = excluded.owner_user_id,
	last_synced_at = excluded.last_synced_at`,
		l.ID, l.ExternalID, l.SeasonYear, l.Name, l.TeamCount, string(l.ScoringType),
		l.CurrentPeriod, l.CurrentMatchupPeriod, l.FinalPeriod, string(l.Visibility), l.WaiverBudget.String(),
		l.OwnerUserID, toMillis(l.LastSyncedAt),
	)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			return apperr.Validationf("league %s season %d is already connected", l.ExternalID, l.SeasonYear)
		}
		return fmt.Errorf("upsert league %s: %w", l.ID, err)
	}
	return nil
}

func (s *Store) GetLeague(ctx context.Context, id string) (models.League, error) {
	return s.getLeague(ctx, s.db, id)
}

func (s *Store) getLeague(ctx context.Context, q querier, id string) (models.League, error) {
	l, err := scanLeague(s.queryRow(ctx, q, `SELECT `+leagueColumns+` FROM leagues WHERE id = ?`, id))
	if err != nil {
		return models.League{}, notFound(err, "league %s not found", id)
	}
	return l, nil
}

func (s *Store) GetLeagueByExternalID(ctx context.Context, externalID string, season int) (models.League, error) {
	l, err := scanLeague(s.queryRow(ctx, s.db,
		`SELECT `+leagueColumns+` FROM leagues WHERE external_id = ? AND season_year = ?`, externalID, season))
	if err != nil {
		return models.League{}, notFound(err, "league %s season %d not found", externalID, season)
	}
	return l, nil
}

func (s *Store) ListLeagues(ctx context.Context) ([]models.League, error) {
	rows, err := s.query(ctx, s.db, `SELECT `+leagueColumns+` FROM leagues ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	defer rows.Close()

	var out []models.League
	for rows.Next() {
		l, err := scanLeague(rows)
		if err != nil {
			return nil, fmt.Errorf("scan league: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

const teamColumns = `league_id, external_id, name, abbreviation, wins, losses, ties,
	points_for, points_against, playoff_seed, owner_user_id`

func scanTeam(row rowScanner) (models.Team, error) {
	var (
		t     models.Team
		owner sql.NullString
	)
	err := row.Scan(&t.LeagueID, &t.ExternalID, &t.Name, &t.Abbreviation, &t.Wins, &t.Losses,
		&t.Ties, &t.PointsFor, &t.PointsAgainst, &t.PlayoffSeed, &owner)
	if err != nil {
		return models.Team{}, err
	}
	t.OwnerUserID = owner.String
	return t, nil
}

func (s *Store) ListTeams(ctx context.Context, leagueID string) ([]models.Team, error) {
	if _, err := s.GetLeague(ctx, leagueID); err != nil {
		return nil, err
	}
	return s.listTeams(ctx, s.db, leagueID)
}

func (s *Store) listTeams(ctx context.Context, q querier, leagueID string) ([]models.Team, error) {
	rows, err := s.query(ctx, q, `SELECT `+teamColumns+` FROM teams WHERE league_id = ? ORDER BY external_id`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var out []models.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTeam(ctx context.Context, leagueID string, teamID int) (models.Team, error) {
	if _, err := s.GetLeague(ctx, leagueID); err != nil {
		return models.Team{}, err
	}
	t, err := scanTeam(s.queryRow(ctx, s.db,
		`SELECT `+teamColumns+` FROM teams WHERE league_id = ? AND external_id = ?`, leagueID, teamID))
	if err != nil {
		return models.Team{}, notFound(err, "team %d not found in league %s", teamID, leagueID)
	}
	return t, nil
}

// upsertTeam leaves owner_user_id untouched on conflict.
func (s *Store) upsertTeam(ctx context.Context, q querier, t models.Team) error {
	return s.exec(ctx, q, `
INSERT INTO teams (league_id, external_id, name, abbreviation, wins, losses, ties,
	points_for, points_against, playoff_seed)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (league_id, external_id) DO UPDATE SET
	name = excluded.name,
	abbreviation = excluded.abbreviation,
	wins = excluded.wins,
	losses = excluded.losses,
	ties = excluded.ties,
	points_for = excluded.points_for,
	points_against = excluded.points_against,
	playoff_seed = excluded.playoff_seed`,
		t.LeagueID, t.ExternalID, t.Name, t.Abbreviation, t.Wins, t.Losses, t.Ties,
		t.PointsFor, t.PointsAgainst, t.PlayoffSeed,
	)
}

func (s *Store) ClaimTeam(ctx context.Context, leagueID string, teamID int, userID string) error {
	if _, err := s.GetTeam(ctx, leagueID, teamID); err != nil {
		return err
	}
	var owner any
	if userID != "" {
		owner = userID
	}
	err := s.exec(ctx, s.db, `UPDATE teams SET owner_user_id = ? WHERE league_id = ? AND external_id = ?`,
		owner, leagueID, teamID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			return apperr.Validationf("user %s already owns a team in league %s", userID, leagueID)
		}
		return fmt.Errorf("claim team %d: %w", teamID, err)
	}
	return nil
}
