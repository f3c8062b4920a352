package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/omarshaarawi/leaguedesk/internal/models"
	"github.com/omarshaarawi/leaguedesk/internal/repository"
)

const playerColumns = `id, full_name, position, position_code, pro_team_id, pro_team, bye_week,
	active, injury_status, eligible_slots, percent_owned, stats`

// maxInArgs bounds the size of an IN clause.
const maxInArgs = 500

func scanPlayer(row rowScanner) (models.Player, error) {
	var (
		p        models.Player
		position string
		active   int
		slots    string
		stats    string
	)
	err := row.Scan(&p.ID, &p.FullName, &position, &p.PositionCode, &p.ProTeamID, &p.ProTeam,
		&p.ByeWeek, &active, &p.InjuryStatus, &slots, &p.PercentOwned, &stats)
	if err != nil {
		return models.Player{}, err
	}
	p.Position = models.Position(position)
	p.Active = active != 0
	if err := json.Unmarshal([]byte(slots), &p.EligibleSlots); err != nil {
		return models.Player{}, fmt.Errorf("decode eligible slots for player %d: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(stats), &p.Stats); err != nil {
		return models.Player{}, fmt.Errorf("decode stats for player %d: %w", p.ID, err)
	}
	return p, nil
}

func (s *Store) upsertPlayer(ctx context.Context, q querier, p models.Player) error {
	slots, err := json.Marshal(p.EligibleSlots)
	if err != nil {
		return fmt.Errorf("encode eligible slots: %w", err)
	}
	stats, err := json.Marshal(p.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	return s.exec(ctx, q, `
INSERT INTO players (`+playerColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	full_name = excluded.full_name,
	position = excluded.position,
	position_code = excluded.position_code,
	pro_team_id = excluded.pro_team_id,
	pro_team = excluded.pro_team,
	bye_week = excluded.bye_week,
	active = excluded.active,
	injury_status = excluded.injury_status,
	eligible_slots = excluded.eligible_slots,
	percent_owned = excluded.percent_owned,
	stats = excluded.stats`,
		p.ID, p.FullName, string(p.Position), p.PositionCode, p.ProTeamID, p.ProTeam, p.ByeWeek,
		boolToInt(p.Active), p.InjuryStatus, string(slots), p.PercentOwned, string(stats),
	)
}

func (s *Store) GetPlayers(ctx context.Context, ids []int64) (map[int64]models.Player, error) {
	out := make(map[int64]models.Player, len(ids))
	for start := 0; start < len(ids); start += maxInArgs {
		end := min(start+maxInArgs, len(ids))
		chunk := ids[start:end]

		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(chunk)), ", ")
		rows, err := s.query(ctx, s.db, `SELECT `+playerColumns+` FROM players WHERE id IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("get players: %w", err)
		}
		for rows.Next() {
			p, err := scanPlayer(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			out[p.ID] = p
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) ListPlayers(ctx context.Context) ([]models.Player, error) {
	return s.listPlayers(ctx, s.db)
}

func (s *Store) listPlayers(ctx context.Context, q querier) ([]models.Player, error) {
	rows, err := s.query(ctx, q, `SELECT `+playerColumns+` FROM players ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var out []models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const rosterColumns = `league_id, team_id, player_id, period, slot, slot_code, is_current`

func scanRosterEntry(row rowScanner) (models.RosterEntry, error) {
	var (
		e       models.RosterEntry
		slot    string
		current int
	)
	if err := row.Scan(&e.LeagueID, &e.TeamID, &e.PlayerID, &e.Period, &slot, &e.SlotCode, &current); err != nil {
		return models.RosterEntry{}, err
	}
	e.Slot = models.LineupSlot(slot)
	e.Current = current != 0
	return e, nil
}

func (s *Store) ListRoster(ctx context.Context, leagueID string, f repository.RosterFilter) ([]models.RosterEntry, error) {
	league, err := s.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	return s.listRoster(ctx, s.db, league, f)
}

func (s *Store) listRoster(ctx context.Context, q querier, league models.League, f repository.RosterFilter) ([]models.RosterEntry, error) {
	period := f.Period
	if period == 0 {
		period = league.CurrentPeriod
	}
	query := `SELECT ` + rosterColumns + ` FROM roster_entries WHERE league_id = ? AND period = ?`
	args := []any{league.ID, period}
	if f.TeamID != 0 {
		query += ` AND team_id = ?`
		args = append(args, f.TeamID)
	}
	if f.CurrentOnly {
		query += ` AND is_current = 1`
	}
	query += ` ORDER BY team_id, player_id`

	rows, err := s.query(ctx, q, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	defer rows.Close()

	var out []models.RosterEntry
	for rows.Next() {
		e, err := scanRosterEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) upsertRosterEntry(ctx context.Context, q querier, e models.RosterEntry) error {
	return s.exec(ctx, q, `
INSERT INTO roster_entries (`+rosterColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (league_id, team_id, player_id, period) DO UPDATE SET
	slot = excluded.slot,
	slot_code = excluded.slot_code,
	is_current = excluded.is_current`,
		e.LeagueID, e.TeamID, e.PlayerID, e.Period, string(e.Slot), e.SlotCode, boolToInt(e.Current),
	)
}

const matchupColumns = `league_id, period, external_id, home_team_id, away_team_id, home_score,
	away_score, home_projected, away_projected, winner, is_playoff`

func scanMatchup(row rowScanner) (models.Matchup, error) {
	var (
		m       models.Matchup
		winner  string
		playoff int
	)
	err := row.Scan(&m.LeagueID, &m.Period, &m.ExternalID, &m.HomeTeamID, &m.AwayTeamID, &m.HomeScore,
		&m.AwayScore, &m.HomeProjected, &m.AwayProjected, &winner, &playoff)
	if err != nil {
		return models.Matchup{}, err
	}
	m.Winner = models.Winner(winner)
	m.IsPlayoff = playoff != 0
	return m, nil
}

func (s *Store) ListMatchups(ctx context.Context, leagueID string, period int) ([]models.Matchup, error) {
	if _, err := s.GetLeague(ctx, leagueID); err != nil {
		return nil, err
	}
	return s.listMatchups(ctx, s.db, leagueID, period)
}

func (s *Store) listMatchups(ctx context.Context, q querier, leagueID string, period int) ([]models.Matchup, error) {
	rows, err := s.query(ctx, q,
		`SELECT `+matchupColumns+` FROM matchups WHERE league_id = ? AND period = ? ORDER BY external_id`,
		leagueID, period)
	if err != nil {
		return nil, fmt.Errorf("list matchups: %w", err)
	}
	defer rows.Close()

	var out []models.Matchup
	for rows.Next() {
		m, err := scanMatchup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan matchup: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) upsertMatchup(ctx context.Context, q querier, m models.Matchup) error {
	return s.exec(ctx, q, `
INSERT INTO matchups (`+matchupColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (league_id, period, external_id) DO UPDATE SET
	home_team_id = excluded.home_team_id,
	away_team_id = excluded.away_team_id,
	home_score = excluded.home_score,
	away_score = excluded.away_score,
	home_projected = excluded.home_projected,
	away_projected = excluded.away_projected,
	winner = excluded.winner,
	is_playoff = excluded.is_playoff`,
		m.LeagueID, m.Period, m.ExternalID, m.HomeTeamID, m.AwayTeamID, m.HomeScore,
		m.AwayScore, m.HomeProjected, m.AwayProjected, string(m.Winner), boolToInt(m.IsPlayoff),
	)
}
