package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time; concurrent stat writes would
	// otherwise fail spuriously with "database is locked".
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS teams (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			abbreviation TEXT NOT NULL,
			category TEXT NOT NULL,
			is_opponent_only INTEGER DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS players (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ign TEXT NOT NULL,
			role TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS player_team_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player_id INTEGER NOT NULL REFERENCES players(id),
			team_id INTEGER NOT NULL REFERENCES teams(id),
			joined_date TIMESTAMP NOT NULL,
			left_date TIMESTAMP,
			is_starter INTEGER DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_team ON player_team_history(team_id, left_date)`,
		`CREATE TABLE IF NOT EXISTS heroes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			role TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS scrim_groups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			start_date TIMESTAMP NOT NULL,
			notes TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id TEXT PRIMARY KEY,
			scrim_group_id INTEGER REFERENCES scrim_groups(id),
			game_number INTEGER NOT NULL,
			match_date TIMESTAMP NOT NULL,
			duration_sec INTEGER,
			scrim_type TEXT NOT NULL,
			is_external INTEGER DEFAULT 0,
			our_team_id INTEGER REFERENCES teams(id),
			our_side TEXT,
			blue_team_id INTEGER NOT NULL REFERENCES teams(id),
			red_team_id INTEGER NOT NULL REFERENCES teams(id),
			winning_team_id INTEGER NOT NULL REFERENCES teams(id),
			mvp_player_id INTEGER REFERENCES players(id),
			mvp_loss_player_id INTEGER REFERENCES players(id),
			track_draft INTEGER DEFAULT 0,
			draft_notes TEXT,
			banned_heroes TEXT,
			general_notes TEXT,
			score_details TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS player_match_stats (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id TEXT NOT NULL REFERENCES matches(id),
			player_id INTEGER NOT NULL REFERENCES players(id),
			team_id INTEGER NOT NULL REFERENCES teams(id),
			side TEXT NOT NULL,
			role_played TEXT,
			hero_id INTEGER NOT NULL REFERENCES heroes(id),
			kills INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			assists INTEGER NOT NULL,
			computed_kda REAL NOT NULL,
			damage_dealt INTEGER,
			damage_taken INTEGER,
			turret_damage INTEGER,
			gold_earned INTEGER,
			pick_order INTEGER,
			medal TEXT,
			notes TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stats_match ON player_match_stats(match_id)`,
		`CREATE TABLE IF NOT EXISTS match_awards (
			match_id TEXT NOT NULL REFERENCES matches(id),
			player_id INTEGER NOT NULL REFERENCES players(id),
			award_type TEXT NOT NULL,
			stat_value REAL NOT NULL,
			PRIMARY KEY (match_id, award_type)
		)`,
		`CREATE TABLE IF NOT EXISTS match_files (
			id TEXT PRIMARY KEY,
			match_id TEXT NOT NULL REFERENCES matches(id),
			file_url TEXT NOT NULL,
			file_type TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateTeam inserts a team and fills its id.
func (s *SQLiteStore) CreateTeam(ctx context.Context, team *Team) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO teams (name, abbreviation, category, is_opponent_only)
		 VALUES (?, ?, ?, ?)`,
		team.Name, team.Abbreviation, team.Category, team.IsOpponentOnly)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	team.ID = int(id)
	return nil
}

// GetTeam retrieves a team by id.
func (s *SQLiteStore) GetTeam(ctx context.Context, teamID int) (*Team, error) {
	var t Team
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, abbreviation, category, is_opponent_only, created_at
		 FROM teams WHERE id = ?`, teamID).Scan(
		&t.ID, &t.Name, &t.Abbreviation, &t.Category, &t.IsOpponentOnly, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTeams returns all teams.
func (s *SQLiteStore) ListTeams(ctx context.Context) ([]Team, error) {
	return s.queryTeams(ctx,
		`SELECT id, name, abbreviation, category, is_opponent_only, created_at
		 FROM teams ORDER BY name`)
}

// ListManagedTeams returns teams we run ourselves, excluding
// opponent-only entries.
func (s *SQLiteStore) ListManagedTeams(ctx context.Context) ([]Team, error) {
	return s.queryTeams(ctx,
		`SELECT id, name, abbreviation, category, is_opponent_only, created_at
		 FROM teams WHERE is_opponent_only = 0 ORDER BY name`)
}

func (s *SQLiteStore) queryTeams(ctx context.Context, query string) ([]Team, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Abbreviation, &t.Category, &t.IsOpponentOnly, &t.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// AddPlayerToTeam creates a player and an open team-history row. The new
// player becomes a starter when their role has no starter yet.
func (s *SQLiteStore) AddPlayerToTeam(ctx context.Context, teamID int, ign string, role *string) (*Player, error) {
	if ign == "" {
		return nil, fmt.Errorf("in-game name is required")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO players (ign, role) VALUES (?, ?)`, ign, role)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	starter := false
	if role != nil && *role != "" {
		var n int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM player_team_history h
			 JOIN players p ON p.id = h.player_id
			 WHERE h.team_id = ? AND h.left_date IS NULL AND h.is_starter = 1 AND p.role = ?`,
			teamID, *role).Scan(&n)
		if err != nil {
			return nil, err
		}
		starter = n == 0
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO player_team_history (player_id, team_id, joined_date, is_starter)
		 VALUES (?, ?, ?, ?)`,
		id, teamID, time.Now(), starter); err != nil {
		return nil, err
	}

	return &Player{ID: int(id), IGN: ign, Role: role}, nil
}

// TeamRoster returns the team's current players, starters first then by IGN.
// Order defines positional slot mapping for the entry workflow.
func (s *SQLiteStore) TeamRoster(ctx context.Context, teamID int) ([]Player, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.ign, p.role, p.created_at
		 FROM players p
		 JOIN player_team_history h ON h.player_id = p.id
		 WHERE h.team_id = ? AND h.left_date IS NULL
		 ORDER BY h.is_starter DESC, p.ign`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		var p Player
		if err := rows.Scan(&p.ID, &p.IGN, &p.Role, &p.CreatedAt); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// ListHeroes returns the full hero catalog ordered by name.
func (s *SQLiteStore) ListHeroes(ctx context.Context) ([]Hero, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(role, '') FROM heroes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var heroes []Hero
	for rows.Next() {
		var h Hero
		if err := rows.Scan(&h.ID, &h.Name, &h.Role); err != nil {
			return nil, err
		}
		heroes = append(heroes, h)
	}
	return heroes, rows.Err()
}

// SeedHeroes inserts catalog entries, skipping names that already exist.
func (s *SQLiteStore) SeedHeroes(ctx context.Context, heroes []Hero) error {
	for _, h := range heroes {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO heroes (name, role) VALUES (?, ?)
			 ON CONFLICT(name) DO NOTHING`, h.Name, h.Role); err != nil {
			return err
		}
	}
	return nil
}

// scrimWindow is how far apart two matches can be and still belong to the
// same scrim group.
const scrimWindow = 4 * time.Hour

// GetOrCreateScrimGroup finds the scrim group of an existing match between
// the same two teams and scrim type within the window, or creates one.
func (s *SQLiteStore) GetOrCreateScrimGroup(ctx context.Context, teamA, teamB int, matchDate time.Time, scrimType string) (*ScrimGroup, error) {
	var groupID sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT scrim_group_id FROM matches
		 WHERE ((blue_team_id = ? AND red_team_id = ?) OR (blue_team_id = ? AND red_team_id = ?))
		   AND scrim_type = ?
		   AND match_date BETWEEN ? AND ?
		   AND scrim_group_id IS NOT NULL
		 ORDER BY match_date LIMIT 1`,
		teamA, teamB, teamB, teamA, scrimType,
		matchDate.Add(-scrimWindow), matchDate.Add(scrimWindow)).Scan(&groupID)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	if groupID.Valid {
		var g ScrimGroup
		err := s.db.QueryRowContext(ctx,
			`SELECT id, name, start_date, notes FROM scrim_groups WHERE id = ?`,
			groupID.Int64).Scan(&g.ID, &g.Name, &g.StartDate, &g.Notes)
		if err != nil {
			return nil, err
		}
		return &g, nil
	}

	nameA, nameB := fmt.Sprintf("team %d", teamA), fmt.Sprintf("team %d", teamB)
	if t, err := s.GetTeam(ctx, teamA); err == nil && t != nil {
		nameA = t.Name
	}
	if t, err := s.GetTeam(ctx, teamB); err == nil && t != nil {
		nameB = t.Name
	}
	name := fmt.Sprintf("%s vs %s - %s - %s", nameA, nameB, matchDate.Format("2006-01-02"), scrimType)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scrim_groups (name, start_date) VALUES (?, ?)`, name, matchDate)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &ScrimGroup{ID: int(id), Name: name, StartDate: matchDate}, nil
}

// SuggestGameNumber returns max(game_number)+1 among matches between the
// same teams and scrim type within the window, or 1.
func (s *SQLiteStore) SuggestGameNumber(ctx context.Context, teamA, teamB int, matchDate time.Time, scrimType string) (int, error) {
	var highest sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(game_number) FROM matches
		 WHERE ((blue_team_id = ? AND red_team_id = ?) OR (blue_team_id = ? AND red_team_id = ?))
		   AND scrim_type = ?
		   AND match_date BETWEEN ? AND ?`,
		teamA, teamB, teamB, teamA, scrimType,
		matchDate.Add(-scrimWindow), matchDate.Add(scrimWindow)).Scan(&highest)
	if err != nil {
		return 0, err
	}
	if !highest.Valid {
		return 1, nil
	}
	return int(highest.Int64) + 1, nil
}

// CreateMatch groups and numbers the match, then inserts it.
func (s *SQLiteStore) CreateMatch(ctx context.Context, match *Match) error {
	if match.ScrimGroupID == nil {
		group, err := s.GetOrCreateScrimGroup(ctx, match.BlueTeamID, match.RedTeamID, match.MatchDate, match.ScrimType)
		if err != nil {
			return fmt.Errorf("scrim group: %w", err)
		}
		match.ScrimGroupID = &group.ID
	}
	if match.GameNumber == 0 {
		n, err := s.SuggestGameNumber(ctx, match.BlueTeamID, match.RedTeamID, match.MatchDate, match.ScrimType)
		if err != nil {
			return fmt.Errorf("game number: %w", err)
		}
		match.GameNumber = n
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO matches (
			id, scrim_group_id, game_number, match_date, duration_sec, scrim_type,
			is_external, our_team_id, our_side, blue_team_id, red_team_id,
			winning_team_id, mvp_player_id, mvp_loss_player_id, track_draft,
			draft_notes, banned_heroes, general_notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		match.ID, match.ScrimGroupID, match.GameNumber, match.MatchDate,
		match.DurationSec, match.ScrimType, match.IsExternal, match.OurTeamID,
		match.OurSide, match.BlueTeamID, match.RedTeamID, match.WinningTeamID,
		match.MVPPlayerID, match.MVPLossID, match.TrackDraft,
		match.DraftNotes, match.BannedHeroes, match.GeneralNotes)
	return err
}

// GetMatch retrieves a match by id.
func (s *SQLiteStore) GetMatch(ctx context.Context, matchID string) (*Match, error) {
	row := s.db.QueryRowContext(ctx, matchSelect+` WHERE id = ?`, matchID)
	m, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

const matchSelect = `SELECT id, scrim_group_id, game_number, match_date, duration_sec,
	scrim_type, is_external, our_team_id, our_side, blue_team_id, red_team_id,
	winning_team_id, mvp_player_id, mvp_loss_player_id, track_draft, draft_notes,
	banned_heroes, general_notes, score_details, created_at FROM matches`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (*Match, error) {
	var m Match
	err := row.Scan(
		&m.ID, &m.ScrimGroupID, &m.GameNumber, &m.MatchDate, &m.DurationSec,
		&m.ScrimType, &m.IsExternal, &m.OurTeamID, &m.OurSide, &m.BlueTeamID,
		&m.RedTeamID, &m.WinningTeamID, &m.MVPPlayerID, &m.MVPLossID,
		&m.TrackDraft, &m.DraftNotes, &m.BannedHeroes, &m.GeneralNotes,
		&m.ScoreDetails, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMatches returns recent matches, newest first.
func (s *SQLiteStore) ListMatches(ctx context.Context, limit int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, matchSelect+` ORDER BY match_date DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

// GetMatchWithStats loads a match plus its stats, awards, and files.
func (s *SQLiteStore) GetMatchWithStats(ctx context.Context, matchID string) (*MatchWithStats, error) {
	match, err := s.GetMatch(ctx, matchID)
	if err != nil || match == nil {
		return nil, err
	}

	stats, err := s.matchStats(ctx, matchID)
	if err != nil {
		return nil, err
	}

	awards, err := s.matchAwards(ctx, matchID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, match_id, file_url, file_type FROM match_files WHERE match_id = ?`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []MatchFile
	for rows.Next() {
		var f MatchFile
		if err := rows.Scan(&f.ID, &f.MatchID, &f.FileURL, &f.FileType); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &MatchWithStats{Match: *match, Stats: stats, Awards: awards, Files: files}, nil
}

func (s *SQLiteStore) matchStats(ctx context.Context, matchID string) ([]PlayerMatchStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, match_id, player_id, team_id, side, role_played, hero_id,
			kills, deaths, assists, computed_kda, damage_dealt, damage_taken,
			turret_damage, gold_earned, pick_order, medal, notes
		 FROM player_match_stats WHERE match_id = ? ORDER BY side, pick_order, id`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []PlayerMatchStat
	for rows.Next() {
		var st PlayerMatchStat
		if err := rows.Scan(
			&st.ID, &st.MatchID, &st.PlayerID, &st.TeamID, &st.Side, &st.RolePlayed,
			&st.HeroID, &st.Kills, &st.Deaths, &st.Assists, &st.ComputedKDA,
			&st.DamageDealt, &st.DamageTaken, &st.TurretDamage, &st.GoldEarned,
			&st.PickOrder, &st.Medal, &st.Notes,
		); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *SQLiteStore) matchAwards(ctx context.Context, matchID string) ([]MatchAward, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT match_id, player_id, award_type, stat_value
		 FROM match_awards WHERE match_id = ?`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var awards []MatchAward
	for rows.Next() {
		var a MatchAward
		if err := rows.Scan(&a.MatchID, &a.PlayerID, &a.AwardType, &a.StatValue); err != nil {
			return nil, err
		}
		awards = append(awards, a)
	}
	return awards, rows.Err()
}

// CreatePlayerStat inserts one box-score row and refreshes the match's
// score details.
func (s *SQLiteStore) CreatePlayerStat(ctx context.Context, stat *PlayerMatchStat) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO player_match_stats (
			match_id, player_id, team_id, side, role_played, hero_id,
			kills, deaths, assists, computed_kda, damage_dealt, damage_taken,
			turret_damage, gold_earned, pick_order, medal, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stat.MatchID, stat.PlayerID, stat.TeamID, stat.Side, stat.RolePlayed,
		stat.HeroID, stat.Kills, stat.Deaths, stat.Assists, stat.ComputedKDA,
		stat.DamageDealt, stat.DamageTaken, stat.TurretDamage, stat.GoldEarned,
		stat.PickOrder, stat.Medal, stat.Notes)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	stat.ID = int(id)

	if err := s.recalcScoreDetails(ctx, stat.MatchID); err != nil {
		return stat.ID, fmt.Errorf("score details: %w", err)
	}
	return stat.ID, nil
}

type teamTotals struct {
	Kills        int `json:"kills"`
	Deaths       int `json:"deaths"`
	Assists      int `json:"assists"`
	DamageDealt  int `json:"damage_dealt"`
	DamageTaken  int `json:"damage_taken"`
	TurretDamage int `json:"turret_damage"`
	GoldEarned   int `json:"gold_earned"`
}

type scoreDetails struct {
	FinalScore map[string]int        `json:"final_score"`
	TeamTotals map[string]teamTotals `json:"team_totals"`
}

// recalcScoreDetails rebuilds the per-side totals JSON from player stats.
// Team kills double as the final score.
func (s *SQLiteStore) recalcScoreDetails(ctx context.Context, matchID string) error {
	stats, err := s.matchStats(ctx, matchID)
	if err != nil {
		return err
	}

	details := scoreDetails{
		FinalScore: map[string]int{"blue": 0, "red": 0},
		TeamTotals: map[string]teamTotals{"blue": {}, "red": {}},
	}
	for _, st := range stats {
		key := "blue"
		if st.Side == "RED" {
			key = "red"
		}
		totals := details.TeamTotals[key]
		totals.Kills += st.Kills
		totals.Deaths += st.Deaths
		totals.Assists += st.Assists
		if st.DamageDealt != nil {
			totals.DamageDealt += *st.DamageDealt
		}
		if st.DamageTaken != nil {
			totals.DamageTaken += *st.DamageTaken
		}
		if st.TurretDamage != nil {
			totals.TurretDamage += *st.TurretDamage
		}
		if st.GoldEarned != nil {
			totals.GoldEarned += *st.GoldEarned
		}
		details.TeamTotals[key] = totals
		details.FinalScore[key] += st.Kills
	}

	blob, err := json.Marshal(details)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE matches SET score_details = ? WHERE id = ?`, string(blob), matchID)
	return err
}

// AssignMatchAwards clears and recomputes the awards for a match: the
// operator-selected MVP and MVP of the losing side, plus statistical
// awards derived from the box score.
func (s *SQLiteStore) AssignMatchAwards(ctx context.Context, matchID string) error {
	match, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if match == nil {
		return fmt.Errorf("match %s not found", matchID)
	}

	stats, err := s.matchStats(ctx, matchID)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM match_awards WHERE match_id = ?`, matchID); err != nil {
		return err
	}
	if len(stats) == 0 {
		return nil
	}

	statFor := func(playerID int) *PlayerMatchStat {
		for i := range stats {
			if stats[i].PlayerID == playerID {
				return &stats[i]
			}
		}
		return nil
	}

	var awards []MatchAward
	if match.MVPPlayerID != nil {
		if st := statFor(*match.MVPPlayerID); st != nil {
			awards = append(awards, MatchAward{MatchID: matchID, PlayerID: st.PlayerID, AwardType: "MVP", StatValue: st.ComputedKDA})
		}
	}
	if match.MVPLossID != nil {
		if st := statFor(*match.MVPLossID); st != nil {
			awards = append(awards, MatchAward{MatchID: matchID, PlayerID: st.PlayerID, AwardType: "MVP_LOSS", StatValue: st.ComputedKDA})
		}
	}

	best := func(awardType string, value func(PlayerMatchStat) (float64, bool), higher bool) {
		var winner *PlayerMatchStat
		var winning float64
		for i := range stats {
			v, ok := value(stats[i])
			if !ok {
				continue
			}
			if winner == nil || (higher && v > winning) || (!higher && v < winning) {
				winner = &stats[i]
				winning = v
			}
		}
		if winner != nil {
			awards = append(awards, MatchAward{MatchID: matchID, PlayerID: winner.PlayerID, AwardType: awardType, StatValue: winning})
		}
	}

	best("BEST_KDA", func(st PlayerMatchStat) (float64, bool) { return st.ComputedKDA, true }, true)
	best("MOST_KILLS", func(st PlayerMatchStat) (float64, bool) { return float64(st.Kills), true }, true)
	best("MOST_ASSISTS", func(st PlayerMatchStat) (float64, bool) { return float64(st.Assists), true }, true)
	best("LEAST_DEATHS", func(st PlayerMatchStat) (float64, bool) { return float64(st.Deaths), st.Deaths > 0 }, false)
	best("MOST_DAMAGE", func(st PlayerMatchStat) (float64, bool) {
		if st.DamageDealt == nil || *st.DamageDealt == 0 {
			return 0, false
		}
		return float64(*st.DamageDealt), true
	}, true)
	best("MOST_GOLD", func(st PlayerMatchStat) (float64, bool) {
		if st.GoldEarned == nil || *st.GoldEarned == 0 {
			return 0, false
		}
		return float64(*st.GoldEarned), true
	}, true)
	best("MOST_TURRET_DAMAGE", func(st PlayerMatchStat) (float64, bool) {
		if st.TurretDamage == nil || *st.TurretDamage == 0 {
			return 0, false
		}
		return float64(*st.TurretDamage), true
	}, true)

	for _, a := range awards {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO match_awards (match_id, player_id, award_type, stat_value)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(match_id, award_type) DO UPDATE SET
			 	player_id = excluded.player_id,
			 	stat_value = excluded.stat_value`,
			a.MatchID, a.PlayerID, a.AwardType, a.StatValue); err != nil {
			return err
		}
	}
	return nil
}

// AddMatchFile records an uploaded file handle against a match.
func (s *SQLiteStore) AddMatchFile(ctx context.Context, file *MatchFile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO match_files (id, match_id, file_url, file_type)
		 VALUES (?, ?, ?, ?)`,
		file.ID, file.MatchID, file.FileURL, file.FileType)
	return err
}
