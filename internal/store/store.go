package store

import (
	"context"
	"time"
)

type Team struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Abbreviation   string    `json:"abbreviation"`
	Category       string    `json:"category"` // COLLEGIATE, AMATEUR, PRO
	IsOpponentOnly bool      `json:"isOpponentOnly"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Player struct {
	ID        int       `json:"id"`
	IGN       string    `json:"ign"`
	Role      *string   `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Hero struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// ScrimGroup collects related matches played in the same session.
type ScrimGroup struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	Notes     *string   `json:"notes,omitempty"`
}

type Match struct {
	ID            string    `json:"id"`
	ScrimGroupID  *int      `json:"scrimGroupId,omitempty"`
	GameNumber    int       `json:"gameNumber"`
	MatchDate     time.Time `json:"matchDate"`
	DurationSec   *int      `json:"durationSec,omitempty"`
	ScrimType     string    `json:"scrimType"`
	IsExternal    bool      `json:"isExternal"`
	OurTeamID     *int      `json:"ourTeamId,omitempty"`
	OurSide       *string   `json:"ourSide,omitempty"`
	BlueTeamID    int       `json:"blueTeamId"`
	RedTeamID     int       `json:"redTeamId"`
	WinningTeamID int       `json:"winningTeamId"`
	MVPPlayerID   *int      `json:"mvpPlayerId,omitempty"`
	MVPLossID     *int      `json:"mvpLossPlayerId,omitempty"`
	TrackDraft    bool      `json:"trackDraft"`
	DraftNotes    *string   `json:"draftNotes,omitempty"`
	BannedHeroes  *string   `json:"bannedHeroes,omitempty"` // JSON: [{hero_id, team_side, ban_order}, ...]
	GeneralNotes  *string   `json:"generalNotes,omitempty"`
	ScoreDetails  *string   `json:"scoreDetails,omitempty"` // JSON team totals, recalculated from player stats
	CreatedAt     time.Time `json:"createdAt"`
}

type PlayerMatchStat struct {
	ID           int     `json:"id"`
	MatchID      string  `json:"matchId"`
	PlayerID     int     `json:"playerId"`
	TeamID       int     `json:"teamId"`
	Side         string  `json:"side"`
	RolePlayed   *string `json:"rolePlayed,omitempty"`
	HeroID       int     `json:"heroId"`
	Kills        int     `json:"kills"`
	Deaths       int     `json:"deaths"`
	Assists      int     `json:"assists"`
	ComputedKDA  float64 `json:"computedKda"`
	DamageDealt  *int    `json:"damageDealt,omitempty"`
	DamageTaken  *int    `json:"damageTaken,omitempty"`
	TurretDamage *int    `json:"turretDamage,omitempty"`
	GoldEarned   *int    `json:"goldEarned,omitempty"`
	PickOrder    *int    `json:"pickOrder,omitempty"`
	Medal        *string `json:"medal,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type MatchAward struct {
	MatchID   string  `json:"matchId"`
	PlayerID  int     `json:"playerId"`
	AwardType string  `json:"awardType"`
	StatValue float64 `json:"statValue"`
}

type MatchFile struct {
	ID       string `json:"id"`
	MatchID  string `json:"matchId"`
	FileURL  string `json:"fileUrl"`
	FileType string `json:"fileType"`
}

// MatchWithStats is the read-view shape for the match detail screen.
type MatchWithStats struct {
	Match
	Stats  []PlayerMatchStat `json:"stats"`
	Awards []MatchAward      `json:"awards"`
	Files  []MatchFile       `json:"files"`
}

type Store interface {
	CreateTeam(ctx context.Context, team *Team) error
	GetTeam(ctx context.Context, teamID int) (*Team, error)
	ListTeams(ctx context.Context) ([]Team, error)
	ListManagedTeams(ctx context.Context) ([]Team, error)

	AddPlayerToTeam(ctx context.Context, teamID int, ign string, role *string) (*Player, error)
	TeamRoster(ctx context.Context, teamID int) ([]Player, error)

	ListHeroes(ctx context.Context) ([]Hero, error)
	SeedHeroes(ctx context.Context, heroes []Hero) error

	GetOrCreateScrimGroup(ctx context.Context, teamA, teamB int, matchDate time.Time, scrimType string) (*ScrimGroup, error)
	SuggestGameNumber(ctx context.Context, teamA, teamB int, matchDate time.Time, scrimType string) (int, error)

	CreateMatch(ctx context.Context, match *Match) error
	GetMatch(ctx context.Context, matchID string) (*Match, error)
	GetMatchWithStats(ctx context.Context, matchID string) (*MatchWithStats, error)
	ListMatches(ctx context.Context, limit int) ([]Match, error)

	CreatePlayerStat(ctx context.Context, stat *PlayerMatchStat) (int, error)
	AssignMatchAwards(ctx context.Context, matchID string) error
	AddMatchFile(ctx context.Context, file *MatchFile) error

	Close() error
}
