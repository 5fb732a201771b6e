package workflow

import (
	"context"
	"time"
)

// TeamDirectory looks up and creates teams and players.
type TeamDirectory interface {
	ListTeams(ctx context.Context) ([]Team, error)
	ListManagedTeams(ctx context.Context) ([]Team, error)
	CreateTeam(ctx context.Context, name, abbreviation, category string) (Team, error)
	AddPlayerToTeam(ctx context.Context, teamID int, ign string, role Role) (RosterPlayer, error)
}

// RosterSource fetches the current roster for a team. Order defines the
// positional slot mapping; at most the first five entries are used.
type RosterSource interface {
	TeamRoster(ctx context.Context, teamID int) ([]RosterPlayer, error)
}

// HeroCatalog fetches the full hero list, read once per workflow.
type HeroCatalog interface {
	Heroes(ctx context.Context) ([]Hero, error)
}

// BannedHero is one entry of the draft board flattened for persistence.
type BannedHero struct {
	HeroID   int  `json:"hero_id"`
	TeamSide Side `json:"team_side"`
	BanOrder int  `json:"ban_order"`
}

// MatchPayload is the wire shape of the single match-creation call.
type MatchPayload struct {
	MatchDate     time.Time
	Duration      time.Duration
	ScrimType     ScrimType
	Notes         string
	IsExternal    bool
	OurTeamID     int // zero for external matches
	OurSide       Side
	BlueTeamID    int
	RedTeamID     int
	WinningTeamID int
	MVPPlayerID   int // zero when unresolved
	MVPLossID     int
	TrackDraft    bool
	DraftNotes    string
	BannedHeroes  []BannedHero
}

// MatchCreated is the persistence layer's answer to a match creation.
type MatchCreated struct {
	MatchID    string
	BlueTeamID int
	RedTeamID  int
}

// PlayerStatPayload is the wire shape of one player-stat creation call.
type PlayerStatPayload struct {
	MatchID      string
	PlayerID     int
	TeamID       int
	Side         Side
	Role         Role
	HeroID       int
	Kills        int
	Deaths       int
	Assists      int
	ComputedKDA  float64
	DamageDealt  int
	DamageTaken  int
	TurretDamage int
	GoldEarned   int
	PickOrder    int // zero when draft tracking is off
	Medal        string
	Notes        string
}

// MatchWriter is the match/stat persistence collaborator.
type MatchWriter interface {
	CreateMatch(ctx context.Context, p MatchPayload) (MatchCreated, error)
	CreatePlayerStat(ctx context.Context, p PlayerStatPayload) (int, error)
	AddMatchFile(ctx context.Context, matchID string, file Attachment) error
	AssignMatchAwards(ctx context.Context, matchID string) error
}

// Services bundles every external collaborator the workflow consumes.
type Services struct {
	Teams   TeamDirectory
	Rosters RosterSource
	Heroes  HeroCatalog
	Matches MatchWriter
}
