package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/scrimbook/scrimbook/internal/workflow"
)

// Adapter exposes the Store through the collaborator interfaces the
// entry workflow consumes.
type Adapter struct {
	store Store
}

func NewAdapter(s Store) *Adapter {
	return &Adapter{store: s}
}

// Services returns the adapter wired into a workflow service bundle.
func (a *Adapter) Services() workflow.Services {
	return workflow.Services{
		Teams:   a,
		Rosters: a,
		Heroes:  a,
		Matches: a,
	}
}

func (a *Adapter) ListTeams(ctx context.Context) ([]workflow.Team, error) {
	teams, err := a.store.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	return convertTeams(teams), nil
}

func (a *Adapter) ListManagedTeams(ctx context.Context) ([]workflow.Team, error) {
	teams, err := a.store.ListManagedTeams(ctx)
	if err != nil {
		return nil, err
	}
	return convertTeams(teams), nil
}

func convertTeams(teams []Team) []workflow.Team {
	out := make([]workflow.Team, len(teams))
	for i, t := range teams {
		out[i] = workflow.Team{
			ID:           t.ID,
			Name:         t.Name,
			Abbreviation: t.Abbreviation,
			Category:     t.Category,
		}
	}
	return out
}

func (a *Adapter) CreateTeam(ctx context.Context, name, abbreviation, category string) (workflow.Team, error) {
	team := &Team{
		Name:           name,
		Abbreviation:   abbreviation,
		Category:       category,
		IsOpponentOnly: true,
	}
	if err := a.store.CreateTeam(ctx, team); err != nil {
		return workflow.Team{}, err
	}
	return workflow.Team{
		ID:           team.ID,
		Name:         team.Name,
		Abbreviation: team.Abbreviation,
		Category:     team.Category,
	}, nil
}

func (a *Adapter) AddPlayerToTeam(ctx context.Context, teamID int, ign string, role workflow.Role) (workflow.RosterPlayer, error) {
	var rolePtr *string
	if role != "" {
		r := string(role)
		rolePtr = &r
	}
	player, err := a.store.AddPlayerToTeam(ctx, teamID, ign, rolePtr)
	if err != nil {
		return workflow.RosterPlayer{}, err
	}
	return convertPlayer(*player), nil
}

func (a *Adapter) TeamRoster(ctx context.Context, teamID int) ([]workflow.RosterPlayer, error) {
	players, err := a.store.TeamRoster(ctx, teamID)
	if err != nil {
		return nil, err
	}
	out := make([]workflow.RosterPlayer, len(players))
	for i, p := range players {
		out[i] = convertPlayer(p)
	}
	return out, nil
}

func convertPlayer(p Player) workflow.RosterPlayer {
	rp := workflow.RosterPlayer{ID: p.ID, IGN: p.IGN}
	if p.Role != nil {
		rp.Role = workflow.Role(*p.Role)
	}
	return rp
}

func (a *Adapter) Heroes(ctx context.Context) ([]workflow.Hero, error) {
	heroes, err := a.store.ListHeroes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]workflow.Hero, len(heroes))
	for i, h := range heroes {
		out[i] = workflow.Hero{ID: h.ID, Name: h.Name, Role: h.Role}
	}
	return out, nil
}

func (a *Adapter) CreateMatch(ctx context.Context, p workflow.MatchPayload) (workflow.MatchCreated, error) {
	match := &Match{
		ID:            uuid.NewString(),
		MatchDate:     p.MatchDate,
		ScrimType:     string(p.ScrimType),
		IsExternal:    p.IsExternal,
		BlueTeamID:    p.BlueTeamID,
		RedTeamID:     p.RedTeamID,
		WinningTeamID: p.WinningTeamID,
		TrackDraft:    p.TrackDraft,
	}
	if p.Duration > 0 {
		sec := int(p.Duration.Seconds())
		match.DurationSec = &sec
	}
	if !p.IsExternal {
		ourTeam := p.OurTeamID
		ourSide := string(p.OurSide)
		match.OurTeamID = &ourTeam
		match.OurSide = &ourSide
	}
	if p.MVPPlayerID != 0 {
		id := p.MVPPlayerID
		match.MVPPlayerID = &id
	}
	if p.MVPLossID != 0 {
		id := p.MVPLossID
		match.MVPLossID = &id
	}
	if p.Notes != "" {
		notes := p.Notes
		match.GeneralNotes = &notes
	}
	if p.DraftNotes != "" {
		notes := p.DraftNotes
		match.DraftNotes = &notes
	}
	if len(p.BannedHeroes) > 0 {
		blob, err := json.Marshal(p.BannedHeroes)
		if err != nil {
			return workflow.MatchCreated{}, fmt.Errorf("marshal bans: %w", err)
		}
		bans := string(blob)
		match.BannedHeroes = &bans
	}

	if err := a.store.CreateMatch(ctx, match); err != nil {
		return workflow.MatchCreated{}, err
	}
	return workflow.MatchCreated{
		MatchID:    match.ID,
		BlueTeamID: match.BlueTeamID,
		RedTeamID:  match.RedTeamID,
	}, nil
}

func (a *Adapter) CreatePlayerStat(ctx context.Context, p workflow.PlayerStatPayload) (int, error) {
	stat := &PlayerMatchStat{
		MatchID:     p.MatchID,
		PlayerID:    p.PlayerID,
		TeamID:      p.TeamID,
		Side:        string(p.Side),
		HeroID:      p.HeroID,
		Kills:       p.Kills,
		Deaths:      p.Deaths,
		Assists:     p.Assists,
		ComputedKDA: p.ComputedKDA,
	}
	if p.Role != "" {
		role := string(p.Role)
		stat.RolePlayed = &role
	}
	stat.DamageDealt = intPtr(p.DamageDealt)
	stat.DamageTaken = intPtr(p.DamageTaken)
	stat.TurretDamage = intPtr(p.TurretDamage)
	stat.GoldEarned = intPtr(p.GoldEarned)
	stat.PickOrder = intPtr(p.PickOrder)
	if p.Medal != "" {
		medal := p.Medal
		stat.Medal = &medal
	}
	if p.Notes != "" {
		notes := p.Notes
		stat.Notes = &notes
	}
	return a.store.CreatePlayerStat(ctx, stat)
}

func intPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func (a *Adapter) AddMatchFile(ctx context.Context, matchID string, file workflow.Attachment) error {
	id := file.ID
	if id == "" {
		id = uuid.NewString()
	}
	return a.store.AddMatchFile(ctx, &MatchFile{
		ID:       id,
		MatchID:  matchID,
		FileURL:  file.FileURL,
		FileType: file.FileType,
	})
}

func (a *Adapter) AssignMatchAwards(ctx context.Context, matchID string) error {
	return a.store.AssignMatchAwards(ctx, matchID)
}
