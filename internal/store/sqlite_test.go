package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(v string) *string { return &v }

func createTeam(t *testing.T, s *SQLiteStore, name string) *Team {
	t.Helper()
	team := &Team{Name: name, Abbreviation: strings.ToUpper(name[:3]), Category: "COLLEGIATE"}
	if err := s.CreateTeam(context.Background(), team); err != nil {
		t.Fatalf("CreateTeam %s: %v", name, err)
	}
	return team
}

func TestTeamRosterStarterOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	team := createTeam(t, s, "wolves")

	// First player of a role becomes the starter, later ones do not.
	starter, err := s.AddPlayerToTeam(ctx, team.ID, "zeta", strPtr("JUNGLER"))
	if err != nil {
		t.Fatalf("AddPlayerToTeam: %v", err)
	}
	if _, err := s.AddPlayerToTeam(ctx, team.ID, "alpha", strPtr("JUNGLER")); err != nil {
		t.Fatalf("AddPlayerToTeam: %v", err)
	}

	roster, err := s.TeamRoster(ctx, team.ID)
	if err != nil {
		t.Fatalf("TeamRoster: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("want 2 players, got %d", len(roster))
	}
	// zeta is the starter so it sorts first despite the IGN order.
	if roster[0].ID != starter.ID {
		t.Fatalf("starter not first: got %s", roster[0].IGN)
	}
}

func TestAddPlayerRequiresIGN(t *testing.T) {
	s := newTestStore(t)
	team := createTeam(t, s, "wolves")
	if _, err := s.AddPlayerToTeam(context.Background(), team.ID, "", nil); err == nil {
		t.Fatalf("expected an error for empty IGN")
	}
}

func TestScrimGroupingWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createTeam(t, s, "wolves")
	b := createTeam(t, s, "ravens")

	base := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	first := &Match{
		ID: "m1", MatchDate: base, ScrimType: "SCRIMMAGE",
		BlueTeamID: a.ID, RedTeamID: b.ID, WinningTeamID: a.ID,
	}
	if err := s.CreateMatch(ctx, first); err != nil {
		t.Fatalf("CreateMatch m1: %v", err)
	}
	if first.ScrimGroupID == nil || first.GameNumber != 1 {
		t.Fatalf("first match: group=%v game=%d", first.ScrimGroupID, first.GameNumber)
	}

	// Same teams two hours later, sides swapped: same session, game 2.
	second := &Match{
		ID: "m2", MatchDate: base.Add(2 * time.Hour), ScrimType: "SCRIMMAGE",
		BlueTeamID: b.ID, RedTeamID: a.ID, WinningTeamID: b.ID,
	}
	if err := s.CreateMatch(ctx, second); err != nil {
		t.Fatalf("CreateMatch m2: %v", err)
	}
	if second.ScrimGroupID == nil || *second.ScrimGroupID != *first.ScrimGroupID {
		t.Fatalf("second match not grouped with first: %v vs %v", second.ScrimGroupID, first.ScrimGroupID)
	}
	if second.GameNumber != 2 {
		t.Fatalf("second match game number: got %d, want 2", second.GameNumber)
	}

	// Outside the window: a fresh session.
	third := &Match{
		ID: "m3", MatchDate: base.Add(10 * time.Hour), ScrimType: "SCRIMMAGE",
		BlueTeamID: a.ID, RedTeamID: b.ID, WinningTeamID: a.ID,
	}
	if err := s.CreateMatch(ctx, third); err != nil {
		t.Fatalf("CreateMatch m3: %v", err)
	}
	if *third.ScrimGroupID == *first.ScrimGroupID {
		t.Fatalf("match ten hours later joined the old session")
	}
	if third.GameNumber != 1 {
		t.Fatalf("third match game number: got %d, want 1", third.GameNumber)
	}

	group, err := s.GetOrCreateScrimGroup(ctx, a.ID, b.ID, base, "SCRIMMAGE")
	if err != nil {
		t.Fatalf("GetOrCreateScrimGroup: %v", err)
	}
	if group.ID != *first.ScrimGroupID {
		t.Fatalf("lookup did not find the existing group")
	}
	if !strings.Contains(group.Name, "wolves vs ravens") || !strings.Contains(group.Name, "2026-03-14") {
		t.Fatalf("unexpected group name %q", group.Name)
	}
}

func TestCreatePlayerStatRecalculatesScoreDetails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createTeam(t, s, "wolves")
	b := createTeam(t, s, "ravens")
	p1, err := s.AddPlayerToTeam(ctx, a.ID, "alpha", strPtr("MID"))
	if err != nil {
		t.Fatalf("AddPlayerToTeam: %v", err)
	}
	p2, err := s.AddPlayerToTeam(ctx, b.ID, "bravo", strPtr("MID"))
	if err != nil {
		t.Fatalf("AddPlayerToTeam: %v", err)
	}
	if err := s.SeedHeroes(ctx, []Hero{{Name: "Chou"}, {Name: "Estes"}}); err != nil {
		t.Fatalf("SeedHeroes: %v", err)
	}
	heroes, err := s.ListHeroes(ctx)
	if err != nil {
		t.Fatalf("ListHeroes: %v", err)
	}

	match := &Match{
		ID: "m1", MatchDate: time.Now().UTC(), ScrimType: "RANKED",
		BlueTeamID: a.ID, RedTeamID: b.ID, WinningTeamID: a.ID,
	}
	if err := s.CreateMatch(ctx, match); err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}

	gold := 9800
	for _, stat := range []*PlayerMatchStat{
		{MatchID: "m1", PlayerID: p1.ID, TeamID: a.ID, Side: "BLUE", HeroID: heroes[0].ID,
			Kills: 7, Deaths: 1, Assists: 4, ComputedKDA: 11, GoldEarned: &gold},
		{MatchID: "m1", PlayerID: p2.ID, TeamID: b.ID, Side: "RED", HeroID: heroes[1].ID,
			Kills: 2, Deaths: 5, Assists: 8, ComputedKDA: 2},
	} {
		if _, err := s.CreatePlayerStat(ctx, stat); err != nil {
			t.Fatalf("CreatePlayerStat: %v", err)
		}
	}

	got, err := s.GetMatch(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMatch: %v", err)
	}
	if got.ScoreDetails == nil {
		t.Fatalf("score details were not written")
	}
	var details scoreDetails
	if err := json.Unmarshal([]byte(*got.ScoreDetails), &details); err != nil {
		t.Fatalf("score details not valid JSON: %v", err)
	}
	if details.FinalScore["blue"] != 7 || details.FinalScore["red"] != 2 {
		t.Fatalf("final score: %+v", details.FinalScore)
	}
	if details.TeamTotals["blue"].GoldEarned != 9800 {
		t.Fatalf("blue gold total: %+v", details.TeamTotals["blue"])
	}
	if details.TeamTotals["red"].Assists != 8 {
		t.Fatalf("red assists total: %+v", details.TeamTotals["red"])
	}
}

func TestConcurrentStatWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createTeam(t, s, "wolves")
	b := createTeam(t, s, "ravens")

	var players []*Player
	for _, ign := range []string{"alpha", "bravo", "charlie", "delta", "echo"} {
		p, err := s.AddPlayerToTeam(ctx, a.ID, ign, strPtr("FLEX"))
		if err != nil {
			t.Fatalf("AddPlayerToTeam: %v", err)
		}
		players = append(players, p)
	}
	if err := s.SeedHeroes(ctx, []Hero{{Name: "Chou"}}); err != nil {
		t.Fatalf("SeedHeroes: %v", err)
	}
	heroes, _ := s.ListHeroes(ctx)

	match := &Match{
		ID: "m1", MatchDate: time.Now().UTC(), ScrimType: "SCRIMMAGE",
		BlueTeamID: a.ID, RedTeamID: b.ID, WinningTeamID: a.ID,
	}
	if err := s.CreateMatch(ctx, match); err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}

	// The submission path writes one row per player concurrently; every
	// write has to land despite SQLite's single-writer model.
	errs := make([]error, len(players))
	var wg sync.WaitGroup
	for i, p := range players {
		wg.Add(1)
		go func(i int, p *Player) {
			defer wg.Done()
			_, errs[i] = s.CreatePlayerStat(ctx, &PlayerMatchStat{
				MatchID: "m1", PlayerID: p.ID, TeamID: a.ID, Side: "BLUE",
				HeroID: heroes[0].ID, Kills: i, Deaths: 1, Assists: 1,
				ComputedKDA: float64(i + 1),
			})
		}(i, p)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("concurrent stat write %d: %v", i, err)
		}
	}
	full, err := s.GetMatchWithStats(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMatchWithStats: %v", err)
	}
	if len(full.Stats) != len(players) {
		t.Fatalf("want %d stat rows, got %d", len(players), len(full.Stats))
	}
}

func TestAssignMatchAwards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createTeam(t, s, "wolves")
	b := createTeam(t, s, "ravens")

	var players []*Player
	for _, ign := range []string{"alpha", "bravo", "charlie"} {
		p, err := s.AddPlayerToTeam(ctx, a.ID, ign, strPtr("FLEX"))
		if err != nil {
			t.Fatalf("AddPlayerToTeam: %v", err)
		}
		players = append(players, p)
	}
	if err := s.SeedHeroes(ctx, []Hero{{Name: "Chou"}}); err != nil {
		t.Fatalf("SeedHeroes: %v", err)
	}
	heroes, _ := s.ListHeroes(ctx)

	match := &Match{
		ID: "m1", MatchDate: time.Now().UTC(), ScrimType: "TOURNAMENT",
		BlueTeamID: a.ID, RedTeamID: b.ID, WinningTeamID: a.ID,
		MVPPlayerID: &players[1].ID,
	}
	if err := s.CreateMatch(ctx, match); err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}

	damage := []int{50000, 80000, 30000}
	for i, p := range players {
		stat := &PlayerMatchStat{
			MatchID: "m1", PlayerID: p.ID, TeamID: a.ID, Side: "BLUE", HeroID: heroes[0].ID,
			Kills: 10 - i, Deaths: i, Assists: 5, DamageDealt: &damage[i],
		}
		if stat.Deaths == 0 {
			stat.ComputedKDA = float64(stat.Kills + stat.Assists)
		} else {
			stat.ComputedKDA = float64(stat.Kills+stat.Assists) / float64(stat.Deaths)
		}
		if _, err := s.CreatePlayerStat(ctx, stat); err != nil {
			t.Fatalf("CreatePlayerStat: %v", err)
		}
	}

	if err := s.AssignMatchAwards(ctx, "m1"); err != nil {
		t.Fatalf("AssignMatchAwards: %v", err)
	}
	full, err := s.GetMatchWithStats(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMatchWithStats: %v", err)
	}

	byType := make(map[string]MatchAward)
	for _, a := range full.Awards {
		byType[a.AwardType] = a
	}

	// Operator-selected MVP comes from the match row.
	if got := byType["MVP"].PlayerID; got != players[1].ID {
		t.Fatalf("MVP: got player %d, want %d", got, players[1].ID)
	}
	// alpha: 10/0/5 deathless, KDA 15: best KDA and most kills.
	if got := byType["BEST_KDA"].PlayerID; got != players[0].ID {
		t.Fatalf("BEST_KDA: got player %d, want %d", got, players[0].ID)
	}
	if got := byType["MOST_KILLS"].PlayerID; got != players[0].ID {
		t.Fatalf("MOST_KILLS: got player %d, want %d", got, players[0].ID)
	}
	// Least deaths considers only players who actually died: bravo with 1.
	if got := byType["LEAST_DEATHS"].PlayerID; got != players[1].ID {
		t.Fatalf("LEAST_DEATHS: got player %d, want %d", got, players[1].ID)
	}
	if got := byType["MOST_DAMAGE"].PlayerID; got != players[1].ID {
		t.Fatalf("MOST_DAMAGE: got player %d, want %d", got, players[1].ID)
	}
	// No gold columns were filled, so no gold award exists.
	if _, ok := byType["MOST_GOLD"]; ok {
		t.Fatalf("MOST_GOLD assigned with no gold data")
	}

	// Reassigning is idempotent.
	if err := s.AssignMatchAwards(ctx, "m1"); err != nil {
		t.Fatalf("second AssignMatchAwards: %v", err)
	}
}
