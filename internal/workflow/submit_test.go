package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func submitReadyRecord() *Record {
	r := completeOwnRecord()
	names := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	for i := range r.BlueSlots {
		r.BlueSlots[i].Player = PlayerRef{PlayerID: 11 + i, IGN: names[i]}
		r.BlueSlots[i].Stats = SlotStats{HeroID: i + 1, Kills: i, Deaths: 1, Assists: 2}
	}
	return r
}

func newOrchestrator(teams TeamDirectory, matches MatchWriter) *SubmissionOrchestrator {
	return NewSubmissionOrchestrator(teams, matches, quietLogger().WithField("workflow", "test"))
}

func TestSubmitMatchCreateFailureIsFatal(t *testing.T) {
	teams := &fakeTeams{}
	writer := &fakeWriter{statErrFor: map[int]error{}, createErr: errors.New("boom")}
	orch := newOrchestrator(teams, writer)

	result, err := orch.Submit(context.Background(), submitReadyRecord())
	if err == nil {
		t.Fatalf("expected a fatal error")
	}
	if result != nil {
		t.Fatalf("fatal failure must not produce a result, got %+v", result)
	}
	// Nothing downstream of the match write may have run.
	if writer.statCount() != 0 {
		t.Fatalf("player stats were written despite match failure")
	}
	if len(writer.files) != 0 || len(writer.awardsFor) != 0 {
		t.Fatalf("files or awards were written despite match failure")
	}
}

func TestSubmitPartialStatFailure(t *testing.T) {
	teams := &fakeTeams{}
	writer := &fakeWriter{statErrFor: map[int]error{13: errors.New("constraint violation")}}
	orch := newOrchestrator(teams, writer)

	result, err := orch.Submit(context.Background(), submitReadyRecord())
	if err != nil {
		t.Fatalf("partial failure must not be fatal: %v", err)
	}
	if len(result.PlayerResults) != 5 {
		t.Fatalf("want 5 attempts, got %d", len(result.PlayerResults))
	}
	if result.Succeeded() != 4 || result.Failed() != 1 {
		t.Fatalf("want 4 successes and 1 failure, got %d/%d", result.Succeeded(), result.Failed())
	}
	for _, pr := range result.PlayerResults {
		if pr.IGN == "charlie" && pr.Error == "" {
			t.Fatalf("the failing player should carry its error")
		}
		if pr.IGN != "charlie" && pr.Error != "" {
			t.Fatalf("unexpected error for %s: %s", pr.IGN, pr.Error)
		}
	}
}

func TestSubmitSkipsIncompleteSlots(t *testing.T) {
	rec := submitReadyRecord()
	// No hero entered, an unresolved player, and a player-less red slot:
	// none of the three may produce a stat write.
	rec.BlueSlots[1].Stats.HeroID = 0
	rec.BlueSlots[2].Player = PlayerRef{IGN: "typed-by-hand"}
	rec.RedSlots[0].Stats = SlotStats{HeroID: 9, Kills: 5}

	teams := &fakeTeams{}
	writer := &fakeWriter{statErrFor: map[int]error{}}
	orch := newOrchestrator(teams, writer)

	result, err := orch.Submit(context.Background(), rec)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(result.PlayerResults) != 3 {
		t.Fatalf("want 3 attempts, got %d: %+v", len(result.PlayerResults), result.PlayerResults)
	}
}

func TestSubmitOwnModePayload(t *testing.T) {
	rec := submitReadyRecord()
	rec.Outcome.OurResult = OutcomeDefeat // blue side, defeat: red won

	teams := &fakeTeams{}
	writer := &fakeWriter{statErrFor: map[int]error{}}
	orch := newOrchestrator(teams, writer)

	if _, err := orch.Submit(context.Background(), rec); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	p := writer.match
	if p == nil {
		t.Fatalf("no match payload captured")
	}
	if p.IsExternal {
		t.Fatalf("own mode marked external")
	}
	if p.BlueTeamID != 1 || p.RedTeamID != 2 {
		t.Fatalf("side mapping wrong: blue=%d red=%d", p.BlueTeamID, p.RedTeamID)
	}
	if p.OurTeamID != 1 || p.OurSide != SideBlue {
		t.Fatalf("our-team fields wrong: team=%d side=%s", p.OurTeamID, p.OurSide)
	}
	if p.WinningTeamID != 2 {
		t.Fatalf("defeat on blue should make red the winner, got %d", p.WinningTeamID)
	}
}

func TestSubmitCreatesPendingTeams(t *testing.T) {
	rec := submitReadyRecord()
	rec.Teams.Opponent = TeamSlot{NewTeam: &NewTeamDraft{Name: "Pickup Five", Abbreviation: "PU5", Category: "AMATEUR"}}

	teams := &fakeTeams{}
	writer := &fakeWriter{statErrFor: map[int]error{}}
	orch := newOrchestrator(teams, writer)

	result, err := orch.Submit(context.Background(), rec)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(teams.created) != 1 || teams.created[0].Name != "Pickup Five" {
		t.Fatalf("pending team not created: %+v", teams.created)
	}
	if result.RedTeamID != teams.created[0].ID {
		t.Fatalf("created team id not used for red side: %d vs %d", result.RedTeamID, teams.created[0].ID)
	}
}

func TestSubmitPendingTeamFailureIsFatal(t *testing.T) {
	rec := submitReadyRecord()
	rec.Teams.Opponent = TeamSlot{NewTeam: &NewTeamDraft{Name: "Pickup Five", Abbreviation: "PU5", Category: "AMATEUR"}}

	teams := &fakeTeams{createErr: errors.New("duplicate name")}
	writer := &fakeWriter{statErrFor: map[int]error{}}
	orch := newOrchestrator(teams, writer)

	_, err := orch.Submit(context.Background(), rec)
	if err == nil || !strings.Contains(err.Error(), "red side team") {
		t.Fatalf("want red side resolution error, got %v", err)
	}
	if writer.match != nil {
		t.Fatalf("match was created despite team resolution failure")
	}
}

func TestSubmitDropsUnresolvedAwards(t *testing.T) {
	rec := submitReadyRecord()
	mvp := SlotRef{Side: SideBlue, Index: 0}
	loss := SlotRef{Side: SideRed, Index: 0} // red slot has no resolved player
	rec.MVP = &mvp
	rec.MVPLoss = &loss

	teams := &fakeTeams{}
	writer := &fakeWriter{statErrFor: map[int]error{}}
	orch := newOrchestrator(teams, writer)

	result, err := orch.Submit(context.Background(), rec)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if writer.match.MVPPlayerID != 11 {
		t.Fatalf("resolved MVP should persist, got %d", writer.match.MVPPlayerID)
	}
	if writer.match.MVPLossID != 0 {
		t.Fatalf("unresolved MVP of the losing side should be dropped, got %d", writer.match.MVPLossID)
	}
	found := false
	for _, warning := range result.Warnings {
		if strings.Contains(warning, "losing side") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a warning for the dropped award, got %v", result.Warnings)
	}
}

func TestSubmitFlattensDraftBans(t *testing.T) {
	rec := submitReadyRecord()
	rec.TrackDraft = true
	draft, err := NewDraftState(3)
	if err != nil {
		t.Fatalf("NewDraftState: %v", err)
	}
	draft.BlueBans = [MaxBans]int{101, 0, 103, 0, 0}
	draft.RedBans = [MaxBans]int{201, 0, 0, 0, 0}
	draft.Notes = "opponent first-picked jungle"
	rec.Draft = draft
	for i := range rec.BlueSlots {
		rec.BlueSlots[i].Stats.PickOrder = i + 1
	}

	teams := &fakeTeams{}
	writer := &fakeWriter{statErrFor: map[int]error{}}
	orch := newOrchestrator(teams, writer)

	if _, err := orch.Submit(context.Background(), rec); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	bans := writer.match.BannedHeroes
	if len(bans) != 3 {
		t.Fatalf("want 3 bans, got %+v", bans)
	}
	want := []BannedHero{
		{HeroID: 101, TeamSide: SideBlue, BanOrder: 1},
		{HeroID: 103, TeamSide: SideBlue, BanOrder: 3},
		{HeroID: 201, TeamSide: SideRed, BanOrder: 1},
	}
	for i, b := range bans {
		if b != want[i] {
			t.Fatalf("ban %d: got %+v, want %+v", i, b, want[i])
		}
	}
	if writer.match.DraftNotes != "opponent first-picked jungle" {
		t.Fatalf("draft notes not carried: %q", writer.match.DraftNotes)
	}

	// Pick order only travels when the draft is tracked.
	for _, call := range writer.stats {
		if call.payload.PickOrder == 0 {
			t.Fatalf("pick order missing on stat payload: %+v", call.payload)
		}
	}
}

func TestSubmitDurationCarried(t *testing.T) {
	rec := submitReadyRecord()
	rec.Scheduling.Duration = 17*time.Minute + 30*time.Second

	teams := &fakeTeams{}
	writer := &fakeWriter{statErrFor: map[int]error{}}
	orch := newOrchestrator(teams, writer)

	if _, err := orch.Submit(context.Background(), rec); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if writer.match.Duration != rec.Scheduling.Duration {
		t.Fatalf("duration not carried: %v", writer.match.Duration)
	}
}
