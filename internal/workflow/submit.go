package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// PlayerStatResult records the outcome of one attempted player-stat write.
type PlayerStatResult struct {
	Side   Side   `json:"side"`
	Index  int    `json:"index"`
	IGN    string `json:"ign,omitempty"`
	StatID int    `json:"statId,omitempty"`
	Error  string `json:"error,omitempty"`
}

// SubmissionResult is the combined outcome of one submission attempt.
type SubmissionResult struct {
	MatchID       string             `json:"matchId"`
	BlueTeamID    int                `json:"blueTeamId"`
	RedTeamID     int                `json:"redTeamId"`
	PlayerResults []PlayerStatResult `json:"playerResults"`
	Warnings      []string           `json:"warnings,omitempty"`
}

// Succeeded counts player-stat writes that went through.
func (r *SubmissionResult) Succeeded() int {
	n := 0
	for _, pr := range r.PlayerResults {
		if pr.Error == "" {
			n++
		}
	}
	return n
}

// Failed counts player-stat writes that were attempted and failed.
func (r *SubmissionResult) Failed() int {
	return len(r.PlayerResults) - r.Succeeded()
}

// SubmissionOrchestrator turns a finished record into persistence calls:
// resolve pending teams, create the match, then fan out the per-player
// stat writes. Team resolution or match creation failing is fatal and
// aborts everything after it; a failed player-stat write only marks its
// own row.
type SubmissionOrchestrator struct {
	teams   TeamDirectory
	matches MatchWriter
	log     *logrus.Entry
}

// NewSubmissionOrchestrator wires the orchestrator's collaborators.
func NewSubmissionOrchestrator(teams TeamDirectory, matches MatchWriter, log *logrus.Entry) *SubmissionOrchestrator {
	return &SubmissionOrchestrator{teams: teams, matches: matches, log: log}
}

// Submit performs the ordered persistence sequence. The record itself is
// never mutated, so a fatal error leaves the workflow free to retry.
func (o *SubmissionOrchestrator) Submit(ctx context.Context, rec *Record) (*SubmissionResult, error) {
	result := &SubmissionResult{}

	blueID, redID, err := o.resolveTeams(ctx, rec)
	if err != nil {
		return nil, err
	}
	result.BlueTeamID = blueID
	result.RedTeamID = redID

	winnerSide := rec.WinnerSide()
	if winnerSide == "" {
		return nil, fmt.Errorf("no winner recorded")
	}
	winnerID := blueID
	if winnerSide == SideRed {
		winnerID = redID
	}

	payload := MatchPayload{
		MatchDate:     rec.Scheduling.Date,
		Duration:      rec.Scheduling.Duration,
		ScrimType:     rec.Scheduling.ScrimType,
		Notes:         rec.Scheduling.Notes,
		IsExternal:    rec.Mode == ModeExternal,
		BlueTeamID:    blueID,
		RedTeamID:     redID,
		WinningTeamID: winnerID,
		TrackDraft:    rec.TrackDraft,
	}
	if rec.Mode == ModeOwn {
		payload.OurSide = rec.Teams.OurSide
		if rec.Teams.OurSide == SideBlue {
			payload.OurTeamID = blueID
		} else {
			payload.OurTeamID = redID
		}
	}
	if rec.Draft != nil {
		payload.DraftNotes = rec.Draft.Notes
		payload.BannedHeroes = flattenBans(rec.Draft)
	}

	// MVP references without a backing player id are dropped with a
	// warning, not treated as fatal.
	payload.MVPPlayerID = o.resolveAward(rec, rec.MVP, "MVP", result)
	payload.MVPLossID = o.resolveAward(rec, rec.MVPLoss, "MVP of the losing side", result)

	created, err := o.matches.CreateMatch(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	result.MatchID = created.MatchID
	o.log.WithField("match", created.MatchID).Info("match created")

	o.writePlayerStats(ctx, rec, created, result)

	for _, file := range rec.Attachments {
		if err := o.matches.AddMatchFile(ctx, created.MatchID, file); err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("file %s could not be attached: %v", file.ID, err))
		}
	}

	if err := o.matches.AssignMatchAwards(ctx, created.MatchID); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("awards could not be assigned: %v", err))
	}

	return result, nil
}

// resolveTeams persists any pending new-team drafts and returns the blue
// and red team ids. Any failure here aborts before the match write.
func (o *SubmissionOrchestrator) resolveTeams(ctx context.Context, rec *Record) (int, int, error) {
	blueID, err := o.resolveSlot(ctx, rec.TeamFor(SideBlue))
	if err != nil {
		return 0, 0, fmt.Errorf("resolve blue side team: %w", err)
	}
	redID, err := o.resolveSlot(ctx, rec.TeamFor(SideRed))
	if err != nil {
		return 0, 0, fmt.Errorf("resolve red side team: %w", err)
	}
	return blueID, redID, nil
}

func (o *SubmissionOrchestrator) resolveSlot(ctx context.Context, slot TeamSlot) (int, error) {
	if slot.Resolved() {
		return slot.TeamID, nil
	}
	if slot.NewTeam == nil {
		return 0, fmt.Errorf("no team selected")
	}
	team, err := o.teams.CreateTeam(ctx, slot.NewTeam.Name, slot.NewTeam.Abbreviation, slot.NewTeam.Category)
	if err != nil {
		return 0, err
	}
	o.log.WithFields(logrus.Fields{"team": team.ID, "name": team.Name}).Info("created pending team")
	return team.ID, nil
}

func (o *SubmissionOrchestrator) resolveAward(rec *Record, ref *SlotRef, label string, result *SubmissionResult) int {
	if ref == nil {
		return 0
	}
	slot := rec.Slot(*ref)
	if slot == nil || !slot.Player.Resolved() {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%s selection has no resolved player and was dropped", label))
		return 0
	}
	return slot.Player.PlayerID
}

// writePlayerStats attempts one stat write per slot that has a resolved
// player, a hero, and a resolved team. Slots missing any of those are
// skipped silently: partially-filled box scores are allowed. The attempts
// run concurrently and all of them are awaited.
func (o *SubmissionOrchestrator) writePlayerStats(ctx context.Context, rec *Record, created MatchCreated, result *SubmissionResult) {
	type attempt struct {
		ref     SlotRef
		payload PlayerStatPayload
	}

	var attempts []attempt
	for _, side := range []Side{SideBlue, SideRed} {
		teamID := created.BlueTeamID
		if side == SideRed {
			teamID = created.RedTeamID
		}
		slots := rec.Slots(side)
		for i := range slots {
			slot := slots[i]
			if !slot.Player.Resolved() || slot.Stats.HeroID == 0 || teamID == 0 {
				continue
			}
			p := PlayerStatPayload{
				MatchID:      created.MatchID,
				PlayerID:     slot.Player.PlayerID,
				TeamID:       teamID,
				Side:         side,
				Role:         slot.Role,
				HeroID:       slot.Stats.HeroID,
				Kills:        slot.Stats.Kills,
				Deaths:       slot.Stats.Deaths,
				Assists:      slot.Stats.Assists,
				ComputedKDA:  slot.Stats.KDA(),
				DamageDealt:  slot.Stats.DamageDealt,
				DamageTaken:  slot.Stats.DamageTaken,
				TurretDamage: slot.Stats.TurretDamage,
				GoldEarned:   slot.Stats.GoldEarned,
				Medal:        slot.Stats.Medal,
				Notes:        slot.Stats.Notes,
			}
			if rec.TrackDraft {
				p.PickOrder = slot.Stats.PickOrder
			}
			attempts = append(attempts, attempt{ref: SlotRef{Side: side, Index: i}, payload: p})
		}
	}

	results := make([]PlayerStatResult, len(attempts))
	var wg sync.WaitGroup
	for i, a := range attempts {
		wg.Add(1)
		go func(i int, a attempt) {
			defer wg.Done()
			res := PlayerStatResult{Side: a.ref.Side, Index: a.ref.Index, IGN: rec.Slot(a.ref).Player.IGN}
			statID, err := o.matches.CreatePlayerStat(ctx, a.payload)
			if err != nil {
				res.Error = err.Error()
			} else {
				res.StatID = statID
			}
			results[i] = res
		}(i, a)
	}
	wg.Wait()

	for _, res := range results {
		if res.Error != "" {
			o.log.WithFields(logrus.Fields{"side": res.Side, "index": res.Index}).
				Warnf("player stat write failed: %s", res.Error)
		}
	}
	result.PlayerResults = results
}

// flattenBans turns the ban board into the persistence wire shape.
func flattenBans(d *DraftState) []BannedHero {
	var out []BannedHero
	for _, side := range []Side{SideBlue, SideRed} {
		for i := 0; i < d.Format; i++ {
			id := d.bans(side)[i]
			if id == 0 {
				continue
			}
			out = append(out, BannedHero{HeroID: id, TeamSide: side, BanOrder: i + 1})
		}
	}
	return out
}
