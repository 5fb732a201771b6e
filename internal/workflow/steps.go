package workflow

import (
	"fmt"
	"strings"
)

// Step is one screen of the guided entry workflow.
type Step int

const (
	StepDetails Step = iota
	StepDraft
	StepPlayerStats
	StepFiles
	StepReview
	StepSubmitted
	StepFailed
)

func (s Step) String() string {
	switch s {
	case StepDetails:
		return "details"
	case StepDraft:
		return "draft"
	case StepPlayerStats:
		return "player_stats"
	case StepFiles:
		return "files"
	case StepReview:
		return "review"
	case StepSubmitted:
		return "submitted"
	case StepFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseStep maps a wire name back to a Step.
func ParseStep(name string) (Step, bool) {
	for s := StepDetails; s <= StepFailed; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// StepBlocked reports why a forward transition out of a step is refused.
type StepBlocked struct {
	Step    Step
	Reasons []string
}

func (e *StepBlocked) Error() string {
	return fmt.Sprintf("step %s incomplete: %s", e.Step, strings.Join(e.Reasons, "; "))
}

// nextStep returns the step after cur, skipping Draft entirely when the
// operator opted out of draft tracking.
func nextStep(r *Record, cur Step) (Step, bool) {
	switch cur {
	case StepDetails:
		if r.TrackDraft {
			return StepDraft, true
		}
		return StepPlayerStats, true
	case StepDraft:
		return StepPlayerStats, true
	case StepPlayerStats:
		return StepFiles, true
	case StepFiles:
		return StepReview, true
	default:
		return cur, false
	}
}

// prevStep returns the step before cur, with the same Draft skip.
func prevStep(r *Record, cur Step) (Step, bool) {
	switch cur {
	case StepDraft:
		return StepDetails, true
	case StepPlayerStats:
		if r.TrackDraft {
			return StepDraft, true
		}
		return StepDetails, true
	case StepFiles:
		return StepPlayerStats, true
	case StepReview:
		return StepFiles, true
	case StepFailed:
		return StepReview, true
	default:
		return cur, false
	}
}

// validateLeave gates forward navigation out of a step. Missing data
// blocks the next transition, never the current screen.
func validateLeave(r *Record, cur Step) *StepBlocked {
	var reasons []string
	switch cur {
	case StepDetails:
		reasons = detailsReasons(r)
	case StepPlayerStats:
		reasons = playerStatsReasons(r)
	}
	if len(reasons) == 0 {
		return nil
	}
	return &StepBlocked{Step: cur, Reasons: reasons}
}

func detailsReasons(r *Record) []string {
	var reasons []string
	if r.Scheduling.Date.IsZero() {
		reasons = append(reasons, "match date is required")
	}
	if !r.Scheduling.ScrimType.valid() {
		reasons = append(reasons, "scrim category is required")
	}

	switch r.Mode {
	case ModeOwn:
		if !r.Teams.Ours.Filled() {
			reasons = append(reasons, "our team is required")
		}
		if !r.Teams.Opponent.Filled() {
			reasons = append(reasons, "opponent team is required")
		}
		if r.Teams.OurSide == "" {
			reasons = append(reasons, "side assignment is required")
		}
		if r.Teams.Ours.Resolved() && r.Teams.Opponent.Resolved() &&
			r.Teams.Ours.TeamID == r.Teams.Opponent.TeamID {
			reasons = append(reasons, "opponent cannot be our own team")
		}
		if r.Outcome.OurResult == "" {
			reasons = append(reasons, "match outcome is required")
		}
	case ModeExternal:
		if !r.Teams.Blue.Filled() {
			reasons = append(reasons, "blue side team is required")
		}
		if !r.Teams.Red.Filled() {
			reasons = append(reasons, "red side team is required")
		}
		if r.Teams.Blue.Resolved() && r.Teams.Red.Resolved() &&
			r.Teams.Blue.TeamID == r.Teams.Red.TeamID {
			reasons = append(reasons, "blue and red teams must differ")
		}
		if r.Outcome.WinnerSide == "" {
			reasons = append(reasons, "winning team is required")
		}
	default:
		reasons = append(reasons, "match mode is required")
	}
	return reasons
}

func playerStatsReasons(r *Record) []string {
	var reasons []string
	if r.TrackDraft {
		for _, side := range []Side{SideBlue, SideRed} {
			if dup := duplicatePickOrder(r.Slots(side)); dup != 0 {
				reasons = append(reasons,
					fmt.Sprintf("%s side has pick order %d on more than one slot", side, dup))
			}
		}
	}
	if r.MVP != nil && r.MVPLoss != nil && *r.MVP == *r.MVPLoss {
		reasons = append(reasons, "MVP and MVP of the losing side must be different players")
	}
	return reasons
}

// duplicatePickOrder returns the first order value used twice, or 0.
func duplicatePickOrder(slots *[RosterSize]PlayerSlot) int {
	seen := make(map[int]bool, RosterSize)
	for i := range slots {
		order := slots[i].Stats.PickOrder
		if order == 0 {
			continue
		}
		if seen[order] {
			return order
		}
		seen[order] = true
	}
	return 0
}

// validateForSubmit runs every gate the review screen depends on.
func validateForSubmit(r *Record) *StepBlocked {
	var reasons []string
	reasons = append(reasons, detailsReasons(r)...)
	reasons = append(reasons, playerStatsReasons(r)...)
	if len(reasons) == 0 {
		return nil
	}
	return &StepBlocked{Step: StepReview, Reasons: reasons}
}
