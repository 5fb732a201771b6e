package workflow

import (
	"strings"
	"testing"
	"time"
)

// completeOwnRecord returns a record that passes every gate in own mode.
func completeOwnRecord() *Record {
	r := NewRecord()
	r.Scheduling = Scheduling{Date: time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC), ScrimType: ScrimTypeScrimmage}
	r.Teams.Ours = TeamSlot{TeamID: 1}
	r.Teams.Opponent = TeamSlot{TeamID: 2}
	r.Teams.OurSide = SideBlue
	r.Outcome.OurResult = OutcomeVictory
	return r
}

func TestStepOrder(t *testing.T) {
	cases := []struct {
		name       string
		trackDraft bool
		cur        Step
		forward    bool
		want       Step
		wantOK     bool
	}{
		{name: "details to draft when tracking", trackDraft: true, cur: StepDetails, forward: true, want: StepDraft, wantOK: true},
		{name: "details skips draft when not tracking", cur: StepDetails, forward: true, want: StepPlayerStats, wantOK: true},
		{name: "stats back skips draft when not tracking", cur: StepPlayerStats, want: StepDetails, wantOK: true},
		{name: "stats back to draft when tracking", trackDraft: true, cur: StepPlayerStats, want: StepDraft, wantOK: true},
		{name: "review has no next", cur: StepReview, forward: true, wantOK: false},
		{name: "details has no previous", cur: StepDetails, wantOK: false},
		{name: "failed steps back to review", cur: StepFailed, want: StepReview, wantOK: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRecord()
			r.TrackDraft = tc.trackDraft
			var got Step
			var ok bool
			if tc.forward {
				got, ok = nextStep(r, tc.cur)
			} else {
				got, ok = prevStep(r, tc.cur)
			}
			if ok != tc.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Fatalf("step: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDetailsGate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(r *Record)
		want   string // substring of a blocking reason, empty means unblocked
	}{
		{name: "complete record passes", mutate: func(r *Record) {}},
		{
			name:   "missing date",
			mutate: func(r *Record) { r.Scheduling.Date = time.Time{} },
			want:   "match date",
		},
		{
			name:   "missing scrim category",
			mutate: func(r *Record) { r.Scheduling.ScrimType = "" },
			want:   "scrim category",
		},
		{
			name:   "missing outcome",
			mutate: func(r *Record) { r.Outcome.OurResult = "" },
			want:   "outcome",
		},
		{
			name:   "opponent equals our team",
			mutate: func(r *Record) { r.Teams.Opponent = TeamSlot{TeamID: 1} },
			want:   "own team",
		},
		{
			name: "pending new team satisfies the gate",
			mutate: func(r *Record) {
				r.Teams.Opponent = TeamSlot{NewTeam: &NewTeamDraft{Name: "Temp", Abbreviation: "TMP", Category: "AMATEUR"}}
			},
		},
		{
			name: "incomplete new team does not",
			mutate: func(r *Record) {
				r.Teams.Opponent = TeamSlot{NewTeam: &NewTeamDraft{Name: "Temp"}}
			},
			want: "opponent team",
		},
		{
			name: "external mode needs distinct sides",
			mutate: func(r *Record) {
				r.Mode = ModeExternal
				r.Teams.Blue = TeamSlot{TeamID: 3}
				r.Teams.Red = TeamSlot{TeamID: 3}
				r.Outcome.WinnerSide = SideBlue
			},
			want: "must differ",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := completeOwnRecord()
			tc.mutate(r)
			blocked := validateLeave(r, StepDetails)
			if tc.want == "" {
				if blocked != nil {
					t.Fatalf("expected no block, got %v", blocked)
				}
				return
			}
			if blocked == nil {
				t.Fatalf("expected block mentioning %q", tc.want)
			}
			if !strings.Contains(blocked.Error(), tc.want) {
				t.Fatalf("reasons %v do not mention %q", blocked.Reasons, tc.want)
			}
		})
	}
}

func TestPlayerStatsGate(t *testing.T) {
	t.Run("duplicate pick order blocks when draft is tracked", func(t *testing.T) {
		r := completeOwnRecord()
		r.TrackDraft = true
		r.BlueSlots[0].Stats.PickOrder = 2
		r.BlueSlots[3].Stats.PickOrder = 2
		blocked := validateLeave(r, StepPlayerStats)
		if blocked == nil || !strings.Contains(blocked.Error(), "pick order 2") {
			t.Fatalf("expected duplicate pick order block, got %v", blocked)
		}
	})

	t.Run("duplicate pick order ignored when draft is off", func(t *testing.T) {
		r := completeOwnRecord()
		r.BlueSlots[0].Stats.PickOrder = 2
		r.BlueSlots[3].Stats.PickOrder = 2
		if blocked := validateLeave(r, StepPlayerStats); blocked != nil {
			t.Fatalf("expected no block, got %v", blocked)
		}
	})

	t.Run("same award on both slots blocks", func(t *testing.T) {
		r := completeOwnRecord()
		ref := SlotRef{Side: SideBlue, Index: 0}
		r.MVP = &ref
		other := ref
		r.MVPLoss = &other
		blocked := validateLeave(r, StepPlayerStats)
		if blocked == nil || !strings.Contains(blocked.Error(), "different players") {
			t.Fatalf("expected MVP overlap block, got %v", blocked)
		}
	})
}

func TestParseStep(t *testing.T) {
	for s := StepDetails; s <= StepFailed; s++ {
		got, ok := ParseStep(s.String())
		if !ok || got != s {
			t.Fatalf("round trip failed for %v", s)
		}
	}
	if _, ok := ParseStep("nope"); ok {
		t.Fatalf("unknown name should not parse")
	}
}

func TestWinnerSideDerivation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(r *Record)
		want   Side
	}{
		{name: "own victory on blue", mutate: func(r *Record) {}, want: SideBlue},
		{
			name:   "own defeat on blue means red won",
			mutate: func(r *Record) { r.Outcome.OurResult = OutcomeDefeat },
			want:   SideRed,
		},
		{
			name:   "own victory on red",
			mutate: func(r *Record) { r.Teams.OurSide = SideRed },
			want:   SideRed,
		},
		{
			name:   "own mode without outcome",
			mutate: func(r *Record) { r.Outcome.OurResult = "" },
			want:   "",
		},
		{
			name: "external stores the side directly",
			mutate: func(r *Record) {
				r.Mode = ModeExternal
				r.Outcome.WinnerSide = SideRed
			},
			want: SideRed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := completeOwnRecord()
			tc.mutate(r)
			if got := r.WinnerSide(); got != tc.want {
				t.Fatalf("WinnerSide: got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSlotStatsKDA(t *testing.T) {
	cases := []struct {
		name  string
		stats SlotStats
		want  float64
	}{
		{name: "normal", stats: SlotStats{Kills: 4, Deaths: 2, Assists: 6}, want: 5},
		{name: "deathless uses kills plus assists", stats: SlotStats{Kills: 7, Assists: 3}, want: 10},
		{name: "zero everything", stats: SlotStats{}, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.stats.KDA(); got != tc.want {
				t.Fatalf("KDA: got %v, want %v", got, tc.want)
			}
		})
	}
}
