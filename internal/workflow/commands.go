package workflow

import "time"

// Command is the interface for all commands sent to a workflow loop.
type Command interface {
	command() // marker method
}

// TeamSlotKey addresses one of the record's team selection slots.
type TeamSlotKey string

const (
	TeamKeyBlue     TeamSlotKey = "blue"     // external mode
	TeamKeyRed      TeamSlotKey = "red"      // external mode
	TeamKeyOurs     TeamSlotKey = "ours"     // own mode
	TeamKeyOpponent TeamSlotKey = "opponent" // own mode
)

// SetScheduling updates the Details-step metadata.
type SetScheduling struct {
	Date      time.Time
	Duration  time.Duration
	ScrimType ScrimType
	Notes     string
	Response  chan error
}

func (SetScheduling) command() {}

// SetMode switches between own-team and external matches. Rosters for both
// sides are re-derived afterwards.
type SetMode struct {
	Mode     MatchMode
	Response chan error
}

func (SetMode) command() {}

// SetTrackDraft captures the one-time draft opt-in. Only valid while the
// workflow is on the Details step.
type SetTrackDraft struct {
	Enabled  bool
	Format   int // bans per side when enabling; ignored otherwise
	Response chan error
}

func (SetTrackDraft) command() {}

// SetTeam assigns a resolved team id or a pending new-team draft to a
// selection slot. Exactly one of TeamID / NewTeam may be set; both empty
// clears the slot.
type SetTeam struct {
	Key      TeamSlotKey
	TeamID   int
	NewTeam  *NewTeamDraft
	Response chan error
}

func (SetTeam) command() {}

// SetOurSide assigns the side our team played on (own mode).
type SetOurSide struct {
	Side     Side
	Response chan error
}

func (SetOurSide) command() {}

// SetOwnResult records victory/defeat from our team's perspective (own mode).
type SetOwnResult struct {
	Result   Outcome
	Response chan error
}

func (SetOwnResult) command() {}

// SetExternalWinner records the winning team of an external match, either
// by side or by team id. A side works for pending new teams that have no
// id yet; an id must match one of the two selected teams.
type SetExternalWinner struct {
	Side     Side // takes precedence when set
	TeamID   int
	Response chan error
}

func (SetExternalWinner) command() {}

// SetDraftFormat changes the ban count, truncating bans past a smaller count.
type SetDraftFormat struct {
	Format   int
	Response chan error
}

func (SetDraftFormat) command() {}

// SetDraftHero commits a hero to one ban or pick slot. Hero zero clears it.
type SetDraftHero struct {
	Kind     SlotKind
	Side     Side
	Index    int
	HeroID   int
	Response chan error
}

func (SetDraftHero) command() {}

// SetSlotPlayer overrides a slot's identity by hand, e.g. after a failed
// roster fetch.
type SetSlotPlayer struct {
	Ref      SlotRef
	Player   PlayerRef
	Role     Role
	Response chan error
}

func (SetSlotPlayer) command() {}

// SetSlotStats replaces a slot's user-authored performance fields.
type SetSlotStats struct {
	Ref      SlotRef
	Stats    SlotStats
	Response chan error
}

func (SetSlotStats) command() {}

// SetAwards assigns the MVP and MVP-of-the-losing-side slots. Nil clears.
type SetAwards struct {
	MVP      *SlotRef
	MVPLoss  *SlotRef
	Response chan error
}

func (SetAwards) command() {}

// AddAttachment queues a file handle for submission.
type AddAttachment struct {
	Attachment Attachment
	Response   chan error
}

func (AddAttachment) command() {}

// RemoveAttachment drops a queued file handle.
type RemoveAttachment struct {
	ID       string
	Response chan error
}

func (RemoveAttachment) command() {}

// Advance requests the next step, subject to the current step's gate.
type Advance struct {
	Response chan error
}

func (Advance) command() {}

// Back requests the previous step. Never gated.
type Back struct {
	Response chan error
}

func (Back) command() {}

// JumpTo navigates directly to an earlier step from the review screen.
type JumpTo struct {
	Step     Step
	Response chan error
}

func (JumpTo) command() {}

// Submit consumes the record. Valid only from Review. The final result is
// delivered via a SubmissionSucceeded or SubmissionFailed event and the
// snapshot's Result field.
type Submit struct {
	Response chan error
}

func (Submit) command() {}

// GetSnapshot reads the loop's state without racing it.
type GetSnapshot struct {
	Reply chan Snapshot
}

func (GetSnapshot) command() {}

// GetAvailableHeroes computes the selectable set for one draft slot.
type GetAvailableHeroes struct {
	Kind  SlotKind
	Side  Side
	Index int
	Reply chan []Hero
}

func (GetAvailableHeroes) command() {}

// rosterFetched is posted by a fetch goroutine when a team roster resolves.
// Gen pins it to the selection that requested it; stale results are dropped.
type rosterFetched struct {
	Side    Side
	TeamID  int
	Gen     uint64
	Players []RosterPlayer
	Err     error
}

func (rosterFetched) command() {}

// heroesFetched is posted when the hero catalog read resolves.
type heroesFetched struct {
	Heroes []Hero
	Err    error
}

func (heroesFetched) command() {}

// submissionFinished is posted by the submission goroutine.
type submissionFinished struct {
	Result *SubmissionResult
	Err    error
}

func (submissionFinished) command() {}
