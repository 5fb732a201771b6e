package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Side identifies which half of the map a team plays on.
type Side string

const (
	SideBlue Side = "BLUE"
	SideRed  Side = "RED"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBlue {
		return SideRed
	}
	return SideBlue
}

func (s Side) valid() bool {
	return s == SideBlue || s == SideRed
}

// MatchMode distinguishes matches involving one of our managed teams from
// matches between two arbitrary teams we are only tracking.
type MatchMode string

const (
	ModeOwn      MatchMode = "own"
	ModeExternal MatchMode = "external"
)

// ScrimType categorizes a match.
type ScrimType string

const (
	ScrimTypeScrimmage  ScrimType = "SCRIMMAGE"
	ScrimTypeTournament ScrimType = "TOURNAMENT"
	ScrimTypeRanked     ScrimType = "RANKED"
)

func (t ScrimType) valid() bool {
	switch t {
	case ScrimTypeScrimmage, ScrimTypeTournament, ScrimTypeRanked:
		return true
	}
	return false
}

// Outcome is a match result from our team's perspective (own mode only).
type Outcome string

const (
	OutcomeVictory Outcome = "VICTORY"
	OutcomeDefeat  Outcome = "DEFEAT"
)

// Hero is a catalog entry.
type Hero struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Team is a resolved team as returned by the team directory.
type Team struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Category     string `json:"category"`
}

// NewTeamDraft is a team the operator typed in but which has not been
// persisted yet. It is resolved to a real team id during submission.
type NewTeamDraft struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Category     string `json:"category"`
}

// MaxAbbreviationLen mirrors the persistence-layer column limit.
const MaxAbbreviationLen = 10

// Complete reports whether the draft carries everything needed to create
// the team at submission time.
func (n NewTeamDraft) Complete() bool {
	return n.Name != "" && n.Abbreviation != "" &&
		len(n.Abbreviation) <= MaxAbbreviationLen && n.Category != ""
}

// TeamSlot holds either a resolved team id or a pending new-team draft,
// never both.
type TeamSlot struct {
	TeamID  int           `json:"teamId,omitempty"`
	NewTeam *NewTeamDraft `json:"newTeam,omitempty"`
}

func (ts TeamSlot) Resolved() bool { return ts.TeamID > 0 }

func (ts TeamSlot) Empty() bool { return ts.TeamID == 0 && ts.NewTeam == nil }

// Filled reports whether the slot can satisfy the Details gate: either a
// resolved id or a complete pending definition.
func (ts TeamSlot) Filled() bool {
	if ts.Resolved() {
		return true
	}
	return ts.NewTeam != nil && ts.NewTeam.Complete()
}

// PlayerRef is either a resolved player id or a free-typed IGN awaiting
// resolution. Unresolved refs are excluded from submission.
type PlayerRef struct {
	PlayerID int    `json:"playerId,omitempty"`
	IGN      string `json:"ign,omitempty"`
}

func (p PlayerRef) Resolved() bool { return p.PlayerID > 0 }

func (p PlayerRef) Empty() bool { return p.PlayerID == 0 && p.IGN == "" }

// Role is an in-game position.
type Role string

const (
	RoleJungler Role = "JUNGLER"
	RoleMid     Role = "MID"
	RoleRoamer  Role = "ROAMER"
	RoleExp     Role = "EXP"
	RoleGold    Role = "GOLD"
	RoleFlex    Role = "FLEX"
)

// SlotStats are the user-authored performance fields of a player slot.
// They survive roster refreshes.
type SlotStats struct {
	HeroID       int    `json:"heroId,omitempty"`
	Kills        int    `json:"kills"`
	Deaths       int    `json:"deaths"`
	Assists      int    `json:"assists"`
	DamageDealt  int    `json:"damageDealt,omitempty"`
	DamageTaken  int    `json:"damageTaken,omitempty"`
	TurretDamage int    `json:"turretDamage,omitempty"`
	GoldEarned   int    `json:"goldEarned,omitempty"`
	PickOrder    int    `json:"pickOrder,omitempty"`
	Medal        string `json:"medal,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Empty reports whether every performance field is still at its default.
func (s SlotStats) Empty() bool {
	return s == SlotStats{}
}

// KDA computes (kills+assists)/deaths, with zero deaths counting as one
// perfect game rather than dividing by zero.
func (s SlotStats) KDA() float64 {
	if s.Deaths == 0 {
		return float64(s.Kills + s.Assists)
	}
	return float64(s.Kills+s.Assists) / float64(s.Deaths)
}

// PlayerSlot is one of the ten box-score rows. Player and Role are
// roster-derived; Stats is user-authored.
type PlayerSlot struct {
	Player PlayerRef `json:"player"`
	Role   Role      `json:"role,omitempty"`
	Stats  SlotStats `json:"stats"`
}

func (s *PlayerSlot) clearIdentity() {
	s.Player = PlayerRef{}
	s.Role = ""
}

// SlotRef addresses one player slot.
type SlotRef struct {
	Side  Side `json:"side"`
	Index int  `json:"index"`
}

// Attachment is an opaque file handle queued for submission.
type Attachment struct {
	ID       string `json:"id"`
	FileURL  string `json:"fileUrl"`
	FileType string `json:"fileType"`
}

// Scheduling carries the match metadata entered at the Details step.
type Scheduling struct {
	Date      time.Time     `json:"date"`
	Duration  time.Duration `json:"duration"`
	ScrimType ScrimType     `json:"scrimType,omitempty"`
	Notes     string        `json:"notes,omitempty"`
}

// TeamSelections holds both addressing schemes; which fields matter depends
// on the record's mode.
type TeamSelections struct {
	// External mode: sides are picked directly.
	Blue TeamSlot `json:"blue"`
	Red  TeamSlot `json:"red"`
	// Own mode: our team plus an opponent, with an explicit side assignment.
	Ours     TeamSlot `json:"ours"`
	Opponent TeamSlot `json:"opponent"`
	OurSide  Side     `json:"ourSide,omitempty"`
}

// OutcomeSelection records the winner. Own mode stores the result from our
// team's perspective; external mode stores the winning side, reconciled
// from the operator's winning-team choice.
type OutcomeSelection struct {
	OurResult  Outcome `json:"ourResult,omitempty"`
	WinnerSide Side    `json:"winnerSide,omitempty"`
}

// Record is the single mutable draft being edited through the workflow.
// It is owned by exactly one workflow loop and consumed at most once by
// submission.
type Record struct {
	ID         uuid.UUID        `json:"id"`
	Scheduling Scheduling       `json:"scheduling"`
	Mode       MatchMode        `json:"mode"`
	Teams      TeamSelections   `json:"teams"`
	Outcome    OutcomeSelection `json:"outcome"`

	// TrackDraft is captured once at the Details step and decides whether
	// the Draft step exists at all.
	TrackDraft bool        `json:"trackDraft"`
	Draft      *DraftState `json:"draft,omitempty"`

	BlueSlots [RosterSize]PlayerSlot `json:"blueSlots"`
	RedSlots  [RosterSize]PlayerSlot `json:"redSlots"`

	MVP     *SlotRef `json:"mvp,omitempty"`
	MVPLoss *SlotRef `json:"mvpLoss,omitempty"`

	Attachments []Attachment `json:"attachments,omitempty"`

	// Non-fatal warnings from roster/catalog reads, keyed by side.
	RosterWarnings map[Side]string `json:"rosterWarnings,omitempty"`
	CatalogWarning string          `json:"catalogWarning,omitempty"`
}

// RosterSize is the number of player slots per side.
const RosterSize = 5

// NewRecord returns an empty record for a fresh workflow.
func NewRecord() *Record {
	return &Record{
		ID:             uuid.New(),
		Mode:           ModeOwn,
		RosterWarnings: make(map[Side]string),
	}
}

// Slots returns the slot array for a side.
func (r *Record) Slots(side Side) *[RosterSize]PlayerSlot {
	if side == SideBlue {
		return &r.BlueSlots
	}
	return &r.RedSlots
}

// Slot returns one slot, or nil if the address is out of range.
func (r *Record) Slot(ref SlotRef) *PlayerSlot {
	if !ref.Side.valid() || ref.Index < 0 || ref.Index >= RosterSize {
		return nil
	}
	return &r.Slots(ref.Side)[ref.Index]
}

// TeamFor returns the team slot occupying a side under the current mode.
func (r *Record) TeamFor(side Side) TeamSlot {
	if r.Mode == ModeExternal {
		if side == SideBlue {
			return r.Teams.Blue
		}
		return r.Teams.Red
	}
	if r.Teams.OurSide == "" {
		return TeamSlot{}
	}
	if side == r.Teams.OurSide {
		return r.Teams.Ours
	}
	return r.Teams.Opponent
}

// WinnerSide resolves the winning side under the current mode, or "" if
// the outcome has not been chosen yet.
func (r *Record) WinnerSide() Side {
	if r.Mode == ModeExternal {
		return r.Outcome.WinnerSide
	}
	if r.Teams.OurSide == "" || r.Outcome.OurResult == "" {
		return ""
	}
	if r.Outcome.OurResult == OutcomeVictory {
		return r.Teams.OurSide
	}
	return r.Teams.OurSide.Opposite()
}

// Clone deep-copies the record so submission can work on a stable snapshot
// while the loop keeps the original.
func (r *Record) Clone() *Record {
	c := *r
	if r.Draft != nil {
		c.Draft = r.Draft.clone()
	}
	if r.Teams.Blue.NewTeam != nil {
		nt := *r.Teams.Blue.NewTeam
		c.Teams.Blue.NewTeam = &nt
	}
	if r.Teams.Red.NewTeam != nil {
		nt := *r.Teams.Red.NewTeam
		c.Teams.Red.NewTeam = &nt
	}
	if r.Teams.Ours.NewTeam != nil {
		nt := *r.Teams.Ours.NewTeam
		c.Teams.Ours.NewTeam = &nt
	}
	if r.Teams.Opponent.NewTeam != nil {
		nt := *r.Teams.Opponent.NewTeam
		c.Teams.Opponent.NewTeam = &nt
	}
	if r.MVP != nil {
		ref := *r.MVP
		c.MVP = &ref
	}
	if r.MVPLoss != nil {
		ref := *r.MVPLoss
		c.MVPLoss = &ref
	}
	c.Attachments = append([]Attachment(nil), r.Attachments...)
	c.RosterWarnings = make(map[Side]string, len(r.RosterWarnings))
	for k, v := range r.RosterWarnings {
		c.RosterWarnings[k] = v
	}
	return &c
}
