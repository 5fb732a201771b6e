package workflow

import "errors"

var (
	ErrHeroTaken       = errors.New("hero already committed to another slot")
	ErrBadSlot         = errors.New("slot out of range")
	ErrBadDraftFormat  = errors.New("unsupported ban format")
	ErrDraftNotTracked = errors.New("draft tracking is disabled")
)

// MaxBans is the largest supported ban count per side.
const MaxBans = 5

// DraftState holds the ban/pick board. A zero hero id means the slot is
// empty. Bans beyond Format are always empty.
type DraftState struct {
	Format    int             `json:"format"`
	BluePicks [RosterSize]int `json:"bluePicks"`
	RedPicks  [RosterSize]int `json:"redPicks"`
	BlueBans  [MaxBans]int    `json:"blueBans"`
	RedBans   [MaxBans]int    `json:"redBans"`
	Notes     string          `json:"notes,omitempty"`
}

// NewDraftState returns a board with the given ban format (3 or 5).
func NewDraftState(format int) (*DraftState, error) {
	if format != 3 && format != 5 {
		return nil, ErrBadDraftFormat
	}
	return &DraftState{Format: format}, nil
}

func (d *DraftState) picks(side Side) *[RosterSize]int {
	if side == SideBlue {
		return &d.BluePicks
	}
	return &d.RedPicks
}

func (d *DraftState) bans(side Side) *[MaxBans]int {
	if side == SideBlue {
		return &d.BlueBans
	}
	return &d.RedBans
}

// SetFormat changes the ban count. Shrinking truncates bans past the new
// count; growing leaves the new slots empty.
func (d *DraftState) SetFormat(format int) error {
	if format != 3 && format != 5 {
		return ErrBadDraftFormat
	}
	d.Format = format
	for i := format; i < MaxBans; i++ {
		d.BlueBans[i] = 0
		d.RedBans[i] = 0
	}
	return nil
}

// SetPick commits a hero to a pick slot. Hero zero clears the slot.
// A hero already committed anywhere else on the board is rejected.
func (d *DraftState) SetPick(side Side, index, heroID int) error {
	if !side.valid() || index < 0 || index >= RosterSize {
		return ErrBadSlot
	}
	if heroID != 0 && d.heroUsedElsewhere(heroID, SlotKindPick, side, index) {
		return ErrHeroTaken
	}
	d.picks(side)[index] = heroID
	return nil
}

// SetBan commits a hero to a ban slot, subject to the same exclusivity.
func (d *DraftState) SetBan(side Side, index, heroID int) error {
	if !side.valid() || index < 0 || index >= d.Format {
		return ErrBadSlot
	}
	if heroID != 0 && d.heroUsedElsewhere(heroID, SlotKindBan, side, index) {
		return ErrHeroTaken
	}
	d.bans(side)[index] = heroID
	return nil
}

// UsedHeroes returns every hero id committed to any pick or ban slot.
func (d *DraftState) UsedHeroes() map[int]bool {
	used := make(map[int]bool)
	for _, side := range []Side{SideBlue, SideRed} {
		for _, id := range d.picks(side) {
			if id != 0 {
				used[id] = true
			}
		}
		for i := 0; i < d.Format; i++ {
			if id := d.bans(side)[i]; id != 0 {
				used[id] = true
			}
		}
	}
	return used
}

// heroUsedElsewhere checks every slot except the one being written.
func (d *DraftState) heroUsedElsewhere(heroID int, kind SlotKind, side Side, index int) bool {
	for _, s := range []Side{SideBlue, SideRed} {
		for i, id := range d.picks(s) {
			if id == heroID && !(kind == SlotKindPick && s == side && i == index) {
				return true
			}
		}
		for i := 0; i < d.Format; i++ {
			if d.bans(s)[i] == heroID && !(kind == SlotKindBan && s == side && i == index) {
				return true
			}
		}
	}
	return false
}

func (d *DraftState) clone() *DraftState {
	c := *d
	return &c
}
