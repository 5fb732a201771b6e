package workflow

// RosterPlayer is one entry from the roster lookup collaborator. Roster
// order defines the positional slot mapping.
type RosterPlayer struct {
	ID   int    `json:"id"`
	IGN  string `json:"ign"`
	Role Role   `json:"role,omitempty"`
}

// SyncSlots overwrites the roster-derived fields of a side's slots from a
// freshly fetched roster, preserving user-authored performance stats.
//
// A slot whose roster position is filled gets that player's identity and
// role. A slot with no backing position, or a side with no team, has only
// its identity cleared; stats the operator already typed stay put so a
// team change never silently discards entered numbers.
func SyncSlots(slots *[RosterSize]PlayerSlot, roster []RosterPlayer, hasTeam bool) {
	for i := range slots {
		if !hasTeam || i >= len(roster) {
			slots[i].clearIdentity()
			continue
		}
		p := roster[i]
		slots[i].Player = PlayerRef{PlayerID: p.ID, IGN: p.IGN}
		slots[i].Role = p.Role
	}
}
