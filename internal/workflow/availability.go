package workflow

import "sort"

// SlotKind distinguishes ban slots from pick slots.
type SlotKind string

const (
	SlotKindPick SlotKind = "pick"
	SlotKindBan  SlotKind = "ban"
)

// AvailableHeroes returns the catalog minus every hero committed to any
// other ban or pick slot. The hero currently occupying the target slot is
// always included so reopening a selector still offers its own value.
// Bans and picks share one exclusion set: a banned hero cannot be picked
// and a picked hero cannot be banned or picked again.
func AvailableHeroes(catalog []Hero, d *DraftState, kind SlotKind, side Side, index int) []Hero {
	if d == nil {
		out := append([]Hero(nil), catalog...)
		sortHeroes(out)
		return out
	}

	used := d.UsedHeroes()
	current := d.heroAt(kind, side, index)

	out := make([]Hero, 0, len(catalog))
	for _, h := range catalog {
		if used[h.ID] && h.ID != current {
			continue
		}
		out = append(out, h)
	}
	sortHeroes(out)
	return out
}

func (d *DraftState) heroAt(kind SlotKind, side Side, index int) int {
	switch kind {
	case SlotKindPick:
		if index >= 0 && index < RosterSize {
			return d.picks(side)[index]
		}
	case SlotKindBan:
		if index >= 0 && index < d.Format {
			return d.bans(side)[index]
		}
	}
	return 0
}

func sortHeroes(heroes []Hero) {
	sort.Slice(heroes, func(i, j int) bool { return heroes[i].Name < heroes[j].Name })
}
