// Package states holds the per-item State and StateDiff maps produced by
// the command engine (spec §4.6): States (one per item id, boxed and
// tagged by its registry tag) and StateDiffs (same shape, for diffs).
// Unlike internal/resources (keyed by Go type, unordered), these maps are
// keyed by item id and preserve insertion order, since states are
// rendered and persisted in the order items were declared in the flow.
//
// Grounded on crate/rt_model_core/src/states/mod.rs, whose States<TS>
// wraps an IndexMap<ItemId, BoxDtDisplay> — an order-preserving map,
// translated here as a slice-of-keys-plus-map pair since Go has no
// ordered-map type in its standard library or in anything the example
// pack imports (design note §9).
package states

import (
	"github.com/peaceflow/peace/internal/itemspec"
	"github.com/peaceflow/peace/internal/typeregistry"
)

// Phase distinguishes the seven fixed states maps can be in (spec §4.6):
// Saved (on disk from a prior run), Current (freshly discovered),
// Desired (freshly computed), Ensured/EnsuredDry (post-apply), and
// Cleaned/CleanedDry (post-clean).
type Phase interface{ phaseName() string }

type phaseTag string

func (p phaseTag) phaseName() string { return string(p) }

type Saved struct{ phaseTag }
type Current struct{ phaseTag }
type Desired struct{ phaseTag }
type Ensured struct{ phaseTag }
type EnsuredDry struct{ phaseTag }
type Cleaned struct{ phaseTag }
type CleanedDry struct{ phaseTag }

// SavedDiffs/CurrentDiffs tag StateDiffs maps (spec §4.6): the
// difference between states-saved and states-desired (what engine.Diff
// computes), and between states-current and states-desired, respectively.
type SavedDiffs struct{ phaseTag }
type CurrentDiffs struct{ phaseTag }

// Entry is one item's boxed, tagged state value in insertion order.
type Entry struct {
	ID    itemspec.ID
	Tag   string
	Value typeregistry.Boxed
}

// Map is an ordered, read-only collection of one boxed value per item
// id, produced by Freeze.
type Map[P Phase] struct {
	entries []Entry
	index   map[itemspec.ID]int
}

// Builder accumulates entries in insertion order before Freeze.
type Builder struct {
	entries []Entry
	index   map[itemspec.ID]int
}

// NewBuilder starts an empty states builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[itemspec.ID]int)}
}

// Insert records id's boxed value under tag, overwriting any previous
// entry for id in place (preserving its original position) rather than
// appending a second entry.
func (b *Builder) Insert(id itemspec.ID, tag string, value typeregistry.Boxed) {
	if i, ok := b.index[id]; ok {
		b.entries[i] = Entry{ID: id, Tag: tag, Value: value}
		return
	}
	b.index[id] = len(b.entries)
	b.entries = append(b.entries, Entry{ID: id, Tag: tag, Value: value})
}

// Len reports how many entries have been inserted so far.
func (b *Builder) Len() int { return len(b.entries) }

// Freeze finalizes the builder into a Saved-phase Map. Callers then use
// Into* to retag it with the phase it actually represents.
func Freeze(b *Builder) Map[Saved] {
	entries := make([]Entry, len(b.entries))
	copy(entries, b.entries)
	index := make(map[itemspec.ID]int, len(b.index))
	for k, v := range b.index {
		index[k] = v
	}
	return Map[Saved]{entries: entries, index: index}
}

// Get returns id's boxed value and whether it was present.
func (m Map[P]) Get(id itemspec.ID) (typeregistry.Boxed, bool) {
	i, ok := m.index[id]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// Tag returns id's registry tag and whether it was present.
func (m Map[P]) Tag(id itemspec.ID) (string, bool) {
	i, ok := m.index[id]
	if !ok {
		return "", false
	}
	return m.entries[i].Tag, true
}

// Entries returns every entry in insertion order.
func (m Map[P]) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len reports the number of entries.
func (m Map[P]) Len() int { return len(m.entries) }

func into[P1, P2 Phase](m Map[P1]) Map[P2] {
	return Map[P2]{entries: m.entries, index: m.index}
}

func IntoCurrent(m Map[Saved]) Map[Current]       { return into[Saved, Current](m) }
func IntoDesired(m Map[Saved]) Map[Desired]       { return into[Saved, Desired](m) }
func IntoEnsured(m Map[Current]) Map[Ensured]     { return into[Current, Ensured](m) }
func IntoEnsuredDry(m Map[Current]) Map[EnsuredDry] { return into[Current, EnsuredDry](m) }
func IntoCleaned(m Map[Current]) Map[Cleaned]     { return into[Current, Cleaned](m) }
func IntoCleanedDry(m Map[Current]) Map[CleanedDry] { return into[Current, CleanedDry](m) }
func IntoSaved(m Map[Current]) Map[Saved]         { return into[Current, Saved](m) }

// IntoSavedDiffs and IntoCurrentDiffs tag a freshly built diffs map with
// which pair of states maps it was computed from.
func IntoSavedDiffs(m Map[Saved]) Map[SavedDiffs]     { return into[Saved, SavedDiffs](m) }
func IntoCurrentDiffs(m Map[Saved]) Map[CurrentDiffs] { return into[Saved, CurrentDiffs](m) }
