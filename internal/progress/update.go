// Package progress implements the per-item progress subsystem described
// in spec §4.10: a tracker state machine per item, a cheap-to-clone
// sender that never blocks a worker, and the update vocabulary
// (Limit/Delta/Complete/message) the renderer consumes in order.
package progress

// DeltaKind distinguishes a plain tick (progress advanced by an unknown
// amount, used to animate a spinner) from a known increment.
type DeltaKind int

const (
	// Tick indicates progress advanced without a known quantity.
	Tick DeltaKind = iota
	// Inc indicates progress advanced by a known quantity.
	Inc
)

// Delta is a progress advancement.
type Delta struct {
	Kind DeltaKind
	N    uint64 // meaningful only when Kind == Inc
}

// CompleteOutcome is the terminal state of one item's execution.
type CompleteOutcome int

const (
	// Success indicates the item's apply/clean/discover finished without error.
	Success CompleteOutcome = iota
	// Fail indicates the item's apply/clean/discover returned an error.
	Fail
)

// UpdateKind distinguishes the four shapes of ProgressUpdate.
type UpdateKind int

const (
	UpdateLimit UpdateKind = iota
	UpdateDelta
	UpdateComplete
	UpdateMessage
)

// Update is one message sent over the progress channel for a single item.
// Exactly one of the typed fields is meaningful, selected by Kind.
type Update struct {
	Kind     UpdateKind
	Limit    *uint64 // UpdateLimit: nil means unknown limit (spinner)
	Delta    Delta    // UpdateDelta
	Complete CompleteOutcome // UpdateComplete
	Message  string   // UpdateMessage: optional human-readable line
}

// UpdateAndID pairs an Update with the item id it concerns, the unit
// that travels over the shared progress channel so the renderer and
// command engine can demultiplex per item (spec §4.9 step 3b/3c and
// §4.10 "Progress events for distinct items may interleave").
type UpdateAndID struct {
	ItemID string
	Update Update
}
