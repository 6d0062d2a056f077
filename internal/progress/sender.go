package progress

// Sender is a cheap-to-clone handle that tries to send ProgressUpdate
// messages for one item onto a shared, bounded channel. Per spec §4.10,
// back-pressure is explicitly rejected: if the channel is full the update
// is dropped silently rather than blocking the worker goroutine that owns
// this item's apply/clean/discover execution.
type Sender struct {
	itemID string
	ch     chan<- UpdateAndID
}

// NewSender returns a Sender bound to itemID, writing onto ch.
func NewSender(itemID string, ch chan<- UpdateAndID) *Sender {
	return &Sender{itemID: itemID, ch: ch}
}

// trySend is the single non-blocking send path every helper below funnels
// through.
func (s *Sender) trySend(u Update) {
	if s == nil || s.ch == nil {
		return
	}
	select {
	case s.ch <- UpdateAndID{ItemID: s.itemID, Update: u}:
	default:
		// Channel full: drop. See spec §4.10 "back-pressure is explicitly
		// rejected to avoid blocking worker tasks".
	}
}

// Limit announces the progress limit once ExecRequired is known. A nil
// limit renders as a spinner rather than a bar.
func (s *Sender) Limit(limit *uint64) {
	s.trySend(Update{Kind: UpdateLimit, Limit: limit})
}

// Tick advances progress by an unknown amount.
func (s *Sender) Tick() {
	s.trySend(Update{Kind: UpdateDelta, Delta: Delta{Kind: Tick}})
}

// Inc advances progress by n units.
func (s *Sender) Inc(n uint64) {
	s.trySend(Update{Kind: UpdateDelta, Delta: Delta{Kind: Inc, N: n}})
}

// Message attaches a human-readable status line, independent of the
// Limit/Delta/Complete sequence.
func (s *Sender) Message(msg string) {
	s.trySend(Update{Kind: UpdateMessage, Message: msg})
}

// Complete announces the terminal outcome for this item.
func (s *Sender) Complete(outcome CompleteOutcome) {
	s.trySend(Update{Kind: UpdateComplete, Complete: outcome})
}
