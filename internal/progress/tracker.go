package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/qmuntal/stateless"
)

// State names the per-item progress states from spec §4.10:
// Initialized -> ExecPending -> Running <-> RunningStalled -> UserPending
// -> Complete(Success | Fail).
type State string

const (
	StateInitialized     State = "Initialized"
	StateExecPending     State = "ExecPending"
	StateRunning         State = "Running"
	StateRunningStalled  State = "RunningStalled"
	StateUserPending     State = "UserPending"
	StateCompleteSuccess State = "CompleteSuccess"
	StateCompleteFail    State = "CompleteFail"
)

type trigger string

const (
	triggerDispatch trigger = "dispatch"
	triggerExecBegin trigger = "execBegin"
	triggerDelta     trigger = "delta"
	triggerStall     trigger = "stall"
	triggerUserWait  trigger = "userWait"
	triggerUserDone  trigger = "userDone"
	triggerSucceed   trigger = "succeed"
	triggerFail      trigger = "fail"
)

// DefaultStallWindow is how long Tracker waits without a Delta before
// transitioning to RunningStalled. Spec §9 Open Question 1 leaves the
// precise window as a reimplementation decision; this package exposes it
// as a field (see NewTracker) rather than a fixed constant.
const DefaultStallWindow = 5 * time.Second

// Tracker drives one item's progress state machine, wrapping
// github.com/qmuntal/stateless the same way the teacher's
// libs/project.Machine wraps it for project lifecycle transitions
// (libs/project/machine.go) — repurposed here for the fixed, closed set
// of states spec §4.10 names, rather than a user-configured graph.
type Tracker struct {
	mu          sync.Mutex
	itemID      string
	fsm         *stateless.StateMachine
	stallWindow time.Duration
	stallTimer  *time.Timer
	onStall     func()
	limit       *uint64
	current     uint64
}

// NewTracker builds a Tracker for itemID with the given stall window (use
// DefaultStallWindow when the caller has no preference). onStall, if
// non-nil, is invoked (from the timer goroutine) when the tracker
// transitions to RunningStalled; it is typically wired to the renderer so
// it can surface a suggestion to the user (spec §4.10).
func NewTracker(itemID string, stallWindow time.Duration, onStall func()) *Tracker {
	if stallWindow <= 0 {
		stallWindow = DefaultStallWindow
	}
	fsm := stateless.NewStateMachine(string(StateInitialized))

	fsm.Configure(string(StateInitialized)).
		Permit(stateless.Trigger(triggerDispatch), string(StateExecPending))

	fsm.Configure(string(StateExecPending)).
		Permit(stateless.Trigger(triggerExecBegin), string(StateRunning)).
		Permit(stateless.Trigger(triggerSucceed), string(StateCompleteSuccess)).
		Permit(stateless.Trigger(triggerFail), string(StateCompleteFail))

	fsm.Configure(string(StateRunning)).
		PermitReentry(stateless.Trigger(triggerDelta)).
		Permit(stateless.Trigger(triggerStall), string(StateRunningStalled)).
		Permit(stateless.Trigger(triggerUserWait), string(StateUserPending)).
		Permit(stateless.Trigger(triggerSucceed), string(StateCompleteSuccess)).
		Permit(stateless.Trigger(triggerFail), string(StateCompleteFail))

	fsm.Configure(string(StateRunningStalled)).
		Permit(stateless.Trigger(triggerDelta), string(StateRunning)).
		Permit(stateless.Trigger(triggerUserWait), string(StateUserPending)).
		Permit(stateless.Trigger(triggerSucceed), string(StateCompleteSuccess)).
		Permit(stateless.Trigger(triggerFail), string(StateCompleteFail))

	fsm.Configure(string(StateUserPending)).
		Permit(stateless.Trigger(triggerUserDone), string(StateRunning)).
		Permit(stateless.Trigger(triggerSucceed), string(StateCompleteSuccess)).
		Permit(stateless.Trigger(triggerFail), string(StateCompleteFail))

	return &Tracker{
		itemID:      itemID,
		fsm:         fsm,
		stallWindow: stallWindow,
		onStall:     onStall,
	}
}

// State returns the current tracker state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

// stateLocked reads the FSM state; callers must already hold t.mu.
func (t *Tracker) stateLocked() State {
	str, _ := t.fsm.MustState().(string)
	return State(str)
}

// Dispatch moves Initialized -> ExecPending, marking the item as
// scheduled for execution.
func (t *Tracker) Dispatch() error {
	return t.fire(triggerDispatch)
}

// ApplyLimit records the progress limit from OpCheckStatus and moves
// ExecPending -> Running.
func (t *Tracker) ApplyLimit(limit *uint64) error {
	t.mu.Lock()
	t.limit = limit
	t.mu.Unlock()
	if err := t.fire(triggerExecBegin); err != nil {
		return err
	}
	t.resetStallTimer()
	return nil
}

// Delta records a Tick or Inc update, resetting the stall timer and
// transitioning RunningStalled -> Running if the item had stalled.
func (t *Tracker) Delta(d Delta) error {
	t.mu.Lock()
	if d.Kind == Inc {
		t.current += d.N
	}
	state := t.stateLocked()
	t.mu.Unlock()

	if state == StateRunning || state == StateRunningStalled {
		if err := t.fire(triggerDelta); err != nil {
			return err
		}
	}
	t.resetStallTimer()
	return nil
}

// UserWait marks the item as waiting on user input.
func (t *Tracker) UserWait() error { return t.fire(triggerUserWait) }

// UserDone resumes execution after user input was provided.
func (t *Tracker) UserDone() error {
	if err := t.fire(triggerUserDone); err != nil {
		return err
	}
	t.resetStallTimer()
	return nil
}

// Complete transitions to the terminal state matching outcome, stopping
// the stall timer.
func (t *Tracker) Complete(outcome CompleteOutcome) error {
	t.mu.Lock()
	if t.stallTimer != nil {
		t.stallTimer.Stop()
	}
	t.mu.Unlock()

	if outcome == Success {
		return t.fire(triggerSucceed)
	}
	return t.fire(triggerFail)
}

func (t *Tracker) fire(trig trigger) error {
	t.mu.Lock()
	fsm := t.fsm
	t.mu.Unlock()
	if err := fsm.Fire(string(trig)); err != nil {
		return fmt.Errorf("progress: item %q cannot fire %q from state %q: %w", t.itemID, trig, t.State(), err)
	}
	return nil
}

func (t *Tracker) resetStallTimer() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stallTimer != nil {
		t.stallTimer.Stop()
	}
	t.stallTimer = time.AfterFunc(t.stallWindow, func() {
		_ = t.fire(triggerStall)
		if t.onStall != nil {
			t.onStall()
		}
	})
}
