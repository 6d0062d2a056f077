// Package peaceerrors defines the error kinds surfaced by the engine.
//
// Errors are grouped the way spec §7 groups them: Configuration, Storage,
// Item, BorrowConflict, and Workspace. Each kind is a concrete type so
// callers can use errors.As to recover structured detail instead of
// matching on strings.
package peaceerrors

import (
	"fmt"
)

// Configuration indicates an illegal builder or graph configuration, such
// as an illegal scope, an edge to an unknown item, or a missing params
// key. Invalid ids, cycles and duplicate item ids have their own kinds
// (InvalidID, WouldCycle, DuplicateItemID).
type Configuration struct {
	Reason string
}

func (e *Configuration) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// WouldCycle indicates that building a flow graph would introduce a cycle.
type WouldCycle struct {
	// Edges names, in "from -> to" form, every edge whose target item
	// could not be ordered: the cycle's own edges plus any edges from the
	// cycle to items downstream of it.
	Edges []string
}

func (e *WouldCycle) Error() string {
	return fmt.Sprintf("flow graph would cycle: %v", e.Edges)
}

// DuplicateItemID indicates two items in the same flow share an ID.
type DuplicateItemID struct {
	ID string
}

func (e *DuplicateItemID) Error() string {
	return fmt.Sprintf("duplicate item id in flow: %s", e.ID)
}

// InvalidID indicates an item id, profile, flow id, or app name failed
// validation. Item ids allow letters, digits and underscore; profiles,
// flow ids and app names also allow hyphen. None may be empty.
type InvalidID struct {
	Kind  string // "item", "profile", "flow", "app"
	Value string
}

func (e *InvalidID) Error() string {
	allowed := "letters, digits, underscore or hyphen"
	if e.Kind == "item" {
		allowed = "letters, digits or underscore"
	}
	return fmt.Sprintf("invalid %s id %q: must be non-empty and use only %s", e.Kind, e.Value, allowed)
}

// StatesDeserialize indicates a malformed on-disk YAML file.
type StatesDeserialize struct {
	FlowID  string
	Line    int
	Column  int
	Message string
}

func (e *StatesDeserialize) Error() string {
	return fmt.Sprintf("failed to deserialize states for flow %q at %d:%d: %s", e.FlowID, e.Line, e.Column, e.Message)
}

// StorageIO wraps an I/O failure from the serialization layer.
type StorageIO struct {
	Path string
	Err  error
}

func (e *StorageIO) Error() string {
	return fmt.Sprintf("storage I/O failure for %s: %v", e.Path, e.Err)
}

func (e *StorageIO) Unwrap() error { return e.Err }

// ItemNotFound indicates a requested item id was absent from stored state.
type ItemNotFound struct {
	ID string
}

func (e *ItemNotFound) Error() string {
	return fmt.Sprintf("item not found in storage: %s", e.ID)
}

// ItemFailure wraps a domain error raised by an item spec, with the item
// id attached so the engine can aggregate per-item failures.
type ItemFailure struct {
	ItemID string
	Cause  error
}

func (e *ItemFailure) Error() string {
	return fmt.Sprintf("item %q failed: %v", e.ItemID, e.Cause)
}

func (e *ItemFailure) Unwrap() error { return e.Cause }

// BorrowConflict indicates the Resources map's runtime borrow rules were
// violated — an exclusive borrow was requested while another borrow of the
// same type was active, or vice versa. This is a programmer error and is
// not expected to be recovered from.
type BorrowConflict struct {
	TypeName string
}

func (e *BorrowConflict) Error() string {
	return fmt.Sprintf("borrow conflict on resource type %s", e.TypeName)
}

// Workspace indicates the sentinel file used for workspace-root discovery
// was not found, or the current directory is unreadable/unwritable.
type Workspace struct {
	Reason string
}

func (e *Workspace) Error() string {
	return fmt.Sprintf("workspace error: %s", e.Reason)
}
