// Package cmdctx builds the runtime configuration object every engine
// command runs against (spec §4.8): resolved workspace/profile/flow
// directories, merged params, the flow's item graph set up against a
// fresh Resources map, and — for the single-profile-single-flow scope —
// deserialized saved states and per-item progress trackers.
//
// Spec §4.8 describes six type-state-tracked choices collapsing into
// five legal scopes, rejected at compile time in the original. Go
// generics cannot express that many mutually-exclusive type parameters
// without sixteen permutations of Builder, so this Builder validates the
// same five scopes at runtime instead (design note §9 option (b)),
// returning peaceerrors.Configuration for anything illegal — e.g.
// FromWorkspaceParam combined with a multi-profile filter.
//
// Grounded on crate/cmd/src/ctx/cmd_ctx_builder.rs's staged build
// sequence and crate/cmd/src/scopes/type_params/profile_params_selection.rs's
// closed ProfileSelection cases.
package cmdctx

import "github.com/peaceflow/peace/internal/itemspec"

// ProfileSelection is a closed sum type naming how the profile(s) for a
// command run are chosen (spec §4.8).
type ProfileSelection interface{ isProfileSelection() }

// ProfileNotSelected means no profile scoping: the NoProfileNoFlow scope.
type ProfileNotSelected struct{}

func (ProfileNotSelected) isProfileSelection() {}

// ProfileSelected names exactly one profile literally.
type ProfileSelected struct{ Profile itemspec.Profile }

func (ProfileSelected) isProfileSelection() {}

// ProfileFromWorkspaceParam resolves the single active profile by
// looking up Key in the deserialized workspace params map.
type ProfileFromWorkspaceParam struct{ Key string }

func (ProfileFromWorkspaceParam) isProfileSelection() {}

// ProfileFilter lists every profile directory under the app dir and
// keeps those for which Predicate returns true — a multi-profile
// selection, incompatible with SingleProfileSingleFlow.
type ProfileFilter struct{ Predicate func(itemspec.Profile) bool }

func (ProfileFilter) isProfileSelection() {}

// FlowSelection is a closed sum type naming whether a flow is in scope.
type FlowSelection interface{ isFlowSelection() }

// FlowNotSelected means no flow scoping (NoProfileNoFlow / *NoFlow scopes).
type FlowNotSelected struct{}

func (FlowNotSelected) isFlowSelection() {}

// FlowSelected names exactly one flow.
type FlowSelected struct{ Flow itemspec.FlowID }

func (FlowSelected) isFlowSelection() {}

// Scope names which of the five legal combinations a built Context
// represents (spec §4.8).
type Scope int

const (
	ScopeNoProfileNoFlow Scope = iota
	ScopeSingleProfileNoFlow
	ScopeMultiProfileNoFlow
	ScopeSingleProfileSingleFlow
	ScopeMultiProfileSingleFlow
)

func (s Scope) String() string {
	switch s {
	case ScopeNoProfileNoFlow:
		return "NoProfileNoFlow"
	case ScopeSingleProfileNoFlow:
		return "SingleProfileNoFlow"
	case ScopeMultiProfileNoFlow:
		return "MultiProfileNoFlow"
	case ScopeSingleProfileSingleFlow:
		return "SingleProfileSingleFlow"
	case ScopeMultiProfileSingleFlow:
		return "MultiProfileSingleFlow"
	default:
		return "Unknown"
	}
}
