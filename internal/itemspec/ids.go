// Package itemspec defines the trait surface every managed item
// implements (spec §4.3), plus the shared id types validated by spec §3.
package itemspec

import (
	"regexp"

	"github.com/peaceflow/peace/internal/peaceerrors"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var itemIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ID is a validated identifier naming an item spec within a flow. Unique
// per flow (enforced at graph build time, see internal/flow).
type ID string

// NewID validates s as an item id: alphanumeric plus underscore,
// non-empty.
func NewID(s string) (ID, error) {
	if !itemIDPattern.MatchString(s) {
		return "", &peaceerrors.InvalidID{Kind: "item", Value: s}
	}
	return ID(s), nil
}

// Profile names an environment (dev, prod, customer-a).
type Profile string

// NewProfile validates s as a profile id.
func NewProfile(s string) (Profile, error) {
	if !idPattern.MatchString(s) {
		return "", &peaceerrors.InvalidID{Kind: "profile", Value: s}
	}
	return Profile(s), nil
}

// FlowID names a flow (a DAG of item specs) within an app.
type FlowID string

// NewFlowID validates s as a flow id.
func NewFlowID(s string) (FlowID, error) {
	if !idPattern.MatchString(s) {
		return "", &peaceerrors.InvalidID{Kind: "flow", Value: s}
	}
	return FlowID(s), nil
}

// AppName names the application whose workspace this engine manages.
type AppName string

// NewAppName validates s as an application name.
func NewAppName(s string) (AppName, error) {
	if !idPattern.MatchString(s) {
		return "", &peaceerrors.InvalidID{Kind: "app", Value: s}
	}
	return AppName(s), nil
}
