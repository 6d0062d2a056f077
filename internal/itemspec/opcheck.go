package itemspec

// OpCheckStatus is the result of a cheap pre-flight check (apply_check /
// clean_check in spec §4.3). It is a closed two-case type: either no
// execution is required, or execution is required with a progress limit
// the item spec can estimate up front (e.g. bytes to download, resources
// to create). A nil limit means the limit is unknown — the progress
// tracker renders a spinner rather than a bar (spec §4.10).
type OpCheckStatus struct {
	execRequired bool
	progressLimit *uint64
}

// ExecNotRequired reports that the current state already matches the
// desired state (or the absent state, for clean); no apply/clean
// execution is necessary.
func ExecNotRequired() OpCheckStatus {
	return OpCheckStatus{execRequired: false}
}

// ExecRequired reports that execution is necessary, optionally carrying a
// progress limit. Pass nil for an unknown limit.
func ExecRequired(progressLimit *uint64) OpCheckStatus {
	return OpCheckStatus{execRequired: true, progressLimit: progressLimit}
}

// Required reports whether execution is necessary.
func (s OpCheckStatus) Required() bool { return s.execRequired }

// ProgressLimit returns the progress limit and whether one was set.
func (s OpCheckStatus) ProgressLimit() (uint64, bool) {
	if s.progressLimit == nil {
		return 0, false
	}
	return *s.progressLimit, true
}
