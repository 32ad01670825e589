package audit

import (
	"reflect"

	"github.com/auditgate/auditgate/internal/model"
)

// DefaultIgnoredFields are the noisy bookkeeping fields never reported in
// change sets.
var DefaultIgnoredFields = []string{"updated_at", "created_at", "deleted_at", "updated_by_id"}

// IgnoreSet builds the lookup set the diff engine consumes.
func IgnoreSet(fields []string) map[string]struct{} {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Diff compares two field snapshots and returns the minimal changed-fields
// delta. The comparison is before-driven: keys present only in after are
// not reported, and a key missing from after is treated as changed to nil.
// Returns an empty (non-nil) set when either snapshot is empty or nothing
// differs. Pure: no I/O, never panics on ordinary values.
func Diff(before, after map[string]any, ignored map[string]struct{}) model.ChangeSet {
	changes := model.ChangeSet{}
	if len(before) == 0 || len(after) == 0 {
		return changes
	}
	for field, oldValue := range before {
		if _, skip := ignored[field]; skip {
			continue
		}
		newValue, ok := after[field]
		if !ok {
			newValue = nil
		}
		if !equal(oldValue, newValue) {
			changes[field] = model.Change{Before: oldValue, After: newValue}
		}
	}
	return changes
}

func equal(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	return reflect.DeepEqual(a, b)
}
