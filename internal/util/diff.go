package util

// FieldChange records one changed field in an audit diff.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// DiffFields computes a field-level diff between two snapshots of an entity.
// It walks the union of both key sets, so fields added in the new snapshot or
// removed from the old one show up as well. Unchanged fields are omitted.
func DiffFields(oldFields, newFields map[string]any) map[string]FieldChange {
	diff := make(map[string]FieldChange)

	for key, oldValue := range oldFields {
		newValue, exists := newFields[key]
		if !exists {
			diff[key] = FieldChange{Old: oldValue, New: nil}
			continue
		}
		if !equalValues(oldValue, newValue) {
			diff[key] = FieldChange{Old: oldValue, New: newValue}
		}
	}

	for key, newValue := range newFields {
		if _, exists := oldFields[key]; !exists {
			diff[key] = FieldChange{Old: nil, New: newValue}
		}
	}

	return diff
}

func equalValues(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a == b
}
