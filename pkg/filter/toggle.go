package filter

import "slices"

// Toggle returns a copy of selected with v removed when present or appended when absent.
// The order of the other values is kept.
func Toggle[T comparable](selected []T, v T) []T {
	idx := slices.Index(selected, v)
	ret := make([]T, 0, len(selected)+1)
	if idx < 0 {
		ret = append(ret, selected...)
		return append(ret, v)
	}
	ret = append(ret, selected[:idx]...)
	return append(ret, selected[idx+1:]...)
}

// IsSelected reports whether v is one of the selected values.
func IsSelected[T comparable](selected []T, v T) bool {
	return slices.Contains(selected, v)
}
