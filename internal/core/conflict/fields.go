package conflict

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// NoteSeparator joins two divergent free-text values.
const NoteSeparator = "\n---\n"

// side names the replica with the later timestamp.
type side int

const (
	sideNone side = iota
	sideLocal
	sideRemote
)

func newerSide(local, remote time.Time) side {
	switch {
	case local.After(remote):
		return sideLocal
	case remote.After(local):
		return sideRemote
	default:
		return sideNone
	}
}

// fieldMerge carries the state of one field-by-field merge.
// A field lands in unresolved when both replicas hold different
// values and neither is more recent, unless tiesToLocal is set.
type fieldMerge struct {
	newer       side
	tiesToLocal bool
	unresolved  []string
}

func (m *fieldMerge) tieBreak(field string, local, remote any) any {
	switch m.newer {
	case sideLocal:
		return local
	case sideRemote:
		return remote
	}
	if !m.tiesToLocal {
		m.unresolved = append(m.unresolved, field)
	}
	return local
}

// pick prefers the set value, then the more recent one.
func pick[T comparable](m *fieldMerge, field string, local, remote T) T {
	var zero T
	switch {
	case local == remote, remote == zero:
		return local
	case local == zero:
		return remote
	}
	return m.tieBreak(field, local, remote).(T)
}

// pickText is pick for free-form strings, where blank counts as unset.
func pickText(m *fieldMerge, field, local, remote string) string {
	switch {
	case local == remote, isBlank(remote):
		return local
	case isBlank(local):
		return remote
	}
	return m.tieBreak(field, local, remote).(string)
}

// pickPtr is pick for optional values held by pointer. The result never
// shares storage with either input.
func pickPtr[T comparable](m *fieldMerge, field string, local, remote *T) *T {
	var chosen *T
	switch {
	case remote == nil:
		chosen = local
	case local == nil:
		chosen = remote
	case *local == *remote:
		chosen = local
	default:
		chosen = m.tieBreak(field, local, remote).(*T)
	}
	if chosen == nil {
		return nil
	}
	v := *chosen
	return &v
}

// latest is for values that are always set, such as plain toggles.
func latest[T comparable](m *fieldMerge, field string, local, remote T) T {
	if local == remote {
		return local
	}
	return m.tieBreak(field, local, remote).(T)
}

// reached merges a milestone flag: once true on either side it stays true.
func reached(local, remote bool) bool {
	return local || remote
}

// union returns the sorted, deduplicated union of two collections.
func union[T cmp.Ordered](local, remote []T) []T {
	if len(local) == 0 && len(remote) == 0 {
		return nil
	}
	out := make([]T, 0, len(local)+len(remote))
	out = append(out, local...)
	out = append(out, remote...)
	slices.Sort(out)
	return slices.Compact(out)
}

// joinText keeps both non-blank values, older first. When one value
// already contains the other only the longer one is kept, so merging a
// merged note again is stable.
func joinText(m *fieldMerge, local, remote string) string {
	switch {
	case isBlank(remote), local == remote, strings.Contains(local, remote):
		return local
	case isBlank(local), strings.Contains(remote, local):
		return remote
	}
	first, second := local, remote
	if m.newer == sideLocal || (m.newer == sideNone && remote < local) {
		first, second = remote, local
	}
	return first + NoteSeparator + second
}

// earliest returns the earlier non-zero time.
func earliest(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero(), a.Before(b):
		return a
	default:
		return b
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
