package interval

import (
	"sort"
	"strings"
)

// Delimiter joins multiple workspace labels in the persisted representation.
// Changing it breaks every stored history file.
const Delimiter = "; "

// Labels is a sorted set of unique workspace labels.
// The zero value is an empty set.
type Labels []string

// NewLabels builds a set from the given names, dropping empties and duplicates.
// Names are taken verbatim; use ParseLabels for delimiter-joined input.
func NewLabels(names ...string) Labels {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return fromSet(set)
}

// ParseLabels splits a persisted workspace string on Delimiter. A bare ';'
// stays part of its label. A label that itself contained the full delimiter
// is indistinguishable from a pre-joined set and is split too.
func ParseLabels(joined string) Labels {
	return NewLabels(strings.Split(joined, Delimiter)...)
}

func fromSet(set map[string]struct{}) Labels {
	if len(set) == 0 {
		return nil
	}
	out := make(Labels, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Union returns the set union of l and others.
func (l Labels) Union(others ...Labels) Labels {
	set := make(map[string]struct{}, len(l))
	for _, n := range l {
		set[n] = struct{}{}
	}
	for _, o := range others {
		for _, n := range o {
			set[n] = struct{}{}
		}
	}
	return fromSet(set)
}

// Contains reports whether name is a member of the set.
func (l Labels) Contains(name string) bool {
	i := sort.SearchStrings(l, name)
	return i < len(l) && l[i] == name
}

// Equal reports whether both sets hold the same labels.
func (l Labels) Equal(o Labels) bool {
	if len(l) != len(o) {
		return false
	}
	for i := range l {
		if l[i] != o[i] {
			return false
		}
	}
	return true
}

// String joins the set with Delimiter. This is the persisted form.
func (l Labels) String() string {
	return strings.Join(l, Delimiter)
}
