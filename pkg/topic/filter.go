package topic

// Filter is an ordered set of topic prefixes. Order of insertion is
// preserved; duplicates are never stored twice.
type Filter struct {
	prefixes []Topic
}

// NewFilter builds a Filter from the given prefixes, preserving order and
// dropping duplicates.
func NewFilter(prefixes ...Topic) Filter {
	var f Filter
	for _, p := range prefixes {
		f.add(p)
	}
	return f
}

// Prefixes returns the filter's prefixes in insertion order. The returned
// slice must not be mutated by the caller.
func (f Filter) Prefixes() []Topic {
	return f.prefixes
}

// Empty reports whether the filter has no prefixes.
func (f Filter) Empty() bool {
	return len(f.prefixes) == 0
}

// Len returns the number of prefixes in the filter.
func (f Filter) Len() int {
	return len(f.prefixes)
}

func (f *Filter) add(p Topic) bool {
	for _, x := range f.prefixes {
		if x == p {
			return false
		}
	}
	f.prefixes = append(f.prefixes, p)
	return true
}

// Extend inserts every prefix of g satisfying pred into f, in g's order,
// and reports whether f changed. A nil pred accepts every prefix.
func (f *Filter) Extend(g Filter, pred func(Topic) bool) bool {
	changed := false
	for _, p := range g.prefixes {
		if pred != nil && !pred(p) {
			continue
		}
		if f.add(p) {
			changed = true
		}
	}
	return changed
}

// Matches reports whether t is addressed by any prefix in f.
func (f Filter) Matches(t Topic) bool {
	for _, p := range f.prefixes {
		if t.HasPrefix(p) {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of f.
func (f Filter) Clone() Filter {
	out := Filter{prefixes: make([]Topic, len(f.prefixes))}
	copy(out.prefixes, f.prefixes)
	return out
}
