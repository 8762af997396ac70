package chargen

import "math"

// BumpOptions configures one bounded delta.
type BumpOptions struct {
	Current map[string]int
	// Max is resolved per call since the ceiling depends on other allocations.
	// Nil means unbounded.
	Max func() int
	Min int
	// Default is the value assumed for a key missing from Current.
	Default      int
	DeleteOnZero bool
}

type BumpResult struct {
	OK     bool
	Values map[string]int
}

// Bump applies delta to Current[key], clamped to [Min, Max()]. It fails, returning
// Current untouched, when delta is zero or the clamp leaves the value where it was.
// On success Values is a fresh map.
func Bump(key string, delta int, opts BumpOptions) BumpResult {
	fail := BumpResult{OK: false, Values: opts.Current}
	if delta == 0 {
		return fail
	}
	cur, ok := opts.Current[key]
	if !ok {
		cur = opts.Default
	}
	hi := math.MaxInt
	if opts.Max != nil {
		hi = opts.Max()
	}
	candidate := cur + delta
	if candidate > hi {
		candidate = hi
	}
	if candidate < opts.Min {
		candidate = opts.Min
	}
	if candidate == cur {
		return fail
	}
	// Clamping against a ceiling below the current value must not turn an
	// increase into a decrease.
	if (delta > 0 && candidate < cur) || (delta < 0 && candidate > cur) {
		return fail
	}
	next := cloneMap(opts.Current)
	if opts.DeleteOnZero && candidate == 0 {
		delete(next, key)
	} else {
		next[key] = candidate
	}
	return BumpResult{OK: true, Values: next}
}
