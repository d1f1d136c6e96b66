package rank

// Between computes a key between the given boundaries. A nil boundary means
// the container has no item on that side.
//
// The returned fellBack flag reports that the boundaries were out of order
// (lower >= upper) and the upper bound was ignored; callers log it, since a
// correct neighbor resolution never produces that input.
//
// When lower and upper are adjacent integers there is no value strictly
// between them; Between returns lower+1, which equals upper. The resulting
// key collides with the upper neighbor and is rejected by the uniqueness
// constraint on write, putting the caller onto its retry path. There is no
// rebalancing pass to restore slack in an exhausted gap; the constraint plus
// retry is the only defense.
func Between(lower, upper *uint64) (key string, fellBack bool) {
	switch {
	case lower == nil && upper == nil:
		return DefaultKey, false
	case lower == nil:
		return Encode(*upper / 2), false
	case upper == nil:
		return Encode((*lower + Max) / 2), false
	}

	lo, up := *lower, *upper
	if lo >= up {
		return Encode((lo + Max) / 2), true
	}
	mid := (lo + up) / 2
	if mid == lo || mid == up {
		return Encode(lo + 1), false
	}
	return Encode(mid), false
}

// After computes a key greater than lower, toward Max.
func After(lower uint64) string {
	key, _ := Between(&lower, nil)
	return key
}
