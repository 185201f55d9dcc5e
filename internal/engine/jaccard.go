package engine

// Lexical overlap is compared in exact integer arithmetic: the threshold is
// per-mille, and overlap*1000 is compared against threshold*union. No float
// division ever happens, so the comparison is bit-identical on every
// platform and every replay.

// overlapCounts returns |a ∩ b| and |a ∪ b| for a sorted slice against a set.
func overlapCounts(sorted []string, set map[string]struct{}) (inter, union int64) {
	for _, t := range sorted {
		if _, ok := set[t]; ok {
			inter++
		}
	}
	union = int64(len(sorted)) + int64(len(set)) - inter
	return inter, union
}

// jaccardAbove reports whether inter/union > threshold/1000.
// An empty union never exceeds any threshold.
func jaccardAbove(inter, union, thresholdPerMille int64) bool {
	if union == 0 {
		return false
	}
	return inter*1000 > thresholdPerMille*union
}

// jaccardBelow reports whether inter/union < threshold/1000.
// An empty union is treated as not-below: two empty token sets carry no
// lexical disagreement signal.
func jaccardBelow(inter, union, thresholdPerMille int64) bool {
	if union == 0 {
		return false
	}
	return inter*1000 < thresholdPerMille*union
}

// tokenSet builds a lookup set from a token slice.
func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
