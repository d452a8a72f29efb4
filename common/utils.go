package common

// Coalesce returns the first value that is not the zero value of T.
//
// Parameters:
//   - values: the candidates in priority order
//
// Returns:
//   - T: the first non-zero candidate, or the zero value when every candidate is zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Truncate cuts s to at most n elements. The result shares the backing array of s.
//
// Parameters:
//   - s: the slice to cut
//   - n: the maximum length, negative values are treated as zero
//
// Returns:
//   - S: s limited to n elements
//   - bool: true if elements were dropped
func Truncate[S ~[]E, E any](s S, n int) (S, bool) {
	n = max(n, 0)
	if len(s) <= n {
		return s, false
	}
	return s[:n], true
}
