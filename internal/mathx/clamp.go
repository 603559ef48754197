package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp interpolates between a and b, t is clamped to [0, 1].
func Lerp[T constraints.Float](a, b, t T) T {
	t = Clamp(t, 0, 1)
	return a + (b-a)*t
}

// Wrap returns v modulo m in [0, m) for positive m.
func Wrap[T constraints.Integer](v, m T) T {
	v %= m
	if v < 0 {
		v += m
	}
	return v
}
