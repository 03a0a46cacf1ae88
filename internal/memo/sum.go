package memo

import "math/bits"

// Sum adds numbers using a 128-bit accumulator, so intermediate values never wrap and
// the outcome depends only on the multiset of inputs. It returns ErrOverflow when the
// total does not fit in an int64.
func Sum(numbers []int64) (int64, error) {
	var hi int64
	var lo uint64
	for _, n := range numbers {
		var carry uint64
		lo, carry = bits.Add64(lo, uint64(n), 0)
		hi += (n >> 63) + int64(carry)
	}
	if hi != int64(lo)>>63 {
		return 0, ErrOverflow
	}
	return int64(lo), nil
}
