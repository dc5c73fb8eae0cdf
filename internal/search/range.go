package search

import (
	"fmt"

	"github.com/holiman/uint256"
)

// SecretBits is the exact bit length of every candidate.
const SecretBits = 128

var (
	minSecret = *new(uint256.Int).Lsh(uint256.NewInt(1), SecretBits-1)
	maxSecret = *new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), SecretBits), 1)
)

// Range is the inclusive candidate interval [Low, High].
type Range struct {
	Low  uint256.Int
	High uint256.Int
}

// FullRange covers every 128-bit value with the top bit set.
func FullRange() Range {
	return Range{Low: minSecret, High: maxSecret}
}

// Done reports whether a single candidate remains.
func (r Range) Done() bool {
	return !r.Low.Lt(&r.High)
}

// Width is High - Low.
func (r Range) Width() uint256.Int {
	var w uint256.Int
	w.Sub(&r.High, &r.Low)
	return w
}

// Contains reports Low <= v <= High.
func (r Range) Contains(v *uint256.Int) bool {
	return !v.Lt(&r.Low) && !v.Gt(&r.High)
}

// Probe is the upper midpoint ceil((Low+High)/2), clamped up to 2^127.
// The upper midpoint is always > Low while Low < High, so either outcome
// of the comparison removes at least one candidate.
func (r Range) Probe() uint256.Int {
	var mid uint256.Int
	mid.Add(&r.Low, &r.High)
	mid.AddUint64(&mid, 1)
	mid.Rsh(&mid, 1)
	// Only a range starting below 2^127 can produce a narrower midpoint.
	if mid.Lt(&minSecret) {
		mid = minSecret
	}
	return mid
}

// Narrow applies one comparison: atOrBelow means probe <= secret.
func (r Range) Narrow(probe uint256.Int, atOrBelow bool) Range {
	if atOrBelow {
		r.Low = probe
		return r
	}
	r.High.SubUint64(&probe, 1)
	return r
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s]", r.Low.Dec(), r.High.Dec())
}
