// Package reply decodes oracle output into a comparison signal.
package reply

import (
	"math/big"
	"regexp"
)

var integerPattern = regexp.MustCompile(`-?\d+`)

// ParseSignal returns the first optionally signed decimal integer in text.
// The leftmost match is taken whole, so digits are never split out of a
// longer number. ok is false when text holds no integer at all.
func ParseSignal(text string) (v *big.Int, ok bool) {
	m := integerPattern.FindString(text)
	if m == "" {
		return nil, false
	}
	v, ok = new(big.Int).SetString(m, 10)
	if !ok {
		return nil, false
	}
	return v, true
}
