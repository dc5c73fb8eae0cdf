package reply

import (
	"testing"

	"github.com/danmuck/oraclebs/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignal(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{name: "embedded", in: "blah 42 blah", want: "42", ok: true},
		{name: "no digits", in: "no digits here", ok: false},
		{name: "negative", in: "-7", want: "-7", ok: true},
		{name: "empty", in: "", ok: false},
		{name: "first wins", in: "result 1\n1. Query\n2. Guess\nChoice: ", want: "1", ok: true},
		{name: "zero", in: "0\nChoice: ", want: "0", ok: true},
		{name: "whole number", in: "x=123456 y=7", want: "123456", ok: true},
		{name: "glued to word", in: "abc-12def", want: "-12", ok: true},
		{name: "lone minus", in: "- 5", want: "5", ok: true},
		{name: "beyond int64", in: "q=340282366920938463463374607431768211455", want: "340282366920938463463374607431768211455", ok: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseSignal(tc.in)
			require.Equal(t, tc.ok, ok)
			if !tc.ok {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tc.want, got.String())
		})
	}
}
