package provider

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCount(t *testing.T) {
	testCases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"12", 12, true},
		{" 3 ", 3, true},
		{"", 0, true},
		{"-", 0, true},
		{"None", 0, true},
		{"4.0", 4, true},
		{"7 appointments", 7, true},
		{"4.5", 0, false},
		{"-2", 0, false},
		{"lots", 0, false},
	}

	for _, tc := range testCases {
		got, ok := ParseCount(tc.in)
		require.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			require.Equal(t, tc.want, got, "input %q", tc.in)
		}
	}
}

func TestCollapseSpaces(t *testing.T) {
	require.Equal(t, "Monday 2 January", CollapseSpaces("  Monday  2 January\n"))
}

func TestOutcomeString(t *testing.T) {
	require.Equal(t, "empty", Empty.String())
	require.Equal(t, "unknown", Outcome(42).String())
}
