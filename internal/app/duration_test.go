package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLast(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{in: "5m", want: 5 * time.Minute},
		{in: "90m", want: 90 * time.Minute},
		{in: "42h", want: 2520 * time.Minute},
		{in: "1d", want: 1440 * time.Minute},
		{in: "0m", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLast(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLastRejects(t *testing.T) {
	for _, in := range []string{"", "d", "5", "5x", "m5", " 5m", "5m ", "5.5h"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseLast(in)
			assert.Error(t, err)
		})
	}
}

func TestParseLastRejectsUnrepresentableWindows(t *testing.T) {
	for _, in := range []string{
		"160000000000m",
		"153722867280912931m",
		"9223372036854775807h",
		"106752d",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseLast(in)
			assert.Error(t, err)
		})
	}
}

func TestParseLastLargestWindows(t *testing.T) {
	got, err := ParseLast("153722867m")
	require.NoError(t, err)
	assert.Equal(t, 153722867*time.Minute, got)

	got, err = ParseLast("106751d")
	require.NoError(t, err)
	assert.Equal(t, 106751*24*60*time.Minute, got)
}
