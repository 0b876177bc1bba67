package app

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// ParseLast parses the dump window argument: a decimal count followed by a
// unit, m for minutes, h for hours, d for days. "90m", "36h", "1d".
func ParseLast(s string) (time.Duration, error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	count, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: want digits followed by m, h or d", s)
	}
	var perUnit int64
	switch s[i:] {
	case "m":
		perUnit = 1
	case "h":
		perUnit = 60
	case "d":
		perUnit = 24 * 60
	default:
		return 0, fmt.Errorf("invalid duration %q: want digits followed by m, h or d", s)
	}
	// Minute counts past this silently wrap the duration type.
	const maxMinutes = math.MaxInt64 / int64(time.Minute)
	if count > maxMinutes/perUnit {
		return 0, fmt.Errorf("invalid duration %q: too long", s)
	}
	return time.Duration(count*perUnit) * time.Minute, nil
}
