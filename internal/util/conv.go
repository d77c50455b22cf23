package util

import (
	"math"
	"strconv"
	"strings"
)

// ParseEstimatedTime normalises an estimated-time value into whole minutes.
// The corpus ships both bare numbers and strings such as "1,5 Stunden" or
// "45 min"; a comma is accepted as decimal separator, hour units multiply
// by 60 and unknown units are treated as minutes. Unparseable or negative
// input yields 0.
func ParseEstimatedTime(raw string) int {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0
	}

	// Split the leading number off the unit.
	i := 0
	for i < len(s) {
		ch := s[i]
		if (ch >= '0' && ch <= '9') || ch == ',' || ch == '.' || (i == 0 && ch == '-') {
			i++
			continue
		}
		break
	}
	numPart := strings.ReplaceAll(s[:i], ",", ".")
	unit := strings.TrimSpace(s[i:])

	value, err := strconv.ParseFloat(numPart, 64)
	if err != nil || value < 0 {
		return 0
	}

	switch {
	case strings.HasPrefix(unit, "stunde"), strings.HasPrefix(unit, "std"),
		strings.HasPrefix(unit, "hour"), unit == "h":
		value *= 60
	}

	return int(math.Round(value))
}
