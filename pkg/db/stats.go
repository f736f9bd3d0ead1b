package db

import (
	"math"
	"strings"
)

// AveragePerEvent divides present attendances by the number of events that
// have any, rounded to two decimals. Zero events gives zero.
func AveragePerEvent(attendances, events int) float64 {
	if events == 0 {
		return 0
	}
	return math.Round(float64(attendances)/float64(events)*100) / 100
}

// NormalizeEmail is the form used for case-insensitive email comparison
func NormalizeEmail(email string) string {
	return strings.ToLower(email)
}
