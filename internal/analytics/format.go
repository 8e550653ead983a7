package analytics

import (
	"fmt"
	"strings"
)

// NoData marks a record that could not be computed.
const NoData = "—"

// FormatDuration renders seconds as "1ч 2м 3с", skipping zero parts.
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return "0с"
	}
	h := seconds / 3600
	m := (seconds / 60) % 60
	s := seconds % 60

	var parts []string
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%dч", h))
	}
	if m > 0 {
		parts = append(parts, fmt.Sprintf("%dм", m))
	}
	if s > 0 {
		parts = append(parts, fmt.Sprintf("%dс", s))
	}
	return strings.Join(parts, " ")
}
