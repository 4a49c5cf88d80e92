package helpers

import (
	"strings"
)

// SplitNonEmpty splits target by separate, trims each part and drops empty ones
func SplitNonEmpty(target string, separate string) []string {
	var parts []string
	for _, part := range strings.Split(target, separate) {
		part = strings.TrimSpace(part)
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
