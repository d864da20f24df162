// Package strings provides string list utilities for configuration parsing.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// SplitList splits a comma separated value such as KAFKA_BROKERS.
// Returns nil for a blank input.
//
//	SplitList(" a:9092, b:9092,,a:9092") // []string{"a:9092", "b:9092"}
func SplitList(raw string) []string {
	out := DedupeAndTrim(strings.Split(raw, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}
