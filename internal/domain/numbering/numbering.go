// Package numbering formats gap-free document numbers. Allocation itself is an
// atomic counter increment in the store; see repository.CounterRepository.
package numbering

import "fmt"

// Format renders a document number from prefix, calendar year and sequence,
// e.g. Format("RE", 2025, 42) == "RE-2025-00042".
func Format(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%05d", prefix, year, seq)
}
