// internal/report/stats.go
package report

/*
 * Structure statistics for the inspection surface.
 *
 * Describe walks a decoded document iteratively (worklist, no recursion)
 * and counts elements, object keys, and nesting depth. Wire size comes
 * from the caller, which still holds the raw bytes.
 */

// ReportStats summarizes a report document's structure.
type ReportStats struct {
	TotalElements int `json:"total_elements"`
	TotalKeys     int `json:"total_keys"`
	MaxDepth      int `json:"max_depth"`
	SizeBytes     int `json:"size_bytes"`
}

// Describe computes structure statistics over a decoded JSON document.
func Describe(v any, sizeBytes int) ReportStats {
	stats := ReportStats{SizeBytes: sizeBytes}

	type item struct {
		val   any
		depth int
	}
	work := []item{{val: v, depth: 1}}
	for len(work) > 0 {
		it := work[len(work)-1]
		work = work[:len(work)-1]

		stats.TotalElements++
		if it.depth > stats.MaxDepth {
			stats.MaxDepth = it.depth
		}

		switch t := it.val.(type) {
		case map[string]any:
			stats.TotalKeys += len(t)
			for _, child := range t {
				work = append(work, item{val: child, depth: it.depth + 1})
			}
		case []any:
			for _, child := range t {
				work = append(work, item{val: child, depth: it.depth + 1})
			}
		}
	}
	return stats
}
