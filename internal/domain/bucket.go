package domain

import "sort"

// FailLabel is the distinguished outcome for unsuccessful proof attempts.
// It is assigned regardless of thresholds.
const FailLabel = "fail"

// DifficultyBucket is a named tier defined by a percentile cutoff over the
// successful-proof log-likelihood distribution. Buckets are evaluated in
// ascending percentile order; that order is the tie-break contract when two
// thresholds are numerically equal.
type DifficultyBucket struct {
	Label      string  `json:"label"`
	Percentile float64 `json:"percentile"`
}

// SortBuckets returns a copy of buckets sorted ascending by percentile.
// Equal percentiles keep their configured relative order.
func SortBuckets(buckets []DifficultyBucket) []DifficultyBucket {
	sorted := make([]DifficultyBucket, len(buckets))
	copy(sorted, buckets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Percentile < sorted[j].Percentile
	})
	return sorted
}
