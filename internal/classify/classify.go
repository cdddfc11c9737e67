// Package classify computes per-iteration difficulty thresholds from the
// distribution of successful-proof log-likelihoods and assigns results to
// difficulty buckets. Thresholds are recomputed every iteration and never
// carried over.
package classify

import (
	"fmt"
	"math"
	"sort"

	"github.com/aletheia-lab/aletheia/internal/domain"
)

// ErrNoSuccesses is returned when thresholds are requested for an iteration
// with zero successful proofs; the caller is expected to short-circuit.
var ErrNoSuccesses = fmt.Errorf("no successful proofs to compute thresholds from")

// SuccessLogprobs extracts the log-likelihoods of the successful attempts.
// Attempts flagged with an execution error must have been dropped upstream.
func SuccessLogprobs(attempts []domain.ProofAttempt) []float64 {
	var logprobs []float64
	for _, a := range attempts {
		if a.Success {
			logprobs = append(logprobs, a.Logprob)
		}
	}
	return logprobs
}

// Thresholds computes one threshold per bucket: the bucket's configured
// percentile of the successful log-likelihood distribution, with linear
// interpolation between order statistics. Buckets must be sorted ascending
// by percentile.
func Thresholds(successLogprobs []float64, buckets []domain.DifficultyBucket) ([]float64, error) {
	if len(successLogprobs) == 0 {
		return nil, ErrNoSuccesses
	}

	sorted := make([]float64, len(successLogprobs))
	copy(sorted, successLogprobs)
	sort.Float64s(sorted)

	thresholds := make([]float64, len(buckets))
	for i, b := range buckets {
		thresholds[i] = percentile(sorted, b.Percentile)
	}
	return thresholds, nil
}

// percentile returns the p-th percentile of sorted values, interpolating
// linearly between the two nearest order statistics.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo, hi = 0, 0
	}
	if hi >= len(sorted) {
		lo, hi = len(sorted)-1, len(sorted)-1
	}
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Label assigns a successful log-likelihood to the first bucket whose
// threshold it falls under, scanning in ascending percentile order. The last
// bucket is a catch-all for the hardest successes. First match also resolves
// ties between numerically equal thresholds.
func Label(logprob float64, thresholds []float64, buckets []domain.DifficultyBucket) string {
	for i := range buckets {
		if logprob <= thresholds[i] || i+1 == len(buckets) {
			return buckets[i].Label
		}
	}
	// Unreachable for non-empty bucket lists; keep the failure explicit.
	return domain.FailLabel
}

// Outcome classifies a collected proof attempt. Unsuccessful attempts always
// map to the fail label, regardless of thresholds.
func Outcome(attempt domain.ProofAttempt, thresholds []float64, buckets []domain.DifficultyBucket) string {
	if !attempt.Success {
		return domain.FailLabel
	}
	return Label(attempt.Logprob, thresholds, buckets)
}

// MeanHardLogprob reports the mean log-likelihood of the successes at or
// above the first (easiest) threshold, 0 when there are none. Used as a
// per-iteration difficulty metric.
func MeanHardLogprob(successLogprobs []float64, thresholds []float64) float64 {
	if len(thresholds) == 0 {
		return 0
	}
	var sum float64
	var n int
	for _, lp := range successLogprobs {
		if lp >= thresholds[0] {
			sum += lp
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
