package reservoir

import (
	"fmt"
	"math/big"
)

// Summarize reduces a bucket to the floor of its arithmetic mean. The sum is
// accumulated as an integer before the single division; when it no longer
// fits in an int64 the sum is carried on as a big.Int. The mean always lies
// between the smallest and largest reading, so the result fits. Buckets are
// never empty by construction, so an empty bucket panics.
func Summarize(bucket MonthlyBucket) int64 {
	if len(bucket) == 0 {
		panic("reservoir: Summarize called with an empty bucket")
	}
	var sum int64
	for i, v := range bucket {
		next := sum + v
		if (v > 0 && next < sum) || (v < 0 && next > sum) {
			return bigFloorMean(sum, bucket[i:], len(bucket))
		}
		sum = next
	}
	return floorDiv(sum, int64(len(bucket)))
}

// bigFloorMean finishes a sum that overflowed int64.
func bigFloorMean(partial int64, rest MonthlyBucket, n int) int64 {
	sum := big.NewInt(partial)
	for _, v := range rest {
		sum.Add(sum, big.NewInt(v))
	}
	// Div is Euclidean, which floors for a positive divisor.
	return sum.Div(sum, big.NewInt(int64(n))).Int64()
}

// floorDiv divides rounding toward negative infinity. n must be positive.
func floorDiv(sum, n int64) int64 {
	q := sum / n
	if sum%n != 0 && sum < 0 {
		q--
	}
	return q
}

// Aggregate replaces every bucket of a fully parsed SeriesTable with its
// monthly summary. Site and month order are preserved.
func Aggregate(series *SeriesTable) *SummaryTable {
	out := NewSummaryTable()
	for _, id := range series.IDs() {
		months := series.Months(id)
		ms := make(MonthlySeries, 0, len(months))
		for _, m := range months {
			b, ok := series.Bucket(id, m)
			if !ok {
				panic(fmt.Sprintf("reservoir: month %s listed for site %s without a bucket", m, id))
			}
			ms = append(ms, MonthlySummary{Month: m, Value: Summarize(b)})
		}
		out.Put(id, ms)
	}
	return out
}
