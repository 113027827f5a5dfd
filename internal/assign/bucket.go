package assign

import (
	"hash/fnv"

	"github.com/emiliopalmerini/abkit/internal/domain"
)

// bucketCount is the resolution of the bucketing space. Variation weights
// are percentages, so each weight point covers ten buckets.
const bucketCount = 1000

// bucketOf maps an assignment key to a stable bucket in [0, bucketCount).
// FNV-1a is used as the documented stable hash; the same key always lands in
// the same bucket as long as the hash and the weight table are unchanged.
func bucketOf(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % bucketCount)
}

// pickVariation walks variations in their defined order, accumulating
// weight*10 as a cumulative boundary; the first variation whose boundary
// exceeds the bucket wins. The last variation is the fallback so that every
// eligible user receives exactly one variation even if rounding leaves a gap.
func pickVariation(variations []domain.Variation, bucket int) domain.Variation {
	boundary := 0
	for _, v := range variations {
		boundary += v.Weight * 10
		if boundary > bucket {
			return v
		}
	}
	return variations[len(variations)-1]
}
