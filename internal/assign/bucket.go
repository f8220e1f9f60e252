package assign

import (
	"hash/fnv"
	"math"
)

// Bucket maps a (experiment, visitor) pair to a stable point in [0, 1).
// The same inputs always produce the same value, and different experiments
// bucket the same visitor independently. An empty visitor key is legal;
// callers that need stickiness across requests must supply a persisted
// identifier themselves.
func Bucket(experimentID, visitorKey string) float64 {
	h := fnv.New64a()
	h.Write([]byte(experimentID))
	h.Write([]byte(":"))
	h.Write([]byte(visitorKey))

	// Divide by 2^64 to land in [0, 1). Hashes near the top of the space
	// can round up to exactly 1.0 in float64; clamp those back below it.
	v := float64(h.Sum64()) / math.Exp2(64)
	if v >= 1 {
		v = math.Nextafter(1, 0)
	}
	return v
}
