package datasets

import (
	"hash/fnv"

	"github.com/jbarham/primegen"
)

// splitBuckets is the minimum number of hash buckets used by Split. The actual
// modulus is the first prime at or above it, so bucket assignment stays well
// distributed for any domain-name population.
const splitBuckets = 1009

var splitPrime = nextPrime(splitBuckets)

func nextPrime(min uint64) uint64 {
	gen := primegen.New()
	for {
		if p := gen.Next(); p >= min {
			return p
		}
	}
}

// bucket maps a domain name to a stable bucket in [0, splitPrime).
func bucket(domain string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(domain))
	return h.Sum64() % splitPrime
}

// Split divides records into a training set and a test set. Assignment is by
// hash bucket, not by position, so a given domain always lands on the same
// side of the split even when the feed grows or reorders between fetches.
// ratio is the training proportion in (0,1); the achieved proportion differs
// from it by at most 1/splitPrime.
func Split(records []Record, ratio float64) (train, test []Record) {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	limit := uint64(ratio * float64(splitPrime))
	for _, r := range records {
		if bucket(r.Domain) < limit {
			train = append(train, r)
		} else {
			test = append(test, r)
		}
	}
	return train, test
}
