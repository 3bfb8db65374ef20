package gourmet

import (
	"math/rand/v2"
	"sort"
)

// SelectOptions are the tunables of the shortlist selection.
type SelectOptions struct {
	ShortlistSize    int
	PoolSize         int
	QualityThreshold float64
}

// Select ranks candidates and samples a bounded shortlist biased toward quality.
//
// Candidates fall into three tiers: rated at or above the quality threshold,
// rated below it, and unrated. Tiers are consumed in order. The tier that
// overflows the remaining slots is sampled uniformly from its top slice, where
// the slice size is bounded by the pool size. The result is shuffled, so its
// order carries no rating meaning.
func Select(candidates []Candidate, opts SelectOptions, rng *rand.Rand) Shortlist {
	if len(candidates) == 0 {
		return Shortlist{}
	}
	size := opts.ShortlistSize
	if size <= 0 {
		size = DefaultShortlistSize
	}
	pool := opts.PoolSize
	if pool < size {
		pool = size
	}
	threshold := opts.QualityThreshold
	if threshold <= 0 {
		threshold = DefaultQualityThreshold
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	rated, unrated := splitRated(candidates)
	rankCandidates(rated)
	high, rest := partitionByQuality(rated, threshold)

	picked := make([]Candidate, 0, size)
	for _, tier := range [][]Candidate{high, rest, unrated} {
		remaining := size - len(picked)
		if remaining == 0 {
			break
		}
		if len(tier) <= remaining {
			picked = append(picked, tier...)
			continue
		}
		window := pool - len(picked)
		if window < remaining {
			window = remaining
		}
		if window > len(tier) {
			window = len(tier)
		}
		slice := append([]Candidate(nil), tier[:window]...)
		shuffle(slice, rng)
		picked = append(picked, slice[:remaining]...)
	}

	shuffle(picked, rng)
	return Shortlist(picked)
}

func splitRated(candidates []Candidate) (rated, unrated []Candidate) {
	for _, c := range candidates {
		if c.HasRating() {
			rated = append(rated, c)
		} else {
			unrated = append(unrated, c)
		}
	}
	return rated, unrated
}

// rankCandidates orders by rating then rating count, both descending. The sort
// is stable so equal keys keep provider order.
func rankCandidates(list []Candidate) {
	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := list[i].rating(), list[j].rating()
		if ri != rj {
			return ri > rj
		}
		return list[i].ratingCount() > list[j].ratingCount()
	})
}

func partitionByQuality(ranked []Candidate, threshold float64) (high, rest []Candidate) {
	for i, c := range ranked {
		if c.rating() < threshold {
			return ranked[:i], ranked[i:]
		}
	}
	return ranked, nil
}

// shuffle is an in-place Fisher-Yates shuffle.
func shuffle(list []Candidate, rng *rand.Rand) {
	for i := len(list) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		list[i], list[j] = list[j], list[i]
	}
}
