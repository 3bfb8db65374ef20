package gourmet

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectEmpty(t *testing.T) {
	got := Select(nil, defaultSelectOptions(), seeded(1))
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestSelectLengthProperty(t *testing.T) {
	rng := seeded(7)
	for n := 0; n <= 30; n++ {
		candidates := make([]Candidate, 0, n)
		for i := 0; i < n; i++ {
			switch i % 3 {
			case 0:
				candidates = append(candidates, rated(fmt.Sprintf("p%d", i), 3+rng.Float64()*2, rng.IntN(500)))
			case 1:
				candidates = append(candidates, rated(fmt.Sprintf("p%d", i), 1+rng.Float64()*3, rng.IntN(50)))
			default:
				candidates = append(candidates, unrated(fmt.Sprintf("p%d", i)))
			}
		}
		got := Select(candidates, defaultSelectOptions(), rng)
		require.Len(t, got, min(5, n), "n=%d", n)
		requireUnique(t, got)
	}
}

func TestSelectQualityFloor(t *testing.T) {
	candidates := make([]Candidate, 0, 30)
	for i := 0; i < 20; i++ {
		candidates = append(candidates, rated(fmt.Sprintf("hq%d", i), 4.0+float64(i)*0.05, 10+i))
	}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, rated(fmt.Sprintf("lo%d", i), 2.0+float64(i)*0.1, 100))
	}
	opts := defaultSelectOptions()

	ranked := append([]Candidate(nil), candidates...)
	rankCandidates(ranked)
	excluded := ranked[opts.PoolSize:]
	maxExcluded := 0.0
	for _, c := range excluded {
		maxExcluded = max(maxExcluded, *c.Rating)
	}

	for seed := uint64(0); seed < 50; seed++ {
		got := Select(candidates, opts, seeded(seed))
		require.Len(t, got, 5)
		for _, c := range got {
			require.True(t, strings.HasPrefix(c.ID, "hq"), "low quality candidate %s selected", c.ID)
			require.GreaterOrEqual(t, *c.Rating, maxExcluded)
		}
	}
}

func TestSelectBackfillsFromLowerTier(t *testing.T) {
	candidates := make([]Candidate, 0, 20)
	for i := 0; i < 3; i++ {
		candidates = append(candidates, rated(fmt.Sprintf("hq%d", i), 4.2+float64(i)*0.1, 50))
	}
	for i := 0; i < 17; i++ {
		candidates = append(candidates, rated(fmt.Sprintf("lo%02d", i), 3.9-float64(i)*0.1, 20))
	}

	for seed := uint64(0); seed < 30; seed++ {
		got := Select(candidates, defaultSelectOptions(), seeded(seed))
		require.Len(t, got, 5)
		ids := idsOf(got)
		require.Contains(t, ids, "hq0")
		require.Contains(t, ids, "hq1")
		require.Contains(t, ids, "hq2")
		for _, c := range got {
			if strings.HasPrefix(c.ID, "lo") {
				// fill is sampled from the top of the lower tier, bounded by the pool size
				require.Less(t, c.ID, "lo09")
			}
		}
	}
}

func TestSelectFallsBackToUnrated(t *testing.T) {
	candidates := make([]Candidate, 0, 20)
	for i := 0; i < 20; i++ {
		candidates = append(candidates, unrated(fmt.Sprintf("u%02d", i)))
	}
	got := Select(candidates, defaultSelectOptions(), seeded(3))
	require.Len(t, got, 5)
	for _, c := range got {
		require.Less(t, c.ID, "u12")
	}
}

func TestSelectUnratedOnlyFillsRemainingSlots(t *testing.T) {
	candidates := []Candidate{
		unrated("u0"),
		rated("r0", 3.1, 4),
		unrated("u1"),
		rated("r1", 4.5, 9),
	}
	got := Select(candidates, defaultSelectOptions(), seeded(11))
	require.ElementsMatch(t, []string{"u0", "u1", "r0", "r1"}, idsOf(got))
}

func TestSelectDeterministicForSeed(t *testing.T) {
	candidates := make([]Candidate, 0, 15)
	for i := 0; i < 15; i++ {
		candidates = append(candidates, rated(fmt.Sprintf("p%d", i), 4.0+float64(i%5)*0.2, i))
	}
	first := Select(candidates, defaultSelectOptions(), seeded(42))
	second := Select(candidates, defaultSelectOptions(), seeded(42))
	require.Equal(t, idsOf(first), idsOf(second))
}

func TestSelectProducesVariety(t *testing.T) {
	candidates := make([]Candidate, 0, 12)
	for i := 0; i < 12; i++ {
		candidates = append(candidates, rated(fmt.Sprintf("p%02d", i), 4.5, 100))
	}
	seen := map[string]struct{}{}
	for seed := uint64(0); seed < 20; seed++ {
		ids := idsOf(Select(candidates, defaultSelectOptions(), seeded(seed)))
		sort.Strings(ids)
		seen[strings.Join(ids, ",")] = struct{}{}
	}
	require.Greater(t, len(seen), 1)
}

func TestSelectPoolNeverSmallerThanShortlist(t *testing.T) {
	candidates := make([]Candidate, 0, 8)
	for i := 0; i < 8; i++ {
		candidates = append(candidates, rated(fmt.Sprintf("p%d", i), 4.8-float64(i)*0.1, 10))
	}
	got := Select(candidates, SelectOptions{ShortlistSize: 5, PoolSize: 2, QualityThreshold: 4.0}, seeded(5))
	require.Len(t, got, 5)
	for _, c := range got {
		require.Less(t, c.ID, "p5")
	}
}

func TestRankCandidatesTieBreak(t *testing.T) {
	list := []Candidate{
		rated("a", 4.1, 10),
		rated("b", 4.5, 3),
		rated("c", 4.1, 300),
		{ID: "d", Rating: ptr(4.1)},
		rated("e", 4.5, 30),
	}
	rankCandidates(list)
	require.Equal(t, []string{"e", "b", "c", "a", "d"}, idsOf(list))
}

func TestShufflePermutes(t *testing.T) {
	list := []Candidate{unrated("a"), unrated("b"), unrated("c"), unrated("d")}
	shuffle(list, seeded(9))
	require.ElementsMatch(t, []string{"a", "b", "c", "d"}, idsOf(list))
}

func defaultSelectOptions() SelectOptions {
	return SelectOptions{ShortlistSize: 5, PoolSize: 12, QualityThreshold: 4.0}
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func rated(id string, rating float64, count int) Candidate {
	return Candidate{ID: id, Name: "Venue " + id, Rating: ptr(rating), RatingCount: ptr(count)}
}

func unrated(id string) Candidate {
	return Candidate{ID: id, Name: "Venue " + id}
}

func ptr[T any](v T) *T {
	return &v
}

func idsOf[S ~[]Candidate](list S) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.ID)
	}
	return out
}

func requireUnique(t *testing.T, list Shortlist) {
	t.Helper()
	seen := map[string]struct{}{}
	for _, c := range list {
		_, dup := seen[c.ID]
		require.False(t, dup, "duplicate %s", c.ID)
		seen[c.ID] = struct{}{}
	}
}
