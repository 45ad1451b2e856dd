package solver

import "github.com/peterkuimelis/pillz/internal/game"

// Tier is one representative pillz wager considered by the search.
type Tier struct {
	Pillz int
	Fury  bool
}

// Selection pairs the tier with a hand index.
func (t Tier) Selection(index int) game.Selection {
	return game.Selection{Index: index, Pillz: t.Pillz, Fury: t.Fury}
}

// Cost is the pillz the tier deducts, fury included.
func (t Tier) Cost() int {
	if t.Fury {
		return t.Pillz + game.FuryCost
	}
	return t.Pillz
}

// maxPool is the size of the precomputed tables. Larger pools are
// clamped to the last entry.
const maxPool = 32

// Tables are built once and only read afterwards, so concurrent workers
// share them without locking.
var (
	splitRanges      = buildRanges(splitRange)
	shiftRanges      = buildRanges(shiftRange)
	splitShiftRanges = buildRanges(splitShiftRange)
	shiftFalseRanges = buildRanges(shiftFalseRange)
)

func buildRanges(build func(n int) []Tier) [maxPool][]Tier {
	var ranges [maxPool][]Tier
	for n := range ranges {
		ranges[n] = build(n)
	}
	return ranges
}

func clampPool(n int) int {
	switch {
	case n < 0:
		return 0
	case n >= maxPool:
		return maxPool - 1
	default:
		return n
	}
}

// SplitRange covers every wager for a pool of n: all plain amounts 0..n,
// then every fury amount 0..n-3.
func SplitRange(n int) []Tier { return splitRanges[clampPool(n)] }

// ShiftRange is the compressed ladder: the full pool first, then fury and
// plain pairs from n-3 down, then n-2 and n-1.
func ShiftRange(n int) []Tier { return shiftRanges[clampPool(n)] }

// SplitShiftRange orders every wager the way the exact search wants to
// meet them: full pool, n-3, the rest of the plain ladder, n-2, n-1 and
// finally the fury amounts.
func SplitShiftRange(n int) []Tier { return splitShiftRanges[clampPool(n)] }

// ShiftFalseRange drops fury entirely in round 0 and falls back to
// SplitShiftRange afterwards.
func ShiftFalseRange(n, round int) []Tier {
	if round == 0 {
		return shiftFalseRanges[clampPool(n)]
	}
	return SplitShiftRange(n)
}

func splitRange(n int) []Tier {
	r := make([]Tier, 0, 2*n+1)
	for i := 0; i <= n; i++ {
		r = append(r, Tier{Pillz: i})
	}
	for i := 0; i <= n-game.FuryCost; i++ {
		r = append(r, Tier{Pillz: i, Fury: true})
	}
	return r
}

func shiftRange(n int) []Tier {
	r := []Tier{{Pillz: n}}
	if n < game.FuryCost {
		for i := 0; i < n; i++ {
			r = append(r, Tier{Pillz: i})
		}
		return r
	}
	r = append(r, Tier{Pillz: n - 3, Fury: true}, Tier{Pillz: n - 3})
	for i := 0; i < n-3; i++ {
		r = append(r, Tier{Pillz: i, Fury: true}, Tier{Pillz: i})
	}
	return append(r, Tier{Pillz: n - 2}, Tier{Pillz: n - 1})
}

func splitShiftRange(n int) []Tier {
	r := []Tier{{Pillz: n}}
	if n < game.FuryCost {
		for i := 0; i < n; i++ {
			r = append(r, Tier{Pillz: i})
		}
		return r
	}
	r = append(r, Tier{Pillz: n - 3})
	for i := 0; i < n-3; i++ {
		r = append(r, Tier{Pillz: i})
	}
	r = append(r, Tier{Pillz: n - 2}, Tier{Pillz: n - 1}, Tier{Pillz: n - 3, Fury: true})
	for i := 0; i < n-3; i++ {
		r = append(r, Tier{Pillz: i, Fury: true})
	}
	return r
}

func shiftFalseRange(n int) []Tier {
	r := []Tier{{Pillz: n}}
	if n < game.FuryCost {
		for i := 0; i < n; i++ {
			r = append(r, Tier{Pillz: i})
		}
		return r
	}
	for i := 0; i < n-2; i++ {
		r = append(r, Tier{Pillz: i})
	}
	return append(r, Tier{Pillz: n - 2}, Tier{Pillz: n - 1})
}
