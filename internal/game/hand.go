package game

import "fmt"

// HandSize is the number of cards each side plays with.
const HandSize = 4

// Hand holds a side's four cards together with the synergy data resolved
// when the hand was built.
type Hand struct {
	Cards        [HandSize]Card
	ClanCount    [HandSize]int
	WildcardClan Clan
}

// NewHand builds a hand from four catalog cards and resolves synergy.
func NewHand(bases [HandSize]*BaseCard) (Hand, error) {
	var h Hand
	for i, b := range bases {
		if b == nil {
			return Hand{}, fmt.Errorf("%w: card %d missing", ErrInvalidHand, i)
		}
		h.Cards[i] = NewCard(b, i)
	}
	h.ClanCount, h.WildcardClan = resolveSynergy(&h.Cards)
	return h, nil
}

// resolveSynergy computes per-card clan counts and the wildcard clan. Cards
// sharing a catalog id count once. Any card left alone in its clan loses
// its bonus.
func resolveSynergy(cards *[HandSize]Card) ([HandSize]int, Clan) {
	var counts [HandSize]int
	var resolved [HandSize]Clan
	tally := make(map[Clan]int, HandSize)
	seen := make(map[int]bool, HandSize)

	wildcards, wildcardIndex := 0, 0
	for i := range cards {
		c := &cards[i]
		if c.Clan() == ClanOculus {
			wildcards++
			wildcardIndex = i
		}
		if !seen[c.ID()] {
			resolved[i] = c.Clan()
			tally[c.Clan()]++
			seen[c.ID()] = true
		}
	}

	if wildcards == 1 {
		switch len(tally) {
		case 2:
			if wildcardIndex == 0 {
				resolved[wildcardIndex] = cards[1].Clan()
			} else {
				resolved[wildcardIndex] = cards[0].Clan()
			}
		case 3:
			pair, solo := false, ClanNone
			for clan, n := range tally {
				switch {
				case n == 2:
					pair = true
				case n == 1 && clan != ClanOculus:
					solo = clan
				}
			}
			if pair {
				resolved[wildcardIndex] = solo
			}
		}
	}

	for i, clan := range resolved {
		n := 0
		for _, other := range resolved {
			if clan == other {
				n++
			}
		}
		if n == 1 {
			cards[i].BonusID = 0
		}
		counts[i] = n
	}
	return counts, resolved[wildcardIndex]
}

// Leader returns the hand's single Leader card. Hands holding zero or
// several leaders have none.
func (h *Hand) Leader() (*Card, bool) {
	var leader *Card
	for i := range h.Cards {
		if h.Cards[i].Clan() != ClanLeader {
			continue
		}
		if leader != nil {
			return nil, false
		}
		leader = &h.Cards[i]
	}
	return leader, leader != nil
}

// Unplayed returns the indices of cards still available.
func (h *Hand) Unplayed() []int {
	out := make([]int, 0, HandSize)
	for i := range h.Cards {
		if !h.Cards[i].Played {
			out = append(out, i)
		}
	}
	return out
}

// Names returns the card names in hand order.
func (h *Hand) Names() [HandSize]string {
	var names [HandSize]string
	for i := range h.Cards {
		names[i] = h.Cards[i].Name()
	}
	return names
}
