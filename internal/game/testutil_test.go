package game

import (
	"testing"

	"github.com/peterkuimelis/pillz/internal/log"
	"github.com/stretchr/testify/require"
)

// vanillaCard creates an ability-less catalog card.
func vanillaCard(id int, name string, clan Clan, level, power, damage int) BaseCard {
	return BaseCard{
		ID:       id,
		Name:     name,
		Clan:     clan,
		Level:    level,
		LevelMax: level,
		Power:    power,
		Damage:   damage,
	}
}

// abilityCard creates a catalog card carrying ability and bonus ids.
func abilityCard(id int, name string, clan Clan, level, power, damage, abilityID, bonusID int) BaseCard {
	c := vanillaCard(id, name, clan, level, power, damage)
	c.AbilityID = abilityID
	c.BonusID = bonusID
	return c
}

// basicMod builds a basic stat modifier with the usual [0, 99) window.
func basicMod(t EventTime, stat Stat, change int, opp bool) Modifier {
	return Modifier{Kind: ModBasic, Time: t, Stat: stat, Change: change, Opp: opp, Min: 0, Max: 99}
}

func cancelMod(t EventTime, target CancelTarget) Modifier {
	return Modifier{Kind: ModCancel, Time: t, Cancel: target}
}

func mustCatalog(t *testing.T, cards []BaseCard, abilities map[int]Ability) *Catalog {
	t.Helper()
	cat, err := NewCatalog(cards, abilities)
	require.NoError(t, err)
	return cat
}

// vanillaCatalog holds eight identical power-10/damage-4 cards split over
// two clans, ids 1-4 for the player and 11-14 for the opponent.
func vanillaCatalog(t *testing.T) *Catalog {
	t.Helper()
	var cards []BaseCard
	for i := 1; i <= 4; i++ {
		cards = append(cards, vanillaCard(i, "Punk "+string(rune('A'+i-1)), ClanJunkz, 3, 10, 4))
		cards = append(cards, vanillaCard(10+i, "Roots "+string(rune('A'+i-1)), ClanRoots, 3, 10, 4))
	}
	return mustCatalog(t, cards, nil)
}

// newTestMatch builds a match from card ids.
func newTestMatch(t *testing.T, cat *Catalog, player, opponent [HandSize]int, flip int, logger log.EventLogger) *Match {
	t.Helper()
	h1, err := cat.HandFromIDs(player)
	require.NoError(t, err)
	h2, err := cat.HandFromIDs(opponent)
	require.NoError(t, err)
	return NewMatch(cat, MatchConfig{Hands: [2]Hand{h1, h2}, Flip: flip, Logger: logger})
}

// play commits both selections in turn order and requires a battle.
func play(t *testing.T, m *Match, first, second Selection) {
	t.Helper()
	battled, err := m.Play(first)
	require.NoError(t, err)
	require.False(t, battled)
	battled, err = m.Play(second)
	require.NoError(t, err)
	require.True(t, battled)
}

// viewFor builds a battle view for side as battle() would, outside a round.
func viewFor(m *Match, side Side, index, oppIndex int) *BattleView {
	opp := side.Opposite()
	return &BattleView{
		Round:   m.Round,
		First:   m.FirstTurn() == side,
		Side:    side,
		Hand:    &m.Hands[side],
		OppHand: &m.Hands[opp],
		Player:  &m.Players[side],
		Opp:     &m.Players[opp],
		Card:    &m.Hands[side].Cards[index],
		OppCard: &m.Hands[opp].Cards[oppIndex],
		catalog: m.catalog,
	}
}
