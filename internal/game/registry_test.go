package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCards = `[
  {"id": 1, "name": "Ghost Rider", "clan_id": 32, "level": 3, "level_max": 4, "power": 6, "damage": 5,
   "rarity": "r", "ability_id": 10, "ability": "Versus [Clan:29] : -2 Opp Power", "bonus_id": 11, "bonus": "Infiltrate [Clan:29] : +1 Damage",
   "release_date": 1262304000},
  {"id": 2, "name": "Ghost Maker", "clan_id": 32, "level": 2, "level_max": 3, "power": 4, "damage": 3,
   "rarity": "zz", "ability_id": 0, "ability": "No ability", "bonus_id": 11, "bonus": "Infiltrate [Clan:29] : +1 Damage",
   "release_date": 1293840000}
]`

const testAbilities = `{
  "10": {"ability_type": 2, "conditions": ["Versus [Clan:29]"],
         "modifiers": [{"eventTime": 4, "win": null, "change": -2, "per": null, "type": "POWER",
                        "opp": true, "min": 1, "max": 99, "always": false}]},
  "11": {"ability_type": 3, "conditions": [],
         "modifiers": [{"eventTime": 4, "win": null, "change": 1, "per": null, "type": "DAMAGE",
                        "opp": false, "min": 0, "max": 99, "always": false}, null]}
}`

func TestParseCatalog(t *testing.T) {
	cat, err := ParseCatalog([]byte(testCards), []byte(testAbilities))
	require.NoError(t, err)

	card, err := cat.CardByName("ghost rider")
	require.NoError(t, err)
	assert.Equal(t, ClanGHEIST, card.Clan)
	assert.Equal(t, RarityRare, card.Rarity)
	assert.Equal(t, 2010, card.Year)
	assert.Equal(t, "Versus [Roo]  : -2 Opp Power", card.AbilityText)
	assert.Equal(t, "Infiltrate [Roo]  : +1 Damage", card.BonusText)
	assert.Equal(t, "Infiltrate [Roo]  : +1 Damage", cat.AbilityText(11))

	other, err := cat.Card(2)
	require.NoError(t, err)
	assert.Equal(t, RarityCommon, other.Rarity)
	assert.Equal(t, 2011, other.Year)

	a, err := cat.LookupAbility(10)
	require.NoError(t, err)
	assert.Equal(t, 10, a.ID)
	assert.Equal(t, TypeAbility, a.Type)
	require.Len(t, a.Conditions(), 1)
	assert.Equal(t, CondVersus, a.Conditions()[0].Kind)
	assert.Equal(t, []Clan{ClanRoots}, a.Conditions()[0].Clans)
	assert.Equal(t, TimePre1, a.EventTime())

	b, err := cat.LookupAbility(11)
	require.NoError(t, err)
	assert.Len(t, b.Modifiers(), 1, "null modifiers are skipped")

	_, err = cat.LookupAbility(99)
	assert.ErrorIs(t, err, ErrUnknownAbility)
	_, err = cat.Card(99)
	assert.ErrorIs(t, err, ErrUnknownCard)

	assert.Len(t, cat.Cards(), 2)
	assert.Len(t, cat.ClanCards(ClanGHEIST), 2)
}

func TestParseCatalogRejectsDanglingAbility(t *testing.T) {
	_, err := ParseCatalog([]byte(testCards), []byte(`{"10": {"ability_type": 2, "modifiers": [], "conditions": []}}`))
	assert.ErrorIs(t, err, ErrUnknownAbility)
}

func TestParseCatalogRejectsUnknownClan(t *testing.T) {
	cards := `[{"id": 1, "name": "X", "clan_id": 99, "level": 1, "level_max": 1, "power": 1, "damage": 1, "rarity": "c", "ability_id": 0, "ability": "", "bonus_id": 0, "bonus": "", "release_date": 0}]`
	_, err := ParseCatalog([]byte(cards), []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownClan)
}

func TestLoadCatalogAndHands(t *testing.T) {
	dir := t.TempDir()
	cardsPath := filepath.Join(dir, "data.json")
	abilitiesPath := filepath.Join(dir, "compiled.json")
	handsPath := filepath.Join(dir, "hands.yaml")
	require.NoError(t, os.WriteFile(cardsPath, []byte(testCards), 0o644))
	require.NoError(t, os.WriteFile(abilitiesPath, []byte(testAbilities), 0o644))
	require.NoError(t, os.WriteFile(handsPath, []byte(`hands:
  - name: ghosts
    cards: [Ghost Rider, Ghost Maker, Ghost Rider, Ghost Maker]
  - name: short
    cards: [Ghost Rider]
`), 0o644))

	cat, err := LoadCatalog(cardsPath, abilitiesPath)
	require.NoError(t, err)
	assert.Len(t, cat.Cards(), 2)

	_, _, err = HandByNumber(handsPath, 1)
	assert.ErrorIs(t, err, ErrInvalidHand, "short hand rejects the whole file")

	require.NoError(t, os.WriteFile(handsPath, []byte(`hands:
  - name: ghosts
    cards: [Ghost Rider, Ghost Maker, Ghost Rider, Ghost Maker]
`), 0o644))
	name, names, err := HandByNumber(handsPath, 1)
	require.NoError(t, err)
	assert.Equal(t, "ghosts", name)
	h, err := cat.HandFromNames(names)
	require.NoError(t, err)
	// duplicate ids: two resolved slots, two empty ones
	assert.Equal(t, [HandSize]int{2, 2, 2, 2}, h.ClanCount)

	_, _, err = HandByNumber(handsPath, 2)
	assert.Error(t, err)
}

func TestConditionParsing(t *testing.T) {
	c, err := ParseCondition("Infiltrate [Clan:32][clan:29]")
	require.NoError(t, err)
	assert.Equal(t, CondInfiltrate, c.Kind)
	assert.Equal(t, []Clan{ClanGHEIST, ClanRoots}, c.Clans)

	c, err = ParseCondition("Victory Or Defeat")
	require.NoError(t, err)
	assert.Equal(t, CondVictoryOrDefeat, c.Kind)

	c, err = ParseCondition("Something New")
	require.NoError(t, err)
	assert.Equal(t, CondNone, c.Kind)

	_, err = ParseCondition("Versus [Clan:99]")
	assert.ErrorIs(t, err, ErrUnknownClan)
}

func TestConditionsMet(t *testing.T) {
	cat := vanillaCatalog(t)
	m := newTestMatch(t, cat, playerIDs, opponentIDs, 0, nil)
	v := viewFor(m, SidePlayer, 1, 1)

	met := func(kind ConditionKind, clans ...Clan) bool {
		return Condition{Kind: kind, Clans: clans}.Met(v)
	}
	assert.True(t, met(CondCourage))
	assert.False(t, met(CondReprisal))
	assert.True(t, met(CondSymmetry))
	assert.False(t, met(CondAsymmetry))
	assert.False(t, met(CondDefeat))
	assert.True(t, met(CondDay))
	assert.True(t, met(CondVersus, ClanRoots))
	assert.False(t, met(CondVersus, ClanFrozn))
	assert.True(t, met(CondInfiltrate, ClanJunkz), "first card's clan stands in for the wildcard")
	assert.False(t, met(CondInfiltrate, ClanRoots))

	m.Players[0].Won = ResultLose
	m.Players[0].WonPrevious = ResultWin
	m.Players[0].Life = 0
	assert.True(t, met(CondDefeat))
	assert.True(t, met(CondReanimate))
	assert.True(t, met(CondConfidence))
	assert.False(t, met(CondRevenge))
	assert.False(t, met(CondBacklash))

	v.Card.Attack.Value, v.OppCard.Attack.Value = 20, 10
	assert.True(t, met(CondKillshot))
	v.Card.Attack.Value = 19
	assert.False(t, met(CondKillshot))

	assert.False(t, met(CondStop))
	v.Card.Ability.Cancel()
	assert.True(t, met(CondStop))
}
