package game

import (
	"cmp"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// cardData is one entry of the card catalog file.
type cardData struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	ClanID      int    `yaml:"clan_id"`
	Level       int    `yaml:"level"`
	LevelMax    int    `yaml:"level_max"`
	Power       int    `yaml:"power"`
	Damage      int    `yaml:"damage"`
	Rarity      string `yaml:"rarity"`
	AbilityID   int    `yaml:"ability_id"`
	Ability     string `yaml:"ability"`
	BonusID     int    `yaml:"bonus_id"`
	Bonus       string `yaml:"bonus"`
	ReleaseDate int64  `yaml:"release_date"`
}

// Catalog is the read-only card and ability database shared by every
// match built from it.
type Catalog struct {
	cards     map[int]*BaseCard
	byName    map[string]*BaseCard
	byClan    map[Clan][]*BaseCard
	abilities map[int]Ability
	texts     map[int]string
}

// LoadCatalog reads the card list and the compiled ability map. Both files
// may be JSON or YAML.
func LoadCatalog(cardsPath, abilitiesPath string) (*Catalog, error) {
	cards, err := os.ReadFile(cardsPath)
	if err != nil {
		return nil, err
	}
	abilities, err := os.ReadFile(abilitiesPath)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(cards, abilities)
}

// ParseCatalog decodes catalog file contents.
func ParseCatalog(cardsData, abilitiesData []byte) (*Catalog, error) {
	var raw []cardData
	if err := yaml.Unmarshal(cardsData, &raw); err != nil {
		return nil, fmt.Errorf("parse cards: %w", err)
	}
	var rawAbilities map[string]Ability
	if err := yaml.Unmarshal(abilitiesData, &rawAbilities); err != nil {
		return nil, fmt.Errorf("parse abilities: %w", err)
	}

	abilities := make(map[int]Ability, len(rawAbilities))
	for key, a := range rawAbilities {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("parse abilities: key %q: %w", key, err)
		}
		abilities[id] = a
	}

	cards := make([]BaseCard, 0, len(raw))
	for _, d := range raw {
		clan, err := ClanFromID(d.ClanID)
		if err != nil {
			return nil, fmt.Errorf("card %d (%s): %w", d.ID, d.Name, err)
		}
		cards = append(cards, BaseCard{
			ID:          d.ID,
			Name:        d.Name,
			Clan:        clan,
			Level:       d.Level,
			LevelMax:    d.LevelMax,
			Power:       d.Power,
			Damage:      d.Damage,
			Rarity:      ParseRarity(d.Rarity),
			AbilityID:   d.AbilityID,
			AbilityText: ReplaceClanTags(d.Ability),
			BonusID:     d.BonusID,
			BonusText:   ReplaceClanTags(d.Bonus),
			Year:        time.Unix(d.ReleaseDate, 0).UTC().Year(),
		})
	}
	return NewCatalog(cards, abilities)
}

// NewCatalog indexes cards and abilities. Every non-zero ability or bonus
// id a card references must be present.
func NewCatalog(cards []BaseCard, abilities map[int]Ability) (*Catalog, error) {
	c := &Catalog{
		cards:     make(map[int]*BaseCard, len(cards)),
		byName:    make(map[string]*BaseCard, len(cards)),
		byClan:    make(map[Clan][]*BaseCard),
		abilities: make(map[int]Ability, len(abilities)),
		texts:     make(map[int]string),
	}
	for id, a := range abilities {
		a.ID = id
		c.abilities[id] = a
	}
	for i := range cards {
		card := &cards[i]
		for _, id := range []int{card.AbilityID, card.BonusID} {
			if _, ok := c.abilities[id]; id != 0 && !ok {
				return nil, fmt.Errorf("card %d (%s): %w %d", card.ID, card.Name, ErrUnknownAbility, id)
			}
		}
		c.cards[card.ID] = card
		c.byName[strings.ToLower(card.Name)] = card
		c.byClan[card.Clan] = append(c.byClan[card.Clan], card)
		if card.AbilityID != 0 {
			c.texts[card.AbilityID] = card.AbilityText
		}
		if card.BonusID != 0 {
			c.texts[card.BonusID] = card.BonusText
		}
	}
	return c, nil
}

// Card looks up a card by catalog id.
func (c *Catalog) Card(id int) (*BaseCard, error) {
	card, ok := c.cards[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownCard, id)
	}
	return card, nil
}

// CardByName looks up a card by name, ignoring case.
func (c *Catalog) CardByName(name string) (*BaseCard, error) {
	card, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCard, name)
	}
	return card, nil
}

// Cards returns every card ordered by id.
func (c *Catalog) Cards() []*BaseCard {
	out := make([]*BaseCard, 0, len(c.cards))
	for _, card := range c.cards {
		out = append(out, card)
	}
	slices.SortFunc(out, func(a, b *BaseCard) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// ClanCards returns the cards of one clan ordered by id.
func (c *Catalog) ClanCards(clan Clan) []*BaseCard {
	out := slices.Clone(c.byClan[clan])
	slices.SortFunc(out, func(a, b *BaseCard) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// LookupAbility returns a fresh instance of ability id.
func (c *Catalog) LookupAbility(id int) (Ability, error) {
	a, ok := c.abilities[id]
	if !ok {
		return Ability{}, fmt.Errorf("%w: id %d", ErrUnknownAbility, id)
	}
	return a, nil
}

// ability returns a fresh instance of id. Id 0 is "no ability" and yields
// an empty one. Cards are validated at load time, so a miss is a bug.
func (c *Catalog) ability(id int) Ability {
	a, ok := c.abilities[id]
	if !ok {
		if id == 0 {
			return Ability{}
		}
		panic(fmt.Sprintf("%v: id %d", ErrUnknownAbility, id))
	}
	return a
}

// AbilityText returns the display text recorded for an ability id.
func (c *Catalog) AbilityText(id int) string {
	return c.texts[id]
}

// HandFromNames builds a hand from four card names.
func (c *Catalog) HandFromNames(names [HandSize]string) (Hand, error) {
	var bases [HandSize]*BaseCard
	for i, name := range names {
		card, err := c.CardByName(name)
		if err != nil {
			return Hand{}, err
		}
		bases[i] = card
	}
	return NewHand(bases)
}

// HandFromIDs builds a hand from four card ids.
func (c *Catalog) HandFromIDs(ids [HandSize]int) (Hand, error) {
	var bases [HandSize]*BaseCard
	for i, id := range ids {
		card, err := c.Card(id)
		if err != nil {
			return Hand{}, err
		}
		bases[i] = card
	}
	return NewHand(bases)
}
