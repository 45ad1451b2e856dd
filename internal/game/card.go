package game

// BaseCard is the immutable catalog entry a Card is built from.
type BaseCard struct {
	ID          int
	Name        string
	Clan        Clan
	Level       int
	LevelMax    int
	Power       int
	Damage      int
	Rarity      Rarity
	AbilityID   int
	AbilityText string
	BonusID     int
	BonusText   string
	Year        int
}

// CardAttr tracks how often an attribute was cancelled and protected this
// round. Any protection overrides every cancel.
type CardAttr struct {
	Cancelled int
	Protected int
}

func (a *CardAttr) Cancel()       { a.Cancelled++ }
func (a *CardAttr) RemoveCancel() { a.Cancelled-- }
func (a *CardAttr) Protect()      { a.Protected++ }

// IsBlocked reports whether the attribute is cancelled and unprotected.
func (a CardAttr) IsBlocked() bool { return a.Protected == 0 && a.Cancelled != 0 }

func (a CardAttr) IsProtected() bool { return a.Protected != 0 }

// CardStat is a numeric stat with its printed base and live value.
type CardStat struct {
	Attr  CardAttr
	Base  int
	Value int
}

func newStat(v int) CardStat { return CardStat{Base: v, Value: v} }

// Card is a hand member with mutable per-match state. It is a plain value:
// copying a Card copies all of its state.
type Card struct {
	Base      *BaseCard
	Index     int
	Played    bool
	Won       bool
	Level     int
	Power     CardStat
	Damage    CardStat
	Attack    CardStat
	AbilityID int
	Ability   CardAttr
	BonusID   int
	Bonus     CardAttr
	Life      CardAttr
	Pillz     CardAttr
}

// NewCard instantiates base at hand position index.
func NewCard(base *BaseCard, index int) Card {
	return Card{
		Base:      base,
		Index:     index,
		Level:     base.Level,
		Power:     newStat(base.Power),
		Damage:    newStat(base.Damage),
		AbilityID: base.AbilityID,
		BonusID:   base.BonusID,
	}
}

func (c *Card) Name() string { return c.Base.Name }
func (c *Card) Clan() Clan   { return c.Base.Clan }
func (c *Card) ID() int      { return c.Base.ID }
