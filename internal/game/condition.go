package game

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConditionKind enumerates ability trigger predicates.
type ConditionKind int

const (
	CondNone ConditionKind = iota // unrecognized, always met
	CondCourage
	CondDefeat
	CondBrawl
	CondGrowth
	CondConfidence
	CondDegrowth
	CondVictoryOrDefeat
	CondEqualizer
	CondSupport
	CondTeam
	CondSymmetry
	CondRevenge
	CondReprisal
	CondDay
	CondNight
	CondKillshot
	CondBacklash
	CondAsymmetry
	CondReanimate
	CondStop
	CondInfiltrate
	CondVersus
)

var conditionNames = map[string]ConditionKind{
	"Courage":           CondCourage,
	"Defeat":            CondDefeat,
	"Brawl":             CondBrawl,
	"Growth":            CondGrowth,
	"Confidence":        CondConfidence,
	"Degrowth":          CondDegrowth,
	"Victory Or Defeat": CondVictoryOrDefeat,
	"Equalizer":         CondEqualizer,
	"Support":           CondSupport,
	"Team":              CondTeam,
	"Symmetry":          CondSymmetry,
	"Revenge":           CondRevenge,
	"Reprisal":          CondReprisal,
	"Day":               CondDay,
	"Night":             CondNight,
	"Killshot":          CondKillshot,
	"Backlash":          CondBacklash,
	"Asymmetry":         CondAsymmetry,
	"Reanimate":         CondReanimate,
	"Stop":              CondStop,
}

func (k ConditionKind) String() string {
	switch k {
	case CondInfiltrate:
		return "Infiltrate"
	case CondVersus:
		return "Versus"
	case CondNone:
		return "None"
	}
	for name, kind := range conditionNames {
		if kind == k {
			return name
		}
	}
	return "None"
}

// clanTag matches the clan-list notation embedded in ability text.
var clanTag = regexp.MustCompile(`\[[Cc]lan:(\d+)\]`)

// Condition is a trigger predicate. Clans is set only for the Infiltrate
// and Versus kinds and is never mutated after parsing.
type Condition struct {
	Kind  ConditionKind
	Clans []Clan
}

// ParseCondition decodes the catalog notation. Strings ending in a clan
// tag become Versus when prefixed "Versus" and Infiltrate otherwise.
func ParseCondition(s string) (Condition, error) {
	if strings.HasSuffix(s, "]") {
		var list []Clan
		for _, m := range clanTag.FindAllStringSubmatch(s, -1) {
			id, err := strconv.Atoi(m[1])
			if err != nil {
				return Condition{}, err
			}
			c, err := ClanFromID(id)
			if err != nil {
				return Condition{}, err
			}
			list = append(list, c)
		}
		if strings.HasPrefix(s, "Versus") {
			return Condition{Kind: CondVersus, Clans: list}, nil
		}
		return Condition{Kind: CondInfiltrate, Clans: list}, nil
	}
	return Condition{Kind: conditionNames[s]}, nil
}

func (c *Condition) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseCondition(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Met evaluates the predicate against the acting side's view.
func (c Condition) Met(v *BattleView) bool {
	switch c.Kind {
	case CondDefeat:
		return v.Player.Won == ResultLose
	case CondCourage:
		return v.First
	case CondReprisal:
		return !v.First
	case CondRevenge:
		return v.Player.WonPrevious == ResultLose
	case CondConfidence:
		return v.Player.WonPrevious == ResultWin
	case CondKillshot:
		return v.Card.Attack.Value >= v.OppCard.Attack.Value*2
	case CondBacklash:
		return v.Player.Won == ResultWin
	case CondReanimate:
		return v.Player.Won == ResultLose && v.Player.Life == 0
	case CondStop:
		return v.Card.Ability.Cancelled != 0
	case CondSymmetry:
		return v.Card.Index == v.OppCard.Index
	case CondAsymmetry:
		return v.Card.Index != v.OppCard.Index
	case CondInfiltrate:
		clan := v.Hand.WildcardClan
		return clan != ClanNone && slices.Contains(c.Clans, clan)
	case CondVersus:
		for i := range v.OppHand.Cards {
			if slices.Contains(c.Clans, v.OppHand.Cards[i].Clan()) {
				return true
			}
		}
		return false
	default:
		// Day, Night and the multiplier-style tags carry no predicate.
		return true
	}
}

func (c Condition) String() string {
	if len(c.Clans) == 0 {
		return c.Kind.String()
	}
	names := make([]string, len(c.Clans))
	for i, clan := range c.Clans {
		names[i] = clan.ShortName()
	}
	return c.Kind.String() + " " + strings.Join(names, "")
}

// ReplaceClanTags rewrites clan tags in ability text to short names.
func ReplaceClanTags(s string) string {
	return clanTag.ReplaceAllStringFunc(s, func(tag string) string {
		m := clanTag.FindStringSubmatch(tag)
		id, err := strconv.Atoi(m[1])
		if err != nil {
			return tag
		}
		c, err := ClanFromID(id)
		if err != nil {
			return tag
		}
		return c.ShortName() + " "
	})
}
