package game

import "fmt"

// --- Enums ---

// Clan is a card faction, identified by its catalog id.
type Clan int

const (
	ClanNone        Clan = 0
	ClanMontana     Clan = 3
	ClanPussycats   Clan = 4
	ClanUluWatu     Clan = 10
	ClanFangPiClang Clan = 25
	ClanJunkz       Clan = 26
	ClanLaJunta     Clan = 27
	ClanUppers      Clan = 28
	ClanRoots       Clan = 29
	ClanSakrohm     Clan = 30
	ClanBangers     Clan = 31
	ClanGHEIST      Clan = 32
	ClanSentinel    Clan = 33
	ClanLeader      Clan = 36
	ClanNightmare   Clan = 37
	ClanAllStars    Clan = 38
	ClanFreaks      Clan = 40
	ClanRescue      Clan = 41
	ClanPiranas     Clan = 42
	ClanJungo       Clan = 43
	ClanSkeelz      Clan = 44
	ClanVortex      Clan = 45
	ClanBerzerk     Clan = 46
	ClanFrozn       Clan = 47
	ClanHuracan     Clan = 48
	ClanRiots       Clan = 49
	ClanRaptors     Clan = 50
	ClanHive        Clan = 51
	ClanGhosTown    Clan = 52
	ClanDominion    Clan = 53
	ClanKomboka     Clan = 54
	ClanParadox     Clan = 55
	ClanOculus      Clan = 56
	ClanOblivion    Clan = 57
)

type clanInfo struct {
	name  string
	short string
}

var clans = map[Clan]clanInfo{
	ClanNone:        {"None", ""},
	ClanMontana:     {"Montana", "Mtna"},
	ClanPussycats:   {"Pussycats", "Psy"},
	ClanUluWatu:     {"UluWatu", "Ulu"},
	ClanFangPiClang: {"FangPiClang", "Fng"},
	ClanJunkz:       {"Junkz", "Jkz"},
	ClanLaJunta:     {"LaJunta", "LaJ"},
	ClanUppers:      {"Uppers", "Upp"},
	ClanRoots:       {"Roots", "Roo"},
	ClanSakrohm:     {"Sakrohm", "Skm"},
	ClanBangers:     {"Bangers", "Bgr"},
	ClanGHEIST:      {"GHEIST", "Ght"},
	ClanSentinel:    {"Sentinel", "Stl"},
	ClanLeader:      {"Leader", "Ldr"},
	ClanNightmare:   {"Nightmare", "Ntm"},
	ClanAllStars:    {"AllStars", "AlS"},
	ClanFreaks:      {"Freaks", "Frk"},
	ClanRescue:      {"Rescue", "Rsc"},
	ClanPiranas:     {"Piranas", "Prna"},
	ClanJungo:       {"Jungo", "Jng"},
	ClanSkeelz:      {"Skeelz", "Skl"},
	ClanVortex:      {"Vortex", "Vtx"},
	ClanBerzerk:     {"Berzerk", "Bzk"},
	ClanFrozn:       {"Frozn", "Fzn"},
	ClanHuracan:     {"Huracan", "Hcn"},
	ClanRiots:       {"Riots", "Rio"},
	ClanRaptors:     {"Raptors", "Rptr"},
	ClanHive:        {"Hive", "Hiv"},
	ClanGhosTown:    {"GhosTown", "GT"},
	ClanDominion:    {"Dominion", "Dmn"},
	ClanKomboka:     {"Komboka", "Kmb"},
	ClanParadox:     {"Paradox", "Pdx"},
	ClanOculus:      {"Oculus", "Ocu"},
	ClanOblivion:    {"Oblivion", "Obl"},
}

// ClanFromID converts a catalog clan id. Unknown ids are rejected.
func ClanFromID(id int) (Clan, error) {
	c := Clan(id)
	if _, ok := clans[c]; !ok {
		return ClanNone, fmt.Errorf("%w: clan id %d", ErrUnknownClan, id)
	}
	return c, nil
}

// ClanByName resolves a clan by its full name, case-sensitive.
func ClanByName(name string) (Clan, bool) {
	for c, info := range clans {
		if info.name == name && c != ClanNone {
			return c, true
		}
	}
	return ClanNone, false
}

func (c Clan) String() string {
	if info, ok := clans[c]; ok {
		return info.name
	}
	return fmt.Sprintf("Clan(%d)", int(c))
}

// ShortName returns the bracketed abbreviation, e.g. "[Ght]".
func (c Clan) ShortName() string {
	info, ok := clans[c]
	if !ok || info.short == "" {
		return ""
	}
	return "[" + info.short + "]"
}

// Rarity is cosmetic and never affects battle resolution.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityCollector
	RarityMythic
	RarityLegendary
)

// ParseRarity maps catalog rarity codes. Anything unrecognized is common.
func ParseRarity(s string) Rarity {
	switch s {
	case "u":
		return RarityUncommon
	case "r":
		return RarityRare
	case "cr":
		return RarityCollector
	case "m":
		return RarityMythic
	case "l":
		return RarityLegendary
	default:
		return RarityCommon
	}
}

func (r Rarity) String() string {
	switch r {
	case RarityUncommon:
		return "Uncommon"
	case RarityRare:
		return "Rare"
	case RarityCollector:
		return "Collector"
	case RarityMythic:
		return "Mythic"
	case RarityLegendary:
		return "Legendary"
	default:
		return "Common"
	}
}

// EventTime is the phase of a battle at which a modifier fires.
type EventTime int

const (
	TimeStart EventTime = iota
	TimePre4
	TimePre3
	TimePre2
	TimePre1
	TimePost1
	TimePost2
	TimePost3
	TimePost4
	TimeEnd

	eventTimeCount = int(TimeEnd) + 1
)

func (t EventTime) String() string {
	switch t {
	case TimeStart:
		return "START"
	case TimePre4:
		return "PRE4"
	case TimePre3:
		return "PRE3"
	case TimePre2:
		return "PRE2"
	case TimePre1:
		return "PRE1"
	case TimePost1:
		return "POST1"
	case TimePost2:
		return "POST2"
	case TimePost3:
		return "POST3"
	case TimePost4:
		return "POST4"
	case TimeEnd:
		return "END"
	default:
		return fmt.Sprintf("EventTime(%d)", int(t))
	}
}

// AbilityType decides which queue an ability lands in and which card
// attribute gates it.
type AbilityType int

const (
	TypeNone AbilityType = iota
	TypeGlobal
	TypeAbility
	TypeBonus
	TypeGlobalAbility
	TypeGlobalBonus
)

func (t AbilityType) String() string {
	switch t {
	case TypeGlobal:
		return "Global"
	case TypeAbility:
		return "Ability"
	case TypeBonus:
		return "Bonus"
	case TypeGlobalAbility:
		return "GlobalAbility"
	case TypeGlobalBonus:
		return "GlobalBonus"
	default:
		return "None"
	}
}

// IsGlobal reports whether abilities of this type persist across rounds.
func (t AbilityType) IsGlobal() bool {
	return t == TypeGlobalAbility || t == TypeGlobalBonus
}

// Remapping applied when an ability is copied into the other slot. A bare
// Global has no entry: copying it yields nothing.
var (
	abilityAsBonus = map[AbilityType]AbilityType{
		TypeNone:          TypeNone,
		TypeAbility:       TypeBonus,
		TypeBonus:         TypeBonus,
		TypeGlobalAbility: TypeGlobalBonus,
		TypeGlobalBonus:   TypeGlobalBonus,
	}
	bonusAsAbility = map[AbilityType]AbilityType{
		TypeNone:          TypeNone,
		TypeAbility:       TypeAbility,
		TypeBonus:         TypeAbility,
		TypeGlobalAbility: TypeGlobalAbility,
		TypeGlobalBonus:   TypeGlobalAbility,
	}
)

// RoundResult is a side's outcome in the most recent battle.
type RoundResult int

const (
	ResultNone RoundResult = iota
	ResultWin
	ResultLose
)

func (r RoundResult) String() string {
	switch r {
	case ResultWin:
		return "Win"
	case ResultLose:
		return "Lose"
	default:
		return "None"
	}
}

// Side identifies one of the two players.
type Side int

const (
	SidePlayer Side = iota
	SideOpponent
)

func (s Side) Opposite() Side { return 1 - s }

func (s Side) String() string {
	if s == SidePlayer {
		return "Player"
	}
	return "Opponent"
}

// GameStatus is the match outcome as seen from the player's side.
type GameStatus int

const (
	StatusPlaying GameStatus = iota
	StatusPlayer
	StatusOpponent
	StatusDraw
)

func (s GameStatus) String() string {
	switch s {
	case StatusPlayer:
		return "Player"
	case StatusOpponent:
		return "Opponent"
	case StatusDraw:
		return "Draw"
	default:
		return "Playing"
	}
}

// Over reports whether the match has ended.
func (s GameStatus) Over() bool { return s != StatusPlaying }

// WinnerIs reports whether the status is a win for side.
func (s GameStatus) WinnerIs(side Side) bool {
	return (s == StatusPlayer && side == SidePlayer) || (s == StatusOpponent && side == SideOpponent)
}

// LoserIs reports whether the status is a loss for side.
func (s GameStatus) LoserIs(side Side) bool {
	return (s == StatusOpponent && side == SidePlayer) || (s == StatusPlayer && side == SideOpponent)
}
