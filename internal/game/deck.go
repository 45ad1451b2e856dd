package game

import (
	"fmt"
	"os"
	"strings"

	"github.com/peterkuimelis/pillz/internal/log"
	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v3"
)

// HandFile represents the top-level YAML structure of saved hands.
type HandFile struct {
	Hands []HandEntry `yaml:"hands"`
}

// HandEntry represents a single named hand in the YAML file.
type HandEntry struct {
	Name  string   `yaml:"name"`
	Cards []string `yaml:"cards"`
}

// ParseHandFile parses a YAML hand file.
func ParseHandFile(path string) (*HandFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var hf HandFile
	if err := yaml.Unmarshal(data, &hf); err != nil {
		return nil, fmt.Errorf("parse hand YAML: %w", err)
	}
	for _, h := range hf.Hands {
		if len(h.Cards) != HandSize {
			return nil, fmt.Errorf("%w: %q has %d cards", ErrInvalidHand, h.Name, len(h.Cards))
		}
	}
	return &hf, nil
}

// HandByNumber returns the Nth hand (1-indexed) from the hand file.
func HandByNumber(path string, n int) (string, [HandSize]string, error) {
	var names [HandSize]string
	hf, err := ParseHandFile(path)
	if err != nil {
		return "", names, err
	}
	if n < 1 || n > len(hf.Hands) {
		return "", names, fmt.Errorf("hand %d not found (have %d hands)", n, len(hf.Hands))
	}
	entry := hf.Hands[n-1]
	copy(names[:], entry.Cards)
	return entry.Name, names, nil
}

// --- Setup ---

// Setup is the serializable description of a match: eight card names,
// the player's four first.
type Setup struct {
	Cards [2 * HandSize]string `json:"cards" yaml:"cards"`
	Flip  int                  `json:"flip" yaml:"flip"`
	Life  int                  `json:"life" yaml:"life"`
	Pillz int                  `json:"pillz" yaml:"pillz"`
}

// ParseSetup builds a setup from eight card names and an optional flip.
func ParseSetup(names []string, flip bool) (Setup, error) {
	var s Setup
	if len(names) != 2*HandSize {
		return s, fmt.Errorf("%w: need %d card names, got %d", ErrInvalidHand, 2*HandSize, len(names))
	}
	for i, n := range names {
		s.Cards[i] = strings.TrimSpace(n)
	}
	if flip {
		s.Flip = 1
	}
	return s, nil
}

// Hands splits the setup into the two hand name lists.
func (s Setup) Hands() (player, opponent [HandSize]string) {
	copy(player[:], s.Cards[:HandSize])
	copy(opponent[:], s.Cards[HandSize:])
	return player, opponent
}

// NewMatchFromSetup resolves the setup's card names and starts a match.
func NewMatchFromSetup(cat *Catalog, s Setup, logger log.EventLogger) (*Match, error) {
	names1, names2 := s.Hands()
	h1, err := cat.HandFromNames(names1)
	if err != nil {
		return nil, fmt.Errorf("player hand: %w", err)
	}
	h2, err := cat.HandFromNames(names2)
	if err != nil {
		return nil, fmt.Errorf("opponent hand: %w", err)
	}
	return NewMatch(cat, MatchConfig{
		Hands:  [2]Hand{h1, h2},
		Flip:   s.Flip,
		Life:   s.Life,
		Pillz:  s.Pillz,
		Logger: logger,
	}), nil
}

// --- Random hands ---

// RandomHand draws four distinct cards of one clan.
func (c *Catalog) RandomHand(clan Clan, rng *rand.Rand) (Hand, error) {
	pool := c.ClanCards(clan)
	if len(pool) < HandSize {
		return Hand{}, fmt.Errorf("%w: %s has %d", ErrEmptyClan, clan, len(pool))
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	var bases [HandSize]*BaseCard
	copy(bases[:], pool)
	return NewHand(bases)
}

// RandomSetup draws a hand per clan and returns the matching setup.
func (c *Catalog) RandomSetup(player, opponent Clan, seed uint64) (Setup, error) {
	rng := rand.New(rand.NewSource(seed))
	var s Setup
	for i, clan := range []Clan{player, opponent} {
		h, err := c.RandomHand(clan, rng)
		if err != nil {
			return s, err
		}
		names := h.Names()
		copy(s.Cards[i*HandSize:], names[:])
	}
	s.Flip = int(rng.Uint64() & 1)
	return s, nil
}
