// Package replay loads recorded matches and checks them against the battle
// engine round by round.
package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/peterkuimelis/pillz/internal/game"
)

// Move is the [index, pillz, fury] triple used in recorded files.
type Move game.Selection

func (m Move) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{m.Index, m.Pillz, m.Fury})
}

func (m *Move) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("%w: want [index, pillz, fury], got %s", game.ErrMalformedSelection, data)
	}
	if err := json.Unmarshal(raw[0], &m.Index); err != nil {
		return fmt.Errorf("%w: index: %v", game.ErrMalformedSelection, err)
	}
	if err := json.Unmarshal(raw[1], &m.Pillz); err != nil {
		return fmt.Errorf("%w: pillz: %v", game.ErrMalformedSelection, err)
	}
	if err := json.Unmarshal(raw[2], &m.Fury); err != nil {
		return fmt.Errorf("%w: fury: %v", game.ErrMalformedSelection, err)
	}
	return nil
}

// Round is one recorded round: the first and second selection in turn
// order and both players' resources once it resolved.
type Round struct {
	S1      Move `json:"s1"`
	S2      Move `json:"s2"`
	P1Life  int  `json:"p1life"`
	P2Life  int  `json:"p2life"`
	P1Pillz int  `json:"p1pillz"`
	P2Pillz int  `json:"p2pillz"`
}

// Testcase is a full recorded match.
type Testcase struct {
	Cards [2 * game.HandSize]string `json:"cards"`
	Flip  bool                      `json:"flip"`
	Life  int                       `json:"life"`
	Pillz int                       `json:"pillz"`
	Moves []Round                   `json:"moves"`
}

// Setup converts the header into a match setup.
func (tc Testcase) Setup() game.Setup {
	s := game.Setup{Cards: tc.Cards, Life: tc.Life, Pillz: tc.Pillz}
	if tc.Flip {
		s.Flip = 1
	}
	return s
}

// Load reads a JSON array of testcases.
func Load(path string) ([]Testcase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading testcases: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]Testcase, error) {
	var cases []Testcase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parsing testcases: %w", err)
	}
	return cases, nil
}

// Write stores testcases as an indented JSON array.
func Write(path string, cases []Testcase) error {
	data, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
