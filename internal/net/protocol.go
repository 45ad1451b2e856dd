package net

// Message types for the JSON protocol over TCP and websocket.

// --- Server → Client messages ---

// ServerMessage is the envelope for all server-to-client messages.
type ServerMessage struct {
	Type string `json:"type"`

	// For "state" and "game_over"
	State  *StateView  `json:"state,omitempty"`
	Events []EventView `json:"events,omitempty"`

	// For "advice"
	Advice *Advice `json:"advice,omitempty"`

	// For "analysis"
	Analysis *Analysis `json:"analysis,omitempty"`

	// For "game_over"
	Result string `json:"result,omitempty"`

	// For "error"
	Error string `json:"error,omitempty"`
}

// EventView is a simplified battle event for the client.
type EventView struct {
	Round   int    `json:"round"`
	Phase   string `json:"phase,omitempty"`
	Player  int    `json:"player"`
	Type    string `json:"type"`
	Card    string `json:"card,omitempty"`
	Details string `json:"details"`
}

// SelectionView is a committed or proposed selection. Hidden is set when
// only the card index of the other side's commitment is visible.
type SelectionView struct {
	Index  int  `json:"index"`
	Pillz  int  `json:"pillz"`
	Fury   bool `json:"fury"`
	Hidden bool `json:"hidden,omitempty"`
}

// CardView describes one card of a hand.
type CardView struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Clan    string `json:"clan"`
	Level   int    `json:"level"`
	Power   int    `json:"power"`
	Damage  int    `json:"damage"`
	Attack  int    `json:"attack,omitempty"`
	Synergy int    `json:"synergy"`
	Played  bool   `json:"played,omitempty"`
	Won     bool   `json:"won,omitempty"`
	Ability string `json:"ability,omitempty"`
	Bonus   string `json:"bonus,omitempty"`
}

// PlayerView shows one side of the table.
type PlayerView struct {
	Name      string         `json:"name"`
	Life      int            `json:"life"`
	Pillz     int            `json:"pillz"`
	Result    string         `json:"result,omitempty"`
	Wildcard  string         `json:"wildcard,omitempty"`
	Selection *SelectionView `json:"selection,omitempty"`
	Hand      []CardView     `json:"hand"`
}

// StateView is the match as seen from one seat.
type StateView struct {
	MatchID  string     `json:"match_id"`
	Round    int        `json:"round"`
	Flip     int        `json:"flip"`
	Turn     string     `json:"turn"`
	Status   string     `json:"status"`
	Over     bool       `json:"over"`
	Player   PlayerView `json:"player"`
	Opponent PlayerView `json:"opponent"`
}

// CandidateView is one ranked candidate of a statistical search.
type CandidateView struct {
	Selection SelectionView `json:"selection"`
	Wins      int           `json:"wins"`
	Draws     int           `json:"draws"`
	Losses    int           `json:"losses"`
	Rate      float64       `json:"rate"`
	Glyph     string        `json:"glyph"`
}

// Advice is a solver recommendation for the side to move.
type Advice struct {
	Mode       string          `json:"mode"` // "exact" or "middle"
	Side       string          `json:"side"`
	Outcome    string          `json:"outcome,omitempty"`
	Selection  SelectionView   `json:"selection"`
	Rate       float64         `json:"rate,omitempty"`
	Candidates []CandidateView `json:"candidates,omitempty"`
	Battles    int64           `json:"battles"`
	Seconds    float64         `json:"seconds"`
}

// Analysis is the full result tree of the remaining rounds.
type Analysis struct {
	Best       []SelectionView `json:"best"`
	Worst      int             `json:"worst"`
	WinPercent float64         `json:"win_percent"`
	Tree       string          `json:"tree"`
}

// --- Client → Server messages ---

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type string `json:"type"`

	// For "setup"
	Cards []string `json:"cards,omitempty"`
	Flip  bool     `json:"flip,omitempty"`
	Life  int      `json:"life,omitempty"`
	Pillz int      `json:"pillz,omitempty"`

	// For "select"; Reselect discards pending selections first
	Selection *SelectionView `json:"selection,omitempty"`
	Reselect  bool           `json:"reselect,omitempty"`
}

// Message types.
const (
	MsgJoin      = "join"
	MsgSetup     = "setup"
	MsgSelect    = "select"
	MsgCancel    = "cancel"
	MsgState     = "state"
	MsgRecommend = "recommend"
	MsgAnalyze   = "analyze"

	MsgAdvice   = "advice"
	MsgAnalysis = "analysis"
	MsgGameOver = "game_over"
	MsgError    = "error"
)
