package domain

import (
	"fmt"
	"strings"
)

// MalaSize is the number of completed pairs in one mala
const MalaSize = 108

// Symbol is one of the two game buttons
type Symbol int

const (
	NoSymbol Symbol = iota
	Hare
	Krishna
)

// Opposite returns the symbol that alternates with s
func (s Symbol) Opposite() Symbol {
	if s == Hare {
		return Krishna
	}
	return Hare
}

func (s Symbol) String() string {
	switch s {
	case Hare:
		return "hare"
	case Krishna:
		return "krishna"
	default:
		return "none"
	}
}

// ParseSymbol maps a button name or key binding to a symbol
func ParseSymbol(v string) (Symbol, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "hare", "h", "a":
		return Hare, nil
	case "krishna", "k", "b":
		return Krishna, nil
	}
	return NoSymbol, fmt.Errorf("unknown symbol %q", v)
}

// ClickResult describes what a single click did
type ClickResult struct {
	Correct       bool // the click matched the expected symbol
	Paired        bool // the click completed a Hare-Krishna pair
	MalaCompleted bool // the pair completed a whole mala
}

// ClickState represents one player's local game session
type ClickState struct {
	Score     int64
	Expecting Symbol
	Last      Symbol
}

// NewClickState creates a session expecting Hare with zero score
func NewClickState() *ClickState {
	return &ClickState{Expecting: Hare, Last: NoSymbol}
}

// Click applies a button press to the session.
// Every click flips the expectation to the opposite of the symbol just clicked,
// and only a Krishna accepted right after a Hare adds a pair.
func (c *ClickState) Click(s Symbol) ClickResult {
	var res ClickResult

	if s == c.Expecting {
		res.Correct = true
		if s == Krishna && c.Last == Hare {
			c.Score++
			res.Paired = true
			res.MalaCompleted = c.Score%MalaSize == 0
		}
	}

	c.Last = s
	c.Expecting = s.Opposite()

	return res
}

// MalaCount returns the number of completed malas
func (c *ClickState) MalaCount() int64 {
	return c.Score / MalaSize
}

// Reset starts a new round
func (c *ClickState) Reset() {
	c.Score = 0
	c.Expecting = Hare
	c.Last = NoSymbol
}
