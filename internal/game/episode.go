package game

// Round identifies which board is in play.
type Round string

const (
	RoundSingle Round = "single"
	RoundDouble Round = "double"
	RoundFinal  Round = "final"
)

// ParseRound validates a round name from the wire.
func ParseRound(s string) (Round, error) {
	switch Round(s) {
	case RoundSingle, RoundDouble, RoundFinal:
		return Round(s), nil
	}
	return "", validationf("unknown round %q", s)
}

const (
	// BoardRows is the number of clues per category.
	BoardRows = 5

	// Row r of the single board is worth r*200, of the double board r*400.
	rowValueSingle = 200
	rowValueDouble = 400
)

// MaxClueValue returns the highest face value on the given round's board,
// which is also the Daily Double wager ceiling for players below it.
func MaxClueValue(r Round) int {
	switch r {
	case RoundDouble:
		return BoardRows * rowValueDouble
	default:
		return BoardRows * rowValueSingle
	}
}

// clueValue derives a face value from board position and round.
func clueValue(r Round, row int) int {
	if r == RoundDouble {
		return row * rowValueDouble
	}
	return row * rowValueSingle
}

// Clue is one board cell, immutable once loaded from episode content.
// Final Jeopardy clues carry no face value; their worth is each player's
// wager.
type Clue struct {
	ID          string
	Round       Round
	Category    string
	Row         int // 1..BoardRows, top to bottom; 0 for Final Jeopardy
	Prompt      string
	Response    string
	Value       int
	DailyDouble bool
}

// Category is one column of a board.
type Category struct {
	Name  string
	Clues []*Clue
}

// Episode is the static content for one game: two boards plus the Final
// Jeopardy clue. Episodes come from the content service and are never
// mutated by a session.
type Episode struct {
	ID            string
	Title         string
	Single        []Category
	Double        []Category
	FinalCategory string
	Final         *Clue
}

// NewClue fills in the derived fields for a board clue.
func NewClue(id string, r Round, category string, row int, prompt, response string, dailyDouble bool) *Clue {
	return &Clue{
		ID:          id,
		Round:       r,
		Category:    category,
		Row:         row,
		Prompt:      prompt,
		Response:    response,
		Value:       clueValue(r, row),
		DailyDouble: dailyDouble,
	}
}

// NewFinalClue builds the Final Jeopardy clue, which has no board value.
func NewFinalClue(id, category, prompt, response string) *Clue {
	return &Clue{
		ID:       id,
		Round:    RoundFinal,
		Category: category,
		Prompt:   prompt,
		Response: response,
	}
}

// clueIndex maps every clue id in the episode for O(1) reveal lookups.
func (e *Episode) clueIndex() map[string]*Clue {
	idx := make(map[string]*Clue)
	for _, cat := range e.Single {
		for _, c := range cat.Clues {
			idx[c.ID] = c
		}
	}
	for _, cat := range e.Double {
		for _, c := range cat.Clues {
			idx[c.ID] = c
		}
	}
	if e.Final != nil {
		idx[e.Final.ID] = e.Final
	}
	return idx
}
