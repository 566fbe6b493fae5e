package game

import (
	"fmt"
	"time"
)

var testBase = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

const (
	testSingleDD = "s2-3"
	testDoubleDD = "d1-4"
)

// testEpisode builds a two-category board per round with one Daily Double
// in each, plus the Final Jeopardy clue.
func testEpisode() *Episode {
	ep := &Episode{
		ID:            "ep-100",
		Title:         "Show #100",
		FinalCategory: "FAMOUS SHIPS",
	}
	ep.Final = NewFinalClue("fj", ep.FinalCategory, "Abandoned intact in 1872", "What is the Mary Celeste?")
	for i, name := range []string{"WORLD CAPITALS", "SCIENCE"} {
		cat := Category{Name: name}
		for row := 1; row <= BoardRows; row++ {
			id := fmt.Sprintf("s%d-%d", i+1, row)
			cat.Clues = append(cat.Clues, NewClue(id, RoundSingle, name, row,
				"prompt "+id, "response "+id, id == testSingleDD))
		}
		ep.Single = append(ep.Single, cat)
	}
	for i, name := range []string{"OPERA", "US PRESIDENTS"} {
		cat := Category{Name: name}
		for row := 1; row <= BoardRows; row++ {
			id := fmt.Sprintf("d%d-%d", i+1, row)
			cat.Clues = append(cat.Clues, NewClue(id, RoundDouble, name, row,
				"prompt "+id, "response "+id, id == testDoubleDD))
		}
		ep.Double = append(ep.Double, cat)
	}
	return ep
}
