package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type DailyDoubleTestSuite struct {
	suite.Suite
	game *Session
	now  time.Time
}

func (s *DailyDoubleTestSuite) SetupTest() {
	s.game = NewSession("TEST42", testEpisode(), DefaultRules())
	for _, name := range []string{"Alice", "Bob"} {
		_, err := s.game.Join(name)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.game.StartRound(RoundSingle))
	s.now = testBase
}

// detect walks the board to the Daily Double. Control starts with player 1.
func (s *DailyDoubleTestSuite) detect() *RevealResult {
	res, err := s.game.RevealClue(testSingleDD)
	s.Require().NoError(err)
	s.Require().True(res.DailyDouble)
	return res
}

func (s *DailyDoubleTestSuite) TestRevealHandsClueToControllingPlayer() {
	res := s.detect()
	s.Equal(1, res.Chosen)
	s.Equal(DDDetected, s.game.DailyDoubleView().Stage)
	s.Equal(testSingleDD, s.game.DailyDoubleView().ClueID)

	// No buzzer round happens for a Daily Double.
	_, err := s.game.EnableBuzzer()
	var conflict *StateConflictError
	s.Require().ErrorAs(err, &conflict)
}

func (s *DailyDoubleTestSuite) TestFullSequence() {
	s.detect()
	s.Require().NoError(s.game.RevealDailyDouble())
	s.Equal(DDRevealed, s.game.DailyDoubleView().Stage)

	s.Require().NoError(s.game.SubmitDailyDoubleWager(1, 600))
	s.Equal(DDWagering, s.game.DailyDoubleView().Stage)
	s.Equal(600, s.game.DailyDoubleView().Wager)

	clue, err := s.game.ShowDailyDoubleClue()
	s.Require().NoError(err)
	s.Equal(testSingleDD, clue.ID)

	judged, err := s.game.JudgeDailyDouble(1, true, "what is jupiter")
	s.Require().NoError(err)
	s.Equal(600, judged.Score)
	s.Equal(DDJudged, s.game.DailyDoubleView().Stage)

	id, err := s.game.NextClue()
	s.Require().NoError(err)
	s.Equal(testSingleDD, id)
	s.Nil(s.game.ActiveClue())
	s.Equal(DDInactive, s.game.DailyDoubleView().Stage)
}

func (s *DailyDoubleTestSuite) TestIncorrectDocksWager() {
	s.detect()
	s.Require().NoError(s.game.RevealDailyDouble())
	s.Require().NoError(s.game.SubmitDailyDoubleWager(1, 400))
	_, err := s.game.ShowDailyDoubleClue()
	s.Require().NoError(err)

	judged, err := s.game.JudgeDailyDouble(1, false, "")
	s.Require().NoError(err)
	s.Equal(-400, judged.Score)
	s.Equal(1, s.game.Control())
}

func (s *DailyDoubleTestSuite) TestWagerBounds() {
	tests := []struct {
		name  string
		score int
		wager int
		ok    bool
	}{
		{name: "zero wager is the boundary", score: 0, wager: 0, ok: true},
		{name: "round maximum with a low score", score: 0, wager: 1000, ok: true},
		{name: "over the round maximum", score: 0, wager: 1001, ok: false},
		{name: "negative wager", score: 0, wager: -5, ok: false},
		{name: "score above the round maximum raises the ceiling", score: 2400, wager: 2400, ok: true},
		{name: "over a raised ceiling", score: 2400, wager: 2401, ok: false},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			if tt.score != 0 {
				_, err := s.game.AdjustScore(1, tt.score)
				s.Require().NoError(err)
			}
			s.detect()
			s.Require().NoError(s.game.RevealDailyDouble())

			err := s.game.SubmitDailyDoubleWager(1, tt.wager)
			if tt.ok {
				s.Require().NoError(err)
				s.Equal(DDWagering, s.game.DailyDoubleView().Stage)
				return
			}
			var invalid *ValidationError
			s.Require().ErrorAs(err, &invalid)
			s.Equal(DDRevealed, s.game.DailyDoubleView().Stage)
			alice, _ := s.game.Player(1)
			s.Equal(tt.score, alice.Score)
		})
	}
}

func (s *DailyDoubleTestSuite) TestOnlyChosenPlayerMayWager() {
	s.detect()
	s.Require().NoError(s.game.RevealDailyDouble())

	err := s.game.SubmitDailyDoubleWager(2, 100)
	var invalid *ValidationError
	s.Require().ErrorAs(err, &invalid)
}

func (s *DailyDoubleTestSuite) TestStageConflicts() {
	var conflict *StateConflictError

	s.Require().ErrorAs(s.game.RevealDailyDouble(), &conflict)
	s.Require().ErrorAs(s.game.SubmitDailyDoubleWager(1, 100), &conflict)

	s.detect()
	s.Require().ErrorAs(s.game.SubmitDailyDoubleWager(1, 100), &conflict)
	_, err := s.game.ShowDailyDoubleClue()
	s.Require().ErrorAs(err, &conflict)
	_, err = s.game.JudgeDailyDouble(1, true, "")
	s.Require().ErrorAs(err, &conflict)

	// The board stays blocked until the Daily Double is judged.
	_, err = s.game.NextClue()
	s.Require().ErrorAs(err, &conflict)

	s.Require().NoError(s.game.RevealDailyDouble())
	s.Require().ErrorAs(s.game.RevealDailyDouble(), &conflict)
	s.Require().NoError(s.game.SubmitDailyDoubleWager(1, 100))
	s.Require().ErrorAs(s.game.SubmitDailyDoubleWager(1, 100), &conflict)
}

func TestDailyDoubleTestSuite(t *testing.T) {
	suite.Run(t, new(DailyDoubleTestSuite))
}
