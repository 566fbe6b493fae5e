package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BuzzerTestSuite struct {
	suite.Suite
	game *Session
	now  time.Time
}

func (s *BuzzerTestSuite) SetupTest() {
	s.game = NewSession("TEST42", testEpisode(), DefaultRules())
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		_, err := s.game.Join(name)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.game.StartRound(RoundSingle))
	s.now = testBase
}

func (s *BuzzerTestSuite) reveal(id string) *RevealResult {
	res, err := s.game.RevealClue(id)
	s.Require().NoError(err)
	return res
}

func (s *BuzzerTestSuite) enable() uint64 {
	token, err := s.game.EnableBuzzer()
	s.Require().NoError(err)
	return token
}

func (s *BuzzerTestSuite) queueOrder() []int {
	view := s.game.BuzzerView(s.now)
	order := make([]int, 0, len(view.Queue))
	for _, e := range view.Queue {
		order = append(order, e.Player)
	}
	return order
}

// Three players race the same unlock; the queue must follow the server
// stamps, not intent arrival order.
func (s *BuzzerTestSuite) TestArbitrationOrdersByServerTime() {
	s.reveal("s1-1")
	token := s.enable()

	r1, err := s.game.Buzz(1, token, s.now.Add(100*time.Millisecond))
	s.Require().NoError(err)
	s.True(r1.Accepted)
	s.Equal(1, r1.Winner)
	s.Equal(1, r1.Position)

	r2, err := s.game.Buzz(2, token, s.now.Add(80*time.Millisecond))
	s.Require().NoError(err)
	s.True(r2.Accepted)
	s.Equal(2, r2.Winner)
	s.Equal(1, r2.Position)

	r3, err := s.game.Buzz(3, token, s.now.Add(120*time.Millisecond))
	s.Require().NoError(err)
	s.True(r3.Accepted)
	s.Equal(2, r3.Winner)
	s.Equal(3, r3.Position)

	s.Equal([]int{2, 1, 3}, s.queueOrder())
}

func (s *BuzzerTestSuite) TestIncorrectPromotesNextWithoutRebuzz() {
	s.reveal("s1-1")
	token := s.enable()
	_, err := s.game.Buzz(1, token, s.now.Add(100*time.Millisecond))
	s.Require().NoError(err)
	_, err = s.game.Buzz(2, token, s.now.Add(80*time.Millisecond))
	s.Require().NoError(err)
	_, err = s.game.Buzz(3, token, s.now.Add(120*time.Millisecond))
	s.Require().NoError(err)

	judged, err := s.game.JudgeAnswer(2, false, 0, s.now.Add(time.Second))
	s.Require().NoError(err)
	s.False(judged.Finished)
	s.Equal(1, judged.Winner)
	s.Equal(-200, judged.Score)
	s.Equal([]int{1, 3}, s.queueOrder())

	judged, err = s.game.JudgeAnswer(1, true, 0, s.now.Add(2*time.Second))
	s.Require().NoError(err)
	s.True(judged.Finished)
	s.Equal(200, judged.Score)
	s.Equal(1, judged.Control)
	s.Nil(s.game.ActiveClue())
	s.Empty(s.queueOrder())
}

func (s *BuzzerTestSuite) TestJudgeIncorrectOnEmptyQueueConflicts() {
	s.reveal("s1-1")
	token := s.enable()
	_, err := s.game.Buzz(1, token, s.now)
	s.Require().NoError(err)
	_, err = s.game.JudgeAnswer(1, false, 0, s.now)
	s.Require().NoError(err)

	_, err = s.game.JudgeAnswer(1, false, 0, s.now)
	var conflict *StateConflictError
	s.Require().ErrorAs(err, &conflict)
	alice, _ := s.game.Player(1)
	s.Equal(-200, alice.Score)
}

func (s *BuzzerTestSuite) TestJudgeRequiresQueueWinner() {
	s.reveal("s1-1")
	token := s.enable()
	_, err := s.game.Buzz(1, token, s.now.Add(10*time.Millisecond))
	s.Require().NoError(err)
	_, err = s.game.Buzz(2, token, s.now.Add(20*time.Millisecond))
	s.Require().NoError(err)

	_, err = s.game.JudgeAnswer(2, true, 0, s.now)
	var conflict *StateConflictError
	s.Require().ErrorAs(err, &conflict)

	_, err = s.game.JudgeAnswer(9, true, 0, s.now)
	var invalid *ValidationError
	s.Require().ErrorAs(err, &invalid)
}

func (s *BuzzerTestSuite) TestStaleTokenRejected() {
	s.reveal("s1-1")
	first := s.enable()
	second := s.enable()
	s.Greater(second, first)

	res, err := s.game.Buzz(1, first, s.now)
	s.Require().NoError(err)
	s.False(res.Accepted)
	s.Equal(RejectStaleToken, res.Rejection)

	res, err = s.game.Buzz(1, second, s.now)
	s.Require().NoError(err)
	s.True(res.Accepted)
}

// Tokens are minted on every queue-clearing close too, so a token from a
// prior clue can never buzz into the next one.
func (s *BuzzerTestSuite) TestTokenRotatesAcrossClueTransitions() {
	s.reveal("s1-1")
	token := s.enable()
	_, err := s.game.Buzz(1, token, s.now)
	s.Require().NoError(err)
	_, err = s.game.JudgeAnswer(1, true, 0, s.now)
	s.Require().NoError(err)

	s.reveal("s1-2")
	next := s.enable()
	s.Greater(next, token)
	res, err := s.game.Buzz(2, token, s.now)
	s.Require().NoError(err)
	s.Equal(RejectStaleToken, res.Rejection)

	_, err = s.game.NextClue()
	s.Require().NoError(err)
	s.reveal("s1-3")
	last := s.enable()
	s.Greater(last, next)
}

func (s *BuzzerTestSuite) TestDuplicateBuzzRejected() {
	s.reveal("s1-1")
	token := s.enable()
	_, err := s.game.Buzz(1, token, s.now.Add(10*time.Millisecond))
	s.Require().NoError(err)

	res, err := s.game.Buzz(1, token, s.now.Add(30*time.Millisecond))
	s.Require().NoError(err)
	s.False(res.Accepted)
	s.Equal(RejectDuplicate, res.Rejection)
	s.Equal(1, res.Winner)
	s.Equal([]int{1}, s.queueOrder())
}

func (s *BuzzerTestSuite) TestCooldownAfterIncorrect() {
	s.reveal("s1-1")
	token := s.enable()
	_, err := s.game.Buzz(1, token, s.now)
	s.Require().NoError(err)
	_, err = s.game.JudgeAnswer(1, false, 0, s.now)
	s.Require().NoError(err)

	res, err := s.game.Buzz(1, token, s.now.Add(2*time.Second))
	s.Require().NoError(err)
	s.False(res.Accepted)
	s.Equal(RejectCooldown, res.Rejection)
	s.Equal(3*time.Second, res.Cooldown)

	res, err = s.game.Buzz(1, token, s.now.Add(5*time.Second))
	s.Require().NoError(err)
	s.True(res.Accepted)
}

func (s *BuzzerTestSuite) TestBuzzWithoutWindow() {
	res, err := s.game.Buzz(1, 1, s.now)
	s.Require().NoError(err)
	s.Equal(RejectNoClue, res.Rejection)

	s.reveal("s1-1")
	res, err = s.game.Buzz(1, 1, s.now)
	s.Require().NoError(err)
	s.Equal(RejectLocked, res.Rejection)
}

func (s *BuzzerTestSuite) TestBuzzUnknownPlayer() {
	s.reveal("s1-1")
	token := s.enable()
	_, err := s.game.Buzz(42, token, s.now)
	var invalid *ValidationError
	s.Require().ErrorAs(err, &invalid)
}

func (s *BuzzerTestSuite) TestJudgeValueOverride() {
	s.reveal("s1-4")
	token := s.enable()
	_, err := s.game.Buzz(1, token, s.now)
	s.Require().NoError(err)

	_, err = s.game.JudgeAnswer(1, true, -100, s.now)
	var invalid *ValidationError
	s.Require().ErrorAs(err, &invalid)

	judged, err := s.game.JudgeAnswer(1, true, 300, s.now)
	s.Require().NoError(err)
	s.Equal(300, judged.Value)
	s.Equal(300, judged.Score)
}

func (s *BuzzerTestSuite) TestRevealConflicts() {
	_, err := s.game.RevealClue("nope")
	var invalid *ValidationError
	s.Require().ErrorAs(err, &invalid)

	var conflict *StateConflictError
	_, err = s.game.RevealClue("d1-1")
	s.Require().ErrorAs(err, &conflict)

	s.reveal("s1-1")
	_, err = s.game.RevealClue("s1-2")
	s.Require().ErrorAs(err, &conflict)

	_, err = s.game.NextClue()
	s.Require().NoError(err)
	_, err = s.game.RevealClue("s1-1")
	s.Require().ErrorAs(err, &conflict)
}

func (s *BuzzerTestSuite) TestNextClueWithoutActive() {
	_, err := s.game.NextClue()
	var conflict *StateConflictError
	s.Require().ErrorAs(err, &conflict)
}

func (s *BuzzerTestSuite) TestEnableWithoutClue() {
	_, err := s.game.EnableBuzzer()
	var conflict *StateConflictError
	s.Require().ErrorAs(err, &conflict)
}

func TestBuzzerTestSuite(t *testing.T) {
	suite.Run(t, new(BuzzerTestSuite))
}
