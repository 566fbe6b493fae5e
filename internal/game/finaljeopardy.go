package game

import "time"

// FJStage is the Final Jeopardy progression. Every connected player wagers
// before the clue is shown, everyone answers under one countdown, and the
// host judges each participant exactly once.
type FJStage string

const (
	FJNotStarted    FJStage = "not_started"
	FJCategoryShown FJStage = "category_shown" // collecting wagers
	FJWagering      FJStage = "wagering"       // all wagers in, clue not yet shown
	FJClueShown     FJStage = "clue_shown"     // countdown running, no answers yet
	FJAnswering     FJStage = "answering"
	FJJudging       FJStage = "judging"
	FJComplete      FJStage = "complete"
)

// FJEntry tracks one participant. A participant is a player who wagered;
// both wager and answer are immutable once submitted.
type FJEntry struct {
	Player     int
	Wager      int
	Answer     string
	Answered   bool
	AnsweredAt time.Time
	Judged     bool
	Correct    bool
}

// FJWagerResult reports a recorded wager and the state of the wager gate.
// The wager amount itself stays out of the broadcast until judging.
type FJWagerResult struct {
	Player int
	Count  int  // wagers in
	Needed int  // wagers the gate currently requires
	AllIn  bool // the gate just closed
}

// FJAnswerResult reports a recorded answer.
type FJAnswerResult struct {
	Player int
	Count  int
	Needed int
	AllIn  bool // everyone answered; judging opened early
}

// FJJudgeResult reports one judged participant.
type FJJudgeResult struct {
	Player   int
	Correct  bool
	Wager    int
	Answer   string
	Score    int
	Complete bool // every participant judged
}

// final keeps deadlineSeq monotone across resets so a countdown armed for
// an earlier stage can never advance a later one.
type final struct {
	stage       FJStage
	entries     map[int]*FJEntry
	deadline    time.Time
	deadlineSeq uint64
}

func (f *final) reset() {
	f.stage = FJNotStarted
	f.entries = make(map[int]*FJEntry)
	f.deadline = time.Time{}
}

func (f *final) allAnswered() bool {
	for _, e := range f.entries {
		if !e.Answered {
			return false
		}
	}
	return len(f.entries) > 0
}

func (f *final) allJudged() bool {
	for _, e := range f.entries {
		if !e.Judged {
			return false
		}
	}
	return len(f.entries) > 0
}

func (s *Session) connectedCount() int {
	n := 0
	for _, p := range s.players {
		if p.Connected {
			n++
		}
	}
	return n
}

// wagersComplete reports whether every currently connected player has a
// wager on record. Players who wagered and then dropped stay participants.
func (s *Session) wagersComplete() bool {
	if len(s.final.entries) == 0 {
		return false
	}
	for _, p := range s.players {
		if !p.Connected {
			continue
		}
		if _, ok := s.final.entries[p.Number]; !ok {
			return false
		}
	}
	return true
}

// reevaluateWagerGate re-checks the wager gate after a disconnect so a
// dropped player cannot strand the room in category_shown.
func (s *Session) reevaluateWagerGate() bool {
	if s.final.stage != FJCategoryShown || !s.wagersComplete() {
		return false
	}
	s.final.stage = FJWagering
	return true
}

// StartFinal shows the Final Jeopardy category and opens wagering. The
// game must already be in the final round.
func (s *Session) StartFinal() (string, error) {
	if err := s.guardMutable(); err != nil {
		return "", err
	}
	if s.round != RoundFinal {
		return "", conflictf("the final round has not started")
	}
	if s.final.stage != FJNotStarted {
		return "", conflictf("final jeopardy already started")
	}
	if s.connectedCount() == 0 {
		return "", conflictf("no connected players")
	}
	s.final.stage = FJCategoryShown
	return s.episode.FinalCategory, nil
}

// SubmitFinalWager records one player's wager, bounded to [0, current
// score] with zero as the floor for non-positive scores. The last
// connected player's wager closes the gate.
func (s *Session) SubmitFinalWager(number, wager int) (*FJWagerResult, error) {
	if err := s.guardMutable(); err != nil {
		return nil, err
	}
	switch s.final.stage {
	case FJCategoryShown:
	case FJNotStarted:
		return nil, conflictf("final jeopardy has not started")
	default:
		return nil, conflictf("final jeopardy wagers are closed")
	}
	p, err := s.player(number)
	if err != nil {
		return nil, err
	}
	if _, ok := s.final.entries[number]; ok {
		return nil, conflictf("player %d already wagered", number)
	}
	ceiling := p.Score
	if ceiling < 0 {
		ceiling = 0
	}
	if wager < 0 || wager > ceiling {
		return nil, validationf("wager %d outside [0, %d]", wager, ceiling)
	}

	s.final.entries[number] = &FJEntry{Player: number, Wager: wager}
	res := &FJWagerResult{Player: number, Count: len(s.final.entries)}
	res.Needed = res.Count
	for _, q := range s.players {
		if q.Connected {
			if _, ok := s.final.entries[q.Number]; !ok {
				res.Needed++
			}
		}
	}
	if s.wagersComplete() {
		s.final.stage = FJWagering
		res.AllIn = true
	}
	return res, nil
}

// RevealFinalClue shows the clue to everyone at once and arms the
// countdown. The returned sequence number identifies this arming; a timer
// fire carrying an older one is ignored.
func (s *Session) RevealFinalClue(now time.Time) (*Clue, time.Duration, uint64, error) {
	if err := s.guardMutable(); err != nil {
		return nil, 0, 0, err
	}
	switch s.final.stage {
	case FJWagering:
	case FJNotStarted:
		return nil, 0, 0, conflictf("final jeopardy has not started")
	case FJCategoryShown:
		return nil, 0, 0, conflictf("still awaiting wagers")
	default:
		return nil, 0, 0, conflictf("final clue already shown")
	}
	s.final.stage = FJClueShown
	s.final.deadline = now.Add(s.Rules.FinalCountdown)
	s.final.deadlineSeq++
	return s.episode.Final, s.Rules.FinalCountdown, s.final.deadlineSeq, nil
}

// SubmitFinalAnswer records one participant's answer. Answers are
// immutable; the last participant's answer opens judging early.
func (s *Session) SubmitFinalAnswer(number int, answer string, now time.Time) (*FJAnswerResult, error) {
	if err := s.guardMutable(); err != nil {
		return nil, err
	}
	switch s.final.stage {
	case FJClueShown, FJAnswering:
	case FJNotStarted, FJCategoryShown, FJWagering:
		return nil, conflictf("the final clue has not been shown")
	default:
		return nil, conflictf("final jeopardy answers are closed")
	}
	if _, err := s.player(number); err != nil {
		return nil, err
	}
	e, ok := s.final.entries[number]
	if !ok {
		return nil, conflictf("player %d did not wager", number)
	}
	if e.Answered {
		return nil, conflictf("player %d already answered", number)
	}

	e.Answer = answer
	e.Answered = true
	e.AnsweredAt = now
	s.final.stage = FJAnswering

	res := &FJAnswerResult{Player: number, Needed: len(s.final.entries)}
	for _, q := range s.final.entries {
		if q.Answered {
			res.Count++
		}
	}
	if s.final.allAnswered() {
		s.final.stage = FJJudging
		res.AllIn = true
	}
	return res, nil
}

// FinalDeadline force-advances answering to judging when the countdown
// identified by seq elapses. Missing answers stay blank. Firing after the
// all-answers-in path already advanced, or for a superseded countdown, is
// a no-op; the two paths converge without double-advancing.
func (s *Session) FinalDeadline(seq uint64) bool {
	if s.status.Terminal() {
		return false
	}
	if seq != s.final.deadlineSeq {
		return false
	}
	if s.final.stage != FJClueShown && s.final.stage != FJAnswering {
		return false
	}
	s.final.stage = FJJudging
	return true
}

// JudgeFinalAnswer applies one participant's wager to their score, exactly
// once per participant. The last judgment completes Final Jeopardy.
func (s *Session) JudgeFinalAnswer(number int, correct bool) (*FJJudgeResult, error) {
	if err := s.guardMutable(); err != nil {
		return nil, err
	}
	switch s.final.stage {
	case FJJudging:
	case FJComplete:
		return nil, conflictf("final jeopardy is complete")
	default:
		return nil, conflictf("final answers are still open")
	}
	p, err := s.player(number)
	if err != nil {
		return nil, err
	}
	e, ok := s.final.entries[number]
	if !ok {
		return nil, conflictf("player %d did not wager", number)
	}
	if e.Judged {
		return nil, conflictf("player %d already judged", number)
	}

	if correct {
		p.Score += e.Wager
	} else {
		p.Score -= e.Wager
	}
	e.Judged = true
	e.Correct = correct

	res := &FJJudgeResult{
		Player:  number,
		Correct: correct,
		Wager:   e.Wager,
		Answer:  e.Answer,
		Score:   p.Score,
	}
	if s.final.allJudged() {
		s.final.stage = FJComplete
		res.Complete = true
	}
	return res, nil
}
