package game

import (
	"sort"
	"time"
)

// BuzzRejection names why a buzz was turned away. The empty value means the
// buzz was accepted.
type BuzzRejection string

const (
	RejectNoClue     BuzzRejection = "no_active_clue"
	RejectLocked     BuzzRejection = "buzzer_locked"
	RejectStaleToken BuzzRejection = "stale_token"
	RejectDuplicate  BuzzRejection = "already_buzzed"
	RejectCooldown   BuzzRejection = "cooldown"
)

// BuzzEntry is one accepted buzz. ServerTime is the sequencer's receive
// stamp, the only ordering authority; client clocks never participate.
type BuzzEntry struct {
	Player     int
	ServerTime time.Time
}

// BuzzResult is the arbitration outcome broadcast to every role, accepted
// or not.
type BuzzResult struct {
	Accepted   bool
	Player     int
	Winner     int // provisional winner after this buzz, 0 when queue empty
	Position   int // 1-based queue position, 0 on rejection
	ServerTime time.Time
	Rejection  BuzzRejection
	Cooldown   time.Duration // remaining lockout, cooldown rejections only
}

// JudgeResult reports a judged regular answer.
type JudgeResult struct {
	Player   int
	Correct  bool
	Value    int
	Score    int
	Control  int
	Finished bool   // the clue closed (correct answer)
	ClueID   string // clue the judgment applied to
	Winner   int    // next provisional winner after an incorrect, 0 if drained
}

// RevealResult reports a newly revealed clue and whether it opened a Daily
// Double for the controlling player.
type RevealResult struct {
	Clue        *Clue
	DailyDouble bool
	Chosen      int
}

// buzzer arbitrates concurrent buzz attempts for the active clue. The
// unlock token is a session-lifetime monotone counter: minted on every
// enable and every queue-clearing close, never reused, so buzzes issued
// under a prior window can always be told apart.
type buzzer struct {
	open      bool
	token     uint64
	queue     []BuzzEntry
	cooldowns map[int]time.Time
}

func (b *buzzer) reset() {
	b.open = false
	b.queue = nil
	b.cooldowns = make(map[int]time.Time)
}

func (b *buzzer) mint() uint64 {
	b.token++
	return b.token
}

func (b *buzzer) contains(number int) bool {
	for _, e := range b.queue {
		if e.Player == number {
			return true
		}
	}
	return false
}

func (b *buzzer) winner() int {
	if len(b.queue) == 0 {
		return 0
	}
	return b.queue[0].Player
}

// insert places an entry in ascending server-time order, after any equal
// stamps, and returns its 1-based position. The sequencer hands out
// monotone stamps so this is an append in practice; the sort is the
// stated ordering contract.
func (b *buzzer) insert(number int, at time.Time) int {
	i := sort.Search(len(b.queue), func(i int) bool {
		return b.queue[i].ServerTime.After(at)
	})
	b.queue = append(b.queue, BuzzEntry{})
	copy(b.queue[i+1:], b.queue[i:])
	b.queue[i] = BuzzEntry{Player: number, ServerTime: at}
	return i + 1
}

func (b *buzzer) cooldownRemaining(number int, now time.Time) time.Duration {
	until, ok := b.cooldowns[number]
	if !ok || !until.After(now) {
		return 0
	}
	return until.Sub(now)
}

// RevealClue puts a board clue in play. Revealing a clue flagged as a
// Daily Double hands it to the controlling player instead of opening the
// buzzer.
func (s *Session) RevealClue(clueID string) (*RevealResult, error) {
	if err := s.guardMutable(); err != nil {
		return nil, err
	}
	if s.status != StatusActive {
		return nil, conflictf("game has not started")
	}
	if s.round == RoundFinal {
		return nil, conflictf("no board in the final round")
	}
	c, ok := s.clues[clueID]
	if !ok {
		return nil, validationf("unknown clue %q", clueID)
	}
	if c.Round != s.round {
		return nil, conflictf("clue %s belongs to the %s round", clueID, c.Round)
	}
	if _, seen := s.revealed[clueID]; seen {
		return nil, conflictf("clue %s already revealed", clueID)
	}
	if s.active != nil {
		return nil, conflictf("clue %s is still in play", s.active.ID)
	}
	if c.DailyDouble && s.control == 0 {
		return nil, conflictf("no player holds board control")
	}

	s.revealed[clueID] = struct{}{}
	s.active = c
	s.buzzer.open = false
	s.buzzer.queue = nil
	s.buzzer.cooldowns = make(map[int]time.Time)

	res := &RevealResult{Clue: c}
	if c.DailyDouble {
		s.dd.detect(s.control, c)
		res.DailyDouble = true
		res.Chosen = s.control
	}
	return res, nil
}

// EnableBuzzer opens the buzzer window for the active clue and mints a
// fresh unlock token. Re-enabling mid-clue is allowed and mints again, so
// buzzes from the previous window are rejected as stale.
func (s *Session) EnableBuzzer() (uint64, error) {
	if err := s.guardMutable(); err != nil {
		return 0, err
	}
	if s.active == nil {
		return 0, conflictf("no active clue")
	}
	if s.dd.stage != DDInactive {
		return 0, conflictf("daily double in play")
	}
	s.buzzer.open = true
	return s.buzzer.mint(), nil
}

// Buzz arbitrates one buzz attempt at the sequencer's receive time now.
// Arbitration outcomes, including rejections, come back as a BuzzResult
// for broadcast; only terminal-state and unknown-player failures are
// errors.
func (s *Session) Buzz(number int, token uint64, now time.Time) (*BuzzResult, error) {
	if err := s.guardMutable(); err != nil {
		return nil, err
	}
	if _, err := s.player(number); err != nil {
		return nil, err
	}

	res := &BuzzResult{Player: number, ServerTime: now, Winner: s.buzzer.winner()}
	switch {
	case s.active == nil:
		res.Rejection = RejectNoClue
	case !s.buzzer.open:
		res.Rejection = RejectLocked
	case token != s.buzzer.token:
		res.Rejection = RejectStaleToken
	case s.buzzer.contains(number):
		res.Rejection = RejectDuplicate
	default:
		if remaining := s.buzzer.cooldownRemaining(number, now); remaining > 0 {
			res.Rejection = RejectCooldown
			res.Cooldown = remaining
			break
		}
		res.Accepted = true
		res.Position = s.buzzer.insert(number, now)
		res.Winner = s.buzzer.winner()
	}
	return res, nil
}

// JudgeAnswer resolves the queue winner's answer. Correct closes the clue:
// score up by the value, queue cleared, fresh token minted, board control
// to the player. Incorrect pops the winner, docks the value, starts their
// cooldown, and promotes the next queued player without a re-buzz.
func (s *Session) JudgeAnswer(number int, correct bool, value int, now time.Time) (*JudgeResult, error) {
	if err := s.guardMutable(); err != nil {
		return nil, err
	}
	if s.active == nil {
		return nil, conflictf("no active clue")
	}
	p, err := s.player(number)
	if err != nil {
		return nil, err
	}
	if len(s.buzzer.queue) == 0 {
		return nil, conflictf("no buzzed player to judge")
	}
	if s.buzzer.queue[0].Player != number {
		return nil, conflictf("player %d is not the buzzer winner", number)
	}
	if value < 0 {
		return nil, validationf("value must not be negative")
	}
	v := value
	if v == 0 {
		v = s.active.Value
	}

	res := &JudgeResult{Player: number, Correct: correct, Value: v, ClueID: s.active.ID}
	if correct {
		p.Score += v
		s.control = number
		s.active = nil
		s.buzzer.queue = nil
		s.buzzer.cooldowns = make(map[int]time.Time)
		s.buzzer.open = false
		s.buzzer.mint()
		res.Finished = true
	} else {
		p.Score -= v
		s.buzzer.queue = s.buzzer.queue[1:]
		s.buzzer.cooldowns[number] = now.Add(s.Rules.BuzzCooldown)
		res.Winner = s.buzzer.winner()
	}
	res.Score = p.Score
	res.Control = s.control
	return res, nil
}

// NextClue abandons the active clue: queue cleared, token minted, board
// open for the next pick. A Daily Double may only be passed over once it
// has been judged.
func (s *Session) NextClue() (string, error) {
	if err := s.guardMutable(); err != nil {
		return "", err
	}
	if s.active == nil {
		return "", conflictf("no active clue")
	}
	if s.dd.stage != DDInactive && s.dd.stage != DDJudged {
		return "", conflictf("daily double still in play")
	}
	id := s.active.ID
	s.active = nil
	s.dd.reset()
	s.buzzer.queue = nil
	s.buzzer.cooldowns = make(map[int]time.Time)
	s.buzzer.open = false
	s.buzzer.mint()
	return id, nil
}
