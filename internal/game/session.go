package game

import (
	"sort"
	"strings"
	"time"
)

// Status is the top-level lifecycle state of a session.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// Terminal reports whether the status accepts no further mutation.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// Player is one contestant. Numbers are assigned at join and never reused
// within a session. Scores move only through judged outcomes or an explicit
// host adjustment.
type Player struct {
	Number    int
	Name      string
	Score     int
	Connected bool
}

// Rules holds the tunable bounds and timings, fixed at session creation.
type Rules struct {
	// BuzzCooldown locks a player out of re-buzzing on the same clue
	// after an incorrect answer.
	BuzzCooldown time.Duration

	// FinalCountdown is the answering window once the Final Jeopardy
	// clue is shown.
	FinalCountdown time.Duration

	// DailyDoubleMin is the lowest permitted Daily Double wager.
	DailyDoubleMin int

	// MaxPlayers caps the roster size.
	MaxPlayers int
}

// DefaultRules returns the standard timings: five second buzz lockout,
// thirty second Final Jeopardy window, free Daily Double floor.
func DefaultRules() Rules {
	return Rules{
		BuzzCooldown:   5 * time.Second,
		FinalCountdown: 30 * time.Second,
		DailyDoubleMin: 0,
		MaxPlayers:     6,
	}
}

// Session is the canonical state of one live game: roster, scores, board
// progress, and the buzzer, Daily Double, and Final Jeopardy machines.
// It is not safe for concurrent use; the owning hub serializes every call.
type Session struct {
	Code  string
	Rules Rules

	status Status
	round  Round

	episode *Episode
	clues   map[string]*Clue

	players    map[int]*Player
	nextNumber int
	control    int

	revealed map[string]struct{}
	active   *Clue

	buzzer buzzer
	dd     dailyDouble
	final  final
}

// NewSession builds a fresh session in the waiting state around immutable
// episode content.
func NewSession(code string, episode *Episode, rules Rules) *Session {
	s := &Session{
		Code:       code,
		Rules:      rules,
		status:     StatusWaiting,
		round:      RoundSingle,
		episode:    episode,
		clues:      episode.clueIndex(),
		players:    make(map[int]*Player),
		nextNumber: 1,
		revealed:   make(map[string]struct{}),
	}
	s.buzzer.reset()
	s.dd.reset()
	s.final.reset()
	return s
}

// Status returns the lifecycle state.
func (s *Session) Status() Status { return s.status }

// Round returns the round currently in play.
func (s *Session) Round() Round { return s.round }

// Control returns the number of the player holding board control, or zero
// when nobody does.
func (s *Session) Control() int { return s.control }

// Episode returns the immutable content the session was built around.
func (s *Session) Episode() *Episode { return s.episode }

// ActiveClue returns the clue currently in play, or nil.
func (s *Session) ActiveClue() *Clue { return s.active }

// Revealed returns the revealed clue ids in sorted order.
func (s *Session) Revealed() []string {
	ids := make([]string, 0, len(s.revealed))
	for id := range s.revealed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Player returns a copy of the numbered player.
func (s *Session) Player(number int) (Player, bool) {
	p, ok := s.players[number]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Players returns copies of every player in number order.
func (s *Session) Players() []Player {
	out := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (s *Session) guardMutable() error {
	if s.status.Terminal() {
		return &TerminalGameError{Status: s.status}
	}
	return nil
}

func (s *Session) player(number int) (*Player, error) {
	p, ok := s.players[number]
	if !ok {
		return nil, validationf("unknown player %d", number)
	}
	return p, nil
}

func (s *Session) lowestPlayer() int {
	lowest := 0
	for n := range s.players {
		if lowest == 0 || n < lowest {
			lowest = n
		}
	}
	return lowest
}

// Join adds a player to the roster and hands them board control if nobody
// holds it yet. Numbers are never reused, even after a reset.
func (s *Session) Join(name string) (Player, error) {
	if err := s.guardMutable(); err != nil {
		return Player{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Player{}, validationf("player name is required")
	}
	if s.Rules.MaxPlayers > 0 && len(s.players) >= s.Rules.MaxPlayers {
		return Player{}, validationf("session is full (%d players)", s.Rules.MaxPlayers)
	}
	p := &Player{
		Number:    s.nextNumber,
		Name:      name,
		Connected: true,
	}
	s.nextNumber++
	s.players[p.Number] = p
	if s.control == 0 {
		s.control = p.Number
	}
	return *p, nil
}

// Resume validates a reconnect claim against the roster. Unlike Join it is
// permitted in terminal states so a client can still render final scores.
func (s *Session) Resume(number int) (Player, error) {
	p, err := s.player(number)
	if err != nil {
		return Player{}, err
	}
	p.Connected = true
	return *p, nil
}

// SetConnected flips a player's liveness flag. Dropping a player while
// Final Jeopardy wagers are being collected re-evaluates the wager gate,
// and the second return reports that the gate just closed.
func (s *Session) SetConnected(number int, connected bool) (Player, bool, error) {
	p, err := s.player(number)
	if err != nil {
		return Player{}, false, err
	}
	p.Connected = connected
	gateClosed := false
	if !connected {
		gateClosed = s.reevaluateWagerGate()
	}
	return *p, gateClosed, nil
}

// StartRound switches the board to the given round, activating a waiting
// game. Changing rounds clears revealed clues, the active clue, the buzzer
// queue, and both sub-machines; board control returns to the lowest player
// number. Re-starting the round already in play is rejected.
func (s *Session) StartRound(r Round) error {
	if err := s.guardMutable(); err != nil {
		return err
	}
	if s.status == StatusActive && r == s.round {
		return conflictf("round is already %s", r)
	}
	s.status = StatusActive
	s.round = r
	s.clearBoard()
	s.control = s.lowestPlayer()
	return nil
}

// clearBoard drops everything tied to the current round. The unlock token
// counter survives so tokens are never reused across rounds.
func (s *Session) clearBoard() {
	s.revealed = make(map[string]struct{})
	s.active = nil
	s.buzzer.reset()
	s.dd.reset()
	s.final.reset()
}

// EndGame marks the session completed. Terminal and irreversible.
func (s *Session) EndGame() error {
	if err := s.guardMutable(); err != nil {
		return err
	}
	s.status = StatusCompleted
	return nil
}

// Abandon marks the session abandoned, the terminal state for sessions
// given up by the host or reaped after idling with no connections.
func (s *Session) Abandon() error {
	if err := s.guardMutable(); err != nil {
		return err
	}
	s.status = StatusAbandoned
	return nil
}

// Reset returns a non-terminal session to the waiting state: scores zeroed,
// board cleared, round back to single. The roster and the token counter
// survive.
func (s *Session) Reset() error {
	if err := s.guardMutable(); err != nil {
		return err
	}
	s.status = StatusWaiting
	s.round = RoundSingle
	s.clearBoard()
	for _, p := range s.players {
		p.Score = 0
	}
	s.control = s.lowestPlayer()
	return nil
}

// AdjustScore applies a host-issued delta outside the judging machinery.
func (s *Session) AdjustScore(number, delta int) (Player, error) {
	if err := s.guardMutable(); err != nil {
		return Player{}, err
	}
	p, err := s.player(number)
	if err != nil {
		return Player{}, err
	}
	p.Score += delta
	return *p, nil
}
