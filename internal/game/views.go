package game

import (
	"sort"
	"time"
)

// BuzzerView is a point-in-time copy of the buzzer for snapshot building.
type BuzzerView struct {
	Open      bool
	Token     uint64
	Queue     []BuzzEntry
	Winner    int
	Cooldowns map[int]time.Duration // remaining lockout per player
}

// BuzzerView copies the buzzer state, reducing cooldown stamps to the
// lockout remaining at now.
func (s *Session) BuzzerView(now time.Time) BuzzerView {
	v := BuzzerView{
		Open:      s.buzzer.open,
		Token:     s.buzzer.token,
		Queue:     append([]BuzzEntry(nil), s.buzzer.queue...),
		Winner:    s.buzzer.winner(),
		Cooldowns: make(map[int]time.Duration),
	}
	for number := range s.buzzer.cooldowns {
		if remaining := s.buzzer.cooldownRemaining(number, now); remaining > 0 {
			v.Cooldowns[number] = remaining
		}
	}
	return v
}

// DailyDoubleView is a point-in-time copy of the Daily Double machine.
// The wager is meaningful from the wagering stage on; it is public
// knowledge once placed.
type DailyDoubleView struct {
	Stage  DDStage
	Player int
	ClueID string
	Wager  int
}

func (s *Session) DailyDoubleView() DailyDoubleView {
	v := DailyDoubleView{
		Stage:  s.dd.stage,
		Player: s.dd.player,
		Wager:  s.dd.wager,
	}
	if s.dd.clue != nil {
		v.ClueID = s.dd.clue.ID
	}
	return v
}

// FinalView is a point-in-time copy of Final Jeopardy. Entries carry the
// full truth; wire-level filtering of unjudged wagers and answers happens
// at the protocol layer.
type FinalView struct {
	Stage     FJStage
	Category  string
	Remaining time.Duration // countdown left while answering is open
	Entries   []FJEntry     // sorted by player number
}

func (s *Session) FinalView(now time.Time) FinalView {
	v := FinalView{Stage: s.final.stage}
	if v.Stage != FJNotStarted {
		v.Category = s.episode.FinalCategory
	}
	if v.Stage == FJClueShown || v.Stage == FJAnswering {
		if remaining := s.final.deadline.Sub(now); remaining > 0 {
			v.Remaining = remaining
		}
	}
	v.Entries = make([]FJEntry, 0, len(s.final.entries))
	for _, e := range s.final.entries {
		v.Entries = append(v.Entries, *e)
	}
	sort.Slice(v.Entries, func(i, j int) bool { return v.Entries[i].Player < v.Entries[j].Player })
	return v
}
