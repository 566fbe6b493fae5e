package live

import (
	"time"

	"github.com/stagelight/podium/internal/game"
	"github.com/stagelight/podium/internal/protocol"
)

func playerInfo(p game.Player) protocol.PlayerInfo {
	return protocol.PlayerInfo{
		Number:    p.Number,
		Name:      p.Name,
		Score:     p.Score,
		Connected: p.Connected,
	}
}

// clueInfo renders a clue for one role. Only host frames carry the correct
// response.
func clueInfo(c *game.Clue, role protocol.Role) protocol.ClueInfo {
	info := protocol.ClueInfo{
		ID:          c.ID,
		Round:       string(c.Round),
		Category:    c.Category,
		Row:         c.Row,
		Value:       c.Value,
		Prompt:      c.Prompt,
		DailyDouble: c.DailyDouble,
	}
	if role == protocol.RoleHost {
		info.Response = c.Response
	}
	return info
}

// snapshotFor builds the canonical state pushed in connection_established.
// It is assembled on the hub goroutine from copies, so the caller may hold
// it across the broadcast without racing the session.
func snapshotFor(s *game.Session, role protocol.Role, now time.Time) protocol.Snapshot {
	snap := protocol.Snapshot{
		SessionCode: s.Code,
		Status:      string(s.Status()),
		Round:       string(s.Round()),
		Control:     s.Control(),
		Revealed:    s.Revealed(),
		ServerTime:  now.UnixMilli(),
	}

	players := s.Players()
	snap.Players = make([]protocol.PlayerInfo, 0, len(players))
	for _, p := range players {
		snap.Players = append(snap.Players, playerInfo(p))
	}

	if active := s.ActiveClue(); active != nil {
		info := clueInfo(active, role)
		snap.ActiveClue = &info
	}

	bz := s.BuzzerView(now)
	snap.Buzzer = protocol.BuzzerState{
		Open:        bz.Open,
		UnlockToken: bz.Token,
		Winner:      bz.Winner,
	}
	for _, e := range bz.Queue {
		snap.Buzzer.Queue = append(snap.Buzzer.Queue, protocol.QueueEntry{
			PlayerNumber: e.Player,
			ServerTime:   e.ServerTime.UnixMilli(),
		})
	}
	if len(bz.Cooldowns) > 0 {
		snap.Buzzer.Cooldowns = make(map[int]float64, len(bz.Cooldowns))
		for number, remaining := range bz.Cooldowns {
			snap.Buzzer.Cooldowns[number] = remaining.Seconds()
		}
	}

	if dd := s.DailyDoubleView(); dd.Stage != game.DDInactive {
		state := &protocol.DailyDoubleState{
			Stage:        string(dd.Stage),
			PlayerNumber: dd.Player,
			ClueID:       dd.ClueID,
		}
		// The wager is public knowledge once locked in.
		switch dd.Stage {
		case game.DDWagering, game.DDAnswering, game.DDJudged:
			state.Wager = dd.Wager
		}
		snap.DailyDouble = state
	}

	if fj := s.FinalView(now); fj.Stage != game.FJNotStarted {
		state := &protocol.FinalState{
			Stage:            string(fj.Stage),
			Category:         fj.Category,
			SecondsRemaining: fj.Remaining.Seconds(),
		}
		for _, e := range fj.Entries {
			state.Entries = append(state.Entries, finalEntry(e, role))
		}
		snap.Final = state
	}

	return snap
}

// finalEntry filters one Final Jeopardy entry: wager amounts and answer
// texts stay host-only until the entry is judged.
func finalEntry(e game.FJEntry, role protocol.Role) protocol.FinalEntry {
	out := protocol.FinalEntry{
		PlayerNumber: e.Player,
		Wagered:      true,
		Answered:     e.Answered,
		Judged:       e.Judged,
	}
	if role == protocol.RoleHost || e.Judged {
		wager := e.Wager
		out.Wager = &wager
		out.Answer = e.Answer
	}
	if e.Judged {
		correct := e.Correct
		out.Correct = &correct
	}
	return out
}
