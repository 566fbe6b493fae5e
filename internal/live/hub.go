// Package live runs the authoritative side of a session: one hub goroutine
// per game code serializing every intent, the websocket pumps feeding it,
// and the registry that creates and reaps hubs.
package live

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/stagelight/podium/internal/game"
	"github.com/stagelight/podium/internal/protocol"
)

type envelope struct {
	c      *conn
	intent protocol.Intent
}

// Hub is the sequencer for one session. Every mutating intent funnels
// through run(), which processes them one at a time and stamps server time
// from the injected clock at that single point. Broadcast fan-out never
// blocks the loop: slow consumers are evicted.
type Hub struct {
	code    string
	session *game.Session
	clock   clockwork.Clock
	log     zerolog.Logger

	register   chan *conn
	unregister chan *conn
	intents    chan envelope
	deadline   chan uint64

	quit     chan struct{}
	stopOnce sync.Once
	stopped  chan struct{}

	conns   map[*conn]bool
	fjTimer clockwork.Timer

	lastActive atomic.Int64 // unix nano, read by the registry reaper

	// onExit runs once after the loop drains, off the hot path.
	onExit func()
}

func newHub(code string, episode *game.Episode, rules game.Rules, clock clockwork.Clock, logger zerolog.Logger, onExit func()) *Hub {
	h := &Hub{
		code:       code,
		session:    game.NewSession(code, episode, rules),
		clock:      clock,
		log:        logger.With().Str("session", code).Logger(),
		register:   make(chan *conn),
		unregister: make(chan *conn),
		intents:    make(chan envelope, 64),
		deadline:   make(chan uint64, 1),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
		conns:      make(map[*conn]bool),
		onExit:     onExit,
	}
	h.lastActive.Store(clock.Now().UnixNano())
	return h
}

// Stop asks the loop to shut down, closing every connection. Safe to call
// more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Stopped reports whether the loop has exited.
func (h *Hub) Stopped() bool {
	select {
	case <-h.stopped:
		return true
	default:
		return false
	}
}

// IdleSince returns the last time the hub processed any traffic.
func (h *Hub) IdleSince() time.Time {
	return time.Unix(0, h.lastActive.Load())
}

func (h *Hub) touch() {
	h.lastActive.Store(h.clock.Now().UnixNano())
}

// attach hands a new connection to the loop. It fails once the hub has
// stopped, so a caller can fall back to creating a fresh hub.
func (h *Hub) attach(c *conn) bool {
	select {
	case h.register <- c:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) unregisterConn(c *conn) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// submit queues an intent for the sequencer. False means the hub is gone
// and the connection should close.
func (h *Hub) submit(c *conn, intent protocol.Intent) bool {
	select {
	case h.intents <- envelope{c: c, intent: intent}:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) run() {
	defer func() {
		h.stopFinalTimer()
		for c := range h.conns {
			delete(h.conns, c)
			c.closeSend()
		}
		close(h.stopped)
		if h.onExit != nil {
			h.onExit()
		}
		h.log.Info().Msg("session hub stopped")
	}()

	for {
		select {
		case c := <-h.register:
			h.handleRegister(c)
		case c := <-h.unregister:
			if h.handleUnregister(c) {
				return
			}
		case env := <-h.intents:
			h.handleIntent(env.c, env.intent)
		case seq := <-h.deadline:
			h.touch()
			if h.session.FinalDeadline(seq) {
				h.log.Info().Uint64("seq", seq).Msg("final jeopardy countdown elapsed")
				h.broadcast(protocol.FinalJudgingEvent{
					Type:   protocol.EventFinalJudging,
					Reason: protocol.JudgingDeadline,
				})
			}
		case <-h.quit:
			return
		}
	}
}

// handleRegister joins or resumes the connection on the sequencer, then
// answers with the canonical snapshot. A rejected claim gets an error frame
// and a closed channel; the roster is never touched.
func (h *Hub) handleRegister(c *conn) {
	h.touch()

	if c.role == protocol.RolePlayer {
		if c.resume > 0 {
			p, err := h.session.Resume(c.resume)
			if err != nil {
				h.log.Info().Int("player", c.resume).Msg("resume claim rejected")
				c.reply(protocol.ErrorEvent{
					Type:    protocol.EventError,
					Code:    protocol.CodeResumeRejected,
					Message: err.Error(),
				})
				c.closeSend()
				return
			}
			c.player = p.Number
			h.conns[c] = true
			h.sendTo(c, h.established(c))
			h.broadcast(protocol.PlayerLivenessEvent{
				Type:         protocol.EventPlayerConnected,
				PlayerNumber: p.Number,
			})
		} else {
			p, err := h.session.Join(c.name)
			if err != nil {
				c.reply(h.errorEvent(err))
				c.closeSend()
				return
			}
			c.player = p.Number
			h.conns[c] = true
			h.sendTo(c, h.established(c))
			h.log.Info().Int("player", p.Number).Str("name", p.Name).Msg("player joined")
			h.broadcast(protocol.PlayerJoinedEvent{
				Type:   protocol.EventPlayerJoined,
				Player: playerInfo(p),
			})
		}
		return
	}

	h.conns[c] = true
	h.sendTo(c, h.established(c))
	h.log.Debug().Str("conn", c.id).Str("role", string(c.role)).Msg("connection registered")
}

// handleUnregister drops the connection and, for players with no other live
// connection, flips the liveness flag. Returns true when the hub should
// exit: the session is terminal and the last connection just left.
func (h *Hub) handleUnregister(c *conn) bool {
	h.touch()
	if _, ok := h.conns[c]; !ok {
		return false
	}
	delete(h.conns, c)
	c.closeSend()

	if c.player != 0 && !h.playerConnected(c.player) {
		_, gateClosed, err := h.session.SetConnected(c.player, false)
		if err == nil {
			h.broadcast(protocol.PlayerLivenessEvent{
				Type:         protocol.EventPlayerDisconnected,
				PlayerNumber: c.player,
			})
			if gateClosed {
				h.broadcast(protocol.SimpleEvent{Type: protocol.EventFinalAllWagersIn})
			}
		}
	}

	return h.session.Status().Terminal() && len(h.conns) == 0
}

func (h *Hub) playerConnected(number int) bool {
	for c := range h.conns {
		if c != nil && c.player == number {
			return true
		}
	}
	return false
}

func (h *Hub) established(c *conn) protocol.ConnectionEstablishedEvent {
	return protocol.ConnectionEstablishedEvent{
		Type:         protocol.EventConnectionEstablished,
		Role:         c.role,
		PlayerNumber: c.player,
		Snapshot:     snapshotFor(h.session, c.role, h.clock.Now()),
	}
}

var playerIntents = map[protocol.IntentType]bool{
	protocol.IntentBuzz:             true,
	protocol.IntentSubmitWager:      true,
	protocol.IntentSubmitFinalWager: true,
	protocol.IntentSubmitFinalAns:   true,
}

// allowed enforces the role rules: boards are read-only, players may only
// act as themselves, everything else is host-only.
func (h *Hub) allowed(c *conn, intent protocol.Intent) error {
	switch c.role {
	case protocol.RoleBoard:
		return &game.ValidationError{Reason: "board connections are read-only"}
	case protocol.RolePlayer:
		if !playerIntents[intent.Type] {
			return &game.ValidationError{Reason: string(intent.Type) + " is a host intent"}
		}
		if intent.PlayerNumber != c.player {
			return &game.ValidationError{Reason: "players may only act as themselves"}
		}
	default:
		if playerIntents[intent.Type] {
			return &game.ValidationError{Reason: string(intent.Type) + " is a player intent"}
		}
	}
	return nil
}

func (h *Hub) handleIntent(c *conn, intent protocol.Intent) {
	h.touch()
	if err := h.allowed(c, intent); err != nil {
		h.sendError(c, err)
		return
	}

	var err error
	switch intent.Type {
	case protocol.IntentBuzz:
		err = h.buzz(intent)
	case protocol.IntentRevealClue:
		err = h.revealClue(intent)
	case protocol.IntentEnableBuzzer:
		err = h.enableBuzzer()
	case protocol.IntentJudgeAnswer:
		err = h.judgeAnswer(intent)
	case protocol.IntentNextClue:
		err = h.nextClue()
	case protocol.IntentRevealDD:
		err = h.revealDailyDouble()
	case protocol.IntentSubmitWager:
		err = h.submitWager(intent)
	case protocol.IntentShowDDClue:
		err = h.showDDClue()
	case protocol.IntentJudgeDDAnswer:
		err = h.judgeDDAnswer(intent)
	case protocol.IntentStartFinal:
		err = h.startFinal()
	case protocol.IntentSubmitFinalWager:
		err = h.submitFinalWager(intent)
	case protocol.IntentRevealFinalClue:
		err = h.revealFinalClue()
	case protocol.IntentSubmitFinalAns:
		err = h.submitFinalAnswer(intent)
	case protocol.IntentJudgeFinalAnswer:
		err = h.judgeFinalAnswer(intent)
	case protocol.IntentAdjustScore:
		err = h.adjustScore(intent)
	case protocol.IntentStartRound:
		err = h.startRound(intent)
	case protocol.IntentResetGame:
		err = h.resetGame()
	case protocol.IntentEndGame:
		err = h.endGame()
	case protocol.IntentAbandonGame:
		err = h.abandonGame()
	default:
		h.sendTo(c, protocol.ErrorEvent{
			Type:    protocol.EventError,
			Code:    protocol.CodeBadIntent,
			Message: "unknown intent type " + string(intent.Type),
		})
		return
	}
	if err != nil {
		h.sendError(c, err)
	}
}

func (h *Hub) buzz(intent protocol.Intent) error {
	res, err := h.session.Buzz(intent.PlayerNumber, intent.UnlockToken, h.clock.Now())
	if err != nil {
		return err
	}
	ev := protocol.BuzzResultEvent{
		Type:         protocol.EventBuzzResult,
		Accepted:     res.Accepted,
		PlayerNumber: res.Player,
		Winner:       res.Winner,
		Position:     res.Position,
		ServerTime:   res.ServerTime.UnixMilli(),
		Reason:       string(res.Rejection),
	}
	if res.Cooldown > 0 {
		ev.CooldownRemaining = res.Cooldown.Seconds()
	}
	h.broadcast(ev)
	return nil
}

func (h *Hub) revealClue(intent protocol.Intent) error {
	res, err := h.session.RevealClue(intent.ClueID)
	if err != nil {
		return err
	}
	h.broadcastFiltered(
		protocol.ClueRevealedEvent{Type: protocol.EventClueRevealed, Clue: clueInfo(res.Clue, protocol.RolePlayer)},
		protocol.ClueRevealedEvent{Type: protocol.EventClueRevealed, Clue: clueInfo(res.Clue, protocol.RoleHost)},
	)
	if res.DailyDouble {
		h.log.Info().Int("player", res.Chosen).Str("clue", res.Clue.ID).Msg("daily double detected")
		h.broadcast(protocol.DDDetectedEvent{
			Type:         protocol.EventDDDetected,
			PlayerNumber: res.Chosen,
			ClueID:       res.Clue.ID,
		})
	}
	return nil
}

func (h *Hub) enableBuzzer() error {
	token, err := h.session.EnableBuzzer()
	if err != nil {
		return err
	}
	h.broadcast(protocol.BuzzerEnabledEvent{Type: protocol.EventBuzzerEnabled, UnlockToken: token})
	return nil
}

func (h *Hub) judgeAnswer(intent protocol.Intent) error {
	if intent.Correct == nil {
		return &game.ValidationError{Reason: "judge_answer requires a correct flag"}
	}
	res, err := h.session.JudgeAnswer(intent.PlayerNumber, *intent.Correct, intent.Value, h.clock.Now())
	if err != nil {
		return err
	}
	h.broadcast(protocol.AnswerJudgedEvent{
		Type:         protocol.EventAnswerJudged,
		PlayerNumber: res.Player,
		Correct:      res.Correct,
		Value:        res.Value,
		Score:        res.Score,
		Control:      res.Control,
		Winner:       res.Winner,
	})
	if res.Finished {
		h.broadcast(protocol.ClueFinishedEvent{Type: protocol.EventClueFinished, ClueID: res.ClueID})
	}
	return nil
}

func (h *Hub) nextClue() error {
	id, err := h.session.NextClue()
	if err != nil {
		return err
	}
	h.broadcast(protocol.ClueFinishedEvent{Type: protocol.EventClueFinished, ClueID: id})
	return nil
}

func (h *Hub) revealDailyDouble() error {
	if err := h.session.RevealDailyDouble(); err != nil {
		return err
	}
	h.broadcast(protocol.SimpleEvent{Type: protocol.EventDDRevealed})
	return nil
}

func (h *Hub) submitWager(intent protocol.Intent) error {
	if intent.Wager == nil {
		return &game.ValidationError{Reason: "submit_wager requires a wager"}
	}
	if err := h.session.SubmitDailyDoubleWager(intent.PlayerNumber, *intent.Wager); err != nil {
		return err
	}
	h.broadcast(protocol.DDWagerAcceptedEvent{
		Type:         protocol.EventDDWagerAccepted,
		PlayerNumber: intent.PlayerNumber,
		Wager:        *intent.Wager,
	})
	return nil
}

func (h *Hub) showDDClue() error {
	clue, err := h.session.ShowDailyDoubleClue()
	if err != nil {
		return err
	}
	h.broadcastFiltered(
		protocol.DDClueShownEvent{Type: protocol.EventDDClueShown, Clue: clueInfo(clue, protocol.RolePlayer)},
		protocol.DDClueShownEvent{Type: protocol.EventDDClueShown, Clue: clueInfo(clue, protocol.RoleHost)},
	)
	return nil
}

func (h *Hub) judgeDDAnswer(intent protocol.Intent) error {
	if intent.Correct == nil {
		return &game.ValidationError{Reason: "judge_dd_answer requires a correct flag"}
	}
	res, err := h.session.JudgeDailyDouble(intent.PlayerNumber, *intent.Correct, intent.Answer)
	if err != nil {
		return err
	}
	h.broadcast(protocol.DDJudgedEvent{
		Type:         protocol.EventDDJudged,
		PlayerNumber: res.Player,
		Correct:      res.Correct,
		Wager:        res.Wager,
		Answer:       res.Answer,
		Score:        res.Score,
	})
	return nil
}

func (h *Hub) startFinal() error {
	category, err := h.session.StartFinal()
	if err != nil {
		return err
	}
	h.broadcast(protocol.FinalStartedEvent{Type: protocol.EventFinalStarted, Category: category})
	return nil
}

func (h *Hub) submitFinalWager(intent protocol.Intent) error {
	if intent.Wager == nil {
		return &game.ValidationError{Reason: "submit_fj_wager requires a wager"}
	}
	res, err := h.session.SubmitFinalWager(intent.PlayerNumber, *intent.Wager)
	if err != nil {
		return err
	}
	h.broadcast(protocol.FinalProgressEvent{
		Type:         protocol.EventFinalWagerReceived,
		PlayerNumber: res.Player,
		Count:        res.Count,
		Needed:       res.Needed,
	})
	if res.AllIn {
		h.broadcast(protocol.SimpleEvent{Type: protocol.EventFinalAllWagersIn})
	}
	return nil
}

func (h *Hub) revealFinalClue() error {
	clue, duration, seq, err := h.session.RevealFinalClue(h.clock.Now())
	if err != nil {
		return err
	}
	h.broadcastFiltered(
		protocol.FinalClueRevealedEvent{
			Type:          protocol.EventFinalClueRevealed,
			Clue:          clueInfo(clue, protocol.RolePlayer),
			TimerDuration: duration.Seconds(),
		},
		protocol.FinalClueRevealedEvent{
			Type:          protocol.EventFinalClueRevealed,
			Clue:          clueInfo(clue, protocol.RoleHost),
			TimerDuration: duration.Seconds(),
		},
	)
	h.armFinalTimer(duration, seq)
	return nil
}

func (h *Hub) submitFinalAnswer(intent protocol.Intent) error {
	res, err := h.session.SubmitFinalAnswer(intent.PlayerNumber, intent.Answer, h.clock.Now())
	if err != nil {
		return err
	}
	h.broadcast(protocol.FinalProgressEvent{
		Type:         protocol.EventFinalAnswerReceived,
		PlayerNumber: res.Player,
		Count:        res.Count,
		Needed:       res.Needed,
	})
	if res.AllIn {
		h.stopFinalTimer()
		h.broadcast(protocol.FinalJudgingEvent{
			Type:   protocol.EventFinalJudging,
			Reason: protocol.JudgingAllAnswersIn,
		})
	}
	return nil
}

func (h *Hub) judgeFinalAnswer(intent protocol.Intent) error {
	if intent.Correct == nil {
		return &game.ValidationError{Reason: "judge_fj_answer requires a correct flag"}
	}
	res, err := h.session.JudgeFinalAnswer(intent.PlayerNumber, *intent.Correct)
	if err != nil {
		return err
	}
	h.broadcast(protocol.FinalAnswerJudgedEvent{
		Type:         protocol.EventFinalAnswerJudged,
		PlayerNumber: res.Player,
		Correct:      res.Correct,
		Wager:        res.Wager,
		Answer:       res.Answer,
		Score:        res.Score,
	})
	if res.Complete {
		h.broadcast(protocol.ScoresEvent{Type: protocol.EventFinalComplete, Scores: h.scores()})
	}
	return nil
}

func (h *Hub) adjustScore(intent protocol.Intent) error {
	p, err := h.session.AdjustScore(intent.PlayerNumber, intent.Delta)
	if err != nil {
		return err
	}
	h.log.Info().Int("player", p.Number).Int("delta", intent.Delta).Msg("score adjusted by host")
	h.broadcast(protocol.ScoreAdjustedEvent{
		Type:         protocol.EventScoreAdjusted,
		PlayerNumber: p.Number,
		Delta:        intent.Delta,
		Score:        p.Score,
	})
	return nil
}

func (h *Hub) startRound(intent protocol.Intent) error {
	round, err := game.ParseRound(intent.Round)
	if err != nil {
		return err
	}
	if err := h.session.StartRound(round); err != nil {
		return err
	}
	h.stopFinalTimer()
	h.broadcast(protocol.RoundChangedEvent{
		Type:   protocol.EventRoundChanged,
		Round:  string(round),
		Status: string(h.session.Status()),
	})
	return nil
}

func (h *Hub) resetGame() error {
	if err := h.session.Reset(); err != nil {
		return err
	}
	h.stopFinalTimer()
	h.broadcast(protocol.SimpleEvent{Type: protocol.EventGameReset})
	return nil
}

func (h *Hub) endGame() error {
	if err := h.session.EndGame(); err != nil {
		return err
	}
	h.stopFinalTimer()
	h.log.Info().Msg("game completed")
	h.broadcast(protocol.ScoresEvent{Type: protocol.EventGameCompleted, Scores: h.scores()})
	return nil
}

func (h *Hub) abandonGame() error {
	if err := h.session.Abandon(); err != nil {
		return err
	}
	h.stopFinalTimer()
	h.log.Info().Msg("game abandoned")
	h.broadcast(protocol.SimpleEvent{Type: protocol.EventGameAbandoned})
	return nil
}

// armFinalTimer schedules the countdown on the hub's clock. The sequence
// number makes the fire idempotent: a stale timer for a superseded arming
// is ignored by the session.
func (h *Hub) armFinalTimer(d time.Duration, seq uint64) {
	h.stopFinalTimer()
	t := h.clock.NewTimer(d)
	h.fjTimer = t
	go func() {
		select {
		case <-t.Chan():
			select {
			case h.deadline <- seq:
			case <-h.stopped:
			}
		case <-h.stopped:
		}
	}()
}

// stopFinalTimer stops and drains a pending countdown, per the
// time.Timer.Stop contract.
func (h *Hub) stopFinalTimer() {
	if h.fjTimer == nil {
		return
	}
	if !h.fjTimer.Stop() {
		select {
		case <-h.fjTimer.Chan():
		default:
		}
	}
	h.fjTimer = nil
}

func (h *Hub) scores() []protocol.PlayerInfo {
	players := h.session.Players()
	out := make([]protocol.PlayerInfo, 0, len(players))
	for _, p := range players {
		out = append(out, playerInfo(p))
	}
	return out
}

// errorEvent maps the taxonomy onto wire codes.
func (h *Hub) errorEvent(err error) protocol.ErrorEvent {
	ev := protocol.ErrorEvent{Type: protocol.EventError, Message: err.Error()}
	switch err.(type) {
	case *game.ValidationError:
		ev.Code = protocol.CodeValidation
	case *game.StateConflictError:
		ev.Code = protocol.CodeStateConflict
	case *game.TerminalGameError:
		ev.Code = protocol.CodeGameTerminated
	default:
		ev.Code = protocol.CodeValidation
	}
	return ev
}

// sendError answers the offending connection only. Conflicts are logged for
// audit; nothing is broadcast.
func (h *Hub) sendError(c *conn, err error) {
	ev := h.errorEvent(err)
	if ev.Code == protocol.CodeStateConflict {
		h.log.Debug().Str("conn", c.id).Str("reason", ev.Message).Msg("state conflict")
	}
	h.sendTo(c, ev)
}

func (h *Hub) sendTo(c *conn, ev any) {
	frame, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal event")
		return
	}
	h.deliver(c, frame)
}

// broadcast fans an event out to every registered connection.
func (h *Hub) broadcast(ev any) {
	frame, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal event")
		return
	}
	for c := range h.conns {
		h.deliver(c, frame)
	}
}

// broadcastFiltered sends the host variant, which carries response text, to
// host connections and the public variant to everyone else.
func (h *Hub) broadcastFiltered(public, host any) {
	publicFrame, err := json.Marshal(public)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal event")
		return
	}
	hostFrame, err := json.Marshal(host)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal event")
		return
	}
	for c := range h.conns {
		if c.role == protocol.RoleHost {
			h.deliver(c, hostFrame)
		} else {
			h.deliver(c, publicFrame)
		}
	}
}

// deliver queues one frame, evicting the connection if its buffer is full
// so one slow consumer never stalls the rest.
func (h *Hub) deliver(c *conn, frame []byte) {
	if c.enqueue(frame) {
		return
	}
	if _, ok := h.conns[c]; ok {
		h.log.Warn().Str("conn", c.id).Msg("send buffer full, evicting connection")
		delete(h.conns, c)
		c.closeSend()
	}
}
