package protocol

// EventType discriminates server-to-client messages.
type EventType string

const (
	EventConnectionEstablished EventType = "connection_established"
	EventPlayerJoined          EventType = "player_joined"
	EventPlayerConnected       EventType = "player_connected"
	EventPlayerDisconnected    EventType = "player_disconnected"
	EventClueRevealed          EventType = "clue_revealed"
	EventBuzzerEnabled         EventType = "buzzer_enabled"
	EventBuzzResult            EventType = "buzz_result"
	EventAnswerJudged          EventType = "answer_judged"
	EventClueFinished          EventType = "clue_finished"
	EventDDDetected            EventType = "daily_double_detected"
	EventDDRevealed            EventType = "dd_revealed"
	EventDDWagerAccepted       EventType = "dd_wager_accepted"
	EventDDClueShown           EventType = "dd_clue_shown"
	EventDDJudged              EventType = "dd_judged"
	EventFinalStarted          EventType = "fj_started"
	EventFinalWagerReceived    EventType = "fj_wager_received"
	EventFinalAllWagersIn      EventType = "fj_all_wagers_in"
	EventFinalClueRevealed     EventType = "fj_clue_revealed"
	EventFinalAnswerReceived   EventType = "fj_answer_received"
	EventFinalJudging          EventType = "fj_judging"
	EventFinalAnswerJudged     EventType = "fj_answer_judged"
	EventFinalComplete         EventType = "fj_complete"
	EventRoundChanged          EventType = "round_changed"
	EventScoreAdjusted         EventType = "score_adjusted"
	EventGameReset             EventType = "game_reset"
	EventGameCompleted         EventType = "game_completed"
	EventGameAbandoned         EventType = "game_abandoned"
	EventError                 EventType = "error"
)

// ConnectionEstablishedEvent is sent once per connection and carries the
// full canonical snapshot, so a client never needs a bootstrap call beyond
// the one-time fetch of static episode content.
type ConnectionEstablishedEvent struct {
	Type         EventType `json:"type"` // "connection_established"
	Role         Role      `json:"role"`
	PlayerNumber int       `json:"player_number,omitempty"` // player connections only
	Snapshot     Snapshot  `json:"snapshot"`
}

// PlayerJoinedEvent announces a new roster entry.
type PlayerJoinedEvent struct {
	Type   EventType  `json:"type"` // "player_joined"
	Player PlayerInfo `json:"player"`
}

// PlayerLivenessEvent covers "player_connected" and "player_disconnected".
type PlayerLivenessEvent struct {
	Type         EventType `json:"type"`
	PlayerNumber int       `json:"player_number"`
}

// ClueRevealedEvent puts a clue in play. The response text is present only
// on frames sent to the host.
type ClueRevealedEvent struct {
	Type EventType `json:"type"` // "clue_revealed"
	Clue ClueInfo  `json:"clue"`
}

// BuzzerEnabledEvent opens the buzzer window under a fresh unlock token.
type BuzzerEnabledEvent struct {
	Type        EventType `json:"type"` // "buzzer_enabled"
	UnlockToken uint64    `json:"unlock_token"`
}

// BuzzResultEvent is the arbitration outcome, broadcast to every role
// whether the buzz was accepted or not. ServerTime is the authoritative
// arbitration stamp.
type BuzzResultEvent struct {
	Type              EventType `json:"type"` // "buzz_result"
	Accepted          bool      `json:"accepted"`
	PlayerNumber      int       `json:"player_number"`
	Winner            int       `json:"winner,omitempty"`
	Position          int       `json:"position,omitempty"`
	ServerTime        int64     `json:"server_time"` // unix ms
	Reason            string    `json:"reason,omitempty"`
	CooldownRemaining float64   `json:"cooldown_remaining,omitempty"` // seconds
}

// AnswerJudgedEvent reports a judged regular answer and the new score.
type AnswerJudgedEvent struct {
	Type         EventType `json:"type"` // "answer_judged"
	PlayerNumber int       `json:"player_number"`
	Correct      bool      `json:"correct"`
	Value        int       `json:"value"`
	Score        int       `json:"score"`
	Control      int       `json:"control,omitempty"`
	Winner       int       `json:"winner,omitempty"` // promoted player after an incorrect
}

// ClueFinishedEvent closes a clue, after a correct answer or next_clue.
type ClueFinishedEvent struct {
	Type   EventType `json:"type"` // "clue_finished"
	ClueID string    `json:"clue_id"`
}

// DDDetectedEvent announces that the revealed clue is a Daily Double owned
// by the controlling player.
type DDDetectedEvent struct {
	Type         EventType `json:"type"` // "daily_double_detected"
	PlayerNumber int       `json:"player_number"`
	ClueID       string    `json:"clue_id"`
}

// DDWagerAcceptedEvent locks in the Daily Double wager; the amount is
// public once placed.
type DDWagerAcceptedEvent struct {
	Type         EventType `json:"type"` // "dd_wager_accepted"
	PlayerNumber int       `json:"player_number"`
	Wager        int       `json:"wager"`
}

// DDClueShownEvent exposes the Daily Double clue text.
type DDClueShownEvent struct {
	Type EventType `json:"type"` // "dd_clue_shown"
	Clue ClueInfo  `json:"clue"`
}

// DDJudgedEvent reports the judged Daily Double and the new score.
type DDJudgedEvent struct {
	Type         EventType `json:"type"` // "dd_judged"
	PlayerNumber int       `json:"player_number"`
	Correct      bool      `json:"correct"`
	Wager        int       `json:"wager"`
	Answer       string    `json:"answer,omitempty"` // host-entered echo, advisory
	Score        int       `json:"score"`
}

// FinalStartedEvent shows the Final Jeopardy category and opens wagering.
type FinalStartedEvent struct {
	Type     EventType `json:"type"` // "fj_started"
	Category string    `json:"category"`
}

// FinalProgressEvent covers "fj_wager_received" and "fj_answer_received":
// who moved, how many are in, and how many the gate needs. Amounts and
// texts stay private until judging.
type FinalProgressEvent struct {
	Type         EventType `json:"type"`
	PlayerNumber int       `json:"player_number"`
	Count        int       `json:"count"`
	Needed       int       `json:"needed"`
}

// FinalClueRevealedEvent shows the clue to everyone and starts the
// countdown.
type FinalClueRevealedEvent struct {
	Type          EventType `json:"type"` // "fj_clue_revealed"
	Clue          ClueInfo  `json:"clue"`
	TimerDuration float64   `json:"timer_duration"` // seconds
}

// FinalJudgingEvent announces that answering closed, either because every
// participant answered or because the countdown elapsed.
type FinalJudgingEvent struct {
	Type   EventType `json:"type"` // "fj_judging"
	Reason string    `json:"reason"`
}

// Reasons carried by FinalJudgingEvent.
const (
	JudgingAllAnswersIn = "all_answers_in"
	JudgingDeadline     = "deadline"
)

// FinalAnswerJudgedEvent reveals one participant's wager and answer along
// with the judgment.
type FinalAnswerJudgedEvent struct {
	Type         EventType `json:"type"` // "fj_answer_judged"
	PlayerNumber int       `json:"player_number"`
	Correct      bool      `json:"correct"`
	Wager        int       `json:"wager"`
	Answer       string    `json:"answer"`
	Score        int       `json:"score"`
}

// ScoresEvent carries final standings for "fj_complete" and
// "game_completed".
type ScoresEvent struct {
	Type   EventType    `json:"type"`
	Scores []PlayerInfo `json:"scores"`
}

// RoundChangedEvent reports the round now in play, activating a waiting
// game if needed.
type RoundChangedEvent struct {
	Type   EventType `json:"type"` // "round_changed"
	Round  string    `json:"round"`
	Status string    `json:"status"`
}

// ScoreAdjustedEvent is a manual host correction, deliberately distinct
// from answer_judged for audit purposes.
type ScoreAdjustedEvent struct {
	Type         EventType `json:"type"` // "score_adjusted"
	PlayerNumber int       `json:"player_number"`
	Delta        int       `json:"delta"`
	Score        int       `json:"score"`
}

// SimpleEvent covers events that need no payload: "dd_revealed",
// "fj_all_wagers_in", "game_reset", "game_abandoned".
type SimpleEvent struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
}

// ErrorEvent rejects one intent, addressed to the offending connection
// only.
type ErrorEvent struct {
	Type              EventType `json:"type"` // "error"
	Code              string    `json:"code"`
	Message           string    `json:"message"`
	CooldownRemaining float64   `json:"cooldown_remaining,omitempty"` // seconds
}
