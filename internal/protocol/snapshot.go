package protocol

// Snapshot is the full canonical session state. The server pushes it inside
// connection_established on every connect and resume; it always wins over
// anything the client cached. Static episode content is not included —
// clients fetch that once from the content service.
type Snapshot struct {
	SessionCode string            `json:"session_code"`
	Status      string            `json:"status"`
	Round       string            `json:"round"`
	Control     int               `json:"control,omitempty"`
	Players     []PlayerInfo      `json:"players"`
	Revealed    []string          `json:"revealed"`
	ActiveClue  *ClueInfo         `json:"active_clue,omitempty"`
	Buzzer      BuzzerState       `json:"buzzer"`
	DailyDouble *DailyDoubleState `json:"daily_double,omitempty"`
	Final       *FinalState       `json:"final,omitempty"`
	ServerTime  int64             `json:"server_time"` // unix ms
}

// PlayerInfo is one roster entry.
type PlayerInfo struct {
	Number    int    `json:"number"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
}

// ClueInfo is a clue as rendered to a role. Response is filled only on
// frames addressed to the host.
type ClueInfo struct {
	ID          string `json:"id"`
	Round       string `json:"round"`
	Category    string `json:"category"`
	Row         int    `json:"row,omitempty"`
	Value       int    `json:"value,omitempty"`
	Prompt      string `json:"prompt"`
	Response    string `json:"response,omitempty"`
	DailyDouble bool   `json:"daily_double,omitempty"`
}

// BuzzerState mirrors the arbitration state for the active clue.
type BuzzerState struct {
	Open        bool            `json:"open"`
	UnlockToken uint64          `json:"unlock_token"`
	Winner      int             `json:"winner,omitempty"`
	Queue       []QueueEntry    `json:"queue,omitempty"`
	Cooldowns   map[int]float64 `json:"cooldowns,omitempty"` // player -> seconds left
}

// QueueEntry is one queued buzz in server-time order.
type QueueEntry struct {
	PlayerNumber int   `json:"player_number"`
	ServerTime   int64 `json:"server_time"` // unix ms
}

// DailyDoubleState mirrors the Daily Double machine. Wager is public once
// placed.
type DailyDoubleState struct {
	Stage        string `json:"stage"`
	PlayerNumber int    `json:"player_number,omitempty"`
	ClueID       string `json:"clue_id,omitempty"`
	Wager        int    `json:"wager,omitempty"`
}

// FinalState mirrors Final Jeopardy. Unjudged wagers and answers appear
// only on frames addressed to the host; judged entries are public.
type FinalState struct {
	Stage            string       `json:"stage"`
	Category         string       `json:"category,omitempty"`
	SecondsRemaining float64      `json:"seconds_remaining,omitempty"`
	Entries          []FinalEntry `json:"entries,omitempty"`
}

// FinalEntry is one participant's progress through Final Jeopardy.
type FinalEntry struct {
	PlayerNumber int    `json:"player_number"`
	Wagered      bool   `json:"wagered"`
	Wager        *int   `json:"wager,omitempty"`
	Answered     bool   `json:"answered"`
	Answer       string `json:"answer,omitempty"`
	Judged       bool   `json:"judged"`
	Correct      *bool  `json:"correct,omitempty"`
}
