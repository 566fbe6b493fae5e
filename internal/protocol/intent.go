package protocol

// IntentType discriminates client-to-server messages.
type IntentType string

const (
	IntentBuzz             IntentType = "buzz"
	IntentRevealClue       IntentType = "reveal_clue"
	IntentEnableBuzzer     IntentType = "enable_buzzer"
	IntentJudgeAnswer      IntentType = "judge_answer"
	IntentNextClue         IntentType = "next_clue"
	IntentRevealDD         IntentType = "reveal_daily_double"
	IntentSubmitWager      IntentType = "submit_wager"
	IntentShowDDClue       IntentType = "show_dd_clue"
	IntentJudgeDDAnswer    IntentType = "judge_dd_answer"
	IntentStartFinal       IntentType = "start_final_jeopardy"
	IntentSubmitFinalWager IntentType = "submit_fj_wager"
	IntentRevealFinalClue  IntentType = "reveal_fj_clue"
	IntentSubmitFinalAns   IntentType = "submit_fj_answer"
	IntentJudgeFinalAnswer IntentType = "judge_fj_answer"
	IntentAdjustScore      IntentType = "adjust_score"
	IntentStartRound       IntentType = "start_round"
	IntentResetGame        IntentType = "reset_game"
	IntentEndGame          IntentType = "end_game"
	IntentAbandonGame      IntentType = "abandon_game"
)

// Intent is every client-to-server message. Which fields matter depends on
// Type; everything else is ignored.
type Intent struct {
	Type            IntentType `json:"type"`
	PlayerNumber    int        `json:"player_number,omitempty"`    // buzz / wagers / answers / judge_* / adjust_score
	ClientTimestamp int64      `json:"client_timestamp,omitempty"` // buzz; unix ms, advisory only
	UnlockToken     uint64     `json:"unlock_token,omitempty"`     // buzz
	ClueID          string     `json:"clue_id,omitempty"`          // reveal_clue
	Correct         *bool      `json:"correct,omitempty"`          // judge_answer / judge_dd_answer / judge_fj_answer
	Value           int        `json:"value,omitempty"`            // judge_answer override; 0 means face value
	Wager           *int       `json:"wager,omitempty"`            // submit_wager / submit_fj_wager
	Answer          string     `json:"answer,omitempty"`           // submit_fj_answer / judge_dd_answer echo
	Delta           int        `json:"delta,omitempty"`            // adjust_score
	Round           string     `json:"round,omitempty"`            // start_round
}
