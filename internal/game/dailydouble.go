package game

// DDStage is the Daily Double progression for a single privileged player.
// No buzzer queue participates; the controlling player at detection time
// owns the whole sequence.
type DDStage string

const (
	DDInactive  DDStage = "inactive"
	DDDetected  DDStage = "detected"
	DDRevealed  DDStage = "revealed"
	DDWagering  DDStage = "wagering"  // wager is in, clue not yet shown
	DDAnswering DDStage = "answering" // clue shown, awaiting judgment
	DDJudged    DDStage = "judged"
)

// DDJudgeResult reports a judged Daily Double.
type DDJudgeResult struct {
	Player  int
	Correct bool
	Wager   int
	Answer  string
	Score   int
}

type dailyDouble struct {
	stage  DDStage
	player int
	clue   *Clue
	wager  int
	answer string
}

func (d *dailyDouble) reset() {
	*d = dailyDouble{stage: DDInactive}
}

func (d *dailyDouble) detect(player int, clue *Clue) {
	d.stage = DDDetected
	d.player = player
	d.clue = clue
	d.wager = 0
	d.answer = ""
}

// RevealDailyDouble plays the detected Daily Double to the room, opening
// the wager window for the chosen player.
func (s *Session) RevealDailyDouble() error {
	if err := s.guardMutable(); err != nil {
		return err
	}
	switch s.dd.stage {
	case DDDetected:
		s.dd.stage = DDRevealed
		return nil
	case DDInactive:
		return conflictf("no daily double in play")
	default:
		return conflictf("daily double already revealed")
	}
}

// SubmitDailyDoubleWager records the chosen player's wager. Bounds are
// [minimum, max(current score, round maximum)]; out-of-bounds wagers are
// rejected, never clamped.
func (s *Session) SubmitDailyDoubleWager(number, wager int) error {
	if err := s.guardMutable(); err != nil {
		return err
	}
	switch s.dd.stage {
	case DDRevealed:
	case DDInactive, DDDetected:
		return conflictf("daily double is not accepting wagers")
	default:
		return conflictf("daily double wager already placed")
	}
	p, err := s.player(number)
	if err != nil {
		return err
	}
	if number != s.dd.player {
		return validationf("player %d is not the daily double player", number)
	}
	ceiling := MaxClueValue(s.round)
	if p.Score > ceiling {
		ceiling = p.Score
	}
	if wager < s.Rules.DailyDoubleMin || wager > ceiling {
		return validationf("wager %d outside [%d, %d]", wager, s.Rules.DailyDoubleMin, ceiling)
	}
	s.dd.wager = wager
	s.dd.stage = DDWagering
	return nil
}

// ShowDailyDoubleClue exposes the clue text once the wager is locked in.
func (s *Session) ShowDailyDoubleClue() (*Clue, error) {
	if err := s.guardMutable(); err != nil {
		return nil, err
	}
	if s.dd.stage != DDWagering {
		return nil, conflictf("daily double has no locked wager")
	}
	s.dd.stage = DDAnswering
	return s.dd.clue, nil
}

// JudgeDailyDouble applies the wager to the chosen player's score. The
// answer echo is advisory; judging is host-driven, not text-matched.
func (s *Session) JudgeDailyDouble(number int, correct bool, answer string) (*DDJudgeResult, error) {
	if err := s.guardMutable(); err != nil {
		return nil, err
	}
	if s.dd.stage != DDAnswering {
		return nil, conflictf("daily double is not awaiting judgment")
	}
	p, err := s.player(number)
	if err != nil {
		return nil, err
	}
	if number != s.dd.player {
		return nil, validationf("player %d is not the daily double player", number)
	}
	if correct {
		p.Score += s.dd.wager
	} else {
		p.Score -= s.dd.wager
	}
	s.dd.stage = DDJudged
	s.dd.answer = answer
	return &DDJudgeResult{
		Player:  number,
		Correct: correct,
		Wager:   s.dd.wager,
		Answer:  answer,
		Score:   p.Score,
	}, nil
}
