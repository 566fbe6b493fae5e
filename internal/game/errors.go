package game

import (
	"fmt"
)

// ValidationError marks an intent whose payload is malformed or out of
// range: unknown player numbers, wagers outside their bounds, intents
// issued by a role that may not issue them. It is surfaced to the
// originating client only and never broadcast.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// StateConflictError marks an intent that is well-formed but not valid in
// the current stage: judging twice, revealing a revealed clue, presenting
// an intent for a stage that has moved on. Buzz arbitration rejections are
// not errors; they broadcast as an unaccepted BuzzResult.
type StateConflictError struct {
	Reason string
}

func (e *StateConflictError) Error() string {
	return e.Reason
}

// TerminalGameError marks any mutating intent received after the game
// reached completed or abandoned. Always rejected, never silently dropped.
type TerminalGameError struct {
	Status Status
}

func (e *TerminalGameError) Error() string {
	return fmt.Sprintf("game is already %s", e.Status)
}

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...any) error {
	return &StateConflictError{Reason: fmt.Sprintf(format, args...)}
}
