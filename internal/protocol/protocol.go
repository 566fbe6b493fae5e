// Package protocol defines the wire messages exchanged over a session's
// websocket: client intents, server events, and the snapshot pushed on
// every connect. All payloads are flat JSON with a type discriminator.
package protocol

// Role is the capability a connection holds for the session.
type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
	RoleBoard  Role = "board" // read-only spectator display
)

// ParseRole validates a role supplied at connect time.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleHost, RolePlayer, RoleBoard:
		return Role(s), true
	}
	return "", false
}

// Error codes carried by ErrorEvent.
const (
	CodeValidation     = "validation"     // malformed or out-of-range payload, role misuse
	CodeStateConflict  = "state_conflict" // intent not valid in the current stage
	CodeGameTerminated = "game_terminated"
	CodeResumeRejected = "resume_rejected"
	CodeBadIntent      = "bad_intent" // unparseable frame or unknown type
)
