package client

import (
	"time"

	"github.com/stagelight/podium/internal/protocol"
)

// Snapshot is the locally cached resume hint a client writes between
// sessions. It only ever decides whether to offer the human a resume
// prompt; the server's canonical state always wins on reconnect, and a
// rejected claim discards the snapshot entirely.
type Snapshot struct {
	Role         protocol.Role `json:"role"`
	SessionCode  string        `json:"session_code"`
	PlayerNumber int           `json:"player_number,omitempty"`
	PlayerName   string        `json:"player_name,omitempty"`
	Status       string        `json:"status,omitempty"`
	Round        string        `json:"round,omitempty"`
	FinalStage   string        `json:"final_stage,omitempty"`
	SavedAt      time.Time     `json:"saved_at"`
}

// NewSnapshot captures the resume hint from a connection_established frame.
func NewSnapshot(ev protocol.ConnectionEstablishedEvent, playerName string, now time.Time) Snapshot {
	snap := Snapshot{
		Role:         ev.Role,
		SessionCode:  ev.Snapshot.SessionCode,
		PlayerNumber: ev.PlayerNumber,
		PlayerName:   playerName,
		Status:       ev.Snapshot.Status,
		Round:        ev.Snapshot.Round,
		SavedAt:      now,
	}
	if ev.Snapshot.Final != nil {
		snap.FinalStage = ev.Snapshot.Final.Stage
	}
	return snap
}

// Decision is the outcome of evaluating a cached snapshot.
type Decision int

const (
	// StartFresh discards the snapshot and routes to a new session.
	StartFresh Decision = iota
	// PromptResume offers the human a resume into the cached session.
	PromptResume
)

// DefaultSnapshotMaxAge bounds how stale a cached snapshot may be before
// resuming stops being offered.
const DefaultSnapshotMaxAge = 12 * time.Hour

// Evaluate decides fresh-versus-prompt for a cached snapshot. It never
// consults or mutates server state; an accepted prompt still goes through
// the server-side claim validation on connect.
func (s Snapshot) Evaluate(now time.Time, maxAge time.Duration) Decision {
	if maxAge <= 0 {
		maxAge = DefaultSnapshotMaxAge
	}
	if s.SessionCode == "" {
		return StartFresh
	}
	if _, ok := protocol.ParseRole(string(s.Role)); !ok {
		return StartFresh
	}
	if s.Role == protocol.RolePlayer && s.PlayerNumber < 1 {
		return StartFresh
	}
	if s.SavedAt.IsZero() || now.Sub(s.SavedAt) > maxAge {
		return StartFresh
	}
	// A session the client last saw as terminal has nothing to resume.
	if s.Status == "completed" || s.Status == "abandoned" {
		return StartFresh
	}
	return PromptResume
}
