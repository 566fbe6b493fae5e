package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stagelight/podium/internal/protocol"
)

func TestSnapshotEvaluate(t *testing.T) {
	now := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	fresh := Snapshot{
		Role:         protocol.RolePlayer,
		SessionCode:  "GAME42",
		PlayerNumber: 2,
		PlayerName:   "Alice",
		Status:       "active",
		Round:        "double",
		SavedAt:      now.Add(-time.Hour),
	}

	tests := []struct {
		name   string
		mutate func(*Snapshot)
		want   Decision
	}{
		{"recent active session prompts", func(s *Snapshot) {}, PromptResume},
		{"host snapshot prompts without player number", func(s *Snapshot) {
			s.Role = protocol.RoleHost
			s.PlayerNumber = 0
		}, PromptResume},
		{"missing session code starts fresh", func(s *Snapshot) { s.SessionCode = "" }, StartFresh},
		{"unknown role starts fresh", func(s *Snapshot) { s.Role = "referee" }, StartFresh},
		{"player without number starts fresh", func(s *Snapshot) { s.PlayerNumber = 0 }, StartFresh},
		{"stale snapshot starts fresh", func(s *Snapshot) { s.SavedAt = now.Add(-24 * time.Hour) }, StartFresh},
		{"zero saved-at starts fresh", func(s *Snapshot) { s.SavedAt = time.Time{} }, StartFresh},
		{"completed game starts fresh", func(s *Snapshot) { s.Status = "completed" }, StartFresh},
		{"abandoned game starts fresh", func(s *Snapshot) { s.Status = "abandoned" }, StartFresh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := fresh
			tt.mutate(&snap)
			require.Equal(t, tt.want, snap.Evaluate(now, DefaultSnapshotMaxAge))
		})
	}
}

func TestNewSnapshotFromEstablished(t *testing.T) {
	now := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	ev := protocol.ConnectionEstablishedEvent{
		Type:         protocol.EventConnectionEstablished,
		Role:         protocol.RolePlayer,
		PlayerNumber: 2,
		Snapshot: protocol.Snapshot{
			SessionCode: "GAME42",
			Status:      "active",
			Round:       "final",
			Final:       &protocol.FinalState{Stage: "wagering"},
		},
	}

	snap := NewSnapshot(ev, "Alice", now)
	require.Equal(t, "GAME42", snap.SessionCode)
	require.Equal(t, 2, snap.PlayerNumber)
	require.Equal(t, "final", snap.Round)
	require.Equal(t, "wagering", snap.FinalStage)
	require.Equal(t, PromptResume, snap.Evaluate(now, 0))
}
