package live

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/stagelight/podium/internal/content"
	"github.com/stagelight/podium/internal/game"
)

func TestRegistryFetchesContentOnce(t *testing.T) {
	source := newFakeContent()
	r := NewRegistry(source, game.DefaultRules(), 0, clockwork.NewRealClock(), zerolog.Nop())
	defer r.Close()

	first, err := r.Hub(context.Background(), testCode)
	require.NoError(t, err)
	second, err := r.Hub(context.Background(), testCode)
	require.NoError(t, err)

	require.Same(t, first, second)
	require.Equal(t, 1, source.fetchCount())
}

func TestRegistryUnknownCode(t *testing.T) {
	r := NewRegistry(newFakeContent(), game.DefaultRules(), 0, clockwork.NewRealClock(), zerolog.Nop())
	defer r.Close()

	_, err := r.Hub(context.Background(), "NOPE")
	require.ErrorIs(t, err, content.ErrNotFound)
}

func TestRegistryReplacesStoppedHub(t *testing.T) {
	source := newFakeContent()
	r := NewRegistry(source, game.DefaultRules(), 0, clockwork.NewRealClock(), zerolog.Nop())
	defer r.Close()

	first, err := r.Hub(context.Background(), testCode)
	require.NoError(t, err)
	first.Stop()
	<-first.stopped

	second, err := r.Hub(context.Background(), testCode)
	require.NoError(t, err)
	require.NotSame(t, first, second)
	require.Equal(t, 2, source.fetchCount())
}

func TestReaperStopsIdleHubs(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewRegistry(newFakeContent(), game.DefaultRules(), time.Minute, clock, zerolog.Nop())
	defer r.Close()

	h, err := r.Hub(context.Background(), testCode)
	require.NoError(t, err)

	// Wait for the reaper ticker to be armed before moving time.
	clock.BlockUntil(1)
	clock.Advance(2 * time.Minute)

	require.Eventually(t, h.Stopped, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return r.lookup(testCode) == nil }, 2*time.Second, 10*time.Millisecond)
}
