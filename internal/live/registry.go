package live

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/stagelight/podium/internal/game"
)

// ContentSource resolves a session code to its immutable episode content.
// It is consumed exactly once per hub, at creation.
type ContentSource interface {
	EpisodeForGame(ctx context.Context, code string) (*game.Episode, error)
}

// Registry owns the map from session code to hub. Hubs are created on the
// first connection to a code and torn down when they go terminal with no
// connections left, or when the reaper finds them idle past the timeout.
type Registry struct {
	content ContentSource
	clock   clockwork.Clock
	rules   game.Rules
	idle    time.Duration
	log     zerolog.Logger

	mu   sync.Mutex
	hubs map[string]*Hub

	// fetch collapses concurrent first connects to one content fetch.
	fetch singleflight.Group

	quit      chan struct{}
	closeOnce sync.Once
}

func NewRegistry(content ContentSource, rules game.Rules, idle time.Duration, clock clockwork.Clock, logger zerolog.Logger) *Registry {
	r := &Registry{
		content: content,
		clock:   clock,
		rules:   rules,
		idle:    idle,
		log:     logger,
		hubs:    make(map[string]*Hub),
		quit:    make(chan struct{}),
	}
	if idle > 0 {
		go r.reaperLoop()
	}
	return r
}

// Hub returns the running hub for a code, creating it on first use. The
// content fetch behind a new hub happens once even under concurrent
// connects.
func (r *Registry) Hub(ctx context.Context, code string) (*Hub, error) {
	if h := r.lookup(code); h != nil {
		return h, nil
	}
	v, err, _ := r.fetch.Do(code, func() (any, error) {
		if h := r.lookup(code); h != nil {
			return h, nil
		}
		episode, err := r.content.EpisodeForGame(ctx, code)
		if err != nil {
			return nil, err
		}
		h := newHub(code, episode, r.rules, r.clock, r.log, nil)
		h.onExit = func() { r.removeHub(code, h) }
		r.mu.Lock()
		r.hubs[code] = h
		r.mu.Unlock()
		go h.run()
		r.log.Info().Str("session", code).Str("episode", episode.ID).Msg("session hub created")
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Hub), nil
}

func (r *Registry) lookup(code string) *Hub {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.hubs[code]; ok && !h.Stopped() {
		return h
	}
	return nil
}

// removeHub drops a hub from the map, but only the exact instance that
// exited; a replacement created in the meantime stays.
func (r *Registry) removeHub(code string, h *Hub) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.hubs[code]; ok && cur == h {
		delete(r.hubs, code)
	}
}

// Close stops the reaper and every hub. Used at server shutdown.
func (r *Registry) Close() {
	r.closeOnce.Do(func() { close(r.quit) })
	r.mu.Lock()
	hubs := make([]*Hub, 0, len(r.hubs))
	for _, h := range r.hubs {
		hubs = append(hubs, h)
	}
	r.mu.Unlock()
	for _, h := range hubs {
		h.Stop()
	}
}

// reaperLoop stops hubs that have seen no traffic for the idle timeout.
// The hub's own exit path removes it from the map.
func (r *Registry) reaperLoop() {
	ticker := r.clock.NewTicker(r.idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-r.quit:
			return
		case <-ticker.Chan():
			cutoff := r.clock.Now().Add(-r.idle)
			r.mu.Lock()
			stale := make([]*Hub, 0)
			for _, h := range r.hubs {
				if h.IdleSince().Before(cutoff) {
					stale = append(stale, h)
				}
			}
			r.mu.Unlock()
			for _, h := range stale {
				r.log.Info().Str("session", h.code).Msg("reaping idle session")
				h.Stop()
			}
		}
	}
}
