package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/stagelight/podium/internal/content"
	"github.com/stagelight/podium/internal/game"
)

const testCode = "GAME42"

// testEpisode builds a small two-category board per round, with a Daily
// Double at s1-3, plus the Final Jeopardy clue.
func testEpisode() *game.Episode {
	ep := &game.Episode{
		ID:            "ep-7",
		Title:         "Show #7",
		FinalCategory: "WORLD RIVERS",
	}
	ep.Final = game.NewFinalClue("fj", ep.FinalCategory, "Longest river in Europe", "What is the Volga?")
	for i, name := range []string{"HISTORY", "GEOGRAPHY"} {
		cat := game.Category{Name: name}
		for row := 1; row <= game.BoardRows; row++ {
			id := fmt.Sprintf("s%d-%d", i+1, row)
			cat.Clues = append(cat.Clues, game.NewClue(id, game.RoundSingle, name, row,
				"prompt "+id, "response "+id, id == "s1-3"))
		}
		ep.Single = append(ep.Single, cat)
	}
	for i, name := range []string{"LITERATURE", "CHEMISTRY"} {
		cat := game.Category{Name: name}
		for row := 1; row <= game.BoardRows; row++ {
			id := fmt.Sprintf("d%d-%d", i+1, row)
			cat.Clues = append(cat.Clues, game.NewClue(id, game.RoundDouble, name, row,
				"prompt "+id, "response "+id, false))
		}
		ep.Double = append(ep.Double, cat)
	}
	return ep
}

// fakeContent serves episodes from memory and counts fetches.
type fakeContent struct {
	mu       sync.Mutex
	calls    int
	episodes map[string]*game.Episode
}

func newFakeContent() *fakeContent {
	return &fakeContent{episodes: map[string]*game.Episode{testCode: testEpisode()}}
}

func (f *fakeContent) EpisodeForGame(_ context.Context, code string) (*game.Episode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	ep, ok := f.episodes[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", content.ErrNotFound, code)
	}
	return ep, nil
}

func (f *fakeContent) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type testServer struct {
	srv      *httptest.Server
	registry *Registry
	clock    clockwork.Clock
	source   *fakeContent
}

func newTestServer(t *testing.T, clock clockwork.Clock) *testServer {
	t.Helper()
	source := newFakeContent()
	registry := NewRegistry(source, game.DefaultRules(), 0, clock, zerolog.Nop())
	mux := httprouter.New()
	mux.GET("/live/:code/ws", registry.ServeWS())
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		registry.Close()
		srv.Close()
	})
	return &testServer{srv: srv, registry: registry, clock: clock, source: source}
}

func (ts *testServer) dial(t *testing.T, code, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/live/" + code + "/ws?" + query
	ws, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

// readFrame reads the next server frame as a loose map.
func readFrame(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := ws.ReadMessage()
	require.NoError(t, err)
	var frame map[string]any
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

// expectEvent reads frames until one of the wanted type arrives, skipping
// unrelated broadcasts such as liveness events.
func expectEvent(t *testing.T, ws *websocket.Conn, eventType string) map[string]any {
	t.Helper()
	for i := 0; i < 20; i++ {
		frame := readFrame(t, ws)
		if frame["type"] == eventType {
			return frame
		}
	}
	t.Fatalf("no %s event within 20 frames", eventType)
	return nil
}

func sendIntent(t *testing.T, ws *websocket.Conn, intent map[string]any) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(intent))
}
