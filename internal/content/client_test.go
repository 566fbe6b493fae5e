package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stagelight/podium/internal/game"
)

const episodeJSON = `{
	"id": "ep-9",
	"title": "Show #9",
	"single": [
		{"name": "HISTORY", "clues": [
			{"id": "s1-1", "row": 1, "prompt": "p1", "response": "r1"},
			{"id": "s1-2", "row": 2, "prompt": "p2", "response": "r2", "daily_double": true}
		]}
	],
	"double": [
		{"name": "OPERA", "clues": [
			{"id": "d1-3", "row": 3, "prompt": "p3", "response": "r3"}
		]}
	],
	"final": {"id": "fj", "category": "FLAGS", "prompt": "fp", "response": "fr"}
}`

func testService(t *testing.T) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/games/GAME42", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code": "GAME42", "episode_id": "ep-9"}`))
	})
	mux.HandleFunc("/episodes/ep-9", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(episodeJSON))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestEpisodeForGame(t *testing.T) {
	c := testService(t)

	ep, err := c.EpisodeForGame(context.Background(), "GAME42")
	require.NoError(t, err)
	require.Equal(t, "ep-9", ep.ID)

	require.Len(t, ep.Single, 1)
	clues := ep.Single[0].Clues
	require.Len(t, clues, 2)

	// Face values derive from board position, never from the service.
	require.Equal(t, 200, clues[0].Value)
	require.Equal(t, 400, clues[1].Value)
	require.True(t, clues[1].DailyDouble)

	require.Equal(t, 1200, ep.Double[0].Clues[0].Value)
	require.Equal(t, game.RoundDouble, ep.Double[0].Clues[0].Round)

	require.Equal(t, "FLAGS", ep.FinalCategory)
	require.NotNil(t, ep.Final)
	require.Zero(t, ep.Final.Value)
}

func TestFetchGameNotFound(t *testing.T) {
	c := testService(t)

	_, err := c.FetchGame(context.Background(), "MISSING")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFetchEpisodeRejectsBadRows(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/episodes/bad", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": "bad",
			"single": [{"name": "X", "clues": [{"id": "c1", "row": 9, "prompt": "p", "response": "r"}]}],
			"double": [{"name": "Y", "clues": [{"id": "c2", "row": 1, "prompt": "p", "response": "r"}]}],
			"final": {"id": "fj", "category": "Z", "prompt": "p", "response": "r"}
		}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL).FetchEpisode(context.Background(), "bad")
	require.ErrorContains(t, err, "row 9")
}
