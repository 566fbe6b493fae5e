// Package content talks to the external service that owns game records and
// episode material. A session needs exactly one game lookup and one episode
// fetch at creation time; there is no caching or retrying here.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stagelight/podium/internal/game"
)

// ErrNotFound reports a game code or episode id the service does not know.
var ErrNotFound = errors.New("content: not found")

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("content service returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", endpoint, err)
	}
	return nil
}

// gameRecord is the service's game row: a session code bound to an episode.
type gameRecord struct {
	Code      string `json:"code"`
	EpisodeID string `json:"episode_id"`
}

type episodeRecord struct {
	ID     string           `json:"id"`
	Title  string           `json:"title"`
	Single []categoryRecord `json:"single"`
	Double []categoryRecord `json:"double"`
	Final  *finalRecord     `json:"final"`
}

type categoryRecord struct {
	Name  string       `json:"name"`
	Clues []clueRecord `json:"clues"`
}

type clueRecord struct {
	ID          string `json:"id"`
	Row         int    `json:"row"`
	Prompt      string `json:"prompt"`
	Response    string `json:"response"`
	DailyDouble bool   `json:"daily_double"`
}

type finalRecord struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// FetchGame resolves a session code to its episode id.
func (c *Client) FetchGame(ctx context.Context, code string) (string, error) {
	var rec gameRecord
	if err := c.get(ctx, "/games/"+code, &rec); err != nil {
		return "", err
	}
	if rec.EpisodeID == "" {
		return "", fmt.Errorf("game %s has no episode", code)
	}
	return rec.EpisodeID, nil
}

// FetchEpisode loads one episode's boards and Final Jeopardy clue. Face
// values are derived from board position, not trusted from the service.
func (c *Client) FetchEpisode(ctx context.Context, id string) (*game.Episode, error) {
	var rec episodeRecord
	if err := c.get(ctx, "/episodes/"+id, &rec); err != nil {
		return nil, err
	}

	ep := &game.Episode{ID: rec.ID, Title: rec.Title}
	var err error
	if ep.Single, err = buildBoard(game.RoundSingle, rec.Single); err != nil {
		return nil, fmt.Errorf("episode %s: %w", id, err)
	}
	if ep.Double, err = buildBoard(game.RoundDouble, rec.Double); err != nil {
		return nil, fmt.Errorf("episode %s: %w", id, err)
	}
	if rec.Final == nil {
		return nil, fmt.Errorf("episode %s: missing final jeopardy clue", id)
	}
	ep.FinalCategory = rec.Final.Category
	ep.Final = game.NewFinalClue(rec.Final.ID, rec.Final.Category, rec.Final.Prompt, rec.Final.Response)
	return ep, nil
}

// EpisodeForGame chains the two lookups a new session needs.
func (c *Client) EpisodeForGame(ctx context.Context, code string) (*game.Episode, error) {
	episodeID, err := c.FetchGame(ctx, code)
	if err != nil {
		return nil, err
	}
	return c.FetchEpisode(ctx, episodeID)
}

func buildBoard(round game.Round, cats []categoryRecord) ([]game.Category, error) {
	if len(cats) == 0 {
		return nil, fmt.Errorf("%s round has no categories", round)
	}
	board := make([]game.Category, 0, len(cats))
	for _, cr := range cats {
		cat := game.Category{Name: cr.Name}
		for _, cl := range cr.Clues {
			if cl.ID == "" {
				return nil, fmt.Errorf("category %q has a clue without an id", cr.Name)
			}
			if cl.Row < 1 || cl.Row > game.BoardRows {
				return nil, fmt.Errorf("clue %s has row %d outside 1..%d", cl.ID, cl.Row, game.BoardRows)
			}
			cat.Clues = append(cat.Clues, game.NewClue(cl.ID, round, cr.Name, cl.Row, cl.Prompt, cl.Response, cl.DailyDouble))
		}
		board = append(board, cat)
	}
	return board, nil
}
