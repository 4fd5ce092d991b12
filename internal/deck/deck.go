// Package deck is a client for the Nextcloud Deck kanban API.
package deck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/impertio/talkbridge/internal/domain"
	"github.com/impertio/talkbridge/internal/logging"
)

// maxCommentChars is the Deck card comment length limit.
const maxCommentChars = 1000

// Board is a Deck board.
type Board struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Stack is a list within a board.
type Stack struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
}

// Card is a task card.
type Card struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StackID     int64  `json:"stackId"`
}

// Client talks to the Deck API with a bot profile's service account.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logging.Logger
}

// NewClient creates a Deck client for the given Nextcloud base URL.
func NewClient(baseURL string, log *logging.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.Sub("deck"),
	}
}

// ListBoards returns the boards visible to the profile's service account.
func (c *Client) ListBoards(ctx context.Context, profile *domain.BotProfile) ([]Board, error) {
	var boards []Board
	err := c.do(ctx, profile, http.MethodGet,
		c.baseURL+"/index.php/apps/deck/api/v1.0/boards", nil, &boards)
	return boards, err
}

// ListStacks returns the stacks of a board.
func (c *Client) ListStacks(ctx context.Context, profile *domain.BotProfile, boardID int64) ([]Stack, error) {
	var stacks []Stack
	err := c.do(ctx, profile, http.MethodGet,
		fmt.Sprintf("%s/index.php/apps/deck/api/v1.0/boards/%d/stacks", c.baseURL, boardID), nil, &stacks)
	return stacks, err
}

// CreateCard creates a card at the bottom of a stack.
func (c *Client) CreateCard(ctx context.Context, profile *domain.BotProfile, boardID, stackID int64, title, description string) (*Card, error) {
	payload := map[string]any{
		"title": title,
		"type":  "plain",
		"order": 999,
	}
	if description != "" {
		payload["description"] = description
	}

	var card Card
	err := c.do(ctx, profile, http.MethodPost,
		fmt.Sprintf("%s/index.php/apps/deck/api/v1.0/boards/%d/stacks/%d/cards", c.baseURL, boardID, stackID),
		payload, &card)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// MoveCardToDone moves a card to the board's done stack, identified by a
// title containing "done", "klaar" or "afgerond".
func (c *Client) MoveCardToDone(ctx context.Context, profile *domain.BotProfile, boardID, stackID, cardID int64) error {
	stacks, err := c.ListStacks(ctx, profile, boardID)
	if err != nil {
		return err
	}

	var done *Stack
	for i, s := range stacks {
		title := strings.ToLower(s.Title)
		if strings.Contains(title, "done") || strings.Contains(title, "klaar") || strings.Contains(title, "afgerond") {
			done = &stacks[i]
			break
		}
	}
	if done == nil {
		return fmt.Errorf("deck: board %d has no done stack", boardID)
	}

	payload := map[string]any{"stackId": done.ID, "order": 0}
	err = c.do(ctx, profile, http.MethodPut,
		fmt.Sprintf("%s/index.php/apps/deck/api/v1.0/boards/%d/stacks/%d/cards/%d/reorder", c.baseURL, boardID, stackID, cardID),
		payload, nil)
	if err != nil {
		return err
	}
	c.log.Info().Int64("cardId", cardID).Str("stack", done.Title).Msg("card moved to done")
	return nil
}

// CommentOnCard posts a comment on a card, truncated to the Deck limit.
func (c *Client) CommentOnCard(ctx context.Context, profile *domain.BotProfile, cardID int64, message string) error {
	if len(message) > maxCommentChars {
		message = message[:maxCommentChars-3] + "..."
	}
	return c.do(ctx, profile, http.MethodPost,
		fmt.Sprintf("%s/ocs/v2.php/apps/deck/api/v1.0/cards/%d/comments", c.baseURL, cardID),
		map[string]any{"message": message}, nil)
}

// do performs one authenticated JSON request against the Deck API.
func (c *Client) do(ctx context.Context, profile *domain.BotProfile, method, url string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(profile.NextcloudUser, profile.NextcloudPassword)
	req.Header.Set("OCS-APIRequest", "true")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("deck: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("deck: %s %s: unexpected status %d", method, url, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("deck: decoding response: %w", err)
		}
	}
	return nil
}
