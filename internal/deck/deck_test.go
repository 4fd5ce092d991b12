package deck

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/impertio/talkbridge/internal/domain"
	"github.com/impertio/talkbridge/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var profile = &domain.BotProfile{
	Username:          "alice",
	NextcloudUser:     "svc",
	NextcloudPassword: "pw",
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, logging.Silent()), srv
}

func requireAuth(t *testing.T, r *http.Request) {
	t.Helper()
	user, pass, ok := r.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "svc", user)
	assert.Equal(t, "pw", pass)
	assert.Equal(t, "true", r.Header.Get("OCS-APIRequest"))
}

func TestListBoards(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requireAuth(t, r)
		assert.Equal(t, "/index.php/apps/deck/api/v1.0/boards", r.URL.Path)
		json.NewEncoder(w).Encode([]Board{{ID: 1, Title: "Projects"}, {ID: 2, Title: "Home"}})
	})

	boards, err := c.ListBoards(context.Background(), profile)
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Equal(t, "Projects", boards[0].Title)
}

func TestCreateCard(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requireAuth(t, r)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/index.php/apps/deck/api/v1.0/boards/1/stacks/2/cards", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Fix the gutter", payload["title"])
		assert.Equal(t, "plain", payload["type"])
		assert.Equal(t, "Back of the house", payload["description"])

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(Card{ID: 7, Title: "Fix the gutter", StackID: 2})
	})

	card, err := c.CreateCard(context.Background(), profile, 1, 2, "Fix the gutter", "Back of the house")
	require.NoError(t, err)
	assert.Equal(t, int64(7), card.ID)
}

func TestMoveCardToDone(t *testing.T) {
	var moved map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requireAuth(t, r)
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/boards/1/stacks"):
			json.NewEncoder(w).Encode([]Stack{
				{ID: 10, Title: "To do"},
				{ID: 11, Title: "In progress"},
				{ID: 12, Title: "Klaar"},
			})
		case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/boards/1/stacks/10/cards/7/reorder"):
			require.NoError(t, json.NewDecoder(r.Body).Decode(&moved))
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	require.NoError(t, c.MoveCardToDone(context.Background(), profile, 1, 10, 7))
	assert.Equal(t, float64(12), moved["stackId"])
}

func TestMoveCardToDoneWithoutDoneStack(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Stack{{ID: 10, Title: "To do"}})
	})

	err := c.MoveCardToDone(context.Background(), profile, 1, 10, 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no done stack")
}

func TestCommentOnCardTruncates(t *testing.T) {
	var got string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requireAuth(t, r)
		assert.Equal(t, "/ocs/v2.php/apps/deck/api/v1.0/cards/7/comments", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(body, &payload))
		got = payload["message"]
		w.WriteHeader(http.StatusCreated)
	})

	long := strings.Repeat("x", 1500)
	require.NoError(t, c.CommentOnCard(context.Background(), profile, 7, long))
	assert.Len(t, got, maxCommentChars)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestErrorStatusSurfaced(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.ListBoards(context.Background(), profile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
