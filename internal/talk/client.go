package talk

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/impertio/talkbridge/internal/logging"
)

// Client posts bot messages and downloads shared files from Nextcloud.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logging.Logger
}

// NewClient creates a Talk client for the given Nextcloud base URL.
func NewClient(baseURL string, log *logging.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.Sub("talk"),
	}
}

// SendMessage posts a bot message to a conversation. The request is signed
// with the bot secret over a random nonce plus the message text, per the
// Talk bot API. replyTo of 0 means no threading.
func (c *Client) SendMessage(ctx context.Context, secret, token, message string, replyTo int) error {
	nonce := randomHex(32)

	payload := map[string]any{"message": message}
	if replyTo > 0 {
		payload["replyTo"] = replyTo
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/ocs/v2.php/apps/spreed/api/v1/bot/%s/message", c.baseURL, url.PathEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OCS-APIRequest", "true")
	req.Header.Set("X-Nextcloud-Talk-Bot-Random", nonce)
	req.Header.Set("X-Nextcloud-Talk-Bot-Signature", Sign(secret, nonce, []byte(message)))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("send message: unexpected status %d", resp.StatusCode)
	}
	c.log.Debug().Str("token", token).Int("status", resp.StatusCode).Msg("bot message sent")
	return nil
}

// Download fetches a file via WebDAV into destDir using the service
// account's basic-auth credentials and returns the local path. The caller
// removes the file when done.
func (c *Client) Download(ctx context.Context, fileURL, user, password, destDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(user, password)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download: unexpected status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(destDir, "talk-audio-*"+filepath.Ext(fileURL))
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("download: %w", err)
	}
	return tmp.Name(), nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
