package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultGotifyPriority is used when no priority is configured.
const DefaultGotifyPriority = 5

// Gotify pushes messages to a Gotify server's /message endpoint.
type Gotify struct {
	Server   string
	Token    string
	Priority int
	Client   *http.Client
}

// NewGotify returns nil unless both server and token are set.
func NewGotify(server, token string, priority int) *Gotify {
	if server == "" || token == "" {
		return nil
	}
	if priority <= 0 {
		priority = DefaultGotifyPriority
	}
	return &Gotify{
		Server:   strings.TrimRight(server, "/"),
		Token:    token,
		Priority: priority,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type gotifyPayload struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Priority int    `json:"priority"`
}

func (g *Gotify) Send(ctx context.Context, title, text string) error {
	if g == nil || g.Server == "" {
		return errors.New("gotify disabled")
	}
	body, err := json.Marshal(gotifyPayload{Title: title, Message: text, Priority: g.Priority})
	if err != nil {
		return err
	}
	endpoint := g.Server + "/message?token=" + url.QueryEscape(g.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gotify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("gotify send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("gotify non-2xx: %d", resp.StatusCode)
	}
	return nil
}
