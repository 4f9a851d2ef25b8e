package zulip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxNameLength is the longest stream or topic name the server accepts.
const MaxNameLength = 60

// Client posts stream messages through the Zulip REST API.
type Client struct {
	site       string
	email      string
	apiKey     string
	userAgent  string
	httpClient *http.Client
}

// Message is one stream message. The server attributes it to the
// authenticated bot, so Sender may only repeat that identity.
type Message struct {
	Sender  string
	Stream  string
	Topic   string
	Content string
}

// Response is the decoded body of a send request.
type Response struct {
	Result string `json:"result"`
	Msg    string `json:"msg"`
	Code   string `json:"code,omitempty"`
	ID     int64  `json:"id,omitempty"`
}

func (r *Response) Success() bool {
	return r != nil && r.Result == "success"
}

// APIError reports a rejected message together with the server's payload.
type APIError struct {
	StatusCode int
	Response   *Response
	Body       string
}

func (e *APIError) Error() string {
	if e.Response != nil && e.Response.Msg != "" {
		return fmt.Sprintf("zulip API error (status %d, code %s): %s", e.StatusCode, e.Response.Code, e.Response.Msg)
	}
	return fmt.Sprintf("zulip API error (status %d): %s", e.StatusCode, e.Body)
}

func NewClient(site, email, apiKey, userAgent string, timeout time.Duration) *Client {
	return &Client{
		site:      strings.TrimRight(site, "/"),
		email:     email,
		apiKey:    apiKey,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Email is the bot identity messages are sent as.
func (c *Client) Email() string {
	return c.email
}

// Send posts msg and returns the decoded response. A response is returned
// alongside the error whenever the server answered.
func (c *Client) Send(ctx context.Context, msg Message) (*Response, error) {
	if msg.Sender != "" && msg.Sender != c.email {
		return nil, fmt.Errorf("failed to send message: sender %q is not the authenticated bot %q", msg.Sender, c.email)
	}

	form := url.Values{}
	form.Set("type", "stream")
	form.Set("to", Elide(msg.Stream))
	form.Set("topic", Elide(msg.Topic))
	form.Set("content", msg.Content)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.site+"/api/v1/messages", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.email, c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var zulipResp Response
	if err := json.Unmarshal(body, &zulipResp); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if resp.StatusCode != http.StatusOK || !zulipResp.Success() {
		return &zulipResp, &APIError{StatusCode: resp.StatusCode, Response: &zulipResp, Body: string(body)}
	}

	return &zulipResp, nil
}

// Elide shortens names longer than MaxNameLength, marking the cut with "...".
func Elide(name string) string {
	if utf8.RuneCountInString(name) <= MaxNameLength {
		return name
	}
	runes := []rune(name)
	return strings.TrimRight(string(runes[:MaxNameLength-3]), " \t") + "..."
}
