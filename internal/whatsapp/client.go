package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/FRI2020/talk-trace/internal/config"
)

const sendTimeout = 10 * time.Second

// Client issues outbound calls against the Graph API.
type Client struct {
	BaseURL       string
	accessToken   string
	graphVersion  string
	phoneNumberID string
	httpClient    *http.Client
}

func NewClient(cfg config.WhatsAppConfig) *Client {
	return &Client{
		BaseURL:       "https://graph.facebook.com",
		accessToken:   cfg.AccessToken,
		graphVersion:  cfg.GraphVersion,
		phoneNumberID: cfg.PhoneNumberID,
		httpClient:    &http.Client{Timeout: sendTimeout},
	}
}

// PhoneNumberID returns the business number id used as the system's own
// party id in chat history.
func (c *Client) PhoneNumberID() string {
	return c.phoneNumberID
}

// SendText posts a text message to the recipient. No retry; a timeout or
// non-2xx response is returned as an error.
func (c *Client) SendText(ctx context.Context, to, text string) error {
	payload := SendMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             SendText{PreviewURL: false, Body: text},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.BaseURL, c.graphVersion, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("send message returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// DownloadMedia resolves a media id to its signed URL and fetches the raw
// bytes. Both calls carry the bearer token.
func (c *Client) DownloadMedia(ctx context.Context, mediaID string) ([]byte, error) {
	metaURL := fmt.Sprintf("%s/%s/%s", c.BaseURL, c.graphVersion, mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create media request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media url lookup returned %d", resp.StatusCode)
	}

	var meta struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode media metadata: %w", err)
	}
	if meta.URL == "" {
		return nil, fmt.Errorf("no download url for media %s", mediaID)
	}

	dlReq, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	dlReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	dlResp, err := c.httpClient.Do(dlReq)
	if err != nil {
		return nil, fmt.Errorf("failed to download media: %w", err)
	}
	defer dlResp.Body.Close()

	if dlResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media download returned %d", dlResp.StatusCode)
	}

	return io.ReadAll(dlResp.Body)
}

var (
	bracketPattern = regexp.MustCompile(`【.*?】`)
	boldPattern    = regexp.MustCompile(`\*\*(.*?)\*\*`)
)

// FormatText rewrites LLM output into WhatsApp-style text: citation
// brackets are stripped and markdown double-asterisk bold becomes single
// asterisks.
func FormatText(text string) string {
	text = strings.TrimSpace(bracketPattern.ReplaceAllString(text, ""))
	return boldPattern.ReplaceAllString(text, "*$1*")
}
