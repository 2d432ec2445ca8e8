package msgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/christopherklint97/stempel/internal/ai"
)

const (
	graphBaseURL = "https://graph.microsoft.com/v1.0"
	pageSize     = 50
	maxRetries   = 3
)

// TokenSource yields a valid bearer token.
type TokenSource interface {
	EnsureValidToken(ctx context.Context) (string, error)
}

// Client is a Microsoft Graph API client for reading the inbox.
type Client struct {
	auth       TokenSource
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	backoff    func(attempt int) time.Duration
}

func NewClient(auth TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		auth:    auth,
		baseURL: graphBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:  logger,
		backoff: backoff,
	}
}

type messagesResponse struct {
	Value    []graphMessage `json:"value"`
	NextLink string         `json:"@odata.nextLink"`
}

type graphMessage struct {
	ID               string `json:"id"`
	Subject          string `json:"subject"`
	BodyPreview      string `json:"bodyPreview"`
	ReceivedDateTime string `json:"receivedDateTime"`
	From             struct {
		EmailAddress struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"from"`
	Body struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
}

// FetchUnread returns unread inbox messages received at or after since,
// newest first, with plain-text bodies.
func (c *Client) FetchUnread(ctx context.Context, since time.Time) ([]ai.Mail, error) {
	token, err := c.auth.EnsureValidToken(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"$filter":  {fmt.Sprintf("isRead eq false and receivedDateTime ge %s", since.UTC().Format(time.RFC3339))},
		"$select":  {"id,subject,from,receivedDateTime,bodyPreview,body"},
		"$orderby": {"receivedDateTime desc"},
		"$top":     {fmt.Sprint(pageSize)},
	}

	requestURL := c.baseURL + "/me/mailFolders/inbox/messages?" + params.Encode()
	var all []ai.Mail
	for requestURL != "" {
		mails, nextLink, err := c.fetchPage(ctx, token, requestURL)
		if err != nil {
			return nil, err
		}
		all = append(all, mails...)
		requestURL = nextLink
	}

	c.logger.Debug("graph unread messages fetched", "count", len(all))
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, token, requestURL string) ([]ai.Mail, string, error) {
	body, err := c.get(ctx, token, requestURL)
	if err != nil {
		return nil, "", err
	}

	var page messagesResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", fmt.Errorf("parsing graph response: %w", err)
	}

	mails := make([]ai.Mail, 0, len(page.Value))
	for _, m := range page.Value {
		mails = append(mails, toMail(m))
	}
	return mails, page.NextLink, nil
}

func toMail(m graphMessage) ai.Mail {
	from := m.From.EmailAddress.Address
	if name := m.From.EmailAddress.Name; name != "" && name != from {
		from = fmt.Sprintf("%s <%s>", name, from)
	}
	text := m.Body.Content
	if text == "" || !strings.EqualFold(m.Body.ContentType, "text") {
		text = m.BodyPreview
	}
	received, _ := time.Parse(time.RFC3339, m.ReceivedDateTime)
	return ai.Mail{
		ID:         m.ID,
		From:       from,
		Subject:    m.Subject,
		Body:       text,
		ReceivedAt: received,
	}
}

// get retries transport errors, 429 and 5xx, rebuilding the request each time.
func (c *Client) get(ctx context.Context, token, requestURL string) ([]byte, error) {
	var (
		resp *http.Response
		err  error
	)
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if reqErr != nil {
			return nil, fmt.Errorf("creating graph request: %w", reqErr)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Prefer", `outlook.body-content-type="text"`)

		resp, err = c.httpClient.Do(req)
		if err != nil {
			c.logger.Debug("graph API transport error", "attempt", attempt+1, "error", err)
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			c.logger.Debug("graph API retrying", "status", resp.StatusCode, "attempt", attempt+1)
			err = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
			continue
		}
		break
	}
	if resp == nil {
		return nil, fmt.Errorf("graph API request failed after %d retries: %w", maxRetries, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading graph response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("graph API error (status %d): %s", resp.StatusCode, truncateStr(string(body), 200))
	}
	return body, nil
}

func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
