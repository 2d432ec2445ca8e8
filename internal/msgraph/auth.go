package msgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultScope     = "Mail.Read offline_access"
	defaultTenant    = "common"
	defaultLoginHost = "https://login.microsoftonline.com"
)

// Auth runs the OAuth2 device code flow against Microsoft identity and keeps
// the mailbox token fresh.
type Auth struct {
	clientID   string
	tenantID   string
	loginHost  string
	tokens     *TokenStore
	httpClient *http.Client
	logger     *slog.Logger
}

// NewAuth creates an Auth for the given Azure AD app, caching tokens in tokens.
// An empty tenantID means "common".
func NewAuth(clientID, tenantID string, tokens *TokenStore, logger *slog.Logger) *Auth {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if tenantID == "" {
		tenantID = defaultTenant
	}
	return &Auth{
		clientID:  clientID,
		tenantID:  tenantID,
		loginHost: defaultLoginHost,
		tokens:    tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// DeviceCodeResponse is what the user needs to approve the login.
type DeviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
	Message         string `json:"message"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

func (a *Auth) endpoint(name string) string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/%s", a.loginHost, a.tenantID, name)
}

// postForm posts form to the named OAuth endpoint and returns status and body.
func (a *Auth) postForm(ctx context.Context, name string, form url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(name), strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, fmt.Errorf("creating %s request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("calling %s endpoint: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading %s response: %w", name, err)
	}
	return resp.StatusCode, body, nil
}

// requestToken posts a token grant. OAuth errors come back in the body, so
// the status code is not inspected.
func (a *Auth) requestToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	_, body, err := a.postForm(ctx, "token", form)
	if err != nil {
		return nil, err
	}
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}
	return &tr, nil
}

func (tr *tokenResponse) tokenData() *TokenData {
	return &TokenData{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
		Scope:        tr.Scope,
	}
}

// StartDeviceCodeFlow asks for a user code to show to the user.
func (a *Auth) StartDeviceCodeFlow(ctx context.Context) (*DeviceCodeResponse, error) {
	status, body, err := a.postForm(ctx, "devicecode", url.Values{
		"client_id": {a.clientID},
		"scope":     {defaultScope},
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("device code request failed (status %d): %s", status, truncateStr(string(body), 200))
	}

	var dc DeviceCodeResponse
	if err := json.Unmarshal(body, &dc); err != nil {
		return nil, fmt.Errorf("parsing device code response: %w", err)
	}
	return &dc, nil
}

// PollForToken polls until the user has approved the device code.
func (a *Auth) PollForToken(ctx context.Context, deviceCode string, interval int) (*TokenData, error) {
	if interval < 1 {
		interval = 5
	}
	form := url.Values{
		"client_id":   {a.clientID},
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
		"device_code": {deviceCode},
	}

	for {
		if err := sleep(ctx, time.Duration(interval)*time.Second); err != nil {
			return nil, err
		}

		tr, err := a.requestToken(ctx, form)
		if err != nil {
			return nil, err
		}
		switch tr.Error {
		case "":
			return tr.tokenData(), nil
		case "authorization_pending":
			a.logger.Debug("waiting for mail authorization")
		case "slow_down":
			interval += 5
			a.logger.Debug("graph asked to poll slower", "interval", interval)
		case "expired_token":
			return nil, fmt.Errorf("device code expired, run 'stempel auth mail' again")
		default:
			return nil, fmt.Errorf("token error: %s: %s", tr.Error, tr.ErrorDesc)
		}
	}
}

// RefreshAccessToken trades a refresh token for a new access token.
func (a *Auth) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenData, error) {
	tr, err := a.requestToken(ctx, url.Values{
		"client_id":     {a.clientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"scope":         {defaultScope},
	})
	if err != nil {
		return nil, err
	}
	if tr.Error != "" {
		return nil, fmt.Errorf("refresh failed: %s: %s", tr.Error, tr.ErrorDesc)
	}
	return tr.tokenData(), nil
}

// EnsureValidToken loads cached tokens, auto-refreshes if expired, and returns a valid access token.
// Returns an error telling the user to run `stempel auth mail` if no tokens are cached.
func (a *Auth) EnsureValidToken(ctx context.Context) (string, error) {
	tokens, err := a.tokens.Load()
	if err != nil {
		return "", fmt.Errorf("loading cached tokens: %w", err)
	}
	if tokens == nil {
		return "", fmt.Errorf("not authenticated with Microsoft Graph, run 'stempel auth mail' first")
	}

	if !tokens.IsExpired() {
		return tokens.AccessToken, nil
	}

	a.logger.Debug("access token expired, refreshing")
	newTokens, err := a.RefreshAccessToken(ctx, tokens.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("token refresh failed (run 'stempel auth mail' to re-authenticate): %w", err)
	}

	if newTokens.RefreshToken == "" {
		newTokens.RefreshToken = tokens.RefreshToken
	}
	if err := a.tokens.Save(newTokens); err != nil {
		a.logger.Warn("failed to cache refreshed tokens", "error", err)
	}

	return newTokens.AccessToken, nil
}

// Login runs the device code flow end to end, printing the user instructions
// through prompt, and caches the resulting tokens.
func (a *Auth) Login(ctx context.Context, prompt func(msg string)) error {
	dc, err := a.StartDeviceCodeFlow(ctx)
	if err != nil {
		return err
	}
	msg := dc.Message
	if msg == "" {
		msg = fmt.Sprintf("Open %s and enter code %s", dc.VerificationURI, dc.UserCode)
	}
	prompt(msg)

	if dc.ExpiresIn > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(dc.ExpiresIn)*time.Second)
		defer cancel()
	}
	tokens, err := a.PollForToken(ctx, dc.DeviceCode, dc.Interval)
	if err != nil {
		return err
	}
	if err := a.tokens.Save(tokens); err != nil {
		return fmt.Errorf("caching tokens: %w", err)
	}
	a.logger.Info("authenticated with Microsoft Graph", "scope", tokens.Scope)
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
