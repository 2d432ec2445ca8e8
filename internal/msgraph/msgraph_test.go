package msgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) EnsureValidToken(context.Context) (string, error) { return string(s), nil }

func TestFetchUnread_PagesAndMaps(t *testing.T) {
	var calls atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "" {
			assert.Contains(t, r.URL.Query().Get("$filter"), "isRead eq false")
			fmt.Fprintf(w, `{"value":[{"id":"m1","subject":"Offer","receivedDateTime":"2026-03-03T08:00:00Z",
				"from":{"emailAddress":{"name":"Anna","address":"anna@salescrew.at"}},
				"body":{"contentType":"text","content":"Please send the offer"}}],
				"@odata.nextLink":"%s/me/mailFolders/inbox/messages?page=2"}`, srv.URL)
			return
		}
		w.Write([]byte(`{"value":[{"id":"m2","subject":"Hi","bodyPreview":"preview",
			"from":{"emailAddress":{"name":"","address":"x@example.com"}},
			"body":{"contentType":"html","content":"<p>hi</p>"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(staticToken("tok"), nil)
	c.baseURL = srv.URL
	c.backoff = func(int) time.Duration { return 0 }

	mails, err := c.FetchUnread(context.Background(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, mails, 2)

	assert.Equal(t, "m1", mails[0].ID)
	assert.Equal(t, "Anna <anna@salescrew.at>", mails[0].From)
	assert.Equal(t, "Please send the offer", mails[0].Body)
	assert.True(t, mails[0].ReceivedAt.Equal(time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)))

	assert.Equal(t, "x@example.com", mails[1].From)
	assert.Equal(t, "preview", mails[1].Body)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchUnread_ClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":"ErrorAccessDenied"}}`))
	}))
	defer srv.Close()

	c := NewClient(staticToken("tok"), nil)
	c.baseURL = srv.URL

	_, err := c.FetchUnread(context.Background(), time.Now())
	assert.ErrorContains(t, err, "status 403")
}

func TestTokenStore_RoundTrip(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "nested", "tokens.json"))

	tokens, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, tokens)

	want := &TokenData{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second)}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
	assert.False(t, got.IsExpired())
}

func TestEnsureValidToken_Refreshes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.True(t, strings.HasSuffix(r.URL.Path, "/tenant/oauth2/v2.0/token"))
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, defaultScope, r.PostForm.Get("scope"))
		json.NewEncoder(w).Encode(map[string]any{"access_token": "fresh", "expires_in": 3600})
	}))
	defer srv.Close()

	tokens := NewTokenStore(filepath.Join(t.TempDir(), "tokens.json"))
	require.NoError(t, tokens.Save(&TokenData{AccessToken: "stale", RefreshToken: "r1", ExpiresAt: time.Now().Add(-time.Hour)}))

	auth := NewAuth("client", "tenant", tokens, nil)
	auth.loginHost = srv.URL

	tok, err := auth.EnsureValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok)

	cached, err := tokens.Load()
	require.NoError(t, err)
	assert.Equal(t, "fresh", cached.AccessToken)
	assert.Equal(t, "r1", cached.RefreshToken, "refresh token is kept when none is returned")
}

func TestEnsureValidToken_NotAuthenticated(t *testing.T) {
	auth := NewAuth("client", "", NewTokenStore(filepath.Join(t.TempDir(), "none.json")), nil)

	_, err := auth.EnsureValidToken(context.Background())
	assert.ErrorContains(t, err, "stempel auth mail")
}

func TestLogin_DeviceCodeFlow(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch {
		case strings.HasSuffix(r.URL.Path, "/devicecode"):
			assert.Equal(t, defaultScope, r.PostForm.Get("scope"))
			json.NewEncoder(w).Encode(map[string]any{
				"device_code": "dc", "user_code": "ABCD", "verification_uri": "https://microsoft.com/devicelogin",
				"expires_in": 60, "interval": 1,
			})
		case strings.HasSuffix(r.URL.Path, "/token"):
			assert.Equal(t, "dc", r.PostForm.Get("device_code"))
			if polls.Add(1) == 1 {
				json.NewEncoder(w).Encode(map[string]any{"error": "authorization_pending"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"access_token": "a1", "refresh_token": "r1", "expires_in": 3600, "scope": defaultScope})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tokens := NewTokenStore(filepath.Join(t.TempDir(), "tokens.json"))
	auth := NewAuth("client", "", tokens, nil)
	auth.loginHost = srv.URL

	var shown string
	require.NoError(t, auth.Login(context.Background(), func(msg string) { shown = msg }))
	assert.Equal(t, "Open https://microsoft.com/devicelogin and enter code ABCD", shown)
	assert.Equal(t, int32(2), polls.Load())

	cached, err := tokens.Load()
	require.NoError(t, err)
	assert.Equal(t, "a1", cached.AccessToken)
	assert.Equal(t, "r1", cached.RefreshToken)
}

func TestLogin_DeviceCodeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	auth := NewAuth("client", "", NewTokenStore(filepath.Join(t.TempDir(), "tokens.json")), nil)
	auth.loginHost = srv.URL

	err := auth.Login(context.Background(), func(string) { t.Fatal("no prompt expected") })
	assert.ErrorContains(t, err, "status 400")
}
