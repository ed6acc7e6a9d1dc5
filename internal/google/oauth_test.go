package google

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
)

func TestFileTokenStoreRoundTrip(t *testing.T) {
	store := FileTokenStore{Path: filepath.Join(t.TempDir(), "nested", "token.json")}
	expiry := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: expiry}))

	info, err := os.Stat(store.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	tok, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "a", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken)
	assert.True(t, expiry.Equal(tok.Expiry))
}

func TestFileTokenStoreSaveReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	store := FileTokenStore{Path: filepath.Join(dir, "token.json")}

	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "old-access-token-that-is-much-longer", RefreshToken: "old"}))
	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "new", RefreshToken: "r2"}))

	tok, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "new", tok.AccessToken)
	assert.Equal(t, "r2", tok.RefreshToken)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files should be left next to the token")
	assert.Equal(t, "token.json", entries[0].Name())

	info, err := os.Stat(store.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileTokenStoreSaveFailureLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	// A non-empty directory at the token path makes the final rename fail.
	path := filepath.Join(dir, "token.json")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "occupied"), 0700))

	err := FileTokenStore{Path: path}.Save(&oauth2.Token{AccessToken: "a"})
	assert.ErrorContains(t, err, "failed to replace token file")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "token.json", entries[0].Name())
}

func TestFileTokenStoreMissingFile(t *testing.T) {
	store := FileTokenStore{Path: filepath.Join(t.TempDir(), "token.json")}

	tok, err := store.Load()
	assert.NoError(t, err)
	assert.Nil(t, tok)
}

func TestFileTokenStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := FileTokenStore{Path: path}.Load()
	assert.ErrorContains(t, err, "failed to decode token")
}

func TestLoadOAuthConfigFromEnvValues(t *testing.T) {
	cfg, err := LoadOAuthConfig("id", "secret", filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, "id", cfg.ClientID)
	assert.Equal(t, []string{calendar.CalendarScope}, cfg.Scopes)
}

func TestLoadOAuthConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	secret := `{"installed":{"client_id":"file-id","client_secret":"file-secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`
	require.NoError(t, os.WriteFile(path, []byte(secret), 0600))

	cfg, err := LoadOAuthConfig("", "", path)
	require.NoError(t, err)
	assert.Equal(t, "file-id", cfg.ClientID)
	assert.Equal(t, "https://oauth2.googleapis.com/token", cfg.Endpoint.TokenURL)
	assert.Equal(t, []string{"https://www.googleapis.com/auth/calendar"}, cfg.Scopes)
}

func TestLoadOAuthConfigMissing(t *testing.T) {
	_, err := LoadOAuthConfig("", "", filepath.Join(t.TempDir(), "credentials.json"))
	assert.ErrorIs(t, err, ErrNoClientSecret)
}

func TestLocalServerFlow(t *testing.T) {
	tokenSrv, exchanges := newTokenServer(t, http.StatusOK)
	cfg := testOAuthConfig(tokenSrv.URL)
	var out bytes.Buffer

	flow := &LocalServerFlow{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Out:    &out,
		OpenBrowser: func(authURL string) error {
			u, err := url.Parse(authURL)
			if err != nil {
				return err
			}
			q := u.Query()
			assert.Equal(t, "offline", q.Get("access_type"))
			redirect := q.Get("redirect_uri") + "?code=the-code&state=" + url.QueryEscape(q.Get("state"))

			// A stray request with the wrong state must be ignored.
			bad, err := http.Get(q.Get("redirect_uri") + "?code=x&state=forged")
			if err != nil {
				return err
			}
			_ = bad.Body.Close()

			resp, err := http.Get(redirect)
			if err != nil {
				return err
			}
			return resp.Body.Close()
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tok, err := flow.Run(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, "refreshed", tok.AccessToken)
	assert.Equal(t, int32(1), exchanges.Load())
	assert.Contains(t, out.String(), "https://accounts.example.com/auth?")
	assert.Empty(t, cfg.RedirectURL, "caller config must not be mutated")
}

func TestLocalServerFlowDenied(t *testing.T) {
	cfg := testOAuthConfig("http://127.0.0.1:1/token")
	flow := &LocalServerFlow{
		OpenBrowser: func(authURL string) error {
			u, _ := url.Parse(authURL)
			q := u.Query()
			resp, err := http.Get(q.Get("redirect_uri") + "?error=access_denied&state=" + url.QueryEscape(q.Get("state")))
			if err != nil {
				return err
			}
			return resp.Body.Close()
		},
	}

	_, err := flow.Run(context.Background(), cfg)
	assert.ErrorContains(t, err, "authorization denied: access_denied")
}

func TestLocalServerFlowCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&LocalServerFlow{}).Run(ctx, testOAuthConfig("http://127.0.0.1:1/token"))
	assert.ErrorIs(t, err, context.Canceled)
}
