package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOAuthClient() *OAuthClientConfig {
	return &OAuthClientConfig{
		Installed: OAuthInstalled{
			ClientID:                "test-client-id.apps.googleusercontent.com",
			ProjectID:               "test-project",
			AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
			TokenURI:                "https://oauth2.googleapis.com/token",
			AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
			ClientSecret:            "test-secret",
			RedirectURIs:            []string{"http://localhost"},
		},
	}
}

func TestValidateOAuthClient(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *OAuthClientConfig)
		wantErr bool
	}{
		{"valid", func(cfg *OAuthClientConfig) {}, false},
		{"missing client id", func(cfg *OAuthClientConfig) { cfg.Installed.ClientID = "" }, true},
		{"invalid auth url", func(cfg *OAuthClientConfig) { cfg.Installed.AuthURI = "not-a-valid-url" }, true},
		{"empty redirect uris", func(cfg *OAuthClientConfig) { cfg.Installed.RedirectURIs = []string{} }, true},
		{"invalid redirect uri", func(cfg *OAuthClientConfig) { cfg.Installed.RedirectURIs = []string{"not a valid uri"} }, true},
		{"no loopback redirect", func(cfg *OAuthClientConfig) { cfg.Installed.RedirectURIs = []string{"https://ward.example.org/callback"} }, true},
		{"loopback among others", func(cfg *OAuthClientConfig) {
			cfg.Installed.RedirectURIs = []string{"urn:ietf:wg:oauth:2.0:oob", "http://127.0.0.1:8080"}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validOAuthClient()
			tt.mutate(cfg)

			err := ValidateOAuthClient(cfg)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestLoadOAuthClientFromPath_ValidConfig(t *testing.T) {
	oauthPath := filepath.Join(t.TempDir(), "oauthClient.json")
	require.NoError(t, os.WriteFile(oauthPath, []byte(`{
  "installed": {
    "client_id": "test-client-id.apps.googleusercontent.com",
    "project_id": "test-project",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
    "client_secret": "test-secret",
    "redirect_uris": ["http://localhost"]
  }
}`), 0644))

	cfg, err := LoadOAuthClientFromPath(oauthPath)
	require.NoError(t, err)

	assert.Equal(t, validOAuthClient(), cfg)
}

func TestLoadOAuthClientFromPath_InvalidJSON(t *testing.T) {
	oauthPath := filepath.Join(t.TempDir(), "invalid_oauth.json")
	require.NoError(t, os.WriteFile(oauthPath, []byte(`{"installed": {"client_id": "test" "project_id": "x"}}`), 0644))

	_, err := LoadOAuthClientFromPath(oauthPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse oauth client file")
}

func TestLoadOAuthClientFromPath_FileNotFound(t *testing.T) {
	_, err := LoadOAuthClientFromPath("/nonexistent/path/oauthClient.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read oauth client file")
}

func TestLoadOAuthClientWithEnv_MissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())

	_, err := LoadOAuthClientWithEnv("prod")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to find oauthClient file")
	assert.Contains(t, err.Error(), "oauthClient.prod.json not found")
}
