package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
)

// OAuthClientConfig is the desktop-app client file downloaded from the Google Cloud console.
// It is passed back to google.ConfigFromJSON unchanged, so every field is kept.
type OAuthClientConfig struct {
	Installed OAuthInstalled `json:"installed" validate:"required"`
}

// OAuthInstalled is the "installed" section of the client file
type OAuthInstalled struct {
	ClientID                string   `json:"client_id" validate:"required"`
	ProjectID               string   `json:"project_id" validate:"required"`
	AuthURI                 string   `json:"auth_uri" validate:"required,url"`
	TokenURI                string   `json:"token_uri" validate:"required,url"`
	AuthProviderX509CertURL string   `json:"auth_provider_x509_cert_url" validate:"required,url"`
	ClientSecret            string   `json:"client_secret" validate:"required"`
	RedirectURIs            []string `json:"redirect_uris" validate:"required,min=1,dive,uri"`
}

// LoadOAuthClientWithEnv loads the publisher's OAuth client, e.g. "oauthClient.prod.json" for env="prod"
func LoadOAuthClientWithEnv(env string) (*OAuthClientConfig, error) {
	return loadWithEnv("oauthClient", "json", env, LoadOAuthClientFromPath)
}

// LoadOAuthClientFromPath loads and validates the OAuth client configuration from a specific path
func LoadOAuthClientFromPath(path string) (*OAuthClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth client file: %w", err)
	}

	var oauthCfg OAuthClientConfig
	if err := json.Unmarshal(data, &oauthCfg); err != nil {
		return nil, fmt.Errorf("failed to parse oauth client file: %w", err)
	}

	if err := ValidateOAuthClient(&oauthCfg); err != nil {
		return nil, err
	}

	return &oauthCfg, nil
}

// ValidateOAuthClient validates the client file. The token flow listens on localhost for the
// redirect, so the client must allow a loopback redirect URI.
func ValidateOAuthClient(cfg *OAuthClientConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("oauth client validation failed: %w", err)
	}

	for _, redirect := range cfg.Installed.RedirectURIs {
		if isLoopback(redirect) {
			return nil
		}
	}
	return fmt.Errorf("oauth client validation failed: no localhost redirect URI in %v (create a Desktop app client)", cfg.Installed.RedirectURIs)
}

func isLoopback(redirect string) bool {
	u, err := url.Parse(redirect)
	if err != nil || u.Scheme != "http" {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
