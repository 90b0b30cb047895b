// Package ghapp authenticates against GitHub as a GitHub App installation.
package ghapp

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-github/v80/github"

	"github.com/hyejinbaek/cognition-ai-proj/internal/buildinfo"
)

const publicAPI = "https://api.github.com/"

// AppJWT signs the short-lived RS256 token that identifies the app itself.
func AppJWT(appID int64, privateKey []byte, now time.Time) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKey)
	if err != nil {
		return "", fmt.Errorf("parsing github app private key: %w", err)
	}

	// GitHub rejects app tokens valid for more than ten minutes; backdate iat for clock drift.
	claims := jwt.RegisteredClaims{
		Issuer:    fmt.Sprintf("%d", appID),
		IssuedAt:  jwt.NewNumericDate(now.Add(-30 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(9 * time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("signing github app jwt: %w", err)
	}
	return signed, nil
}

// NewClient creates a client authenticated as the app.
// If serverURL is non-empty the client targets that GitHub Enterprise server.
func NewClient(appID int64, privateKey []byte, serverURL string) (*github.Client, error) {
	signed, err := AppJWT(appID, privateKey, time.Now())
	if err != nil {
		return nil, err
	}
	return newTokenClient(signed, serverURL, serverURL)
}

// InstallationTokenClient exchanges the app identity for an installation token and
// returns a client using it.
func InstallationTokenClient(ctx context.Context, appClient *github.Client, installationID int64) (*github.Client, error) {
	token, _, err := appClient.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return nil, fmt.Errorf("creating installation token for installation ID %d: %w", installationID, err)
	}

	base := ""
	if appClient.BaseURL.String() != publicAPI {
		base = appClient.BaseURL.String()
	}
	return newTokenClient(token.GetToken(), base, appClient.UploadURL.String())
}

func newTokenClient(token, baseURL, uploadURL string) (*github.Client, error) {
	client := github.NewClient(nil).WithAuthToken(token)
	client.UserAgent = buildinfo.UserAgent()

	if baseURL == "" {
		return client, nil
	}
	// uploads are never used, so the upload URL may equal the base URL
	client, err := client.WithEnterpriseURLs(baseURL, uploadURL)
	if err != nil {
		return nil, fmt.Errorf("creating github enterprise client: %w", err)
	}
	return client, nil
}
