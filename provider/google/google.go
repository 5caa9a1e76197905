package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	auth "github.com/goliatone/go-session-auth"
)

// Provider drives the Google OAuth code flow. It implements
// auth.FederatedProvider; the id token it returns goes through a
// Verifier before any account is touched.
type Provider struct {
	config     Config
	httpClient *http.Client
}

// New creates a new Google provider.
func New(cfg Config) *Provider {
	cfg = cfg.withDefaults()

	return &Provider{
		config:     cfg,
		httpClient: cfg.HTTPClient,
	}
}

// Name identifies the provider in logs and session records.
func (p *Provider) Name() string {
	return "google"
}

// AuthCodeURL implements auth.FederatedProvider.
func (p *Provider) AuthCodeURL(state string) string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.CallbackURL},
		"response_type": {"code"},
		"scope":         {strings.Join(p.config.Scopes, " ")},
		"state":         {state},
		"access_type":   {"offline"},
	}

	return p.config.AuthURL + "?" + params.Encode()
}

// ExchangeCode implements auth.FederatedProvider. It trades the
// authorization code for the provider token set and returns the raw
// id token.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (string, error) {
	data := url.Values{
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"code":          {code},
		"redirect_uri":  {p.config.CallbackURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", exchangeError(err, "")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", exchangeError(err, "")
	}

	var tokenResp googleTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", exchangeError(err, "failed to decode token response")
	}

	if resp.StatusCode != http.StatusOK || tokenResp.Error != "" {
		desc := tokenResp.ErrorDesc
		if desc == "" {
			desc = fmt.Sprintf("token endpoint returned %d", resp.StatusCode)
		}
		return "", exchangeError(nil, desc)
	}

	if tokenResp.IDToken == "" {
		return "", exchangeError(nil, "token response is missing an id token")
	}

	return tokenResp.IDToken, nil
}

type googleTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
	IDToken     string `json:"id_token"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

func exchangeError(err error, desc string) error {
	clone := auth.ErrInvalidIdentityToken.Clone()
	clone.Source = err

	meta := map[string]any{"provider": "google"}
	if desc != "" {
		meta["cause"] = desc
	} else if err != nil {
		meta["cause"] = err.Error()
	}

	return clone.WithMetadata(meta)
}
