// Package twitch polls the Twitch Helix API for live streams and keeps
// the alert messages in subscribed channels in sync with what is live.
package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Levtastic/LevBot/pkg/retrylimit"
)

const (
	defaultAPIURL  = "https://api.twitch.tv/helix"
	defaultAuthURL = "https://id.twitch.tv/oauth2/token"

	// Helix caps user_login query parameters per request.
	maxLoginsPerQuery = 100
)

// Stream is one live stream as reported by the API.
type Stream struct {
	UserLogin string `json:"user_login"`
	UserName  string `json:"user_name"`
	GameName  string `json:"game_name"`
	Title     string `json:"title"`
}

// Client is a minimal Helix client using an app access token, with
// adaptive rate limiting and retry on transient failures.
type Client struct {
	ClientID     string
	ClientSecret string

	// APIURL and AuthURL default to the public endpoints; tests point
	// them at a local server.
	APIURL  string
	AuthURL string

	HTTPClient *http.Client

	limiter *retrylimit.AdaptiveLimiter

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewClient creates a Helix client.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		APIURL:       defaultAPIURL,
		AuthURL:      defaultAuthURL,
		limiter:      retrylimit.NewAdaptiveLimiter(2, 0.2, 5),
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// appToken returns a cached app access token, refreshing it when close to
// expiry.
func (c *Client) appToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.expires) > time.Minute {
		return c.token, nil
	}

	form := url.Values{
		"client_id":     {c.ClientID},
		"client_secret": {c.ClientSecret},
		"grant_type":    {"client_credentials"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.AuthURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch app token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &retrylimit.StatusError{Code: resp.StatusCode, URL: c.AuthURL}
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.token = body.AccessToken
	c.expires = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	return c.token, nil
}

// Streams returns the currently live streams among logins, keyed by
// lowercased login. Logins absent from the result are offline.
func (c *Client) Streams(ctx context.Context, logins []string) (map[string]Stream, error) {
	out := make(map[string]Stream, len(logins))

	for start := 0; start < len(logins); start += maxLoginsPerQuery {
		end := start + maxLoginsPerQuery
		if end > len(logins) {
			end = len(logins)
		}
		if err := c.streamsPage(ctx, logins[start:end], out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (c *Client) streamsPage(ctx context.Context, logins []string, out map[string]Stream) error {
	return retrylimit.WithRetry(ctx, c.limiter, 3, func() error {
		token, err := c.appToken(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+"/streams", nil)
		if err != nil {
			return err
		}
		q := req.URL.Query()
		for _, login := range logins {
			q.Add("user_login", login)
		}
		req.URL.RawQuery = q.Encode()
		req.Header.Set("Client-Id", c.ClientID)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.httpClient().Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return &retrylimit.StatusError{Code: resp.StatusCode, URL: req.URL.String()}
		}

		var body struct {
			Data []Stream `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("failed to decode streams response: %w", err)
		}

		for _, s := range body.Data {
			out[strings.ToLower(s.UserLogin)] = s
		}
		return nil
	})
}
