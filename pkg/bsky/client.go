// Package bsky talks to the social network's xrpc API with the credentials
// the logged-in web app already holds.
package bsky

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/davestewart/bskyinfo/internal/utils"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

// ProfileData is the public stats snapshot for one profile.
type ProfileData struct {
	Description    string `json:"description,omitempty"`
	FollowingCount int64  `json:"followingCount"`
	FollowersCount int64  `json:"followersCount"`
	PostsCount     int64  `json:"postsCount"`
	Following      bool   `json:"following"`
}

// Client makes authenticated xrpc calls. A call that hits an expired token
// re-acquires the session once and retries once; any other API failure
// resolves to an absent result rather than an error. Transport failures
// propagate.
type Client struct {
	source SessionSource
	http   *retryablehttp.Client

	mu      sync.Mutex
	session *Session
}

func NewClient(source SessionSource) *Client {
	rc := retryablehttp.NewClient()
	rc.Logger = log.New(io.Discard, "", 0)
	rc.RetryMax = 3
	return &Client{source: source, http: rc}
}

// Init acquires credentials from the session source.
func (c *Client) Init(ctx context.Context) error {
	s, err := c.source.Session(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return nil
}

// WaitForSession polls the session source until credentials appear. The host
// page hydrates its own login state asynchronously, so early reads coming up
// empty is normal rather than an error.
func (c *Client) WaitForSession(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		err := c.Init(ctx)
		if err == nil {
			return nil
		}
		utils.Log.Debugf("Session not ready: %v", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetProfile fetches the public stats for a handle. Returns nil data when
// the API had nothing for us.
func (c *Client) GetProfile(ctx context.Context, handle string) (*ProfileData, error) {
	query := url.Values{"actor": {handle}}
	body, err := c.call(ctx, http.MethodGet, "app.bsky.actor.getProfile", query, nil)
	if err != nil {
		return nil, err
	}
	if body == "" {
		return nil, nil
	}
	return &ProfileData{
		Description:    gjson.Get(body, "description").String(),
		FollowingCount: gjson.Get(body, "followsCount").Int(),
		FollowersCount: gjson.Get(body, "followersCount").Int(),
		PostsCount:     gjson.Get(body, "postsCount").Int(),
		// viewer.following carries the follow record URI when set
		Following: gjson.Get(body, "viewer.following").String() != "",
	}, nil
}

// MuteActor mutes a handle for the viewing account.
func (c *Client) MuteActor(ctx context.Context, handle string) error {
	_, err := c.call(ctx, http.MethodPost, "app.bsky.graph.muteActor", nil, map[string]string{"actor": handle})
	return err
}

// UnmuteActor unmutes a handle for the viewing account.
func (c *Client) UnmuteActor(ctx context.Context, handle string) error {
	_, err := c.call(ctx, http.MethodPost, "app.bsky.graph.unmuteActor", nil, map[string]string{"actor": handle})
	return err
}

func (c *Client) call(ctx context.Context, method, endpoint string, query url.Values, payload interface{}) (string, error) {
	return c.callOnce(ctx, method, endpoint, query, payload, true)
}

func (c *Client) callOnce(ctx context.Context, method, endpoint string, query url.Values, payload interface{}, allowRefresh bool) (string, error) {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return "", errors.New("no session available, call Init first")
	}

	full := s.URL + "xrpc/" + endpoint
	if len(query) > 0 {
		full += "?" + query.Encode()
	}

	var rawBody interface{}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return "", err
		}
		rawBody = b
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, full, rawBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	if res.StatusCode >= 400 {
		// an invalid token gets refreshed once, then the call is retried once
		if allowRefresh && gjson.GetBytes(b, "error").String() == "ExpiredToken" {
			utils.Log.Debug("Refreshing expired token")
			if err := c.Init(ctx); err != nil {
				return "", err
			}
			return c.callOnce(ctx, method, endpoint, query, payload, false)
		}
		utils.Log.Warnf("API call %s failed with status %d: %s",
			endpoint, res.StatusCode, gjson.GetBytes(b, "message").String())
		return "", nil
	}

	return string(b), nil
}
