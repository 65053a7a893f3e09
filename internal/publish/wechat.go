// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish delivers assembled articles to the WeChat official-account
// platform and exposes its readership statistics.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pdiddy/daily-analyst/internal/httputil"
	"github.com/pdiddy/daily-analyst/pkg/types"
)

// wechatAPIBase is the WeChat API endpoint. Declared as a var so tests can
// substitute an httptest server.
var wechatAPIBase = "https://api.weixin.qq.com"

// tokenEarlyExpiry refreshes access tokens five minutes before the platform
// would reject them.
const tokenEarlyExpiry = 5 * time.Minute

// Receipt is the platform's delivery confirmation.
type Receipt struct {
	DeliveryID string
}

// Publisher is the external publishing collaborator. Idempotence is the
// orchestrator's responsibility: Publish is never called twice for an
// already-published date.
type Publisher interface {
	Publish(ctx context.Context, art *types.Article) (*Receipt, error)
}

// Client implements Publisher against the WeChat draft/publish API.
type Client struct {
	httpClient *http.Client
	cfg        types.PublishConfig

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient builds a publishing client from credentials.
func NewClient(cfg types.PublishConfig) (*Client, error) {
	if cfg.AppID == "" || cfg.AppSecret == "" {
		return nil, fmt.Errorf("wechat app id and secret are required")
	}
	return &Client{httpClient: httputil.NewClient(cfg.HTTPConfig), cfg: cfg}, nil
}

// apiError is the platform's error envelope, present on every response.
type apiError struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// classify maps platform error codes onto the pipeline taxonomy. Rate
// limits and "system busy" are transient; credential problems are not.
func (e apiError) classify() error {
	err := fmt.Errorf("errcode %d: %s", e.ErrCode, e.ErrMsg)
	switch e.ErrCode {
	case -1, 45009, 45011:
		return types.TransientError("wechat", err)
	default:
		return types.PermanentError("wechat", err)
	}
}

// tokenExpired reports whether the error code means the cached access token
// is stale and a refresh should be attempted.
func (e apiError) tokenExpired() bool {
	return e.ErrCode == 40001 || e.ErrCode == 42001
}

// accessToken returns a cached token, refreshing when absent or near expiry.
func (c *Client) accessToken(ctx context.Context, force bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	u := fmt.Sprintf("%s/cgi-bin/token?grant_type=client_credential&appid=%s&secret=%s",
		wechatAPIBase, url.QueryEscape(c.cfg.AppID), url.QueryEscape(c.cfg.AppSecret))
	var parsed struct {
		apiError
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := c.getJSON(ctx, u, &parsed); err != nil {
		return "", err
	}
	if parsed.AccessToken == "" {
		return "", parsed.classify()
	}

	expiresIn := parsed.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 7200
	}
	c.token = parsed.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(expiresIn)*time.Second - tokenEarlyExpiry)
	return c.token, nil
}

// Publish creates a draft from the article and submits it for publication.
// The returned receipt carries the platform's publish ID.
func (c *Client) Publish(ctx context.Context, art *types.Article) (*Receipt, error) {
	digest := []rune(plainDigest(art.Body))
	if len(digest) > 120 {
		digest = digest[:120]
	}

	draftReq := map[string]any{
		"articles": []map[string]any{{
			"title":              art.Title,
			"author":             c.cfg.Author,
			"digest":             string(digest),
			"content":            MarkdownToHTML(art.Body),
			"content_source_url": "",
		}},
	}
	var draftResp struct {
		apiError
		MediaID string `json:"media_id"`
	}
	if err := c.postJSON(ctx, "/cgi-bin/draft/add", draftReq, &draftResp); err != nil {
		return nil, err
	}
	if draftResp.MediaID == "" {
		return nil, draftResp.classify()
	}

	var pubResp struct {
		apiError
		PublishID json.Number `json:"publish_id"`
	}
	if err := c.postJSON(ctx, "/cgi-bin/freepublish/submit", map[string]any{"media_id": draftResp.MediaID}, &pubResp); err != nil {
		return nil, err
	}
	if pubResp.ErrCode != 0 {
		return nil, pubResp.classify()
	}
	return &Receipt{DeliveryID: pubResp.PublishID.String()}, nil
}

// ArticleStat is one day of readership numbers from the platform datacube.
type ArticleStat struct {
	RefDate       string `json:"ref_date"`
	PageReadUser  int    `json:"int_page_read_user"`
	PageReadCount int    `json:"int_page_read_count"`
	ShareCount    int    `json:"share_count"`
}

// ArticleStats fetches daily readership summaries for the date range,
// consumed by the monthly report.
func (c *Client) ArticleStats(ctx context.Context, beginDate, endDate string) ([]ArticleStat, error) {
	req := map[string]string{"begin_date": beginDate, "end_date": endDate}
	var resp struct {
		apiError
		List []ArticleStat `json:"list"`
	}
	if err := c.postJSON(ctx, "/datacube/getarticlesummary", req, &resp); err != nil {
		return nil, err
	}
	if resp.ErrCode != 0 {
		return nil, resp.classify()
	}
	return resp.List, nil
}

// postJSON sends an authenticated POST, retrying exactly once with a fresh
// token when the platform reports the cached token expired. That refresh is
// credential housekeeping, not a provider retry. The error envelope is
// decoded separately from out so a retried response never inherits a stale
// errcode.
func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	for _, force := range []bool{false, true} {
		token, err := c.accessToken(ctx, force)
		if err != nil {
			return err
		}

		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		u := fmt.Sprintf("%s%s?access_token=%s", wechatAPIBase, path, url.QueryEscape(token))
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", c.cfg.UserAgent)

		resp, err := httputil.Do("wechat", c.httpClient, req)
		if err != nil {
			return err
		}
		if err := httputil.CheckStatus("wechat", resp); err != nil {
			return err
		}
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return types.TransientError("wechat", fmt.Errorf("reading response: %w", readErr))
		}

		var env apiError
		if json.Unmarshal(data, &env) == nil && env.tokenExpired() && !force {
			continue
		}
		if err := json.Unmarshal(data, out); err != nil {
			return types.PermanentError("wechat", fmt.Errorf("parsing response: %w", err))
		}
		return nil
	}
	return nil
}

// getJSON fetches and decodes an unauthenticated endpoint (token grant).
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.Do("wechat", c.httpClient, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := httputil.CheckStatus("wechat", resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.PermanentError("wechat", fmt.Errorf("parsing response: %w", err))
	}
	return nil
}
