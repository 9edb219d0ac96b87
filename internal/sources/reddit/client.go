package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/polyterm/polyterm/internal/sources"
)

// Client Reddit 公共搜索 API 客户端，实现 sources.SocialSource
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewClient 创建 Reddit 客户端
func NewClient(baseURL, userAgent string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    http.DefaultClient,
	}
}

var _ sources.SocialSource = (*Client)(nil)

type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string `json:"title"`
				Selftext    string `json:"selftext"`
				Permalink   string `json:"permalink"`
				URL         string `json:"url"`
				NumComments int    `json:"num_comments"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Search 全站搜索讨论帖
func (c *Client) Search(ctx context.Context, query string, maxThreads int) ([]sources.Thread, error) {
	if c.baseURL == "" {
		// 未配置时降级为空结果
		return nil, nil
	}
	if maxThreads <= 0 {
		maxThreads = 10
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(maxThreads))
	params.Set("sort", "relevance")
	params.Set("restrict_sr", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit api error (status %d): %s", res.StatusCode, string(body))
	}

	var raw listing
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}

	threads := make([]sources.Thread, 0, len(raw.Data.Children))
	for _, child := range raw.Data.Children {
		d := child.Data
		link := d.URL
		if d.Permalink != "" {
			link = c.baseURL + d.Permalink
		}
		threads = append(threads, sources.Thread{
			URL:          link,
			Title:        d.Title,
			Body:         d.Selftext,
			CommentCount: d.NumComments,
		})
	}
	return threads, nil
}
