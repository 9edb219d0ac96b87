package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/polyterm/polyterm/internal/sources"
)

const defaultBaseURL = "https://api.tavily.com"

// Client Tavily API 客户端，实现 sources.NewsSource
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient 创建一个新的 Tavily 客户端
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  http.DefaultClient,
	}
}

// NewClientWithBaseURL 测试用，指向本地伪造服务
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

var _ sources.NewsSource = (*Client)(nil)

type searchRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth,omitempty"`
	Topic       string `json:"topic,omitempty"`
	MaxResults  int    `json:"max_results,omitempty"`
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

type extractRequest struct {
	URLs []string `json:"urls"`
}

type extractResponse struct {
	Results []struct {
		URL        string `json:"url"`
		RawContent string `json:"raw_content"`
	} `json:"results"`
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Add("Authorization", "Bearer "+c.apiKey)
	req.Header.Add("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read body failed: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("tavily api error (status %d): %s", res.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response failed: %w", err)
	}
	return nil
}

// Search 新闻搜索
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]sources.SearchHit, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	req := searchRequest{
		Query:       query,
		SearchDepth: "advanced",
		Topic:       "news",
		MaxResults:  maxResults,
	}

	var resp searchResponse
	if err := c.post(ctx, "/search", req, &resp); err != nil {
		return nil, err
	}

	hits := make([]sources.SearchHit, 0, len(resp.Results))
	for _, r := range resp.Results {
		title := r.Title
		if title == "" {
			title = "News Article"
		}
		hits = append(hits, sources.SearchHit{URL: r.URL, Title: title})
	}
	return hits, nil
}

// Extract 批量抽取正文。接口抽不到的 URL 逐个回退到 readability 抓取，
// 仍然失败的返回空 Body，由上游决定是否引用。
func (c *Client) Extract(ctx context.Context, urls []string) ([]sources.Document, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	extracted := make(map[string]string, len(urls))
	var resp extractResponse
	if err := c.post(ctx, "/extract", extractRequest{URLs: urls}, &resp); err == nil {
		for _, r := range resp.Results {
			extracted[r.URL] = r.RawContent
		}
	}

	docs := make([]sources.Document, 0, len(urls))
	for _, u := range urls {
		body := extracted[u]
		if body == "" {
			if fetched, err := fetchAndCleanContent(u); err == nil {
				body = fetched
			}
		}
		docs = append(docs, sources.Document{URL: u, Body: body})
	}
	return docs, nil
}

// fetchAndCleanContent 抓取 URL 并提取核心文本
func fetchAndCleanContent(url string) (string, error) {
	article, err := readability.FromURL(url, 30*time.Second)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}
