package compress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client 文本压缩服务客户端。压缩是尽力而为的优化：
// 未配置、出错或返回异常时 Compress 原样返回输入，绝不失败。
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient 创建压缩客户端，apiKey 为空表示禁用
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://api.thetokencompany.com/v1"
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
	}
}

type compressRequest struct {
	Text         string `json:"text"`
	TargetTokens int    `json:"target_tokens,omitempty"`
}

type compressResponse struct {
	CompressedText string `json:"compressed_text"`
}

// Compress 压缩文本。任何失败都返回原文与 nil 错误之外的 err，
// 由调用方决定透传；本实现保证返回值总是可用的语料。
func (c *Client) Compress(ctx context.Context, text string, targetTokens int) (string, error) {
	if c.apiKey == "" {
		return text, nil
	}

	payload, err := json.Marshal(compressRequest{Text: text, TargetTokens: targetTokens})
	if err != nil {
		return text, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/compress", bytes.NewReader(payload))
	if err != nil {
		return text, err
	}
	req.Header.Add("Authorization", "Bearer "+c.apiKey)
	req.Header.Add("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return text, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return text, err
	}
	if res.StatusCode != http.StatusOK {
		return text, fmt.Errorf("compress api error (status %d): %s", res.StatusCode, string(body))
	}

	var resp compressResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return text, err
	}
	if resp.CompressedText == "" {
		return text, nil
	}
	return resp.CompressedText, nil
}
