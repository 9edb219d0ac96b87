package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/polyterm/polyterm/internal/models"
)

// ErrMarketNotFound 市场不存在的确定性信号
var ErrMarketNotFound = errors.New("polymarket: market not found")

// ErrEventNotFound 事件不存在
var ErrEventNotFound = errors.New("polymarket: event not found")

// GammaClient Polymarket gamma (元数据) API 客户端
type GammaClient struct {
	baseURL string
	client  *http.Client
}

// NewGammaClient 创建 gamma 客户端
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
	}
}

// flexFloat gamma 的数值字段时而是数字时而是字符串
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// flexStrings 数组或 JSON 字符串编码的数组
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*f = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = nil
		return nil
	}
	return json.Unmarshal([]byte(s), (*[]string)(f))
}

type gammaMarket struct {
	ID            json.Number `json:"id"`
	Question      string      `json:"question"`
	Description   string      `json:"description"`
	Outcomes      flexStrings `json:"outcomes"`
	OutcomePrices flexStrings `json:"outcomePrices"`
	Active        *bool       `json:"active"`
	Closed        bool        `json:"closed"`
	Volume        flexFloat   `json:"volume"`
	Liquidity     flexFloat   `json:"liquidity"`
	EndDate       string      `json:"endDate"`
	Image         string      `json:"image"`
	GroupID       json.Number `json:"group_id"`
	ClobTokenIDs  flexStrings `json:"clobTokenIds"`
}

func (m gammaMarket) toModel() models.Market {
	active := true
	if m.Active != nil {
		active = *m.Active
	}
	return models.Market{
		ID:            m.ID.String(),
		Question:      m.Question,
		Description:   m.Description,
		Outcomes:      m.Outcomes,
		OutcomePrices: m.OutcomePrices,
		Active:        active,
		Closed:        m.Closed,
		Volume:        float64(m.Volume),
		Liquidity:     float64(m.Liquidity),
		EndDate:       m.EndDate,
		ImageURL:      m.Image,
		GroupID:       m.GroupID.String(),
		ClobTokenIDs:  m.ClobTokenIDs,
	}
}

type gammaEvent struct {
	ID          json.Number   `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Active      *bool         `json:"active"`
	Closed      bool          `json:"closed"`
	Volume      flexFloat     `json:"volume"`
	Liquidity   flexFloat     `json:"liquidity"`
	EndDate     string        `json:"endDate"`
	Image       string        `json:"image"`
	Category    string        `json:"category"`
	Markets     []gammaMarket `json:"markets"`
}

func (e gammaEvent) toModel() models.Event {
	active := true
	if e.Active != nil {
		active = *e.Active
	}
	return models.Event{
		ID:           e.ID.String(),
		Title:        e.Title,
		Description:  e.Description,
		Active:       active,
		Closed:       e.Closed,
		Volume:       float64(e.Volume),
		Liquidity:    float64(e.Liquidity),
		EndDate:      e.EndDate,
		ImageURL:     e.Image,
		MarketsCount: len(e.Markets),
		Category:     e.Category,
	}
}

func (c *GammaClient) getJSON(ctx context.Context, path string, params url.Values, out any) (int, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("create request failed: %w", err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return res.StatusCode, nil
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, fmt.Errorf("read body failed: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return res.StatusCode, fmt.Errorf("gamma api error (status %d): %s", res.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return res.StatusCode, fmt.Errorf("unmarshal response failed: %w", err)
	}
	return res.StatusCode, nil
}

// ListEvents 分页列出事件
func (c *GammaClient) ListEvents(ctx context.Context, limit, offset int, status, search string) ([]models.Event, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	if status == "active" {
		params.Set("active", "true")
		params.Set("closed", "false")
	} else {
		params.Set("active", "false")
		params.Set("closed", "true")
	}
	if search != "" {
		params.Set("search", search)
	}

	var raw []gammaEvent
	if _, err := c.getJSON(ctx, "/events", params, &raw); err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(raw))
	for _, e := range raw {
		events = append(events, e.toModel())
	}
	return events, nil
}

// GetEvent 获取单个事件
func (c *GammaClient) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	var raw gammaEvent
	status, err := c.getJSON(ctx, "/events/"+url.PathEscape(eventID), nil, &raw)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrEventNotFound
	}
	event := raw.toModel()
	return &event, nil
}

// GetEventMarkets 列出事件下的市场
func (c *GammaClient) GetEventMarkets(ctx context.Context, eventID string) ([]models.Market, error) {
	var raw gammaEvent
	status, err := c.getJSON(ctx, "/events/"+url.PathEscape(eventID), nil, &raw)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrEventNotFound
	}

	markets := make([]models.Market, 0, len(raw.Markets))
	for _, m := range raw.Markets {
		markets = append(markets, m.toModel())
	}
	return markets, nil
}

// GetMarket 按 id 查询市场，不存在时返回 ErrMarketNotFound
func (c *GammaClient) GetMarket(ctx context.Context, marketID string) (*models.Market, error) {
	params := url.Values{}
	params.Set("id", marketID)

	var raw []gammaMarket
	if _, err := c.getJSON(ctx, "/markets", params, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrMarketNotFound
	}
	market := raw[0].toModel()
	return &market, nil
}

// SearchMarkets 按关键词搜索活跃市场
func (c *GammaClient) SearchMarkets(ctx context.Context, query string) ([]models.Market, error) {
	params := url.Values{}
	params.Set("search", query)
	params.Set("active", "true")

	var raw []gammaMarket
	if _, err := c.getJSON(ctx, "/markets", params, &raw); err != nil {
		return nil, err
	}

	markets := make([]models.Market, 0, len(raw))
	for _, m := range raw {
		markets = append(markets, m.toModel())
	}
	return markets, nil
}
