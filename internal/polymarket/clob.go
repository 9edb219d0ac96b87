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
	"sync"
	"time"

	"github.com/polyterm/polyterm/internal/models"
)

// ErrSnapshotUnavailable 市场存在但缺少 CLOB 数据
var ErrSnapshotUnavailable = errors.New("polymarket: snapshot not available for this market")

// ClobClient Polymarket CLOB (行情) API 客户端
type ClobClient struct {
	baseURL string
	gamma   *GammaClient
	client  *http.Client
}

// NewClobClient 创建 CLOB 客户端；快照组装需要 gamma 解析 token id
func NewClobClient(baseURL string, gamma *GammaClient) *ClobClient {
	return &ClobClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		gamma:   gamma,
		client:  http.DefaultClient,
	}
}

func (c *ClobClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}

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
		return fmt.Errorf("clob api error (status %d): %s", res.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response failed: %w", err)
	}
	return nil
}

type clobBook struct {
	Bids [][]flexFloat `json:"bids"`
	Asks [][]flexFloat `json:"asks"`
}

func toLevels(raw [][]flexFloat) []models.OrderbookLevel {
	levels := make([]models.OrderbookLevel, 0, len(raw))
	for _, pair := range raw {
		if len(pair) < 2 {
			continue
		}
		levels = append(levels, models.OrderbookLevel{
			Price: float64(pair[0]),
			Size:  float64(pair[1]),
		})
	}
	return levels
}

// GetOrderbook 获取指定 token 的订单簿
func (c *ClobClient) GetOrderbook(ctx context.Context, tokenID string) (*models.Orderbook, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	var raw clobBook
	if err := c.getJSON(ctx, "/order-book", params, &raw); err != nil {
		return nil, err
	}

	return &models.Orderbook{
		Bids:      toLevels(raw.Bids),
		Asks:      toLevels(raw.Asks),
		Timestamp: time.Now(),
	}, nil
}

// GetMidpoint 获取买卖中间价
func (c *ClobClient) GetMidpoint(ctx context.Context, tokenID string) (float64, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	var raw struct {
		Midpoint flexFloat `json:"midpoint"`
	}
	if err := c.getJSON(ctx, "/midpoint", params, &raw); err != nil {
		return 0, err
	}
	return float64(raw.Midpoint), nil
}

// GetPrice 获取最新成交价
func (c *ClobClient) GetPrice(ctx context.Context, tokenID string) (float64, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	var raw struct {
		Price flexFloat `json:"price"`
	}
	if err := c.getJSON(ctx, "/price", params, &raw); err != nil {
		return 0, err
	}
	return float64(raw.Price), nil
}

// GetTimeseries 获取价格历史
func (c *ClobClient) GetTimeseries(ctx context.Context, tokenID, interval string, lookbackDays int) ([]models.TimeseriesPoint, error) {
	fidelity := 60
	if interval == "1d" {
		fidelity = 1440
	}
	params := url.Values{}
	params.Set("market", tokenID)
	params.Set("interval", interval)
	params.Set("fidelity", strconv.Itoa(fidelity))

	var raw []struct {
		T flexFloat `json:"t"`
		P flexFloat `json:"p"`
	}
	if err := c.getJSON(ctx, "/prices-history", params, &raw); err != nil {
		return nil, err
	}

	history := make([]models.TimeseriesPoint, 0, len(raw))
	for _, item := range raw {
		history = append(history, models.TimeseriesPoint{
			Timestamp: time.Unix(int64(item.T), 0).UTC().Format(time.RFC3339),
			Price:     float64(item.P),
		})
	}
	return history, nil
}

// GetSnapshot 组装市场实时快照。市场不存在返回 ErrMarketNotFound，
// 缺少 CLOB token 返回 ErrSnapshotUnavailable。中间价、成交价与订单簿并发获取。
func (c *ClobClient) GetSnapshot(ctx context.Context, marketID string) (*models.MarketSnapshot, error) {
	market, err := c.gamma.GetMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if len(market.ClobTokenIDs) == 0 {
		return nil, ErrSnapshotUnavailable
	}

	// 第一个 token 通常对应 "Yes" 结果
	tokenID := market.ClobTokenIDs[0]

	var (
		wg        sync.WaitGroup
		midpoint  float64
		price     float64
		orderbook *models.Orderbook
		errMid    error
		errPrice  error
		errBook   error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		midpoint, errMid = c.GetMidpoint(ctx, tokenID)
	}()
	go func() {
		defer wg.Done()
		price, errPrice = c.GetPrice(ctx, tokenID)
	}()
	go func() {
		defer wg.Done()
		orderbook, errBook = c.GetOrderbook(ctx, tokenID)
	}()
	wg.Wait()

	for _, err := range []error{errMid, errPrice, errBook} {
		if err != nil {
			return nil, err
		}
	}

	var bidTop, askTop, spread float64
	if len(orderbook.Bids) > 0 {
		bidTop = orderbook.Bids[0].Price
	}
	if len(orderbook.Asks) > 0 {
		askTop = orderbook.Asks[0].Price
	}
	if bidTop > 0 && askTop > 0 {
		spread = askTop - bidTop
	}

	depth := 50
	bids := orderbook.Bids
	if len(bids) > depth {
		bids = bids[:depth]
	}
	asks := orderbook.Asks
	if len(asks) > depth {
		asks = asks[:depth]
	}

	return &models.MarketSnapshot{
		MarketID: marketID,
		Question: market.Question,
		Price:    price,
		Midpoint: midpoint,
		BidTop:   bidTop,
		AskTop:   askTop,
		Spread:   spread,
		DepthLadders: map[string][]models.OrderbookLevel{
			"bids": bids,
			"asks": asks,
		},
		Timestamp: time.Now(),
		TokenID:   tokenID,
	}, nil
}
