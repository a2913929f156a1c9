package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"stock-screener-backend/internal/domain"
)

// Client is a thin daily-kline fetcher. The provider answers the common
// kline array format:
//
//	[ [open_time_ms, open, high, low, close, volume, ...], ... ]
//
// where numeric fields arrive as numbers or strings representing numbers.
// Retry and backoff policy belongs to whoever schedules the fetch, not here.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetDailyBars returns up to limit daily bars for one symbol, oldest first.
func (c *Client) GetDailyBars(ctx context.Context, symbol string, limit int) ([]domain.PricePoint, error) {
	url := fmt.Sprintf("%s/klines?symbol=%s&interval=1d&limit=%d", c.baseURL, symbol, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market data API error: %d", resp.StatusCode)
	}

	var klines [][]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&klines); err != nil {
		return nil, err
	}

	points := make([]domain.PricePoint, 0, len(klines))
	for _, k := range klines {
		if len(k) < 6 {
			continue
		}
		openTime, err := parseValue(k[0])
		if err != nil {
			continue
		}
		o, _ := parseValue(k[1])
		h, _ := parseValue(k[2])
		l, _ := parseValue(k[3])
		cl, _ := parseValue(k[4])
		v, _ := parseValue(k[5])

		points = append(points, domain.PricePoint{
			Symbol: symbol,
			Date:   time.UnixMilli(int64(openTime)).UTC().Truncate(24 * time.Hour),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  cl,
			Volume: v,
		})
	}
	return points, nil
}

func parseValue(v interface{}) (float64, error) {
	switch val := v.(type) {
	case string:
		return strconv.ParseFloat(val, 64)
	case float64:
		return val, nil
	}
	return 0, fmt.Errorf("unexpected kline value type %T", v)
}
