package repository

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang-backtest/config"
	"golang-backtest/internal/backtest"
	"golang-backtest/pkg/cache"
	"golang-backtest/pkg/httpclient"
	"golang-backtest/pkg/logger"

	"golang.org/x/time/rate"
)

// Binance caps klines requests at 1000 rows each.
const maxKlinesPerRequest = 1000

type CandleRepository interface {
	GetCandles(ctx context.Context, symbol, interval string, start, end time.Time) (backtest.PriceSeries, error)
}

type candleRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	cache          cache.Cache
	requestLimiter *rate.Limiter
}

func NewCandleRepository(cfg *config.Config, c cache.Cache, log *logger.Logger) CandleRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Binance.MaxRequestPerMinute)

	return &candleRepository{
		httpClient:     httpclient.New(cfg.Binance.BaseURL, cfg.Binance.Timeout),
		cfg:            cfg,
		logger:         log,
		cache:          c,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

// GetCandles pages through the klines endpoint until the requested window is
// covered, returning candles in ascending time order.
func (r *candleRepository) GetCandles(ctx context.Context, symbol, interval string, start, end time.Time) (backtest.PriceSeries, error) {
	cacheKey := fmt.Sprintf("candles:%s:%s:%d:%d", symbol, interval, start.UnixMilli(), end.UnixMilli())
	if cached, ok := cache.GetTyped[backtest.PriceSeries](r.cache, cacheKey); ok {
		return cached, nil
	}

	var series backtest.PriceSeries
	cursor := start.UnixMilli()
	endMs := end.UnixMilli()

	for cursor < endMs {
		batch, err := r.fetchKlines(ctx, symbol, interval, cursor, endMs)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		series = append(series, batch...)
		last := batch[len(batch)-1].Timestamp.UnixMilli()
		if last <= cursor {
			break
		}
		cursor = last + 1

		if len(batch) < maxKlinesPerRequest {
			break
		}
	}

	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("binance returned unusable candle data for %s: %w", symbol, err)
	}

	r.cache.Set(cacheKey, series, r.cfg.Binance.CandleCacheTTL)
	return series, nil
}

func (r *candleRepository) fetchKlines(ctx context.Context, symbol, interval string, startMs, endMs int64) ([]backtest.Candle, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := "/api/v3/klines"
	queryParams := map[string]string{
		"symbol":    symbol,
		"interval":  interval,
		"limit":     strconv.Itoa(maxKlinesPerRequest),
		"startTime": strconv.FormatInt(startMs, 10),
		"endTime":   strconv.FormatInt(endMs, 10),
	}

	var klines [][]interface{}
	resp, err := r.httpClient.Get(ctx, endpoint, queryParams, nil, &klines)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch klines from binance: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("Binance API returned Non-OK status for klines",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)))
		return nil, fmt.Errorf("binance api returned status: %d", resp.StatusCode)
	}

	candles := make([]backtest.Candle, 0, len(klines))
	for _, k := range klines {
		if len(k) < 6 {
			continue
		}
		openTime, _ := k[0].(float64)
		open, _ := parseKlineFloat(k[1])
		high, _ := parseKlineFloat(k[2])
		low, _ := parseKlineFloat(k[3])
		closePrice, _ := parseKlineFloat(k[4])
		volume, _ := parseKlineFloat(k[5])

		candles = append(candles, backtest.Candle{
			Timestamp: time.UnixMilli(int64(openTime)).UTC(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		})
	}

	return candles, nil
}

// Binance encodes prices as strings inside the kline array.
func parseKlineFloat(v interface{}) (float64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected kline field type %T", v)
	}
	return strconv.ParseFloat(s, 64)
}
