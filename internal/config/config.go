package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config collects every tunable of the service. Thresholds deliberately live
// here and nowhere else: the deployed values have drifted between variants of
// this strategy before, so nothing numeric is allowed to hide in a package
// constant.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	MarketData MarketDataConfig `yaml:"market_data"`
	Screener   ScreenerConfig   `yaml:"screener"`
	Pattern    PatternConfig    `yaml:"pattern"`
	Notify     NotifyConfig     `yaml:"notify"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Pretty bool   `yaml:"pretty"` // console writer instead of JSON
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL string `yaml:"url"` // empty disables the redis snapshot mirror
}

type MarketDataConfig struct {
	BaseURL      string   `yaml:"base_url"`
	Symbols      []string `yaml:"symbols"`
	LookbackDays int      `yaml:"lookback_days"`
}

// ScreenerConfig holds the momentum screening gates.
type ScreenerConfig struct {
	MAWindow        int     `yaml:"ma_window"`         // trend moving average window
	TrendBars       int     `yaml:"trend_bars"`        // recent bars the trend gates inspect
	LiquidityBars   int     `yaml:"liquidity_bars"`    // recent bars the liquidity/range gates inspect
	MinBars         int     `yaml:"min_bars"`          // symbols with fewer bars are skipped
	SharesPerLot    float64 `yaml:"shares_per_lot"`    // board lot size
	MinAvgLots      float64 `yaml:"min_avg_lots"`      // liquidity gate, in lots
	MinAvgRange     float64 `yaml:"min_avg_range"`     // range gate, absolute price units
	SlopeMax        float64 `yaml:"slope_max"`         // reject slope >= this
	SlopeSplit      float64 `yaml:"slope_split"`       // group A/B boundary
	VolatilityMax   float64 `yaml:"volatility_max"`    // percent
	BaseMaxDistance float64 `yaml:"base_max_distance"` // percent floor of the adaptive distance cap
	DistanceVolMult float64 `yaml:"distance_vol_mult"` // adaptive distance multiplier on volatility
	GroupCap        int     `yaml:"group_cap"`         // max symbols per group
	Workers         int     `yaml:"workers"`           // per-symbol concurrency
	IntervalMinutes int     `yaml:"interval_minutes"`  // screening cycle period
}

// PatternConfig holds the consolidation / breakdown / reclaim thresholds.
type PatternConfig struct {
	ATRPeriod     int     `yaml:"atr_period"`
	BoxWindow     int     `yaml:"box_window"`
	RangePctMax   float64 `yaml:"range_pct_max"`  // box range / close upper bound
	ATRPctMax     float64 `yaml:"atr_pct_max"`    // ATR / close upper bound
	BreakdownKATR float64 `yaml:"breakdown_k_atr"`
	ReclaimMaxLag int     `yaml:"reclaim_max_lag"`
}

type NotifyConfig struct {
	Enabled         bool `yaml:"enabled"`
	CooldownMinutes int  `yaml:"cooldown_minutes"`
}

// Default returns the reference thresholds of the live deployment.
func Default() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080"},
		Logging: LoggingConfig{Level: "info"},
		MarketData: MarketDataConfig{
			LookbackDays: 120,
		},
		Screener: ScreenerConfig{
			MAWindow:        20,
			TrendBars:       5,
			LiquidityBars:   10,
			MinBars:         10,
			SharesPerLot:    1000,
			MinAvgLots:      1000,
			MinAvgRange:     1.0,
			SlopeMax:        1.0,
			SlopeSplit:      0.5,
			VolatilityMax:   5.0,
			BaseMaxDistance: 2.0,
			DistanceVolMult: 1.5,
			GroupCap:        6,
			Workers:         8,
			IntervalMinutes: 60 * 24,
		},
		Pattern: PatternConfig{
			ATRPeriod:     14,
			BoxWindow:     20,
			RangePctMax:   0.08,
			ATRPctMax:     0.025,
			BreakdownKATR: 0.5,
			ReclaimMaxLag: 2,
		},
		Notify: NotifyConfig{Enabled: true, CooldownMinutes: 120},
	}
}

// Load builds the config from defaults, an optional yaml file (path argument,
// or CONFIG_PATH when empty), then environment overrides, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setBool(&c.Logging.Pretty, "LOG_PRETTY")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.MarketData.BaseURL, "MARKET_DATA_URL")
	setInt(&c.MarketData.LookbackDays, "LOOKBACK_DAYS")
	if v := strings.TrimSpace(os.Getenv("SYMBOLS")); v != "" {
		var symbols []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, s)
			}
		}
		c.MarketData.Symbols = symbols
	}

	setInt(&c.Screener.MAWindow, "SCREENER_MA_WINDOW")
	setFloat(&c.Screener.MinAvgLots, "SCREENER_MIN_AVG_LOTS")
	setFloat(&c.Screener.MinAvgRange, "SCREENER_MIN_AVG_RANGE")
	setFloat(&c.Screener.SlopeMax, "SCREENER_SLOPE_MAX")
	setFloat(&c.Screener.SlopeSplit, "SCREENER_SLOPE_SPLIT")
	setFloat(&c.Screener.VolatilityMax, "SCREENER_VOLATILITY_MAX")
	setInt(&c.Screener.GroupCap, "SCREENER_GROUP_CAP")
	setInt(&c.Screener.Workers, "SCREENER_WORKERS")
	setInt(&c.Screener.IntervalMinutes, "SCREENER_INTERVAL_MINUTES")

	setInt(&c.Pattern.ATRPeriod, "PATTERN_ATR_PERIOD")
	setInt(&c.Pattern.BoxWindow, "PATTERN_BOX_WINDOW")
	setFloat(&c.Pattern.RangePctMax, "PATTERN_RANGE_PCT_MAX")
	setFloat(&c.Pattern.ATRPctMax, "PATTERN_ATR_PCT_MAX")
	setFloat(&c.Pattern.BreakdownKATR, "PATTERN_BREAKDOWN_K_ATR")
	setInt(&c.Pattern.ReclaimMaxLag, "PATTERN_RECLAIM_MAX_LAG")

	setBool(&c.Notify.Enabled, "NOTIFY_ENABLED")
	setInt(&c.Notify.CooldownMinutes, "NOTIFY_COOLDOWN_MINUTES")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = strings.EqualFold(v, "true") || v == "1"
	}
}
