package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

type Config struct {
	DataPath          string  `json:"data_path"`
	Encoding          string  `json:"encoding"`
	DBPath            string  `json:"db_path"`
	ListenAddr        string  `json:"listen_addr"`
	SampleSize        int     `json:"sample_size"`
	SampleSeed        int64   `json:"sample_seed"`
	HighValueQuantile float64 `json:"high_value_quantile"`
	HistogramBins     int     `json:"histogram_bins"`
	MonthlyMode       string  `json:"monthly_mode"`
	MonthlyByYear     bool    `json:"monthly_by_year"`
	DatePolicy        string  `json:"date_policy"`
	FailFast          bool    `json:"fail_fast"`
	ChartFormat       string  `json:"chart_format"`
	LogLevel          string  `json:"log_level"`
}

const (
	MonthlySum  = "sum"
	MonthlyMean = "mean"

	DatePolicyDrop   = "drop"
	DatePolicyStrict = "strict"

	ChartSVG = "svg"
	ChartPNG = "png"
)

var (
	cfg      = Defaults()
	mu       sync.RWMutex
	filePath = "./tradedash_config.json"
)

// Defaults は設定ファイルがない場合の既定値です。
func Defaults() Config {
	return Config{
		DataPath:          "Imports_Exports_Dataset.csv",
		Encoding:          "utf-8",
		DBPath:            "./tradedash.db?_journal_mode=WAL&_busy_timeout=5000",
		ListenAddr:        ":8080",
		SampleSize:        1000,
		SampleSeed:        42,
		HighValueQuantile: 0.90,
		HistogramBins:     30,
		MonthlyMode:       MonthlySum,
		DatePolicy:        DatePolicyDrop,
		ChartFormat:       ChartSVG,
		LogLevel:          "info",
	}
}

// SetPath は設定ファイルの場所を変更します（--config フラグ用）。
func SetPath(path string) {
	mu.Lock()
	defer mu.Unlock()
	filePath = path
}

func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return filePath
}

// LoadConfig は設定ファイルを読み込みます。ファイルがなければ既定値を返します。
func LoadConfig() (Config, error) {
	mu.Lock()
	defer mu.Unlock()

	file, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = Defaults()
			return cfg, nil
		}
		return Config{}, err
	}

	tempCfg := Defaults()
	if err := json.Unmarshal(file, &tempCfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	applyDefaults(&tempCfg)
	if err := Validate(tempCfg); err != nil {
		return Config{}, err
	}
	cfg = tempCfg
	return cfg, nil
}

func SaveConfig(newCfg Config) error {
	applyDefaults(&newCfg)
	if err := Validate(newCfg); err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	file, err := json.MarshalIndent(newCfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(filePath, file, 0644); err != nil {
		return err
	}
	cfg = newCfg
	return nil
}

func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// SetConfig は保存せずにメモリ上の設定だけを差し替えます。
func SetConfig(newCfg Config) {
	applyDefaults(&newCfg)
	mu.Lock()
	defer mu.Unlock()
	cfg = newCfg
}

// Validate は値の範囲とモード名を検証します。
func Validate(c Config) error {
	if c.HighValueQuantile <= 0 || c.HighValueQuantile >= 1 {
		return fmt.Errorf("high_value_quantile must be between 0 and 1 (exclusive), got %g", c.HighValueQuantile)
	}
	if c.HistogramBins < 1 {
		return fmt.Errorf("histogram_bins must be at least 1, got %d", c.HistogramBins)
	}
	if c.SampleSize < 0 {
		return fmt.Errorf("sample_size must not be negative, got %d", c.SampleSize)
	}
	switch c.MonthlyMode {
	case MonthlySum, MonthlyMean:
	default:
		return fmt.Errorf("unknown monthly_mode %q", c.MonthlyMode)
	}
	switch c.DatePolicy {
	case DatePolicyDrop, DatePolicyStrict:
	default:
		return fmt.Errorf("unknown date_policy %q", c.DatePolicy)
	}
	switch c.ChartFormat {
	case ChartSVG, ChartPNG:
	default:
		return fmt.Errorf("unknown chart_format %q", c.ChartFormat)
	}
	return nil
}

func applyDefaults(c *Config) {
	d := Defaults()
	if c.Encoding == "" {
		c.Encoding = d.Encoding
	}
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
	if c.ListenAddr == "" {
		c.ListenAddr = d.ListenAddr
	}
	if c.HighValueQuantile == 0 {
		c.HighValueQuantile = d.HighValueQuantile
	}
	if c.HistogramBins == 0 {
		c.HistogramBins = d.HistogramBins
	}
	if c.MonthlyMode == "" {
		c.MonthlyMode = d.MonthlyMode
	}
	if c.DatePolicy == "" {
		c.DatePolicy = d.DatePolicy
	}
	if c.ChartFormat == "" {
		c.ChartFormat = d.ChartFormat
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}
