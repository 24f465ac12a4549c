package model

import "strconv"

// DashboardFilters はサイドバーの複数選択フィルタです。
// nil のスライスは「条件なし（全選択）」、空スライスは「何も選択していない」を表します。
type DashboardFilters struct {
	Categories      []string
	ImportExport    []string
	PaymentTerms    []string
	ShippingMethods []string
	Years           []int
}

// FilterOptions は各フィルタの選択肢です。
type FilterOptions struct {
	Categories      []string `json:"categories"`
	ImportExport    []string `json:"importExport"`
	PaymentTerms    []string `json:"paymentTerms"`
	ShippingMethods []string `json:"shippingMethods"`
	Years           []int    `json:"years"`
}

type ScatterPoint struct {
	Quantity float64 `json:"quantity"`
	Value    float64 `json:"value"`
}

// HighValueShare は高額取引（Value が分位点以上）の割合です。
type HighValueShare struct {
	Quantile  float64 `json:"quantile"`
	Threshold float64 `json:"threshold"`
	HighCount int     `json:"highCount"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram は Value の度数分布とカーネル密度推定の曲線です。
// Density は度数と同じスケールに換算済みです。
type Histogram struct {
	Bins     []HistogramBin `json:"bins"`
	DensityX []float64      `json:"densityX"`
	DensityY []float64      `json:"densityY"`
}

// BoxStats はカテゴリ別の Weight の箱ひげ図用統計量です。
type BoxStats struct {
	Category    string    `json:"category"`
	Count       int       `json:"count"`
	Q1          float64   `json:"q1"`
	Median      float64   `json:"median"`
	Q3          float64   `json:"q3"`
	WhiskerLow  float64   `json:"whiskerLow"`
	WhiskerHigh float64   `json:"whiskerHigh"`
	Outliers    []float64 `json:"outliers"`
}

// MonthlyPoint は月別集計の1点です。年別集計しない場合 Year は 0 です。
type MonthlyPoint struct {
	Year  int     `json:"year,omitempty"`
	Month int     `json:"month"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// Label はX軸の表示用ラベルを返します。
func (p MonthlyPoint) Label() string {
	months := [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	name := ""
	if p.Month >= 1 && p.Month <= 12 {
		name = months[p.Month-1]
	}
	if p.Year == 0 {
		return name
	}
	return name + " " + strconv.Itoa(p.Year)
}

// SummaryOptions は集計パラメータです。
type SummaryOptions struct {
	HighValueQuantile float64
	HistogramBins     int
	MonthlyMode       string
	MonthlyByYear     bool
}

// DashboardSummary は6つのチャートの元データをまとめたものです。
type DashboardSummary struct {
	RowCount       int             `json:"rowCount"`
	Scatter        []ScatterPoint  `json:"scatter"`
	HighValue      HighValueShare  `json:"highValue"`
	ShippingCounts []CategoryCount `json:"shippingCounts"`
	ValueHistogram Histogram       `json:"valueHistogram"`
	WeightBoxes    []BoxStats      `json:"weightBoxes"`
	Monthly        []MonthlyPoint  `json:"monthly"`
	MonthlyMode    string          `json:"monthlyMode"`
}
