package aggregation

import (
	"sort"
	"time"

	"tradedash/model"
)

const (
	ModeSum  = "sum"
	ModeMean = "mean"

	kdePoints = 200
)

func ScatterPoints(records []model.TradeRecord) []model.ScatterPoint {
	points := make([]model.ScatterPoint, len(records))
	for i, r := range records {
		points[i] = model.ScatterPoint{Quantity: r.Quantity, Value: r.Value}
	}
	return points
}

// HighValueShare は Value が q 分位点以上の取引の割合を求めます。
// 行が無い場合は 0% を返します。
func HighValueShare(records []model.TradeRecord, q float64) model.HighValueShare {
	share := model.HighValueShare{Quantile: q, Total: len(records)}
	if len(records) == 0 {
		return share
	}
	share.Threshold = Quantile(values(records, valueOf), q)
	for _, r := range records {
		if r.Value >= share.Threshold {
			share.HighCount++
		}
	}
	share.Percent = float64(share.HighCount) / float64(share.Total) * 100
	return share
}

// CountBy は field の値ごとの件数を、件数の多い順（同数は名前順）で返します。
func CountBy(records []model.TradeRecord, field func(model.TradeRecord) string) []model.CategoryCount {
	counts := make(map[string]int)
	for _, r := range records {
		counts[field(r)]++
	}
	result := make([]model.CategoryCount, 0, len(counts))
	for name, n := range counts {
		result = append(result, model.CategoryCount{Name: name, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Name < result[j].Name
	})
	return result
}

func CountByShippingMethod(records []model.TradeRecord) []model.CategoryCount {
	return CountBy(records, func(r model.TradeRecord) string { return r.ShippingMethod })
}

// ValueHistogram は Value を等幅 bins 個に分けた度数分布と、度数スケールの密度曲線を返します。
// 最後のビンだけ上端を含みます。全値が同じ場合は前後 0.5 の幅を取ります。
func ValueHistogram(records []model.TradeRecord, bins int) model.Histogram {
	h := model.Histogram{}
	if len(records) == 0 || bins < 1 {
		return h
	}
	vs := values(records, valueOf)
	lo, hi := minMax(vs)
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	width := (hi - lo) / float64(bins)

	h.Bins = make([]model.HistogramBin, bins)
	for i := range h.Bins {
		h.Bins[i].Lower = lo + width*float64(i)
		h.Bins[i].Upper = lo + width*float64(i+1)
	}
	h.Bins[bins-1].Upper = hi
	for _, v := range vs {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		h.Bins[idx].Count++
	}

	xs, ys := gaussianKDE(vs, lo, hi, kdePoints)
	if xs != nil {
		scale := float64(len(vs)) * width
		for i := range ys {
			ys[i] *= scale
		}
		h.DensityX, h.DensityY = xs, ys
	}
	return h
}

// WeightBoxStats はカテゴリごとの Weight の四分位・ひげ・外れ値を求めます。
// ひげは Q1-1.5IQR 〜 Q3+1.5IQR の範囲に入る最も外側のデータ点です。
func WeightBoxStats(records []model.TradeRecord) []model.BoxStats {
	byCategory := make(map[string][]float64)
	for _, r := range records {
		byCategory[r.Category] = append(byCategory[r.Category], weightOf(r))
	}

	result := make([]model.BoxStats, 0, len(byCategory))
	for category, ws := range byCategory {
		sort.Float64s(ws)
		b := model.BoxStats{
			Category: category,
			Count:    len(ws),
			Q1:       quantileSorted(ws, 0.25),
			Median:   quantileSorted(ws, 0.5),
			Q3:       quantileSorted(ws, 0.75),
		}
		iqr := b.Q3 - b.Q1
		lowFence, highFence := b.Q1-1.5*iqr, b.Q3+1.5*iqr

		b.WhiskerLow, b.WhiskerHigh = b.Q1, b.Q3
		for _, w := range ws {
			if w >= lowFence {
				b.WhiskerLow = w
				break
			}
		}
		for i := len(ws) - 1; i >= 0; i-- {
			if ws[i] <= highFence {
				b.WhiskerHigh = ws[i]
				break
			}
		}
		for _, w := range ws {
			if w < lowFence || w > highFence {
				b.Outliers = append(b.Outliers, w)
			}
		}
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Category < result[j].Category })
	return result
}

type monthKey struct {
	year  int
	month time.Month
}

// MonthlyTrend は月（byYear なら年月）ごとに Value を合計または平均します。
func MonthlyTrend(records []model.TradeRecord, mode string, byYear bool) []model.MonthlyPoint {
	sums := make(map[monthKey]float64)
	counts := make(map[monthKey]int)
	for _, r := range records {
		k := monthKey{month: r.Date.Month()}
		if byYear {
			k.year = r.Date.Year()
		}
		sums[k] += r.Value
		counts[k]++
	}

	result := make([]model.MonthlyPoint, 0, len(sums))
	for k, sum := range sums {
		p := model.MonthlyPoint{Year: k.year, Month: int(k.month), Value: sum, Count: counts[k]}
		if mode == ModeMean {
			p.Value = sum / float64(counts[k])
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year < result[j].Year
		}
		return result[i].Month < result[j].Month
	})
	return result
}

// BuildSummary は6つのチャートの集計をまとめて行います。
func BuildSummary(records []model.TradeRecord, opts model.SummaryOptions) model.DashboardSummary {
	mode := opts.MonthlyMode
	if mode != ModeMean {
		mode = ModeSum
	}
	return model.DashboardSummary{
		RowCount:       len(records),
		Scatter:        ScatterPoints(records),
		HighValue:      HighValueShare(records, opts.HighValueQuantile),
		ShippingCounts: CountByShippingMethod(records),
		ValueHistogram: ValueHistogram(records, opts.HistogramBins),
		WeightBoxes:    WeightBoxStats(records),
		Monthly:        MonthlyTrend(records, mode, opts.MonthlyByYear),
		MonthlyMode:    mode,
	}
}
