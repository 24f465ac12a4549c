package charts

import (
	"fmt"
	"math"

	"tradedash/model"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// 各ビルダーは描画するデータがない場合に nil を返します。

func scatterChart(points []model.ScatterPoint) renderable {
	if len(points) == 0 {
		return nil
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.Quantity, p.Value
	}
	xMin, xMax := bounds(xs)
	yMin, yMax := bounds(ys)

	return &chart.Chart{
		Title:      Title(KindScatter),
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: baseStyle(),
		XAxis:      chart.XAxis{Name: "Quantity", Range: paddedRange(xMin, xMax)},
		YAxis:      chart.YAxis{Name: "Value", Range: paddedRange(yMin, yMax)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name: "Quantity vs. Value",
				Style: chart.Style{
					StrokeColor: drawing.ColorTransparent,
					DotWidth:    3,
					DotColor:    colorScatter.WithAlpha(180),
				},
				XValues: xs,
				YValues: ys,
			},
		},
	}
}

func highValuePie(share model.HighValueShare) renderable {
	if share.Total == 0 {
		return nil
	}
	others := 100 - share.Percent
	var values []chart.Value
	if share.Percent > 0 {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("High Value %.1f%%", share.Percent),
			Value: share.Percent,
			Style: chart.Style{FillColor: colorHighValue, FontColor: drawing.ColorWhite},
		})
	}
	if others > 0 {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("Others %.1f%%", others),
			Value: others,
			Style: chart.Style{FillColor: colorOthers},
		})
	}
	return &chart.PieChart{
		Title:      Title(KindHighValue),
		Width:      defaultHeight,
		Height:     defaultHeight,
		Background: baseStyle(),
		Values:     values,
	}
}

func shippingBar(counts []model.CategoryCount, text func(string) string) renderable {
	if len(counts) == 0 {
		return nil
	}
	bars := make([]chart.Value, len(counts))
	maxCount := 0
	for i, c := range counts {
		bars[i] = chart.Value{
			Label: text(c.Name),
			Value: float64(c.Count),
			Style: chart.Style{FillColor: colorBar, StrokeColor: colorBar},
		}
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}
	return &chart.BarChart{
		Title:      Title(KindShipping),
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: baseStyle(),
		BarWidth:   60,
		XAxis:      chart.Style{TextRotationDegrees: 45},
		YAxis: chart.YAxis{
			Name:  "Count",
			Range: &chart.ContinuousRange{Min: 0, Max: math.Max(1, float64(maxCount)*1.1)},
		},
		Bars: bars,
	}
}

// valueHistogram はビンを階段状の塗りつぶし系列として描き、密度曲線を重ねます。
func valueHistogram(h model.Histogram) renderable {
	if len(h.Bins) == 0 {
		return nil
	}
	var xs, ys []float64
	maxY := 0.0
	for _, b := range h.Bins {
		c := float64(b.Count)
		xs = append(xs, b.Lower, b.Lower, b.Upper, b.Upper)
		ys = append(ys, 0, c, c, 0)
		maxY = math.Max(maxY, c)
	}
	for _, y := range h.DensityY {
		maxY = math.Max(maxY, y)
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name: "Frequency",
			Style: chart.Style{
				StrokeColor: colorHistogram,
				StrokeWidth: 1,
				FillColor:   colorHistogram.WithAlpha(180),
			},
			XValues: xs,
			YValues: ys,
		},
	}
	if len(h.DensityX) > 1 {
		series = append(series, chart.ContinuousSeries{
			Name:    "Density",
			Style:   chart.Style{StrokeColor: colorDensity, StrokeWidth: 2},
			XValues: h.DensityX,
			YValues: h.DensityY,
		})
	}

	return &chart.Chart{
		Title:      Title(KindHistogram),
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: baseStyle(),
		XAxis: chart.XAxis{
			Name:  "Transaction Value",
			Range: &chart.ContinuousRange{Min: h.Bins[0].Lower, Max: h.Bins[len(h.Bins)-1].Upper},
		},
		YAxis: chart.YAxis{
			Name:  "Frequency",
			Range: &chart.ContinuousRange{Min: 0, Max: math.Max(1, maxY*1.1)},
		},
		Series: series,
	}
}

// weightBox はカテゴリごとに箱・中央値・ひげ・外れ値を線分の系列として描きます。
func weightBox(boxes []model.BoxStats, text func(string) string) renderable {
	if len(boxes) == 0 {
		return nil
	}
	const half = 0.3
	var series []chart.Series
	var ticks []chart.Tick
	lo, hi := math.Inf(1), math.Inf(-1)

	segment := func(name string, col drawing.Color, width float64, xs, ys []float64) {
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			Style:   chart.Style{StrokeColor: col, StrokeWidth: width},
			XValues: xs,
			YValues: ys,
		})
	}

	for i, b := range boxes {
		x := float64(i)
		col := pastel[i%len(pastel)]
		name := text(b.Category)
		ticks = append(ticks, chart.Tick{Value: x, Label: name})

		segment(name, col.WithAlpha(255), 3,
			[]float64{x - half, x + half, x + half, x - half, x - half},
			[]float64{b.Q1, b.Q1, b.Q3, b.Q3, b.Q1})
		segment(name+" median", colorMedian, 2,
			[]float64{x - half, x + half}, []float64{b.Median, b.Median})
		segment(name+" lower whisker", colorMedian, 1,
			[]float64{x, x}, []float64{b.WhiskerLow, b.Q1})
		segment(name+" upper whisker", colorMedian, 1,
			[]float64{x, x}, []float64{b.Q3, b.WhiskerHigh})

		if len(b.Outliers) > 0 {
			ox := make([]float64, len(b.Outliers))
			for j := range ox {
				ox[j] = x
			}
			series = append(series, chart.ContinuousSeries{
				Name:    name + " outliers",
				Style:   chart.Style{StrokeColor: drawing.ColorTransparent, DotWidth: 3, DotColor: colorMedian},
				XValues: ox,
				YValues: b.Outliers,
			})
		}

		bl, bh := b.WhiskerLow, b.WhiskerHigh
		for _, o := range b.Outliers {
			bl, bh = math.Min(bl, o), math.Max(bh, o)
		}
		lo, hi = math.Min(lo, bl), math.Max(hi, bh)
	}

	return &chart.Chart{
		Title:      Title(KindWeightBox),
		Width:      defaultWidth + 200,
		Height:     defaultHeight,
		Background: baseStyle(),
		XAxis: chart.XAxis{
			Name:      "Category",
			Range:     &chart.ContinuousRange{Min: -0.5, Max: float64(len(boxes)) - 0.5},
			Ticks:     framedTicks(ticks, len(boxes)),
			TickStyle: chart.Style{TextRotationDegrees: 45},
		},
		YAxis:  chart.YAxis{Name: "Weight", Range: paddedRange(lo, hi)},
		Series: series,
	}
}

func monthlyLine(points []model.MonthlyPoint, mode string) renderable {
	if len(points) == 0 {
		return nil
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	ticks := make([]chart.Tick, len(points))
	for i, p := range points {
		xs[i] = float64(i)
		ys[i] = p.Value
		ticks[i] = chart.Tick{Value: float64(i), Label: p.Label()}
	}
	yMin, yMax := bounds(ys)

	yName := "Total Value"
	if mode == "mean" {
		yName = "Average Value"
	}
	xRange := &chart.ContinuousRange{Min: -0.5, Max: float64(len(points)) - 0.5}

	return &chart.Chart{
		Title:      Title(KindMonthly),
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: baseStyle(),
		XAxis:      chart.XAxis{Name: "Month", Range: xRange, Ticks: framedTicks(ticks, len(points))},
		YAxis:      chart.YAxis{Name: yName, Range: paddedRange(math.Min(0, yMin), yMax)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    yName,
				Style:   chart.Style{StrokeColor: colorLine, StrokeWidth: 2, DotWidth: 4, DotColor: colorLine},
				XValues: xs,
				YValues: ys,
			},
		},
	}
}

// framedTicks は 0..n-1 の目盛りの両端に空ラベルの目盛りを足します。
// go-chart は Ticks があると X 軸の範囲を目盛りの最小・最大で置き換えるため、
// 1項目だけでも幅が 0 にならないようにします。
func framedTicks(ticks []chart.Tick, n int) []chart.Tick {
	out := make([]chart.Tick, 0, len(ticks)+2)
	out = append(out, chart.Tick{Value: -0.5})
	out = append(out, ticks...)
	return append(out, chart.Tick{Value: float64(n) - 0.5})
}

func bounds(vs []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return lo, hi
}
