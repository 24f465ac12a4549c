package aggregation

import (
	"math"
	"sort"

	"tradedash/model"
)

// Quantile は線形補間で q 分位点を求めます（位置 = q*(n-1)）。
// 空のスライスでは NaN を返します。
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return quantileSorted(sorted, q)
}

func quantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func values(records []model.TradeRecord, field func(model.TradeRecord) float64) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = field(r)
	}
	return out
}

func valueOf(r model.TradeRecord) float64  { return r.Value }
func weightOf(r model.TradeRecord) float64 { return r.Weight }

func minMax(vs []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// sampleStdDev は不偏標準偏差（n-1 で割る）です。
func sampleStdDev(vs []float64) float64 {
	n := len(vs)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	mean := sum / float64(n)
	var ss float64
	for _, v := range vs {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// gaussianKDE はスコットの規則で帯域幅を決め、[lo, hi] を points 点で評価します。
func gaussianKDE(vs []float64, lo, hi float64, points int) (xs, ys []float64) {
	sd := sampleStdDev(vs)
	if sd == 0 || points < 2 || hi <= lo {
		return nil, nil
	}
	bw := sd * math.Pow(float64(len(vs)), -0.2)
	norm := 1 / (float64(len(vs)) * bw * math.Sqrt(2*math.Pi))

	xs = make([]float64, points)
	ys = make([]float64, points)
	step := (hi - lo) / float64(points-1)
	for i := 0; i < points; i++ {
		x := lo + step*float64(i)
		var sum float64
		for _, v := range vs {
			u := (x - v) / bw
			sum += math.Exp(-0.5 * u * u)
		}
		xs[i] = x
		ys[i] = sum * norm
	}
	return xs, ys
}
