package charts

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"tradedash/model"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type Kind string

const (
	KindScatter   Kind = "scatter"
	KindHighValue Kind = "high-value"
	KindShipping  Kind = "shipping"
	KindHistogram Kind = "histogram"
	KindWeightBox Kind = "weight-box"
	KindMonthly   Kind = "monthly"
)

// Kinds は画面に並べる順番です。
var Kinds = []Kind{KindScatter, KindHighValue, KindShipping, KindHistogram, KindWeightBox, KindMonthly}

const (
	FormatSVG = "svg"
	FormatPNG = "png"

	defaultWidth  = 800
	defaultHeight = 480
)

var titles = map[Kind]string{
	KindScatter:   "Scatter Plot of Quantity vs. Value",
	KindHighValue: "Percentage of High-Value Transactions",
	KindShipping:  "Bar Plot of Shipping Methods",
	KindHistogram: "Transaction Value Distribution",
	KindWeightBox: "Weight Distribution per Product Category",
	KindMonthly:   "Monthly Transaction Trends",
}

var (
	colorScatter   = drawing.ColorFromHex("1f77b4")
	colorHighValue = drawing.ColorFromHex("800080")
	colorOthers    = drawing.ColorFromHex("FFC0CB")
	colorBar       = drawing.ColorFromHex("d62728")
	colorHistogram = drawing.ColorFromHex("2ca02c")
	colorDensity   = drawing.ColorFromHex("4a90c8")
	colorLine      = drawing.ColorFromHex("e377c2")
	colorMedian    = drawing.ColorFromHex("333333")

	// 箱ひげ図用のパステル調パレット
	pastel = []drawing.Color{
		drawing.ColorFromHex("a1c9f4"), drawing.ColorFromHex("ffb482"), drawing.ColorFromHex("8de5a1"),
		drawing.ColorFromHex("ff9f9b"), drawing.ColorFromHex("d0bbff"), drawing.ColorFromHex("debb9b"),
		drawing.ColorFromHex("fab0e4"), drawing.ColorFromHex("cfcfcf"), drawing.ColorFromHex("fffea3"),
		drawing.ColorFromHex("b9f2f0"),
	}
)

func Title(k Kind) string {
	return titles[k]
}

// ParseKind は URL などから受け取った名前をチャート種別に変換します。
func ParseKind(name string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}

type Image struct {
	Kind        Kind
	Title       string
	ContentType string
	Data        []byte
	// Empty は表示できるデータがなくプレースホルダーを描いたことを示します。
	Empty bool
}

// Render は集計結果から1つのチャートを描画します。
func Render(k Kind, s model.DashboardSummary, format string) (Image, error) {
	if format != FormatPNG {
		format = FormatSVG
	}
	img := Image{Kind: k, Title: Title(k), ContentType: contentType(format)}

	var r renderable
	switch k {
	case KindScatter:
		r = scatterChart(s.Scatter)
	case KindHighValue:
		r = highValuePie(s.HighValue)
	case KindShipping:
		r = shippingBar(s.ShippingCounts, textFor(format))
	case KindHistogram:
		r = valueHistogram(s.ValueHistogram)
	case KindWeightBox:
		r = weightBox(s.WeightBoxes, textFor(format))
	case KindMonthly:
		r = monthlyLine(s.Monthly, s.MonthlyMode)
	default:
		return img, fmt.Errorf("unknown chart kind %q", k)
	}

	if r == nil {
		data, err := placeholder(img.Title, format)
		if err != nil {
			return img, err
		}
		img.Data, img.Empty = data, true
		return img, nil
	}

	var buf bytes.Buffer
	if err := r.Render(provider(format), &buf); err != nil {
		return img, fmt.Errorf("failed to render %s chart: %w", k, err)
	}
	img.Data = buf.Bytes()
	return img, nil
}

// RenderAll は6つのチャートを決まった順番で描画します。
// 描画に失敗したチャートはプレースホルダーに置き換え、エラーはまとめて返します。
// 返す画像は常に len(Kinds) 枚です。
func RenderAll(s model.DashboardSummary, format string) ([]Image, error) {
	images := make([]Image, 0, len(Kinds))
	var errs []error
	for _, k := range Kinds {
		img, err := Render(k, s, format)
		if err != nil {
			errs = append(errs, err)
			data, perr := placeholder(img.Title, format)
			if perr != nil {
				return nil, errors.Join(append(errs, perr)...)
			}
			img.Data, img.Empty = data, true
		}
		images = append(images, img)
	}
	return images, errors.Join(errs...)
}

type renderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

func provider(format string) chart.RendererProvider {
	if format == FormatPNG {
		return chart.PNG
	}
	return chart.SVG
}

// textFor はデータ由来の文字列をラベルにする変換を返します。
// go-chart の SVG は <text> の中身をそのまま書き出すため、SVG ではエスケープします。
func textFor(format string) func(string) string {
	if format == FormatPNG {
		return func(s string) string { return s }
	}
	return html.EscapeString
}

func contentType(format string) string {
	if format == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// paddedRange は描画範囲の幅が 0 にならないように余白を付けます。
func paddedRange(lo, hi float64) *chart.ContinuousRange {
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) || math.IsNaN(lo) || math.IsNaN(hi) {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	if lo == hi {
		pad := math.Abs(lo) * 0.1
		if pad == 0 {
			pad = 1
		}
		return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func baseStyle() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}}
}

func placeholder(title, format string) ([]byte, error) {
	if format == FormatPNG {
		img := image.NewRGBA(image.Rect(0, 0, defaultWidth, defaultHeight))
		for y := 0; y < defaultHeight; y++ {
			for x := 0; x < defaultWidth; x++ {
				img.Set(x, y, color.White)
			}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">`+
		`<rect width="100%%" height="100%%" fill="#ffffff"/>`+
		`<text x="50%%" y="50%%" text-anchor="middle" font-family="sans-serif" font-size="16" fill="#888888">%s: No data</text>`+
		`</svg>`, defaultWidth, defaultHeight, html.EscapeString(title))
	return []byte(svg), nil
}
