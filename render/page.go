package render

import (
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"

	"tradedash/charts"
	"tradedash/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/dashboard.html"))

// ChartPanel は1つのチャートの表示用データです。
type ChartPanel struct {
	Heading string
	Body    template.HTML
}

// PageData はダッシュボード画面のテンプレート入力です。
type PageData struct {
	Title    string
	Warning  string
	Dataset  *model.Dataset
	RowCount int
	Sidebar  template.HTML
	Panels   []ChartPanel
}

// NewChartPanels はチャート画像を画面に埋め込める形に変換します。
// SVG はそのまま、PNG は data URI の img 要素にします。
func NewChartPanels(images []charts.Image) []ChartPanel {
	panels := make([]ChartPanel, len(images))
	for i, img := range images {
		var body template.HTML
		if img.ContentType == "image/png" {
			body = template.HTML(fmt.Sprintf(`<img alt="%s" src="data:image/png;base64,%s">`,
				template.HTMLEscapeString(img.Title), base64.StdEncoding.EncodeToString(img.Data)))
		} else {
			body = template.HTML(img.Data)
		}
		panels[i] = ChartPanel{
			Heading: fmt.Sprintf("%d. %s", i+1, img.Title),
			Body:    body,
		}
	}
	return panels
}

// RenderPage はダッシュボード全体のHTMLを書き出します。
func RenderPage(w io.Writer, data PageData) error {
	if data.Title == "" {
		data.Title = "Imports and Exports Dashboard"
	}
	return pageTemplate.ExecuteTemplate(w, "dashboard.html", data)
}
