package render

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"tradedash/model"
)

type selectField struct {
	Name     string
	Label    string
	Options  []string
	Selected []string
}

func selectedSet(selected []string, all []string) map[string]bool {
	set := make(map[string]bool)
	// nil は全選択として扱います
	if selected == nil {
		selected = all
	}
	for _, s := range selected {
		set[s] = true
	}
	return set
}

func yearStrings(years []int) []string {
	if years == nil {
		return nil
	}
	out := make([]string, len(years))
	for i, y := range years {
		out[i] = strconv.Itoa(y)
	}
	return out
}

// RenderFilterSidebarHTML はサイドバーの複数選択フォームのHTMLを生成します。
func RenderFilterSidebarHTML(opts model.FilterOptions, filters model.DashboardFilters) string {
	fields := []selectField{
		{Name: "category", Label: "Select Category", Options: opts.Categories, Selected: filters.Categories},
		{Name: "import_export", Label: "Select Import/Export", Options: opts.ImportExport, Selected: filters.ImportExport},
		{Name: "payment_terms", Label: "Select Payment Terms", Options: opts.PaymentTerms, Selected: filters.PaymentTerms},
		{Name: "shipping_method", Label: "Select Shipping Method", Options: opts.ShippingMethods, Selected: filters.ShippingMethods},
		{Name: "year", Label: "Select Year", Options: yearStrings(opts.Years), Selected: yearStrings(filters.Years)},
	}

	var sb strings.Builder
	sb.WriteString(`<form class="filters" method="get" action="/">`)
	sb.WriteString(`<input type="hidden" name="applied" value="1">`)
	for _, f := range fields {
		set := selectedSet(f.Selected, f.Options)
		size := len(f.Options)
		if size > 8 {
			size = 8
		}
		if size < 2 {
			size = 2
		}
		sb.WriteString(`<div class="filter">`)
		sb.WriteString(fmt.Sprintf(`<label for="f-%s">%s</label>`, f.Name, html.EscapeString(f.Label)))
		sb.WriteString(fmt.Sprintf(`<select id="f-%s" name="%s" multiple size="%d">`, f.Name, f.Name, size))
		for _, o := range f.Options {
			esc := html.EscapeString(o)
			if set[o] {
				sb.WriteString(fmt.Sprintf(`<option value="%s" selected>%s</option>`, esc, esc))
			} else {
				sb.WriteString(fmt.Sprintf(`<option value="%s">%s</option>`, esc, esc))
			}
		}
		sb.WriteString(`</select></div>`)
	}
	sb.WriteString(`<button type="submit">Apply</button> <a href="/">Reset</a>`)
	sb.WriteString(`</form>`)
	return sb.String()
}
