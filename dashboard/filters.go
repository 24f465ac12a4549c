package dashboard

import (
	"net/url"
	"strconv"
	"strings"

	"tradedash/model"
)

// ParseFilters はクエリからフィルタ条件を組み立てます。
// 複数選択は同じ名前のパラメータの繰り返しで受け取り、値の中のカンマはそのまま残します。
// フォーム送信（applied=1）でない場合、項目が無ければ全選択とみなします。
// フォーム送信の場合、項目が無いのは「何も選んでいない」ことを意味します。
func ParseFilters(q url.Values) model.DashboardFilters {
	applied := q.Get("applied") == "1"

	list := func(name string) []string {
		raw, ok := q[name]
		if !ok {
			if applied {
				return []string{}
			}
			return nil
		}
		out := []string{}
		for _, v := range raw {
			if v != "" {
				out = append(out, v)
			}
		}
		return out
	}

	f := model.DashboardFilters{
		Categories:      list("category"),
		ImportExport:    list("import_export"),
		PaymentTerms:    list("payment_terms"),
		ShippingMethods: list("shipping_method"),
	}
	if years := list("year"); years != nil {
		f.Years = []int{}
		for _, y := range years {
			if n, err := strconv.Atoi(strings.TrimSpace(y)); err == nil {
				f.Years = append(f.Years, n)
			}
		}
	}
	return f
}
