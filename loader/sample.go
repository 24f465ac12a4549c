package loader

import (
	"math/rand"
	"sort"

	"tradedash/model"
)

// Sample は seed 固定で n 件を非復元抽出します。結果は元の並び順を保ちます。
// n が 0 以下、または件数以上の場合は全件をそのまま返します。
func Sample(records []model.TradeRecord, n int, seed int64) []model.TradeRecord {
	if n <= 0 || n >= len(records) {
		return records
	}
	rng := rand.New(rand.NewSource(seed))
	idx := rng.Perm(len(records))[:n]
	sort.Ints(idx)

	out := make([]model.TradeRecord, n)
	for i, j := range idx {
		out[i] = records[j]
	}
	return out
}
