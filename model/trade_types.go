package model

import "time"

// TradeRecord は輸出入データセットの1行分の取引です。
type TradeRecord struct {
	ID             int64     `db:"id" json:"id"`
	DatasetID      string    `db:"dataset_id" json:"-"`
	Quantity       float64   `db:"quantity" json:"quantity"`
	Value          float64   `db:"value" json:"value"`
	Weight         float64   `db:"weight" json:"weight"`
	Category       string    `db:"category" json:"category"`
	ShippingMethod string    `db:"shipping_method" json:"shippingMethod"`
	ImportExport   string    `db:"import_export" json:"importExport"`
	PaymentTerms   string    `db:"payment_terms" json:"paymentTerms"`
	Date           time.Time `db:"trade_date" json:"date"`
}

// Dataset は読み込み済みCSVのメタ情報です。
// 同じファイル・同じサンプリング条件なら再読込せずにこの行を再利用します。
type Dataset struct {
	ID            string    `db:"id" json:"id"`
	SourcePath    string    `db:"source_path" json:"sourcePath"`
	SourceSize    int64     `db:"source_size" json:"sourceSize"`
	SourceModTime time.Time `db:"source_mod_time" json:"sourceModTime"`
	Encoding      string    `db:"encoding" json:"encoding"`
	SampleSize    int       `db:"sample_size" json:"sampleSize"`
	SampleSeed    int64     `db:"sample_seed" json:"sampleSeed"`
	DatePolicy    string    `db:"date_policy" json:"datePolicy"`
	TotalRows     int       `db:"total_rows" json:"totalRows"`
	KeptRows      int       `db:"kept_rows" json:"keptRows"`
	DroppedRows   int       `db:"dropped_rows" json:"droppedRows"`
	LoadedAt      time.Time `db:"loaded_at" json:"loadedAt"`
}

// DatasetKey はメモ化された読込を引くためのキーです。
type DatasetKey struct {
	SourcePath    string
	SourceSize    int64
	SourceModTime time.Time
	Encoding      string
	SampleSize    int
	SampleSeed    int64
	DatePolicy    string
}
