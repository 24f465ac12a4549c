package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// 日付は ISO 形式の文字列で保持し、年は絞り込み用に別列へ持たせます。
const schemaSQL = `
CREATE TABLE IF NOT EXISTS datasets (
	id              TEXT PRIMARY KEY,
	source_path     TEXT NOT NULL,
	source_size     INTEGER NOT NULL,
	source_mod_time TEXT NOT NULL,
	encoding        TEXT NOT NULL DEFAULT 'utf-8',
	sample_size     INTEGER NOT NULL,
	sample_seed     INTEGER NOT NULL,
	date_policy     TEXT NOT NULL,
	total_rows      INTEGER NOT NULL,
	kept_rows       INTEGER NOT NULL,
	dropped_rows    INTEGER NOT NULL,
	loaded_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_datasets_source_path ON datasets (source_path);

CREATE TABLE IF NOT EXISTS trade_records (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	dataset_id      TEXT NOT NULL,
	quantity        REAL NOT NULL,
	value           REAL NOT NULL,
	weight          REAL NOT NULL,
	category        TEXT NOT NULL,
	shipping_method TEXT NOT NULL,
	import_export   TEXT NOT NULL,
	payment_terms   TEXT NOT NULL,
	trade_date      TEXT NOT NULL,
	trade_year      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trade_records_dataset ON trade_records (dataset_id);
`

// ApplySchema はテーブルが無ければ作成し、古いDBファイルには不足している列を追加します。
func ApplySchema(db *sqlx.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return addColumnIfMissing(db, "datasets", "encoding", `TEXT NOT NULL DEFAULT 'utf-8'`)
}

func addColumnIfMissing(db *sqlx.DB, table, column, definition string) error {
	var columns []struct {
		CID        int     `db:"cid"`
		Name       string  `db:"name"`
		Type       string  `db:"type"`
		NotNull    int     `db:"notnull"`
		Default    *string `db:"dflt_value"`
		PrimaryKey int     `db:"pk"`
	}
	if err := db.Select(&columns, fmt.Sprintf("PRAGMA table_info(%s)", table)); err != nil {
		return fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	for _, c := range columns {
		if c.Name == column {
			return nil
		}
	}
	if _, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)); err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}
	return nil
}
