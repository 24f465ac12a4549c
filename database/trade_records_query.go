package database

import (
	"context"
	"fmt"
	"time"

	"tradedash/model"

	"github.com/jmoiron/sqlx"
)

const storedDateLayout = "2006-01-02"

const TradeColumns = `id, dataset_id, quantity, value, weight, category, shipping_method,
	import_export, payment_terms, trade_date`

func ScanTradeRecord(row interface{ Scan(...interface{}) error }) (*model.TradeRecord, error) {
	var r model.TradeRecord
	var date string
	err := row.Scan(
		&r.ID, &r.DatasetID, &r.Quantity, &r.Value, &r.Weight, &r.Category, &r.ShippingMethod,
		&r.ImportExport, &r.PaymentTerms, &date,
	)
	if err != nil {
		return nil, err
	}
	if r.Date, err = time.Parse(storedDateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid stored trade_date %q: %w", date, err)
	}
	return &r, nil
}

// InsertTradeRecordsInTx は取引をまとめて登録します。
func InsertTradeRecordsInTx(ctx context.Context, tx *sqlx.Tx, datasetID string, records []model.TradeRecord) error {
	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO trade_records (dataset_id, quantity, value, weight, category, shipping_method,
			import_export, payment_terms, trade_date, trade_year)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare trade insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx,
			datasetID, r.Quantity, r.Value, r.Weight, r.Category, r.ShippingMethod,
			r.ImportExport, r.PaymentTerms, r.Date.Format(storedDateLayout), r.Date.Year(),
		); err != nil {
			return fmt.Errorf("failed to insert trade record %d: %w", i, err)
		}
	}
	return nil
}

// isEmptySelection は「選択肢を1つも選んでいない」フィルタがあるかを判定します。
func isEmptySelection(f model.DashboardFilters) bool {
	return (f.Categories != nil && len(f.Categories) == 0) ||
		(f.ImportExport != nil && len(f.ImportExport) == 0) ||
		(f.PaymentTerms != nil && len(f.PaymentTerms) == 0) ||
		(f.ShippingMethods != nil && len(f.ShippingMethods) == 0) ||
		(f.Years != nil && len(f.Years) == 0)
}

// QueryTrades はデータセットの取引をフィルタ条件で絞り込んで返します。
func QueryTrades(ctx context.Context, conn *sqlx.DB, datasetID string, filters model.DashboardFilters) ([]model.TradeRecord, error) {
	if isEmptySelection(filters) {
		return []model.TradeRecord{}, nil
	}

	query := `SELECT ` + TradeColumns + ` FROM trade_records WHERE 1=1 AND dataset_id = ?`
	args := []interface{}{datasetID}
	if filters.Categories != nil {
		query += " AND category IN (?)"
		args = append(args, filters.Categories)
	}
	if filters.ImportExport != nil {
		query += " AND import_export IN (?)"
		args = append(args, filters.ImportExport)
	}
	if filters.PaymentTerms != nil {
		query += " AND payment_terms IN (?)"
		args = append(args, filters.PaymentTerms)
	}
	if filters.ShippingMethods != nil {
		query += " AND shipping_method IN (?)"
		args = append(args, filters.ShippingMethods)
	}
	if filters.Years != nil {
		query += " AND trade_year IN (?)"
		args = append(args, filters.Years)
	}
	query += " ORDER BY id"

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create IN query for trades: %w", err)
	}
	query = conn.Rebind(query)

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	records := []model.TradeRecord{}
	for rows.Next() {
		r, err := ScanTradeRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// GetFilterOptions はサイドバーの選択肢（各列の重複なし値）を返します。
func GetFilterOptions(ctx context.Context, conn *sqlx.DB, datasetID string) (model.FilterOptions, error) {
	var opts model.FilterOptions

	distinct := func(column string) ([]string, error) {
		var values []string
		q := fmt.Sprintf(`SELECT DISTINCT %s FROM trade_records WHERE dataset_id = ? ORDER BY %s`, column, column)
		if err := conn.SelectContext(ctx, &values, q, datasetID); err != nil {
			return nil, fmt.Errorf("failed to get distinct %s: %w", column, err)
		}
		return values, nil
	}

	var err error
	if opts.Categories, err = distinct("category"); err != nil {
		return opts, err
	}
	if opts.ImportExport, err = distinct("import_export"); err != nil {
		return opts, err
	}
	if opts.PaymentTerms, err = distinct("payment_terms"); err != nil {
		return opts, err
	}
	if opts.ShippingMethods, err = distinct("shipping_method"); err != nil {
		return opts, err
	}
	if err := conn.SelectContext(ctx, &opts.Years,
		`SELECT DISTINCT trade_year FROM trade_records WHERE dataset_id = ? ORDER BY trade_year`, datasetID); err != nil {
		return opts, fmt.Errorf("failed to get distinct trade_year: %w", err)
	}
	return opts, nil
}
