package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tradedash/model"

	"github.com/jmoiron/sqlx"
)

const datasetColumns = `id, source_path, source_size, source_mod_time, encoding, sample_size, sample_seed,
	date_policy, total_rows, kept_rows, dropped_rows, loaded_at`

func scanDataset(row interface{ Scan(...interface{}) error }) (*model.Dataset, error) {
	var d model.Dataset
	var modTime, loadedAt string
	err := row.Scan(
		&d.ID, &d.SourcePath, &d.SourceSize, &modTime, &d.Encoding, &d.SampleSize, &d.SampleSeed,
		&d.DatePolicy, &d.TotalRows, &d.KeptRows, &d.DroppedRows, &loadedAt,
	)
	if err != nil {
		return nil, err
	}
	if d.SourceModTime, err = time.Parse(time.RFC3339Nano, modTime); err != nil {
		return nil, fmt.Errorf("invalid source_mod_time %q: %w", modTime, err)
	}
	if d.LoadedAt, err = time.Parse(time.RFC3339Nano, loadedAt); err != nil {
		return nil, fmt.Errorf("invalid loaded_at %q: %w", loadedAt, err)
	}
	return &d, nil
}

// FindDataset はメモ化キーに一致する読込済みデータセットを探します。
// 見つからない場合は (nil, nil) を返します。
func FindDataset(ctx context.Context, db *sqlx.DB, key model.DatasetKey) (*model.Dataset, error) {
	const q = `SELECT ` + datasetColumns + ` FROM datasets
		WHERE source_path = ? AND source_size = ? AND source_mod_time = ? AND encoding = ?
		  AND sample_size = ? AND sample_seed = ? AND date_policy = ?
		ORDER BY loaded_at DESC LIMIT 1`
	row := db.QueryRowContext(ctx, q,
		key.SourcePath, key.SourceSize, key.SourceModTime.UTC().Format(time.RFC3339Nano), key.Encoding,
		key.SampleSize, key.SampleSeed, key.DatePolicy)
	d, err := scanDataset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindDataset (%s) failed: %w", key.SourcePath, err)
	}
	return d, nil
}

func GetDataset(ctx context.Context, db *sqlx.DB, id string) (*model.Dataset, error) {
	row := db.QueryRowContext(ctx, `SELECT `+datasetColumns+` FROM datasets WHERE id = ?`, id)
	d, err := scanDataset(row)
	if err != nil {
		return nil, fmt.Errorf("GetDataset (%s) failed: %w", id, err)
	}
	return d, nil
}

func InsertDatasetInTx(ctx context.Context, tx *sqlx.Tx, d *model.Dataset) error {
	const q = `INSERT INTO datasets (` + datasetColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		d.ID, d.SourcePath, d.SourceSize, d.SourceModTime.UTC().Format(time.RFC3339Nano), d.Encoding,
		d.SampleSize, d.SampleSeed, d.DatePolicy, d.TotalRows, d.KeptRows, d.DroppedRows,
		d.LoadedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("InsertDatasetInTx (%s) failed: %w", d.SourcePath, err)
	}
	return nil
}

// DeleteDatasetsByPathInTx は同じファイルから読み込んだ古いデータセットと取引を削除します。
func DeleteDatasetsByPathInTx(ctx context.Context, tx *sqlx.Tx, sourcePath string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM trade_records WHERE dataset_id IN (SELECT id FROM datasets WHERE source_path = ?)`,
		sourcePath); err != nil {
		return fmt.Errorf("failed to delete trade records for %s: %w", sourcePath, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM datasets WHERE source_path = ?`, sourcePath); err != nil {
		return fmt.Errorf("failed to delete datasets for %s: %w", sourcePath, err)
	}
	return nil
}
