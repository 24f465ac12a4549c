package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"tradedash/database"
	"tradedash/logger"
	"tradedash/model"
	"tradedash/parsers"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNoDataset = errors.New("no dataset loaded")

type Options struct {
	Path       string
	Encoding   string
	SampleSize int
	SampleSeed int64
	Strict     bool
	// Force はメモ化された読込結果を使わずに読み直します。
	Force bool
}

func (o Options) datePolicy() string {
	if o.Strict {
		return "strict"
	}
	return "drop"
}

var (
	current     *model.Dataset
	lastLoadErr error
	mu          sync.RWMutex
)

// Current は現在表示対象のデータセットを返します。
// 直近の読込が失敗していればそのエラーを返します。
func Current() (*model.Dataset, error) {
	mu.RLock()
	defer mu.RUnlock()
	if lastLoadErr != nil {
		return nil, lastLoadErr
	}
	if current == nil {
		return nil, ErrNoDataset
	}
	return current, nil
}

// SetCurrent は読込結果を記録します。err が nil でなければ表示は停止されます。
func SetCurrent(d *model.Dataset, err error) {
	mu.Lock()
	defer mu.Unlock()
	current = d
	lastLoadErr = err
}

// LoadAndSet は LoadDataset の結果を現在のデータセットとして記録します。
func LoadAndSet(ctx context.Context, db *sqlx.DB, opts Options) (*model.Dataset, error) {
	d, err := LoadDataset(ctx, db, opts)
	if err != nil {
		SetCurrent(nil, err)
		return nil, err
	}
	SetCurrent(d, nil)
	return d, nil
}

// LoadDataset はCSVを読み込み、サンプリングしてSQLiteに保存します。
// 同じファイル（サイズ・更新日時）と同じ抽出条件の読込が残っていれば、それを再利用します。
func LoadDataset(ctx context.Context, db *sqlx.DB, opts Options) (d *model.Dataset, err error) {
	log := logger.FromContext(ctx)

	info, err := os.Stat(opts.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("data file %s not found: %w", opts.Path, err)
		}
		return nil, fmt.Errorf("could not stat %s: %w", opts.Path, err)
	}

	key := model.DatasetKey{
		SourcePath:    opts.Path,
		SourceSize:    info.Size(),
		SourceModTime: info.ModTime(),
		Encoding:      parsers.CanonicalEncoding(opts.Encoding),
		SampleSize:    opts.SampleSize,
		SampleSeed:    opts.SampleSeed,
		DatePolicy:    opts.datePolicy(),
	}
	if !opts.Force {
		cached, err := database.FindDataset(ctx, db, key)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			log.Info().Str("path", opts.Path).Str("dataset", cached.ID).Msg("reusing loaded dataset")
			return cached, nil
		}
	}

	f, err := os.Open(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("could not open file %s: %w", opts.Path, err)
	}
	defer f.Close()

	r, err := parsers.DecodeReader(f, opts.Encoding)
	if err != nil {
		return nil, err
	}
	parsed, err := parsers.ParseTradeCSV(ctx, r, parsers.ParseOptions{Strict: opts.Strict})
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", opts.Path, err)
	}

	sampled := Sample(parsed.Records, opts.SampleSize, opts.SampleSeed)
	d = &model.Dataset{
		ID:            uuid.NewString(),
		SourcePath:    key.SourcePath,
		SourceSize:    key.SourceSize,
		SourceModTime: key.SourceModTime,
		Encoding:      key.Encoding,
		SampleSize:    key.SampleSize,
		SampleSeed:    key.SampleSeed,
		DatePolicy:    key.DatePolicy,
		TotalRows:     parsed.TotalRows,
		KeptRows:      len(sampled),
		DroppedRows:   parsed.Dropped,
		LoadedAt:      time.Now().UTC(),
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			log.Warn().Err(err).Str("path", opts.Path).Msg("rolling back dataset load")
			tx.Rollback()
			d = nil
		} else if err = tx.Commit(); err != nil {
			err = fmt.Errorf("failed to commit dataset %s: %w", opts.Path, err)
			d = nil
		}
	}()

	if err = database.DeleteDatasetsByPathInTx(ctx, tx, opts.Path); err != nil {
		return nil, err
	}
	if err = database.InsertDatasetInTx(ctx, tx, d); err != nil {
		return nil, err
	}
	if err = database.InsertTradeRecordsInTx(ctx, tx, d.ID, sampled); err != nil {
		return nil, err
	}

	log.Info().
		Str("path", opts.Path).
		Str("dataset", d.ID).
		Int("total", d.TotalRows).
		Int("kept", d.KeptRows).
		Int("dropped", d.DroppedRows).
		Msg("dataset loaded")
	return d, nil
}
