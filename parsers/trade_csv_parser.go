package parsers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"tradedash/logger"
	"tradedash/model"
)

// DateLayout はデータセットの Date 列の書式（日-月-年）です。
// 日と月はゼロ埋めの有無どちらも受け付けます（"05-01-2022" と "5-1-2022"）。
const DateLayout = "2-1-2006"

const (
	ColQuantity       = "Quantity"
	ColValue          = "Value"
	ColWeight         = "Weight"
	ColCategory       = "Category"
	ColShippingMethod = "Shipping_Method"
	ColImportExport   = "Import_Export"
	ColPaymentTerms   = "Payment_Terms"
	ColDate           = "Date"
)

var requiredHeaders = []string{
	ColQuantity, ColValue, ColWeight, ColCategory,
	ColShippingMethod, ColImportExport, ColPaymentTerms, ColDate,
}

var (
	ErrEmptyFile     = errors.New("csv file is empty")
	ErrMissingHeader = errors.New("required header not found")
	ErrInvalidDate   = errors.New("date is not in DD-MM-YYYY format")
	ErrInvalidNumber = errors.New("invalid numeric value")
)

// maxIssues は結果に保持する不正行の件数上限です。
const maxIssues = 50

type ParseOptions struct {
	// Strict が true の場合、不正な行で読込全体を失敗させます。
	// false の場合は行を捨てて件数だけ数えます。
	Strict bool
}

type RowIssue struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type ParseResult struct {
	Records   []model.TradeRecord
	TotalRows int
	Dropped   int
	Issues    []RowIssue
}

func (res *ParseResult) drop(line int, reason string) {
	res.Dropped++
	if len(res.Issues) < maxIssues {
		res.Issues = append(res.Issues, RowIssue{Line: line, Reason: reason})
	}
}

// ParseDate は DD-MM-YYYY 形式の日付を解析します。
func ParseDate(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, v)
	}
	return t, nil
}

func parseNumber(col, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w in %s: %q", ErrInvalidNumber, col, s)
	}
	return v, nil
}

// ParseTradeCSV は輸出入CSVを読み込み、取引レコードに変換します。
func ParseTradeCSV(ctx context.Context, r io.Reader, opts ParseOptions) (*ParseResult, error) {
	log := logger.FromContext(ctx)

	reader := csv.NewReader(SkipBOM(r))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	colIndex, err := getColIndex(header, requiredHeaders)
	if err != nil {
		return nil, err
	}

	res := &ParseResult{}
	line := 1
	for {
		line++
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		res.TotalRows++
		if err != nil {
			if opts.Strict {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			log.Warn().Int("line", line).Err(err).Msg("skipping unreadable csv row")
			res.drop(line, err.Error())
			continue
		}

		get := func(col string) string {
			idx := colIndex[col]
			if idx < len(rec) {
				return strings.TrimSpace(rec[idx])
			}
			return ""
		}

		tr, err := buildRecord(get)
		if err != nil {
			if opts.Strict {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			log.Debug().Int("line", line).Err(err).Msg("dropping invalid row")
			res.drop(line, err.Error())
			continue
		}
		res.Records = append(res.Records, tr)
	}

	if res.Dropped > 0 {
		log.Warn().Int("dropped", res.Dropped).Int("total", res.TotalRows).Msg("rows dropped while parsing trade csv")
	}
	return res, nil
}

func buildRecord(get func(string) string) (model.TradeRecord, error) {
	var tr model.TradeRecord

	date, err := ParseDate(get(ColDate))
	if err != nil {
		return tr, err
	}
	qty, err := parseNumber(ColQuantity, get(ColQuantity))
	if err != nil {
		return tr, err
	}
	value, err := parseNumber(ColValue, get(ColValue))
	if err != nil {
		return tr, err
	}
	weight, err := parseNumber(ColWeight, get(ColWeight))
	if err != nil {
		return tr, err
	}

	tr = model.TradeRecord{
		Quantity:       qty,
		Value:          value,
		Weight:         weight,
		Category:       get(ColCategory),
		ShippingMethod: get(ColShippingMethod),
		ImportExport:   get(ColImportExport),
		PaymentTerms:   get(ColPaymentTerms),
		Date:           date,
	}
	return tr, nil
}
