package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"os"
	"strings"

	"tradedash/aggregation"
	"tradedash/charts"
	"tradedash/config"
	"tradedash/database"
	"tradedash/loader"
	"tradedash/logger"
	"tradedash/model"
	"tradedash/parsers"
	"tradedash/render"

	"github.com/jmoiron/sqlx"
)

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// view は1回の画面表示分のパイプライン結果です。
type view struct {
	dataset *model.Dataset
	options model.FilterOptions
	filters model.DashboardFilters
	summary model.DashboardSummary
}

func summaryOptions(cfg config.Config) model.SummaryOptions {
	return model.SummaryOptions{
		HighValueQuantile: cfg.HighValueQuantile,
		HistogramBins:     cfg.HistogramBins,
		MonthlyMode:       cfg.MonthlyMode,
		MonthlyByYear:     cfg.MonthlyByYear,
	}
}

// buildView は filter → aggregate までを実行します。
func buildView(ctx context.Context, db *sqlx.DB, r *http.Request) (*view, error) {
	d, err := loader.Current()
	if err != nil {
		return nil, err
	}
	opts, err := database.GetFilterOptions(ctx, db, d.ID)
	if err != nil {
		return nil, err
	}
	filters := ParseFilters(r.URL.Query())
	records, err := database.QueryTrades(ctx, db, d.ID, filters)
	if err != nil {
		return nil, err
	}
	return &view{
		dataset: d,
		options: opts,
		filters: filters,
		summary: aggregation.BuildSummary(records, summaryOptions(config.GetConfig())),
	}, nil
}

// loadWarning はデータセットが使えない理由を画面向けの文言にします。
func loadWarning(err error) string {
	switch {
	case errors.Is(err, loader.ErrNoDataset):
		return "No dataset has been loaded yet."
	case errors.Is(err, os.ErrNotExist):
		return "The data file could not be found. Please check the configured data path."
	case errors.Is(err, parsers.ErrMissingHeader), errors.Is(err, parsers.ErrEmptyFile),
		errors.Is(err, parsers.ErrInvalidDate), errors.Is(err, parsers.ErrInvalidNumber):
		return "The data file could not be parsed: " + err.Error()
	default:
		return "Error loading data: " + err.Error()
	}
}

// PageHandler はダッシュボード画面を返します。
// データセットが読み込めていない場合は警告だけを表示し、チャートは描画しません。
func PageHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		log := logger.FromContext(r.Context())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		v, err := buildView(r.Context(), db, r)
		if err != nil {
			log.Warn().Err(err).Msg("dashboard rendering halted")
			if err := render.RenderPage(w, render.PageData{Warning: loadWarning(err)}); err != nil {
				log.Error().Err(err).Msg("failed to execute page template")
			}
			return
		}

		images, err := charts.RenderAll(v.summary, config.GetConfig().ChartFormat)
		if err != nil {
			log.Error().Err(err).Msg("some charts failed to render")
			if images == nil {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
		}

		data := render.PageData{
			Dataset:  v.dataset,
			RowCount: v.summary.RowCount,
			Sidebar:  template.HTML(render.RenderFilterSidebarHTML(v.options, v.filters)),
			Panels:   render.NewChartPanels(images),
		}
		if err := render.RenderPage(w, data); err != nil {
			log.Error().Err(err).Msg("failed to execute page template")
		}
	}
}

// SummaryHandler は集計結果をJSONで返します。
func SummaryHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := buildView(r.Context(), db, r)
		if err != nil {
			writeJSONError(w, loadWarning(err), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"dataset": v.dataset,
			"summary": v.summary,
		})
	}
}

// ChartHandler は /api/charts/{name} の1枚を画像として返します。
func ChartHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/api/charts/")
		name = strings.TrimSuffix(strings.TrimSuffix(name, ".svg"), ".png")
		kind, ok := charts.ParseKind(name)
		if !ok {
			writeJSONError(w, "Unknown chart: "+name, http.StatusNotFound)
			return
		}

		format := r.URL.Query().Get("format")
		if format == "" {
			switch {
			case strings.HasSuffix(r.URL.Path, ".png"):
				format = charts.FormatPNG
			case strings.HasSuffix(r.URL.Path, ".svg"):
				format = charts.FormatSVG
			default:
				format = config.GetConfig().ChartFormat
			}
		}

		v, err := buildView(r.Context(), db, r)
		if err != nil {
			writeJSONError(w, loadWarning(err), http.StatusServiceUnavailable)
			return
		}
		img, err := charts.Render(kind, v.summary, format)
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Str("chart", name).Msg("chart render failed")
			writeJSONError(w, "Failed to render chart", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", img.ContentType)
		w.Write(img.Data)
	}
}

// FilterOptionsHandler はサイドバーの選択肢をJSONで返します。
func FilterOptionsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := loader.Current()
		if err != nil {
			writeJSONError(w, loadWarning(err), http.StatusServiceUnavailable)
			return
		}
		opts, err := database.GetFilterOptions(r.Context(), db, d.ID)
		if err != nil {
			writeJSONError(w, "Failed to get filter options", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(opts)
	}
}

// DatasetHandler は現在のデータセット情報を返します。
func DatasetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := loader.Current()
		if err != nil {
			writeJSONError(w, loadWarning(err), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(d)
	}
}
