package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tradedash/config"
	"tradedash/database"
	"tradedash/loader"
	"tradedash/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csvData = "Transaction_ID,Quantity,Value,Weight,Category,Shipping_Method,Import_Export,Payment_Terms,Date\n" +
	"t1,1,10,2.5,Toys,Air,Import,Prepaid,05-01-2022\n" +
	"t2,2,90,3.5,Toys,Sea,Export,Net 30,17-02-2022\n" +
	"t3,3,50,1.0,Clothing,Air,Import,Net 60,09-03-2023\n" +
	"t4,4,20,4.0,Electronics,Land,Export,Prepaid,21-03-2023\n" +
	"t5,5,70,2.0,Clothing,Sea,Import,Prepaid,not-a-date\n"

func setup(t *testing.T) *sqlx.DB {
	t.Helper()
	return setupWithCSV(t, csvData)
}

func setupWithCSV(t *testing.T, data string) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.ApplySchema(db))

	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	prev := config.GetConfig()
	cfg := config.Defaults()
	cfg.DataPath = path
	cfg.HighValueQuantile = 0.75
	config.SetConfig(cfg)

	_, err = loader.LoadAndSet(context.Background(), db, loader.OptionsFromConfig(cfg))
	require.NoError(t, err)

	t.Cleanup(func() {
		config.SetConfig(prev)
		loader.SetCurrent(nil, nil)
		db.Close()
	})
	return db
}

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  model.DashboardFilters
	}{
		{name: "no query selects all", query: "", want: model.DashboardFilters{}},
		{
			name:  "repeated values",
			query: "category=Toys&category=Clothing&year=2022&year=abc",
			want:  model.DashboardFilters{Categories: []string{"Toys", "Clothing"}, Years: []int{2022}},
		},
		{
			name:  "values keep their commas",
			query: "applied=1&payment_terms=Net+30%2C+Prepaid&category=Toys",
			want: model.DashboardFilters{
				Categories:      []string{"Toys"},
				ImportExport:    []string{},
				PaymentTerms:    []string{"Net 30, Prepaid"},
				ShippingMethods: []string{},
				Years:           []int{},
			},
		},
		{
			name:  "applied form with missing fields selects none",
			query: "applied=1&shipping_method=Air",
			want: model.DashboardFilters{
				Categories:      []string{},
				ImportExport:    []string{},
				PaymentTerms:    []string{},
				ShippingMethods: []string{"Air"},
				Years:           []int{},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ParseFilters(q))
		})
	}
}

func TestPageHandler(t *testing.T) {
	db := setup(t)

	rec := httptest.NewRecorder()
	PageHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Imports and Exports Dashboard")
	assert.Contains(t, body, "4 rows match")
	assert.Contains(t, body, "1 dropped")
	for _, heading := range []string{
		"1. Scatter Plot of Quantity vs. Value",
		"2. Percentage of High-Value Transactions",
		"3. Bar Plot of Shipping Methods",
		"4. Transaction Value Distribution",
		"5. Weight Distribution per Product Category",
		"6. Monthly Transaction Trends",
	} {
		assert.Contains(t, body, heading)
	}
	assert.Equal(t, 6, strings.Count(body, `<section class="panel">`))
}

func TestPageHandler_Filtered(t *testing.T) {
	db := setup(t)

	rec := httptest.NewRecorder()
	PageHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/?category=Toys", nil))
	assert.Contains(t, rec.Body.String(), "2 rows match")
}

func TestPageHandler_SingleCategoryAndMonth(t *testing.T) {
	db := setup(t)

	rec := httptest.NewRecorder()
	PageHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/?category=Electronics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "1 rows match")
	assert.Equal(t, 6, strings.Count(body, `<section class="panel">`))
	assert.NotContains(t, body, "No data")
}

func TestPageHandler_CommaInOptionValue(t *testing.T) {
	data := "Quantity,Value,Weight,Category,Shipping_Method,Import_Export,Payment_Terms,Date\n" +
		"1,10,2.5,Toys,Air,Import,\"Net 30, Prepaid\",05-01-2022\n" +
		"2,20,3.5,Toys,Sea,Export,Net 30,17-02-2022\n" +
		"3,30,1.0,Clothing,Air,Import,Prepaid,09-03-2023\n"
	db := setupWithCSV(t, data)

	q := url.Values{"payment_terms": {"Net 30, Prepaid"}}
	rec := httptest.NewRecorder()
	SummaryHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/api/summary?"+q.Encode(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Summary model.DashboardSummary `json:"summary"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 1, body.Summary.RowCount)
}

func TestPageHandler_EscapesDataInCharts(t *testing.T) {
	data := "Quantity,Value,Weight,Category,Shipping_Method,Import_Export,Payment_Terms,Date\n" +
		"1,10,2.5,<b>Toys</b>,<img src=x onerror=alert(1)>,Import,Prepaid,05-01-2022\n" +
		"2,20,3.5,Clothing,Sea,Export,Net 30,17-02-2022\n"
	db := setupWithCSV(t, data)

	rec := httptest.NewRecorder()
	PageHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.NotContains(t, body, "<img src=x")
	assert.NotContains(t, body, "<b>Toys</b>")
	assert.Contains(t, body, "&lt;img src=x onerror=alert(1)&gt;")
}

func TestPageHandler_NotFound(t *testing.T) {
	db := setup(t)
	rec := httptest.NewRecorder()
	PageHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPageHandler_LoadErrorShowsWarning(t *testing.T) {
	db := setup(t)
	loader.SetCurrent(nil, &os.PathError{Op: "stat", Path: "missing.csv", Err: os.ErrNotExist})

	rec := httptest.NewRecorder()
	PageHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "The data file could not be found")
	assert.NotContains(t, body, `<section class="panel">`)
}

func TestSummaryHandler(t *testing.T) {
	db := setup(t)

	rec := httptest.NewRecorder()
	SummaryHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/api/summary?import_export=Import", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Summary model.DashboardSummary `json:"summary"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 2, body.Summary.RowCount)
	assert.Equal(t, 0.75, body.Summary.HighValue.Quantile)
	assert.Len(t, body.Summary.Monthly, 2)
}

func TestSummaryHandler_NoDataset(t *testing.T) {
	db := setup(t)
	loader.SetCurrent(nil, nil)

	rec := httptest.NewRecorder()
	SummaryHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestChartHandler(t *testing.T) {
	db := setup(t)

	rec := httptest.NewRecorder()
	ChartHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/api/charts/monthly.svg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = httptest.NewRecorder()
	ChartHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/api/charts/shipping?format=png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	ChartHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/api/charts/radar", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFilterOptionsHandler(t *testing.T) {
	db := setup(t)

	rec := httptest.NewRecorder()
	FilterOptionsHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/api/filters", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var opts model.FilterOptions
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&opts))
	assert.Equal(t, []string{"Clothing", "Electronics", "Toys"}, opts.Categories)
	assert.Equal(t, []int{2022, 2023}, opts.Years)
}

func TestDatasetHandler(t *testing.T) {
	setup(t)

	rec := httptest.NewRecorder()
	DatasetHandler()(rec, httptest.NewRequest(http.MethodGet, "/api/dataset", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var d model.Dataset
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&d))
	assert.Equal(t, 4, d.KeptRows)
	assert.Equal(t, 1, d.DroppedRows)
}

func TestLoadWarning(t *testing.T) {
	assert.Contains(t, loadWarning(loader.ErrNoDataset), "No dataset")
	assert.Contains(t, loadWarning(errors.New("disk on fire")), "disk on fire")
}
