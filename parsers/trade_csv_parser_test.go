package parsers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const sampleHeader = "Transaction_ID,Country,Product,Import_Export,Quantity,Value,Date,Category,Port,Customs_Code,Weight,Shipping_Method,Supplier,Customer,Invoice_Number,Payment_Terms\n"

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "07-12-2023", want: time.Date(2023, 12, 7, 0, 0, 0, 0, time.UTC)},
		{in: " 31-01-2021 ", want: time.Date(2021, 1, 31, 0, 0, 0, 0, time.UTC)},
		{in: "5-1-2022", want: time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC)},
		{in: "05-1-2022", want: time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC)},
		{in: "9-11-2022", want: time.Date(2022, 11, 9, 0, 0, 0, 0, time.UTC)},
		{in: "07-12-23", wantErr: true},
		{in: "2023-12-07", wantErr: true},
		{in: "12/07/2023", wantErr: true},
		{in: "31-02-2023", wantErr: true},
		{in: "13-13-2023", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidDate))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestParseTradeCSV_ParsesRows(t *testing.T) {
	data := sampleHeader +
		"a1,France,pen,Export,10,120.50,07-12-2023,Electronics,Paris,111,5.5,Air,S1,C1,1,Prepaid\n" +
		"a2,Japan,cup,Import,3,40,15-06-2022,Clothing,Tokyo,222,1.25,Sea,S2,C2,2,Net 30\n"

	res, err := ParseTradeCSV(context.Background(), strings.NewReader(data), ParseOptions{})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 2, res.TotalRows)
	assert.Equal(t, 0, res.Dropped)

	first := res.Records[0]
	assert.Equal(t, 10.0, first.Quantity)
	assert.Equal(t, 120.50, first.Value)
	assert.Equal(t, 5.5, first.Weight)
	assert.Equal(t, "Electronics", first.Category)
	assert.Equal(t, "Air", first.ShippingMethod)
	assert.Equal(t, "Export", first.ImportExport)
	assert.Equal(t, "Prepaid", first.PaymentTerms)
	assert.Equal(t, time.December, first.Date.Month())
	assert.Equal(t, 7, first.Date.Day())
}

func TestParseTradeCSV_DropsInvalidDates(t *testing.T) {
	data := sampleHeader +
		"a1,France,pen,Export,10,100,07-12-2023,Electronics,Paris,111,5,Air,S1,C1,1,Prepaid\n" +
		"a2,France,pen,Export,10,100,2023-12-07,Electronics,Paris,111,5,Air,S1,C1,1,Prepaid\n" +
		"a3,France,pen,Export,ten,100,08-12-2023,Electronics,Paris,111,5,Air,S1,C1,1,Prepaid\n"

	res, err := ParseTradeCSV(context.Background(), strings.NewReader(data), ParseOptions{})
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, 3, res.TotalRows)
	assert.Equal(t, 2, res.Dropped)
	require.Len(t, res.Issues, 2)
	assert.Equal(t, 3, res.Issues[0].Line)
	assert.Equal(t, 4, res.Issues[1].Line)
}

func TestParseTradeCSV_DropsNonFiniteNumbers(t *testing.T) {
	data := sampleHeader +
		"a1,France,pen,Export,10,100,07-12-2023,Electronics,Paris,111,5,Air,S1,C1,1,Prepaid\n" +
		"a2,France,pen,Export,10,NaN,07-12-2023,Electronics,Paris,111,5,Air,S1,C1,1,Prepaid\n" +
		"a3,France,pen,Export,10,Inf,07-12-2023,Electronics,Paris,111,5,Air,S1,C1,1,Prepaid\n" +
		"a4,France,pen,Export,-inf,100,07-12-2023,Electronics,Paris,111,5,Air,S1,C1,1,Prepaid\n" +
		"a5,France,pen,Export,10,100,07-12-2023,Electronics,Paris,111,+Infinity,Air,S1,C1,1,Prepaid\n"

	res, err := ParseTradeCSV(context.Background(), strings.NewReader(data), ParseOptions{})
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, 4, res.Dropped)
	for _, issue := range res.Issues {
		assert.Contains(t, issue.Reason, ErrInvalidNumber.Error())
	}

	_, err = ParseTradeCSV(context.Background(), strings.NewReader(data), ParseOptions{Strict: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidNumber))
	assert.Contains(t, err.Error(), "line 3")
}

func TestParseTradeCSV_StrictFailsOnInvalidDate(t *testing.T) {
	data := sampleHeader +
		"a1,France,pen,Export,10,100,07/12/2023,Electronics,Paris,111,5,Air,S1,C1,1,Prepaid\n"

	_, err := ParseTradeCSV(context.Background(), strings.NewReader(data), ParseOptions{Strict: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDate))
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseTradeCSV_HeaderErrors(t *testing.T) {
	_, err := ParseTradeCSV(context.Background(), strings.NewReader(""), ParseOptions{})
	assert.True(t, errors.Is(err, ErrEmptyFile))

	_, err = ParseTradeCSV(context.Background(), strings.NewReader("Quantity,Value,Date\n1,2,01-01-2020\n"), ParseOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingHeader))
	assert.Contains(t, err.Error(), "Shipping_Method")
}

func TestParseTradeCSV_SkipsBOM(t *testing.T) {
	data := "\xEF\xBB\xBFQuantity,Value,Weight,Category,Shipping_Method,Import_Export,Payment_Terms,Date\n" +
		"1,2,3,Toys,Land,Import,Cash on Delivery,01-02-2020\n"

	res, err := ParseTradeCSV(context.Background(), strings.NewReader(data), ParseOptions{})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Toys", res.Records[0].Category)
}

func TestDecodeReader(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String("Category\nCafé\n")
	require.NoError(t, err)

	r, err := DecodeReader(bytes.NewReader([]byte(encoded)), "windows-1252")
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Category\nCafé\n", string(out))

	r, err = DecodeReader(strings.NewReader("plain"), "UTF-8")
	require.NoError(t, err)
	out, _ = io.ReadAll(r)
	assert.Equal(t, "plain", string(out))

	_, err = DecodeReader(strings.NewReader(""), "no-such-charset")
	assert.Error(t, err)
}
