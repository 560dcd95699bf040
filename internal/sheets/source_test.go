package sheets

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

// buildWorkbook renders an in-memory XLSX with the given sheets.
func buildWorkbook(t *testing.T, sheets map[string][][]string) []byte {
	t.Helper()

	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, cells := range rows {
			row := sheet.AddRow()
			for _, v := range cells {
				row.AddCell().Value = v
			}
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func newTestSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSource(NewClient(Options{BaseURL: srv.URL, Token: "test-token"}))
}

func workbookHandler(t *testing.T, sheets map[string][][]string) http.HandlerFunc {
	body := buildWorkbook(t, sheets)
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_, _ = w.Write(body)
	}
}

func TestFetchText_JoinsCellsAndRows(t *testing.T) {
	src := newTestSource(t, workbookHandler(t, map[string][][]string{
		"Общая информация о компании": {
			{"Компания", "Лавка"},
			{"", ""},
			{"Доставка", "", "по всей стране"},
		},
	}))

	text, err := src.FetchText(context.Background(), "doc1", "Общая информация о компании")
	require.NoError(t, err)
	assert.Equal(t, "Компания Лавка\nДоставка по всей стране", text)
}

func TestFetchRecords_KeyedByHeader(t *testing.T) {
	src := newTestSource(t, workbookHandler(t, map[string][][]string{
		"Товары": {
			{"Название", "Цена за шт в рублях", "Группа"},
			{"Стул деревянный", "1500", "Мебель"},
			{"Стол обеденный", "4200", "Мебель"},
			{"", "", ""},
			{"Лампа настольная", "", "Свет"},
		},
	}))

	records, err := src.FetchRecords(context.Background(), "doc1", "Товары")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Стул деревянный", records[0]["Название"])
	assert.Equal(t, "1500", records[0]["Цена за шт в рублях"])
	assert.Equal(t, "Мебель", records[0]["Группа"])
	assert.Equal(t, "Лампа настольная", records[2]["Название"])
	assert.Equal(t, "", records[2]["Цена за шт в рублях"])
}

func TestFetchRecords_SheetNotFound(t *testing.T) {
	src := newTestSource(t, workbookHandler(t, map[string][][]string{
		"Товары": {{"Название"}},
	}))

	_, err := src.FetchRecords(context.Background(), "doc1", "Несуществующий лист")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestWorkbook_Unauthorized(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := src.FetchText(context.Background(), "doc1", "Товары")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestWorkbook_ServerError(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := src.FetchText(context.Background(), "doc1", "Товары")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestWorkbook_GarbageBody(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not a workbook"))
	})

	_, err := src.FetchText(context.Background(), "doc1", "Товары")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse workbook")
}
