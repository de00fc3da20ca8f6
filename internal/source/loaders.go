package source

import (
	"context"
	"strings"

	"github.com/sells-group/jmtracker/internal/fetcher"
)

// CSVLoader reads a CSV export whose header sits on the given zero-based line.
func CSVLoader(headerRow int) Loader {
	return func(ctx context.Context, path string) (Table, error) {
		header, rows, err := fetcher.ReadCSVFile(ctx, path, fetcher.CSVOptions{
			HeaderRow:  headerRow,
			LazyQuotes: true,
		})
		if err != nil {
			return Table{}, err
		}
		return NewTable(header, rows), nil
	}
}

// XLSXLoader reads a workbook sheet by name, or the first sheet when sheet is empty.
func XLSXLoader(sheet string, headerRow int) Loader {
	return func(_ context.Context, path string) (Table, error) {
		header, rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{
			SheetName: sheet,
			HeaderRow: headerRow,
		})
		if err != nil {
			return Table{}, err
		}
		return NewTable(header, rows), nil
	}
}

func trimHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}
