package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRows(t *testing.T, rowCh <-chan []string, errCh <-chan error) ([][]string, error) {
	t.Helper()
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStreamCSV_Basic(t *testing.T) {
	input := "a,b,c\n1,2,3\n4,5,6\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b", "c"}, rows[0])
	assert.Equal(t, []string{"4", "5", "6"}, rows[2])
}

func TestStreamCSV_HeaderRowSkipsBanner(t *testing.T) {
	input := "EconJobMarket export generated 2024-09-01\nid,title\n7,Professor\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{HeaderRow: 1})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"id", "title"}, rows[0])
	assert.Equal(t, []string{"7", "Professor"}, rows[1])
}

func TestStreamCSV_TrimSpace(t *testing.T) {
	input := " a , b \n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{TrimSpace: true})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}}, rows)
}

func TestStreamCSV_ContextAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := StreamCSV(ctx, strings.NewReader("a\n1\n"), CSVOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}

func TestReadCSVFile(t *testing.T) {
	path := writeTestFile(t, "in.csv", "\xEF\xBB\xBFid,title\n1,Lecturer\n2,Professor\n")

	header, rows, err := ReadCSVFile(context.Background(), path, CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title"}, header)
	assert.Equal(t, [][]string{{"1", "Lecturer"}, {"2", "Professor"}}, rows)
}

func TestReadCSVFile_Empty(t *testing.T) {
	path := writeTestFile(t, "empty.csv", "")

	_, _, err := ReadCSVFile(context.Background(), path, CSVOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header")
}

func TestReadCSVFile_Missing(t *testing.T) {
	_, _, err := ReadCSVFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), CSVOptions{})
	require.Error(t, err)
}

func TestWriteCSVFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteCSVFile(path, []string{"id", "title"}, [][]string{{"1", "Chair, Economics"}}))

	header, rows, err := ReadCSVFile(context.Background(), path, CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title"}, header)
	assert.Equal(t, [][]string{{"1", "Chair, Economics"}}, rows)
}
