package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/jmtracker/internal/model"
)

const ejmExport = `EconJobMarket positions,,,,,,,
Id,Ad title,Institution,Department,Deadline,City,State/province,Country,Internal code
501,Assistant Professor,Rice University,Economics,2024-11-15,Houston,TX,USA,zz1
502,Postdoc,ETH Zurich,KOF,2024-12-01,Zurich,,Switzerland,zz2
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_EJMRenamesAndKeeps(t *testing.T) {
	dir := t.TempDir()
	inputDir := filepath.Join(dir, "inputs")
	path := writeFile(t, dir, "download.csv", ejmExport)

	table, err := Load(context.Background(), EJM(), path, inputDir)
	require.NoError(t, err)

	assert.Equal(t, []string{"origin_id", "title", "institution", "department", "deadline", "city", "state", "country"}, table.Columns)
	require.Len(t, table.Records, 2)
	assert.Equal(t, "501", table.Records[0]["origin_id"])
	assert.Equal(t, "Rice University", table.Records[0]["institution"])
	assert.NotContains(t, table.Records[0], "Internal code")

	assert.FileExists(t, filepath.Join(inputDir, "latest_ejm.csv"))
}

func TestLoad_PathValidatorFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "download.txt", ejmExport)

	_, err := Load(context.Background(), EJM(), path, dir)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "EJM", verr.Origin)
	assert.Contains(t, verr.Message, "has extension txt but expected csv")
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(context.Background(), EJM(), filepath.Join(dir, "gone.csv"), dir)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Message, "Couldn't locate the EJM file")
}

func TestLoad_EmptyPathUsesStagedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, AJOInputFileName, "origin_id,title,location,institution,deadline,url\n9,Lecturer,Paris,PSE,2024/11/01,https://x/9\n")

	table, err := Load(context.Background(), AJO(), "", dir)
	require.NoError(t, err)
	require.Len(t, table.Records, 1)
	assert.Equal(t, "PSE", table.Records[0]["institution"])
}

func TestLoad_TableValidatorFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "dup.csv", "banner\nId,Ad title\n1,A\n1,B\n")

	_, err := Load(context.Background(), EJM(), path, dir)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Message, "duplicated values")
}

func TestLoad_AEAWorkbook(t *testing.T) {
	dir := t.TempDir()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, r := range [][]string{
		{"jp_id", "jp_title", "jp_institution", "locations", "Application_deadline", "jp_salary_range", "jp_agency_notes"},
		{"70001", "Assistant Professor", "MIT", "Cambridge, MA", "2024-11-20", "Competitive", "n/a"},
	} {
		row := sheet.AddRow()
		for _, c := range r {
			row.AddCell().SetString(c)
		}
	}
	path := filepath.Join(dir, "joe.xlsx")
	require.NoError(t, f.Save(path))

	table, err := Load(context.Background(), AEA(), path, filepath.Join(dir, "in"))
	require.NoError(t, err)
	require.Len(t, table.Records, 1)
	rec := table.Records[0]
	assert.Equal(t, "70001", rec[model.ColOriginID])
	assert.Equal(t, "Cambridge, MA", rec[model.ColLocation])
	assert.Equal(t, "Competitive", rec["salary_range"])
	assert.NotContains(t, rec, "jp_agency_notes")
}

func TestLoad_NoLoader(t *testing.T) {
	_, err := Load(context.Background(), Config{Origin: "X"}, "a.csv", t.TempDir())
	require.Error(t, err)
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	from := writeFile(t, dir, "export.csv", ejmExport)
	to := filepath.Join(dir, "input", "staged.csv")

	require.NoError(t, copyFile(from, to))
	got, err := os.ReadFile(to)
	require.NoError(t, err)
	assert.Equal(t, ejmExport, string(got))
}

func TestCopyFile_DestinationIsDirectory(t *testing.T) {
	dir := t.TempDir()
	from := writeFile(t, dir, "export.csv", ejmExport)
	to := filepath.Join(dir, "taken")
	require.NoError(t, os.Mkdir(to, 0o755))

	assert.Error(t, copyFile(from, to))
}

func TestRename(t *testing.T) {
	t.Parallel()
	table := NewTable([]string{"ID", "Name"}, [][]string{{"1", "a"}, {"2"}})
	out := Rename(table, map[string]string{"ID": "origin_id"})
	assert.Equal(t, []string{"origin_id", "Name"}, out.Columns)
	assert.Equal(t, model.Record{"origin_id": "2", "Name": ""}, out.Records[1])
}
