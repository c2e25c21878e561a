package service

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multichat/internal/model"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return path
}

func TestCSVParse(t *testing.T) {
	path := writeCSV(t, "name,age,city\nalice,30,paris\nbob,25,tokyo\n")

	rec, err := NewCSVService().Parse(path, "data.csv")
	require.NoError(t, err)

	assert.Equal(t, model.FileCSV, rec.Kind)
	assert.Equal(t, "data.csv", rec.Filename)
	assert.Equal(t, 2, rec.Rows)
	assert.Equal(t, []string{"name", "age", "city"}, rec.Columns)

	require.Len(t, rec.Sample, 2)
	assert.Equal(t, "alice", rec.Sample[0]["name"])
	assert.Equal(t, "tokyo", rec.Sample[1]["city"])
	assert.Positive(t, rec.SizeBytes)
	assert.Positive(t, rec.UploadedAt)
}

func TestCSVParseSampleCapped(t *testing.T) {
	content := "id\n"
	for i := 0; i < 20; i++ {
		content += "row\n"
	}
	path := writeCSV(t, content)

	rec, err := NewCSVService().Parse(path, "big.csv")
	require.NoError(t, err)

	assert.Equal(t, 20, rec.Rows)
	assert.Len(t, rec.Sample, csvSampleRows)
}

func TestCSVParseHeaderOnly(t *testing.T) {
	path := writeCSV(t, "a,b,c\n")

	rec, err := NewCSVService().Parse(path, "empty.csv")
	require.NoError(t, err)

	assert.Zero(t, rec.Rows)
	assert.Empty(t, rec.Sample)
}

func TestCSVParseTrimsHeaderWhitespace(t *testing.T) {
	path := writeCSV(t, " name , age \nx,1\n")

	rec, err := NewCSVService().Parse(path, "data.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, rec.Columns)
}

func TestCSVParseRaggedRows(t *testing.T) {
	// 行字段数不一致也接受，缺的列留空
	path := writeCSV(t, "a,b,c\n1,2\n1,2,3,4\n")

	rec, err := NewCSVService().Parse(path, "ragged.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Rows)
	assert.Equal(t, "2", rec.Sample[0]["b"])
	assert.Empty(t, rec.Sample[0]["c"])
}

func TestCSVParseMissingFile(t *testing.T) {
	_, err := NewCSVService().Parse(filepath.Join(t.TempDir(), "missing.csv"), "missing.csv")
	assert.ErrorIs(t, err, ErrInvalidCSV)
}

func TestCSVLoadFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("col1,col2\nv1,v2\n"))
	}))
	defer server.Close()

	rec, err := NewCSVService().LoadFromURL(server.URL + "/files/remote.csv")
	require.NoError(t, err)

	assert.Equal(t, "remote.csv", rec.Filename)
	assert.Equal(t, 1, rec.Rows)
	assert.Equal(t, []string{"col1", "col2"}, rec.Columns)
}

func TestCSVLoadFromURLRejectsScheme(t *testing.T) {
	_, err := NewCSVService().LoadFromURL("file:///etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestCSVLoadFromURLRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewCSVService().LoadFromURL(server.URL + "/gone.csv")
	assert.ErrorIs(t, err, ErrInvalidCSV)
}
