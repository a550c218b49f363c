package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVFile_Records(t *testing.T) {
	path := writeTempFile(t, "shelters.csv", `Name,Email,Phone
Happy Paws,a@x.org,512-555-0142
Second Chance,b@y.org,303-555-0101
`)

	records, err := NewCSVFile(path).Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Happy Paws", records[0].Get("name"))
	assert.Equal(t, "a@x.org", records[0].Get("email"))
	assert.Equal(t, "303-555-0101", records[1].Get("phone"))
}

func TestCSVFile_HeaderKeysLowercased(t *testing.T) {
	path := writeTempFile(t, "shelters.csv", "NAME, Email ,PHONE\nA,a@x.org,1\n")

	records, err := NewCSVFile(path).Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].Get("name"))
	assert.Equal(t, "a@x.org", records[0].Get("email"))
}

func TestCSVFile_VariableFieldCounts(t *testing.T) {
	path := writeTempFile(t, "shelters.csv", `Name,Email,Phone
Short Row,a@x.org
Full Row,b@y.org,303-555-0101,extra
`)

	records, err := NewCSVFile(path).Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "", records[0].Get("phone"), "missing trailing field is empty")
	assert.Equal(t, "303-555-0101", records[1].Get("phone"))
}

func TestCSVFile_EmptyFile(t *testing.T) {
	path := writeTempFile(t, "empty.csv", "")

	records, err := NewCSVFile(path).Records(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCSVFile_MissingFile(t *testing.T) {
	_, err := NewCSVFile(filepath.Join(t.TempDir(), "nope.csv")).Records(context.Background())
	assert.Error(t, err)
}

func TestJSONFile_Records(t *testing.T) {
	path := writeTempFile(t, "shelters.json", `[
  {"Name": "Happy Paws", "Email": "a@x.org", "ZipCode": 78701, "Active": true},
  {"name": "Second Chance", "nested": {"ignored": "yes"}}
]`)

	records, err := NewJSONFile(path).Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Happy Paws", records[0].Get("name"))
	assert.Equal(t, "78701", records[0].Get("zipcode"), "numbers stringified")
	assert.Equal(t, "true", records[0].Get("active"))
	assert.Equal(t, "Second Chance", records[1].Get("name"))
	assert.Equal(t, "", records[1].Get("nested"), "nested values dropped")
}

func TestJSONFile_NotAnArray(t *testing.T) {
	path := writeTempFile(t, "bad.json", `{"name": "x"}`)

	_, err := NewJSONFile(path).Records(context.Background())
	assert.Error(t, err)
}

func TestHTTPCSV_Records(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Name,Email\nHappy Paws,a@x.org\n"))
	}))
	defer srv.Close()

	src := NewHTTPCSV(srv.URL, WithRateLimit(rate.Inf, 1))
	records, err := src.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Happy Paws", records[0].Get("name"))
}

func TestHTTPCSV_RetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("Name,Email\nHappy Paws,a@x.org\n"))
	}))
	defer srv.Close()

	src := NewHTTPCSV(srv.URL, WithRateLimit(rate.Inf, 1))
	records, err := src.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, records, 1)
}

func TestHTTPCSV_FailsFastOnClientError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	src := NewHTTPCSV(srv.URL, WithRateLimit(rate.Inf, 1))
	_, err := src.Records(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, calls, "4xx other than 429 is not retried")
}
