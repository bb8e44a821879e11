package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vekotinverstas/sensorpull/internal/fetch"
	"github.com/vekotinverstas/sensorpull/internal/timewindow"
)

func testRequest() timewindow.Request {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return timewindow.Request{
		Group: "1",
		Chunk: timewindow.Chunk{Start: start, End: start.Add(24 * time.Hour)},
	}
}

func TestFMIFetchParsesCSV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "2024-06-01 00:00:00", r.URL.Query().Get("starttime"))
		require.Equal(t, "2024-06-02 00:00:00", r.URL.Query().Get("endtime"))
		require.Equal(t, "1", r.URL.Query().Get("station_id"))
		w.Write([]byte("station_id,temperature,humidity,utctime\n1,21.5,NULL,2024-06-01 00:00:00\n"))
	}))
	defer server.Close()

	client := NewFMI(server.URL, UserAgent("test"))
	records, err := client.Fetch(context.Background(), testRequest())

	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "21.5", records[0]["temperature"])
	require.Nil(t, records[0]["humidity"])
}

func TestFMIFetchEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("\n"))
	}))
	defer server.Close()

	client := NewFMI(server.URL, UserAgent("test"))
	records, err := client.Fetch(context.Background(), testRequest())

	require.NoError(t, err)
	require.Empty(t, records)
}

func TestNuukaFetchRowLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"message": "Too many rows (423478). Max number of rows 200000."}]`))
	}))
	defer server.Close()

	client, err := NewNuuka(server.URL, "token", "1234", UserAgent("test"))
	require.NoError(t, err)
	_, err = client.Fetch(context.Background(), testRequest())

	var rowLimit *fetch.RowLimitError
	require.ErrorAs(t, err, &rowLimit)
	require.Equal(t, 423478, rowLimit.Rows)
	require.Equal(t, 200000, rowLimit.Max)
}

func TestNuukaFetchData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1234", r.URL.Query().Get("Building"))
		require.Equal(t, "UTCOffset", r.URL.Query().Get("TimestampTimeZone"))
		// Request times go out in Finnish local time (EEST in June).
		require.Equal(t, "2024-06-01 03:00:00", r.URL.Query().Get("StartTime"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"Timestamp": "2024-06-01T03:00:00+03:00", "Value": 155.73, "DataPointID": 136975}]`))
	}))
	defer server.Close()

	client, err := NewNuuka(server.URL, "token", "1234", UserAgent("test"))
	require.NoError(t, err)
	records, err := client.Fetch(context.Background(), testRequest())

	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 155.73, records[0]["Value"])
}

func TestNuukaFetchUsesCache(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"DataPointID": 136975}]`))
	}))
	defer server.Close()

	client, err := NewNuuka(server.URL, "token", "1234", UserAgent("test"))
	require.NoError(t, err)
	client.CacheDir = t.TempDir()

	for i := 0; i < 2; i++ {
		records, err := client.Fetch(context.Background(), testRequest())
		require.NoError(t, err)
		require.Len(t, records, 1)
	}
	require.Equal(t, 1, calls, "second fetch must be served from cache")
}

func TestParseTooManyRows(t *testing.T) {
	_, _, ok := parseTooManyRows([]fetch.Record{{"Value": 1.0}, {"Value": 2.0}})
	require.False(t, ok)
	_, _, ok = parseTooManyRows([]fetch.Record{{"message": "something else"}})
	require.False(t, ok)
}

func TestKaltiotFetchNotReady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPartialContent)
	}))
	defer server.Close()

	client := NewKaltiot(server.URL, "key", "temperature", UserAgent("test"))
	_, err := client.Fetch(context.Background(), testRequest())

	require.ErrorIs(t, err, fetch.ErrNotReady)
}

func TestKaltiotFetchHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "key", r.Header.Get("ApiKey"))
		require.Equal(t, "1717200000000", r.URL.Query().Get("from"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": "abc", "history": [{"timestamp": 1717200000000, "value": "21.5"}]}]`))
	}))
	defer server.Close()

	client := NewKaltiot(server.URL, "key", "temperature", UserAgent("test"))
	records, err := client.Fetch(context.Background(), testRequest())

	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "abc", records[0]["id"])
	require.Equal(t, 21.5, records[0]["value"])
	require.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), records[0]["time"])
}
