package export

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"github.com/runledger/runledger/internal/models"
	"github.com/runledger/runledger/internal/store"
	"github.com/runledger/runledger/pkg/errors"
	"github.com/runledger/runledger/pkg/logging"
)

func openTestReader(t *testing.T) *Reader {
	t.Helper()

	log := logging.NewNopLogger()
	s, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "test.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))

	runs := []models.Run{
		{
			ID:          1001,
			Date:        "2024-06-01",
			Name:        null.StringFrom("Morning Run"),
			DistanceKm:  null.FloatFrom(16.0),
			DurationSec: null.IntFrom(5400),
			PaceMinKm:   null.FloatFrom(5.625),
			HourOfDay:   8,
			DayOfWeek:   "Saturday",
		},
		{
			ID:        1002,
			Date:      "2024-06-02",
			Name:      null.StringFrom("Recovery"),
			HourOfDay: 18,
			DayOfWeek: "Sunday",
		},
	}
	require.NoError(t, s.UpsertRuns(ctx, runs))

	sleep := []models.SleepRecord{
		{Date: "2024-06-01", SleepScore: null.IntFrom(82), TotalSleepMin: null.IntFrom(431)},
	}
	require.NoError(t, s.UpsertSleep(ctx, sleep))

	return NewReader(s)
}

func TestReaderDataset(t *testing.T) {
	reader := openTestReader(t)
	ctx := context.Background()

	dataset, err := reader.Dataset(ctx, TableRuns)
	require.NoError(t, err)

	assert.Equal(t, TableRuns, dataset.Table)
	require.Len(t, dataset.Rows, 2)

	// Column order follows the schema, starting with the key columns.
	require.NotEmpty(t, dataset.Columns)
	assert.Equal(t, "id", dataset.Columns[0])
	assert.Equal(t, "date", dataset.Columns[1])

	first := dataset.Rows[0]
	assert.Equal(t, int64(1001), first["id"])
	assert.Equal(t, "Morning Run", first["name"])
	assert.Equal(t, 16.0, first["distance_km"])

	// Absent optionals come through as nil, not zero.
	second := dataset.Rows[1]
	assert.Nil(t, second["distance_km"])
	assert.Nil(t, second["duration_sec"])
}

func TestReaderDatasetUnknownTable(t *testing.T) {
	reader := openTestReader(t)

	_, err := reader.Dataset(context.Background(), "bogus")
	require.Error(t, err)

	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestWriteCSV(t *testing.T) {
	dataset := &Dataset{
		Table:   "sleep",
		Columns: []string{"date", "sleep_score", "hrv"},
		Rows: []map[string]any{
			{"date": "2024-06-01", "sleep_score": int64(82), "hrv": nil},
			{"date": "2024-06-02", "sleep_score": nil, "hrv": int64(45)},
		},
	}

	var buf strings.Builder
	require.NoError(t, WriteCSV(dataset, &buf))

	want := "date,sleep_score,hrv\n" +
		"2024-06-01,82,\n" +
		"2024-06-02,,45\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteNDJSON(t *testing.T) {
	dataset := &Dataset{
		Table:   "sleep",
		Columns: []string{"date", "sleep_score"},
		Rows: []map[string]any{
			{"date": "2024-06-01", "sleep_score": int64(82)},
			{"date": "2024-06-02", "sleep_score": nil},
		},
	}

	var buf strings.Builder
	require.NoError(t, WriteNDJSON(dataset, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "2024-06-01", first["date"])
	assert.Equal(t, float64(82), first["sleep_score"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Nil(t, second["sleep_score"])
}

func TestWriteJSON(t *testing.T) {
	dataset := &Dataset{
		Table:   "sleep",
		Columns: []string{"date"},
		Rows:    []map[string]any{{"date": "2024-06-01"}},
	}

	var buf strings.Builder
	require.NoError(t, WriteJSON(dataset, &buf, false))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-06-01", rows[0]["date"])
}

func TestFileWriterSkipsEmptyTables(t *testing.T) {
	reader := openTestReader(t)
	log := logging.NewNopLogger()
	writer := NewFileWriter(reader, log)

	dir := t.TempDir()
	written, err := writer.WriteTables(context.Background(),
		[]string{TableRuns, TableGarminRuns, TableSleep}, FormatCSV, dir)
	require.NoError(t, err)

	// garmin_runs is empty, so only two files appear.
	require.Len(t, written, 2)
	assert.Equal(t, filepath.Join(dir, "runs.csv"), written[0])
	assert.Equal(t, filepath.Join(dir, "sleep.csv"), written[1])

	data, err := os.ReadFile(written[1])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "date,sleep_score,"))
}

func TestFileWriterRejectsUnknownFormat(t *testing.T) {
	reader := openTestReader(t)
	log := logging.NewNopLogger()
	writer := NewFileWriter(reader, log)

	_, err := writer.WriteTables(context.Background(), []string{TableRuns}, "xml", t.TempDir())
	require.Error(t, err)

	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestStreamerSendHEC(t *testing.T) {
	var gotAuth string
	var gotBody []byte
	var requests int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	reader := openTestReader(t)
	log := logging.NewNopLogger()
	streamer, err := NewHECStreamer(reader, server.URL, "secret", log)
	require.NoError(t, err)

	// garmin_runs is empty, so only the runs table produces a request.
	err = streamer.SendHEC(context.Background(), []string{TableRuns, TableGarminRuns})
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
	assert.Equal(t, "Splunk secret", gotAuth)

	var events []map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &events))
	require.Len(t, events, 2)
	assert.Equal(t, "running_data", events[0]["sourcetype"])
	assert.Equal(t, "runs", events[0]["source"])

	event, ok := events[0]["event"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2024-06-01", event["date"])
}

func TestStreamerSendNDJSON(t *testing.T) {
	var gotAuth string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	reader := openTestReader(t)
	log := logging.NewNopLogger()
	streamer := NewStreamer(reader, server.URL, "tok", log)

	require.NoError(t, streamer.SendNDJSON(context.Background(), []string{TableSleep}))
	assert.Equal(t, "Bearer tok", gotAuth)

	lines := strings.Split(strings.TrimSpace(string(gotBody)), "\n")
	require.Len(t, lines, 1)

	var event map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &event))
	assert.Equal(t, "running_data", event["_sourcetype"])
	assert.Equal(t, "sleep", event["_source"])
	assert.Equal(t, "2024-06-01", event["date"])
}

func TestStreamerNDJSONWithoutToken(t *testing.T) {
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	reader := openTestReader(t)
	log := logging.NewNopLogger()
	streamer := NewStreamer(reader, server.URL, "", log)

	require.NoError(t, streamer.SendNDJSON(context.Background(), []string{TableSleep}))
	assert.Empty(t, gotAuth)
}

func TestHECStreamerRequiresToken(t *testing.T) {
	reader := openTestReader(t)
	log := logging.NewNopLogger()

	_, err := NewHECStreamer(reader, "http://example.com", "", log)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTokenRequired)
}

func TestStreamerReportsStatusFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	reader := openTestReader(t)
	log := logging.NewNopLogger()
	streamer, err := NewHECStreamer(reader, server.URL, "secret", log)
	require.NoError(t, err)

	err = streamer.SendHEC(context.Background(), []string{TableRuns})
	require.Error(t, err)

	var expErr *errors.ExportError
	require.ErrorAs(t, err, &expErr)
	assert.Equal(t, http.StatusForbidden, expErr.StatusCode)
}

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		bucket  string
		prefix  string
		wantErr bool
	}{
		{name: "bucket only", raw: "s3://my-bucket", bucket: "my-bucket", prefix: ""},
		{name: "bucket and prefix", raw: "s3://my-bucket/running/2024", bucket: "my-bucket", prefix: "running/2024"},
		{name: "trailing slash", raw: "s3://my-bucket/running/", bucket: "my-bucket", prefix: "running"},
		{name: "missing scheme", raw: "my-bucket/running", wantErr: true},
		{name: "empty bucket", raw: "s3://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, prefix, err := ParseS3URL(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				var cfgErr *errors.ConfigError
				assert.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.prefix, prefix)
		})
	}
}
