package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/compliance-signals/pkg/models/api"
	"github.com/de-tools/compliance-signals/pkg/models/store"
	"github.com/de-tools/compliance-signals/pkg/store/sqlite"
	"github.com/de-tools/compliance-signals/pkg/store/sqlite/runs"
)

func TestWebAPI_Endpoints(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	ctx := context.Background()

	dir := t.TempDir()
	outputPath := filepath.Join(dir, "signals.json")
	require.NoError(t, os.WriteFile(outputPath, []byte(`{"count":1,"signals":[{"risk":"HIGH"}]}`), 0o644))

	db, err := sqlite.NewDB(ctx, sqlite.Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	defer db.Close()
	history, err := runs.NewStore(db)
	require.NoError(t, err)

	started := time.Date(2025, 8, 14, 1, 0, 0, 0, time.UTC)
	require.NoError(t, history.Create(ctx, &store.Run{
		ID: "run-1", Mode: "signals", Status: "running", SourceURL: "u", OutputPath: outputPath, StartedAt: started,
	}))

	router := ConfigureRouter(Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		Dependencies: Dependencies{
			OutputPath: outputPath,
			Runs:       history,
			Logger:     logger,
		},
	})
	testServer := httptest.NewServer(router)
	defer testServer.Close()

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expected       interface{}
		parseResponse  func([]byte) (interface{}, error)
	}{
		{
			name:           "Healthz",
			path:           "/healthz",
			expectedStatus: http.StatusOK,
			expected:       "ok",
			parseResponse:  rawResponse,
		},
		{
			name:           "Signals",
			path:           "/api/v1/signals",
			expectedStatus: http.StatusOK,
			expected:       `{"count":1,"signals":[{"risk":"HIGH"}]}`,
			parseResponse:  rawResponse,
		},
		{
			name:           "LatestRun",
			path:           "/api/v1/runs/latest",
			expectedStatus: http.StatusOK,
			expected:       "run-1",
			parseResponse: func(data []byte) (interface{}, error) {
				var run api.Run
				err := json.Unmarshal(data, &run)
				return run.ID, err
			},
		},
		{
			name:           "ListRuns",
			path:           "/api/v1/runs?limit=5",
			expectedStatus: http.StatusOK,
			expected:       1,
			parseResponse: func(data []byte) (interface{}, error) {
				var list api.RunList
				err := json.Unmarshal(data, &list)
				return len(list.Runs), err
			},
		},
		{
			name:           "ListRuns_InvalidLimit",
			path:           "/api/v1/runs?limit=0",
			expectedStatus: http.StatusBadRequest,
			expected:       "limit must be an integer between 1 and 500",
			parseResponse:  unmarshalResponse[api.ErrorResponse](func(r api.ErrorResponse) interface{} { return r.Error }),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(testServer.URL + tc.path)
			require.NoError(t, err, "Failed to send request")
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "Status code mismatch")

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "Failed to read response body")

			actual, err := tc.parseResponse(body)
			require.NoError(t, err, "Failed to parse response")

			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestWebAPI_StartStopsOnCancel(t *testing.T) {
	web := NewWebAPI(Config{
		Addr:            "127.0.0.1:0",
		ShutdownTimeout: time.Second,
		Dependencies:    Dependencies{Logger: zerolog.Nop()},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- web.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func rawResponse(data []byte) (interface{}, error) {
	return string(data), nil
}

func unmarshalResponse[T any](pick func(T) interface{}) func([]byte) (interface{}, error) {
	return func(data []byte) (interface{}, error) {
		var response T
		err := json.Unmarshal(data, &response)
		return pick(response), err
	}
}
