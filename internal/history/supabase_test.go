// internal/history/supabase_test.go
package history

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupabaseSave(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/analysis_history", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		assert.Equal(t, "application/vnd.pgrst.object+json", r.Header.Get("Accept"))

		var rows []map[string]json.RawMessage
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&rows)) || !assert.Len(t, rows, 1) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.JSONEq(t, `"Anomaly: IP spoofing from 192.168.1.200"`, string(rows[0]["summary_title"]))
		assert.JSONEq(t, `"raw text"`, string(rows[0]["raw_log"]))

		row := map[string]interface{}{
			"id":              42,
			"created_at":      "2026-03-01T10:00:01.5+00:00",
			"raw_log":         "raw text",
			"dashboard_data":  json.RawMessage(rows[0]["dashboard_data"]),
			"report_markdown": "# สรุปเหตุการณ์\n- Gi0/1 flapping\n",
			"summary_title":   "Anomaly: IP spoofing from 192.168.1.200",
		}
		w.Header().Set("Content-Type", "application/vnd.pgrst.object+json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(row)
	}))
	defer server.Close()

	store := NewSupabase(SupabaseConfig{URL: server.URL + "/", APIKey: "anon-key"})
	entry, err := store.Save(context.Background(), "raw text", sampleResult())
	require.NoError(t, err)

	assert.Equal(t, "42", entry.ID.String())
	assert.Equal(t, sampleResult().DashboardData, entry.DashboardData)
	assert.Equal(t, 2026, entry.CreatedAt.Year())
}

func TestSupabaseFetchRecent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "*", r.URL.Query().Get("select"))
		assert.True(t, strings.HasPrefix(r.URL.Query().Get("order"), "created_at.desc"), r.URL.Query().Get("order"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": "b", "created_at": "2026-03-02T09:00:00+00:00", "raw_log": "two", "dashboard_data": {"totalLogs": 2, "severityCounts": {"info": 2, "warning": 0, "error": 0, "critical": 0}, "topEvents": [], "detectedAnomalies": [], "portStatuses": []}, "report_markdown": "r2", "summary_title": "Log Analysis (2 lines)"},
			{"id": "a", "created_at": "2026-03-01T09:00:00+00:00", "raw_log": "one", "dashboard_data": {"totalLogs": 1, "severityCounts": {"info": 1, "warning": 0, "error": 0, "critical": 0}, "topEvents": [], "detectedAnomalies": [], "portStatuses": []}, "report_markdown": "r1", "summary_title": null}
		]`))
	}))
	defer server.Close()

	store := NewSupabase(SupabaseConfig{URL: server.URL, APIKey: "anon-key"})
	entries, err := store.FetchRecent(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "b", entries[0].ID.String())
	assert.Equal(t, 2, entries[0].DashboardData.TotalLogs)
	assert.Equal(t, "Untitled Log", entries[1].DisplayTitle())
}

func TestSupabaseErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":"42P01","details":null,"hint":null,"message":"relation \"public.analysis_history\" does not exist"}`))
	}))
	defer server.Close()

	store := NewSupabase(SupabaseConfig{URL: server.URL, APIKey: "anon-key"})

	_, err := store.FetchRecent(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, "42P01", apiErr.Code)
	assert.Contains(t, err.Error(), "does not exist")

	_, err = store.Save(context.Background(), "raw", sampleResult())
	require.True(t, errors.As(err, &apiErr))
}

func TestSupabaseTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	store := NewSupabase(SupabaseConfig{URL: server.URL, APIKey: "anon-key", Timeout: 50 * time.Millisecond})

	_, err := store.FetchRecent(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadline exceeded")
}
