package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSuperUClientDisabledWithoutAPIKey(t *testing.T) {
	c := NewSuperUClient("http://example.invalid", "", "assistant", "+15550000000", true, 2)
	require.False(t, c.Enabled())
}

func TestStartOutboundCallRequiresAssistantAndFromNumber(t *testing.T) {
	c := NewSuperUClient("http://example.invalid", "key", "", "", true, 2)
	_, err := c.StartOutboundCall(context.Background(), "+15550000001", "hi", nil)
	require.Error(t, err)
}

func TestStartOutboundCallSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/call/outbound-call", r.URL.Path)
		require.Equal(t, "key", r.Header.Get("superU-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"call_id": "prov_123"})
	}))
	defer srv.Close()

	c := NewSuperUClient(srv.URL, "key", "assistant_1", "+15550000000", true, 100)
	result, err := c.StartOutboundCall(context.Background(), "+15550000001", "hi", map[string]interface{}{"attempt": 1})
	require.NoError(t, err)
	require.Equal(t, "prov_123", result.ProviderCallID)
}

func TestFetchCallLogsReturnsEmptyWhenDisabled(t *testing.T) {
	c := NewSuperUClient("http://example.invalid", "", "assistant", "+15550000000", true, 2)
	logs, err := c.FetchCallLogs(context.Background(), "prov_1", 10)
	require.NoError(t, err)
	require.Nil(t, logs)
}

func TestFetchCallLogsNormalizesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []interface{}{
				map[string]interface{}{"status": "completed", "outcome": "converted"},
			},
		})
	}))
	defer srv.Close()

	c := NewSuperUClient(srv.URL, "key", "assistant_1", "+15550000000", true, 100)
	logs, err := c.FetchCallLogs(context.Background(), "prov_1", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "completed", logs[0]["status"])
}

func TestFetchCallLogsWrapsUnrecognizedSingleObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "ringing"})
	}))
	defer srv.Close()

	c := NewSuperUClient(srv.URL, "key", "assistant_1", "+15550000000", true, 100)
	logs, err := c.FetchCallLogs(context.Background(), "prov_1", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "ringing", logs[0]["status"])
}

func TestPostReturnsErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := NewSuperUClient(srv.URL, "key", "assistant_1", "+15550000000", true, 100)
	_, err := c.StartOutboundCall(context.Background(), "+15550000001", "hi", nil)
	require.Error(t, err)
}
