package notify

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTelegramNotifier_Notify(t *testing.T) {
	var got sendMessageRequest
	var path string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("test-token", WithAPIURL(srv.URL+"/bot%s/sendMessage"))

	err := n.Notify(context.Background(), "12345", "Copied buy")
	require.NoError(t, err)

	require.Equal(t, "/bottest-token/sendMessage", path)
	require.Equal(t, "12345", got.ChatID)
	require.Equal(t, "Copied buy", got.Text)
}

func TestTelegramNotifier_APIRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("test-token", WithAPIURL(srv.URL+"/bot%s/sendMessage"))

	err := n.Notify(context.Background(), "missing", "hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "chat not found")
}

func TestLogNotifier(t *testing.T) {
	var buf strings.Builder
	n := NewLogNotifier(log.New(&buf, "", 0))

	require.NoError(t, n.Notify(context.Background(), "user-1", "status line"))
	require.Contains(t, buf.String(), "user-1")
	require.Contains(t, buf.String(), "status line")
}
