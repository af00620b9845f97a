package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlackNotifierPostsMessage(t *testing.T) {
	var gotChannel, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat.postMessage"), r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotChannel = r.FormValue("channel")
		gotText = r.FormValue("text")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true,"channel":"C123","ts":"1700000000.000100"}`)
	}))
	defer server.Close()

	n := NewSlackNotifier("xoxb-test", "C123", slack.OptionAPIURL(server.URL+"/"))
	err := n.Notify(context.Background(), "*Ada*: WEB-1")
	require.NoError(t, err)

	assert.Equal(t, "C123", gotChannel)
	assert.Equal(t, "*Ada*: WEB-1", gotText)
}

func TestSlackNotifierReportsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":false,"error":"channel_not_found"}`)
	}))
	defer server.Close()

	n := NewSlackNotifier("xoxb-test", "C404", slack.OptionAPIURL(server.URL+"/"))
	err := n.Notify(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
	assert.Contains(t, err.Error(), "C404")
}

func TestSlackNotifierReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := NewSlackNotifier("xoxb-test", "C1", slack.OptionAPIURL(server.URL+"/"))
	assert.Error(t, n.Notify(context.Background(), "hello"))
}

func TestWebhookNotifier(t *testing.T) {
	var got slack.WebhookMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, server.Client())
	require.NoError(t, n.Notify(context.Background(), "digest"))
	assert.Equal(t, "digest", got.Text)
}

func TestWebhookNotifierNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, nil)
	assert.Error(t, n.Notify(context.Background(), "digest"))
}

func TestConsoleNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewConsoleNotifier(&buf)
	require.NoError(t, n.Notify(context.Background(), "hello"))
	assert.Equal(t, "hello\n", buf.String())
	assert.Equal(t, "console", n.Name())
}

func TestNewPicksDestination(t *testing.T) {
	n, err := New(Settings{WebhookURL: "https://hooks.slack.com/services/x", BotToken: "xoxb"})
	require.NoError(t, err)
	assert.Equal(t, "slack-webhook", n.Name())

	n, err = New(Settings{BotToken: "xoxb", ChannelID: "C1"})
	require.NoError(t, err)
	assert.Equal(t, "slack", n.Name())

	_, err = New(Settings{BotToken: "xoxb"})
	assert.ErrorIs(t, err, ErrNoDestination)
}
