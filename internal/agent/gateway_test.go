package agent

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otto/internal/httpclient"
	"otto/internal/jsonx"
)

func stubTokens(s string) int { return len(s) / 4 }

func newTestGateway(t *testing.T, urls map[Kind]string) *Gateway {
	t.Helper()
	gw, err := NewGateway(Options{
		URLs:         urls,
		TokenCounter: stubTokens,
	})
	require.NoError(t, err)
	return gw
}

func TestSendWrapsPromptInTaskEnvelope(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := httpclient.ReadAllWithLimit(r.Body, 1<<20)
		require.NoError(t, err)
		require.NoError(t, jsonx.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"result":{"status":{"message":{"parts":[{"type":"text","text":"done"}]}}}}`))
	}))
	defer srv.Close()

	gw := newTestGateway(t, map[Kind]string{KindCalendar: srv.URL})
	reply, err := gw.Send(t.Context(), KindCalendar, "list my events", "session-1")
	require.NoError(t, err)

	assert.Equal(t, "2.0", got["jsonrpc"])
	assert.Equal(t, "tasks/send", got["method"])
	params := got["params"].(map[string]any)
	assert.Equal(t, "session-1", params["sessionId"])
	message := params["message"].(map[string]any)
	assert.Equal(t, "user", message["role"])
	parts := message["parts"].([]any)
	part := parts[0].(map[string]any)
	assert.Equal(t, "list my events", part["text"])

	assert.Equal(t, "done", gw.ReplyText(reply))
}

func TestSendUnknownAgent(t *testing.T) {
	gw := newTestGateway(t, map[Kind]string{})
	_, err := gw.Send(t.Context(), KindGift, "hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no URL configured")
}

func TestSendUpstreamErrorSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"agent is down"}`))
	}))
	defer srv.Close()

	gw := newTestGateway(t, map[Kind]string{KindPublicData: srv.URL})
	_, err := gw.Send(t.Context(), KindPublicData, "hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent is down")
	assert.Contains(t, err.Error(), "502")
}

func TestSendCachedHitsUpstreamOnce(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"result":{}}`))
	}))
	defer srv.Close()

	gw := newTestGateway(t, map[Kind]string{KindPreferenceQuery: srv.URL})

	first, err := gw.SendCached(t.Context(), KindPreferenceQuery, "dinner ideas", "")
	require.NoError(t, err)
	second, err := gw.SendCached(t.Context(), KindPreferenceQuery, "dinner ideas", "")
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, int64(1), calls.Load())

	_, err = gw.SendCached(t.Context(), KindPreferenceQuery, "lunch ideas", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestForwardPassesBodyVerbatim(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = httpclient.ReadAllWithLimit(r.Body, 1<<20)
		_, _ = w.Write([]byte(`{"result":{"artifacts":[]}}`))
	}))
	defer srv.Close()

	gw := newTestGateway(t, map[Kind]string{KindCalendar: srv.URL})
	body := jsonx.RawMessage(`{"jsonrpc":"2.0","id":"7","method":"tasks/send","params":{}}`)
	_, err := gw.Forward(t.Context(), KindCalendar, body)
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(got))
}

func TestProbeReportsPerAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Reachability only; method and status don't matter.
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer srv.Close()

	gw := newTestGateway(t, map[Kind]string{
		KindCalendar: srv.URL,
		KindGift:     "http://127.0.0.1:1/nowhere",
	})

	results := gw.Probe(t.Context())
	require.Len(t, results, 2)
	assert.NoError(t, results[KindCalendar])
	assert.Error(t, results[KindGift])
}

func TestConflictAndErrorReplies(t *testing.T) {
	assert.True(t, IsConflictReply("Scheduling Conflict detected at 5pm"))
	assert.True(t, IsConflictReply("upstream returned 409"))
	assert.False(t, IsConflictReply("all good"))

	assert.True(t, IsErrorReply("Error: could not save record"))
	assert.True(t, IsErrorReply("status 500 from database"))
	assert.False(t, IsErrorReply("preferences saved"))
}
