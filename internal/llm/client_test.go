package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tbourn/go-offer-engine/internal/prompt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

type captured struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newClient(t *testing.T, url string, timeout time.Duration) *OpenAI {
	t.Helper()
	c, err := NewOpenAI(Settings{Model: "test-model", APIKey: "sk-test", BaseURL: url + "/v1/", Temperature: 0.4, Timeout: timeout})
	require.NoError(t, err)
	return c
}

func TestOpenAI_Generate_SendsSystemAndUser(t *testing.T) {
	var got captured
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completion(`{"full_offer":{}}`))
	}))
	defer srv.Close()

	out, err := newClient(t, srv.URL, 0).Generate(context.Background(), prompt.Prompt{System: "sys", Text: "do it"})
	require.NoError(t, err)
	assert.Equal(t, `{"full_offer":{}}`, out)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "test-model", got.Model)
	assert.InDelta(t, 0.4, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "sys", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "do it", got.Messages[1].Content)
}

func TestOpenAI_Generate_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, ErrProviderRateLimited},
		{"server error", http.StatusInternalServerError, ErrProviderUnavailable},
		{"unauthorized", http.StatusUnauthorized, ErrProviderUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, `{"error":{"message":"nope","type":"x"}}`)
			}))
			defer srv.Close()

			_, err := newClient(t, srv.URL, 0).Generate(context.Background(), prompt.Prompt{Text: "x"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, 1, calls, "no retries")
		})
	}
}

func TestOpenAI_Generate_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL, 0).Generate(context.Background(), prompt.Prompt{Text: "x"})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestOpenAI_Generate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL, 50*time.Millisecond).Generate(context.Background(), prompt.Prompt{Text: "x"})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestNewOpenAI_Validation(t *testing.T) {
	_, err := NewOpenAI(Settings{Model: "m"})
	assert.Error(t, err)
	_, err = NewOpenAI(Settings{APIKey: "k"})
	assert.Error(t, err)
}

func TestNew_SelectsProvider(t *testing.T) {
	c, err := New(Settings{Provider: "static"})
	require.NoError(t, err)
	out, err := c.Generate(context.Background(), prompt.Prompt{})
	require.NoError(t, err)
	assert.Equal(t, StaticPayload, out)

	_, err = New(Settings{Provider: "carrier-pigeon"})
	assert.Error(t, err)

	_, err = New(Settings{Provider: "openai"})
	assert.Error(t, err, "missing key must fail")
}

func TestStatic(t *testing.T) {
	var zero Static
	out, err := zero.Generate(context.Background(), prompt.Prompt{})
	require.NoError(t, err)
	assert.Equal(t, StaticPayload, out)

	boom := errors.New("boom")
	_, err = (&Static{Err: boom}).Generate(context.Background(), prompt.Prompt{})
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewStatic().Generate(ctx, prompt.Prompt{})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInstrument_CountsOutcomes(t *testing.T) {
	baseOK := testutil.ToFloat64(genReqs.WithLabelValues("unit", "ok"))
	baseRL := testutil.ToFloat64(genReqs.WithLabelValues("unit", "rate_limited"))
	baseErr := testutil.ToFloat64(genReqs.WithLabelValues("unit", "error"))

	var next error
	c := Instrument("unit", Func(func(ctx context.Context, p prompt.Prompt) (string, error) {
		if next != nil {
			return "", next
		}
		return "text", nil
	}))

	out, err := c.Generate(context.Background(), prompt.Prompt{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "text", out)

	next = ErrProviderRateLimited
	_, err = c.Generate(context.Background(), prompt.Prompt{Text: "x"})
	assert.ErrorIs(t, err, ErrProviderRateLimited)

	next = errors.New("other")
	_, _ = c.Generate(context.Background(), prompt.Prompt{Text: "x"})

	assert.Equal(t, baseOK+1, testutil.ToFloat64(genReqs.WithLabelValues("unit", "ok")))
	assert.Equal(t, baseRL+1, testutil.ToFloat64(genReqs.WithLabelValues("unit", "rate_limited")))
	assert.Equal(t, baseErr+1, testutil.ToFloat64(genReqs.WithLabelValues("unit", "error")))
}
