package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almalabs/wabridge/internal/config"
)

func TestNewClient(t *testing.T) {
	t.Run("requires url", func(t *testing.T) {
		_, err := NewClient(config.AgentConfig{AppName: "alma"}, zerolog.Nop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "url")
	})

	t.Run("valid config", func(t *testing.T) {
		client, err := NewClient(config.AgentConfig{URL: "http://agent:8000/run", AppName: "alma"}, zerolog.Nop())
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestFormatRequest(t *testing.T) {
	client, err := NewClient(config.AgentConfig{URL: "http://agent/run", AppName: "alma"}, zerolog.Nop())
	require.NoError(t, err)

	req := client.FormatRequest("5691234567", "Hola")

	assert.Equal(t, "alma", req.AppName)
	assert.Equal(t, "5691234567", req.UserID)
	assert.Equal(t, "5691234567", req.SessionID)
	assert.Equal(t, "user", req.NewMessage.Role)
	require.Len(t, req.NewMessage.Parts, 1)
	assert.Equal(t, "Hola", req.NewMessage.Parts[0].Text)
}

func TestFormatRequestWireShape(t *testing.T) {
	client, err := NewClient(config.AgentConfig{URL: "http://agent/run", AppName: "alma"}, zerolog.Nop())
	require.NoError(t, err)

	data, err := json.Marshal(client.FormatRequest("569", "Hola"))
	require.NoError(t, err)

	expected := `{"appName":"alma","userId":"569","sessionId":"569","newMessage":{"role":"user","parts":[{"text":"Hola"}]}}`
	assert.JSONEq(t, expected, string(data))
}

func TestSend(t *testing.T) {
	newClient := func(t *testing.T, handler http.HandlerFunc) *Client {
		t.Helper()
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)

		client, err := NewClient(config.AgentConfig{URL: srv.URL, AppName: "alma"}, zerolog.Nop())
		require.NoError(t, err)
		return client
	}

	t.Run("posts request and decodes object response", func(t *testing.T) {
		var captured Request

		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"text":"respuesta"}`))
		})

		resp, err := client.Send(context.Background(), "5691234567", "Hola")
		require.NoError(t, err)

		assert.Equal(t, "5691234567", captured.UserID)
		assert.Equal(t, "Hola", captured.NewMessage.Parts[0].Text)

		obj, ok := resp.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "respuesta", obj["text"])
	})

	t.Run("decodes list response", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"content":{"parts":[{"text":"a"}]}}]`))
		})

		resp, err := client.Send(context.Background(), "569", "Hola")
		require.NoError(t, err)

		_, ok := resp.([]interface{})
		assert.True(t, ok)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		})

		_, err := client.Send(context.Background(), "569", "Hola")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("invalid response JSON is an error", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		})

		_, err := client.Send(context.Background(), "569", "Hola")
		assert.Error(t, err)
	})

	t.Run("connection failure is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		client, err := NewClient(config.AgentConfig{URL: srv.URL, AppName: "alma"}, zerolog.Nop())
		require.NoError(t, err)
		srv.Close()

		_, err = client.Send(context.Background(), "569", "Hola")
		assert.Error(t, err)
	})

	t.Run("context cancellation aborts the call", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Send(ctx, "569", "Hola")
		assert.Error(t, err)
	})
}
