package rpc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"token-data-service/internal/domain/entity"
	"token-data-service/internal/pkg/apperrors"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func blockNumberServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
			return
		}
		var req struct {
			Method string `json:"method"`
		}
		if err := json.Unmarshal(payload, &req); err != nil || req.Method != "eth_blockNumber" {
			t.Errorf("unexpected request %s", payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChecker_HTTP(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantHeight uint64
		wantErr    error
	}{
		{name: "healthy", status: http.StatusOK, body: `{"jsonrpc":"2.0","id":1,"result":"0x1198650"}`, wantHeight: 18_450_000},
		{name: "json-rpc error", status: http.StatusOK, body: `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"rate limited"}}`, wantErr: apperrors.ErrExternalServiceFailure},
		{name: "http error", status: http.StatusServiceUnavailable, body: `busy`, wantErr: apperrors.ErrExternalServiceFailure},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantErr: apperrors.ErrExternalServiceFailure},
		{name: "malformed quantity", status: http.StatusOK, body: `{"jsonrpc":"2.0","id":1,"result":"12"}`, wantErr: apperrors.ErrExternalServiceFailure},
		{name: "missing result", status: http.StatusOK, body: `{"jsonrpc":"2.0","id":1}`, wantErr: apperrors.ErrExternalServiceFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := blockNumberServer(t, tt.status, tt.body)
			checker := NewChecker(2*time.Second, zap.NewNop())

			height, _, err := checker.CheckRPC(context.Background(), entity.RPCURL(srv.URL+"/v3/secret-key"))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.NotContains(t, err.Error(), "secret-key")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHeight, height)
		})
	}
}

func TestChecker_HTTPTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	checker := NewChecker(100*time.Millisecond, zap.NewNop())
	_, _, err := checker.CheckRPC(context.Background(), entity.RPCURL(srv.URL))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
}

func TestChecker_ExpiredContext(t *testing.T) {
	checker := NewChecker(time.Second, zap.NewNop())
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, _, err := checker.CheckRPC(ctx, entity.RPCURL("https://rpc.example.org"))
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
}

func TestChecker_UnsupportedProtocol(t *testing.T) {
	checker := NewChecker(time.Second, zap.NewNop())
	_, _, err := checker.CheckRPC(context.Background(), entity.RPCURL("ipc:///tmp/geth.ipc"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestChecker_WebSocket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if !strings.Contains(string(msg), "eth_blockNumber") {
			t.Errorf("unexpected request %s", msg)
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","id":1,"result":"0x10"}`))
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	checker := NewChecker(2*time.Second, zap.NewNop())

	height, latency, err := checker.CheckRPC(context.Background(), entity.RPCURL(wsURL))
	require.NoError(t, err)
	assert.EqualValues(t, 16, height)
	assert.Positive(t, latency)
}

func TestChecker_WebSocketDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	checker := NewChecker(time.Second, zap.NewNop())
	_, _, err := checker.CheckRPC(context.Background(), entity.RPCURL(wsURL))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrExternalServiceFailure)
}
