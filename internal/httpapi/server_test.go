package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SRdeMora/quimera/internal/directive"
	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/orchestrator"
	"github.com/SRdeMora/quimera/internal/types"
)

type stubChatter struct {
	resp    *orchestrator.ChatResponse
	err     error
	lastReq orchestrator.ChatRequest
}

func (s *stubChatter) Chat(ctx context.Context, req orchestrator.ChatRequest) (*orchestrator.ChatResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

type fixedHealth struct {
	status types.HealthStatus
}

func (f fixedHealth) Health(ctx context.Context) types.HealthStatus {
	return f.status
}

func newTestServer(chatter Chatter, required types.HealthStatus) *Server {
	agg := orchestrator.NewHealthAggregator().
		Required("recency", fixedHealth{status: required})
	return New(chatter, agg, nil)
}

func postChat(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleChat_Success(t *testing.T) {
	session := types.NewID()
	chatter := &stubChatter{resp: &orchestrator.ChatResponse{
		SessionID: session,
		Reply:     "hola, ¿en qué puedo ayudarte?",
		Directive: directive.None(),
	}}
	srv := newTestServer(chatter, types.Healthy("ok"))

	rec := postChat(t, srv.Router(), `{"session_id":"`+session.String()+`","message":"hola"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp orchestrator.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hola, ¿en qué puedo ayudarte?", resp.Reply)
	assert.Equal(t, session, chatter.lastReq.SessionID)
	assert.Equal(t, "hola", chatter.lastReq.Message)
}

func TestHandleChat_MalformedBody(t *testing.T) {
	srv := newTestServer(&stubChatter{}, types.Healthy("ok"))

	rec := postChat(t, srv.Router(), `{"message":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChat_InvalidSessionID(t *testing.T) {
	srv := newTestServer(&stubChatter{}, types.Healthy("ok"))

	rec := postChat(t, srv.Router(), `{"session_id":"not-a-uuid","message":"hola"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "empty turn",
			err:        memory.NewInvalidTurnError("turn text is empty"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "recency outage",
			err:        types.NewError(types.ErrCodeRequiredTierUnavailable, "recency window fetch failed"),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "provider failure",
			err:        types.NewError(types.ErrCodeProviderCallFailed, "completion request failed"),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "turn not recorded",
			err:        types.NewError(types.ErrCodeTurnNotRecorded, "recency append failed"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&stubChatter{err: tt.err}, types.Healthy("ok"))

			rec := postChat(t, srv.Router(), `{"message":"hola"}`)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Code)
		})
	}
}

func TestHandleReadiness(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		srv := newTestServer(&stubChatter{}, types.Healthy("ok"))
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("required tier down", func(t *testing.T) {
		srv := newTestServer(&stubChatter{}, types.Unhealthy("connection refused"))
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandleHealth_ReportsTiers(t *testing.T) {
	srv := newTestServer(&stubChatter{}, types.Healthy("ok"))
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var report orchestrator.HealthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Contains(t, report.Tiers, "recency")
}

func TestHandleLiveness(t *testing.T) {
	srv := newTestServer(&stubChatter{}, types.Healthy("ok"))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
