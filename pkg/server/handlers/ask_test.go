package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/duocdien/pkg/cypher"
	"github.com/soundprediction/duocdien/pkg/driver"
	"github.com/soundprediction/duocdien/pkg/nlp"
	"github.com/soundprediction/duocdien/pkg/pipeline"
	"github.com/soundprediction/duocdien/pkg/search"
	"github.com/soundprediction/duocdien/pkg/server/dto"
	"github.com/soundprediction/duocdien/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAsker struct {
	res      *pipeline.Result
	err      error
	lastMode string
	lastQ    string
}

func (f *fakeAsker) Ask(_ context.Context, q string) (*pipeline.Result, error) {
	f.lastMode, f.lastQ = "hybrid", q
	return f.res, f.err
}

func (f *fakeAsker) AskCypher(_ context.Context, q string) (*pipeline.Result, error) {
	f.lastMode, f.lastQ = "cypher", q
	return f.res, f.err
}

func newRouter(ask *AskHandler, s *SearchHandler) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), types.ContextKeyRequestID, "req-1")
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	if ask != nil {
		r.POST("/api/v1/ask", ask.Ask)
		r.POST("/api/v1/cypher", ask.Cypher)
	}
	if s != nil {
		r.POST("/api/v1/search", s.Search)
	}
	return r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestAsk_Hybrid(t *testing.T) {
	asker := &fakeAsker{res: &pipeline.Result{
		Question: "Công thức của Aspirin?",
		Status:   pipeline.StatusAnswered,
		Entity:   "ASPIRIN",
		Answer:   "C9H8O4",
		Grounded: true,
		Context:  []driver.ContextRecord{{Label: "HOẠT_CHẤT", Properties: map[string]string{"công_thức_hóa_học": "C9H8O4"}}},
		Duration: 1500 * time.Millisecond,
	}}
	var observed []string
	h := NewAskHandler(asker, nil, func(mode, status string) { observed = append(observed, mode+":"+status) })

	w := post(newRouter(h, nil), "/api/v1/ask", `{"question": "  Công thức của Aspirin?  "}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "hybrid", resp.Mode)
	assert.Equal(t, "answered", resp.Status)
	assert.Equal(t, "ASPIRIN", resp.Entity)
	assert.True(t, resp.Grounded)
	assert.Equal(t, int64(1500), resp.DurationMS)
	assert.Equal(t, "req-1", resp.RequestID)
	require.Len(t, resp.Context, 1)
	assert.Equal(t, "C9H8O4", resp.Context[0].Properties["công_thức_hóa_học"])

	assert.Equal(t, "Công thức của Aspirin?", asker.lastQ)
	assert.Equal(t, []string{"hybrid:answered"}, observed)
}

func TestAsk_CypherMode(t *testing.T) {
	asker := &fakeAsker{res: &pipeline.Result{Status: pipeline.StatusAnswered, Query: "MATCH (n) RETURN n"}}
	r := newRouter(NewAskHandler(asker, nil, nil), nil)

	w := post(r, "/api/v1/ask", `{"question": "q", "mode": "CYPHER"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cypher", asker.lastMode)

	w = post(r, "/api/v1/cypher", `{"question": "q"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"query":"MATCH (n) RETURN n"`)
}

func TestAsk_BadRequests(t *testing.T) {
	r := newRouter(NewAskHandler(&fakeAsker{}, nil, nil), nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"question":`},
		{"missing question", `{}`},
		{"blank question", `{"question": "   "}`},
		{"unknown mode", `{"question": "q", "mode": "graph"}`},
		{"too long", fmt.Sprintf(`{"question": %q}`, strings.Repeat("a", dto.MaxQuestionLength+1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(r, "/api/v1/ask", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "invalid_request", resp.Error)
			assert.Equal(t, "req-1", resp.RequestID)
		})
	}
}

func TestAsk_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"unsafe query", &cypher.UnsafeQueryError{Clause: "DELETE"}, http.StatusUnprocessableEntity, "unsafe_query"},
		{"rate limited", nlp.NewRateLimitError(), http.StatusTooManyRequests, "rate_limited"},
		{"upstream down", fmt.Errorf("resolve entity: %w", search.ErrUpstreamUnavailable), http.StatusServiceUnavailable, "upstream_unavailable"},
		{"cypher disabled", pipeline.ErrCypherDisabled, http.StatusNotImplemented, "cypher_disabled"},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var observed string
			h := NewAskHandler(&fakeAsker{err: tt.err}, nil, func(_, status string) { observed = status })

			w := post(newRouter(h, nil), "/api/v1/ask", `{"question": "q"}`)
			assert.Equal(t, tt.wantCode, w.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantErr, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, "error", observed)
		})
	}
}

func TestAsk_NotConfigured(t *testing.T) {
	w := post(newRouter(NewAskHandler(nil, nil, nil), nil), "/api/v1/ask", `{"question": "q"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
