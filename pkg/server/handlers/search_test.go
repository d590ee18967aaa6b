package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/soundprediction/duocdien/pkg/search"
	"github.com/soundprediction/duocdien/pkg/server/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	hits  []search.FusedHit
	err   error
	gotK  int
	query string
}

func (f *fakeSearcher) SearchDetailed(_ context.Context, q string, k int) ([]search.FusedHit, error) {
	f.query, f.gotK = q, k
	return f.hits, f.err
}

func TestSearch(t *testing.T) {
	s := &fakeSearcher{hits: []search.FusedHit{
		{Position: 3, Name: "ASPIRIN", Score: 2.0 / 61, Ranks: []int{0, 0}},
		{Position: 7, Name: "PARACETAMOL", Score: 1.0 / 62, Ranks: []int{-1, 1}},
	}}
	r := newRouter(nil, NewSearchHandler(s, 10))

	w := post(r, "/api/v1/search", `{"query": " aspirin "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, s.gotK)
	assert.Equal(t, "aspirin", s.query)

	var resp dto.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Hits[0].Rank)
	assert.Equal(t, "ASPIRIN", resp.Hits[0].Name)
	require.NotNil(t, resp.Hits[0].DenseRank)
	assert.Equal(t, 0, *resp.Hits[0].DenseRank)
	assert.Nil(t, resp.Hits[1].DenseRank)
	require.NotNil(t, resp.Hits[1].BM25Rank)
	assert.Equal(t, 1, *resp.Hits[1].BM25Rank)
}

func TestSearch_TopKAndErrors(t *testing.T) {
	s := &fakeSearcher{hits: []search.FusedHit{}}
	r := newRouter(nil, NewSearchHandler(s, 0))

	w := post(r, "/api/v1/search", `{"query": "x", "top_k": 3}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, s.gotK)
	assert.JSONEq(t, `{"query": "x", "hits": [], "total": 0}`, w.Body.String())

	w = post(r, "/api/v1/search", `{"query": "x"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, search.DefaultTopK, s.gotK, "unset top_k falls back to K")

	assert.Equal(t, http.StatusBadRequest, post(r, "/api/v1/search", `{"query": "x", "top_k": 51}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(r, "/api/v1/search", `{"query": "  "}`).Code)

	s.err = search.ErrUpstreamUnavailable
	assert.Equal(t, http.StatusServiceUnavailable, post(r, "/api/v1/search", `{"query": "x"}`).Code)
}
