package wikitool_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/tribunal/pkg/testutils"
	"github.com/kadirpekel/tribunal/pkg/tool"
	"github.com/kadirpekel/tribunal/pkg/tool/wikitool"
)

func callContext(t *testing.T) tool.Context {
	sess := testutils.NewSession(t, nil)
	inv := testutils.InvocationContext(context.Background(), testutils.StubAgent(t, "critic"), sess, nil)
	return tool.NewContext(inv, "c")
}

func TestWikipedia_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Cold War", r.URL.Query().Get("gsrsearch"))
		assert.Equal(t, "2", r.URL.Query().Get("gsrlimit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"query":{"pages":[
			{"title":"Arms race","index":2,"extract":"Nuclear buildup."},
			{"title":"Cold War","index":1,"extract":"Geopolitical tension."}
		]}}`))
	}))
	defer srv.Close()

	wiki, err := wikitool.New(wikitool.Config{BaseURL: srv.URL, MaxResults: 2})
	require.NoError(t, err)

	res, err := wiki.Call(callContext(t), map[string]any{"query": "Cold War"})
	require.NoError(t, err)
	assert.Equal(t, "success", res["status"])
	assert.Equal(t,
		"Page: Cold War\nSummary: Geopolitical tension.\n\nPage: Arms race\nSummary: Nuclear buildup.",
		res["result"])
}

func TestWikipedia_NoResultsIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"batchcomplete":true}`))
	}))
	defer srv.Close()

	wiki, err := wikitool.New(wikitool.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	res, err := wiki.Call(callContext(t), map[string]any{"query": "zzzz"})
	require.NoError(t, err)
	assert.Equal(t, "no_results", res["status"])
}

func TestWikipedia_ServerFailureIsHardError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	wiki, err := wikitool.New(wikitool.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = wiki.Call(callContext(t), map[string]any{"query": "Cold War"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, tool.ErrInvalidArgs)
}

func TestWikipedia_EmptyQueryIsMisuse(t *testing.T) {
	wiki, err := wikitool.New(wikitool.Config{})
	require.NoError(t, err)

	_, err = wiki.Call(callContext(t), map[string]any{"query": "  "})
	assert.ErrorIs(t, err, tool.ErrInvalidArgs)
}
