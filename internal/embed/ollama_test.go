package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOllama serves /api/tags and /api/embed with canned 4-dimension
// vectors, recording every embed input it receives.
type fakeOllama struct {
	server *httptest.Server

	inputs     []string
	embedCalls atomic.Int32
	failFirst  int32 // number of embed requests to fail with 500
}

func newFakeOllama(t *testing.T) *fakeOllama {
	t.Helper()
	f := &fakeOllama{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(OllamaModelListResponse{
			Models: []OllamaModelInfo{{Name: "multilingual-e5-small:latest"}},
		})
	})
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		call := f.embedCalls.Add(1)
		if call <= atomic.LoadInt32(&f.failFirst) {
			http.Error(w, "model busy", http.StatusInternalServerError)
			return
		}

		var req OllamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var texts []string
		switch v := req.Input.(type) {
		case string:
			texts = []string{v}
		case []any:
			for _, item := range v {
				texts = append(texts, item.(string))
			}
		}
		f.inputs = append(f.inputs, texts...)

		resp := OllamaEmbedResponse{Model: req.Model}
		for i := range texts {
			// Unnormalized on purpose; the client must normalize.
			resp.Embeddings = append(resp.Embeddings, []float64{float64(i + 1), 2, 0, 0})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func newTestOllamaEmbedder(t *testing.T, f *fakeOllama, batchSize int) *OllamaEmbedder {
	t.Helper()
	e, err := NewOllamaEmbedder(context.Background(), OllamaConfig{
		Host:      f.server.URL,
		Model:     "multilingual-e5-small",
		BatchSize: batchSize,
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestOllamaEmbedder_HealthCheck_ResolvesModelTag(t *testing.T) {
	// Given: a server listing the model under its tagged name
	f := newFakeOllama(t)

	// When: the embedder is created with the base model name
	e := newTestOllamaEmbedder(t, f, 8)

	// Then: the served tag is adopted and dimensions are auto-detected
	assert.Equal(t, "multilingual-e5-small:latest", e.ModelName())
	assert.Equal(t, 4, e.Dimensions())
	assert.True(t, e.Available(context.Background()))
}

func TestOllamaEmbedder_HealthCheck_UnknownModelFails(t *testing.T) {
	// Given: a server that does not serve the requested model
	f := newFakeOllama(t)

	// When: the embedder is created with an unknown model
	_, err := NewOllamaEmbedder(context.Background(), OllamaConfig{
		Host:  f.server.URL,
		Model: "no-such-model",
	})

	// Then: construction fails with a pull hint
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama pull no-such-model")
}

func TestOllamaEmbedder_EmbedDocuments_AppliesPassagePrefix(t *testing.T) {
	// Given: an embedder against the fake server
	f := newFakeOllama(t)
	e := newTestOllamaEmbedder(t, f, 8)
	f.inputs = nil // discard the dimension probe

	// When: I embed two passages
	_, err := e.EmbedDocuments(context.Background(), []string{"first clause", "second clause"})
	require.NoError(t, err)

	// Then: every text sent to the API carries the passage prefix
	require.Len(t, f.inputs, 2)
	for _, input := range f.inputs {
		assert.True(t, strings.HasPrefix(input, PassagePrefix), "input %q lacks passage prefix", input)
	}
}

func TestOllamaEmbedder_EmbedQuery_AppliesQueryPrefix(t *testing.T) {
	// Given: an embedder against the fake server
	f := newFakeOllama(t)
	e := newTestOllamaEmbedder(t, f, 8)
	f.inputs = nil

	// When: I embed a query
	vec, err := e.EmbedQuery(context.Background(), "how long is the warranty")
	require.NoError(t, err)

	// Then: the prefixed query is sent and the result is normalized
	require.Len(t, f.inputs, 1)
	assert.Equal(t, QueryPrefix+"how long is the warranty", f.inputs[0])
	assert.InDelta(t, 1.0, vectorMagnitude(vec), 0.001)
}

func TestOllamaEmbedder_EmbedDocuments_BatchesRequests(t *testing.T) {
	// Given: an embedder with batch size 2
	f := newFakeOllama(t)
	e := newTestOllamaEmbedder(t, f, 2)
	callsAfterProbe := f.embedCalls.Load()

	var progress [][2]int
	e.SetProgressFunc(func(completed, total int) {
		progress = append(progress, [2]int{completed, total})
	})

	// When: I embed five passages
	vectors, err := e.EmbedDocuments(context.Background(),
		[]string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)

	// Then: three batch requests are made and progress is reported
	require.Len(t, vectors, 5)
	assert.Equal(t, int32(3), f.embedCalls.Load()-callsAfterProbe)
	assert.Equal(t, [][2]int{{2, 5}, {4, 5}, {5, 5}}, progress)
}

func TestOllamaEmbedder_EmbedDocuments_EmptyTextsBecomeZeroVectors(t *testing.T) {
	// Given: an embedder against the fake server
	f := newFakeOllama(t)
	e := newTestOllamaEmbedder(t, f, 8)
	f.inputs = nil

	// When: I embed a batch with an empty passage in the middle
	vectors, err := e.EmbedDocuments(context.Background(), []string{"text", "   ", "more text"})
	require.NoError(t, err)

	// Then: the empty slot is a zero vector and never reaches the API
	require.Len(t, vectors, 3)
	assert.InDelta(t, 0.0, vectorMagnitude(vectors[1]), 0.0001)
	assert.Len(t, f.inputs, 2)
}

func TestOllamaEmbedder_RetriesTransientFailures(t *testing.T) {
	// Given: a server failing the first embed request
	f := newFakeOllama(t)
	e := newTestOllamaEmbedder(t, f, 8)
	atomic.StoreInt32(&f.failFirst, f.embedCalls.Load()+1)

	// When: I embed a query
	vec, err := e.EmbedQuery(context.Background(), "retry me")

	// Then: the retry succeeds
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vectorMagnitude(vec), 0.001)
}

func TestOllamaEmbedder_ClosedEmbedderRejectsCalls(t *testing.T) {
	// Given: a closed embedder
	f := newFakeOllama(t)
	e := newTestOllamaEmbedder(t, f, 8)
	require.NoError(t, e.Close())

	// When/Then: embedding fails and availability is false
	_, err := e.EmbedQuery(context.Background(), "text")
	assert.Error(t, err)
	assert.False(t, e.Available(context.Background()))
}
