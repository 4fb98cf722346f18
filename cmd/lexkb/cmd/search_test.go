package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lexerrors "github.com/legalguardian/lexkb/internal/errors"
)

// runRoot executes the root command with args and returns combined output.
func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestSearchCmd_ReturnsRelevantChunk(t *testing.T) {
	// Given: a built index over the test corpus
	dataDir := buildTestIndex(t)

	// When: searching for the limitation-period chunk
	output, err := runRoot(t, "search", "срок исковой давности", "--offline", "--data", dataDir)

	// Then: the matching citation comes first
	require.NoError(t, err)
	assert.Contains(t, output, "ГК РФ ст. 196", "Result should carry the source citation")
	assert.Contains(t, output, "1. [", "Results should be ranked")
}

func TestSearchCmd_JSONFormat(t *testing.T) {
	// Given: a built index
	dataDir := buildTestIndex(t)

	// When: searching with --format json
	output, err := runRoot(t, "search", "наследование по завещанию", "--offline", "--data", dataDir, "--format", "json")

	// Then: output is a JSON array of results with citations
	require.NoError(t, err)

	var results []jsonResult
	require.NoError(t, json.Unmarshal([]byte(output), &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "ГК РФ ст. 1111", results[0].Reference)
	assert.Greater(t, results[0].Score, float32(0))
}

func TestSearchCmd_LimitFlag(t *testing.T) {
	// Given: a built index with two chunks
	dataDir := buildTestIndex(t)

	// When: searching with --limit 1 in JSON mode
	output, err := runRoot(t, "search", "срок исковой давности", "--offline", "--data", dataDir, "--format", "json", "--limit", "1")

	// Then: exactly one result comes back
	require.NoError(t, err)
	var results []jsonResult
	require.NoError(t, json.Unmarshal([]byte(output), &results))
	assert.Len(t, results, 1)
}

func TestSearchCmd_NonLegalQueryFiltered(t *testing.T) {
	// Given: a built index
	dataDir := buildTestIndex(t)

	// When: searching for a cooking question
	output, err := runRoot(t, "search", "как приготовить борщ", "--offline", "--data", dataDir)

	// Then: the filter yields an empty result set, not an error
	require.NoError(t, err)
	assert.Contains(t, output, "No results", "Off-topic queries should come back empty")
}

func TestSearchCmd_NoFilterAnswersAnything(t *testing.T) {
	// Given: a built index
	dataDir := buildTestIndex(t)

	// When: searching the same cooking question with --no-filter
	output, err := runRoot(t, "search", "как приготовить борщ", "--offline", "--data", dataDir, "--no-filter", "--format", "json")

	// Then: results come back ranked by similarity
	require.NoError(t, err)
	var results []jsonResult
	require.NoError(t, json.Unmarshal([]byte(output), &results))
	assert.NotEmpty(t, results)
}

func TestSearchCmd_RequiresIndex(t *testing.T) {
	// Given: an empty data directory
	emptyDir := t.TempDir()

	// When: searching without built artifacts
	output, err := runRoot(t, "search", "срок исковой давности", "--offline", "--data", emptyDir)

	// Then: a not-found error with a hint
	require.Error(t, err)
	assert.Equal(t, lexerrors.ErrCodeFileNotFound, lexerrors.GetCode(err))
	assert.Contains(t, output, "lexkb index", "Output should hint at building the index first")
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	// Given: a search command without a query
	_, err := runRoot(t, "search")

	// Then: cobra rejects the call
	require.Error(t, err)
}
