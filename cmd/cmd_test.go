package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/interlingua/internal/knowledge"
	"github.com/ziadkadry99/interlingua/internal/pipeline"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func missingConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.yml")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "interlingua dev\n", out)
}

func TestConfigPrintsDefaults(t *testing.T) {
	out, err := execute(t, "config", "--config", missingConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "provider: anthropic")
	assert.Contains(t, out, "max_results: 5")
	assert.Contains(t, out, "mode: structured")
}

func TestConfigRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("provider: nobody\n"), 0o644))

	_, err := execute(t, "config", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestDocumentsListsSampleCorpus(t *testing.T) {
	out, err := execute(t, "documents", "--config", missingConfig(t), "--discipline", "", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, " documents\n")
	assert.Contains(t, out, "ling-politeness-indirectness")
}

func TestDocumentsFilterJSON(t *testing.T) {
	out, err := execute(t, "documents", "--config", missingConfig(t), "--discipline", "literature", "--json")
	require.NoError(t, err)

	var docs []knowledge.Document
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.NotEmpty(t, docs)
	for _, d := range docs {
		assert.Contains(t, d.Discipline, knowledge.Literature, d.ID)
	}
}

func TestSearchJSON(t *testing.T) {
	out, err := execute(t, "search", "--config", missingConfig(t), "--json", "--limit", "3",
		"How", "does", "politeness", "shape", "indirectness", "when", "refusing?")
	require.NoError(t, err)

	var got struct {
		Intent struct {
			PrimaryDiscipline string `json:"primary_discipline"`
		} `json:"intent"`
		Results []searchResultJSON `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "linguistics", got.Intent.PrimaryDiscipline)
	require.NotEmpty(t, got.Results)
	assert.LessOrEqual(t, len(got.Results), 3)
	assert.Equal(t, 1, got.Results[0].Rank)
	for i := 1; i < len(got.Results); i++ {
		assert.GreaterOrEqual(t, got.Results[i-1].Score, got.Results[i].Score)
	}
}

func TestHistoryDisabled(t *testing.T) {
	_, err := execute(t, "history", "--config", missingConfig(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history is disabled")
}

func TestHistoryEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yml")
	cfg := "history_path: " + filepath.Join(dir, "history.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))

	out, err := execute(t, "history", "--config", path, "--json=false")
	require.NoError(t, err)
	assert.Equal(t, "No recorded answers.\n", out)
}

func TestAnswerMarkdownAppendsReferences(t *testing.T) {
	res := &pipeline.Result{
		Markdown: "Intro paragraph.\n\n## Politeness\n\nBody.\n",
		Sources:  []string{"Brown & Levinson (1987) — linguistics · Japanese"},
	}
	md := answerMarkdown(res)
	assert.Contains(t, md, res.Markdown)
	assert.Contains(t, md, "## References\n\n- Brown & Levinson")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	assert.Equal(t, "né...", truncate("négligé", 2))
}
