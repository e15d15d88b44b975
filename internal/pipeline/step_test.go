package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStepFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSteps_YAML(t *testing.T) {
	path := writeStepFile(t, "steps.yaml", `
steps:
  - name: keyword_scrape
    description: Extract keywords
    input_type: url
    output_type: keyword_list
  - name: expand_again
    uses: longtail_expand
    enabled: false
`)

	steps, err := LoadSteps(path)
	require.NoError(t, err)
	require.Len(t, steps, 2)

	assert.Equal(t, "keyword_scrape", steps[0].Name)
	// An absent uses key defaults to the step name.
	assert.Equal(t, "keyword_scrape", steps[0].Uses)
	// An absent enabled flag defaults to true.
	assert.True(t, steps[0].Enabled)
	assert.Equal(t, "url", steps[0].InputType)

	assert.Equal(t, "expand_again", steps[1].Name)
	assert.Equal(t, "longtail_expand", steps[1].Uses)
	assert.False(t, steps[1].Enabled)
}

func TestLoadSteps_JSON(t *testing.T) {
	path := writeStepFile(t, "steps.json", `{
  "steps": [
    {"name": "double", "params": {"factor": 2}}
  ]
}`)

	steps, err := LoadSteps(path)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "double", steps[0].Name)
	assert.True(t, steps[0].Enabled)
	assert.Equal(t, float64(2), steps[0].Params["factor"])
}

func TestLoadSteps_PreservesDeclarationOrder(t *testing.T) {
	path := writeStepFile(t, "steps.yaml", `
steps:
  - name: c
  - name: a
  - name: b
`)

	steps, err := LoadSteps(path)
	require.NoError(t, err)
	var names []string
	for _, sd := range steps {
		names = append(names, sd.Name)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestLoadSteps_NamelessStep(t *testing.T) {
	path := writeStepFile(t, "steps.yaml", `
steps:
  - uses: keyword_scrape
`)

	_, err := LoadSteps(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no name")
}

func TestLoadSteps_UnknownFieldIsRejected(t *testing.T) {
	path := writeStepFile(t, "steps.yaml", `
steps:
  - name: double
    retries: 3
`)

	_, err := LoadSteps(path)
	assert.Error(t, err)
}

func TestLoadSteps_MissingFile(t *testing.T) {
	_, err := LoadSteps(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
