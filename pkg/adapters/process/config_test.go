package process_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/history/pkg/adapters/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHooks(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "hooks.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
hooks:
  - name: audit
    command: ./audit.sh
    args: [--strict]
  - name: unnamed-command
  - command: ./nameless.sh
`), 0644))

	hooks, err := process.LoadHooks(yamlPath)
	require.NoError(t, err)
	require.Len(t, hooks, 1)
	assert.Equal(t, "audit", hooks[0].Name)
	assert.Equal(t, []string{"--strict"}, hooks[0].Args)

	jsonPath := filepath.Join(dir, "hooks.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"hooks":[{"name":"j","command":"true","timeout":1000000000}]}`), 0644))
	hooks, err = process.LoadHooks(jsonPath)
	require.NoError(t, err)
	require.Len(t, hooks, 1)
	assert.Equal(t, time.Second, hooks[0].Timeout)

	hooks, err = process.LoadHooks(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, hooks)
}
