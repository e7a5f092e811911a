package process

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/history"
	"github.com/aretw0/history/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shell(t *testing.T, name, script string) Config {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("process hooks are exercised with sh")
	}
	return Config{Name: name, Command: "sh", Args: []string{"-c", script}}
}

// waitFor polls cond; process hooks answer from their own goroutine.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	assert.Eventually(t, cond, 5*time.Second, 10*time.Millisecond)
}

func TestVerdict(t *testing.T) {
	assert.Nil(t, verdict(""))
	assert.Equal(t, true, verdict("ALLOW"))
	assert.Equal(t, false, verdict("deny"))
	assert.Equal(t, "Leave?", verdict("Leave?"))
}

func TestLocationEnv(t *testing.T) {
	env := locationEnv(domain.Location{
		Pathname: "/a", Search: "?x=1", Action: domain.Push, Key: "k1",
		State: map[string]any{"n": 1},
	})
	assert.Contains(t, env, "HISTORY_PATH=/a?x=1")
	assert.Contains(t, env, "HISTORY_ACTION=PUSH")
	assert.Contains(t, env, `HISTORY_STATE={"n":1}`)
}

func TestRunner_Hook(t *testing.T) {
	r := NewRunner(WithRegistry([]Config{
		shell(t, "guard", `case "$HISTORY_PATHNAME" in /admin*) echo deny ;; esac`),
	}))

	h, err := history.NewMemory(history.WithBeforeHooks(r.Hooks()...))
	require.NoError(t, err)

	require.NoError(t, h.Push("/admin"))
	waitFor(t, func() bool { return !h.Pending() })
	assert.Equal(t, "/", h.Location().Pathname)

	require.NoError(t, h.Push("/home"))
	waitFor(t, func() bool { return h.Location().Pathname == "/home" })
}

func TestRunner_HookFailureRejects(t *testing.T) {
	r := NewRunner()
	r.Register(shell(t, "broken", "exit 3"))

	hook, err := r.Hook("broken")
	require.NoError(t, err)

	h, err := history.NewMemory(history.WithBeforeHooks(hook))
	require.NoError(t, err)

	require.NoError(t, h.Push("/a"))
	waitFor(t, func() bool { return !h.Pending() })
	assert.Equal(t, "/", h.Location().Pathname)
}

func TestRunner_HookMessageGoesToConfirmer(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner(WithBaseDir(dir))
	r.Register(shell(t, "ask", "echo Discard draft?"))
	r.Register(shell(t, "yes", `echo "$HISTORY_MESSAGE" > asked.txt`))

	hook, err := r.Hook("ask")
	require.NoError(t, err)
	confirmer, err := r.Confirmer("yes")
	require.NoError(t, err)

	h, err := history.NewMemory(history.WithBeforeHooks(hook), history.WithConfirmer(confirmer))
	require.NoError(t, err)

	require.NoError(t, h.Push("/next"))
	waitFor(t, func() bool { return h.Location().Pathname == "/next" })

	data, err := os.ReadFile(filepath.Join(dir, "asked.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Discard draft?\n", string(data))
}

func TestRunner_Timeout(t *testing.T) {
	r := NewRunner()
	c := shell(t, "slow", "sleep 5")
	c.Timeout = 50 * time.Millisecond
	r.Register(c)

	start := time.Now()
	_, err := r.run(c, nil)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRunner_Unregistered(t *testing.T) {
	r := NewRunner()
	_, err := r.Hook("hacker_script")
	assert.ErrorContains(t, err, "not registered")
	_, err = r.Confirmer("hacker_script")
	assert.ErrorContains(t, err, "not registered")
}
