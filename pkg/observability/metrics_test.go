package observability_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/aretw0/history"
	"github.com/aretw0/history/internal/logging"
	"github.com/aretw0/history/pkg/domain"
	"github.com/aretw0/history/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	h, err := history.NewMemory(history.WithLifecycleHooks(metrics.Hooks()))
	require.NoError(t, err)

	require.NoError(t, h.Push("/a"))
	require.NoError(t, h.Push("/b"))

	stop := h.ListenBefore(history.SyncHook(func(loc domain.Location) any {
		if loc.Action == domain.Pop {
			return false
		}
		return nil
	}))
	h.GoBack()
	stop()

	count, err := testutil.GatherAndCount(reg, "history_transitions_total")
	require.NoError(t, err)
	assert.Equal(t, 5, count, "start/PUSH, commit/PUSH, start/POP, reject/POP, rewind/POP series")

	expected := bytes.NewBufferString(`
# HELP history_rewinds_total Rejected POP transitions rewound on the adapter.
# TYPE history_rewinds_total counter
history_rewinds_total 1
`)
	assert.NoError(t, testutil.GatherAndCompare(reg, expected, "history_rewinds_total"))

	decisions, err := testutil.GatherAndCount(reg, "history_decision_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, decisions, "commit and reject outcomes")
}

func TestRegisterSessionGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	open := 3
	observability.RegisterSessionGauge(reg, func() int { return open })

	expected := bytes.NewBufferString(`
# HELP history_sessions_open Live histories held by the session manager.
# TYPE history_sessions_open gauge
history_sessions_open 3
`)
	assert.NoError(t, testutil.GatherAndCompare(reg, expected, "history_sessions_open"))
}

func TestAuditHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelInfo, "text")

	h, err := history.NewMemory(history.WithLifecycleHooks(observability.AuditHooks(logger)))
	require.NoError(t, err)

	require.NoError(t, h.Push("/inbox"))
	h.Block("unsaved")
	h.Unblock()

	out := buf.String()
	assert.Contains(t, out, "msg=transition_commit")
	assert.Contains(t, out, "to=/inbox")
	assert.NotContains(t, out, "transition_start", "start events are debug only")
}
