package cli

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextReader(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := contextReader{ctx: ctx, r: strings.NewReader("push /a\npush /b\n")}

	buf := make([]byte, 8)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "push /a\n", string(buf[:n]))

	cancel()
	n, err = r.Read(buf)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = io.ReadAll(r)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExitError(t *testing.T) {
	assert.NoError(t, exitError(nil))
	assert.NoError(t, exitError(context.Canceled))
	assert.NoError(t, exitError(errors.Join(errors.New("input error"), context.Canceled)))

	boom := errors.New("boom")
	assert.ErrorIs(t, exitError(boom), boom)
}
