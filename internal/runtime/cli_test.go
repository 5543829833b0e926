package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiggoins/heartbeat-watchdog/internal/config"
	"github.com/tiggoins/heartbeat-watchdog/internal/logger"
)

// fakeBinary 写入一个模拟 docker inspect 的脚本
func fakeBinary(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-docker")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestCLIRuntime_Inspect(t *testing.T) {
	cases := []struct {
		name        string
		script      string
		wantRunning bool
		wantErr     bool
	}{
		{"running", `echo true`, true, false},
		{"running with padding", `printf '  true\n\n'`, true, false},
		{"stopped", `echo false`, false, false},
		{"malformed output", `echo maybe`, false, true},
		{"empty output", `exit 0`, false, true},
		{"nonzero exit", `echo "Error: No such object" >&2; exit 1`, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rt := NewCLIRuntime(fakeBinary(t, tc.script), 5*time.Second, logger.Discard())

			state, err := rt.Inspect(context.Background(), "emqx")
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.wantRunning, state.Running)
			assert.Equal(t, "emqx", state.Name)
		})
	}
}

func TestCLIRuntime_PassesInspectArguments(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	bin := fakeBinary(t, `echo "$@" > `+argsFile+`; echo true`)
	rt := NewCLIRuntime(bin, 5*time.Second, logger.Discard())

	_, err := rt.Inspect(context.Background(), "mongodb")
	require.NoError(t, err)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "inspect -f {{.State.Running}} mongodb\n", string(args))
}

func TestCLIRuntime_MalformedOutputWrapsSentinel(t *testing.T) {
	rt := NewCLIRuntime(fakeBinary(t, `echo yes`), 5*time.Second, logger.Discard())
	_, err := rt.Inspect(context.Background(), "emqx")
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestCLIRuntime_MissingBinary(t *testing.T) {
	rt := NewCLIRuntime(filepath.Join(t.TempDir(), "no-such-docker"), 5*time.Second, logger.Discard())
	_, err := rt.Inspect(context.Background(), "emqx")
	assert.Error(t, err)
}

func TestCLIRuntime_Timeout(t *testing.T) {
	rt := NewCLIRuntime(fakeBinary(t, `exec sleep 5`), 100*time.Millisecond, logger.Discard())

	start := time.Now()
	_, err := rt.Inspect(context.Background(), "emqx")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestNew_SelectsCLIRuntime(t *testing.T) {
	cfg := config.Default().Runtime
	rt, err := New(cfg, logger.Discard())
	require.NoError(t, err)
	defer rt.Close()
	assert.IsType(t, &CLIRuntime{}, rt)
}

func TestNew_RejectsUnknownRuntime(t *testing.T) {
	cfg := config.Default().Runtime
	cfg.Type = "lxc"
	_, err := New(cfg, logger.Discard())
	assert.Error(t, err)
}
