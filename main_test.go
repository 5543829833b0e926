package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiggoins/heartbeat-watchdog/internal/config"
	"github.com/tiggoins/heartbeat-watchdog/internal/logger"
	"github.com/tiggoins/heartbeat-watchdog/internal/runtime"
)

type stubInspector struct{ closed bool }

func (s *stubInspector) Inspect(_ context.Context, name string) (runtime.ContainerState, error) {
	return runtime.ContainerState{Name: name, Running: true}, nil
}

func (s *stubInspector) Close() error {
	s.closed = true
	return nil
}

// countingFactory 记录运行时是否被创建
func countingFactory(calls *int, insp runtime.Inspector, err error) inspectorFactory {
	return func(config.RuntimeConfig, *logger.Logger) (runtime.Inspector, error) {
		*calls++
		return insp, err
	}
}

func TestNewProber_DetectorFailureOpensNoRuntime(t *testing.T) {
	cfg := config.Default()
	cfg.Probe.VerifyProcess = true
	cfg.Probe.ProcMount = filepath.Join(t.TempDir(), "missing-proc")

	calls := 0
	prober, insp, err := newProber(cfg, logger.Discard(), countingFactory(&calls, &stubInspector{}, nil))

	require.Error(t, err)
	assert.Nil(t, prober)
	assert.Nil(t, insp)
	assert.Zero(t, calls)
}

func TestNewProber_RuntimeFailure(t *testing.T) {
	cfg := config.Default()
	calls := 0

	_, insp, err := newProber(cfg, logger.Discard(), countingFactory(&calls, nil, errors.New("daemon unreachable")))

	require.Error(t, err)
	assert.Nil(t, insp)
	assert.Equal(t, 1, calls)
}

func TestNewProber_WithProcessVerification(t *testing.T) {
	cfg := config.Default()
	cfg.Probe.VerifyProcess = true
	cfg.Probe.ProcMount = t.TempDir()

	calls := 0
	stub := &stubInspector{}
	prober, insp, err := newProber(cfg, logger.Discard(), countingFactory(&calls, stub, nil))

	require.NoError(t, err)
	require.NotNil(t, prober)
	assert.Same(t, stub, insp)
	assert.Equal(t, 1, calls)

	res := prober.Wait(context.Background(), "emqx")
	assert.True(t, res.Ready())
	assert.False(t, stub.closed)
}
