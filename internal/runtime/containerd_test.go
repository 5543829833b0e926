package runtime

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskState(t *testing.T) {
	cases := []struct {
		name        string
		status      containerd.ProcessStatus
		pid         uint32
		wantRunning bool
		wantPID     int
	}{
		{"running", containerd.Running, 42, true, 42},
		{"stopped", containerd.Stopped, 0, false, 0},
		{"created", containerd.Created, 7, false, 7},
		{"paused", containerd.Paused, 9, false, 9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state, err := taskState("emqx", containerd.Status{Status: tc.status}, tc.pid, nil)
			require.NoError(t, err)
			assert.Equal(t, "emqx", state.Name)
			assert.Equal(t, tc.wantRunning, state.Running)
			assert.Equal(t, tc.wantPID, state.PID)
			assert.Equal(t, string(tc.status), state.Status)
		})
	}
}

func TestTaskState_NoTaskIsNotRunning(t *testing.T) {
	err := fmt.Errorf("no running task found: %w", errdefs.ErrNotFound)

	state, gotErr := taskState("mongodb", containerd.Status{}, 0, err)

	require.NoError(t, gotErr)
	assert.False(t, state.Running)
	assert.Equal(t, "no task", state.Status)
}

func TestTaskState_OtherErrorsPropagate(t *testing.T) {
	boom := errors.New("connection closed")

	_, err := taskState("mongodb", containerd.Status{}, 0, boom)
	assert.ErrorIs(t, err, boom)
}

func TestLoadError_UnknownContainerIsError(t *testing.T) {
	notFound := fmt.Errorf("container \"ghost\": %w", errdefs.ErrNotFound)

	err := loadError(notFound)
	require.Error(t, err)
	assert.ErrorIs(t, err, errdefs.ErrNotFound)
	assert.Contains(t, err.Error(), "不存在")

	err = loadError(context.DeadlineExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "超时")
}
