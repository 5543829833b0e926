package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docker/docker/client"
	"github.com/tiggoins/heartbeat-watchdog/internal/logger"
)

// DockerRuntime Docker运行时实现
type DockerRuntime struct {
	client  *client.Client
	logger  *logger.Logger
	timeout time.Duration
}

// NewDockerRuntime 创建Docker运行时实例
func NewDockerRuntime(timeout time.Duration, log *logger.Logger) (*DockerRuntime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("无法连接Docker守护进程: %w", err)
	}

	return &DockerRuntime{
		client:  cli,
		logger:  log.WithComponent("docker-runtime"),
		timeout: timeout,
	}, nil
}

// Inspect 通过 Engine API 查询容器状态
func (d *DockerRuntime) Inspect(ctx context.Context, name string) (ContainerState, error) {
	state := ContainerState{Name: name}

	inspectCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	inspect, err := d.client.ContainerInspect(inspectCtx, name)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return state, fmt.Errorf("Docker容器检查超时: %w", err)
		}
		if client.IsErrNotFound(err) {
			return state, fmt.Errorf("Docker容器不存在: %w", err)
		}
		return state, fmt.Errorf("Docker容器检查失败: %w", err)
	}

	if inspect.ContainerJSONBase == nil || inspect.State == nil {
		return state, fmt.Errorf("%w: Docker未返回容器状态", ErrMalformedOutput)
	}

	state.Running = inspect.State.Running
	state.PID = inspect.State.Pid
	state.Status = inspect.State.Status

	d.logger.Debug("Docker容器状态", "container", name, "status", state.Status, "pid", state.PID)
	return state, nil
}

// Close 关闭Docker客户端连接
func (d *DockerRuntime) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}
