package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/errdefs"
	"github.com/containerd/containerd/namespaces"
	"github.com/tiggoins/heartbeat-watchdog/internal/logger"
)

// ContainerdRuntime Containerd运行时实现
type ContainerdRuntime struct {
	client    *containerd.Client
	logger    *logger.Logger
	namespace string
	timeout   time.Duration
}

// NewContainerdRuntime 创建Containerd运行时实例
func NewContainerdRuntime(address, namespace string, timeout time.Duration, log *logger.Logger) (*ContainerdRuntime, error) {
	cli, err := containerd.New(address)
	if err != nil {
		return nil, fmt.Errorf("无法连接containerd守护进程: %w", err)
	}

	return &ContainerdRuntime{
		client:    cli,
		logger:    log.WithComponent("containerd-runtime"),
		namespace: namespace,
		timeout:   timeout,
	}, nil
}

// Inspect 查询容器任务状态，容器存在但没有任务时视为未运行
func (c *ContainerdRuntime) Inspect(ctx context.Context, name string) (ContainerState, error) {
	inspectCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	nsCtx := namespaces.WithNamespace(inspectCtx, c.namespace)

	container, err := c.client.LoadContainer(nsCtx, name)
	if err != nil {
		return ContainerState{Name: name}, loadError(err)
	}

	task, err := container.Task(nsCtx, nil)
	if err != nil {
		return taskState(name, containerd.Status{}, 0, err)
	}

	status, err := task.Status(nsCtx)
	state, err := taskState(name, status, task.Pid(), err)
	if err == nil {
		c.logger.Debug("Containerd容器状态", "container", name, "status", state.Status, "pid", state.PID)
	}
	return state, err
}

// loadError 包装加载容器时的错误，容器不存在同样视为错误
func loadError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("Containerd容器检查超时: %w", err)
	}
	if errdefs.IsNotFound(err) {
		return fmt.Errorf("Containerd容器不存在: %w", err)
	}
	return fmt.Errorf("无法加载Containerd容器: %w", err)
}

// taskState 将任务查询结果转换为容器状态；任务不存在时为未运行而非错误
func taskState(name string, status containerd.Status, pid uint32, err error) (ContainerState, error) {
	state := ContainerState{Name: name}
	if err != nil {
		if errdefs.IsNotFound(err) {
			state.Status = "no task"
			return state, nil
		}
		return state, fmt.Errorf("无法获取Containerd任务状态: %w", err)
	}

	state.Status = string(status.Status)
	state.Running = status.Status == containerd.Running
	state.PID = int(pid)
	return state, nil
}

// Close 关闭Containerd客户端连接
func (c *ContainerdRuntime) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
