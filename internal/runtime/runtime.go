package runtime

import (
	"context"
	"fmt"

	"github.com/tiggoins/heartbeat-watchdog/internal/config"
	"github.com/tiggoins/heartbeat-watchdog/internal/logger"
)

// ContainerState 单次检查得到的容器状态
type ContainerState struct {
	Name    string
	Running bool
	// 容器主进程PID，运行时无法提供时为0
	PID    int
	Status string
}

// Inspector 定义容器运行时的查询接口
type Inspector interface {
	// Inspect 查询容器当前是否处于运行状态
	Inspect(ctx context.Context, name string) (ContainerState, error)

	// Close 关闭运行时客户端连接
	Close() error
}

// New 根据配置创建容器运行时实现
func New(cfg config.RuntimeConfig, log *logger.Logger) (Inspector, error) {
	switch cfg.Type {
	case config.RuntimeCLI, "":
		return NewCLIRuntime(cfg.Binary, cfg.InspectTimeout, log), nil
	case config.RuntimeDocker:
		return NewDockerRuntime(cfg.InspectTimeout, log)
	case config.RuntimeContainerd:
		return NewContainerdRuntime(cfg.ContainerdAddress, cfg.ContainerdNamespace, cfg.InspectTimeout, log)
	default:
		return nil, fmt.Errorf("不支持的容器运行时: %q", cfg.Type)
	}
}
