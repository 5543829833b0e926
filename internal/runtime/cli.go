package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/tiggoins/heartbeat-watchdog/internal/logger"
)

const runningTemplate = "{{.State.Running}}"

// ErrMalformedOutput 检查命令输出既不是 true 也不是 false
var ErrMalformedOutput = errors.New("容器检查命令输出格式错误")

// CLIRuntime 通过调用 docker/podman/nerdctl 的 inspect 子命令查询容器状态
type CLIRuntime struct {
	binary  string
	timeout time.Duration
	logger  *logger.Logger
}

// NewCLIRuntime 创建命令行运行时实例
func NewCLIRuntime(binary string, timeout time.Duration, log *logger.Logger) *CLIRuntime {
	return &CLIRuntime{
		binary:  binary,
		timeout: timeout,
		logger:  log.WithComponent("cli-runtime"),
	}
}

// Inspect 执行 `<binary> inspect -f {{.State.Running}} <name>`
func (c *CLIRuntime) Inspect(ctx context.Context, name string) (ContainerState, error) {
	state := ContainerState{Name: name}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, "inspect", "-f", runningTemplate, name)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return state, fmt.Errorf("容器检查超时: %w", ctx.Err())
		}
		return state, fmt.Errorf("执行 %s inspect 失败: %w: %s", c.binary, err, strings.TrimSpace(stderr.String()))
	}

	output := strings.TrimSpace(stdout.String())
	c.logger.Debug("容器检查命令输出", "container", name, "output", output)

	switch output {
	case "true":
		state.Running = true
		state.Status = "running"
	case "false":
		state.Status = "not running"
	default:
		return state, fmt.Errorf("%w: %q", ErrMalformedOutput, output)
	}
	return state, nil
}

// Close 命令行运行时无需释放资源
func (c *CLIRuntime) Close() error {
	return nil
}
