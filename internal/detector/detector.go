package detector

import (
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/procfs"
	"github.com/tiggoins/heartbeat-watchdog/internal/logger"
)

// ProcessInfo 容器主进程在 /proc 中的状态
type ProcessInfo struct {
	PID   int
	PPID  int
	State string
	Comm  string
	Alive bool
}

// Detector 通过 /proc 校验运行时上报的容器主进程是否仍然存活
type Detector struct {
	fs     procfs.FS
	logger *logger.Logger
}

func New(procMount string, log *logger.Logger) (*Detector, error) {
	fs, err := procfs.NewFS(procMount)
	if err != nil {
		return nil, fmt.Errorf("无法打开 %s: %w", procMount, err)
	}

	return &Detector{
		fs:     fs,
		logger: log.WithComponent("detector"),
	}, nil
}

// Inspect 读取进程状态；僵尸(Z)、已死亡(X)或不存在的进程均视为不存活
func (d *Detector) Inspect(pid int) (ProcessInfo, error) {
	info := ProcessInfo{PID: pid}
	if pid <= 0 {
		return info, fmt.Errorf("无效的PID: %d", pid)
	}

	proc, err := d.fs.Proc(pid)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			d.logger.Debug("容器主进程不存在", "pid", pid)
			return info, nil
		}
		return info, fmt.Errorf("获取进程信息失败: %w", err)
	}

	stat, err := proc.Stat()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return info, nil
		}
		return info, fmt.Errorf("读取进程状态失败: %w", err)
	}

	info.PPID = stat.PPID
	info.State = stat.State
	info.Comm = stat.Comm
	info.Alive = stat.State != "Z" && stat.State != "X"

	if !info.Alive {
		d.logger.Warn("容器主进程不存活", "pid", pid, "ppid", stat.PPID, "state", stat.State, "comm", stat.Comm)
	}
	return info, nil
}

// Alive 供就绪检查使用的简化接口
func (d *Detector) Alive(pid int) (bool, error) {
	info, err := d.Inspect(pid)
	if err != nil {
		return false, err
	}
	return info.Alive, nil
}
