// Package probe 实现容器就绪等待：按固定间隔查询容器运行时，直到容器处于运行状态或超时。
package probe

import (
	"context"
	"time"

	"github.com/tiggoins/heartbeat-watchdog/internal/logger"
	"github.com/tiggoins/heartbeat-watchdog/internal/metrics"
	"github.com/tiggoins/heartbeat-watchdog/internal/runtime"
)

// Outcome 就绪等待的最终结果
type Outcome int

const (
	Ready Outcome = iota
	Timeout
	Canceled
)

func (o Outcome) String() string {
	switch o {
	case Ready:
		return "ready"
	case Timeout:
		return "timeout"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result 一次就绪等待的结果
type Result struct {
	Outcome  Outcome
	Attempts int
	Elapsed  time.Duration
	// 最后一次检查失败的错误，成功或仅为未运行时为nil
	LastErr error
}

func (r Result) Ready() bool {
	return r.Outcome == Ready
}

// ProcessChecker 校验容器主进程是否存活
type ProcessChecker interface {
	Alive(pid int) (bool, error)
}

// Config 就绪检查参数
type Config struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Prober 容器就绪检查器
type Prober struct {
	inspector runtime.Inspector
	process   ProcessChecker
	cfg       Config
	logger    *logger.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type Option func(*Prober)

// WithProcessChecker 启用主进程存活校验
func WithProcessChecker(pc ProcessChecker) Option {
	return func(p *Prober) { p.process = pc }
}

// WithClock 替换时间源与等待函数，供测试使用
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Prober) {
		p.now = now
		p.sleep = sleep
	}
}

func New(inspector runtime.Inspector, cfg Config, log *logger.Logger, opts ...Option) *Prober {
	p := &Prober{
		inspector: inspector,
		cfg:       cfg,
		logger:    log.WithComponent("probe"),
		now:       time.Now,
		sleep:     Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait 阻塞直到容器就绪、超时或 ctx 被取消。
// 检查出错视为尚未就绪，不会提前终止等待。
func (p *Prober) Wait(ctx context.Context, name string) Result {
	log := p.logger.WithContainer(name)
	log.Info("等待容器就绪", "timeout", p.cfg.Timeout, "interval", p.cfg.Interval)

	start := p.now()
	res := Result{}

	for {
		res.Attempts++
		ready, err := p.check(ctx, name, log)
		res.LastErr = err

		if ready {
			res.Outcome = Ready
			res.Elapsed = p.now().Sub(start)
			log.Info("容器已运行", "attempts", res.Attempts, "elapsed", res.Elapsed)
			return p.record(name, res)
		}

		if elapsed := p.now().Sub(start); elapsed > p.cfg.Timeout {
			res.Outcome = Timeout
			res.Elapsed = elapsed
			log.Warn("等待容器就绪超时", "attempts", res.Attempts, "elapsed", res.Elapsed, "last_error", err)
			return p.record(name, res)
		}

		if err := p.sleep(ctx, p.cfg.Interval); err != nil {
			res.Outcome = Canceled
			res.Elapsed = p.now().Sub(start)
			log.Info("就绪等待被取消", "attempts", res.Attempts)
			return p.record(name, res)
		}
	}
}

func (p *Prober) check(ctx context.Context, name string, log *logger.Logger) (bool, error) {
	state, err := p.inspector.Inspect(ctx, name)
	if err != nil {
		log.Error("检查容器状态失败", "error", err)
		metrics.ProbeAttempts.WithLabelValues(name, "error").Inc()
		return false, err
	}

	log.Debug("容器状态", "running", state.Running, "status", state.Status, "pid", state.PID)
	if !state.Running {
		metrics.ProbeAttempts.WithLabelValues(name, "not_running").Inc()
		return false, nil
	}

	if p.process != nil && state.PID > 0 {
		alive, err := p.process.Alive(state.PID)
		if err != nil {
			log.Error("校验容器主进程失败", "pid", state.PID, "error", err)
			metrics.ProbeAttempts.WithLabelValues(name, "error").Inc()
			return false, err
		}
		if !alive {
			log.Warn("运行时报告容器运行但主进程不存活", "pid", state.PID)
			metrics.ProbeAttempts.WithLabelValues(name, "process_dead").Inc()
			return false, nil
		}
	}

	metrics.ProbeAttempts.WithLabelValues(name, "running").Inc()
	return true, nil
}

func (p *Prober) record(name string, res Result) Result {
	metrics.ProbeOutcomes.WithLabelValues(name, res.Outcome.String()).Inc()
	metrics.ProbeDuration.WithLabelValues(name).Observe(res.Elapsed.Seconds())
	return res
}

// Sleep 等待 d，ctx 取消时提前返回 ctx.Err()
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
