package watchdog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tiggoins/heartbeat-watchdog/internal/config"
	"github.com/tiggoins/heartbeat-watchdog/internal/heartbeat"
	"github.com/tiggoins/heartbeat-watchdog/internal/logger"
	"github.com/tiggoins/heartbeat-watchdog/internal/metrics"
	"github.com/tiggoins/heartbeat-watchdog/internal/probe"
)

// Target 容器与心跳地址的配对
type Target struct {
	Container string
	URL       config.URLTarget
}

// Pair 按位置配对容器名称与心跳地址，长度不一致时截断到较短的一方
func Pair(containers []string, urls []config.URLTarget) []Target {
	n := len(containers)
	if len(urls) < n {
		n = len(urls)
	}

	targets := make([]Target, 0, n)
	for i := 0; i < n; i++ {
		targets = append(targets, Target{Container: containers[i], URL: urls[i]})
	}
	return targets
}

type Prober interface {
	Wait(ctx context.Context, name string) probe.Result
}

type Sender interface {
	Send(ctx context.Context, base, container string) heartbeat.Result
}

// TargetReport 单个目标在一个周期内的处理结果
type TargetReport struct {
	Target    Target
	Probe     probe.Result
	Heartbeat *heartbeat.Result
}

// CycleReport 一个轮询周期的处理结果
type CycleReport struct {
	ID       string
	Targets  []TargetReport
	Duration time.Duration
}

// Watchdog 顺序处理所有目标：等待容器就绪后发送心跳，周期之间固定等待
type Watchdog struct {
	targets  []Target
	prober   Prober
	sender   Sender
	interval time.Duration
	logger   *logger.Logger

	sleep func(ctx context.Context, d time.Duration) error
	newID func() string
}

type Option func(*Watchdog)

// WithSleep 替换周期之间的等待函数，供测试使用
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(w *Watchdog) { w.sleep = sleep }
}

func New(containers []string, urls []config.URLTarget, prober Prober, sender Sender, interval time.Duration, log *logger.Logger, opts ...Option) *Watchdog {
	w := &Watchdog{
		targets:  Pair(containers, urls),
		prober:   prober,
		sender:   sender,
		interval: interval,
		logger:   log.WithComponent("watchdog"),
		sleep:    probe.Sleep,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}

	if len(containers) != len(urls) {
		w.logger.Warn("容器数量与心跳地址数量不一致，多余条目将被忽略",
			"containers", len(containers),
			"urls", len(urls),
			"paired", len(w.targets))
	}
	return w
}

// Targets 返回配对后的目标列表
func (w *Watchdog) Targets() []Target {
	return w.targets
}

// Run 循环执行轮询周期，直到 ctx 被取消
func (w *Watchdog) Run(ctx context.Context) {
	w.logger.Info("启动心跳看门狗",
		"targets", len(w.targets),
		"cycle_interval", w.interval)

	for {
		w.RunCycle(ctx)

		if err := w.sleep(ctx, w.interval); err != nil {
			w.logger.Info("收到上下文取消信号，停止看门狗")
			return
		}
	}
}

// RunCycle 按固定顺序处理每个目标一次；单个目标失败不影响后续目标
func (w *Watchdog) RunCycle(ctx context.Context) CycleReport {
	report := CycleReport{ID: w.newID()}
	log := w.logger.WithCycle(report.ID)
	start := time.Now()

	log.Debug("开始轮询周期")

	for _, target := range w.targets {
		if ctx.Err() != nil {
			log.Info("轮询周期被取消")
			break
		}

		tr := TargetReport{Target: target}
		tr.Probe = w.prober.Wait(ctx, target.Container)

		switch tr.Probe.Outcome {
		case probe.Ready:
			hb := w.sender.Send(ctx, target.URL.URL, target.Container)
			tr.Heartbeat = &hb
		case probe.Canceled:
		default:
			log.WithTarget(target.URL.Name, target.URL.URL).
				Error("无法确认容器处于运行状态", "container", target.Container, "attempts", tr.Probe.Attempts)
		}

		report.Targets = append(report.Targets, tr)
	}

	report.Duration = time.Since(start)
	metrics.Cycles.Inc()
	metrics.CycleDuration.Observe(report.Duration.Seconds())
	metrics.LastCycleTimestamp.SetToCurrentTime()

	log.Debug("轮询周期结束", "duration", report.Duration, "targets", len(report.Targets))
	return report
}
