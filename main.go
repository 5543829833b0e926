package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tiggoins/heartbeat-watchdog/internal/config"
	"github.com/tiggoins/heartbeat-watchdog/internal/detector"
	"github.com/tiggoins/heartbeat-watchdog/internal/heartbeat"
	"github.com/tiggoins/heartbeat-watchdog/internal/logger"
	"github.com/tiggoins/heartbeat-watchdog/internal/metrics"
	"github.com/tiggoins/heartbeat-watchdog/internal/probe"
	"github.com/tiggoins/heartbeat-watchdog/internal/runtime"
	"github.com/tiggoins/heartbeat-watchdog/internal/watchdog"
)

var (
	configFile = flag.String("config", "/etc/heartbeat-watchdog/config.yaml", "配置文件路径")
	urlsFile   = flag.String("urls", "", "心跳地址文件路径，默认为可执行文件所在目录下的 urls.json")
	envFile    = flag.String("env", ".env", "可选的环境变量文件")
)

func main() {
	flag.Parse()

	// 启动前的错误只能写到标准错误
	bootLog := logger.New("info", "text", os.Stderr)

	if err := config.LoadDotEnv(*envFile); err != nil {
		bootLog.Fatal("加载环境变量文件失败", "path", *envFile, "error", err)
	}

	// 加载配置
	cfg, err := config.Load(*configFile)
	if err != nil {
		bootLog.Fatal("加载配置失败", "path", *configFile, "error", err)
	}
	// 初始化日志
	log := logger.New(cfg.Logger.Level, cfg.Logger.Format, os.Stdout)
	log.Info("启动容器心跳看门狗")

	path := *urlsFile
	if path == "" {
		path = cfg.Watchdog.URLsFile
	}
	if path == "" {
		path = config.DefaultURLsPath()
	}
	urls, err := config.LoadURLs(path)
	if err != nil {
		log.Fatal("加载心跳地址失败", "path", path, "error", err)
	}
	log.Info("心跳地址已加载", "path", path, "count", len(urls))

	// 初始化指标监控
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Port, log)
		go func() {
			if err := metricsServer.Start(); err != nil {
				log.Error("指标服务器启动失败", "error", err)
			}
		}()
		defer metricsServer.Close()
		log.Info("指标监控已启用", "port", cfg.Metrics.Port)
	}

	prober, inspector, err := newProber(cfg, log, runtime.New)
	if err != nil {
		log.Fatal("创建就绪检查器失败", "runtime", cfg.Runtime.Type, "error", err)
	}
	defer func() {
		if err := inspector.Close(); err != nil {
			log.Warn("关闭容器运行时连接失败", "error", err)
		}
	}()

	// TLS配置与HTTP客户端只创建一次，所有心跳共用
	client := heartbeat.NewClient(heartbeat.NewTLSConfig(), cfg.Watchdog.RequestTimeout)
	sender := heartbeat.NewSender(client, log)

	wd := watchdog.New(cfg.Watchdog.Containers, urls, prober, sender, cfg.Watchdog.CycleInterval, log)

	// 优雅关闭
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wd.Run(ctx)

	log.Info("容器心跳看门狗已关闭")
}

type inspectorFactory func(config.RuntimeConfig, *logger.Logger) (runtime.Inspector, error)

// newProber 先创建进程检测器再连接容器运行时，出错时没有需要关闭的连接
func newProber(cfg *config.Config, log *logger.Logger, newInspector inspectorFactory) (*probe.Prober, runtime.Inspector, error) {
	var opts []probe.Option
	if cfg.Probe.VerifyProcess {
		det, err := detector.New(cfg.Probe.ProcMount, log)
		if err != nil {
			return nil, nil, fmt.Errorf("创建进程检测器失败: %w", err)
		}
		opts = append(opts, probe.WithProcessChecker(det))
	}

	inspector, err := newInspector(cfg.Runtime, log)
	if err != nil {
		return nil, nil, fmt.Errorf("创建容器运行时失败: %w", err)
	}

	prober := probe.New(inspector, probe.Config{
		Interval: cfg.Probe.Interval,
		Timeout:  cfg.Probe.Timeout,
	}, log, opts...)
	return prober, inspector, nil
}
