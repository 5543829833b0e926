package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tiggoins/heartbeat-watchdog/internal/logger"
)

var (
	// 就绪检查次数
	ProbeAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heartbeat_watchdog_probe_attempts_total",
			Help: "容器就绪检查次数",
		},
		[]string{"container", "result"},
	)

	// 就绪等待结果
	ProbeOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heartbeat_watchdog_probe_outcomes_total",
			Help: "容器就绪等待结果",
		},
		[]string{"container", "outcome"},
	)

	// 就绪等待耗时
	ProbeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "heartbeat_watchdog_probe_duration_seconds",
			Help:    "等待容器就绪的耗时",
			Buckets: []float64{0.1, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"container"},
	)

	// 心跳发送结果
	HeartbeatsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heartbeat_watchdog_heartbeats_total",
			Help: "心跳发送次数",
		},
		[]string{"container", "outcome"},
	)

	// 心跳请求耗时
	HeartbeatDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "heartbeat_watchdog_heartbeat_duration_seconds",
			Help:    "心跳请求耗时",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"container"},
	)

	// 轮询周期
	Cycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "heartbeat_watchdog_cycles_total",
			Help: "已完成的轮询周期数",
		},
	)

	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "heartbeat_watchdog_cycle_duration_seconds",
			Help:    "单个轮询周期耗时（不含周期间隔）",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900},
		},
	)

	LastCycleTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "heartbeat_watchdog_last_cycle_timestamp_seconds",
			Help: "最近一次轮询周期完成的时间",
		},
	)
)

var registerOnce sync.Once

// Register 向默认注册表注册全部指标，重复调用无副作用
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ProbeAttempts,
			ProbeOutcomes,
			ProbeDuration,
			HeartbeatsSent,
			HeartbeatDuration,
			Cycles,
			CycleDuration,
			LastCycleTimestamp,
		)
	})
}

type Server struct {
	port   int
	logger *logger.Logger
	server *http.Server
}

func NewServer(port int, log *logger.Logger) *Server {
	Register()

	return &Server{
		port:   port,
		logger: log.WithComponent("metrics"),
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      Handler(),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Handler 返回 /metrics 与 /health 路由
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// Start 阻塞监听；Close 之后调用或被 Close 中断时返回 nil
func (s *Server) Start() error {
	s.logger.Info("指标服务器启动", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Close() error {
	return s.server.Close()
}
