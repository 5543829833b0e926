package heartbeat

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tiggoins/heartbeat-watchdog/internal/logger"
	"github.com/tiggoins/heartbeat-watchdog/internal/metrics"
)

// Outcome 心跳发送结果
type Outcome int

const (
	Delivered Outcome = iota
	Rejected
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result 一次心跳请求的结果
type Result struct {
	Outcome    Outcome
	URL        string
	StatusCode int
	Err        error
	SentAt     time.Time
}

// NewTLSConfig 创建不校验证书链与主机名的TLS配置，进程内只创建一次
func NewTLSConfig() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // 心跳目标使用自签名证书
	}
}

// NewClient 创建共享的心跳HTTP客户端
func NewClient(tlsConfig *tls.Config, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// BuildURL 在基础地址后追加 container 参数；基础地址应已包含查询参数
func BuildURL(base, container string) string {
	return base + "&container=" + url.QueryEscape(container)
}

// Sender 心跳发送器，单次请求，不重试
type Sender struct {
	client *http.Client
	logger *logger.Logger
	now    func() time.Time
}

func NewSender(client *http.Client, log *logger.Logger) *Sender {
	return &Sender{
		client: client,
		logger: log.WithComponent("heartbeat"),
		now:    time.Now,
	}
}

// Send 发送一次心跳。所有结果只记录日志并通过 Result 返回，不会向调用方报错
func (s *Sender) Send(ctx context.Context, base, container string) Result {
	res := Result{
		URL:    BuildURL(base, container),
		SentAt: s.now(),
	}
	log := s.logger.WithContainer(container)
	start := time.Now()

	defer func() {
		metrics.HeartbeatsSent.WithLabelValues(container, res.Outcome.String()).Inc()
		metrics.HeartbeatDuration.WithLabelValues(container).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.URL, nil)
	if err != nil {
		res.Outcome = Failed
		res.Err = err
		log.Error("构建心跳请求失败", "timestamp", res.SentAt, "url", res.URL, "error", err)
		return res
	}

	resp, err := s.client.Do(req)
	if err != nil {
		res.Outcome = Failed
		res.Err = err
		log.Error("发送心跳失败", "timestamp", res.SentAt, "url", res.URL, "error", err)
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	res.StatusCode = resp.StatusCode
	if resp.StatusCode == http.StatusOK {
		res.Outcome = Delivered
		log.Info("心跳发送成功", "timestamp", res.SentAt, "url", res.URL)
		return res
	}

	res.Outcome = Rejected
	log.Warn("心跳发送失败", "timestamp", res.SentAt, "url", res.URL, "status_code", resp.StatusCode)
	return res
}
