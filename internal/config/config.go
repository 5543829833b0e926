package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ContainerRuntime string

const (
	RuntimeCLI        ContainerRuntime = "cli"
	RuntimeDocker     ContainerRuntime = "docker"
	RuntimeContainerd ContainerRuntime = "containerd"
)

// 环境变量覆盖
const (
	EnvLogLevel = "WATCHDOG_LOG_LEVEL"
	EnvRuntime  = "WATCHDOG_RUNTIME"
	EnvURLsFile = "WATCHDOG_URLS_FILE"
)

type Config struct {
	Watchdog WatchdogConfig `yaml:"watchdog"`
	Probe    ProbeConfig    `yaml:"probe"`
	Runtime  RuntimeConfig  `yaml:"runtime"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logger   LoggerConfig   `yaml:"logger"`
}

type WatchdogConfig struct {
	// 按顺序与 urls.json 中的条目一一配对
	Containers []string `yaml:"containers"`
	// 一轮处理完成后的等待时间
	CycleInterval time.Duration `yaml:"cycle_interval"`
	// 心跳请求超时时间
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// urls.json 路径，为空时使用可执行文件所在目录
	URLsFile string `yaml:"urls_file"`
}

type ProbeConfig struct {
	// 两次检查之间的间隔
	Interval time.Duration `yaml:"interval"`
	// 等待容器就绪的最长时间
	Timeout time.Duration `yaml:"timeout"`
	// 是否通过 /proc 校验容器主进程不是僵尸进程
	VerifyProcess bool   `yaml:"verify_process"`
	ProcMount     string `yaml:"proc_mount"`
}

type RuntimeConfig struct {
	// 容器运行时类型 ("cli", "docker", "containerd"，默认为"cli")
	Type ContainerRuntime `yaml:"type"`
	// cli 模式下调用的命令，如 docker、podman、nerdctl
	Binary string `yaml:"binary"`
	// containerd 套接字与命名空间
	ContainerdAddress   string `yaml:"containerd_address"`
	ContainerdNamespace string `yaml:"containerd_namespace"`
	// 单次检查超时时间
	InspectTimeout time.Duration `yaml:"inspect_timeout"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Watchdog: WatchdogConfig{
			Containers:     []string{"emqx", "thingtrax_devices", "mongodb"},
			CycleInterval:  30 * time.Second,
			RequestTimeout: 30 * time.Second,
		},
		Probe: ProbeConfig{
			Interval:      5 * time.Second,
			Timeout:       300 * time.Second,
			VerifyProcess: false,
			ProcMount:     "/proc",
		},
		Runtime: RuntimeConfig{
			Type:                RuntimeCLI,
			Binary:              "docker",
			ContainerdAddress:   "/run/containerd/containerd.sock",
			ContainerdNamespace: "moby",
			InspectTimeout:      10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load 加载配置文件；文件不存在时使用默认配置，读取或解析失败返回错误
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("解析配置文件失败: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv 加载可选的 .env 文件，不覆盖已存在的环境变量
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.Logger.Level = v
	}
	if v, ok := os.LookupEnv(EnvRuntime); ok && v != "" {
		c.Runtime.Type = ContainerRuntime(v)
	}
	if v, ok := os.LookupEnv(EnvURLsFile); ok && v != "" {
		c.Watchdog.URLsFile = v
	}
}

func (c *Config) validate() error {
	if len(c.Watchdog.Containers) == 0 {
		return errors.New("至少需要配置一个容器名称")
	}
	for i, name := range c.Watchdog.Containers {
		if name == "" {
			return fmt.Errorf("containers[%d] 容器名称为空", i)
		}
	}
	if c.Watchdog.CycleInterval <= 0 {
		return errors.New("轮询周期必须大于0")
	}
	if c.Watchdog.RequestTimeout <= 0 {
		return errors.New("心跳请求超时时间必须大于0")
	}
	if c.Probe.Interval <= 0 {
		return errors.New("检查间隔必须大于0")
	}
	if c.Probe.Timeout <= 0 {
		return errors.New("就绪等待超时时间必须大于0")
	}
	if c.Runtime.InspectTimeout <= 0 {
		return errors.New("容器检查超时时间必须大于0")
	}
	if c.Probe.ProcMount == "" {
		c.Probe.ProcMount = "/proc"
	}
	switch c.Runtime.Type {
	case RuntimeCLI:
		if c.Runtime.Binary == "" {
			return errors.New("cli 运行时必须指定命令")
		}
	case RuntimeDocker:
	case RuntimeContainerd:
		if c.Runtime.ContainerdAddress == "" {
			return errors.New("containerd 运行时必须指定套接字地址")
		}
	default:
		return fmt.Errorf("容器运行时必须是cli、docker或containerd: %q", c.Runtime.Type)
	}
	return nil
}
