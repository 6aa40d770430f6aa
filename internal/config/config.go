package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig 应用基础信息
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// LinkConfig 飞行器链路配置（传输方式、端点与本机标识）
type LinkConfig struct {
	Transport       string        `mapstructure:"transport"` // tcp | udp
	Addr            string        `mapstructure:"addr"`
	LocalAddr       string        `mapstructure:"localAddr"` // 仅 udp：本地绑定地址
	SystemID        uint8         `mapstructure:"systemId"`
	ComponentID     uint8         `mapstructure:"componentId"`
	HeartbeatPeriod time.Duration `mapstructure:"heartbeatPeriod"`
	ReceiveTimeout  time.Duration `mapstructure:"receiveTimeout"`
	DialTimeout     time.Duration `mapstructure:"dialTimeout"`
}

// CommandConfig 下行命令限流配置
type CommandConfig struct {
	RatePerSec int `mapstructure:"ratePerSec"`
	Burst      int `mapstructure:"burst"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

// LumberjackConfig 日志滚动（lumberjack）配置
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig 日志级别与输出配置
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig Prometheus 指标暴露配置
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

// Config 顶层配置结构
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Link    LinkConfig    `mapstructure:"link"`
	Command CommandConfig `mapstructure:"command"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// Load 从 YAML/TOML/JSON 文件与环境变量加载配置。
// 若 path 为空，则回退到 configs/example.yaml；缺少配置文件时依赖默认值。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("example")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	// 环境变量覆盖：前缀 GCS_，并将点号替换为下划线
	v.SetEnvPrefix("GCS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失时按默认值运行；其它读取错误上抛
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "uav-gcs")
	v.SetDefault("app.env", "dev")

	v.SetDefault("link.transport", "tcp")
	v.SetDefault("link.addr", "127.0.0.1:5760")
	v.SetDefault("link.localAddr", ":14550")
	v.SetDefault("link.systemId", 255)
	v.SetDefault("link.componentId", 190)
	v.SetDefault("link.heartbeatPeriod", "1s")
	v.SetDefault("link.receiveTimeout", "100ms")
	v.SetDefault("link.dialTimeout", "5s")

	v.SetDefault("command.ratePerSec", 10)
	v.SetDefault("command.burst", 20)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.filename", "logs/uav-gcs.log")
	v.SetDefault("logging.file.maxSize", 100)
	v.SetDefault("logging.file.maxBackups", 7)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")
}
