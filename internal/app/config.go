// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/pd-clipper-service/pkg/util"
	"github.com/haierkeys/pd-clipper-service/pkg/workerpool"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File    string        `yaml:"-"` // 配置文件路径，不序列化
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	App     AppSettings   `yaml:"app"`
	Sources SourcesConfig `yaml:"sources"`
	AI      AIConfig      `yaml:"ai"`
	Tracer  TracerConfig  `yaml:"tracer"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"warn"`
	// File 日志文件路径，默认为 stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 端口
	HttpPort string `yaml:"http-port" default:":9000"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"300"`
	// PrivateHttpListen 私有 HTTP 监听地址（pprof 与 metrics），留空关闭
	PrivateHttpListen string `yaml:"private-http-listen" default:":9001"`
}

// AppSettings 应用设置
type AppSettings struct {
	// DefaultContextTimeout 默认上下文超时时间（秒）
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`
	// ExportSavePath 导出压缩包保存路径
	ExportSavePath string `yaml:"export-save-path" default:"storage/exports"`
	// ExportRetention 导出压缩包保留时间，支持格式：24h（小时）、7d（天），留空关闭清理
	ExportRetention string `yaml:"export-retention" default:"24h"`
	// BootstrapTopic 启动时自动检索的演示主题，留空关闭
	BootstrapTopic string `yaml:"bootstrap-topic" default:"Bananas"`
	// PerSourceLimit 每个图源的默认目标数量（1-10）
	PerSourceLimit int `yaml:"per-source-limit" default:"3"`
	// MaxInterleaved 交织结果总量上限
	MaxInterleaved int `yaml:"max-interleaved" default:"50"`

	// Worker Pool 配置
	WorkerPoolMaxWorkers int `yaml:"worker-pool-max-workers" default:"100"`
	WorkerPoolQueueSize  int `yaml:"worker-pool-queue-size" default:"1000"`
}

// SourcesConfig 档案库检索配置
type SourcesConfig struct {
	// Enabled 启用的图源名称，留空表示全部启用
	Enabled []string `yaml:"enabled"`
	// HTTPTimeout 单次检索请求超时，支持格式：15s（秒）、1m（分钟）
	HTTPTimeout string `yaml:"http-timeout" default:"15s"`

	// 各档案库接口地址覆盖，留空使用官方地址
	WikimediaBaseURL string `yaml:"wikimedia-base-url"`
	MetBaseURL       string `yaml:"met-base-url"`
	AICBaseURL       string `yaml:"aic-base-url"`
	AICIIIFBaseURL   string `yaml:"aic-iiif-base-url"`
	NASABaseURL      string `yaml:"nasa-base-url"`
	ClevelandBaseURL string `yaml:"cleveland-base-url"`
	LOCBaseURL       string `yaml:"loc-base-url"`
	IABaseURL        string `yaml:"ia-base-url"`
}

// AIConfig 模型配置
type AIConfig struct {
	// Provider 文本模型提供方：googleai、openai、anthropic、ollama
	Provider string `yaml:"provider" default:"googleai"`
	// APIKey 模型接口密钥，留空时读取环境变量 AI_API_KEY
	APIKey string `yaml:"api-key"`
	// TextModel 查询优化使用的文本模型
	TextModel string `yaml:"text-model" default:"gemini-2.5-flash"`
	// ImageModel 抠图使用的图像编辑模型
	ImageModel string `yaml:"image-model" default:"gemini-2.5-flash-image"`
	// BaseURL 模型网关地址，留空使用官方地址
	BaseURL string `yaml:"base-url"`
	// ExtractMaxAttempts 抠图最大尝试次数
	ExtractMaxAttempts int `yaml:"extract-max-attempts" default:"3"`
	// ExtractBaseDelay 每次尝试前的节流等待基数
	ExtractBaseDelay string `yaml:"extract-base-delay" default:"500ms"`
	// ExtractBackoffUnit 失败后的退避等待基数
	ExtractBackoffUnit string `yaml:"extract-backoff-unit" default:"1s"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// Enabled 是否启用追踪
	Enabled bool `yaml:"enabled" default:"true"`
	// Header 追踪 ID 请求头名称，默认 X-Trace-ID
	Header string `yaml:"header" default:"X-Trace-ID"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	err = yaml.Unmarshal(file, c)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	// defaults.Set 只有在字段为该类型的零值时才会填充
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("AI_API_KEY")
	}

	return c, realpath, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	err = os.WriteFile(c.File, data, 0644)
	if err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()

	if c.App.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.App.WorkerPoolMaxWorkers
	}
	if c.App.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.App.WorkerPoolQueueSize
	}

	return cfg
}

// GetExportRetention 获取导出压缩包保留时间，0 表示关闭清理
func (c *AppConfig) GetExportRetention() time.Duration {
	if c.App.ExportRetention == "" {
		return 0
	}
	if retention, err := util.ParseDuration(c.App.ExportRetention); err == nil {
		return retention
	}
	return 24 * time.Hour
}

// GetSourcesTimeout 获取档案库检索超时时间
func (c *AppConfig) GetSourcesTimeout() time.Duration {
	if timeout, err := util.ParseDuration(c.Sources.HTTPTimeout); err == nil {
		return timeout
	}
	return 15 * time.Second
}

// GetExtractBaseDelay 获取抠图节流等待基数
func (c *AppConfig) GetExtractBaseDelay() time.Duration {
	if d, err := util.ParseDuration(c.AI.ExtractBaseDelay); err == nil {
		return d
	}
	return 500 * time.Millisecond
}

// GetExtractBackoffUnit 获取抠图失败退避基数
func (c *AppConfig) GetExtractBackoffUnit() time.Duration {
	if d, err := util.ParseDuration(c.AI.ExtractBackoffUnit); err == nil {
		return d
	}
	return time.Second
}
