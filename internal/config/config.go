// Package config 提供配置加载和管理功能
package config

import (
	"time"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Database      DatabaseConfig      `yaml:"database" mapstructure:"database"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Chat          ChatConfig          `yaml:"chat" mapstructure:"chat"`
	Attachment    AttachmentConfig    `yaml:"attachment" mapstructure:"attachment"`
	Conversation  ConversationConfig  `yaml:"conversation" mapstructure:"conversation"`
	Speech        SpeechConfig        `yaml:"speech" mapstructure:"speech"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	// MaxMultipartMemory multipart 表单在内存中保留的最大字节数
	MaxMultipartMemory ByteSize `yaml:"max_multipart_memory" mapstructure:"max_multipart_memory"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Driver 数据库驱动: postgres | sqlite
	Driver   string         `yaml:"driver" mapstructure:"driver"`
	Postgres PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite" mapstructure:"sqlite"`
	LogLevel string         `yaml:"log_level" mapstructure:"log_level"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	User            string        `yaml:"user" mapstructure:"user"`
	Password        string        `yaml:"password" mapstructure:"password"`
	Database        string        `yaml:"database" mapstructure:"database"`
	SSLMode         string        `yaml:"ssl_mode" mapstructure:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

// SQLiteConfig SQLite 配置（本地开发）
type SQLiteConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Password     string        `yaml:"password" mapstructure:"password"`
	DB           int           `yaml:"db" mapstructure:"db"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	// PreferenceTTL 偏好缓存过期时间
	PreferenceTTL time.Duration `yaml:"preference_ttl" mapstructure:"preference_ttl"`
}

// ChatConfig 对话补全端点配置
type ChatConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`

	TextModel         string  `yaml:"text_model" mapstructure:"text_model"`
	VisionModel       string  `yaml:"vision_model" mapstructure:"vision_model"`
	TextTemperature   float64 `yaml:"text_temperature" mapstructure:"text_temperature"`
	VisionTemperature float64 `yaml:"vision_temperature" mapstructure:"vision_temperature"`
	MaxOutputTokens   int     `yaml:"max_output_tokens" mapstructure:"max_output_tokens"`

	// Persona 纯文本请求的 system 指令
	Persona string `yaml:"persona" mapstructure:"persona"`
	// DefaultImagePrompt 用户未输入文字时图片请求使用的提示词
	DefaultImagePrompt string `yaml:"default_image_prompt" mapstructure:"default_image_prompt"`
	// ImagePromptTemplate 图片请求文本部分的模板，%s 为用户提示词；为空时直接使用提示词
	ImagePromptTemplate string `yaml:"image_prompt_template" mapstructure:"image_prompt_template"`

	// Timeout 包裹单次网络调用的外部超时，超时视为网络错误
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// AttachmentConfig 图片附件约束
type AttachmentConfig struct {
	MaxSize          ByteSize `yaml:"max_size" mapstructure:"max_size"`
	MaxMegapixels    float64  `yaml:"max_megapixels" mapstructure:"max_megapixels"`
	AllowedMIMETypes []string `yaml:"allowed_mime_types" mapstructure:"allowed_mime_types"`
}

// ConversationConfig 会话配置
type ConversationConfig struct {
	// LockTTL 单个会话发送锁的最长持有时间
	LockTTL         time.Duration `yaml:"lock_ttl" mapstructure:"lock_ttl"`
	HistoryPageSize int           `yaml:"history_page_size" mapstructure:"history_page_size"`
}

// SpeechConfig 语音输出配置
type SpeechConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Language 朗读语言（BCP 47），随请求透传给 TTS 进程
	Language string `yaml:"language" mapstructure:"language"`
	// StreamMaxLen 朗读请求流的近似最大长度
	StreamMaxLen int64 `yaml:"stream_max_len" mapstructure:"stream_max_len"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" mapstructure:"cors"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond int  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int  `yaml:"burst" mapstructure:"burst"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}
