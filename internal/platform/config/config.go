package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Identity IdentityConfig `mapstructure:"identity"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Session  SessionConfig  `mapstructure:"session"`
	Search   SearchConfig   `mapstructure:"search"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode    string     `mapstructure:"mode"`
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了外部存储相关的配置
type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// IdentityConfig 定义了托管身份提供方的接入配置。
// ClientSecret 为空时不附加keyed-hash校验值。
type IdentityConfig struct {
	ProviderURL  string        `mapstructure:"providerUrl"`
	ClientID     string        `mapstructure:"clientId"`
	ClientSecret string        `mapstructure:"clientSecret"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// RealtimeConfig 定义了高分推送通道的配置。
// Mode 为 "local" 时使用内置的websocket网关；
// 为 "gateway" 时通过 Endpoint 指向的托管网关管理接口投递。
type RealtimeConfig struct {
	Mode     string `mapstructure:"mode"`
	Endpoint string `mapstructure:"endpoint"`
}

// SessionConfig 定义了会话载荷加密的配置
type SessionConfig struct {
	EncryptionKey string `mapstructure:"encryptionKey"`
}

// SearchConfig 定义了访问日志外送到搜索索引的配置。
// Active 为false时日志只写控制台，不外送。
type SearchConfig struct {
	URL         string `mapstructure:"url"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	Active      bool   `mapstructure:"active"`
	IndexPrefix string `mapstructure:"indexPrefix"`
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. 设置配置文件名和类型
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// 2. 添加配置文件搜索路径
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// 3. 设置环境变量支持
	// 允许通过环境变量覆盖配置，例如 SERVER_ADDRESS=:8888
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. 缺省值，保证没有配置文件时也能以本地模式启动
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("identity.timeout", 10*time.Second)
	v.SetDefault("realtime.mode", "local")
	v.SetDefault("search.url", "http://localhost:9200")
	v.SetDefault("search.indexPrefix", "nebula")

	// 5. 读取配置文件（找不到文件时使用缺省值继续）
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// 6. 将配置反序列化到结构体中
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 7. 将加载的配置赋值给全局变量
	Cfg = &cfg

	return Cfg, nil
}
