package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Name           string        `json:"name"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	Database       string        `json:"database"`
	SSLMode        string        `json:"sslmode"`
	MaxConnections int           `json:"max_connections"`
	IdleTimeout    time.Duration `json:"idle_timeout"`
}

// Config 全局配置
type Config struct {
	Databases map[string]DatabaseConfig `json:"databases"`
	BatchSize int                       `json:"batch_size"`
	Timeout   int                       `json:"timeout"`
	LogLevel  string                    `json:"log_level"`
	LogFile   string                    `json:"log_file"`
}

// DSN 获取数据库连接字符串
func (dc *DatabaseConfig) DSN() string {
	password := dc.Password
	if IsEncrypted(password) {
		if plain, err := DecryptPassword(password); err == nil {
			password = plain
		}
	}

	parts := []string{
		fmt.Sprintf("host=%s", dc.Host),
		fmt.Sprintf("port=%d", dc.Port),
		fmt.Sprintf("user=%s", dc.User),
		fmt.Sprintf("password=%s", password),
		fmt.Sprintf("dbname=%s", dc.Database),
	}
	sslmode := dc.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	parts = append(parts, fmt.Sprintf("sslmode=%s", sslmode))
	return strings.Join(parts, " ")
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 设置默认值
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFile == "" {
		cfg.LogFile = "plpydbapi.log"
	}

	return &cfg, validate(&cfg)
}

// Save 保存配置文件
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}

// validate 验证配置
func validate(cfg *Config) error {
	if len(cfg.Databases) == 0 {
		return fmt.Errorf("至少需要配置一个数据库")
	}

	for name, db := range cfg.Databases {
		if db.User == "" {
			return fmt.Errorf("数据库 %s 未配置用户名", name)
		}
		if db.Host == "" {
			return fmt.Errorf("数据库 %s 未配置主机地址", name)
		}
		if db.Port == 0 {
			return fmt.Errorf("数据库 %s 未配置端口", name)
		}
		if db.Database == "" {
			return fmt.Errorf("数据库 %s 未配置库名", name)
		}
	}

	return nil
}
