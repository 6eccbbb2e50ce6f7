// Package logging 构建进程级 zap.Logger。
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 输出格式
const (
	FormatJSON    = "json"    // 生产：JSON，一行一条
	FormatConsole = "console" // 开发：彩色可读文本
)

// Config 是日志配置。
type Config struct {
	Level  string `yaml:"level" env:"RECBOT_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"RECBOT_LOG_FORMAT" env-default:"json"`
}

// Validate 检查级别与格式。
func (c Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch strings.ToLower(c.Format) {
	case "", FormatJSON, FormatConsole:
		return nil
	}
	return fmt.Errorf("log format %q: want json or console", c.Format)
}

// New 按配置构建 logger：json 用 zap 生产配置，console 用开发配置。
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var zc zap.Config
	switch strings.ToLower(cfg.Format) {
	case FormatConsole:
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "", FormatJSON:
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "time"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("log format %q: want json or console", cfg.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}
