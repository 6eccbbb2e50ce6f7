// Package config 加载 recbot 的进程配置：YAML 文件 + 环境变量覆盖。
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rushteam/recbot/dataset"
	"github.com/rushteam/recbot/logging"
	"github.com/rushteam/recbot/model"
	"github.com/rushteam/recbot/pipeline"
	"github.com/rushteam/recbot/store"
)

// 因子导出后端
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config 是进程配置。
// 优先级：环境变量 > YAML 文件 > Default()。
type Config struct {
	Data     DataConfig      `yaml:"data"`
	Catalog  CatalogConfig   `yaml:"catalog"`
	Model    model.Config    `yaml:"model"`
	TopN     TopNConfig      `yaml:"topn"`
	Pipeline pipeline.Config `yaml:"pipeline"`
	Export   ExportConfig    `yaml:"export"`
	Log      logging.Config  `yaml:"log"`
}

// DataConfig 是三张持久化表的位置与格式。
type DataConfig struct {
	Items   dataset.TableConfig `yaml:"items" env-prefix:"RECBOT_ITEMS_"`
	Users   dataset.TableConfig `yaml:"users" env-prefix:"RECBOT_USERS_"`
	Ratings dataset.TableConfig `yaml:"ratings" env-prefix:"RECBOT_RATINGS_"`
}

// CatalogConfig 是模糊匹配参数。
type CatalogConfig struct {
	// Threshold 是 1-100 的最低匹配分；YAML 中写 0 等同未设置，回落到默认值
	Threshold int `yaml:"threshold" env:"RECBOT_CATALOG_THRESHOLD" env-default:"70"`
}

// TopNConfig 是 Top-N 列表参数。
type TopNConfig struct {
	DefaultN int `yaml:"default_n" env:"RECBOT_TOPN_DEFAULT" env-default:"10"`
	MaxN     int `yaml:"max_n" env:"RECBOT_TOPN_MAX" env-default:"50"`
}

// ExportConfig 控制训练后是否把隐向量发布到 KV 存储。
type ExportConfig struct {
	Enabled   bool              `yaml:"enabled" env:"RECBOT_EXPORT_ENABLED"`
	Backend   string            `yaml:"backend" env:"RECBOT_EXPORT_BACKEND" env-default:"memory"`
	KeyPrefix string            `yaml:"key_prefix" env:"RECBOT_EXPORT_KEY_PREFIX" env-default:"mf"`
	TTL       int               `yaml:"ttl" env:"RECBOT_EXPORT_TTL"`
	Redis     store.RedisConfig `yaml:"redis"`
}

// Default 返回 MovieLens 100K 布局的默认配置。
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Items:   dataset.TableConfig{Path: "data/u.item", Delimiter: "|", Encoding: dataset.EncodingLatin1},
			Users:   dataset.TableConfig{Path: "data/u.user", Delimiter: "|", Encoding: dataset.EncodingUTF8},
			Ratings: dataset.TableConfig{Path: "data/u.data", Delimiter: "tab", Encoding: dataset.EncodingUTF8},
		},
		Catalog: CatalogConfig{Threshold: 70},
		Model:   model.DefaultConfig(),
		TopN:    TopNConfig{DefaultN: 10, MaxN: 50},
		Export: ExportConfig{
			Backend:   BackendMemory,
			KeyPrefix: "mf",
			Redis:     store.RedisConfig{Addr: "localhost:6379"},
		},
		Log: logging.Config{Level: "info", Format: logging.FormatJSON},
	}
}

// Load 读取配置文件并应用环境变量覆盖；path 为空时只读环境变量。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
	} else {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate 检查配置是否可用于启动。
func (c *Config) Validate() error {
	var errs []error

	if c.Data.Items.Path == "" {
		errs = append(errs, errors.New("data.items.path is required"))
	}
	if c.Data.Users.Path == "" {
		errs = append(errs, errors.New("data.users.path is required"))
	}
	if c.Data.Ratings.Path == "" {
		errs = append(errs, errors.New("data.ratings.path is required"))
	}
	if c.Catalog.Threshold < 1 || c.Catalog.Threshold > 100 {
		errs = append(errs, fmt.Errorf("catalog.threshold %d out of [1,100]", c.Catalog.Threshold))
	}
	if err := c.Model.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.TopN.DefaultN <= 0 || c.TopN.MaxN < c.TopN.DefaultN {
		errs = append(errs, fmt.Errorf("topn: need 0 < default_n (%d) <= max_n (%d)", c.TopN.DefaultN, c.TopN.MaxN))
	}
	if c.Export.Enabled {
		switch c.Export.Backend {
		case BackendMemory:
		case BackendRedis:
			if c.Export.Redis.Addr == "" {
				errs = append(errs, errors.New("export.redis.addr is required for redis backend"))
			}
		default:
			errs = append(errs, fmt.Errorf("export.backend %q: want memory or redis", c.Export.Backend))
		}
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
