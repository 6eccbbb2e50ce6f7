package model

import (
	"fmt"

	"github.com/rushteam/recbot/core"
)

// Config 是矩阵分解的训练参数。
type Config struct {
	// Factors 是隐向量维度
	Factors int `yaml:"factors" env:"RECBOT_MODEL_FACTORS" env-default:"10"`

	// Iterations 是交替最小二乘的轮数
	Iterations int `yaml:"iterations" env:"RECBOT_MODEL_ITERATIONS" env-default:"15"`

	// Regularization 是隐向量的 L2 正则系数（按观测数加权）
	Regularization float64 `yaml:"regularization" env:"RECBOT_MODEL_REGULARIZATION" env-default:"0.1"`

	// BiasRegularization 是用户/物品偏置的 L2 正则系数
	BiasRegularization float64 `yaml:"bias_regularization" env:"RECBOT_MODEL_BIAS_REGULARIZATION" env-default:"0.1"`

	// InitStdDev 是隐向量初始化的标准差
	InitStdDev float64 `yaml:"init_std_dev" env:"RECBOT_MODEL_INIT_STD_DEV" env-default:"0.1"`

	// Seed 固定初始化随机数，保证相同输入得到相同模型
	Seed int64 `yaml:"seed" env:"RECBOT_MODEL_SEED" env-default:"42"`

	// Workers 是每轮并行求解的 goroutine 数
	Workers int `yaml:"workers" env:"RECBOT_MODEL_WORKERS" env-default:"4"`

	// MinRating / MaxRating 是预测值的截断区间
	MinRating float64 `yaml:"min_rating" env:"RECBOT_RATING_MIN" env-default:"1"`
	MaxRating float64 `yaml:"max_rating" env:"RECBOT_RATING_MAX" env-default:"5"`
}

// DefaultConfig 返回默认训练参数。
func DefaultConfig() Config {
	return Config{
		Factors:            10,
		Iterations:         15,
		Regularization:     0.1,
		BiasRegularization: 0.1,
		InitStdDev:         0.1,
		Seed:               42,
		Workers:            4,
		MinRating:          core.DefaultMinRating,
		MaxRating:          core.DefaultMaxRating,
	}
}

// Validate 检查参数是否可用于训练。
func (c Config) Validate() error {
	if c.Factors <= 0 {
		return fmt.Errorf("model: factors must be positive, got %d", c.Factors)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("model: iterations must be positive, got %d", c.Iterations)
	}
	if c.Regularization <= 0 || c.BiasRegularization <= 0 {
		return fmt.Errorf("model: regularization must be positive")
	}
	if c.InitStdDev < 0 {
		return fmt.Errorf("model: init_std_dev must not be negative")
	}
	if c.MinRating >= c.MaxRating {
		return fmt.Errorf("model: min_rating %v must be below max_rating %v", c.MinRating, c.MaxRating)
	}
	return nil
}

// Scale 返回预测截断区间。
func (c Config) Scale() core.Scale {
	return core.Scale{Min: c.MinRating, Max: c.MaxRating}
}
