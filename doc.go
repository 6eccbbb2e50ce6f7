// Package recbot 是聊天机器人的物品评分推荐核心。
//
// 设计要点：
// - 身份、目录、评分、模型四个组件各自独立，由 engine 门面串联
// - 评分只追加：先写表再进内存，成功后同步重训练 MF 模型
// - Top-N 走 Pipeline：召回（MF / 热门）→ 过滤（已评分、表达式、黑名单）→ 截断
package recbot

import (
	"github.com/rushteam/recbot/engine"
	"github.com/rushteam/recbot/pipeline"
)

// 轻量 facade：便于直接 import "recbot" 使用核心入口。
type Engine = engine.Engine
type Deps = engine.Deps
type Option = engine.Option
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node

var (
	New  = engine.New
	Open = engine.Open
)
