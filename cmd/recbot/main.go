// Command recbot 是推荐核心的命令行前端：逐行读取标准输入中的聊天命令，输出回复。
//
// 每行格式为 "<external_id> <command> [args...]"，例如：
//
//	discord:42 register alice
//	discord:42 rate 5 Toy Story
//	discord:42 recommend GoldenEye
//	discord:42 top 5
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/rushteam/recbot/config"
	"github.com/rushteam/recbot/engine"
	"github.com/rushteam/recbot/logging"
)

func main() {
	configPath := flag.String("config", "", "YAML 配置文件路径，为空时只读环境变量")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := engine.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open engine failed", zap.Error(err))
	}
	defer e.Close()

	logger.Info("recbot ready",
		zap.Int("items", e.Catalog().Len()),
		zap.Int("users", e.Registry().Len()),
		zap.Int("ratings", e.Ratings().Len()),
		zap.Int64("model_version", e.Model().Version()),
		zap.String("pipeline", e.Pipeline().Describe()))

	if err := serve(ctx, e, os.Stdin, os.Stdout); err != nil {
		logger.Error("input closed", zap.Error(err))
	}
}

// serve 逐行处理命令，直到输入结束、收到 quit 或 ctx 取消。
func serve(ctx context.Context, e *engine.Engine, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		reply, quit := handle(ctx, e, sc.Text())
		if reply != "" {
			fmt.Fprintln(out, reply)
		}
		if quit {
			return nil
		}
	}
	return sc.Err()
}
