package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iWorld-y/lucidly/internal/backend"
	"github.com/iWorld-y/lucidly/internal/config"
	"github.com/iWorld-y/lucidly/internal/logger"
	"github.com/iWorld-y/lucidly/internal/recommend/factory"
	"github.com/iWorld-y/lucidly/internal/speech"
	"github.com/iWorld-y/lucidly/internal/storage"
	"github.com/iWorld-y/lucidly/internal/workflow"
)

var (
	// flagconf is the config flag.
	flagconf string
	// flagnospeech disables speech playback.
	flagnospeech bool
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
	flag.BoolVar(&flagnospeech, "no-speech", false, "disable reading recommendations aloud")
}

func main() {
	flag.Parse()

	// 1. 加载配置，文件不存在时使用默认配置
	cfg, err := config.LoadConfig(flagconf)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}

	// 2. 初始化日志
	if err = logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	logger.Log.Infof("启动 lucidly, backend=%s, recommend=%s", cfg.Backend.BaseURL, cfg.Recommend.Provider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. 初始化限流器和客户端
	limiter := factory.NewLimiter(cfg.Concurrency)
	analyzer := backend.NewAnalysisClient(cfg.Backend.BaseURL,
		backend.WithTimeout(time.Duration(cfg.Backend.Timeout)*time.Second),
		backend.WithLimiter(limiter),
	)
	recommender, err := factory.NewRecommender(ctx, cfg, limiter)
	if err != nil {
		logger.Log.Fatalf("建议来源初始化失败: %v", err)
	}

	opts := []workflow.Option{workflow.WithOnChange(newRenderer(os.Stdout).Render)}

	// 4. 可选的历史存储
	var history historyLister
	if cfg.DB.Host != "" {
		store, err := storage.NewStorage(ctx, cfg.DB)
		if err != nil {
			logger.Log.Fatalf("数据库初始化失败: %v", err)
		}
		defer store.Close()
		history = store
		opts = append(opts, workflow.WithRecorder(store))
	}

	// 5. 语音播放
	var speaker workflow.Speaker
	if !flagnospeech {
		speaker = speech.NewController(speech.NewCommandEngine(cfg.Speech.Command, cfg.Speech.Args...))
	}

	orch := workflow.NewOrchestrator(analyzer, recommender, speaker,
		logger.NewKratosLogger(logger.Log), opts...)

	if err := newCLI(os.Stdin, os.Stdout, orch, history).run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.Errorf("退出: %v", err)
	}
	orch.Wait()
}
