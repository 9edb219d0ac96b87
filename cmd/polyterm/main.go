package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/go-kratos/kratos/v2"
	"golang.org/x/time/rate"

	"github.com/polyterm/polyterm/internal/analysis"
	"github.com/polyterm/polyterm/internal/archive"
	"github.com/polyterm/polyterm/internal/compress"
	"github.com/polyterm/polyterm/internal/config"
	"github.com/polyterm/polyterm/internal/llm"
	"github.com/polyterm/polyterm/internal/logger"
	"github.com/polyterm/polyterm/internal/polymarket"
	"github.com/polyterm/polyterm/internal/server"
	"github.com/polyterm/polyterm/internal/sources/reddit"
	"github.com/polyterm/polyterm/internal/sources/tavily"
	"github.com/polyterm/polyterm/internal/store"
)

var (
	// Name 服务名称
	Name = "polyterm"
	// Version 版本号，构建时注入
	Version string

	flagconf string
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		panic(err)
	}

	// 任务状态存储，默认内存，可选 badger 持久化
	var st store.Store
	switch cfg.Store.Backend {
	case "badger":
		st, err = store.NewBadgerStore(cfg.Store.Path)
		if err != nil {
			log.Fatalf("init badger store failed: %v", err)
		}
	default:
		st = store.NewMemoryStore()
	}
	defer st.Close()

	gamma := polymarket.NewGammaClient(cfg.Polymarket.GammaURL)
	clob := polymarket.NewClobClient(cfg.Polymarket.ClobURL, gamma)

	news := tavily.NewClient(cfg.Sources.Tavily.APIKey)
	social := reddit.NewClient(cfg.Sources.Reddit.BaseURL, cfg.Sources.Reddit.UserAgent)
	compressor := compress.NewClient(cfg.Compress.BaseURL, cfg.Compress.APIKey)

	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.Concurrency.RPM)), 1)
	generator, err := llm.NewGenerator(context.Background(), cfg.LLM, limiter)
	if err != nil {
		log.Fatalf("init llm generator failed: %v", err)
	}

	archiver, err := archive.NewPostgresArchive(cfg.Archive, log)
	if err != nil {
		log.Fatalf("init archive failed: %v", err)
	}
	if archiver != nil {
		defer archiver.Close()
	}

	pipeline := analysis.NewPipeline(st, clob, news, social, compressor, generator,
		pipelineArchiver(archiver), log, analysis.Options{
			JobTTL:       cfg.Store.JobTTLDuration(),
			TargetTokens: cfg.Compress.TargetTokens,
			MaxJobs:      cfg.Concurrency.MaxJobs,
		})

	svc := server.NewService(gamma, clob, pipeline, archiver, log)
	httpSrv := server.NewHTTPServer(cfg.Server, svc)

	hostname, _ := os.Hostname()
	app := kratos.New(
		kratos.ID(hostname),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Server(httpSrv),
	)

	log.Infof("%s starting on %s", Name, cfg.Server.Addr)
	if err := app.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

// pipelineArchiver 把可能为 nil 的具体归档器转换为可空接口，
// 避免非 nil 接口包裹 nil 指针
func pipelineArchiver(a *archive.PostgresArchive) analysis.Archiver {
	if a == nil {
		return nil
	}
	return a
}
