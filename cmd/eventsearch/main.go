package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Harryjl046/eventsearch/internal/corpus"
	"github.com/Harryjl046/eventsearch/internal/dictionary"
	"github.com/Harryjl046/eventsearch/internal/index"
	"github.com/Harryjl046/eventsearch/internal/search/cache"
	"github.com/Harryjl046/eventsearch/internal/search/executor"
	"github.com/Harryjl046/eventsearch/internal/search/handler"
	"github.com/Harryjl046/eventsearch/internal/segment"
	"github.com/Harryjl046/eventsearch/pkg/config"
	"github.com/Harryjl046/eventsearch/pkg/health"
	"github.com/Harryjl046/eventsearch/pkg/logger"
	"github.com/Harryjl046/eventsearch/pkg/metrics"
	"github.com/Harryjl046/eventsearch/pkg/middleware"
	pkgredis "github.com/Harryjl046/eventsearch/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting eventsearch", "port", cfg.Server.Port, "corpus_source", cfg.Corpus.Source)

	m := metrics.New()
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ix, report, err := buildIndex(ctx, cfg)
	if err != nil {
		slog.Error("index build failed", "error", err)
		os.Exit(1)
	}
	m.DocsIndexedTotal.Add(float64(report.DocsIndexed))
	m.BuildErrorsTotal.Add(float64(len(report.Errors)))
	m.IndexTermCount.Set(float64(ix.TermCount()))
	slog.Info("index built",
		"docs", report.DocsIndexed,
		"terms", report.TermCount,
		"errors", len(report.Errors),
	)
	for _, docErr := range report.Errors {
		slog.Warn("document dropped during build", "doc", docErr.DocID, "error", docErr.Err)
	}

	if err := persistIndex(cfg, ix, m); err != nil {
		slog.Error("index persistence failed", "error", err)
		os.Exit(1)
	}

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, query caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis)
			slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if ix.DocCount() > 0 {
			return health.ComponentHealth{
				Status:  health.StatusUp,
				Message: fmt.Sprintf("%d docs, %d terms", ix.DocCount(), ix.TermCount()),
			}
		}
		return health.ComponentHealth{Status: health.StatusDown, Message: "empty index"}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	exec := executor.New(ix, executor.StrategyFromConfig(cfg.Search))
	h := handler.New(exec, queryCache, m, cfg.Search)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("eventsearch listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("eventsearch stopped")
}

// buildIndex streams the configured corpus into a fresh index build.
func buildIndex(ctx context.Context, cfg *config.Config) (*index.InvertedIndex, index.BuildReport, error) {
	src, err := corpus.Open(cfg)
	if err != nil {
		return nil, index.BuildReport{}, err
	}
	if closer, ok := src.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	builder := index.NewBuilder()
	err = src.Each(ctx, func(doc corpus.Document) error {
		builder.AddDocument(doc.ID, doc.Tokens)
		return nil
	})
	if err != nil {
		return nil, index.BuildReport{}, fmt.Errorf("reading corpus: %w", err)
	}
	ix, report := builder.Build()
	return ix, report, nil
}

// persistIndex writes the segment file, the JSON index and dictionary forms,
// and the configured compressed dictionary codec under the data dir.
func persistIndex(cfg *config.Config, ix *index.InvertedIndex, m *metrics.Metrics) error {
	dataDir := cfg.Index.DataDir
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir %s: %w", dataDir, err)
	}

	entries, err := segment.NewWriter(dataDir).Write(ix)
	if err != nil {
		return fmt.Errorf("writing segment: %w", err)
	}
	slog.Info("segment written", "path", filepath.Join(dataDir, segment.FileName), "terms", len(entries))

	if err := ix.WriteJSONFile(filepath.Join(dataDir, "index.json")); err != nil {
		return fmt.Errorf("writing json index: %w", err)
	}

	dictJSON, err := os.Create(filepath.Join(dataDir, "dictionary.json"))
	if err != nil {
		return fmt.Errorf("creating json dictionary: %w", err)
	}
	if err := dictionary.WriteJSON(dictJSON, entries); err != nil {
		dictJSON.Close()
		return fmt.Errorf("writing json dictionary: %w", err)
	}
	if err := dictJSON.Close(); err != nil {
		return fmt.Errorf("closing json dictionary: %w", err)
	}
	if info, err := os.Stat(filepath.Join(dataDir, "dictionary.json")); err == nil {
		m.DictionaryBytes.WithLabelValues("json").Set(float64(info.Size()))
	}

	var (
		compressed []byte
		codec      = cfg.Dictionary.Codec
	)
	switch codec {
	case "frontcoding":
		compressed, err = dictionary.FrontCodingEncode(entries, cfg.Dictionary.BlockSize)
		if err != nil {
			return fmt.Errorf("front-coding dictionary: %w", err)
		}
	case "blocking":
		compressed = dictionary.BlockingEncode(entries)
	default:
		return fmt.Errorf("unknown dictionary codec %q", codec)
	}
	binPath := filepath.Join(dataDir, "dictionary."+codec+".bin")
	if err := os.WriteFile(binPath, compressed, 0o644); err != nil {
		return fmt.Errorf("writing compressed dictionary: %w", err)
	}
	m.DictionaryBytes.WithLabelValues(codec).Set(float64(len(compressed)))
	slog.Info("dictionary written", "codec", codec, "bytes", len(compressed), "terms", len(entries))
	return nil
}
