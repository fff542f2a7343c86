package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	audioimpl "github.com/lingoroom/captiond/external/audio"
	authimpl "github.com/lingoroom/captiond/external/auth"
	busimpl "github.com/lingoroom/captiond/external/bus"
	configloader "github.com/lingoroom/captiond/external/config"
	phrasecacheimpl "github.com/lingoroom/captiond/external/phrasecache"
	recognizerimpl "github.com/lingoroom/captiond/external/recognizer"
	repositoryimpl "github.com/lingoroom/captiond/external/repository"
	translatorimpl "github.com/lingoroom/captiond/external/translator"
	"github.com/lingoroom/captiond/external/ws"
	"github.com/lingoroom/captiond/internal/config"
	"github.com/lingoroom/captiond/internal/dispatch"
	"github.com/lingoroom/captiond/internal/phrasecache"
	"github.com/lingoroom/captiond/internal/repository"
	"github.com/lingoroom/captiond/internal/session"
	"github.com/samber/do/v2"
)

const (
	cacheWarmTimeout   = 30 * time.Second
	usageFlushInterval = time.Minute
	usageFlushTimeout  = 10 * time.Second
	shutdownTimeout    = 20 * time.Second
)

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	run(cfg, injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	phrasecacheimpl.RegisterDI(injector)
	busimpl.RegisterDI(injector)
	authimpl.RegisterDI(injector)
	audioimpl.RegisterDI(injector)
	recognizerimpl.RegisterDI(injector)
	translatorimpl.RegisterDI(injector)
	session.RegisterDI(injector)
	dispatch.RegisterDI(injector)
	ws.RegisterDI(injector)

	return injector
}

func run(cfg *config.Config, injector do.Injector) {
	repo, err := do.Invoke[repository.Repository](injector)
	if err != nil {
		slog.Error("failed to resolve repository", "error", err)
		os.Exit(1)
	}
	cache, err := do.Invoke[phrasecache.Cache](injector)
	if err != nil {
		slog.Error("failed to resolve phrase cache", "error", err)
		os.Exit(1)
	}
	worker, err := do.Invoke[*dispatch.Worker](injector)
	if err != nil {
		slog.Error("failed to resolve dispatch worker", "error", err)
		os.Exit(1)
	}
	server, err := do.Invoke[*ws.Server](injector)
	if err != nil {
		slog.Error("failed to resolve websocket server", "error", err)
		os.Exit(1)
	}

	warmPhraseCache(cfg, repo, cache)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.Run(ctx)
	go flushUsageLoop(ctx, cache, repo)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		slog.Info("shutdown: signal received", "signal", s.String())
	case err := <-serverErr:
		if err != nil {
			slog.Error("websocket server failed", "error", err)
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	flushUsage(shutdownCtx, cache, repo)
	slog.Info("shutdown: complete")
}

// warmPhraseCache preloads the most used lexicon entries so the first
// utterances after a deploy hit the cache instead of the model tiers.
func warmPhraseCache(cfg *config.Config, repo repository.Repository, cache phrasecache.Cache) {
	if cfg.PhraseCacheWarmLimit == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheWarmTimeout)
	defer cancel()

	entries, err := repo.ListMostUsed(ctx, cfg.PhraseCacheWarmLimit)
	if err != nil {
		slog.Warn("phrase cache warming failed, starting cold", "error", err)
		return
	}

	warm := make([]phrasecache.Entry, 0, len(entries))
	for _, e := range entries {
		warm = append(warm, phrasecache.Entry{
			SourceLang:   e.OriginalLang,
			Phrase:       e.OriginalText,
			Translations: e.Translations,
			UsageCount:   e.UsageCount,
		})
	}
	cache.Warm(warm)
	slog.Info("startup: phrase cache warmed", "entries", cache.Len())
}

func flushUsageLoop(ctx context.Context, cache phrasecache.Cache, repo repository.Repository) {
	ticker := time.NewTicker(usageFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			flushCtx, cancel := context.WithTimeout(context.Background(), usageFlushTimeout)
			flushUsage(flushCtx, cache, repo)
			cancel()
		}
	}
}

func flushUsage(ctx context.Context, cache phrasecache.Cache, repo repository.Repository) {
	drained := cache.DrainUsage()
	if len(drained) == 0 {
		return
	}

	counts := make(map[repository.UsageKey]int64, len(drained))
	for key, n := range drained {
		counts[repository.UsageKey{OriginalText: key.Phrase, OriginalLang: key.SourceLang}] = n
	}
	if err := repo.AddUsage(ctx, counts); err != nil {
		slog.Warn("failed to flush phrase usage counts", "error", err, "keys", len(counts))
	}
}
