package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aio-labs/aio-bot/internal/api"
	"github.com/aio-labs/aio-bot/internal/blob"
	"github.com/aio-labs/aio-bot/internal/config"
	"github.com/aio-labs/aio-bot/internal/flow"
	"github.com/aio-labs/aio-bot/internal/genai"
	"github.com/aio-labs/aio-bot/internal/lockfile"
	"github.com/aio-labs/aio-bot/internal/messaging"
	"github.com/aio-labs/aio-bot/internal/models"
	"github.com/aio-labs/aio-bot/internal/observability"
	"github.com/aio-labs/aio-bot/internal/scheduler"
	"github.com/aio-labs/aio-bot/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	initializeLogger(cfg.Debug)

	if err := run(cfg); err != nil {
		slog.Error("aio-bot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("aio-bot exited successfully")
}

// initializeLogger sets up structured logging; debug level when AIO_DEBUG is set.
func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func run(cfg config.Config) error {
	lock, err := lockfile.Acquire(cfg.DataDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	metrics := observability.NewMetrics(cfg.MetricsNS)

	profiles := store.NewFileProfileStore(filepath.Join(cfg.DataDir, cfg.ProfilesFile))
	reminders := store.NewFileReminderStore(filepath.Join(cfg.DataDir, cfg.RemindersFile), cfg.Location)

	blobs, err := blob.NewStore(filepath.Join(cfg.DataDir, cfg.FilesDir))
	if err != nil {
		return err
	}

	client, err := genai.NewClient(
		genai.WithAPIKey(cfg.OpenAIKey),
		genai.WithModel(cfg.CompletionModel),
	)
	if err != nil {
		return err
	}
	pipeline := genai.NewPipeline(client,
		genai.WithMaxInFlight(cfg.CompletionInFlight),
		genai.WithAttempts(cfg.CompletionAttempts),
		genai.WithHistoryPairs(cfg.ChatHistoryPairs),
		genai.WithMetrics(metrics),
	)

	telegram, err := messaging.NewTelegramService(cfg.BotToken)
	if err != nil {
		return err
	}

	engine := flow.NewEngine(flow.Deps{
		Profiles:   profiles,
		Reminders:  reminders,
		Blobs:      blobs,
		Completion: pipeline,
		Files:      telegram,
		Location:   cfg.Location,
		Metrics:    metrics,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := telegram.Start(ctx); err != nil {
		return err
	}

	sched := scheduler.NewScheduler()
	sweeper := scheduler.NewSweeper(reminders, telegram, metrics, nil)
	if err := sweeper.Start(ctx, sched, cfg.PollInterval); err != nil {
		return err
	}

	var admin *api.Server
	if cfg.AdminAddr != "" {
		admin = api.NewServer(cfg.AdminAddr, engine.Sessions())
		admin.Start()
	}

	slog.Info("aio-bot started",
		"timezone", cfg.TimezoneName,
		"poll_interval", cfg.PollInterval,
		"admin_addr", cfg.AdminAddr)

	var wg sync.WaitGroup
	consumeEvents(ctx, &wg, engine, telegram)

	<-ctx.Done()
	slog.Info("aio-bot shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := telegram.Stop(); err != nil {
		slog.Warn("Failed to stop messaging service", "error", err)
	}
	wg.Wait()
	sched.Stop()
	if admin != nil {
		if err := admin.Stop(shutdownCtx); err != nil {
			slog.Warn("Failed to stop admin server", "error", err)
		}
	}
	return nil
}

// consumeEvents drains inbound events and runs each dispatch in its own
// goroutine. Per-user ordering is enforced by the engine's session locks, so
// concurrent dispatch only interleaves across users.
func consumeEvents(ctx context.Context, wg *sync.WaitGroup, engine *flow.Engine, svc messaging.Service) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range svc.Events() {
			wg.Add(1)
			go func(ev models.Event) {
				defer wg.Done()
				for _, reply := range engine.HandleEvent(ctx, ev) {
					if err := svc.SendReply(ctx, ev.UserID, reply); err != nil {
						slog.Error("Failed to deliver reply", "userID", ev.UserID, "error", err)
					}
				}
			}(ev)
		}
	}()
}
