package main

import (
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"regis_chat_backend/bootstrap"
	"regis_chat_backend/config"
	"regis_chat_backend/models"
	"regis_chat_backend/pkg/logging"
)

// urlList collects repeated -url flags.
type urlList []string

func (u *urlList) String() string { return strings.Join(*u, ",") }

func (u *urlList) Set(v string) error {
	*u = append(*u, v)
	return nil
}

func main() {
	_ = godotenv.Load()
	logging.Init()

	var (
		urls     urlList
		recreate bool
		worker   bool
		poll     time.Duration
	)
	flag.Var(&urls, "url", "extra document URL to ingest (repeatable)")
	flag.BoolVar(&recreate, "recreate", false, "drop and recreate the collection first")
	flag.BoolVar(&worker, "worker", false, "consume ingest jobs from the Redis queue")
	flag.DurationVar(&poll, "poll", 5*time.Second, "queue poll timeout in worker mode")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Logger.Error("fail LoadConfig", "error", err)
		os.Exit(1)
	}
	cfg.WatchTemplates = false

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		logging.Logger.Error("fail NewApp", "error", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	ctx, stop := signal.NotifyContext(app.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ingest := app.Services.IngestService
	if worker {
		if app.Infrastructure.Queue == nil {
			logging.Logger.Error("worker mode needs REDIS_URL")
			os.Exit(1)
		}
		if err := ingest.RunWorker(ctx, app.Infrastructure.Queue, poll); err != nil {
			logging.Logger.Error("worker stopped", "error", err)
		}
		return
	}

	report, err := ingest.Run(ctx, &models.IngestJob{
		ID:         uuid.New().String(),
		URLs:       urls,
		Recreate:   recreate,
		EnqueuedAt: time.Now(),
	})
	if err != nil {
		logging.Logger.Error("ingest failed", "error", err)
		exitAfter(app)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
	if len(report.FailedURLs) > 0 && report.PointsStored == 0 {
		exitAfter(app)
	}
}

// exitAfter closes connections before a failing exit, which skips defers.
func exitAfter(app *bootstrap.App) {
	_ = app.Shutdown()
	os.Exit(1)
}
