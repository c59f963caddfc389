package main

import (
	"context"
	"flag"
	"log"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"github.com/amirbrooks/ttodo/internal/api"
	"github.com/amirbrooks/ttodo/internal/config"
	"github.com/amirbrooks/ttodo/internal/daily"
	"github.com/amirbrooks/ttodo/internal/ingest"
	"github.com/amirbrooks/ttodo/internal/notify"
	"github.com/amirbrooks/ttodo/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("data dir %s: %v", cfg.DataDir, err)
	}
	st := store.Open(cfg.DataDir)
	if err := st.Load(); err != nil {
		log.Fatalf("load store: %v", err)
	}
	log.Printf("loaded %d tasks from %s", len(st.All()), cfg.DataDir)

	var notifier daily.Notifier
	if cfg.GatewayBaseURL != "" {
		notifier = notify.NewClient(cfg.GatewayBaseURL, cfg.GatewayToken)
	} else {
		log.Println("no gateway configured, reports go to the log")
		notifier = logNotifier{}
	}

	sched := daily.NewScheduler(st, notifier, daily.Options{
		Interval:        cfg.TickInterval,
		Location:        loc,
		AdminChannelID:  cfg.AdminChannelID,
		AdminReportTime: cfg.AdminReportTime,
	})
	schedCtx, stopSched := context.WithCancel(context.Background())
	go sched.Run(schedCtx)

	handler := api.NewHandler(st, ingest.New(st), sched, loc, log.Default())
	app := api.NewApp(handler)
	go func() {
		log.Printf("http listening on %s", cfg.HTTPAddr)
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Printf("http server error: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				return app.Shutdown()
			},
			"scheduler": func(ctx context.Context) error {
				stopSched()
				return nil
			},
			"store": func(ctx context.Context) error {
				return st.Save()
			},
		},
	)
	exitCode := <-wait
	log.Printf("exited with code %d", exitCode)
	os.Exit(exitCode)
}

// logNotifier stands in for the gateway client when none is configured.
type logNotifier struct{}

func (logNotifier) Deliver(_ context.Context, channelID, text string) error {
	log.Printf("report for channel %s:\n%s", channelID, text)
	return nil
}
