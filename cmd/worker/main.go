package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/licensegate/licensegate/internal/interfaces/cli/bootstrap"
	"github.com/licensegate/licensegate/internal/interfaces/cli/sweep"
	httpRouter "github.com/licensegate/licensegate/internal/interfaces/http"
)

func main() {
	// Environment from the first argument; ENV overrides it in bootstrap.
	flags := bootstrap.Flags{Env: "development"}
	if len(os.Args) > 1 {
		flags.Env = os.Args[1]
	}
	if path := os.Getenv("LICENSEGATE_CONFIG"); path != "" {
		flags.ConfigPath = path
	}

	rt, err := bootstrap.Init(&flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer rt.Close()

	log := rt.Log
	log.Infow("starting license maintenance worker", "environment", flags.Env)

	if rt.Config.Scheduler.Embedded {
		log.Warnw("scheduler.embedded is enabled; the server also runs expiry and reminder jobs")
	}

	container, err := httpRouter.NewContainer(rt.DB, rt.Config, log)
	if err != nil {
		log.Fatalw("failed to build application", "error", err)
	}

	// Catch up before the first tick.
	summary, err := sweep.Run(context.Background(), container)
	if err != nil {
		log.Errorw("initial sweep failed", "error", err)
	} else {
		log.Infow("initial sweep completed",
			"expired", summary.Expired,
			"reminded", summary.Reminded)
	}

	if err := container.StartScheduler(true); err != nil {
		container.Shutdown(context.Background())
		log.Fatalw("failed to start scheduler", "error", err)
	}

	log.Infow("license maintenance worker started",
		"expiry_interval", rt.Config.Scheduler.ExpiryInterval,
		"reminder_interval", rt.Config.Scheduler.ReminderInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	log.Infow("received signal, shutting down", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	container.Shutdown(ctx)

	log.Infow("license maintenance worker stopped")
}
