package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"circulation_recall_daemon/internal/app"
	"circulation_recall_daemon/internal/infra/config"
	"circulation_recall_daemon/internal/infra/logger"
	"circulation_recall_daemon/internal/infra/metrics"
	"circulation_recall_daemon/internal/infra/scheduler"
	"circulation_recall_daemon/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/telebot.v3"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sweeps on their cron schedules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), rt.cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.AppConfig) error {
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"log_level":   cfg.LogLevel,
	}).Info("Circulation daemon starting...")

	d, err := newDaemon(cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	sweepScheduler := scheduler.NewSweepScheduler(d.jobs, []scheduler.Job{
		{Name: app.JobOverdueLetters, Spec: cfg.CronSpecOverdueLetters},
		{Name: app.JobUpdateBorrowers, Spec: cfg.CronSpecUpdateBorrowers},
		{Name: app.JobUpdateRequests, Spec: cfg.CronSpecUpdateRequests},
	}, cfg.SweepTimeout, logger.Component("scheduler"))

	// Sweeps triggered from the bot run on runCtx, cancelled on shutdown.
	runCtx, cancelRuns := context.WithCancel(ctx)
	defer cancelRuns()

	var bot *telebot.Bot
	if cfg.IsBotEnabled() {
		bot, err = newOperatorBot(runCtx, cfg, d)
		if err != nil {
			return err
		}
		notifier := telegram.NewNotifier(telegram.NewTelebotAdapter(bot), d.history, cfg.AdminTelegramID, logger.Component("telegram"))
		sweepScheduler.OnFinished(notifier.JobFinished)
	}

	if err := sweepScheduler.Start(); err != nil {
		return err
	}

	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		mainLogger.WithField("addr", cfg.MetricsAddr).Info("Metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if bot != nil {
		// Start bot in a goroutine so it doesn't block graceful shutdown handling
		go bot.Start()
		mainLogger.Info("Operator bot started")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		mainLogger.WithField("signal", sig.String()).Info("Shutting down application...")
	case err = <-serverErr:
		mainLogger.WithError(err).Error("Metrics server failed, shutting down")
	}

	d.jobs.StopCurrent()
	sweepScheduler.Stop()
	if bot != nil {
		bot.Stop()
	}
	cancelRuns()
	d.jobs.Wait() // the database is closed once every sweep has returned
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := metricsServer.Shutdown(shutdownCtx); shutdownErr != nil {
		mainLogger.WithError(shutdownErr).Warn("Metrics server shutdown failed")
	}
	mainLogger.Info("Application shut down gracefully.")
	if err != nil {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.MetricsHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func newOperatorBot(ctx context.Context, cfg *config.AppConfig, d *daemon) (*telebot.Bot, error) {
	botLogger := logger.Component("telegram")
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := botLogger.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("could not create Telegram bot: %w", err)
	}

	operator := app.NewOperatorService(d.jobs, d.history, cfg.AdminTelegramID, cfg.SweepTimeout)
	telegram.RegisterBotCommands(bot, operator, botLogger)
	telegram.RegisterAdminHandlers(ctx, bot, operator, botLogger)
	return bot, nil
}
