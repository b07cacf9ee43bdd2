package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"taskplanner/internal/bot"
	"taskplanner/internal/service"
)

const reportTimeout = 30 * time.Second

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reminder poller, the daily report and the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(opts, func(a *app) error { return serve(ctx, a) })
		},
	}
}

func serve(ctx context.Context, a *app) error {
	var telegramBot *bot.Bot
	if a.cfg.TelegramToken != "" {
		b, err := bot.New(a.cfg.TelegramToken, a.cfg.TelegramChatID, bot.Services{
			Tasks:       a.tasks,
			Categories:  a.categories,
			Reminders:   a.reminders,
			Calendar:    a.calendar,
			Suggestions: a.suggestions,
		}, a.logger.WithPrefix("bot"))
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}
		telegramBot = b
		if a.cfg.TelegramChatID != 0 {
			a.relay.Use(telegramBot)
		}
	} else {
		a.logger.Warn("TELEGRAM_TOKEN is empty, reminders go to the log only")
	}

	poller := service.NewReminderPoller(a.reminders, a.scheduler, a.cfg.PollInterval, a.logger)
	poller.OnSnapshot(func(s service.Snapshot) {
		if len(s.Notified) > 0 {
			a.logger.Debug("reminders sent", "keys", s.Notified)
		}
		surfaceReminders(a, telegramBot, s)
	})
	a.tasks.OnChange(func(context.Context) { poller.Trigger() })
	if err := poller.Start(ctx); err != nil {
		return err
	}
	defer poller.Stop()

	if telegramBot != nil {
		if err := scheduleReport(a, telegramBot); err != nil {
			return err
		}
	}

	a.scheduler.Start()
	defer a.scheduler.Stop()

	a.logger.Info("planner started", "db", a.cfg.DatabaseURL, "poll", a.cfg.PollInterval)
	if telegramBot != nil {
		if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("bot stopped: %w", err)
		}
	} else {
		<-ctx.Done()
	}
	a.logger.Info("shutdown complete")
	return nil
}

// surfaceReminders delivers the digest when an evaluation opens the reminder
// panel. Without a bot the reminders go to the log.
func surfaceReminders(a *app, telegramBot *bot.Bot, s service.Snapshot) {
	if !s.AutoShown {
		return
	}
	if telegramBot == nil {
		for _, r := range s.Reminders {
			a.logger.Info("reminder", "urgency", r.Urgency, "task", r.Label(), "msg", r.Message)
		}
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()
	if err := telegramBot.HandleSnapshot(ctx, s); err != nil {
		a.logger.Error("send reminder digest", "err", err)
	}
}

// scheduleReport registers the digest job. REPORT_AT wins over
// REPORT_INTERVAL_HOURS; with neither set no report is sent.
func scheduleReport(a *app, telegramBot *bot.Bot) error {
	job := func() {
		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()
		if err := telegramBot.SendReport(ctx); err != nil {
			a.logger.Error("send report", "err", err)
		}
	}

	switch {
	case a.cfg.ReportAt != "":
		if _, err := a.scheduler.ScheduleDaily(a.cfg.ReportAt, job); err != nil {
			return fmt.Errorf("schedule report at %q: %w", a.cfg.ReportAt, err)
		}
		a.logger.Info("daily report scheduled", "at", a.cfg.ReportAt)
	case a.cfg.ReportInterval > 0:
		if _, err := a.scheduler.ScheduleInterval(a.cfg.ReportInterval, job); err != nil {
			return fmt.Errorf("schedule report: %w", err)
		}
		a.logger.Info("report scheduled", "every", a.cfg.ReportInterval)
	}
	return nil
}
