package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/daylog-hq/daylog/config"
	"github.com/daylog-hq/daylog/internal/application"
	"github.com/daylog-hq/daylog/internal/domain/repository"
	pginfra "github.com/daylog-hq/daylog/internal/infrastructure/postgres"
	"github.com/daylog-hq/daylog/pkg/helpers"
	"github.com/daylog-hq/daylog/pkg/mailer"
)

// reminder emails every non-compliant employee whose username looks like an
// address. Meant to run from cron on weekday mornings.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if !cfg.MailSendEnabled {
		log.Println("MAIL_SEND_ENABLED=false; reminder disabled (no emails will be sent)")
		return
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}
	if !cfg.UsePostgres() {
		log.Fatal("DATABASE_URL not set; nothing durable to report on")
	}

	logger := helpers.NewLogger(cfg.AppName+"-reminder", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	var store repository.Store = pginfra.NewStore(pool)

	reports := application.NewReportService(store, logger)
	rollups, err := reports.EmployeeRollups(ctx, time.Now())
	if err != nil {
		log.Fatalf("rollup failed: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	sent := 0
	for _, r := range rollups {
		if r.IsCompliant {
			continue
		}
		if !strings.Contains(r.Username, "@") {
			logger.WithField("user", r.Username).Debug("username is not an address, skipping")
			continue
		}
		body := fmt.Sprintf(
			"Hi,\n\nYou have %d recent workday(s) without a full day of logged time. "+
				"Please catch up on your timesheet.\n\nThanks!",
			r.MissingDaysCount,
		)
		if err := mg.Send(ctx, r.Username, "Timesheet reminder", body); err != nil {
			logger.WithError(err).WithField("user", r.Username).Warn("reminder send failed")
			continue
		}
		sent++
	}
	logger.Infof("reminders sent: %d", sent)
}
