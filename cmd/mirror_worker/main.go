package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/daylog-hq/daylog/config"
	"github.com/daylog-hq/daylog/pkg/helpers"
	"github.com/daylog-hq/daylog/pkg/sheets"
)

// mirror_worker drains the mirror queue and appends each entry to the
// spreadsheet. Appends are best effort: a row that cannot be written is
// logged and dropped, never requeued, so a broken sheet cannot back up the
// queue forever.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.RabbitMQURL == "" || cfg.RabbitMQMirrorQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.SheetsSpreadsheetID == "" {
		log.Fatal("GOOGLE_SHEET_ID not configured")
	}

	logger := helpers.NewLogger(cfg.AppName+"-mirror-worker", cfg.Env)

	ctx := context.Background()
	client, err := sheets.New(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsCredentialsJSONPath, logger)
	if err != nil {
		log.Fatalf("sheets client: %v", err)
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// Prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	if _, err := ch.QueueDeclare(cfg.RabbitMQMirrorQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQMirrorQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			var row sheets.EntryRow
			if err := json.Unmarshal(msg.Body, &row); err != nil {
				logger.WithError(err).Warn("bad message, dropping")
				_ = msg.Nack(false, false)
				continue
			}

			c, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := client.AppendEntry(c, row)
			cancel()
			if err != nil {
				logger.WithError(err).WithField("entry_id", row.ID).Warn("append failed, dropping")
				_ = msg.Nack(false, false)
				continue
			}
			_ = msg.Ack(false)
		}
		close(done)
	}()

	logger.Infof("mirror worker listening on queue=%s", cfg.RabbitMQMirrorQueue)
	<-stop
	logger.Info("shutting down...")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
