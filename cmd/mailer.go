/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/studentrecords/apiserver/config"
	"github.com/studentrecords/apiserver/internal/mq"
	"github.com/studentrecords/apiserver/internal/notify"
)

var mailerLogOnly bool

// mailerCmd drains the mail queue and delivers over SMTP.
var mailerCmd = &cobra.Command{
	Use:   "mailer",
	Short: "Deliver queued account emails",
	Long: `Consumes MAIL_QUEUE from RabbitMQ or Pub/Sub (per MAIL_TRANSPORT) and
delivers each message over SMTP. Usage:

	MAIL_TRANSPORT=rabbitmq studentrecords mailer
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		lg := newLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		backend, err := mq.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open mail queue: %w", err)
		}
		defer func() {
			if err := backend.Close(); err != nil {
				lg.Warn().Err(err).Msg("close mail queue")
			}
		}()

		var sender notify.Sender
		if mailerLogOnly {
			sender = notify.NewLogSender(lg)
		} else {
			sender, err = notify.NewSMTPSender(cfg.Mail.SMTP, lg)
			if err != nil {
				return err
			}
		}

		return notify.NewWorker(backend, cfg.Mail.Queue, sender, lg).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mailerCmd)
	mailerCmd.Flags().BoolVar(&mailerLogOnly, "log-only", false, "log messages instead of sending them")
}
