package main

import (
	"fmt"
	"io"
	"time"

	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/partner"
	"github.com/shopledger/backend/internal/infrastructure/cache"
	"github.com/shopledger/backend/internal/infrastructure/config"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"github.com/shopledger/backend/internal/infrastructure/notification"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var channel string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print payment notifications as the server publishes them",
		Long: `Subscribes to the Redis channel the server publishes payment
notifications on and prints each one with the ledger event it carries.
Requires redis.enabled and notification.provider = "redis" on the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if channel == "" {
				channel = cfg.Notification.Channel
			}

			log, err := logger.New(&logger.Config{
				Level:      opts.logLevel,
				Format:     "console",
				Output:     "stderr",
				TimeFormat: "2006-01-02 15:04:05",
			})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			client, err := cache.NewRedisClient(cmd.Context(), cache.RedisConfig{
				Host:     cfg.Redis.Host,
				Port:     cfg.Redis.Port,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			return notification.NewSubscriber(client, channel, log).Run(cmd.Context(), func(r *notification.Received) error {
				if opts.output == "json" {
					return writeJSON(out, r)
				}
				return printReceived(out, r)
			})
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "Channel to subscribe to (default notification.channel)")
	return cmd
}

func printReceived(out io.Writer, r *notification.Received) error {
	line := fmt.Sprintf("%s  %-26s %s", r.OccurredAt.Local().Format(time.DateTime), r.EventType, r.Subject)
	switch evt := r.Event.(type) {
	case *finance.PaymentRecordedEvent:
		line += fmt.Sprintf(" [party %s balance %s]", evt.PartyID, evt.PartyBalance.StringFixed(2))
	case *finance.LedgerDriftDetectedEvent:
		line += fmt.Sprintf(" [party %s drift %s]", evt.PartyID, evt.Drift.StringFixed(2))
	case *partner.BalanceChangedEvent:
		line += fmt.Sprintf(" [balance %s]", evt.BalanceAfter.StringFixed(2))
	}
	_, err := fmt.Fprintln(out, line)
	return err
}
